package snapshot

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"evfleet-console/internal/domain"
)

// SQLite-backed snapshot store for single-operator installs (a driver
// tablet carries its own file database).
type SqliteSnapshotStore struct {
	DB *sql.DB
}

func NewSqliteSnapshotStore(db *sql.DB) *SqliteSnapshotStore {
	return &SqliteSnapshotStore{DB: db}
}

// Init creates the snapshot table when missing. fetched_at is stored as
// unix milliseconds; sqlite has no native timestamp type.
func (s *SqliteSnapshotStore) Init(ctx context.Context) error {
	if s.DB == nil {
		return errors.New("snapshot store: db is nil")
	}

	_, err := s.DB.ExecContext(ctx, `
	CREATE TABLE IF NOT EXISTS route_snapshots (
        view_key      TEXT PRIMARY KEY,
        fetched_at_ms INTEGER NOT NULL,
        payload       TEXT NOT NULL
    );
	`)
	if err != nil {
		return fmt.Errorf("init snapshot schema: %w", err)
	}
	return nil
}

func (s *SqliteSnapshotStore) Put(ctx context.Context, view string, routes []domain.Route, fetchedAt time.Time) error {
	if s.DB == nil {
		return errors.New("snapshot store: db is nil")
	}
	if view == "" {
		return errors.New("put snapshot: view must not be empty")
	}

	payload, err := json.Marshal(routes)
	if err != nil {
		return fmt.Errorf("put snapshot: encode payload: %w", err)
	}

	_, err = s.DB.ExecContext(ctx, `
	INSERT OR REPLACE INTO route_snapshots (view_key, fetched_at_ms, payload)
    VALUES (?, ?, ?);
	`, view, fetchedAt.UnixMilli(), string(payload))
	if err != nil {
		return fmt.Errorf("put snapshot view=%q: %w", view, err)
	}
	return nil
}

func (s *SqliteSnapshotStore) Get(ctx context.Context, view string) ([]domain.Route, time.Time, error) {
	if s.DB == nil {
		return nil, time.Time{}, errors.New("snapshot store: db is nil")
	}
	if view == "" {
		return nil, time.Time{}, errors.New("get snapshot: view must not be empty")
	}

	var payload string
	var fetchedAtMs int64
	row := s.DB.QueryRowContext(ctx, `
	SELECT payload, fetched_at_ms
    FROM route_snapshots
    WHERE view_key = ?;
	`, view)
	if err := row.Scan(&payload, &fetchedAtMs); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, time.Time{}, nil
		}
		return nil, time.Time{}, fmt.Errorf("get snapshot view=%q: %w", view, err)
	}

	var routes []domain.Route
	if err := json.Unmarshal([]byte(payload), &routes); err != nil {
		return nil, time.Time{}, fmt.Errorf("get snapshot view=%q: decode payload: %w", view, err)
	}
	return routes, time.UnixMilli(fetchedAtMs), nil
}
