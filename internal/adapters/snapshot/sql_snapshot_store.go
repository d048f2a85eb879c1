package snapshot

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"evfleet-console/internal/domain"
	"evfleet-console/internal/platform/obs"
)

// Postgres-backed snapshot store for shared-dispatch deployments, where
// several consoles point at one database. One row per view key; Put
// replaces the row wholesale.
type SQLSnapshotStore struct {
	DB  *sql.DB
	Log zerolog.Logger
}

func NewSQLSnapshotStore(db *sql.DB, log zerolog.Logger) *SQLSnapshotStore {
	return &SQLSnapshotStore{DB: db, Log: log}
}

// InitSchema creates the snapshot table when missing.
func InitSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
	CREATE TABLE IF NOT EXISTS route_snapshots (
        view_key   TEXT PRIMARY KEY,
        fetched_at TIMESTAMPTZ NOT NULL,
        payload    JSONB NOT NULL
    );
	`)
	if err != nil {
		return fmt.Errorf("init snapshot schema: %w", err)
	}
	return nil
}

func (s *SQLSnapshotStore) Put(ctx context.Context, view string, routes []domain.Route, fetchedAt time.Time) (err error) {
	defer obs.Time(s.Log, "snapshot.Put")(&err)

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
	INSERT INTO route_snapshots (view_key, fetched_at, payload)
    VALUES ($1, $2, $3)
    ON CONFLICT (view_key) DO UPDATE
        SET fetched_at = EXCLUDED.fetched_at,
            payload = EXCLUDED.payload;
	`, view, fetchedAt.UTC(), payload)
	if err != nil {
		return fmt.Errorf("put snapshot view=%q: %w", view, err)
	}
	return nil
}

func (s *SQLSnapshotStore) Get(ctx context.Context, view string) (_ []domain.Route, _ time.Time, err error) {
	defer obs.Time(s.Log, "snapshot.Get")(&err)

	if s.DB == nil {
		return nil, time.Time{}, errors.New("snapshot store: db is nil")
	}
	if view == "" {
		return nil, time.Time{}, errors.New("get snapshot: view must not be empty")
	}

	var payload []byte
	var fetchedAt time.Time
	row := s.DB.QueryRowContext(ctx, `
	SELECT payload, fetched_at
    FROM route_snapshots
    WHERE view_key = $1;
	`, view)
	if err := row.Scan(&payload, &fetchedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, time.Time{}, nil
		}
		return nil, time.Time{}, fmt.Errorf("get snapshot view=%q: %w", view, err)
	}

	var routes []domain.Route
	if err := json.Unmarshal(payload, &routes); err != nil {
		return nil, time.Time{}, fmt.Errorf("get snapshot view=%q: decode payload: %w", view, err)
	}
	return routes, fetchedAt, nil
}

// Prune deletes snapshots older than the given age and reports how many
// rows went away.
func (s *SQLSnapshotStore) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	if s.DB == nil {
		return 0, errors.New("snapshot store: db is nil")
	}

	res, err := s.DB.ExecContext(ctx, `
	DELETE FROM route_snapshots
    WHERE fetched_at < $1;
	`, time.Now().Add(-olderThan).UTC())
	if err != nil {
		return 0, fmt.Errorf("prune snapshots: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune snapshots: rows affected: %w", err)
	}
	return n, nil
}
