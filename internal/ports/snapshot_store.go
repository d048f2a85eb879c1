package ports

import (
	"context"
	"time"

	"evfleet-console/internal/domain"
)

// Port: durable last-good route snapshots, keyed by view.
//
// A snapshot is the full route set of one view at one fetch; Put replaces
// the prior snapshot wholesale, mirroring how the in-memory model is
// rebuilt on every refresh. Used to repaint a view on cold start before its
// first fetch completes.
type SnapshotStore interface {
	Put(ctx context.Context, view string, routes []domain.Route, fetchedAt time.Time) error
	// Get returns the stored snapshot, or (nil, zero time, nil) when the
	// view has none.
	Get(ctx context.Context, view string) ([]domain.Route, time.Time, error)
}
