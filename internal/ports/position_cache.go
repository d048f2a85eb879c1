package ports

import (
	"context"

	"evfleet-console/internal/domain"
)

// Port: short-lived cache of estimated fleet positions, advisory only. A
// freshly opened fleet overview paints markers from the cache before its
// first fetch completes; estimates are recomputed and overwritten on every
// refresh.
type PositionCache interface {
	SetAll(ctx context.Context, positions []domain.VehiclePosition) error
	// GetAll returns nil when the cache is empty or expired.
	GetAll(ctx context.Context) ([]domain.VehiclePosition, error)
}
