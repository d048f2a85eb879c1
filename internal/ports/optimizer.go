package ports

import (
	"context"

	"evfleet-console/internal/domain"
)

// Inputs to one fleet optimization run.
type OptimizationRequest struct {
	OrderIDs             []int64
	DriverIDs            []int64
	StationIDs           []int64
	ChargingMode         domain.ChargingMode
	BatterySwapTimeHours float64
	Parallel             bool
	// Optional depot override; nil uses the service's configured depot.
	Depot *domain.LatLng
}

// Port: the external route-optimization service. Treated as a pure, possibly
// slow remote function; the adapter fills everything on the candidate except
// OrderIDs, which the caller records from its own request.
type Optimizer interface {
	Optimize(ctx context.Context, req OptimizationRequest) (*domain.OptimizationCandidate, error)
}
