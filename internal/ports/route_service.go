package ports

import (
	"context"

	"evfleet-console/internal/domain"
)

// Manual assignment of pending orders to a driver/vehicle pair, bypassing
// optimization.
type AssignRequest struct {
	DriverID  int64
	VehicleID int64
	OrderIDs  []int64
}

// Port: boundary to the fleet Persistence API.
//
// Every mutating call returns the server's authoritative route snapshot;
// callers replace their local copy rather than patching it. Mutations are
// never retried by the adapter: correctness against double submission is
// the server's job, and a silent retry could duplicate one.
type RouteService interface {
	// All routes (dispatcher view).
	ListRoutes(ctx context.Context) ([]domain.Route, error)
	// Routes assigned to one driver.
	ListRoutesByDriver(ctx context.Context, driverID int64) ([]domain.Route, error)
	// Routes of the authenticated driver.
	ListMyRoutes(ctx context.Context) ([]domain.Route, error)
	// In-progress routes of the authenticated driver.
	ListMyActiveRoutes(ctx context.Context) ([]domain.Route, error)

	StartRoute(ctx context.Context, routeID int64) (domain.Route, error)
	CompleteStop(ctx context.Context, routeID int64, sequence int) (domain.Route, error)
	DeleteRoute(ctx context.Context, routeID int64) error

	AssignRoute(ctx context.Context, req AssignRequest) (domain.Route, error)
	// Atomically persist one route per candidate vehicle route and mark the
	// constituent orders assigned.
	ApplyOptimization(ctx context.Context, routes []domain.OptimizedRoute, orderIDs []int64) ([]domain.Route, error)
}
