package domain

// Policy for restoring vehicle energy mid-route, decided by the external
// solver's feasibility model.
type ChargingMode string

const (
	ChargingFullRecharge ChargingMode = "FULL_RECHARGE"
	ChargingBatterySwap  ChargingMode = "BATTERY_SWAP"
)

// A stop in a solver-proposed route. Coordinates are solver-plane x/y as
// returned by the optimization service; they are echoed back verbatim when
// the candidate is applied.
type OptimizedStop struct {
	NodeID int64
	Kind   string // CUSTOMER, STATION
	X      float64
	Y      float64
}

// A single vehicle route proposed by the solver.
type OptimizedRoute struct {
	VehicleID int64
	Stops     []OptimizedStop
	Distance  float64
	Feasible  bool
}

type OptimizationSummary struct {
	TotalVehicles  int
	TotalDistance  float64
	TotalCost      float64
	Feasible       bool
	TotalCustomers int
	TotalStations  int

	// Advisory soft constraint: the solution needs more drivers than are
	// currently available. Does not block applying the candidate.
	InsufficientDrivers  bool
	RequiredDriverCount  int
	AvailableDriverCount int
}

// An unpersisted set of routes returned by the solver, pending user
// confirmation. At most one candidate is live per session; a new
// optimization request replaces any prior candidate outright.
//
// OrderIDs is the exact order set submitted with the request. The solver
// result references vehicles, not orders, so the set must travel with the
// candidate to the apply call.
type OptimizationCandidate struct {
	OrderIDs      []int64
	Routes        []OptimizedRoute
	Summary       OptimizationSummary
	ComputeTimeMs int64
	ChargingMode  ChargingMode
}

func (c OptimizationCandidate) Feasible() bool {
	return c.Summary.Feasible
}
