package domain

// Kind of work performed at a stop.
type StopKind string

const (
	StopCustomer    StopKind = "CUSTOMER"
	StopBatterySwap StopKind = "SWAP"
	StopDepot       StopKind = "DEPOT"
)

// Represents a single point of work in an assigned route: a customer
// delivery or a battery-swap visit. Sequence numbers are 1-based and
// contiguous within a route. Completion is monotonic; a completed stop
// never reverts.
type Stop struct {
	Sequence     int
	Kind         StopKind
	OrderID      int64 // set for CUSTOMER stops
	StationID    int64 // set for SWAP stops
	Location     *LatLng
	Address      string
	CustomerName string
	Completed    bool
}

// Report whether the stop has a resolved coordinate.
func (s Stop) HasLocation() bool {
	return s.Location != nil
}
