package domain

import (
	"slices"
	"time"
)

type RouteStatus string

const (
	RoutePlanned    RouteStatus = "PLANNED"
	RouteInProgress RouteStatus = "IN_PROGRESS"
	RouteCompleted  RouteStatus = "COMPLETED"
	RouteCancelled  RouteStatus = "CANCELLED"
)

// A driver's assigned ordered sequence of stops for one trip.
//
// Routes are value snapshots: the view that fetched a route owns it, and
// every successful fetch or mutation replaces the whole snapshot with the
// server's authoritative copy. Nothing here mutates a Stop in place.
// The depot is not stored as a stop; it is injected at path construction
// and position estimation time.
type Route struct {
	ID            int64
	DriverID      int64
	DriverName    string
	VehicleID     int64
	VehiclePlate  string
	Status        RouteStatus
	Stops         []Stop
	TotalDistance *float64 // as reported by the server; nil when unknown
	CreatedAt     time.Time
	StartedAt     *time.Time
	CompletedAt   *time.Time
}

// SortedStops returns the stops in ascending sequence order.
// The receiver's slice is not modified.
func (r Route) SortedStops() []Stop {
	out := slices.Clone(r.Stops)
	slices.SortFunc(out, func(a, b Stop) int {
		return a.Sequence - b.Sequence
	})
	return out
}

// CompletedStops returns the completed stops in ascending sequence order.
func (r Route) CompletedStops() []Stop {
	out := make([]Stop, 0, len(r.Stops))
	for _, s := range r.SortedStops() {
		if s.Completed {
			out = append(out, s)
		}
	}
	return out
}

func (r Route) CompletedCount() int {
	n := 0
	for _, s := range r.Stops {
		if s.Completed {
			n++
		}
	}
	return n
}

// NextStop returns the lowest-sequence incomplete stop. Completion order is
// not strictly sequential (the driver view offers a manual skip), so gaps
// are expected and this is never "last completion + 1".
func (r Route) NextStop() (Stop, bool) {
	for _, s := range r.SortedStops() {
		if !s.Completed {
			return s, true
		}
	}
	return Stop{}, false
}

// LastCompletedStop returns the completed stop with the highest sequence.
func (r Route) LastCompletedStop() (Stop, bool) {
	completed := r.CompletedStops()
	if len(completed) == 0 {
		return Stop{}, false
	}
	return completed[len(completed)-1], true
}

// ProgressFraction reports completed/total in [0,1]; 0 for a route with no
// stops.
func (r Route) ProgressFraction() float64 {
	if len(r.Stops) == 0 {
		return 0
	}
	return float64(r.CompletedCount()) / float64(len(r.Stops))
}

// Terminal reports whether the route can no longer change state.
func (r Route) Terminal() bool {
	return r.Status == RouteCompleted || r.Status == RouteCancelled
}
