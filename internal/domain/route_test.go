package domain

import "testing"

func loc(lat, lng float64) *LatLng {
	return &LatLng{Lat: lat, Lng: lng}
}

func TestNextStopLowestIncompleteSequence(t *testing.T) {
	// Stops arrive unsorted and stop 2 was skipped: the next stop must be
	// the lowest-sequence incomplete one, not "last completion + 1".
	r := Route{
		Status: RouteInProgress,
		Stops: []Stop{
			{Sequence: 3, Kind: StopCustomer, Completed: true},
			{Sequence: 1, Kind: StopCustomer, Completed: true},
			{Sequence: 4, Kind: StopCustomer},
			{Sequence: 2, Kind: StopCustomer},
		},
	}

	next, ok := r.NextStop()
	if !ok {
		t.Fatal("expected a next stop")
	}
	if next.Sequence != 2 {
		t.Fatalf("next sequence = %d, want 2", next.Sequence)
	}
}

func TestNextStopAllCompleted(t *testing.T) {
	r := Route{
		Status: RouteInProgress,
		Stops: []Stop{
			{Sequence: 1, Completed: true},
			{Sequence: 2, Completed: true},
		},
	}

	if _, ok := r.NextStop(); ok {
		t.Fatal("expected no next stop when every stop is completed")
	}
}

func TestLastCompletedStopHighestSequence(t *testing.T) {
	r := Route{
		Stops: []Stop{
			{Sequence: 3, Completed: true},
			{Sequence: 1, Completed: true},
			{Sequence: 2},
		},
	}

	last, ok := r.LastCompletedStop()
	if !ok {
		t.Fatal("expected a last completed stop")
	}
	if last.Sequence != 3 {
		t.Fatalf("last completed sequence = %d, want 3", last.Sequence)
	}

	if _, ok := (Route{}).LastCompletedStop(); ok {
		t.Fatal("expected no last completed stop on an empty route")
	}
}

func TestSortedStopsDoesNotMutateReceiver(t *testing.T) {
	r := Route{
		Stops: []Stop{
			{Sequence: 2},
			{Sequence: 1},
		},
	}

	sorted := r.SortedStops()
	if sorted[0].Sequence != 1 || sorted[1].Sequence != 2 {
		t.Fatalf("sorted sequences = %d,%d, want 1,2", sorted[0].Sequence, sorted[1].Sequence)
	}
	if r.Stops[0].Sequence != 2 {
		t.Fatalf("receiver mutated: first sequence = %d, want 2", r.Stops[0].Sequence)
	}
}

func TestProgressFraction(t *testing.T) {
	r := Route{
		Stops: []Stop{
			{Sequence: 1, Completed: true},
			{Sequence: 2},
			{Sequence: 3},
			{Sequence: 4},
		},
	}

	if got := r.ProgressFraction(); got != 0.25 {
		t.Fatalf("progress = %v, want 0.25", got)
	}
	if got := (Route{}).ProgressFraction(); got != 0 {
		t.Fatalf("empty route progress = %v, want 0", got)
	}
}

func TestTerminal(t *testing.T) {
	cases := []struct {
		status RouteStatus
		want   bool
	}{
		{RoutePlanned, false},
		{RouteInProgress, false},
		{RouteCompleted, true},
		{RouteCancelled, true},
	}
	for _, c := range cases {
		if got := (Route{Status: c.status}).Terminal(); got != c.want {
			t.Fatalf("Terminal(%s) = %v, want %v", c.status, got, c.want)
		}
	}
}

func TestMidpoint(t *testing.T) {
	p := LatLng{Lat: 10, Lng: 20}
	q := LatLng{Lat: 20, Lng: 40}

	m := p.Midpoint(q)
	if m.Lat != 15 || m.Lng != 30 {
		t.Fatalf("midpoint = %+v, want {15 30}", m)
	}
}

func TestStopHasLocation(t *testing.T) {
	if (Stop{}).HasLocation() {
		t.Fatal("stop without coordinates reports a location")
	}
	if !(Stop{Location: loc(1, 2)}).HasLocation() {
		t.Fatal("stop with coordinates reports no location")
	}
}
