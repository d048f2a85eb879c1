package services

import "evfleet-console/internal/domain"

// Position estimation for routes without a live GPS feed.
//
// The only signals are discrete stop completions, so the estimate is a
// deliberately coarse heuristic: the midpoint of the last completed stop
// (or the depot) and the next incomplete stop (or the depot, when the
// vehicle is returning). It does not interpolate by elapsed time or road
// distance; the marker jumps midway between consecutive completions on
// each refresh.

// EstimatePosition derives the current vehicle position of an IN_PROGRESS
// route. Stops lacking a resolved coordinate fall back to the depot.
func EstimatePosition(route domain.Route, depot domain.LatLng) (domain.LatLng, bool) {
	if route.Status != domain.RouteInProgress {
		return domain.LatLng{}, false
	}

	from := depot
	if last, ok := route.LastCompletedStop(); ok && last.HasLocation() {
		from = *last.Location
	}

	to := depot
	if next, ok := route.NextStop(); ok && next.HasLocation() {
		to = *next.Location
	}

	return from.Midpoint(to), true
}

// RoutePath builds the drawable polyline for a route: depot, stops in
// sequence order, depot. Stops without a resolved coordinate are skipped;
// a path with no resolved stops is suppressed (nil) rather than drawn as a
// degenerate depot-to-depot segment.
func RoutePath(route domain.Route, depot domain.LatLng) []domain.LatLng {
	points := make([]domain.LatLng, 0, len(route.Stops)+2)
	points = append(points, depot)
	for _, s := range route.SortedStops() {
		if s.HasLocation() {
			points = append(points, *s.Location)
		}
	}
	points = append(points, depot)

	if len(points) <= 2 {
		return nil
	}
	return points
}

// FleetPositions computes the estimate independently for every IN_PROGRESS
// route. No ordering guarantee between routes.
func FleetPositions(routes []domain.Route, depot domain.LatLng) []domain.VehiclePosition {
	out := make([]domain.VehiclePosition, 0, len(routes))
	for _, r := range routes {
		pos, ok := EstimatePosition(r, depot)
		if !ok {
			continue
		}
		out = append(out, domain.VehiclePosition{
			RouteID:    r.ID,
			DriverName: r.DriverName,
			Position:   pos,
		})
	}
	return out
}

// FleetPaths builds polylines for all non-terminal routes, keyed by route
// ID. Suppressed paths are omitted.
func FleetPaths(routes []domain.Route, depot domain.LatLng) map[int64][]domain.LatLng {
	out := make(map[int64][]domain.LatLng, len(routes))
	for _, r := range routes {
		if r.Terminal() {
			continue
		}
		if path := RoutePath(r, depot); path != nil {
			out[r.ID] = path
		}
	}
	return out
}
