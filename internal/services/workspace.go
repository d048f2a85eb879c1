package services

import (
	"sync"
	"time"

	"evfleet-console/internal/domain"
)

// Workspace is the view-owned working set of routes.
//
// It is rebuilt wholesale on every successful fetch; there is no
// incremental patching. A slow fetch landing after a newer one simply
// replaces it. Full-snapshot replacement makes out-of-order application
// harmless at this cadence, and a stale overwrite is an accepted risk.
type Workspace struct {
	mu        sync.RWMutex
	routes    []domain.Route
	fetchedAt time.Time
}

func NewWorkspace() *Workspace {
	return &Workspace{}
}

// Replace substitutes the entire route set with a fresh snapshot.
func (w *Workspace) Replace(routes []domain.Route, fetchedAt time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.routes = append([]domain.Route(nil), routes...)
	w.fetchedAt = fetchedAt
}

// Routes returns a copy of the current snapshot.
func (w *Workspace) Routes() []domain.Route {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return append([]domain.Route(nil), w.routes...)
}

func (w *Workspace) FetchedAt() time.Time {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.fetchedAt
}

// ActiveRoute returns the first IN_PROGRESS route, the one the driver view
// tracks.
func (w *Workspace) ActiveRoute() (domain.Route, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	for _, r := range w.routes {
		if r.Status == domain.RouteInProgress {
			return r, true
		}
	}
	return domain.Route{}, false
}

// CountByStatus reports how many routes are in each status.
func (w *Workspace) CountByStatus() map[domain.RouteStatus]int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make(map[domain.RouteStatus]int, 4)
	for _, r := range w.routes {
		out[r.Status]++
	}
	return out
}

// Remove drops a route from the working set, after a successful delete.
// The next refresh rebuilds the set from the server anyway.
func (w *Workspace) Remove(routeID int64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	kept := w.routes[:0]
	for _, r := range w.routes {
		if r.ID != routeID {
			kept = append(kept, r)
		}
	}
	w.routes = kept
}

// Update replaces one route in place with a fresh server snapshot, keeping
// the rest of the set untouched until the next full refresh.
func (w *Workspace) Update(route domain.Route) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for i, r := range w.routes {
		if r.ID == route.ID {
			w.routes[i] = route
			return
		}
	}
	w.routes = append(w.routes, route)
}
