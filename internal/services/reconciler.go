package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"evfleet-console/internal/domain"
	"evfleet-console/internal/ports"
)

type ReconcilerState string

const (
	StateIdle         ReconcilerState = "IDLE"
	StateComputing    ReconcilerState = "COMPUTING"
	StateHasCandidate ReconcilerState = "HAS_CANDIDATE"
	StateApplying     ReconcilerState = "APPLYING"
)

// Reconciler submits optimization requests, holds the one live candidate of
// the session, and converts it into persisted routes on confirmation.
//
// The candidate is transient: it lives here and nowhere else until applied.
// Requesting a new optimization replaces any prior candidate outright; no
// merge. Callers are expected to disable the triggering control while a
// request is outstanding, but state is guarded anyway since the sync
// scheduler shares the view with a background goroutine.
type Reconciler struct {
	optimizer ports.Optimizer
	api       ports.RouteService
	// Invoked after a successful apply to trigger a full route refresh.
	refresh func(context.Context)
	log     zerolog.Logger

	mu        sync.Mutex
	state     ReconcilerState
	candidate *domain.OptimizationCandidate
}

func NewReconciler(optimizer ports.Optimizer, api ports.RouteService, refresh func(context.Context), log zerolog.Logger) *Reconciler {
	return &Reconciler{
		optimizer: optimizer,
		api:       api,
		refresh:   refresh,
		log:       log,
		state:     StateIdle,
	}
}

func (r *Reconciler) State() ReconcilerState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Candidate returns the live candidate, if any.
func (r *Reconciler) Candidate() (*domain.OptimizationCandidate, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.candidate, r.candidate != nil
}

// Request submits a new optimization run. Rejected synchronously with
// ErrNoOrders when no orders are selected; no network call is made. On
// success the candidate, together with the exact order set submitted, is
// held until applied or discarded.
func (r *Reconciler) Request(ctx context.Context, req ports.OptimizationRequest) (*domain.OptimizationCandidate, error) {
	if len(req.OrderIDs) == 0 {
		return nil, fmt.Errorf("request optimization: %w", ErrNoOrders)
	}

	r.mu.Lock()
	if r.state == StateComputing || r.state == StateApplying {
		r.mu.Unlock()
		return nil, fmt.Errorf("request optimization: %w", ErrOptimizationBusy)
	}
	// A new request discards any prior candidate outright.
	r.candidate = nil
	r.state = StateComputing
	r.mu.Unlock()

	cand, err := r.optimizer.Optimize(ctx, req)

	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		r.state = StateIdle
		return nil, fmt.Errorf("request optimization: %w", err)
	}

	cand.OrderIDs = append([]int64(nil), req.OrderIDs...)
	r.candidate = cand
	r.state = StateHasCandidate

	r.log.Info().
		Int("routes", len(cand.Routes)).
		Int("orders", len(cand.OrderIDs)).
		Bool("feasible", cand.Summary.Feasible).
		Bool("insufficient_drivers", cand.Summary.InsufficientDrivers).
		Int64("compute_ms", cand.ComputeTimeMs).
		Msg("optimization candidate ready")
	return cand, nil
}

// Apply persists the live candidate. Only valid with a feasible candidate;
// an infeasible one is rejected before any network call. On failure the
// candidate is retained so the user may retry or discard. On success the
// candidate is dropped and a full route refresh is triggered.
//
// An advisory insufficient-drivers signal on an otherwise feasible summary
// does not block applying.
func (r *Reconciler) Apply(ctx context.Context) ([]domain.Route, error) {
	r.mu.Lock()
	if r.state != StateHasCandidate || r.candidate == nil {
		r.mu.Unlock()
		return nil, fmt.Errorf("apply optimization: %w", ErrNoCandidate)
	}
	if !r.candidate.Feasible() {
		r.mu.Unlock()
		return nil, fmt.Errorf("apply optimization: %w", ErrInfeasibleCandidate)
	}
	cand := r.candidate
	r.state = StateApplying
	r.mu.Unlock()

	routes, err := r.api.ApplyOptimization(ctx, cand.Routes, cand.OrderIDs)

	r.mu.Lock()
	if err != nil {
		r.state = StateHasCandidate
		r.mu.Unlock()
		return nil, fmt.Errorf("apply optimization: %w", err)
	}
	r.candidate = nil
	r.state = StateIdle
	r.mu.Unlock()

	r.log.Info().Int("routes", len(routes)).Msg("optimization applied")
	if r.refresh != nil {
		r.refresh(ctx)
	}
	return routes, nil
}

// Discard drops the live candidate without a network call. No-op when there
// is none.
func (r *Reconciler) Discard() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != StateHasCandidate {
		return
	}
	r.candidate = nil
	r.state = StateIdle
	r.log.Debug().Msg("optimization candidate discarded")
}
