package services

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"evfleet-console/internal/domain"
	"evfleet-console/internal/ports"
)

type mockOptimizer struct {
	calls  int
	result *domain.OptimizationCandidate
	err    error
}

func (m *mockOptimizer) Optimize(ctx context.Context, req ports.OptimizationRequest) (*domain.OptimizationCandidate, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	cand := *m.result
	return &cand, nil
}

func feasibleCandidate() *domain.OptimizationCandidate {
	return &domain.OptimizationCandidate{
		Routes: []domain.OptimizedRoute{
			{VehicleID: 9, Distance: 42.5, Feasible: true},
		},
		Summary: domain.OptimizationSummary{TotalVehicles: 1, Feasible: true},
	}
}

func TestRequestRejectsEmptyOrderSet(t *testing.T) {
	opt := &mockOptimizer{result: feasibleCandidate()}
	rec := NewReconciler(opt, &mockRouteService{}, nil, zerolog.Nop())

	_, err := rec.Request(context.Background(), ports.OptimizationRequest{})
	if !errors.Is(err, ErrNoOrders) {
		t.Fatalf("err = %v, want ErrNoOrders", err)
	}
	if opt.calls != 0 {
		t.Fatalf("optimizer calls = %d, want 0", opt.calls)
	}
	if rec.State() != StateIdle {
		t.Fatalf("state = %s, want IDLE", rec.State())
	}
}

func TestRequestRecordsSubmittedOrderSet(t *testing.T) {
	opt := &mockOptimizer{result: feasibleCandidate()}
	rec := NewReconciler(opt, &mockRouteService{}, nil, zerolog.Nop())

	orders := []int64{3, 1, 7}
	cand, err := rec.Request(context.Background(), ports.OptimizationRequest{OrderIDs: orders})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cand.OrderIDs) != 3 || cand.OrderIDs[0] != 3 || cand.OrderIDs[2] != 7 {
		t.Fatalf("candidate orders = %v, want [3 1 7]", cand.OrderIDs)
	}
	if rec.State() != StateHasCandidate {
		t.Fatalf("state = %s, want HAS_CANDIDATE", rec.State())
	}
}

func TestRequestReplacesPriorCandidate(t *testing.T) {
	opt := &mockOptimizer{result: feasibleCandidate()}
	rec := NewReconciler(opt, &mockRouteService{}, nil, zerolog.Nop())

	if _, err := rec.Request(context.Background(), ports.OptimizationRequest{OrderIDs: []int64{1}}); err != nil {
		t.Fatalf("first request: %v", err)
	}
	if _, err := rec.Request(context.Background(), ports.OptimizationRequest{OrderIDs: []int64{2}}); err != nil {
		t.Fatalf("second request: %v", err)
	}

	cand, ok := rec.Candidate()
	if !ok {
		t.Fatal("expected a live candidate")
	}
	if len(cand.OrderIDs) != 1 || cand.OrderIDs[0] != 2 {
		t.Fatalf("candidate orders = %v, want [2]", cand.OrderIDs)
	}
}

func TestRequestFailureReturnsToIdle(t *testing.T) {
	opt := &mockOptimizer{err: &ports.TransientError{Err: errors.New("boom")}}
	rec := NewReconciler(opt, &mockRouteService{}, nil, zerolog.Nop())

	if _, err := rec.Request(context.Background(), ports.OptimizationRequest{OrderIDs: []int64{1}}); err == nil {
		t.Fatal("expected an error")
	}
	if rec.State() != StateIdle {
		t.Fatalf("state = %s, want IDLE", rec.State())
	}
	if _, ok := rec.Candidate(); ok {
		t.Fatal("expected no candidate after a failed request")
	}
}

func TestApplyWithoutCandidate(t *testing.T) {
	api := &mockRouteService{}
	rec := NewReconciler(&mockOptimizer{}, api, nil, zerolog.Nop())

	_, err := rec.Apply(context.Background())
	if !errors.Is(err, ErrNoCandidate) {
		t.Fatalf("err = %v, want ErrNoCandidate", err)
	}
	if api.applyCalls != 0 {
		t.Fatalf("apply calls = %d, want 0", api.applyCalls)
	}
}

func TestApplyRejectsInfeasibleCandidateWithoutNetworkCall(t *testing.T) {
	infeasible := feasibleCandidate()
	infeasible.Summary.Feasible = false
	opt := &mockOptimizer{result: infeasible}
	api := &mockRouteService{}
	rec := NewReconciler(opt, api, nil, zerolog.Nop())

	if _, err := rec.Request(context.Background(), ports.OptimizationRequest{OrderIDs: []int64{1}}); err != nil {
		t.Fatalf("request: %v", err)
	}
	_, err := rec.Apply(context.Background())
	if !errors.Is(err, ErrInfeasibleCandidate) {
		t.Fatalf("err = %v, want ErrInfeasibleCandidate", err)
	}
	if api.applyCalls != 0 {
		t.Fatalf("apply calls = %d, want 0", api.applyCalls)
	}
	// Candidate is kept; the user may discard it or request a new run.
	if rec.State() != StateHasCandidate {
		t.Fatalf("state = %s, want HAS_CANDIDATE", rec.State())
	}
}

func TestApplyFailureRetainsCandidate(t *testing.T) {
	opt := &mockOptimizer{result: feasibleCandidate()}
	api := &mockRouteService{err: &ports.TransientError{Err: errors.New("gateway timeout")}}
	rec := NewReconciler(opt, api, nil, zerolog.Nop())

	if _, err := rec.Request(context.Background(), ports.OptimizationRequest{OrderIDs: []int64{1}}); err != nil {
		t.Fatalf("request: %v", err)
	}
	if _, err := rec.Apply(context.Background()); err == nil {
		t.Fatal("expected apply to fail")
	}
	if rec.State() != StateHasCandidate {
		t.Fatalf("state = %s, want HAS_CANDIDATE", rec.State())
	}

	// A retry succeeds once the server recovers.
	api.err = nil
	api.applyResult = []domain.Route{{ID: 11}}
	routes, err := rec.Apply(context.Background())
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if len(routes) != 1 || routes[0].ID != 11 {
		t.Fatalf("routes = %+v, want one route with id 11", routes)
	}
}

func TestApplySuccessTriggersRefresh(t *testing.T) {
	opt := &mockOptimizer{result: feasibleCandidate()}
	api := &mockRouteService{applyResult: []domain.Route{{ID: 11}}}
	refreshed := 0
	rec := NewReconciler(opt, api, func(context.Context) { refreshed++ }, zerolog.Nop())

	if _, err := rec.Request(context.Background(), ports.OptimizationRequest{OrderIDs: []int64{4, 5}}); err != nil {
		t.Fatalf("request: %v", err)
	}
	if _, err := rec.Apply(context.Background()); err != nil {
		t.Fatalf("apply: %v", err)
	}

	if rec.State() != StateIdle {
		t.Fatalf("state = %s, want IDLE", rec.State())
	}
	if _, ok := rec.Candidate(); ok {
		t.Fatal("expected the candidate to be dropped")
	}
	if refreshed != 1 {
		t.Fatalf("refresh calls = %d, want 1", refreshed)
	}
	if len(api.appliedOrders) != 2 || api.appliedOrders[0] != 4 {
		t.Fatalf("applied orders = %v, want [4 5]", api.appliedOrders)
	}
	if len(api.appliedRoutes) != 1 || api.appliedRoutes[0].VehicleID != 9 {
		t.Fatalf("applied routes = %+v, want the candidate's route", api.appliedRoutes)
	}
}

func TestApplyAllowsInsufficientDriversAdvisory(t *testing.T) {
	cand := feasibleCandidate()
	cand.Summary.InsufficientDrivers = true
	cand.Summary.RequiredDriverCount = 3
	cand.Summary.AvailableDriverCount = 2
	opt := &mockOptimizer{result: cand}
	api := &mockRouteService{applyResult: []domain.Route{{ID: 11}}}
	rec := NewReconciler(opt, api, nil, zerolog.Nop())

	if _, err := rec.Request(context.Background(), ports.OptimizationRequest{OrderIDs: []int64{1}}); err != nil {
		t.Fatalf("request: %v", err)
	}
	if _, err := rec.Apply(context.Background()); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if api.applyCalls != 1 {
		t.Fatalf("apply calls = %d, want 1", api.applyCalls)
	}
}

func TestDiscardDropsCandidateWithoutNetworkCall(t *testing.T) {
	opt := &mockOptimizer{result: feasibleCandidate()}
	api := &mockRouteService{}
	rec := NewReconciler(opt, api, nil, zerolog.Nop())

	rec.Discard() // no-op while idle
	if rec.State() != StateIdle {
		t.Fatalf("state = %s, want IDLE", rec.State())
	}

	if _, err := rec.Request(context.Background(), ports.OptimizationRequest{OrderIDs: []int64{1}}); err != nil {
		t.Fatalf("request: %v", err)
	}
	rec.Discard()

	if rec.State() != StateIdle {
		t.Fatalf("state = %s, want IDLE", rec.State())
	}
	if _, ok := rec.Candidate(); ok {
		t.Fatal("expected no candidate after discard")
	}
	if api.applyCalls != 0 {
		t.Fatalf("apply calls = %d, want 0", api.applyCalls)
	}
}
