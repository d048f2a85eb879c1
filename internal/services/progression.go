package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"evfleet-console/internal/domain"
	"evfleet-console/internal/ports"
)

// Progression drives stop completion and route status transitions.
//
// The server is the single source of truth: every successful call returns
// the server's route snapshot, which the caller substitutes for its local
// copy. In particular the engine never infers COMPLETED locally from
// completed == total; the server owns the authoritative timestamp and the
// post-completion side effects (freeing the vehicle, closing orders).
type Progression struct {
	api ports.RouteService
	log zerolog.Logger
}

func NewProgression(api ports.RouteService, log zerolog.Logger) *Progression {
	return &Progression{api: api, log: log}
}

// Start transitions a PLANNED route to IN_PROGRESS. The remote call may
// also adjust driver/vehicle availability, so the returned snapshot is the
// server's copy, not a local inference.
func (p *Progression) Start(ctx context.Context, route domain.Route) (domain.Route, error) {
	if route.Status != domain.RoutePlanned {
		return domain.Route{}, fmt.Errorf("start route %d: status %s: %w", route.ID, route.Status, ErrInvalidTransition)
	}

	updated, err := p.api.StartRoute(ctx, route.ID)
	if err != nil {
		return domain.Route{}, fmt.Errorf("start route %d: %w", route.ID, err)
	}

	p.log.Info().Int64("route_id", updated.ID).Str("status", string(updated.Status)).Msg("route started")
	return updated, nil
}

// CompleteStop marks one stop of an IN_PROGRESS route complete.
//
// The target stop must exist and be incomplete; violations fail locally
// without a network call. Out-of-order completion is allowed (the driver
// view offers a manual skip). A retry after a timed-out request is safe:
// the server rejects a duplicate completion rather than double-counting.
func (p *Progression) CompleteStop(ctx context.Context, route domain.Route, sequence int) (domain.Route, error) {
	if route.Status != domain.RouteInProgress {
		return domain.Route{}, fmt.Errorf("complete stop %d on route %d: status %s: %w",
			sequence, route.ID, route.Status, ErrInvalidTransition)
	}

	found := false
	for _, s := range route.Stops {
		if s.Sequence != sequence {
			continue
		}
		if s.Completed {
			return domain.Route{}, fmt.Errorf("complete stop %d on route %d: %w", sequence, route.ID, ErrAlreadyCompleted)
		}
		found = true
		break
	}
	if !found {
		return domain.Route{}, fmt.Errorf("complete stop %d on route %d: %w", sequence, route.ID, ErrUnknownStop)
	}

	updated, err := p.api.CompleteStop(ctx, route.ID, sequence)
	if err != nil {
		return domain.Route{}, fmt.Errorf("complete stop %d on route %d: %w", sequence, route.ID, err)
	}

	p.log.Info().
		Int64("route_id", updated.ID).
		Int("sequence", sequence).
		Int("completed", updated.CompletedCount()).
		Int("total", len(updated.Stops)).
		Str("status", string(updated.Status)).
		Msg("stop completed")
	return updated, nil
}

// Delete removes a route. Permitted from any state; interactive
// confirmation is a caller contract.
func (p *Progression) Delete(ctx context.Context, route domain.Route) error {
	if err := p.api.DeleteRoute(ctx, route.ID); err != nil {
		return fmt.Errorf("delete route %d: %w", route.ID, err)
	}
	p.log.Info().Int64("route_id", route.ID).Msg("route deleted")
	return nil
}
