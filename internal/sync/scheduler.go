package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"evfleet-console/internal/domain"
	"evfleet-console/internal/ports"
)

// Fetches the full route snapshot for one view.
type FetchFunc func(ctx context.Context) ([]domain.Route, error)

// Receives each successful snapshot; always a full replacement.
type ApplyFunc func(routes []domain.Route, fetchedAt time.Time)

type Config struct {
	// View key, e.g. "driver:7" or "dispatch". Also the snapshot store key.
	View  string
	Fetch FetchFunc
	Apply ApplyFunc
	// Refresh cadence. Zero or negative means on-demand only: Run performs
	// the initial fetch, then the view calls Refresh after each mutating
	// action (the dispatcher pattern).
	Interval time.Duration
	// Optional write-through of good snapshots.
	Store ports.SnapshotStore
	// Optional transient-notice sink for background failures.
	Notifier ports.Notifier
	Log      zerolog.Logger
}

// Scheduler keeps one view's route snapshot synchronized with the server.
//
// On Run it fetches immediately, then repeats on a fixed interval until the
// context is cancelled (view teardown). Overlapping fetches are not
// coalesced or aborted; each successful fetch fully replaces the prior
// snapshot, so out-of-order application is harmless. Fetch errors never
// clear previously displayed data: last good state wins.
type Scheduler struct {
	cfg Config
}

func New(cfg Config) *Scheduler {
	return &Scheduler{cfg: cfg}
}

// Run drives the view's refresh timeline until ctx is cancelled. The first
// fetch happens immediately. Errors are reported as notices and logged,
// never returned; a later tick can always re-establish consistent state.
func (s *Scheduler) Run(ctx context.Context) {
	if err := s.Refresh(ctx); err != nil {
		s.report(err)
	}

	if s.cfg.Interval <= 0 {
		return
	}

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.cfg.Log.Debug().Str("view", s.cfg.View).Msg("sync stopped")
			return
		case <-ticker.C:
			if err := s.Refresh(ctx); err != nil {
				s.report(err)
			}
		}
	}
}

// Refresh performs one fetch-and-replace cycle. Mutation-driven callers
// (the dispatcher view refetches after every mutating action) invoke this
// directly. On failure the previous snapshot is retained.
func (s *Scheduler) Refresh(ctx context.Context) error {
	routes, err := s.cfg.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("refresh %s: %w", s.cfg.View, err)
	}

	fetchedAt := time.Now()
	if s.cfg.Apply != nil {
		s.cfg.Apply(routes, fetchedAt)
	}

	if s.cfg.Store != nil {
		// Best effort; a failed write-through never fails the refresh.
		if err := s.cfg.Store.Put(ctx, s.cfg.View, routes, fetchedAt); err != nil {
			s.cfg.Log.Warn().Err(err).Str("view", s.cfg.View).Msg("snapshot write-through failed")
		}
	}

	s.cfg.Log.Debug().Str("view", s.cfg.View).Int("routes", len(routes)).Msg("snapshot applied")
	return nil
}

// LastGood loads the stored snapshot for a cold start, before the first
// fetch completes.
func (s *Scheduler) LastGood(ctx context.Context) ([]domain.Route, time.Time, error) {
	if s.cfg.Store == nil {
		return nil, time.Time{}, nil
	}
	routes, at, err := s.cfg.Store.Get(ctx, s.cfg.View)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("load last snapshot %s: %w", s.cfg.View, err)
	}
	return routes, at, nil
}

func (s *Scheduler) report(err error) {
	s.cfg.Log.Warn().Err(err).Str("view", s.cfg.View).Msg("background refresh failed")
	if s.cfg.Notifier != nil {
		s.cfg.Notifier.Notify("refresh failed: " + err.Error())
	}
}
