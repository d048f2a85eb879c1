package sync

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"evfleet-console/internal/domain"
)

type mockStore struct {
	mu        sync.Mutex
	putView   string
	putRoutes []domain.Route
	putCalls  int
	putErr    error

	getRoutes []domain.Route
	getAt     time.Time
	getErr    error
}

func (m *mockStore) Put(ctx context.Context, view string, routes []domain.Route, fetchedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.putView = view
	m.putRoutes = routes
	m.putCalls++
	return m.putErr
}

func (m *mockStore) Get(ctx context.Context, view string) ([]domain.Route, time.Time, error) {
	return m.getRoutes, m.getAt, m.getErr
}

type mockNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (m *mockNotifier) Notify(message string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, message)
}

func (m *mockNotifier) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.messages)
}

func TestRunFetchesImmediately(t *testing.T) {
	fetched := 0
	var applied []domain.Route
	s := New(Config{
		View: "driver:7",
		Fetch: func(ctx context.Context) ([]domain.Route, error) {
			fetched++
			return []domain.Route{{ID: 1}}, nil
		},
		Apply: func(routes []domain.Route, fetchedAt time.Time) {
			applied = routes
		},
		// On-demand view: Run performs the initial fetch and returns.
		Interval: 0,
		Log:      zerolog.Nop(),
	})

	s.Run(context.Background())

	if fetched != 1 {
		t.Fatalf("fetch calls = %d, want 1", fetched)
	}
	if len(applied) != 1 || applied[0].ID != 1 {
		t.Fatalf("applied = %+v, want route 1", applied)
	}
}

func TestRunRepeatsOnInterval(t *testing.T) {
	var mu sync.Mutex
	fetched := 0
	s := New(Config{
		View: "driver:7",
		Fetch: func(ctx context.Context) ([]domain.Route, error) {
			mu.Lock()
			defer mu.Unlock()
			fetched++
			return nil, nil
		},
		Interval: 5 * time.Millisecond,
		Log:      zerolog.Nop(),
	})

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()
	s.Run(ctx)

	mu.Lock()
	defer mu.Unlock()
	if fetched < 3 {
		t.Fatalf("fetch calls = %d, want at least 3", fetched)
	}
}

func TestFetchErrorKeepsLastGoodState(t *testing.T) {
	applies := 0
	fail := false
	s := New(Config{
		View: "dispatch",
		Fetch: func(ctx context.Context) ([]domain.Route, error) {
			if fail {
				return nil, errors.New("gateway timeout")
			}
			return []domain.Route{{ID: 1}}, nil
		},
		Apply: func(routes []domain.Route, fetchedAt time.Time) {
			applies++
		},
		Log: zerolog.Nop(),
	})

	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("first refresh: %v", err)
	}

	fail = true
	if err := s.Refresh(context.Background()); err == nil {
		t.Fatal("expected refresh to fail")
	}

	// The failing refresh must not touch the displayed state.
	if applies != 1 {
		t.Fatalf("apply calls = %d, want 1", applies)
	}
}

func TestRunReportsBackgroundFailures(t *testing.T) {
	notifier := &mockNotifier{}
	s := New(Config{
		View: "dispatch",
		Fetch: func(ctx context.Context) ([]domain.Route, error) {
			return nil, errors.New("gateway timeout")
		},
		Notifier: notifier,
		Log:      zerolog.Nop(),
	})

	s.Run(context.Background())

	if notifier.count() != 1 {
		t.Fatalf("notices = %d, want 1", notifier.count())
	}
}

func TestRefreshWritesThroughToStore(t *testing.T) {
	store := &mockStore{}
	s := New(Config{
		View: "driver:7",
		Fetch: func(ctx context.Context) ([]domain.Route, error) {
			return []domain.Route{{ID: 1}, {ID: 2}}, nil
		},
		Store: store,
		Log:   zerolog.Nop(),
	})

	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	if store.putCalls != 1 {
		t.Fatalf("put calls = %d, want 1", store.putCalls)
	}
	if store.putView != "driver:7" {
		t.Fatalf("put view = %q, want driver:7", store.putView)
	}
	if len(store.putRoutes) != 2 {
		t.Fatalf("put routes = %d, want 2", len(store.putRoutes))
	}
}

func TestStoreFailureDoesNotFailRefresh(t *testing.T) {
	store := &mockStore{putErr: errors.New("disk full")}
	s := New(Config{
		View: "driver:7",
		Fetch: func(ctx context.Context) ([]domain.Route, error) {
			return []domain.Route{{ID: 1}}, nil
		},
		Store: store,
		Log:   zerolog.Nop(),
	})

	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
}

func TestLastGood(t *testing.T) {
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	store := &mockStore{getRoutes: []domain.Route{{ID: 4}}, getAt: at}
	s := New(Config{View: "driver:7", Store: store, Log: zerolog.Nop()})

	routes, fetchedAt, err := s.LastGood(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(routes) != 1 || routes[0].ID != 4 {
		t.Fatalf("routes = %+v, want route 4", routes)
	}
	if !fetchedAt.Equal(at) {
		t.Fatalf("fetchedAt = %v, want %v", fetchedAt, at)
	}

	// Without a store there is simply nothing to restore.
	none := New(Config{View: "driver:7", Log: zerolog.Nop()})
	routes, _, err = none.LastGood(context.Background())
	if err != nil || routes != nil {
		t.Fatalf("routes = %v err = %v, want nil/nil", routes, err)
	}
}
