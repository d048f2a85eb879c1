package optimizer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"evfleet-console/internal/domain"
	"evfleet-console/internal/ports"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New(srv.URL, zerolog.Nop())
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func TestOptimizeMapsResponse(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v1/optimize/fleet" {
			t.Errorf("got %s %s, want POST /api/v1/optimize/fleet", r.Method, r.URL.Path)
		}
		var body optimizeRequestDTO
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if len(body.OrderIDs) != 2 || body.ChargingMode != "BATTERY_SWAP" || body.BatterySwapTime != 0.25 {
			t.Errorf("body = %+v, want 2 orders / BATTERY_SWAP / 0.25h", body)
		}
		if body.Depot == nil || body.Depot.Lat != 40.1 {
			t.Errorf("depot = %+v, want override at lat 40.1", body.Depot)
		}
		w.Write([]byte(`{
			"routes": [{
				"vehicleId": 3,
				"stops": [{"nodeId": 101, "type": "CUSTOMER", "x": 1.5, "y": 2.5}],
				"distance": 12.3,
				"feasible": true
			}],
			"summary": {
				"totalVehicles": 1,
				"totalDistance": 12.3,
				"totalCost": 99.5,
				"feasible": true,
				"totalCustomers": 2,
				"totalStations": 1,
				"insufficientDrivers": true,
				"requiredDriverCount": 2,
				"availableDriverCount": 1
			},
			"computeTimeMs": 842,
			"chargingMode": "BATTERY_SWAP"
		}`))
	}))

	cand, err := c.Optimize(context.Background(), ports.OptimizationRequest{
		OrderIDs:             []int64{101, 102},
		ChargingMode:         domain.ChargingBatterySwap,
		BatterySwapTimeHours: 0.25,
		Depot:                &domain.LatLng{Lat: 40.1, Lng: -3.7},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(cand.Routes) != 1 || cand.Routes[0].VehicleID != 3 {
		t.Fatalf("routes = %+v, want one route for vehicle 3", cand.Routes)
	}
	if cand.Routes[0].Stops[0].NodeID != 101 || cand.Routes[0].Stops[0].X != 1.5 {
		t.Fatalf("stop = %+v, want node 101 at x=1.5", cand.Routes[0].Stops[0])
	}
	if !cand.Feasible() || cand.Summary.TotalCost != 99.5 {
		t.Fatalf("summary = %+v, want feasible with cost 99.5", cand.Summary)
	}
	if !cand.Summary.InsufficientDrivers || cand.Summary.RequiredDriverCount != 2 {
		t.Fatalf("summary = %+v, want insufficient-drivers advisory", cand.Summary)
	}
	if cand.ComputeTimeMs != 842 || cand.ChargingMode != domain.ChargingBatterySwap {
		t.Fatalf("cand = %+v, want 842ms / BATTERY_SWAP", cand)
	}
	// The submitted order set is recorded by the caller, not the adapter.
	if cand.OrderIDs != nil {
		t.Fatalf("orderIDs = %v, want nil", cand.OrderIDs)
	}
}

func TestOptimizeServerErrorIsTransient(t *testing.T) {
	attempts := 0
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	_, err := c.Optimize(context.Background(), ports.OptimizationRequest{OrderIDs: []int64{1}})
	if !ports.IsTransient(err) {
		t.Fatalf("err = %v, want transient", err)
	}
	// Optimization runs are expensive; the adapter never retries them.
	if attempts != 1 {
		t.Fatalf("attempts = %d, want 1", attempts)
	}
}

func TestOptimizeRejectionCarriesMessage(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error": "unknown station 99"}`))
	}))

	_, err := c.Optimize(context.Background(), ports.OptimizationRequest{OrderIDs: []int64{1}, StationIDs: []int64{99}})
	if !ports.IsRemoteRejected(err) {
		t.Fatalf("err = %v, want remote rejection", err)
	}
}
