package optimizer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"evfleet-console/internal/domain"
	"evfleet-console/internal/platform/obs"
	"evfleet-console/internal/ports"
)

// Client implements ports.Optimizer against the external fleet optimization
// service. A run can take minutes on large order sets, hence the generous
// timeout. Requests are never retried; the caller decides whether to
// resubmit a failed run.
type Client struct {
	baseURL string
	http    *http.Client
	log     zerolog.Logger
}

func New(baseURL string, log zerolog.Logger) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("optimizer base URL is empty")
	}

	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 3 * time.Minute},
		log:     log,
	}, nil
}

type optimizeRequestDTO struct {
	OrderIDs        []int64   `json:"orderIds"`
	DriverIDs       []int64   `json:"driverIds,omitempty"`
	StationIDs      []int64   `json:"stationIds,omitempty"`
	ChargingMode    string    `json:"chargingMode,omitempty"`
	BatterySwapTime float64   `json:"batterySwapTime,omitempty"` // hours
	Parallel        bool      `json:"parallel,omitempty"`
	Depot           *depotDTO `json:"depot,omitempty"`
}

type depotDTO struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type optimizedStopDTO struct {
	NodeID int64   `json:"nodeId"`
	Type   string  `json:"type"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

type optimizedRouteDTO struct {
	VehicleID int64              `json:"vehicleId"`
	Stops     []optimizedStopDTO `json:"stops"`
	Distance  float64            `json:"distance"`
	Feasible  bool               `json:"feasible"`
}

type summaryDTO struct {
	TotalVehicles        int     `json:"totalVehicles"`
	TotalDistance        float64 `json:"totalDistance"`
	TotalCost            float64 `json:"totalCost"`
	Feasible             bool    `json:"feasible"`
	TotalCustomers       int     `json:"totalCustomers"`
	TotalStations        int     `json:"totalStations"`
	InsufficientDrivers  bool    `json:"insufficientDrivers"`
	RequiredDriverCount  int     `json:"requiredDriverCount"`
	AvailableDriverCount int     `json:"availableDriverCount"`
}

type optimizeResponseDTO struct {
	Routes        []optimizedRouteDTO `json:"routes"`
	Summary       summaryDTO          `json:"summary"`
	ComputeTimeMs int64               `json:"computeTimeMs"`
	ChargingMode  string              `json:"chargingMode"`
}

// Optimize submits one fleet optimization run and maps the result into a
// candidate. OrderIDs is left empty; the reconciler records the submitted
// set itself.
func (c *Client) Optimize(ctx context.Context, req ports.OptimizationRequest) (_ *domain.OptimizationCandidate, err error) {
	defer obs.Time(c.log, "optimizer.Optimize")(&err)

	reqDTO := optimizeRequestDTO{
		OrderIDs:        req.OrderIDs,
		DriverIDs:       req.DriverIDs,
		StationIDs:      req.StationIDs,
		ChargingMode:    string(req.ChargingMode),
		BatterySwapTime: req.BatterySwapTimeHours,
		Parallel:        req.Parallel,
	}
	if req.Depot != nil {
		reqDTO.Depot = &depotDTO{Lat: req.Depot.Lat, Lng: req.Depot.Lng}
	}

	body, err := json.Marshal(reqDTO)
	if err != nil {
		return nil, fmt.Errorf("optimize: encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/optimize/fleet", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("optimize: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, &ports.TransientError{Err: fmt.Errorf("optimize: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(resp.Body)
		msg := extractMessage(b)
		if resp.StatusCode >= 500 {
			return nil, &ports.TransientError{Err: fmt.Errorf("optimize: status %d: %s", resp.StatusCode, msg)}
		}
		return nil, &ports.RemoteRejectedError{Status: resp.StatusCode, Message: msg}
	}

	var respDTO optimizeResponseDTO
	if err := json.NewDecoder(resp.Body).Decode(&respDTO); err != nil {
		return nil, fmt.Errorf("optimize: decode response: %w", err)
	}

	return respDTO.toDomain(), nil
}

func (d optimizeResponseDTO) toDomain() *domain.OptimizationCandidate {
	routes := make([]domain.OptimizedRoute, 0, len(d.Routes))
	for _, r := range d.Routes {
		stops := make([]domain.OptimizedStop, 0, len(r.Stops))
		for _, s := range r.Stops {
			stops = append(stops, domain.OptimizedStop{
				NodeID: s.NodeID,
				Kind:   s.Type,
				X:      s.X,
				Y:      s.Y,
			})
		}
		routes = append(routes, domain.OptimizedRoute{
			VehicleID: r.VehicleID,
			Stops:     stops,
			Distance:  r.Distance,
			Feasible:  r.Feasible,
		})
	}

	return &domain.OptimizationCandidate{
		Routes: routes,
		Summary: domain.OptimizationSummary{
			TotalVehicles:        d.Summary.TotalVehicles,
			TotalDistance:        d.Summary.TotalDistance,
			TotalCost:            d.Summary.TotalCost,
			Feasible:             d.Summary.Feasible,
			TotalCustomers:       d.Summary.TotalCustomers,
			TotalStations:        d.Summary.TotalStations,
			InsufficientDrivers:  d.Summary.InsufficientDrivers,
			RequiredDriverCount:  d.Summary.RequiredDriverCount,
			AvailableDriverCount: d.Summary.AvailableDriverCount,
		},
		ComputeTimeMs: d.ComputeTimeMs,
		ChargingMode:  domain.ChargingMode(d.ChargingMode),
	}
}

func extractMessage(body []byte) string {
	var envelope struct {
		Messages []string `json:"messages"`
		Message  string   `json:"message"`
		Error    string   `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		if len(envelope.Messages) > 0 {
			return envelope.Messages[0]
		}
		if envelope.Message != "" {
			return envelope.Message
		}
		if envelope.Error != "" {
			return envelope.Error
		}
	}
	return strings.TrimSpace(string(body))
}
