package fleetapi

import (
	"time"

	"evfleet-console/internal/domain"
)

type stopDTO struct {
	Sequence     int      `json:"sequence"`
	Type         string   `json:"type"`
	OrderID      *int64   `json:"orderId"`
	StationID    *int64   `json:"stationId"`
	Lat          *float64 `json:"lat"`
	Lng          *float64 `json:"lng"`
	Address      string   `json:"address"`
	CustomerName string   `json:"customerName"`
	Completed    bool     `json:"completed"`
}

type routeDTO struct {
	ID             int64     `json:"id"`
	DriverID       int64     `json:"driverId"`
	DriverName     string    `json:"driverName"`
	VehicleID      int64     `json:"vehicleId"`
	VehiclePlate   string    `json:"vehiclePlate"`
	Status         string    `json:"status"`
	Stops          []stopDTO `json:"stops"`
	TotalDistance  *float64  `json:"totalDistance"`
	TotalStops     int       `json:"totalStops"`
	CompletedStops int       `json:"completedStops"`
	CreatedAt      string    `json:"createdAt"`
	StartedAt      *string   `json:"startedAt"`
	CompletedAt    *string   `json:"completedAt"`
}

type assignRequestDTO struct {
	DriverID  int64   `json:"driverId"`
	VehicleID int64   `json:"vehicleId"`
	OrderIDs  []int64 `json:"orderIds"`
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

type applyOptimizationDTO struct {
	Routes   []optimizedRouteDTO `json:"routes"`
	OrderIDs []int64             `json:"orderIds"`
}

func (d routeDTO) toDomain() domain.Route {
	stops := make([]domain.Stop, 0, len(d.Stops))
	for _, s := range d.Stops {
		stops = append(stops, s.toDomain())
	}

	return domain.Route{
		ID:            d.ID,
		DriverID:      d.DriverID,
		DriverName:    d.DriverName,
		VehicleID:     d.VehicleID,
		VehiclePlate:  d.VehiclePlate,
		Status:        domain.RouteStatus(d.Status),
		Stops:         stops,
		TotalDistance: d.TotalDistance,
		CreatedAt:     parseServerTime(d.CreatedAt),
		StartedAt:     parseServerTimePtr(d.StartedAt),
		CompletedAt:   parseServerTimePtr(d.CompletedAt),
	}
}

func (s stopDTO) toDomain() domain.Stop {
	stop := domain.Stop{
		Sequence:     s.Sequence,
		Kind:         stopKind(s.Type),
		Address:      s.Address,
		CustomerName: s.CustomerName,
		Completed:    s.Completed,
	}
	if s.OrderID != nil {
		stop.OrderID = *s.OrderID
	}
	if s.StationID != nil {
		stop.StationID = *s.StationID
	}
	if s.Lat != nil && s.Lng != nil {
		stop.Location = &domain.LatLng{Lat: *s.Lat, Lng: *s.Lng}
	}
	return stop
}

// The server has emitted both SWAP and SWAP_STATION for battery-swap stops.
func stopKind(t string) domain.StopKind {
	switch t {
	case "SWAP", "SWAP_STATION", "STATION":
		return domain.StopBatterySwap
	case "DEPOT":
		return domain.StopDepot
	default:
		return domain.StopCustomer
	}
}

// Timestamps arrive either as RFC 3339 or as a zone-less LocalDateTime.
func parseServerTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02T15:04:05.999999999", s); err == nil {
		return t
	}
	return time.Time{}
}

func parseServerTimePtr(s *string) *time.Time {
	if s == nil {
		return nil
	}
	t := parseServerTime(*s)
	if t.IsZero() {
		return nil
	}
	return &t
}
