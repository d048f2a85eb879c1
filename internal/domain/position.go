package domain

// Estimated position of one in-progress route's vehicle, for map display.
type VehiclePosition struct {
	RouteID    int64
	DriverName string
	Position   LatLng
}
