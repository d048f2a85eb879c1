package domain

// Immutable geographic point (latitude, longitude).
type LatLng struct {
	Lat float64
	Lng float64
}

// Midpoint returns the arithmetic midpoint of two points.
func (p LatLng) Midpoint(q LatLng) LatLng {
	return LatLng{
		Lat: (p.Lat + q.Lat) / 2,
		Lng: (p.Lng + q.Lng) / 2,
	}
}
