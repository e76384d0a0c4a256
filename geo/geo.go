package geo

import (
	"fmt"
	"math"
)

const (
	// earthRadiusMeters is the mean radius of the earth.
	earthRadiusMeters = 6371000
	// metersPerDegree is the approximate length of one degree of latitude.
	metersPerDegree = 111320
)

// Coordinate is a geographic point in degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Validate checks that the coordinate is inside the valid geographic range.
func (c Coordinate) Validate() error {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lng) || math.IsInf(c.Lat, 0) || math.IsInf(c.Lng, 0) {
		return fmt.Errorf("coordinate is not a finite number")
	}
	if c.Lat < -90 || c.Lat > 90 {
		return fmt.Errorf("latitude %f out of range [-90,90]", c.Lat)
	}
	if c.Lng < -180 || c.Lng > 180 {
		return fmt.Errorf("longitude %f out of range [-180,180]", c.Lng)
	}
	return nil
}

// Distance returns the great-circle distance between two coordinates in
// meters, using the Haversine formula.
func Distance(a, b Coordinate) float64 {
	lat1 := a.Lat * (math.Pi / 180)
	lng1 := a.Lng * (math.Pi / 180)
	lat2 := b.Lat * (math.Pi / 180)
	lng2 := b.Lng * (math.Pi / 180)

	dLat := lat2 - lat1
	dLng := lng2 - lng1
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return earthRadiusMeters * c
}
