package geo

import (
	"fmt"
	"math"
	"math/rand"
)

// BlurStrategy selects how the displacement vector is sampled.
type BlurStrategy int

const (
	// UniformDisk samples a point uniformly inside the blur circle: direction
	// uniform in [0,2π), magnitude radius·√U. This is the canonical strategy.
	UniformDisk BlurStrategy = iota
	// IndependentAxis samples north and east offsets independently, each
	// uniform in [-radius,radius] meters. Its support is a square rather than
	// a circle, so displacements up to radius·√2 are possible.
	IndependentAxis
)

// maxBlurLatitude bounds the latitudes for which the longitude correction
// factor 1/cos(lat) stays well-conditioned. Beyond it the factor diverges and
// the blur is rejected instead of producing degenerate coordinates.
const maxBlurLatitude = 89.9

// ApplyBlur displaces a coordinate by a random vector bounded by radiusMeters.
// A radius of zero is a true no-op and returns the input unchanged. The
// longitude displacement is scaled by 1/cos(lat) to correct for meridian
// convergence.
func ApplyBlur(c Coordinate, radiusMeters float64, strategy BlurStrategy) (Coordinate, error) {
	if err := c.Validate(); err != nil {
		return Coordinate{}, err
	}
	if radiusMeters < 0 {
		return Coordinate{}, fmt.Errorf("blur radius cannot be negative: %f", radiusMeters)
	}
	if radiusMeters == 0 {
		return c, nil
	}
	if math.Abs(c.Lat) > maxBlurLatitude {
		return Coordinate{}, fmt.Errorf("latitude %f too close to the poles to blur", c.Lat)
	}

	var north, east float64 // displacement in meters
	switch strategy {
	case UniformDisk:
		angle := rand.Float64() * 2 * math.Pi
		// Square root keeps the areal density uniform across the circle.
		distance := math.Sqrt(rand.Float64()) * radiusMeters
		north = distance * math.Cos(angle)
		east = distance * math.Sin(angle)
	case IndependentAxis:
		north = (rand.Float64()*2 - 1) * radiusMeters
		east = (rand.Float64()*2 - 1) * radiusMeters
	default:
		return Coordinate{}, fmt.Errorf("unknown blur strategy %d", strategy)
	}

	latRadians := c.Lat * (math.Pi / 180)
	out := Coordinate{
		Lat: c.Lat + north/metersPerDegree,
		Lng: c.Lng + east/(metersPerDegree*math.Cos(latRadians)),
	}
	if err := out.Validate(); err != nil {
		return Coordinate{}, fmt.Errorf("blurred coordinate out of range: %w", err)
	}
	return out, nil
}
