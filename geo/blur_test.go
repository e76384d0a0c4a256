package geo

import (
	"math"
	"testing"
)

// Kyoto coordinates used across the blur tests.
var kyoto = Coordinate{Lat: 35.0116, Lng: 135.7681}

func TestApplyBlur(t *testing.T) {
	t.Run("Within Radius", func(t *testing.T) {
		const radius = 200.0
		for i := 0; i < 1000; i++ {
			blurred, err := ApplyBlur(kyoto, radius, UniformDisk)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			d := Distance(kyoto, blurred)
			// Small tolerance for the flat-earth meters-to-degrees conversion.
			if d > radius*1.01 {
				t.Errorf("blurred point %f meters away, radius is %f", d, radius)
			}
		}
	})

	t.Run("Not Identity", func(t *testing.T) {
		const radius = 200.0
		distinct := map[Coordinate]bool{}
		for i := 0; i < 1000; i++ {
			blurred, err := ApplyBlur(kyoto, radius, UniformDisk)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			distinct[blurred] = true
		}
		if len(distinct) < 2 {
			t.Errorf("expected more than one distinct output, got %d", len(distinct))
		}
	})

	t.Run("Zero Radius Is Exact", func(t *testing.T) {
		blurred, err := ApplyBlur(kyoto, 0, UniformDisk)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if blurred != kyoto {
			t.Errorf("zero radius must be a no-op, got %+v", blurred)
		}
	})

	t.Run("Independent Axis Bounded By Square", func(t *testing.T) {
		const radius = 200.0
		maxDistance := radius * math.Sqrt2 * 1.01
		for i := 0; i < 1000; i++ {
			blurred, err := ApplyBlur(kyoto, radius, IndependentAxis)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if d := Distance(kyoto, blurred); d > maxDistance {
				t.Errorf("blurred point %f meters away, diagonal bound is %f", d, maxDistance)
			}
		}
	})

	t.Run("Longitude Spread Grows With Latitude", func(t *testing.T) {
		// The 1/cos(lat) correction must widen the raw-degree east-west
		// spread at high latitudes compared to the equator.
		spread := func(origin Coordinate) float64 {
			minLng, maxLng := math.Inf(1), math.Inf(-1)
			for i := 0; i < 2000; i++ {
				blurred, err := ApplyBlur(origin, 200, UniformDisk)
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				minLng = math.Min(minLng, blurred.Lng)
				maxLng = math.Max(maxLng, blurred.Lng)
			}
			return maxLng - minLng
		}
		atEquator := spread(Coordinate{Lat: 0, Lng: 10})
		atSixty := spread(Coordinate{Lat: 60, Lng: 10})
		// cos(60°) = 0.5, so the spread should roughly double. Require a
		// clear margin rather than the exact factor.
		if atSixty < atEquator*1.5 {
			t.Errorf("expected east-west spread at lat=60 (%f) to exceed 1.5x spread at equator (%f)",
				atSixty, atEquator)
		}
	})

	t.Run("Rejects Near Poles", func(t *testing.T) {
		if _, err := ApplyBlur(Coordinate{Lat: 89.95, Lng: 0}, 100, UniformDisk); err == nil {
			t.Error("expected error for latitude near the north pole")
		}
		if _, err := ApplyBlur(Coordinate{Lat: -90, Lng: 0}, 100, UniformDisk); err == nil {
			t.Error("expected error for latitude at the south pole")
		}
	})

	t.Run("Rejects Invalid Input", func(t *testing.T) {
		if _, err := ApplyBlur(Coordinate{Lat: 91, Lng: 0}, 100, UniformDisk); err == nil {
			t.Error("expected error for latitude out of range")
		}
		if _, err := ApplyBlur(Coordinate{Lat: 0, Lng: 181}, 100, UniformDisk); err == nil {
			t.Error("expected error for longitude out of range")
		}
		if _, err := ApplyBlur(Coordinate{Lat: math.NaN(), Lng: 0}, 100, UniformDisk); err == nil {
			t.Error("expected error for NaN latitude")
		}
		if _, err := ApplyBlur(kyoto, -1, UniformDisk); err == nil {
			t.Error("expected error for negative radius")
		}
	})
}

func TestClassify(t *testing.T) {
	cases := []struct {
		locationType string
		confidence   float64
	}{
		{LocationTypeRooftop, 1.0},
		{LocationTypeRangeInterpolated, 0.8},
		{LocationTypeGeometricCenter, 0.6},
		{LocationTypeApproximate, 0.4},
		{"PLUS_CODE", 0.5},
		{"", 0.5},
	}
	for _, tc := range cases {
		if got := Classify(tc.locationType); got != tc.confidence {
			t.Errorf("Classify(%q) = %f, expected %f", tc.locationType, got, tc.confidence)
		}
	}

	t.Run("Unknown Never Highest", func(t *testing.T) {
		if Classify("SOMETHING_NEW") >= Classify(LocationTypeRooftop) {
			t.Error("unknown location type must not be treated as trustworthy")
		}
	})
}

func TestSelectBlurRadius(t *testing.T) {
	cases := []struct {
		confidence float64
		radius     float64
	}{
		{1.0, 300},
		{0.9, 300},
		{0.89, 200},
		{0.8, 200},
		{0.6, 200},
		{0.59, 100},
		{0.4, 100},
		{0, 100},
	}
	for _, tc := range cases {
		if got := SelectBlurRadius(tc.confidence); got != tc.radius {
			t.Errorf("SelectBlurRadius(%f) = %f, expected %f", tc.confidence, got, tc.radius)
		}
	}

	t.Run("Never Zero", func(t *testing.T) {
		for c := 0.0; c <= 1.0; c += 0.05 {
			if SelectBlurRadius(c) <= 0 {
				t.Errorf("tier for confidence %f must be positive", c)
			}
		}
	})
}

func TestDistance(t *testing.T) {
	// Kyoto Station to Fushimi Inari Taisha, roughly 2.7 km.
	station := Coordinate{Lat: 34.9858, Lng: 135.7588}
	fushimi := Coordinate{Lat: 34.9671, Lng: 135.7727}
	d := Distance(station, fushimi)
	if d < 2300 || d > 3100 {
		t.Errorf("expected roughly 2.7km, got %f meters", d)
	}
	if Distance(station, station) != 0 {
		t.Error("distance to self must be zero")
	}
}
