package geo

// Location type tags returned by the geocoding service. The vocabulary follows
// the Google Geocoding API location_type field.
const (
	LocationTypeRooftop           = "ROOFTOP"
	LocationTypeRangeInterpolated = "RANGE_INTERPOLATED"
	LocationTypeGeometricCenter   = "GEOMETRIC_CENTER"
	LocationTypeApproximate       = "APPROXIMATE"
)

// confidenceByLocationType maps geocoder precision tags to a confidence score
// in [0,1]. Higher-precision tags never map to lower confidence.
var confidenceByLocationType = map[string]float64{
	LocationTypeRooftop:           1.0,
	LocationTypeRangeInterpolated: 0.8,
	LocationTypeGeometricCenter:   0.6,
	LocationTypeApproximate:       0.4,
}

// unknownLocationTypeConfidence is used for unrecognized tags. Unknown
// precision must never be treated as trustworthy, so it sits mid-range.
const unknownLocationTypeConfidence = 0.5

// Blur radius tiers in meters. The tiers are deliberately coarse so the
// published radius cannot be used to infer fine-grained confidence, and the
// floor never reaches zero.
const (
	BlurRadiusHighConfidence = 300
	BlurRadiusMidConfidence  = 200
	BlurRadiusLowConfidence  = 100
)

// Classify returns the confidence score for a geocoder location type.
func Classify(locationType string) float64 {
	if c, ok := confidenceByLocationType[locationType]; ok {
		return c
	}
	return unknownLocationTypeConfidence
}

// SelectBlurRadius maps a confidence score to the blur radius tier in meters.
func SelectBlurRadius(confidence float64) float64 {
	switch {
	case confidence >= 0.9:
		return BlurRadiusHighConfidence
	case confidence >= 0.6:
		return BlurRadiusMidConfidence
	default:
		return BlurRadiusLowConfidence
	}
}
