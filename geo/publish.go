package geo

import (
	"github.com/folkloremap/folkloremap-backend/auth"
)

// ExactPublishRole is the minimum role allowed to publish a coordinate without
// blurring. Publishing exact locations is a moderation-level capability, not a
// side effect of generic write access.
const ExactPublishRole = auth.RoleReviewer

// Published is the coordinate persisted for a spot, together with the blur
// radius actually applied and the confidence it was derived from. The input
// (true) coordinate is never stored.
type Published struct {
	Coordinate   Coordinate
	RadiusMeters float64
	Confidence   float64
}

// Publish transforms a geocoded coordinate into its publishable form. The
// default policy derives a confidence from the geocoder's location type,
// selects the matching blur tier and displaces the coordinate with the
// canonical uniform-disk strategy.
//
// An exact (unblurred) publication happens only when it is explicitly
// requested and the caller holds ExactPublishRole. An exact request from a
// lower role degrades to the default blur policy: the write succeeds with
// privacy preserved rather than being rejected.
func Publish(c Coordinate, locationType string, caller auth.Role, wantExact bool) (Published, error) {
	if err := c.Validate(); err != nil {
		return Published{}, err
	}
	confidence := Classify(locationType)
	if wantExact && auth.HasRole(ExactPublishRole, caller) {
		return Published{Coordinate: c, RadiusMeters: 0, Confidence: confidence}, nil
	}
	radius := SelectBlurRadius(confidence)
	blurred, err := ApplyBlur(c, radius, UniformDisk)
	if err != nil {
		return Published{}, err
	}
	return Published{Coordinate: blurred, RadiusMeters: radius, Confidence: confidence}, nil
}
