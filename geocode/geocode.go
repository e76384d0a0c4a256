package geocode

import (
	"context"
	"fmt"

	"github.com/folkloremap/folkloremap-backend/geo"
)

// Result is the outcome of a successful forward geocoding lookup. The
// coordinate is the precise geocoded point; callers must blur it before
// persisting (see the geo package).
type Result struct {
	Coordinate       geo.Coordinate `json:"coordinate"`
	LocationType     string         `json:"locationType"`
	FormattedAddress string         `json:"formattedAddress"`
	PlaceID          string         `json:"placeId"`
}

// Service resolves free-text addresses to coordinates. Implementations do not
// retry; backoff is up to the caller.
type Service interface {
	Geocode(ctx context.Context, address string) (*Result, error)
}

// ErrZeroResults is returned when the provider resolves the request but finds
// no location for the address. The write path must reject rather than fall
// back to a placeholder coordinate.
var ErrZeroResults = fmt.Errorf("no geocoding results for address")
