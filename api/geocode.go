package api

import (
	"encoding/json"
	"fmt"

	"github.com/folkloremap/folkloremap-backend/auth"
	"github.com/folkloremap/folkloremap-backend/geo"
	"github.com/folkloremap/folkloremap-backend/geocode"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// RegisterGeocodeRoutes registers the geocoding preview route (editor and
// above).
func (a *API) RegisterGeocodeRoutes(r chi.Router) {
	log.Info().Msg("register route POST /geocode")
	r.Post("/geocode", a.routerHandler(a.geocodeHandler))
}

// geocodeHandler resolves an address and reports the confidence and blur tier
// the privacy policy would apply to it. The returned coordinate is the raw
// geocoder result; it is never persisted here.
func (a *API) geocodeHandler(r *Request) (interface{}, error) {
	role, uid := callerIdentity(r)
	if uid.IsZero() {
		return nil, ErrUnauthorized.WithErr(fmt.Errorf("user not authenticated"))
	}
	if !auth.HasRole(auth.RoleEditor, role) {
		return nil, ErrForbidden
	}
	if err := a.checkLimit("geocode", uid.Hex(), geocodeLimitPerMinute); err != nil {
		return nil, err
	}
	if a.geocoder == nil {
		return nil, ErrGeocodeUnavailable
	}

	req := GeocodeRequest{}
	if err := json.Unmarshal(r.Data, &req); err != nil {
		return nil, ErrInvalidRequestBodyData.WithErr(err)
	}
	if len(req.Address) < 3 {
		return nil, ErrInvalidRequestBodyData.WithErr(fmt.Errorf("address must be at least 3 characters"))
	}

	result, err := a.geocoder.Geocode(r.Context.Request.Context(), req.Address)
	if err != nil {
		if err == geocode.ErrZeroResults {
			return nil, ErrAddressNotFound
		}
		return nil, ErrGeocodeUnavailable.WithErr(err)
	}

	confidence := geo.Classify(result.LocationType)
	return &GeocodeResponse{
		FormattedAddress: result.FormattedAddress,
		PlaceID:          result.PlaceID,
		Lat:              result.Coordinate.Lat,
		Lng:              result.Coordinate.Lng,
		LocationType:     result.LocationType,
		Confidence:       confidence,
		BlurRadius:       geo.SelectBlurRadius(confidence),
	}, nil
}
