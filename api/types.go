package api

import (
	"time"

	"github.com/folkloremap/folkloremap-backend/db"
)

// Response is the default response of the API.
type Response struct {
	Header ResponseHeader `json:"header"`
	Data   any            `json:"data,omitempty"`
}

// ResponseHeader is the header of the response.
type ResponseHeader struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

type Register struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type Login struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token    string    `json:"token"`
	Expirity time.Time `json:"expirity"`
}

// SpotCreate is the payload for creating a spot. The address is geocoded
// server-side; clients never submit raw coordinates.
type SpotCreate struct {
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Address     string      `json:"address"`
	MapsQuery   string      `json:"mapsQuery,omitempty"`
	IconType    string      `json:"iconType"`
	EraHint     string      `json:"eraHint,omitempty"`
	Sources     []db.Source `json:"sources"`
	// ExactLocation requests publication of the unblurred coordinate. Only
	// honored for reviewer and above.
	ExactLocation bool `json:"exactLocation,omitempty"`
}

// SpotUpdate is the payload for a partial spot update. Nil fields are left
// untouched. Setting Address re-geocodes and re-blurs the coordinate.
type SpotUpdate struct {
	Title         *string     `json:"title,omitempty"`
	Description   *string     `json:"description,omitempty"`
	Address       *string     `json:"address,omitempty"`
	MapsQuery     *string     `json:"mapsQuery,omitempty"`
	IconType      *string     `json:"iconType,omitempty"`
	EraHint       *string     `json:"eraHint,omitempty"`
	Sources       []db.Source `json:"sources,omitempty"`
	Status        *string     `json:"status,omitempty"`
	ExactLocation bool        `json:"exactLocation,omitempty"`
}

// SpotResponse is the public view of a spot.
type SpotResponse struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Address     string      `json:"address"`
	IconType    string      `json:"iconType"`
	EraHint     string      `json:"eraHint,omitempty"`
	Sources     []db.Source `json:"sources"`
	Lat         float64     `json:"lat"`
	Lng         float64     `json:"lng"`
	BlurRadius  float64     `json:"blurRadius"`
	Status      string      `json:"status"`
	CreatedBy   string      `json:"createdBy,omitempty"`
	Likes       int64       `json:"likes"`
	Saves       int64       `json:"saves"`
	Views       int64       `json:"views"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// FromDBSpot converts a DB spot to its API representation.
func FromDBSpot(s *db.Spot) *SpotResponse {
	return &SpotResponse{
		ID:          s.ID.Hex(),
		Title:       s.Title,
		Description: s.Description,
		Address:     s.Address,
		IconType:    string(s.IconType),
		EraHint:     s.EraHint,
		Sources:     s.Sources,
		Lat:         s.Location.Latitude(),
		Lng:         s.Location.Longitude(),
		BlurRadius:  s.BlurRadius,
		Status:      string(s.Status),
		CreatedBy:   s.CreatedBy.Hex(),
		Likes:       s.Likes,
		Saves:       s.Saves,
		Views:       s.Views,
		UpdatedAt:   s.UpdatedAt,
	}
}

// PaginationInfo carries paging metadata in list responses.
type PaginationInfo struct {
	Current  int   `json:"current"`
	PageSize int   `json:"pageSize"`
	Total    int64 `json:"total"`
	Pages    int   `json:"pages"`
}

// PaginatedSpotsResponse is the spot listing response.
type PaginatedSpotsResponse struct {
	Spots      []*SpotResponse `json:"spots"`
	Pagination PaginationInfo  `json:"pagination"`
}

// FlagCreate is the payload for reporting a spot.
type FlagCreate struct {
	SpotID string `json:"spotId"`
	Reason string `json:"reason"`
	Note   string `json:"note,omitempty"`
}

// FlagUpdate is the payload for triaging a flag.
type FlagUpdate struct {
	Status string `json:"status"`
	Note   string `json:"note,omitempty"`
}

// GeocodeRequest is the payload for the geocoding preview endpoint.
type GeocodeRequest struct {
	Address string `json:"address"`
}

// GeocodeResponse echoes the geocoder result together with the privacy tier
// the default policy would apply.
type GeocodeResponse struct {
	FormattedAddress string  `json:"formattedAddress"`
	PlaceID          string  `json:"placeId"`
	Lat              float64 `json:"lat"`
	Lng              float64 `json:"lng"`
	LocationType     string  `json:"locationType"`
	Confidence       float64 `json:"confidence"`
	BlurRadius       float64 `json:"blurRadius"`
}

// Info is the public instance summary.
type Info struct {
	Users int64 `json:"users"`
	Spots int64 `json:"spots"`
}

// AdminStats is the admin dashboard summary.
type AdminStats struct {
	Users         int64            `json:"users"`
	Spots         int64            `json:"spots"`
	SpotsByStatus map[string]int64 `json:"spotsByStatus"`
	OpenFlags     int64            `json:"openFlags"`
}

// RoleUpdate is the payload for the admin role-assignment endpoint.
type RoleUpdate struct {
	Role string `json:"role"`
}
