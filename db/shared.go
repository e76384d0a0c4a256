package db

const (
	// DefaultPageSize is the default number of items per page.
	DefaultPageSize = 20
	// MaxPageSize caps the page size a client may request.
	MaxPageSize = 100
)

// DBLocation represents a GeoJSON Point as stored in MongoDB. Coordinates are
// ordered longitude, latitude per the GeoJSON specification.
type DBLocation struct {
	Type        string    `bson:"type" json:"type"`
	Coordinates []float64 `bson:"coordinates" json:"coordinates"`
}

// NewDBLocation builds a GeoJSON point from latitude and longitude degrees.
func NewDBLocation(lat, lng float64) DBLocation {
	return DBLocation{
		Type:        "Point",
		Coordinates: []float64{lng, lat},
	}
}

// Latitude returns the latitude of the point, or 0 for a malformed document.
func (l DBLocation) Latitude() float64 {
	if len(l.Coordinates) != 2 {
		return 0
	}
	return l.Coordinates[1]
}

// Longitude returns the longitude of the point, or 0 for a malformed document.
func (l DBLocation) Longitude() float64 {
	if len(l.Coordinates) != 2 {
		return 0
	}
	return l.Coordinates[0]
}
