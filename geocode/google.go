package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/folkloremap/folkloremap-backend/geo"
)

const defaultGoogleEndpoint = "https://maps.googleapis.com/maps/api/geocode/json"

// GoogleClient resolves addresses through the Google Geocoding API.
type GoogleClient struct {
	apiKey   string
	endpoint string
	language string
	region   string
	client   *http.Client
}

// GoogleConfig configures a GoogleClient. Only APIKey is required.
type GoogleConfig struct {
	APIKey   string
	Endpoint string        // defaults to the public Google endpoint
	Language string        // e.g. "ja"
	Region   string        // e.g. "jp"
	Timeout  time.Duration // defaults to 10s
}

// NewGoogleClient creates a geocoding client for the Google Geocoding API.
func NewGoogleClient(conf GoogleConfig) (*GoogleClient, error) {
	if conf.APIKey == "" {
		return nil, fmt.Errorf("geocoding API key is required")
	}
	endpoint := conf.Endpoint
	if endpoint == "" {
		endpoint = defaultGoogleEndpoint
	}
	timeout := conf.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &GoogleClient{
		apiKey:   conf.APIKey,
		endpoint: endpoint,
		language: conf.Language,
		region:   conf.Region,
		client:   &http.Client{Timeout: timeout},
	}, nil
}

// googleResponse mirrors the Google Geocoding API wire format.
type googleResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Results      []struct {
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
			LocationType string `json:"location_type"`
		} `json:"geometry"`
		FormattedAddress string `json:"formatted_address"`
		PlaceID          string `json:"place_id"`
	} `json:"results"`
}

// Geocode resolves a free-text address. Zero results, non-OK provider status
// and transport failures are all returned as errors so the caller can reject
// the write instead of persisting partial data.
func (g *GoogleClient) Geocode(ctx context.Context, address string) (*Result, error) {
	query := url.Values{}
	query.Set("address", address)
	query.Set("key", g.apiKey)
	if g.language != "" {
		query.Set("language", g.language)
	}
	if g.region != "" {
		query.Set("region", g.region)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build geocoding request: %w", err)
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocoding request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocoding service returned HTTP %d", resp.StatusCode)
	}

	var decoded googleResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode geocoding response: %w", err)
	}
	if decoded.Status == "ZERO_RESULTS" || (decoded.Status == "OK" && len(decoded.Results) == 0) {
		return nil, ErrZeroResults
	}
	if decoded.Status != "OK" {
		if decoded.ErrorMessage != "" {
			return nil, fmt.Errorf("geocoding failed: %s: %s", decoded.Status, decoded.ErrorMessage)
		}
		return nil, fmt.Errorf("geocoding failed: %s", decoded.Status)
	}

	top := decoded.Results[0]
	coord := geo.Coordinate{Lat: top.Geometry.Location.Lat, Lng: top.Geometry.Location.Lng}
	if err := coord.Validate(); err != nil {
		return nil, fmt.Errorf("geocoding service returned invalid coordinate: %w", err)
	}
	return &Result{
		Coordinate:       coord,
		LocationType:     top.Geometry.LocationType,
		FormattedAddress: top.FormattedAddress,
		PlaceID:          top.PlaceID,
	}, nil
}
