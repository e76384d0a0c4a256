package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *GoogleClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := NewGoogleClient(GoogleConfig{
		APIKey:   "test-key",
		Endpoint: srv.URL,
		Language: "ja",
		Region:   "jp",
	})
	require.NoError(t, err)
	return client
}

func TestGoogleClientGeocode(t *testing.T) {
	t.Run("OK", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "test-key", r.URL.Query().Get("key"))
			assert.Equal(t, "京都府京都市伏見区深草藪之内町68", r.URL.Query().Get("address"))
			assert.Equal(t, "ja", r.URL.Query().Get("language"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{
				"status": "OK",
				"results": [{
					"geometry": {
						"location": {"lat": 34.9671, "lng": 135.7727},
						"location_type": "ROOFTOP"
					},
					"formatted_address": "68 Fukakusa Yabunouchicho, Fushimi Ward, Kyoto",
					"place_id": "ChIJIW0uPRUPAWARn6hpKNjV3bo"
				}]
			}`))
		})

		result, err := client.Geocode(context.Background(), "京都府京都市伏見区深草藪之内町68")
		require.NoError(t, err)
		assert.Equal(t, 34.9671, result.Coordinate.Lat)
		assert.Equal(t, 135.7727, result.Coordinate.Lng)
		assert.Equal(t, "ROOFTOP", result.LocationType)
		assert.Equal(t, "ChIJIW0uPRUPAWARn6hpKNjV3bo", result.PlaceID)
	})

	t.Run("Zero Results", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"status": "ZERO_RESULTS", "results": []}`))
		})
		_, err := client.Geocode(context.Background(), "nowhere at all")
		assert.ErrorIs(t, err, ErrZeroResults)
	})

	t.Run("Provider Error Status", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"status": "REQUEST_DENIED", "error_message": "The provided API key is invalid."}`))
		})
		_, err := client.Geocode(context.Background(), "Kyoto")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "REQUEST_DENIED")
	})

	t.Run("HTTP Failure", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})
		_, err := client.Geocode(context.Background(), "Kyoto")
		require.Error(t, err)
	})

	t.Run("Invalid Coordinate Rejected", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{
				"status": "OK",
				"results": [{"geometry": {"location": {"lat": 9999, "lng": 0}, "location_type": "ROOFTOP"}}]
			}`))
		})
		_, err := client.Geocode(context.Background(), "Kyoto")
		require.Error(t, err)
	})

	t.Run("Context Timeout", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
			_, _ = w.Write([]byte(`{"status": "OK", "results": []}`))
		})
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		_, err := client.Geocode(ctx, "Kyoto")
		require.Error(t, err)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("Missing API Key", func(t *testing.T) {
		_, err := NewGoogleClient(GoogleConfig{})
		require.Error(t, err)
	})
}
