package api

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// lastSeenUpdateThreshold is the minimum time between lastSeen updates for a user.
const lastSeenUpdateThreshold = 5 * time.Minute

// lastSeenMiddleware updates the user's lastSeen timestamp for authenticated
// requests. It uses a per-instance throttle cache to reduce database load and
// performs updates asynchronously.
func (a *API) lastSeenMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get("X-User-Id")
		if userID != "" {
			now := time.Now()
			shouldUpdate := true
			if lastUpdateTime, ok := a.lastSeenCache.Load(userID); ok {
				if lastUpdate, ok := lastUpdateTime.(time.Time); ok {
					shouldUpdate = now.Sub(lastUpdate) >= lastSeenUpdateThreshold
				}
			}

			if shouldUpdate {
				// Update cache immediately to prevent concurrent updates.
				a.lastSeenCache.Store(userID, now)

				go func(uid string, timestamp time.Time) {
					ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()

					objID, err := primitive.ObjectIDFromHex(uid)
					if err != nil {
						log.Error().Err(err).Str("userId", uid).Msg("failed to parse user ID for lastSeen update")
						return
					}
					if _, err := a.database.UserService.UpdateUser(ctx, objID, bson.M{"lastSeen": timestamp}); err != nil {
						log.Error().Err(err).Str("userId", uid).Msg("failed to update lastSeen timestamp")
						// Drop from cache on failure so the next request retries.
						a.lastSeenCache.Delete(uid)
					}
				}(userID, now)
			}
		}

		next.ServeHTTP(w, r)
	})
}
