package api

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	chiprometheus "github.com/766b/chi-prometheus"
	"github.com/folkloremap/folkloremap-backend/db"
	"github.com/folkloremap/folkloremap-backend/geocode"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/jwtauth/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	jwtExpiration = 720 * time.Hour // 30 days
	passwordSalt  = "folkloremap"   // salt for password hashing
)

// APIConfig configures a new API instance.
type APIConfig struct {
	DB        *db.Database
	Geocoder  geocode.Service
	JwtSecret string
	Debug     bool
}

// API type represents the API HTTP server with JWT authentication capabilities.
type API struct {
	Router        *chi.Mux
	auth          *jwtauth.JWTAuth
	database      *db.Database
	geocoder      geocode.Service
	rateLimiter   *RateLimiter
	lastSeenCache sync.Map
	prometheusID  string
}

// New creates a new API HTTP server. It does not start the server. Use Start() for that.
func New(conf *APIConfig) (*API, error) {
	if conf == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}
	if conf.DB == nil {
		return nil, fmt.Errorf("database cannot be nil")
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout}).With().Caller().Logger()
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if conf.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Info().Msg("starting folklore map backend")

	return &API{
		auth:        jwtauth.New("HS256", []byte(conf.JwtSecret), nil),
		database:    conf.DB,
		geocoder:    conf.Geocoder,
		rateLimiter: NewRateLimiter(),
	}, nil
}

// Start starts the API HTTP server (non blocking).
func (a *API) Start(host string, port int) {
	go func() {
		if err := http.ListenAndServe(fmt.Sprintf("%s:%d", host, port), a.router()); err != nil {
			log.Fatal().Err(err).Msg("failed to start api router")
		}
	}()
}

// Close closes the API service database and stops the rate limiter.
func (a *API) Close() {
	a.rateLimiter.Close()
	if err := a.database.Close(context.Background()); err != nil {
		log.Warn().Err(err).Msg("failed to close database")
	}
}

// router creates the router with all the routes and middleware.
func (a *API) router() http.Handler {
	r := chi.NewRouter()
	a.Router = r
	if a.prometheusID != "" {
		r.Use(chiprometheus.NewMiddleware(a.prometheusID))
	}
	r.Use(cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}).Handler)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Throttle(100))
	r.Use(middleware.Timeout(30 * time.Second))

	// Protected routes
	r.Group(func(r chi.Router) {
		// Seek, verify and validate JWT tokens
		r.Use(jwtauth.Verifier(a.auth))

		// Handle valid JWT tokens.
		r.Use(a.authenticator)

		// Track activity of authenticated users.
		r.Use(a.lastSeenMiddleware)

		a.RegisterSpotRoutes(r)
		a.RegisterFlagRoutes(r)
		a.RegisterGeocodeRoutes(r)
		a.RegisterAdminRoutes(r)
	})

	// Public routes. The verifier still runs so that an optional token widens
	// visibility (e.g. owners see their own drafts), but absence of identity
	// is not an error.
	r.Group(func(r chi.Router) {
		r.Use(jwtauth.Verifier(a.auth))
		r.Use(a.optionalAuthenticator)

		r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
			if _, err := w.Write([]byte(".")); err != nil {
				log.Error().Err(err).Msg("failed to write response")
			}
		})

		a.RegisterPublicUserRoutes(r)
		a.RegisterPublicSpotRoutes(r)
		a.RegisterPublicFlagRoutes(r)

		log.Info().Msg("register route GET /info")
		r.Get("/info", a.routerHandler(a.infoHandler))
	})

	return r
}

// infoHandler returns the basic info about the instance.
func (a *API) infoHandler(r *Request) (interface{}, error) {
	ctx := r.Context.Request.Context()

	userCount, err := a.database.UserService.CountUsers(ctx)
	if err != nil {
		return nil, ErrInternalServerError.WithErr(fmt.Errorf("failed to count users: %w", err))
	}
	spotCount, err := a.database.SpotService.CountSpots(ctx)
	if err != nil {
		return nil, ErrInternalServerError.WithErr(fmt.Errorf("failed to count spots: %w", err))
	}
	return &Info{
		Users: userCount,
		Spots: spotCount,
	}, nil
}
