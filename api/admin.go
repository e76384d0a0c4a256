package api

import (
	"encoding/json"
	"fmt"

	"github.com/folkloremap/folkloremap-backend/auth"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// RegisterAdminRoutes registers the admin dashboard and moderation routes.
func (a *API) RegisterAdminRoutes(r chi.Router) {
	log.Info().Msg("register route GET /admin/stats")
	r.Get("/admin/stats", a.routerHandler(a.adminStatsHandler))

	log.Info().Msg("register route GET /admin/analytics/popularity")
	r.Get("/admin/analytics/popularity", a.routerHandler(a.adminPopularityHandler))

	log.Info().Msg("register route GET /admin/analytics/search-logs")
	r.Get("/admin/analytics/search-logs", a.routerHandler(a.adminSearchLogsHandler))

	log.Info().Msg("register route PATCH /admin/users/{userId}/role")
	r.Patch("/admin/users/{userId}/role", a.routerHandler(a.adminSetRoleHandler))
}

func requireAdmin(r *Request) error {
	role, _ := callerIdentity(r)
	if !auth.HasRole(auth.RoleAdmin, role) {
		return ErrForbidden
	}
	return nil
}

// adminStatsHandler returns the dashboard summary counts.
func (a *API) adminStatsHandler(r *Request) (interface{}, error) {
	if err := requireAdmin(r); err != nil {
		return nil, err
	}
	ctx := r.Context.Request.Context()

	users, err := a.database.UserService.CountUsers(ctx)
	if err != nil {
		return nil, ErrInternalServerError.WithErr(err)
	}
	spots, err := a.database.SpotService.CountSpots(ctx)
	if err != nil {
		return nil, ErrInternalServerError.WithErr(err)
	}
	byStatus, err := a.database.SpotService.CountSpotsByStatus(ctx)
	if err != nil {
		return nil, ErrInternalServerError.WithErr(err)
	}
	openFlags, err := a.database.FlagService.CountOpenFlags(ctx)
	if err != nil {
		return nil, ErrInternalServerError.WithErr(err)
	}

	stats := &AdminStats{
		Users:         users,
		Spots:         spots,
		SpotsByStatus: make(map[string]int64, len(byStatus)),
		OpenFlags:     openFlags,
	}
	for status, count := range byStatus {
		stats.SpotsByStatus[string(status)] = count
	}
	return stats, nil
}

// adminPopularityHandler returns the most-interacted-with published spots,
// ranked by the requested counter.
func (a *API) adminPopularityHandler(r *Request) (interface{}, error) {
	if err := requireAdmin(r); err != nil {
		return nil, err
	}

	field := "views"
	if param := r.Context.URLParam("by"); param != nil {
		switch param[0] {
		case "likes", "saves", "views":
			field = param[0]
		default:
			return nil, ErrInvalidRequestBodyData.WithErr(fmt.Errorf("unknown popularity field %q", param[0]))
		}
	}

	spots, err := a.database.SpotService.GetTopSpots(r.Context.Request.Context(), field, 10)
	if err != nil {
		return nil, ErrInternalServerError.WithErr(err)
	}
	apiSpots := make([]*SpotResponse, len(spots))
	for i, s := range spots {
		apiSpots[i] = FromDBSpot(s)
	}
	return map[string]interface{}{"by": field, "spots": apiSpots}, nil
}

// adminSearchLogsHandler returns recent search terms with their result counts.
func (a *API) adminSearchLogsHandler(r *Request) (interface{}, error) {
	if err := requireAdmin(r); err != nil {
		return nil, err
	}
	logs, err := a.database.SearchLogService.ListRecent(r.Context.Request.Context(), 100)
	if err != nil {
		return nil, ErrInternalServerError.WithErr(err)
	}
	return map[string]interface{}{"searchLogs": logs}, nil
}

// adminSetRoleHandler assigns a role to a user.
func (a *API) adminSetRoleHandler(r *Request) (interface{}, error) {
	if err := requireAdmin(r); err != nil {
		return nil, err
	}

	params := r.Context.URLParam("userId")
	if params == nil {
		return nil, ErrUserNotFound
	}
	id, err := primitive.ObjectIDFromHex(params[0])
	if err != nil {
		return nil, ErrUserNotFound.WithErr(err)
	}

	req := RoleUpdate{}
	if err := json.Unmarshal(r.Data, &req); err != nil {
		return nil, ErrInvalidRequestBodyData.WithErr(err)
	}
	if !auth.IsValidRole(req.Role) {
		return nil, ErrInvalidRequestBodyData.WithErr(fmt.Errorf("unknown role %q", req.Role))
	}
	ctx := r.Context.Request.Context()

	if _, err := a.database.UserService.GetUserByID(ctx, id); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrUserNotFound
		}
		return nil, ErrInternalServerError.WithErr(err)
	}
	if _, err := a.database.UserService.SetUserRole(ctx, id, auth.Role(req.Role)); err != nil {
		return nil, ErrInternalServerError.WithErr(fmt.Errorf("could not update role: %w", err))
	}

	user, err := a.database.UserService.GetUserByID(ctx, id)
	if err != nil {
		return nil, ErrInternalServerError.WithErr(err)
	}
	return user, nil
}
