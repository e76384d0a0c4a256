package api

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/folkloremap/folkloremap-backend/auth"
	"github.com/folkloremap/folkloremap-backend/db"
	"github.com/folkloremap/folkloremap-backend/geo"
	"github.com/folkloremap/folkloremap-backend/geocode"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// RegisterPublicSpotRoutes registers the read-only spot routes.
func (a *API) RegisterPublicSpotRoutes(r chi.Router) {
	log.Info().Msg("register route GET /spots")
	r.Get("/spots", a.routerHandler(a.listSpotsHandler))

	log.Info().Msg("register route GET /spots/{spotId}")
	r.Get("/spots/{spotId}", a.routerHandler(a.getSpotHandler))

	log.Info().Msg("register route POST /spots/{spotId}/view")
	r.Post("/spots/{spotId}/view", a.routerHandler(a.viewSpotHandler))
}

// RegisterSpotRoutes registers the authenticated spot routes.
func (a *API) RegisterSpotRoutes(r chi.Router) {
	log.Info().Msg("register route POST /spots")
	r.Post("/spots", a.routerHandler(a.createSpotHandler))

	log.Info().Msg("register route PATCH /spots/{spotId}")
	r.Patch("/spots/{spotId}", a.routerHandler(a.updateSpotHandler))

	log.Info().Msg("register route DELETE /spots/{spotId}")
	r.Delete("/spots/{spotId}", a.routerHandler(a.deleteSpotHandler))

	log.Info().Msg("register route GET /spots/{spotId}/history")
	r.Get("/spots/{spotId}/history", a.routerHandler(a.spotHistoryHandler))

	log.Info().Msg("register route POST /spots/{spotId}/like")
	r.Post("/spots/{spotId}/like", a.routerHandler(a.likeSpotHandler))

	log.Info().Msg("register route POST /spots/{spotId}/save")
	r.Post("/spots/{spotId}/save", a.routerHandler(a.saveSpotHandler))
}

// spotIDFromRequest parses the {spotId} path parameter.
func spotIDFromRequest(r *Request) (primitive.ObjectID, error) {
	params := r.Context.URLParam("spotId")
	if params == nil {
		return primitive.NilObjectID, ErrSpotNotFound
	}
	id, err := primitive.ObjectIDFromHex(params[0])
	if err != nil {
		return primitive.NilObjectID, ErrSpotNotFound.WithErr(err)
	}
	return id, nil
}

// callerIdentity resolves the caller's role and user id from the request.
// Both are zero-valued for anonymous callers.
func callerIdentity(r *Request) (auth.Role, primitive.ObjectID) {
	role := auth.Role(r.Role)
	if r.UserID == "" {
		return role, primitive.NilObjectID
	}
	uid, err := primitive.ObjectIDFromHex(r.UserID)
	if err != nil {
		return role, primitive.NilObjectID
	}
	return role, uid
}

// listSpotsHandler returns a page of spots. Anonymous callers and viewers see
// published spots only; authenticated users additionally see their own
// drafts; reviewers and admins see everything.
func (a *API) listSpotsHandler(r *Request) (interface{}, error) {
	role, uid := callerIdentity(r)
	ctx := r.Context.Request.Context()

	filter := db.SpotFilter{}

	if bboxParam := r.Context.URLParam("bbox"); bboxParam != nil {
		bbox, err := parseBBox(bboxParam[0])
		if err != nil {
			return nil, ErrInvalidRequestBodyData.WithErr(err)
		}
		filter.BBox = bbox
	}

	if q := r.Context.URLParam("q"); q != nil && q[0] != "" {
		if len(q[0]) > 120 {
			return nil, ErrInvalidRequestBodyData.WithErr(fmt.Errorf("search term too long"))
		}
		filter.SearchTerm = q[0]
	}

	if iconTypes := r.Context.URLParam("iconTypes"); iconTypes != nil {
		for _, raw := range strings.Split(iconTypes[0], ",") {
			raw = strings.TrimSpace(raw)
			if raw == "" {
				continue
			}
			if !db.IsValidIconType(raw) {
				return nil, ErrInvalidRequestBodyData.WithErr(fmt.Errorf("unknown icon type %q", raw))
			}
			filter.IconTypes = append(filter.IconTypes, db.IconType(raw))
		}
	}

	if era := r.Context.URLParam("era"); era != nil && era[0] != "" {
		if len(era[0]) > 120 {
			return nil, ErrInvalidRequestBodyData.WithErr(fmt.Errorf("era filter too long"))
		}
		filter.Era = era[0]
	}

	statusParam := ""
	if status := r.Context.URLParam("status"); status != nil {
		statusParam = status[0]
	}

	if auth.HasRole(auth.RoleReviewer, role) {
		filter.AllStatuses = true
		if statusParam != "" && statusParam != "all" {
			if !db.IsValidSpotStatus(statusParam) {
				return nil, ErrInvalidRequestBodyData.WithErr(fmt.Errorf("unknown status %q", statusParam))
			}
			filter.Statuses = []db.SpotStatus{db.SpotStatus(statusParam)}
		}
	} else {
		if !uid.IsZero() {
			owner := uid
			filter.OwnerVisibility = &owner
		}
		if statusParam != "" && statusParam != "all" {
			if !db.IsValidSpotStatus(statusParam) {
				return nil, ErrInvalidRequestBodyData.WithErr(fmt.Errorf("unknown status %q", statusParam))
			}
			if statusParam != string(db.SpotStatusPublished) && uid.IsZero() {
				return nil, ErrForbidden
			}
			filter.Statuses = []db.SpotStatus{db.SpotStatus(statusParam)}
		}
	}

	page, pageSize, err := r.Context.GetPaginationParams()
	if err != nil {
		return nil, ErrInvalidRequestBodyData.WithErr(err)
	}

	spots, total, err := a.database.SpotService.ListSpots(ctx, filter, page, pageSize)
	if err != nil {
		return nil, ErrInternalServerError.WithErr(fmt.Errorf("failed to list spots: %w", err))
	}

	if filter.SearchTerm != "" {
		// Search analytics are best-effort; never block the response on them.
		go func(term string, results int64) {
			logCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if _, err := a.database.SearchLogService.InsertLog(logCtx, term, results); err != nil {
				log.Warn().Err(err).Msg("failed to record search log")
			}
		}(filter.SearchTerm, total)
	}

	apiSpots := make([]*SpotResponse, len(spots))
	for i, s := range spots {
		apiSpots[i] = FromDBSpot(s)
	}
	return &PaginatedSpotsResponse{
		Spots:      apiSpots,
		Pagination: CalculatePagination(page, pageSize, total),
	}, nil
}

// getSpotHandler returns one spot if the caller may see it.
func (a *API) getSpotHandler(r *Request) (interface{}, error) {
	id, err := spotIDFromRequest(r)
	if err != nil {
		return nil, err
	}
	role, uid := callerIdentity(r)
	ctx := r.Context.Request.Context()

	spot, err := a.database.SpotService.GetSpotByID(ctx, id)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrSpotNotFound
		}
		return nil, ErrInternalServerError.WithErr(err)
	}

	isOwner := !uid.IsZero() && spot.CreatedBy == uid
	if spot.Status != db.SpotStatusPublished && !isOwner && !auth.HasRole(auth.RoleReviewer, role) {
		return nil, ErrForbidden
	}
	return FromDBSpot(spot), nil
}

// createSpotHandler geocodes the submitted address, applies the privacy
// policy and persists the spot as a draft. Requires the editor role.
func (a *API) createSpotHandler(r *Request) (interface{}, error) {
	role, uid := callerIdentity(r)
	if uid.IsZero() {
		return nil, ErrUnauthorized.WithErr(fmt.Errorf("user not authenticated"))
	}
	if !auth.HasRole(auth.RoleEditor, role) {
		return nil, ErrForbidden
	}
	if err := a.checkLimit("spotCreate", uid.Hex(), spotCreateLimitPerMinute); err != nil {
		return nil, err
	}

	req := SpotCreate{}
	if err := json.Unmarshal(r.Data, &req); err != nil {
		return nil, ErrInvalidRequestBodyData.WithErr(err)
	}

	published, result, err := a.resolveAndBlur(r, req.Address, role, req.ExactLocation)
	if err != nil {
		return nil, err
	}

	spot := db.Spot{
		Title:       req.Title,
		Description: req.Description,
		Address:     req.Address,
		MapsQuery:   req.MapsQuery,
		PlaceID:     result.PlaceID,
		IconType:    db.IconType(req.IconType),
		EraHint:     req.EraHint,
		Sources:     req.Sources,
		Location:    db.NewDBLocation(published.Coordinate.Lat, published.Coordinate.Lng),
		BlurRadius:  published.RadiusMeters,
		Status:      db.SpotStatusDraft,
		CreatedBy:   uid,
	}
	if err := spot.Validate(); err != nil {
		return nil, ErrInvalidRequestBodyData.WithErr(err)
	}

	ctx := r.Context.Request.Context()
	res, err := a.database.SpotService.InsertSpot(ctx, &spot)
	if err != nil {
		return nil, ErrInternalServerError.WithErr(fmt.Errorf("could not insert spot: %w", err))
	}
	spotID, _ := res.InsertedID.(primitive.ObjectID)

	if _, err := a.database.AuditService.InsertEntry(ctx, &db.AuditEntry{
		SpotID: spotID,
		Action: db.AuditActionCreate,
		By:     uid,
	}); err != nil {
		log.Warn().Err(err).Msg("failed to record audit entry")
	}

	return map[string]interface{}{
		"id":     spotID.Hex(),
		"status": spot.Status,
	}, nil
}

// resolveAndBlur runs the geocode → classify → blur pipeline for a write.
// Geocoding failures reject the write; the precise coordinate never leaves
// this function.
func (a *API) resolveAndBlur(r *Request, address string, role auth.Role, wantExact bool) (geo.Published, *geocode.Result, error) {
	if a.geocoder == nil {
		return geo.Published{}, nil, ErrGeocodeUnavailable
	}
	ctx := r.Context.Request.Context()
	result, err := a.geocoder.Geocode(ctx, address)
	if err != nil {
		if err == geocode.ErrZeroResults {
			return geo.Published{}, nil, ErrAddressNotFound
		}
		return geo.Published{}, nil, ErrGeocodeUnavailable.WithErr(err)
	}
	published, err := geo.Publish(result.Coordinate, result.LocationType, role, wantExact)
	if err != nil {
		return geo.Published{}, nil, ErrInternalServerError.WithErr(fmt.Errorf("failed to apply location privacy: %w", err))
	}
	return published, result, nil
}

// updateSpotHandler applies a partial update. Owners may edit their own
// unpublished spots; reviewers and admins may edit anything. Publishing is a
// reviewer-only transition.
func (a *API) updateSpotHandler(r *Request) (interface{}, error) {
	id, err := spotIDFromRequest(r)
	if err != nil {
		return nil, err
	}
	role, uid := callerIdentity(r)
	if uid.IsZero() {
		return nil, ErrUnauthorized.WithErr(fmt.Errorf("user not authenticated"))
	}
	ctx := r.Context.Request.Context()

	spot, err := a.database.SpotService.GetSpotByID(ctx, id)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrSpotNotFound
		}
		return nil, ErrInternalServerError.WithErr(err)
	}

	isReviewer := auth.HasRole(auth.RoleReviewer, role)
	isOwner := spot.CreatedBy == uid
	if !isReviewer && (!isOwner || spot.Status == db.SpotStatusPublished) {
		return nil, ErrForbidden
	}

	req := SpotUpdate{}
	if err := json.Unmarshal(r.Data, &req); err != nil {
		return nil, ErrInvalidRequestBodyData.WithErr(err)
	}

	update := bson.M{}
	changes := map[string]interface{}{}
	previous := map[string]interface{}{}

	setField := func(field string, old, new interface{}) {
		update[field] = new
		changes[field] = new
		previous[field] = old
	}

	if req.Title != nil {
		setField("title", spot.Title, *req.Title)
	}
	if req.Description != nil {
		setField("description", spot.Description, *req.Description)
	}
	if req.MapsQuery != nil {
		setField("mapsQuery", spot.MapsQuery, *req.MapsQuery)
	}
	if req.IconType != nil {
		if !db.IsValidIconType(*req.IconType) {
			return nil, ErrInvalidRequestBodyData.WithErr(fmt.Errorf("unknown icon type %q", *req.IconType))
		}
		setField("iconType", spot.IconType, db.IconType(*req.IconType))
	}
	if req.EraHint != nil {
		setField("eraHint", spot.EraHint, *req.EraHint)
	}
	if req.Sources != nil {
		for i := range req.Sources {
			if err := req.Sources[i].Validate(); err != nil {
				return nil, ErrInvalidRequestBodyData.WithErr(err)
			}
		}
		setField("sources", spot.Sources, req.Sources)
	}

	if req.Address != nil {
		// Address changes re-run the full geocode → blur pipeline.
		published, result, err := a.resolveAndBlur(r, *req.Address, role, req.ExactLocation)
		if err != nil {
			return nil, err
		}
		setField("address", spot.Address, *req.Address)
		setField("placeId", spot.PlaceID, result.PlaceID)
		setField("location", spot.Location, db.NewDBLocation(published.Coordinate.Lat, published.Coordinate.Lng))
		setField("blurRadius", spot.BlurRadius, published.RadiusMeters)
	}

	if req.Status != nil {
		if !db.IsValidSpotStatus(*req.Status) {
			return nil, ErrInvalidRequestBodyData.WithErr(fmt.Errorf("unknown status %q", *req.Status))
		}
		newStatus := db.SpotStatus(*req.Status)
		if !canChangeStatus(isOwner, isReviewer, spot.Status, newStatus) {
			return nil, ErrForbidden
		}
		setField("status", spot.Status, newStatus)
	}

	if len(update) == 0 {
		return nil, ErrInvalidRequestBodyData.WithErr(fmt.Errorf("no fields to update"))
	}

	if _, err := a.database.SpotService.UpdateSpot(ctx, id, update); err != nil {
		return nil, ErrInternalServerError.WithErr(fmt.Errorf("could not update spot: %w", err))
	}

	if _, err := a.database.AuditService.InsertEntry(ctx, &db.AuditEntry{
		SpotID:   id,
		Action:   db.AuditActionUpdate,
		By:       uid,
		Changes:  changes,
		Previous: previous,
	}); err != nil {
		log.Warn().Err(err).Msg("failed to record audit entry")
	}

	updated, err := a.database.SpotService.GetSpotByID(ctx, id)
	if err != nil {
		return nil, ErrInternalServerError.WithErr(err)
	}
	return FromDBSpot(updated), nil
}

// canChangeStatus reports whether the caller may move a spot between
// moderation states. Owners may shuffle their own unpublished spots between
// draft and review; publishing, and any transition away from published, is
// reviewer-only.
func canChangeStatus(isOwner, isReviewer bool, current, next db.SpotStatus) bool {
	if isReviewer {
		return true
	}
	return isOwner &&
		current != db.SpotStatusPublished &&
		next != db.SpotStatusPublished
}

// deleteSpotHandler removes a spot and its flags. Admin only.
func (a *API) deleteSpotHandler(r *Request) (interface{}, error) {
	id, err := spotIDFromRequest(r)
	if err != nil {
		return nil, err
	}
	role, uid := callerIdentity(r)
	if uid.IsZero() {
		return nil, ErrUnauthorized.WithErr(fmt.Errorf("user not authenticated"))
	}
	if !auth.HasRole(auth.RoleAdmin, role) {
		return nil, ErrForbidden
	}
	ctx := r.Context.Request.Context()

	if _, err := a.database.SpotService.GetSpotByID(ctx, id); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrSpotNotFound
		}
		return nil, ErrInternalServerError.WithErr(err)
	}
	if err := a.database.SpotService.DeleteSpot(ctx, id); err != nil {
		return nil, ErrInternalServerError.WithErr(fmt.Errorf("could not delete spot: %w", err))
	}
	if err := a.database.FlagService.DeleteFlagsForSpot(ctx, id); err != nil {
		log.Warn().Err(err).Msg("failed to delete flags for spot")
	}
	if _, err := a.database.AuditService.InsertEntry(ctx, &db.AuditEntry{
		SpotID: id,
		Action: db.AuditActionDelete,
		By:     uid,
	}); err != nil {
		log.Warn().Err(err).Msg("failed to record audit entry")
	}
	return nil, nil
}

// spotHistoryHandler returns the audit trail of a spot for its owner and for
// reviewers.
func (a *API) spotHistoryHandler(r *Request) (interface{}, error) {
	id, err := spotIDFromRequest(r)
	if err != nil {
		return nil, err
	}
	role, uid := callerIdentity(r)
	if uid.IsZero() {
		return nil, ErrUnauthorized.WithErr(fmt.Errorf("user not authenticated"))
	}
	ctx := r.Context.Request.Context()

	spot, err := a.database.SpotService.GetSpotByID(ctx, id)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrSpotNotFound
		}
		return nil, ErrInternalServerError.WithErr(err)
	}
	if spot.CreatedBy != uid && !auth.HasRole(auth.RoleReviewer, role) {
		return nil, ErrForbidden
	}

	entries, err := a.database.AuditService.ListEntriesForSpot(ctx, id)
	if err != nil {
		return nil, ErrInternalServerError.WithErr(err)
	}
	return map[string]interface{}{"history": entries}, nil
}

// likeSpotHandler increments the like counter of a published spot.
func (a *API) likeSpotHandler(r *Request) (interface{}, error) {
	return a.incrementInteraction(r, "likes")
}

// saveSpotHandler increments the save counter of a published spot.
func (a *API) saveSpotHandler(r *Request) (interface{}, error) {
	return a.incrementInteraction(r, "saves")
}

// viewSpotHandler increments the view counter. Public, throttled per IP.
func (a *API) viewSpotHandler(r *Request) (interface{}, error) {
	if err := a.checkLimit("interaction", r.Context.ClientIP(), interactionLimitPerMinute); err != nil {
		return nil, err
	}
	return a.incrementInteraction(r, "views")
}

func (a *API) incrementInteraction(r *Request, field string) (interface{}, error) {
	id, err := spotIDFromRequest(r)
	if err != nil {
		return nil, err
	}
	ctx := r.Context.Request.Context()

	spot, err := a.database.SpotService.GetSpotByID(ctx, id)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrSpotNotFound
		}
		return nil, ErrInternalServerError.WithErr(err)
	}
	if spot.Status != db.SpotStatusPublished {
		return nil, ErrForbidden
	}
	if err := a.database.SpotService.IncrementCounter(ctx, id, field); err != nil {
		return nil, ErrInternalServerError.WithErr(err)
	}
	return nil, nil
}

// parseBBox parses "west,south,east,north" into a bounding box.
func parseBBox(raw string) (*[4]float64, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 4 {
		return nil, fmt.Errorf("bbox must be west,south,east,north")
	}
	var bbox [4]float64
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid bbox component %q", p)
		}
		bbox[i] = v
	}
	if bbox[1] < -90 || bbox[3] > 90 || bbox[1] > bbox[3] {
		return nil, fmt.Errorf("bbox latitudes out of range")
	}
	if bbox[0] < -180 || bbox[2] > 180 {
		return nil, fmt.Errorf("bbox longitudes out of range")
	}
	return &bbox, nil
}
