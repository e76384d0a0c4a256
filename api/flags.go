package api

import (
	"encoding/json"
	"fmt"

	"github.com/folkloremap/folkloremap-backend/auth"
	"github.com/folkloremap/folkloremap-backend/db"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// RegisterPublicFlagRoutes registers the flag submission route. Anonymous
// reports are accepted; authenticated reporters are recorded by user id.
func (a *API) RegisterPublicFlagRoutes(r chi.Router) {
	log.Info().Msg("register route POST /flags")
	r.Post("/flags", a.routerHandler(a.createFlagHandler))
}

// RegisterFlagRoutes registers the flag triage routes (reviewer and above).
func (a *API) RegisterFlagRoutes(r chi.Router) {
	log.Info().Msg("register route GET /flags")
	r.Get("/flags", a.routerHandler(a.listFlagsHandler))

	log.Info().Msg("register route PATCH /flags/{flagId}")
	r.Patch("/flags/{flagId}", a.routerHandler(a.updateFlagHandler))
}

// createFlagHandler files a report against a spot. The flagged spot must be
// visible to the reporter.
func (a *API) createFlagHandler(r *Request) (interface{}, error) {
	if err := a.checkLimit("flagCreate", r.Context.ClientIP(), flagCreateLimitPerMinute); err != nil {
		return nil, err
	}

	req := FlagCreate{}
	if err := json.Unmarshal(r.Data, &req); err != nil {
		return nil, ErrInvalidRequestBodyData.WithErr(err)
	}

	spotID, err := primitive.ObjectIDFromHex(req.SpotID)
	if err != nil {
		return nil, ErrSpotNotFound.WithErr(err)
	}
	ctx := r.Context.Request.Context()

	spot, err := a.database.SpotService.GetSpotByID(ctx, spotID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrSpotNotFound
		}
		return nil, ErrInternalServerError.WithErr(err)
	}

	role, uid := callerIdentity(r)
	isOwner := !uid.IsZero() && spot.CreatedBy == uid
	if spot.Status != db.SpotStatusPublished && !isOwner && !auth.HasRole(auth.RoleEditor, role) {
		return nil, ErrSpotNotFound
	}

	createdBy := "anonymous"
	if !uid.IsZero() {
		createdBy = uid.Hex()
	}
	flag := db.Flag{
		SpotID:    spotID,
		Reason:    req.Reason,
		Note:      req.Note,
		CreatedBy: createdBy,
	}
	if err := flag.Validate(); err != nil {
		return nil, ErrInvalidRequestBodyData.WithErr(err)
	}

	res, err := a.database.FlagService.InsertFlag(ctx, &flag)
	if err != nil {
		return nil, ErrInternalServerError.WithErr(fmt.Errorf("could not insert flag: %w", err))
	}
	flagID, _ := res.InsertedID.(primitive.ObjectID)
	return map[string]interface{}{
		"id":     flagID.Hex(),
		"status": db.FlagStatusOpen,
	}, nil
}

// listFlagsHandler returns flags for triage, optionally filtered by status.
func (a *API) listFlagsHandler(r *Request) (interface{}, error) {
	role, _ := callerIdentity(r)
	if !auth.HasRole(auth.RoleReviewer, role) {
		return nil, ErrForbidden
	}

	status := db.FlagStatus("")
	if param := r.Context.URLParam("status"); param != nil && param[0] != "" {
		if !db.IsValidFlagStatus(param[0]) {
			return nil, ErrInvalidRequestBodyData.WithErr(fmt.Errorf("unknown flag status %q", param[0]))
		}
		status = db.FlagStatus(param[0])
	}

	flags, err := a.database.FlagService.ListFlags(r.Context.Request.Context(), status)
	if err != nil {
		return nil, ErrInternalServerError.WithErr(err)
	}
	return map[string]interface{}{"flags": flags}, nil
}

// updateFlagHandler resolves or rejects a flag.
func (a *API) updateFlagHandler(r *Request) (interface{}, error) {
	role, _ := callerIdentity(r)
	if !auth.HasRole(auth.RoleReviewer, role) {
		return nil, ErrForbidden
	}

	params := r.Context.URLParam("flagId")
	if params == nil {
		return nil, ErrFlagNotFound
	}
	id, err := primitive.ObjectIDFromHex(params[0])
	if err != nil {
		return nil, ErrFlagNotFound.WithErr(err)
	}

	req := FlagUpdate{}
	if err := json.Unmarshal(r.Data, &req); err != nil {
		return nil, ErrInvalidRequestBodyData.WithErr(err)
	}
	if !db.IsValidFlagStatus(req.Status) {
		return nil, ErrInvalidRequestBodyData.WithErr(fmt.Errorf("unknown flag status %q", req.Status))
	}
	ctx := r.Context.Request.Context()

	if _, err := a.database.FlagService.GetFlagByID(ctx, id); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrFlagNotFound
		}
		return nil, ErrInternalServerError.WithErr(err)
	}
	if _, err := a.database.FlagService.UpdateFlagStatus(ctx, id, db.FlagStatus(req.Status), req.Note); err != nil {
		return nil, ErrInternalServerError.WithErr(fmt.Errorf("could not update flag: %w", err))
	}

	flag, err := a.database.FlagService.GetFlagByID(ctx, id)
	if err != nil {
		return nil, ErrInternalServerError.WithErr(err)
	}
	return flag, nil
}
