package api

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/folkloremap/folkloremap-backend/db"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo"
)

// RegisterPublicUserRoutes registers the registration and login routes.
func (a *API) RegisterPublicUserRoutes(r chi.Router) {
	log.Info().Msg("register route POST /auth/register")
	r.Post("/auth/register", a.routerHandler(a.registerHandler))

	log.Info().Msg("register route POST /auth/login")
	r.Post("/auth/login", a.routerHandler(a.loginHandler))
}

// registerHandler creates a new user. New users start as editors so they can
// post drafts; moderation roles are granted by an admin.
func (a *API) registerHandler(r *Request) (interface{}, error) {
	if err := a.checkLimit("register", r.Context.ClientIP(), authLimitPerMinute); err != nil {
		return nil, err
	}
	userInfo := Register{}
	if err := json.Unmarshal(r.Data, &userInfo); err != nil {
		return nil, ErrInvalidRequestBodyData.WithErr(err)
	}
	if len(userInfo.Password) < 8 {
		return nil, ErrInvalidRequestBodyData.WithErr(fmt.Errorf("password must be at least 8 characters"))
	}
	user := db.User{
		Email:    userInfo.Email,
		Name:     userInfo.Name,
		Password: hashPassword(userInfo.Password),
		Active:   true,
	}
	if err := user.Validate(); err != nil {
		return nil, ErrInvalidRequestBodyData.WithErr(err)
	}
	ctx := r.Context.Request.Context()
	if _, err := a.database.UserService.InsertUser(ctx, &user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrEmailAlreadyExists.WithErr(err)
		}
		return nil, ErrInternalServerError.WithErr(fmt.Errorf("could not insert user: %w", err))
	}
	log.Debug().Str("email", user.Email).Msg("registered user")
	return nil, nil
}

// loginHandler returns a JWT token carrying the user's role claim.
func (a *API) loginHandler(r *Request) (interface{}, error) {
	if err := a.checkLimit("login", r.Context.ClientIP(), authLimitPerMinute); err != nil {
		return nil, err
	}
	loginInfo := Login{}
	if err := json.Unmarshal(r.Data, &loginInfo); err != nil {
		return nil, ErrInvalidRequestBodyData.WithErr(err)
	}
	ctx := r.Context.Request.Context()
	user, err := a.database.UserService.GetUserByEmail(ctx, loginInfo.Email)
	if err != nil {
		return nil, ErrWrongLogin
	}
	if !user.Active {
		return nil, ErrWrongLogin
	}
	if !bytes.Equal(user.Password, hashPassword(loginInfo.Password)) {
		return nil, ErrWrongLogin
	}
	return a.makeToken(user.ID.Hex(), user.Role)
}
