package api

import (
	"context"
	"crypto/sha256"
	"fmt"
	"net/http"
	"time"

	"github.com/folkloremap/folkloremap-backend/auth"
	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// authenticator is a middleware that validates the JWT token and forwards the
// resolved identity to the handlers via the X-User-Id and X-User-Role headers.
// The role is re-resolved from the claims on every request through the
// fail-closed auth.ResolveRole, so a token with a forged or malformed role
// claim collapses to viewer instead of erroring.
func (a *API) authenticator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, claims, err := jwtauth.FromContext(r.Context())
		if err != nil || token == nil {
			http.Error(w, ErrUnauthorized.Error(), http.StatusUnauthorized)
			return
		}

		if err := jwt.Validate(token, jwt.WithRequiredClaim("userId")); err != nil {
			http.Error(w, ErrUnauthorized.Error(), http.StatusUnauthorized)
			return
		}
		userID, ok := claims["userId"].(string)
		if !ok || userID == "" {
			http.Error(w, ErrUnauthorized.Error(), http.StatusUnauthorized)
			return
		}
		r.Header.Set("X-User-Id", userID)
		r.Header.Set("X-User-Role", string(auth.ResolveRole(claims)))
		next.ServeHTTP(w, r)
	})
}

// optionalAuthenticator forwards identity headers when a valid token is
// present but lets anonymous requests through as viewers. Inbound identity
// headers are always stripped first so they cannot be spoofed.
func (a *API) optionalAuthenticator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Header.Del("X-User-Id")
		r.Header.Del("X-User-Role")
		token, claims, err := jwtauth.FromContext(r.Context())
		if err == nil && token != nil {
			if err := jwt.Validate(token, jwt.WithRequiredClaim("userId")); err == nil {
				if userID, ok := claims["userId"].(string); ok && userID != "" {
					r.Header.Set("X-User-Id", userID)
					r.Header.Set("X-User-Role", string(auth.ResolveRole(claims)))
				}
			}
		}
		next.ServeHTTP(w, r)
	})
}

// makeToken creates a JWT token for the given user identifier and role. The
// token is signed with the API secret and is valid for jwtExpiration.
func (a *API) makeToken(id string, role auth.Role) (*LoginResponse, error) {
	j := jwt.New()
	if err := j.Set("userId", id); err != nil {
		return nil, ErrInternalServerError.WithErr(fmt.Errorf("failed to set userId claim: %w", err))
	}
	if err := j.Set("role", string(role)); err != nil {
		return nil, ErrInternalServerError.WithErr(fmt.Errorf("failed to set role claim: %w", err))
	}
	if err := j.Set(jwt.ExpirationKey, time.Now().Add(jwtExpiration).Unix()); err != nil {
		return nil, ErrInternalServerError.WithErr(fmt.Errorf("failed to set expiration claim: %w", err))
	}
	lr := LoginResponse{}
	lr.Expirity = time.Now().Add(jwtExpiration)
	jmap, err := j.AsMap(context.Background())
	if err != nil {
		return nil, ErrInternalServerError.WithErr(fmt.Errorf("failed to convert token to map: %w", err))
	}
	_, lr.Token, _ = a.auth.Encode(jmap)
	return &lr, nil
}

func hashPassword(password string) []byte {
	return sha256.New().Sum([]byte(passwordSalt + password))
}
