// Package api implements the TeleNote REST API using chi.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/starford/telenote/internal/apperr"
	"github.com/starford/telenote/internal/auth"
	"github.com/starford/telenote/internal/models"
)

// IdentityResolver extracts the caller's identity from a request.
type IdentityResolver func(r *http.Request) (models.Identity, error)

// BearerIdentity resolves "Authorization: Bearer <jwt>" headers.
func BearerIdentity(tokens *auth.Tokens) IdentityResolver {
	return func(r *http.Request) (models.Identity, error) {
		h := r.Header.Get("Authorization")
		if !strings.HasPrefix(h, "Bearer ") {
			return models.Identity{}, apperr.ErrUnauthorized
		}
		return tokens.Parse(strings.TrimPrefix(h, "Bearer "))
	}
}

// FixedIdentity makes every request act as externalID (disabled auth mode).
func FixedIdentity(externalID int64) IdentityResolver {
	return func(*http.Request) (models.Identity, error) {
		return models.Identity{ExternalID: externalID}, nil
	}
}

// Authenticator resolves identities to users.
type Authenticator interface {
	Authenticate(ctx context.Context, id models.Identity) (*models.User, error)
}

type ctxKey struct{}

// AuthMiddleware resolves the caller and stores the user in the request context.
func AuthMiddleware(svc Authenticator, resolve IdentityResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := resolve(r)
			if err != nil {
				writeJSON(w, http.StatusUnauthorized, errorBody("unauthorized"))
				return
			}
			u, err := svc.Authenticate(r.Context(), id)
			if err != nil {
				switch {
				case errors.Is(err, apperr.ErrForbidden):
					writeJSON(w, http.StatusForbidden, errorBody("forbidden"))
				case errors.Is(err, apperr.ErrValidation):
					writeJSON(w, http.StatusUnauthorized, errorBody("unauthorized"))
				default:
					slog.Error("authenticate failed", slog.String("error", err.Error()))
					writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
				}
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, u)))
		})
	}
}

// currentUser returns the user stored by AuthMiddleware.
func currentUser(r *http.Request) *models.User {
	u, _ := r.Context().Value(ctxKey{}).(*models.User)
	return u
}
