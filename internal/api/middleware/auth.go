package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/cortexai/cortex-backend/internal/domain"
	"github.com/cortexai/cortex-backend/internal/service"
	"github.com/rs/zerolog/log"
)

type contextKey string

const (
	userKey  contextKey = "user"
	tokenKey contextKey = "token"
)

// Auth guards a route group with bearer-token validation. The wrapped
// handler only runs with a fully resolved user on the context; every failure
// short-circuits with 401 before any per-user state is touched.
func Auth(authService *service.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := BearerToken(r)
			if !ok {
				log.Debug().Str("path", r.URL.Path).Msg("missing or malformed authorization header")
				unauthorized(w, "Token is missing")
				return
			}

			user, err := authService.Validate(r.Context(), token)
			if err != nil {
				log.Debug().Err(err).Str("path", r.URL.Path).Msg("token validation failed")
				unauthorized(w, validationMessage(err))
				return
			}

			ctx := context.WithValue(r.Context(), userKey, user)
			ctx = context.WithValue(ctx, tokenKey, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BearerToken extracts the credential from an "Authorization: Bearer <token>"
// header.
func BearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// GetUser returns the authenticated user placed on the context by Auth.
func GetUser(ctx context.Context) (*domain.User, bool) {
	user, ok := ctx.Value(userKey).(*domain.User)
	return user, ok
}

// GetToken returns the raw bearer token for the current request.
func GetToken(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(tokenKey).(string)
	return token, ok
}

func validationMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrTokenExpired):
		return "Token has expired"
	case errors.Is(err, domain.ErrTokenRevoked):
		return "Token has been revoked"
	case errors.Is(err, domain.ErrUnknownUser):
		return "User not found"
	default:
		return "Invalid token"
	}
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"` + msg + `"}`))
}
