package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mmynk/checkin/internal/auth"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// UserIDKey is the context key for storing the authenticated admin ID.
	UserIDKey contextKey = "user_id"
	// EmailKey is the context key for storing the authenticated admin's email.
	EmailKey contextKey = "email"
)

// GetUserID extracts the admin ID from the context.
// Returns 0 if not found.
func GetUserID(ctx context.Context) int64 {
	userID, _ := ctx.Value(UserIDKey).(int64)
	return userID
}

// GetEmail extracts the admin email from the context.
// Returns empty string if not found.
func GetEmail(ctx context.Context) string {
	email, _ := ctx.Value(EmailKey).(string)
	return email
}

// TokenValidator verifies a bearer token and returns its claims.
type TokenValidator interface {
	Validate(token string) (*auth.Claims, error)
}

// RejectFunc writes the response for a request that failed authentication.
// reason is one of "missing", "malformed", "expired" or "invalid".
type RejectFunc func(w http.ResponseWriter, r *http.Request, reason string, err error)

// RequireAuth returns a middleware that validates bearer tokens before the
// wrapped handler runs. On success the admin ID and email are added to the
// request context; on failure reject is called and the handler is skipped.
func RequireAuth(validator TokenValidator, reject RejectFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				reject(w, r, "missing", auth.ErrMissingToken)
				return
			}

			scheme, tokenString, ok := strings.Cut(authHeader, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(tokenString) == "" {
				reject(w, r, "malformed", auth.ErrTokenInvalid)
				return
			}

			claims, err := validator.Validate(strings.TrimSpace(tokenString))
			if err != nil {
				reason := "invalid"
				if errors.Is(err, auth.ErrTokenExpired) {
					reason = "expired"
				}
				slog.Debug("Token rejected", "reason", reason, "error", err, "path", r.URL.Path)
				reject(w, r, reason, err)
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, claims.UserID)
			ctx = context.WithValue(ctx, EmailKey, claims.Email)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
