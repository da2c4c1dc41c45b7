package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/Togather-Foundation/booking/internal/api/problem"
	"github.com/Togather-Foundation/booking/internal/auth"
	"github.com/Togather-Foundation/booking/internal/domain/users"
)

const (
	msgTokenMissing  = "Not authorized, token missing"
	msgTokenInvalid  = "Not authorized, token invalid"
	msgAdminRequired = "Admin permissions required"
)

const userKey contextKey = "user"

type UserLookup interface {
	GetByID(ctx context.Context, id string) (*users.User, error)
}

// RequireAuth verifies the bearer token and loads the caller's user record
// into the request context. The downstream handler never runs on failure.
func RequireAuth(tokens *auth.TokenManager, lookup UserLookup, env string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, err := auth.BearerToken(r.Header.Get("Authorization"))
			if err != nil {
				problem.Write(w, r, http.StatusUnauthorized, msgTokenMissing, err, env)
				return
			}
			claims, err := tokens.Verify(raw)
			if err != nil {
				problem.Write(w, r, http.StatusUnauthorized, msgTokenInvalid, err, env)
				return
			}

			user, err := lookup.GetByID(r.Context(), claims.UserID())
			if errors.Is(err, users.ErrNotFound) {
				problem.Write(w, r, http.StatusUnauthorized, msgTokenInvalid, err, env)
				return
			}
			if err != nil {
				problem.Write(w, r, http.StatusInternalServerError, "Server error", err, env)
				return
			}

			logger := zerolog.Ctx(r.Context()).With().Str("user_id", user.ID).Logger()
			ctx := context.WithValue(r.Context(), userKey, user)
			ctx = logger.WithContext(ctx)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin must run after RequireAuth. It checks the stored role, not
// the token claim, so demotions take effect immediately.
func RequireAdmin(env string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := CurrentUser(r)
			if user == nil {
				problem.Write(w, r, http.StatusUnauthorized, msgTokenMissing, auth.ErrMissingToken, env)
				return
			}
			if !user.IsAdmin() {
				problem.Write(w, r, http.StatusForbidden, msgAdminRequired, errors.New("role "+string(user.Role)), env)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// CurrentUser returns the user attached by RequireAuth, or nil.
func CurrentUser(r *http.Request) *users.User {
	return UserFromContext(r.Context())
}

func UserFromContext(ctx context.Context) *users.User {
	user, _ := ctx.Value(userKey).(*users.User)
	return user
}

// WithUser attaches user to ctx the way RequireAuth does.
func WithUser(ctx context.Context, user *users.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}
