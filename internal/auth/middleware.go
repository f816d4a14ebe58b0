package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/storekit/storefront-auth/internal/models"
	pkghttp "github.com/storekit/storefront-auth/pkg/http"
)

// contextKey is a custom type for context keys
type contextKey string

const (
	// UserContextKey is the key for storing the authenticated user in context
	UserContextKey contextKey = "user"
)

// UserRepository interface for fetching user data
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// RequireAuth validates the bearer token, loads the user and injects it into
// the request context. Every failure here is a 401: the caller never learns
// whether the token was missing, malformed, expired or tied to a missing or
// deactivated account.
func RequireAuth(tm *TokenManager, userRepo UserRepository) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				pkghttp.WriteUnauthorized(w, "missing authorization header")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				pkghttp.WriteUnauthorized(w, "invalid authorization header format")
				return
			}

			claims, err := tm.ValidateToken(parts[1], models.TokenTypeAccess)
			if err != nil {
				pkghttp.WriteUnauthorized(w, "invalid or expired token")
				return
			}

			user, err := userRepo.GetByID(r.Context(), claims.UserID)
			if err != nil {
				if errors.Is(err, models.ErrNotFound) {
					pkghttp.WriteUnauthorized(w, "invalid or expired token")
					return
				}
				pkghttp.WriteInternalError(w, "internal server error")
				return
			}

			if !user.IsActive {
				pkghttp.WriteUnauthorized(w, "invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), UserContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// requireRole builds a guard from a role predicate. Must be mounted after
// RequireAuth. An authenticated user failing the predicate gets a 403,
// never a 401: the two outcomes are deliberately distinct.
func requireRole(predicate func(*models.User) bool) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := GetUserFromContext(r)
			if user == nil {
				pkghttp.WriteUnauthorized(w, "unauthorized")
				return
			}

			if !predicate(user) {
				pkghttp.WriteForbidden(w, "insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin passes superusers and Admin group members.
func RequireAdmin() func(next http.Handler) http.Handler {
	return requireRole((*models.User).IsAdmin)
}

// RequireStaff passes Staff group members; admins pass implicitly.
func RequireStaff() func(next http.Handler) http.Handler {
	return requireRole((*models.User).IsStaffMember)
}

// RequireCustomer passes Customer group members only. Admin or Staff status
// does not grant customer access.
func RequireCustomer() func(next http.Handler) http.Handler {
	return requireRole((*models.User).IsCustomer)
}

// GetUserFromContext extracts the authenticated user from request context
func GetUserFromContext(r *http.Request) *models.User {
	user, ok := r.Context().Value(UserContextKey).(*models.User)
	if !ok {
		return nil
	}
	return user
}
