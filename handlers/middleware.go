package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/ananke-board/ananke/services"
)

type contextKey string

const userContextKey contextKey = "user"

type AuthMiddleware struct {
	authService *services.AuthService
}

func NewAuthMiddleware(authService *services.AuthService) *AuthMiddleware {
	return &AuthMiddleware{
		authService: authService,
	}
}

// tokenFromRequest pulls the session token from the auth cookie, falling
// back to an Authorization: Bearer header for non-browser clients.
func tokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie("token"); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	authHeader := r.Header.Get("Authorization")
	authParts := strings.Split(authHeader, " ")
	if len(authParts) == 2 && authParts[0] == "Bearer" {
		return authParts[1]
	}

	return ""
}

// Auth verifies the session token and attaches the authenticated
// identity to the request context.
func (m *AuthMiddleware) Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := tokenFromRequest(r)
		if tokenString == "" {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		user, err := m.authService.VerifyToken(tokenString)
		if err != nil {
			writeError(w, http.StatusForbidden, "Forbidden")
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole guards a handler behind a minimum role. Must be applied
// inside Auth.
func (m *AuthMiddleware) RequireRole(minRole services.Role, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		if services.Rank(user.Role) < services.Rank(minRole) {
			writeError(w, http.StatusForbidden, "Requires "+string(minRole)+" role")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// UserFromContext returns the authenticated identity set by Auth.
func UserFromContext(ctx context.Context) (services.UserContext, bool) {
	user, ok := ctx.Value(userContextKey).(services.UserContext)
	return user, ok
}
