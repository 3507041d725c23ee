package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/exposuregraph/exposuregraph/internal/core/domain"
	"github.com/exposuregraph/exposuregraph/internal/core/ports"
)

type contextKey string

const UserContextKey contextKey = "user"

const sessionCookie = "auth_token"

// extractToken pulls the session token from the cookie or, for API
// clients, the Authorization header.
func extractToken(r *http.Request) string {
	if cookie, err := r.Cookie(sessionCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:   sessionCookie,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
}

// AuthMiddleware ensures the request carries a valid session and attaches
// the resolved user to the request context.
func AuthMiddleware(authService ports.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			user, err := authService.ValidateToken(r.Context(), token)
			if err != nil {
				// The session is dead; stop the browser resending it.
				clearSessionCookie(w)
				http.Error(w, "Unauthorized: "+err.Error(), http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), UserContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RoleMiddleware rejects requests from users below the required role.
// It must run after AuthMiddleware.
func RoleMiddleware(requiredRole domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := r.Context().Value(UserContextKey).(*domain.User)
			if !ok || user == nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			if roleRank(user.Role) < roleRank(requiredRole) {
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// roleRank orders the hierarchy Admin > Analyst > Viewer. Unknown roles
// rank below everything.
func roleRank(role domain.Role) int {
	switch role {
	case domain.RoleAdmin:
		return 3
	case domain.RoleAnalyst:
		return 2
	case domain.RoleViewer:
		return 1
	default:
		return 0
	}
}
