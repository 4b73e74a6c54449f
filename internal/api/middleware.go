package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/tlksio/tlks-server/internal/domain"
	"github.com/tlksio/tlks-server/internal/http/response"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// contextKeyUser carries the authenticated *domain.User.
const contextKeyUser contextKey = "user"

// sessionCookieName is the cookie carrying the session token.
const sessionCookieName = "tlks_session"

// requireAuth validates the session token and attaches the user to context.
// The token arrives either as the session cookie or as a Bearer header;
// the cookie is what the website sets, the header serves API clients.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := sessionToken(r)
		if token == "" {
			response.Unauthorized(w, "Authentication required", s.logger)
			return
		}

		user, err := s.sessionService.UserForToken(r.Context(), token)
		if err != nil {
			response.Unauthorized(w, "Invalid or expired session", s.logger)
			return
		}

		ctx := context.WithValue(r.Context(), contextKeyUser, user)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// sessionToken extracts the session token from cookie or Authorization header.
func sessionToken(r *http.Request) string {
	if cookie, err := r.Cookie(sessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}

// getUser extracts the authenticated user from request context.
// Returns nil if not authenticated.
func getUser(ctx context.Context) *domain.User {
	if user, ok := ctx.Value(contextKeyUser).(*domain.User); ok {
		return user
	}
	return nil
}

// getUserID extracts the authenticated user ID from request context.
// Returns empty string if not authenticated.
func getUserID(ctx context.Context) string {
	if user := getUser(ctx); user != nil {
		return user.ID
	}
	return ""
}

// getUsername extracts the authenticated username from request context.
func getUsername(ctx context.Context) string {
	if user := getUser(ctx); user != nil {
		return user.Username
	}
	return ""
}

// setSessionCookie writes the session cookie for a fresh login.
func setSessionCookie(w http.ResponseWriter, session *domain.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// clearSessionCookie expires the session cookie.
func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
