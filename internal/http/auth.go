package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

type contextKey string

const userIDKey contextKey = "user_id"

const sessionCookieName = "session"

// userID extracts the authenticated user's ID from the request context.
// The auth middleware guarantees it is set on protected routes.
func userID(ctx context.Context) int64 {
	id, _ := ctx.Value(userIDKey).(int64)
	return id
}

// requireAuth resolves the session token from the cookie or the
// Authorization header and injects the user ID into the context.
// Sessions past the halfway point of their TTL are renewed in place so
// active users never get logged out.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := sessionToken(r)
		if token == "" {
			respondErrorMessage(w, http.StatusUnauthorized, "authentication required")
			return
		}

		sess, err := s.repo.GetSession(r.Context(), token)
		if err != nil {
			respondErrorMessage(w, http.StatusUnauthorized, "invalid or expired session")
			return
		}

		if time.Until(sess.ExpiresAt) < s.sessionTTL/2 {
			if err := s.repo.RenewSession(r.Context(), token, time.Now().Add(s.sessionTTL)); err != nil {
				// Renewal is best-effort; the session is still valid.
				slog.WarnContext(r.Context(), "Failed to renew session", "error", err)
			}
		}

		ctx := context.WithValue(r.Context(), userIDKey, sess.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func sessionToken(r *http.Request) string {
	if c, err := r.Cookie(sessionCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return ""
}

func (s *Server) setSessionCookie(w http.ResponseWriter, token string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}
