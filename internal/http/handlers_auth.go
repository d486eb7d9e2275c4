package http

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"outlay/internal/auth"
	"outlay/internal/core"
)

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if req.Username == "" || req.Password == "" {
		respondErrorMessage(w, http.StatusBadRequest, "username and password are required")
		return
	}

	user, err := s.repo.GetUserByUsername(r.Context(), req.Username)
	if err != nil && !errors.Is(err, core.ErrNotFound) {
		respondError(w, r, err)
		return
	}
	// Same response for unknown user and wrong password.
	if err != nil || !auth.CheckPassword(req.Password, user.PasswordHash) {
		slog.WarnContext(r.Context(), "Login failed",
			"username", req.Username, "client_ip", clientIP(r))
		respondErrorMessage(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := auth.GenerateSessionToken()
	if err != nil {
		respondError(w, r, err)
		return
	}
	expiresAt := time.Now().Add(s.sessionTTL)
	if err := s.repo.CreateSession(r.Context(), token, user.ID, expiresAt); err != nil {
		respondError(w, r, err)
		return
	}

	s.setSessionCookie(w, token, expiresAt)
	slog.InfoContext(r.Context(), "User logged in", "user_id", user.ID, "username", user.Username)

	respondData(w, http.StatusOK, loginResponse{
		Token: token,
		User: userResponse{
			ID:       user.ID,
			Username: user.Username,
			Role:     user.Role,
		},
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if token := sessionToken(r); token != "" {
		if err := s.repo.DeleteSession(r.Context(), token); err != nil {
			respondError(w, r, err)
			return
		}
	}
	s.clearSessionCookie(w)
	respondData(w, http.StatusOK, map[string]string{"status": "logged out"})
}
