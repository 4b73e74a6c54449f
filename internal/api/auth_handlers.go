package api

import (
	"encoding/json/v2"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tlksio/tlks-server/internal/domain"
	"github.com/tlksio/tlks-server/internal/http/response"
)

type loginRequest struct {
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
}

type loginResponse struct {
	User    *domain.User `json:"user"`
	Token   string       `json:"token"`
	Expires string       `json:"expires"`
}

// handleLogin signs the user in, creating the account on first login.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req loginRequest
	if err := json.UnmarshalRead(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid request body", s.logger)
		return
	}

	user, session, err := s.sessionService.Login(ctx, req.Username, req.Avatar)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	setSessionCookie(w, session)

	response.Success(w, loginResponse{
		User:    user,
		Token:   session.Token,
		Expires: session.ExpiresAt.Format(time.RFC3339),
	}, s.logger)
}

// handleLogout tears down the current session. Safe to call without one.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if token := sessionToken(r); token != "" {
		if err := s.sessionService.Logout(r.Context(), token); err != nil {
			response.HandleError(w, err, s.logger)
			return
		}
	}

	clearSessionCookie(w)
	response.NoContent(w)
}

// handleCurrentUser returns the authenticated user's profile.
func (s *Server) handleCurrentUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	profile, err := s.sessionService.GetProfile(ctx, getUsername(ctx))
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, profile, s.logger)
}

// handleProfile returns a public profile by username.
func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	profile, err := s.sessionService.GetProfile(r.Context(), username)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, profile, s.logger)
}
