package api

import (
	"context"
	"encoding/json/v2"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tlksio/tlks-server/internal/domain"
	"github.com/tlksio/tlks-server/internal/http/response"
	"github.com/tlksio/tlks-server/internal/service"
)

// talkPage is the talk detail payload: the talk plus its related listing.
type talkPage struct {
	Talk    *domain.Talk   `json:"talk"`
	Related []*domain.Talk `json:"related"`
}

// handleCreateTalk accepts a new talk submission.
func (s *Server) handleCreateTalk(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var draft domain.TalkDraft
	if err := json.UnmarshalRead(r.Body, &draft); err != nil {
		response.BadRequest(w, "Invalid request body", s.logger)
		return
	}

	user := getUser(ctx)
	if user == nil {
		response.Unauthorized(w, "Authentication required", s.logger)
		return
	}

	talk, err := s.talkService.Create(ctx, draft, user.Snapshot())
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Created(w, talk, s.logger)
}

// handleGetTalk returns a talk with its related listing.
func (s *Server) handleGetTalk(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	slug := chi.URLParam(r, "slug")

	talk, err := s.talkService.GetBySlug(ctx, slug)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	related, err := s.talkService.Related(ctx, talk, service.DefaultRelatedLimit)
	if err != nil {
		// The talk page is still useful without related entries.
		s.logger.Warn("related talks lookup failed", "slug", slug, "error", err)
		related = nil
	}

	response.Success(w, talkPage{Talk: talk, Related: related}, s.logger)
}

// handlePlay counts a view and redirects to the external video.
func (s *Server) handlePlay(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	slug := chi.URLParam(r, "slug")

	talk, err := s.talkService.Play(ctx, slug)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	http.Redirect(w, r, talk.WatchURL(), http.StatusFound)
}

// handleUpvote toggles the user's upvote on.
func (s *Server) handleUpvote(w http.ResponseWriter, r *http.Request) {
	s.handleToggle(w, r, s.engagementService.Vote)
}

// handleFavorite toggles the user's favorite on.
func (s *Server) handleFavorite(w http.ResponseWriter, r *http.Request) {
	s.handleToggle(w, r, s.engagementService.Favorite)
}

// handleUnfavorite toggles the user's favorite off.
func (s *Server) handleUnfavorite(w http.ResponseWriter, r *http.Request) {
	s.handleToggle(w, r, s.engagementService.Unfavorite)
}

// handleToggle resolves the slug and runs one engagement toggle.
// Toggles address talks by slug in the URL but the service works on ids.
func (s *Server) handleToggle(
	w http.ResponseWriter,
	r *http.Request,
	toggle func(ctx context.Context, talkID, userID string) (domain.ToggleResult, error),
) {
	ctx := r.Context()
	slug := chi.URLParam(r, "slug")

	talk, err := s.talkService.GetBySlug(ctx, slug)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	result, err := toggle(ctx, talk.ID, getUserID(ctx))
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, result, s.logger)
}
