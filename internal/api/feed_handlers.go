package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tlksio/tlks-server/internal/domain"
	"github.com/tlksio/tlks-server/internal/http/response"
	"github.com/tlksio/tlks-server/internal/service"
)

const maxFeedLimit = 100

// homePage carries the front page listings.
type homePage struct {
	Latest  []*domain.Talk `json:"latest"`
	Popular []*domain.Talk `json:"popular"`
}

// handleHome returns the front page: latest and popular side by side.
func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	latest, err := s.feedService.Latest(ctx, service.DefaultFeedLimit)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	popular, err := s.feedService.Popular(ctx, service.DefaultFeedLimit)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, homePage{Latest: latest, Popular: popular}, s.logger)
}

func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r, service.DefaultFeedLimit, maxFeedLimit)

	talks, err := s.feedService.Latest(r.Context(), limit)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, talks, s.logger)
}

func (s *Server) handlePopular(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r, service.DefaultFeedLimit, maxFeedLimit)

	talks, err := s.feedService.Popular(r.Context(), limit)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, talks, s.logger)
}

func (s *Server) handleTag(w http.ResponseWriter, r *http.Request) {
	tag := chi.URLParam(r, "tag")
	limit := parseLimit(r, service.DefaultFeedLimit, maxFeedLimit)

	talks, err := s.feedService.ByTag(r.Context(), tag, limit)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, map[string]any{
		"tag":   tag,
		"talks": talks,
	}, s.logger)
}
