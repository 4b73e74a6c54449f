package api

import (
	"net/http"
	"strconv"

	"github.com/tlksio/tlks-server/internal/http/response"
	"github.com/tlksio/tlks-server/internal/service"
)

const maxSearchLimit = 50

// handleSearch runs a full text query and returns resolved talks.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	query := r.URL.Query().Get("q")
	if query == "" {
		response.BadRequest(w, "Missing query parameter 'q'", s.logger)
		return
	}

	limit := parseLimit(r, service.DefaultFeedLimit, maxSearchLimit)

	results, err := s.searchService.Search(ctx, query, limit)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, map[string]any{
		"query":   query,
		"total":   len(results),
		"results": results,
	}, s.logger)
}

// parseLimit reads ?limit= clamped to [1, max], falling back to def.
func parseLimit(r *http.Request, def, max int) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}
