package service

import (
	"context"
	"log/slog"

	"github.com/tlksio/tlks-server/internal/domain"
	"github.com/tlksio/tlks-server/internal/errors"
	"github.com/tlksio/tlks-server/internal/store"
)

// DefaultFeedLimit is how many talks a listing or RSS feed carries.
const DefaultFeedLimit = 20

// FeedService serves the browse listings: latest, popular and per-tag.
type FeedService struct {
	store  *store.Store
	logger *slog.Logger
}

// NewFeedService creates a new feed service.
func NewFeedService(store *store.Store, logger *slog.Logger) *FeedService {
	return &FeedService{
		store:  store,
		logger: logger,
	}
}

// Latest returns talks newest first.
func (s *FeedService) Latest(ctx context.Context, limit int) ([]*domain.Talk, error) {
	if limit <= 0 {
		limit = DefaultFeedLimit
	}
	talks, err := s.store.ListLatestTalks(ctx, limit)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "list latest talks")
	}
	return talks, nil
}

// Popular returns talks by vote count, newest first on ties.
func (s *FeedService) Popular(ctx context.Context, limit int) ([]*domain.Talk, error) {
	if limit <= 0 {
		limit = DefaultFeedLimit
	}
	talks, err := s.store.ListPopularTalks(ctx, limit)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "list popular talks")
	}
	return talks, nil
}

// ByTag returns talks carrying the tag, newest first.
func (s *FeedService) ByTag(ctx context.Context, tag string, limit int) ([]*domain.Talk, error) {
	if limit <= 0 {
		limit = DefaultFeedLimit
	}
	talks, err := s.store.ListTalksByTag(ctx, tag, limit)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "list talks by tag")
	}
	return talks, nil
}
