// Package service contains the application services that sit between the
// HTTP handlers and the store/search layers.
package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/tlksio/tlks-server/internal/domain"
	"github.com/tlksio/tlks-server/internal/errors"
	"github.com/tlksio/tlks-server/internal/normalize"
	"github.com/tlksio/tlks-server/internal/search"
	"github.com/tlksio/tlks-server/internal/store"
)

// SearchService bridges the search index with the data store. Queries run
// against the index; every hit is then resolved to its canonical talk record
// so results never show stale engagement numbers.
type SearchService struct {
	index  *search.Index
	store  *store.Store
	logger *slog.Logger
}

// NewSearchService creates a new search service.
func NewSearchService(index *search.Index, store *store.Store, logger *slog.Logger) *SearchService {
	return &SearchService{
		index:  index,
		store:  store,
		logger: logger,
	}
}

// Result pairs a resolved talk with its hit metadata.
type Result struct {
	Talk    *domain.Talk `json:"talk"`
	Score   float64      `json:"score"`
	HitTags []string     `json:"hitTags,omitempty"` // Normalized from the hit's stored tag string
}

// Search runs the ranked query and resolves each hit against the store.
//
// Resolution is concurrent but results come back in hit (relevance) order.
// A hit whose talk no longer exists is dropped silently; the index simply
// hasn't caught up with a deletion. Any other store failure aborts the whole
// call, serving partial results would silently hide data problems.
func (s *SearchService) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	if limit <= 0 {
		limit = search.DefaultParams().Limit
	}

	searchResult, err := s.index.Search(ctx, search.Params{
		Query: query,
		Limit: limit,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "search query failed")
	}

	hits := searchResult.Hits
	resolved := make([]*domain.Talk, len(hits))

	g, gctx := errgroup.WithContext(ctx)
	for i, hit := range hits {
		g.Go(func() error {
			talk, err := s.store.GetTalkBySlug(gctx, hit.Slug)
			if err != nil {
				if stderrors.Is(err, store.ErrTalkNotFound) {
					s.logger.Debug("dropping stale search hit", "slug", hit.Slug)
					return nil
				}
				return fmt.Errorf("resolve hit %q: %w", hit.Slug, err)
			}
			resolved[i] = talk
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, errors.Wrap(err, errors.CodeResolutionFailed, "search hit resolution failed")
	}

	// Reassemble in hit order, skipping dropped hits.
	results := make([]Result, 0, len(hits))
	for i, talk := range resolved {
		if talk == nil {
			continue
		}
		results = append(results, Result{
			Talk:    talk,
			Score:   hits[i].Score,
			HitTags: normalize.SplitTags(hits[i].RawTags),
		})
	}

	return results, nil
}

// IndexTalk indexes a single talk. Satisfies store.SearchIndexer.
func (s *SearchService) IndexTalk(_ context.Context, talk *domain.Talk) error {
	if err := s.index.IndexDocument(search.TalkToDocument(talk)); err != nil {
		return fmt.Errorf("index talk: %w", err)
	}
	s.logger.Debug("indexed talk", "id", talk.ID, "slug", talk.Slug)
	return nil
}

// DeleteTalk removes a talk from the index. Satisfies store.SearchIndexer.
func (s *SearchService) DeleteTalk(_ context.Context, talkID string) error {
	return s.index.DeleteDocument(talkID)
}

// DocumentCount returns the number of indexed talks.
func (s *SearchService) DocumentCount() (uint64, error) {
	return s.index.DocumentCount()
}

// ReindexAll rebuilds the entire search index from the store.
// This is a heavy operation - use sparingly.
func (s *SearchService) ReindexAll(ctx context.Context) error {
	s.logger.Info("starting full reindex")

	if err := s.index.Rebuild(); err != nil {
		return fmt.Errorf("rebuild index: %w", err)
	}

	talks, err := s.store.ListAllTalks(ctx)
	if err != nil {
		return fmt.Errorf("list talks: %w", err)
	}

	docs := make([]*search.TalkDocument, 0, len(talks))
	for _, talk := range talks {
		docs = append(docs, search.TalkToDocument(talk))
	}

	if len(docs) > 0 {
		if err := s.index.IndexDocuments(docs); err != nil {
			return fmt.Errorf("index talks: %w", err)
		}
	}

	s.logger.Info("full reindex complete", "total_documents", len(docs))
	return nil
}
