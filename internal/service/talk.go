package service

import (
	"context"
	stderrors "errors"
	"log/slog"
	"strings"

	"github.com/tlksio/tlks-server/internal/domain"
	"github.com/tlksio/tlks-server/internal/errors"
	"github.com/tlksio/tlks-server/internal/id"
	"github.com/tlksio/tlks-server/internal/normalize"
	"github.com/tlksio/tlks-server/internal/slug"
	"github.com/tlksio/tlks-server/internal/store"
	"github.com/tlksio/tlks-server/internal/validation"
)

// How many related talks a talk page shows.
const DefaultRelatedLimit = 5

// TalkService handles talk creation, retrieval and the related-talks
// resolver.
type TalkService struct {
	store     *store.Store
	validator *validation.Validator
	logger    *slog.Logger
}

// NewTalkService creates a new talk service.
func NewTalkService(store *store.Store, validator *validation.Validator, logger *slog.Logger) *TalkService {
	return &TalkService{
		store:     store,
		validator: validator,
		logger:    logger,
	}
}

// Create validates the draft and persists a new talk.
//
// The slug is derived from the title once, at creation, and never changes.
// A slug collision fails with a Conflict error; an existing talk is never
// overwritten. The author snapshot is captured here and stays frozen even
// if the user later changes their profile.
func (s *TalkService) Create(ctx context.Context, draft domain.TalkDraft, author domain.Author) (*domain.Talk, error) {
	if err := s.validator.Validate(draft); err != nil {
		return nil, err
	}
	if author.ID == "" {
		return nil, errors.Unauthorized("submitting a talk requires a signed-in user")
	}

	talkSlug := slug.Make(draft.Title)
	if talkSlug == "" {
		return nil, errors.Validation("title must contain at least one alphanumeric character")
	}

	talkID, err := id.Generate("talk")
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "generate talk id")
	}

	talk := &domain.Talk{
		ID:          talkID,
		Slug:        talkSlug,
		Title:       strings.TrimSpace(draft.Title),
		Description: strings.TrimSpace(draft.Description),
		Code:        strings.TrimSpace(draft.Code),
		Author:      author,
		Tags:        normalize.SplitTags(draft.Tags),
		Votes:       []string{},
		Favorites:   []string{},
	}
	talk.InitTimestamps()

	if err := s.store.CreateTalk(ctx, talk); err != nil {
		switch {
		case stderrors.Is(err, store.ErrSlugTaken):
			return nil, errors.Conflictf("a talk titled %q already exists", draft.Title)
		case stderrors.Is(err, store.ErrTalkExists):
			return nil, errors.Conflictf("talk %s already exists", talkID)
		default:
			return nil, errors.Wrap(err, errors.CodeInternal, "create talk")
		}
	}

	s.logger.Info("talk created",
		"id", talk.ID,
		"slug", talk.Slug,
		"author", author.Username,
		"tags", len(talk.Tags),
	)

	return talk, nil
}

// GetBySlug returns the talk for a slug.
func (s *TalkService) GetBySlug(ctx context.Context, talkSlug string) (*domain.Talk, error) {
	talk, err := s.store.GetTalkBySlug(ctx, talkSlug)
	if err != nil {
		if stderrors.Is(err, store.ErrTalkNotFound) {
			return nil, errors.NotFoundf("talk %q not found", talkSlug)
		}
		return nil, errors.Wrap(err, errors.CodeInternal, "get talk")
	}
	return talk, nil
}

// Play counts a view and returns the talk so the handler can redirect to
// the video. The increment uses the same conditional update primitive as
// the engagement toggles, so concurrent plays never lose counts.
func (s *TalkService) Play(ctx context.Context, talkSlug string) (*domain.Talk, error) {
	talk, err := s.GetBySlug(ctx, talkSlug)
	if err != nil {
		return nil, err
	}

	for attempt := 0; attempt < maxToggleRetries; attempt++ {
		_, updated, err := s.store.UpdateTalkIf(ctx, talk.ID, func(t *domain.Talk) bool {
			t.ViewCount++
			t.Touch()
			return true
		})
		switch {
		case err == nil:
			return updated, nil
		case stderrors.Is(err, store.ErrTxnConflict):
			continue
		case stderrors.Is(err, store.ErrTalkNotFound):
			return nil, errors.NotFoundf("talk %q not found", talkSlug)
		default:
			return nil, errors.Wrap(err, errors.CodeInternal, "count view")
		}
	}

	// The view was lost to contention. Not worth failing the playback over.
	s.logger.Warn("view count increment abandoned after retries", "talk", talk.ID)
	return talk, nil
}

// Related returns up to limit talks sharing at least one tag with talk,
// ranked by shared-tag count, newest first on ties. The talk itself is
// excluded. No tags or no matches is a success with an empty result.
func (s *TalkService) Related(ctx context.Context, talk *domain.Talk, limit int) ([]*domain.Talk, error) {
	if limit <= 0 {
		limit = DefaultRelatedLimit
	}
	if len(talk.Tags) == 0 {
		return nil, nil
	}

	related, err := s.store.ListTalksByTagOverlap(ctx, talk.Tags, talk.ID, limit)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "list related talks")
	}
	return related, nil
}
