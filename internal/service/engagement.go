package service

import (
	"context"
	stderrors "errors"
	"log/slog"

	"github.com/tlksio/tlks-server/internal/domain"
	"github.com/tlksio/tlks-server/internal/errors"
	"github.com/tlksio/tlks-server/internal/store"
)

// maxToggleRetries bounds how often a toggle is retried after a
// transaction conflict before giving up.
const maxToggleRetries = 3

// EngagementService coordinates the idempotent vote/favorite toggles.
//
// Every toggle runs as a single conditional store update: the talk is
// re-read and mutated inside one transaction, so two concurrent identical
// toggles produce exactly one Applied=true. The service never inspects
// state before the update; the membership check happens inside the
// transaction where it cannot race.
type EngagementService struct {
	store  *store.Store
	logger *slog.Logger
}

// NewEngagementService creates a new engagement service.
func NewEngagementService(store *store.Store, logger *slog.Logger) *EngagementService {
	return &EngagementService{
		store:  store,
		logger: logger,
	}
}

// Vote adds the user's upvote. Voting twice is a no-op, not an error.
func (s *EngagementService) Vote(ctx context.Context, talkID, userID string) (domain.ToggleResult, error) {
	return s.toggle(ctx, talkID, func(t *domain.Talk) bool {
		return t.AddVote(userID)
	})
}

// Favorite adds the talk to the user's favorites. Idempotent.
func (s *EngagementService) Favorite(ctx context.Context, talkID, userID string) (domain.ToggleResult, error) {
	return s.toggle(ctx, talkID, func(t *domain.Talk) bool {
		return t.AddFavorite(userID)
	})
}

// Unfavorite removes the talk from the user's favorites. Unfavoriting a
// talk that was never favorited is a no-op, not an error.
func (s *EngagementService) Unfavorite(ctx context.Context, talkID, userID string) (domain.ToggleResult, error) {
	return s.toggle(ctx, talkID, func(t *domain.Talk) bool {
		return t.RemoveFavorite(userID)
	})
}

// toggle runs the conditional update with bounded conflict retries.
func (s *EngagementService) toggle(ctx context.Context, talkID string, mutate func(*domain.Talk) bool) (domain.ToggleResult, error) {
	for attempt := 0; attempt < maxToggleRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return domain.ToggleResult{}, errors.Wrap(err, errors.CodeInternal, "toggle canceled")
		}

		applied, _, err := s.store.UpdateTalkIf(ctx, talkID, mutate)
		switch {
		case err == nil:
			return domain.ToggleResult{Applied: applied}, nil
		case stderrors.Is(err, store.ErrTxnConflict):
			s.logger.Debug("toggle conflict, retrying", "talk", talkID, "attempt", attempt+1)
			continue
		case stderrors.Is(err, store.ErrTalkNotFound):
			return domain.ToggleResult{}, errors.NotFoundf("talk %s not found", talkID)
		default:
			return domain.ToggleResult{}, errors.Wrap(err, errors.CodeInternal, "toggle failed")
		}
	}

	return domain.ToggleResult{}, errors.Conflictf("talk %s is under contention, toggle retries exhausted", talkID)
}
