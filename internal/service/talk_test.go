package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tlksio/tlks-server/internal/domain"
	"github.com/tlksio/tlks-server/internal/errors"
	"github.com/tlksio/tlks-server/internal/store"
	"github.com/tlksio/tlks-server/internal/validation"
)

func setupTalkTest(t *testing.T) (*TalkService, *store.Store, func()) {
	t.Helper()
	s, cleanup := setupTestStore(t)
	svc := NewTalkService(s, validation.New(), testLogger())
	return svc, s, cleanup
}

func testAuthor() domain.Author {
	return domain.Author{
		ID:       "user-001",
		Username: "gopher",
		Avatar:   "https://example.com/gopher.png",
	}
}

func TestCreate(t *testing.T) {
	svc, s, cleanup := setupTalkTest(t)
	defer cleanup()

	ctx := context.Background()
	draft := domain.TalkDraft{
		Title:       "Simple Made Easy",
		Description: "On the difference between simple and easy.",
		Code:        "oytL881p-nQ",
		Tags:        "design, Philosophy, design, simplicity ",
	}

	talk, err := svc.Create(ctx, draft, testAuthor())
	require.NoError(t, err)

	assert.NotEmpty(t, talk.ID)
	assert.Equal(t, "simple-made-easy", talk.Slug)
	assert.Equal(t, "Simple Made Easy", talk.Title)
	assert.Equal(t, "oytL881p-nQ", talk.Code)
	// Tags are trimmed, lower-cased, deduplicated, in first-seen order.
	assert.Equal(t, []string{"design", "philosophy", "simplicity"}, talk.Tags)
	assert.Zero(t, talk.ViewCount)
	assert.Zero(t, talk.VoteCount)
	assert.Zero(t, talk.FavoriteCount)
	assert.Empty(t, talk.Votes)
	assert.Empty(t, talk.Favorites)
	assert.Equal(t, "gopher", talk.Author.Username)
	assert.False(t, talk.Created.IsZero())

	// Persisted and reachable by slug.
	stored, err := s.GetTalkBySlug(ctx, "simple-made-easy")
	require.NoError(t, err)
	assert.Equal(t, talk.ID, stored.ID)
}

func TestCreate_ValidationFailure(t *testing.T) {
	svc, _, cleanup := setupTalkTest(t)
	defer cleanup()

	_, err := svc.Create(context.Background(), domain.TalkDraft{
		Description: "missing title and code",
	}, testAuthor())
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrValidation)
}

func TestCreate_SlugCollision(t *testing.T) {
	svc, _, cleanup := setupTalkTest(t)
	defer cleanup()

	ctx := context.Background()
	draft := domain.TalkDraft{Title: "The Same Title", Code: "abc"}

	_, err := svc.Create(ctx, draft, testAuthor())
	require.NoError(t, err)

	// Same title derives the same slug; the second submission must fail,
	// never overwrite.
	_, err = svc.Create(ctx, draft, testAuthor())
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrConflict)
}

func TestCreate_RequiresAuthor(t *testing.T) {
	svc, _, cleanup := setupTalkTest(t)
	defer cleanup()

	_, err := svc.Create(context.Background(), domain.TalkDraft{
		Title: "Anonymous Talk",
		Code:  "abc",
	}, domain.Author{})
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrUnauthorized)
}

func TestGetBySlug_NotFound(t *testing.T) {
	svc, _, cleanup := setupTalkTest(t)
	defer cleanup()

	_, err := svc.GetBySlug(context.Background(), "no-such-talk")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestPlay_IncrementsViewCount(t *testing.T) {
	svc, s, cleanup := setupTalkTest(t)
	defer cleanup()

	ctx := context.Background()
	talk := seedTalk(t, s, "watched-talk")

	played, err := svc.Play(ctx, "watched-talk")
	require.NoError(t, err)
	assert.Equal(t, 1, played.ViewCount)
	assert.Equal(t, "https://www.youtube.com/watch?v="+talk.Code, played.WatchURL())

	played, err = svc.Play(ctx, "watched-talk")
	require.NoError(t, err)
	assert.Equal(t, 2, played.ViewCount)
}

func TestPlay_ConcurrentViewsAllCounted(t *testing.T) {
	svc, s, cleanup := setupTalkTest(t)
	defer cleanup()

	ctx := context.Background()
	talk := seedTalk(t, s, "busy-talk")

	const viewers = 4
	var wg sync.WaitGroup
	for i := 0; i < viewers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Play(ctx, "busy-talk")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	stored, err := s.GetTalk(ctx, talk.ID)
	require.NoError(t, err)
	// Increments may be abandoned under extreme contention but never double
	// counted.
	assert.LessOrEqual(t, stored.ViewCount, viewers)
	assert.Positive(t, stored.ViewCount)
}

func TestRelated_RankedByOverlapThenRecency(t *testing.T) {
	svc, s, cleanup := setupTalkTest(t)
	defer cleanup()

	ctx := context.Background()

	subject := seedTalk(t, s, "subject-talk", "go", "testing", "ci")
	twoShared := seedTalk(t, s, "two-shared", "go", "testing")
	oneShared := seedTalk(t, s, "one-shared", "go")
	seedTalk(t, s, "unrelated", "cooking")

	related, err := svc.Related(ctx, subject, 5)
	require.NoError(t, err)
	require.Len(t, related, 2)
	assert.Equal(t, twoShared.ID, related[0].ID)
	assert.Equal(t, oneShared.ID, related[1].ID)
}

func TestRelated_ExcludesSelfAndHonorsLimit(t *testing.T) {
	svc, s, cleanup := setupTalkTest(t)
	defer cleanup()

	ctx := context.Background()
	subject := seedTalk(t, s, "subject-talk", "go")
	seedTalk(t, s, "other-a", "go")
	seedTalk(t, s, "other-b", "go")
	seedTalk(t, s, "other-c", "go")

	related, err := svc.Related(ctx, subject, 2)
	require.NoError(t, err)
	assert.Len(t, related, 2)
	for _, r := range related {
		assert.NotEqual(t, subject.ID, r.ID)
	}
}

func TestRelated_NoTags(t *testing.T) {
	svc, s, cleanup := setupTalkTest(t)
	defer cleanup()

	subject := seedTalk(t, s, "tagless-talk")
	seedTalk(t, s, "other", "go")

	related, err := svc.Related(context.Background(), subject, 5)
	require.NoError(t, err)
	assert.Empty(t, related)
}
