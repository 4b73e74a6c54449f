package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeedLatestAndPopular(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	svc := NewFeedService(s, testLogger())
	engagement := NewEngagementService(s, testLogger())
	ctx := context.Background()

	older := seedTalk(t, s, "older-talk")
	// Creation timestamps need to differ for the ordering to be observable.
	time.Sleep(5 * time.Millisecond)
	newer := seedTalk(t, s, "newer-talk")

	_, err := engagement.Vote(ctx, older.ID, "user-a")
	require.NoError(t, err)
	_, err = engagement.Vote(ctx, older.ID, "user-b")
	require.NoError(t, err)

	latest, err := svc.Latest(ctx, 10)
	require.NoError(t, err)
	require.Len(t, latest, 2)
	assert.Equal(t, newer.ID, latest[0].ID)

	popular, err := svc.Popular(ctx, 10)
	require.NoError(t, err)
	require.Len(t, popular, 2)
	assert.Equal(t, older.ID, popular[0].ID)
}

func TestFeedByTag(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	svc := NewFeedService(s, testLogger())
	ctx := context.Background()

	tagged := seedTalk(t, s, "go-talk", "go")
	seedTalk(t, s, "rust-talk", "rust")

	talks, err := svc.ByTag(ctx, "go", 10)
	require.NoError(t, err)
	require.Len(t, talks, 1)
	assert.Equal(t, tagged.ID, talks[0].ID)

	talks, err = svc.ByTag(ctx, "cooking", 10)
	require.NoError(t, err)
	assert.Empty(t, talks)
}

func TestFeedDefaultLimit(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	svc := NewFeedService(s, testLogger())

	// Zero or negative limits fall back to the default instead of
	// returning everything.
	talks, err := svc.Latest(context.Background(), 0)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(talks), DefaultFeedLimit)
}
