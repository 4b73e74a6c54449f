package service

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tlksio/tlks-server/internal/domain"
	"github.com/tlksio/tlks-server/internal/id"
	"github.com/tlksio/tlks-server/internal/store"
)

// setupTestStore creates a temporary store for service tests.
func setupTestStore(t *testing.T) (*store.Store, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "tlks-service-test-*")
	require.NoError(t, err)

	s, err := store.New(filepath.Join(tmpDir, "test.db"), nil)
	require.NoError(t, err)

	cleanup := func() {
		_ = s.Close()
		_ = os.RemoveAll(tmpDir)
	}

	return s, cleanup
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// seedTalk writes a talk with the given slug and tags straight to the store.
func seedTalk(t *testing.T, s *store.Store, slug string, tags ...string) *domain.Talk {
	t.Helper()
	return seedTalkWithTitle(t, s, slug, "Talk "+slug, tags...)
}

// seedTalkWithTitle is seedTalk with an explicit title.
func seedTalkWithTitle(t *testing.T, s *store.Store, slug, title string, tags ...string) *domain.Talk {
	t.Helper()
	author := domain.Author{ID: "user-seed", Username: "seeder"}
	return seedTalkForAuthor(t, s, slug, title, author, tags...)
}

// seedTalkForAuthor seeds a talk attributed to the given author.
func seedTalkForAuthor(t *testing.T, s *store.Store, slug, title string, author domain.Author, tags ...string) *domain.Talk {
	t.Helper()

	talk := &domain.Talk{
		ID:        id.MustGenerate("talk"),
		Slug:      slug,
		Title:     title,
		Code:      "dQw4w9WgXcQ",
		Author:    author,
		Tags:      tags,
		Votes:     []string{},
		Favorites: []string{},
	}
	talk.InitTimestamps()

	require.NoError(t, s.CreateTalk(context.Background(), talk))
	return talk
}
