package api

import (
	"encoding/xml"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fetchFeed(t *testing.T, server *Server, path string) rssFeed {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, http.NoBody)
	w := httptest.NewRecorder()

	server.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Header().Get("Content-Type"), "application/rss+xml")

	var feed rssFeed
	require.NoError(t, xml.Unmarshal(w.Body.Bytes(), &feed))
	return feed
}

func TestRSSLatest(t *testing.T) {
	server, cleanup := setupTestServer(t)
	defer cleanup()

	token := loginTestUser(t, server, "alice")
	createTestTalkViaAPI(t, server, token, "First Talk", "go")
	createTestTalkViaAPI(t, server, token, "Second Talk", "go")

	feed := fetchFeed(t, server, "/rss/latest")

	assert.Equal(t, "2.0", feed.Version)
	assert.Equal(t, "Latest talks", feed.Channel.Title)
	require.Len(t, feed.Channel.Items, 2)

	// Newest first.
	assert.Equal(t, "Second Talk", feed.Channel.Items[0].Title)
	assert.Equal(t, "First Talk", feed.Channel.Items[1].Title)
	assert.Equal(t, "http://localhost:8080/talk/second-talk", feed.Channel.Items[0].Link)
	assert.NotEmpty(t, feed.Channel.Items[0].PubDate)
}

func TestRSSPopular(t *testing.T) {
	server, cleanup := setupTestServer(t)
	defer cleanup()

	token := loginTestUser(t, server, "alice")
	createTestTalkViaAPI(t, server, token, "Unpopular", "")
	slug := createTestTalkViaAPI(t, server, token, "Popular", "")

	req := httptest.NewRequest(http.MethodPost, "/talk/"+slug+"/upvote", http.NoBody)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	feed := fetchFeed(t, server, "/rss/popular")

	require.Len(t, feed.Channel.Items, 2)
	assert.Equal(t, "Popular", feed.Channel.Items[0].Title)
}

func TestRSSTag(t *testing.T) {
	server, cleanup := setupTestServer(t)
	defer cleanup()

	token := loginTestUser(t, server, "alice")
	createTestTalkViaAPI(t, server, token, "Tagged Talk", "databases")
	createTestTalkViaAPI(t, server, token, "Other Talk", "networking")

	feed := fetchFeed(t, server, "/rss/tag/databases")

	require.Len(t, feed.Channel.Items, 1)
	assert.Equal(t, "Tagged Talk", feed.Channel.Items[0].Title)
}
