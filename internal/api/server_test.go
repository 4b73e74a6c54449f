package api

import (
	"encoding/json/v2"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tlksio/tlks-server/internal/http/response"
	"github.com/tlksio/tlks-server/internal/ratelimit"
	"github.com/tlksio/tlks-server/internal/search"
	"github.com/tlksio/tlks-server/internal/service"
	"github.com/tlksio/tlks-server/internal/store"
	"github.com/tlksio/tlks-server/internal/validation"
)

// setupTestServer creates a test server with a real store and an
// in-memory search index.
func setupTestServer(t *testing.T) (server *Server, cleanup func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "tlks-api-test-*")
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s, err := store.New(filepath.Join(tmpDir, "test.db"), logger)
	require.NoError(t, err)

	index, err := search.NewMemIndex()
	require.NoError(t, err)

	searchService := service.NewSearchService(index, s, logger)
	s.SetSearchIndexer(searchService)

	talkService := service.NewTalkService(s, validation.New(), logger)
	engagementService := service.NewEngagementService(s, logger)
	feedService := service.NewFeedService(s, logger)
	sessionService := service.NewSessionService(s, 0, logger)

	// Generous limits so only the rate limit tests trip them.
	writeLimiter := ratelimit.New(100, 100)

	server = NewServer(
		talkService,
		searchService,
		engagementService,
		feedService,
		sessionService,
		writeLimiter,
		"http://localhost:8080",
		logger,
	)

	cleanup = func() {
		writeLimiter.Stop()
		_ = index.Close()
		_ = s.Close()
		_ = os.RemoveAll(tmpDir)
	}

	return server, cleanup
}

// loginTestUser logs in via the API and returns the session token.
func loginTestUser(t *testing.T, server *Server, username string) string {
	t.Helper()

	body := strings.NewReader(`{"username": "` + username + `"}`)
	req := httptest.NewRequest(http.MethodPost, "/auth/login", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	server.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var result response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))

	data, ok := result.Data.(map[string]any)
	require.True(t, ok)
	token, ok := data["token"].(string)
	require.True(t, ok)
	require.NotEmpty(t, token)

	return token
}

// createTestTalkViaAPI submits a talk through the API and returns its slug.
func createTestTalkViaAPI(t *testing.T, server *Server, token, title, tags string) string {
	t.Helper()

	payload := map[string]string{
		"title": title,
		"code":  "dQw4w9WgXcQ",
		"tags":  tags,
	}
	raw, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/talk/add", strings.NewReader(string(raw)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()

	server.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	var result response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))

	data, ok := result.Data.(map[string]any)
	require.True(t, ok)
	slug, ok := data["slug"].(string)
	require.True(t, ok)

	return slug
}

func TestHealthCheck(t *testing.T) {
	server, cleanup := setupTestServer(t)
	defer cleanup()

	req := httptest.NewRequest(http.MethodGet, "/health", http.NoBody)
	w := httptest.NewRecorder()

	server.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var result response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.True(t, result.Success)
}

func TestHome_Empty(t *testing.T) {
	server, cleanup := setupTestServer(t)
	defer cleanup()

	req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	w := httptest.NewRecorder()

	server.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var result response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.True(t, result.Success)
}

func TestCreateTalk_RequiresAuth(t *testing.T) {
	server, cleanup := setupTestServer(t)
	defer cleanup()

	body := strings.NewReader(`{"title": "A Talk", "code": "abc123"}`)
	req := httptest.NewRequest(http.MethodPost, "/talk/add", body)
	w := httptest.NewRecorder()

	server.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateAndGetTalk(t *testing.T) {
	server, cleanup := setupTestServer(t)
	defer cleanup()

	token := loginTestUser(t, server, "alice")
	slug := createTestTalkViaAPI(t, server, token, "Simple Made Easy", "design, philosophy")
	assert.Equal(t, "simple-made-easy", slug)

	req := httptest.NewRequest(http.MethodGet, "/talk/"+slug, http.NoBody)
	w := httptest.NewRecorder()

	server.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var result response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.True(t, result.Success)

	data, ok := result.Data.(map[string]any)
	require.True(t, ok)
	talk, ok := data["talk"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Simple Made Easy", talk["title"])
	assert.Equal(t, "alice", talk["author"].(map[string]any)["username"])
}

func TestCreateTalk_CapturesAuthorAvatar(t *testing.T) {
	server, cleanup := setupTestServer(t)
	defer cleanup()

	body := strings.NewReader(`{"username": "alice", "avatar": "https://example.com/alice.png"}`)
	req := httptest.NewRequest(http.MethodPost, "/auth/login", body)
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var login response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))
	token := login.Data.(map[string]any)["token"].(string)

	slug := createTestTalkViaAPI(t, server, token, "Avatar Check", "")

	req = httptest.NewRequest(http.MethodGet, "/talk/"+slug, http.NoBody)
	w = httptest.NewRecorder()
	server.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var result response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))

	talk := result.Data.(map[string]any)["talk"].(map[string]any)
	author := talk["author"].(map[string]any)
	assert.Equal(t, "alice", author["username"])
	assert.Equal(t, "https://example.com/alice.png", author["avatar"])
}

func TestGetTalk_NotFound(t *testing.T) {
	server, cleanup := setupTestServer(t)
	defer cleanup()

	req := httptest.NewRequest(http.MethodGet, "/talk/no-such-talk", http.NoBody)
	w := httptest.NewRecorder()

	server.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)

	var result response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.False(t, result.Success)
}

func TestGetTalk_IncludesRelated(t *testing.T) {
	server, cleanup := setupTestServer(t)
	defer cleanup()

	token := loginTestUser(t, server, "alice")
	createTestTalkViaAPI(t, server, token, "Concurrency Patterns", "go, concurrency")
	slug := createTestTalkViaAPI(t, server, token, "Go Channels Deep Dive", "go, channels")

	req := httptest.NewRequest(http.MethodGet, "/talk/"+slug, http.NoBody)
	w := httptest.NewRecorder()

	server.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var result response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))

	data, ok := result.Data.(map[string]any)
	require.True(t, ok)
	related, ok := data["related"].([]any)
	require.True(t, ok)
	require.Len(t, related, 1)
	assert.Equal(t, "concurrency-patterns", related[0].(map[string]any)["slug"])
}

func TestCreateTalk_DuplicateSlug(t *testing.T) {
	server, cleanup := setupTestServer(t)
	defer cleanup()

	token := loginTestUser(t, server, "alice")
	createTestTalkViaAPI(t, server, token, "Unique Title", "")

	payload := `{"title": "Unique Title", "code": "other12345"}`
	req := httptest.NewRequest(http.MethodPost, "/talk/add", strings.NewReader(payload))
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()

	server.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCreateTalk_ValidationFailure(t *testing.T) {
	server, cleanup := setupTestServer(t)
	defer cleanup()

	token := loginTestUser(t, server, "alice")

	// Missing the required video code.
	payload := `{"title": "No Code Here"}`
	req := httptest.NewRequest(http.MethodPost, "/talk/add", strings.NewReader(payload))
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()

	server.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpvote_Toggle(t *testing.T) {
	server, cleanup := setupTestServer(t)
	defer cleanup()

	token := loginTestUser(t, server, "alice")
	slug := createTestTalkViaAPI(t, server, token, "Voteworthy", "")

	upvote := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/talk/"+slug+"/upvote", http.NoBody)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		server.ServeHTTP(w, req)
		return w
	}

	w := upvote()
	assert.Equal(t, http.StatusOK, w.Code)

	var result response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	data := result.Data.(map[string]any)
	assert.Equal(t, true, data["applied"])

	// Second upvote from the same user is a no-op, still a success.
	w = upvote()
	assert.Equal(t, http.StatusOK, w.Code)

	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	data = result.Data.(map[string]any)
	assert.Equal(t, false, data["applied"])
}

func TestFavorite_RoundTrip(t *testing.T) {
	server, cleanup := setupTestServer(t)
	defer cleanup()

	token := loginTestUser(t, server, "alice")
	slug := createTestTalkViaAPI(t, server, token, "Keeper", "")

	toggle := func(action string) map[string]any {
		req := httptest.NewRequest(http.MethodPost, "/talk/"+slug+"/"+action, http.NoBody)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		server.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)

		var result response.Envelope
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
		return result.Data.(map[string]any)
	}

	assert.Equal(t, true, toggle("favorite")["applied"])
	assert.Equal(t, false, toggle("favorite")["applied"])
	assert.Equal(t, true, toggle("unfavorite")["applied"])
	assert.Equal(t, false, toggle("unfavorite")["applied"])
}

func TestEngagement_UnknownTalk(t *testing.T) {
	server, cleanup := setupTestServer(t)
	defer cleanup()

	token := loginTestUser(t, server, "alice")

	req := httptest.NewRequest(http.MethodPost, "/talk/no-such-talk/upvote", http.NoBody)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()

	server.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPlay_RedirectsAndCounts(t *testing.T) {
	server, cleanup := setupTestServer(t)
	defer cleanup()

	token := loginTestUser(t, server, "alice")
	slug := createTestTalkViaAPI(t, server, token, "Watch Me", "")

	req := httptest.NewRequest(http.MethodGet, "/talk/play/"+slug, http.NoBody)
	w := httptest.NewRecorder()

	server.ServeHTTP(w, req)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "https://www.youtube.com/watch?v=dQw4w9WgXcQ", w.Header().Get("Location"))

	// The view must be visible on the talk page afterwards.
	req = httptest.NewRequest(http.MethodGet, "/talk/"+slug, http.NoBody)
	w = httptest.NewRecorder()
	server.ServeHTTP(w, req)

	var result response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	talk := result.Data.(map[string]any)["talk"].(map[string]any)
	assert.Equal(t, float64(1), talk["viewCount"])
}

func TestSearch_FindsTalk(t *testing.T) {
	server, cleanup := setupTestServer(t)
	defer cleanup()

	token := loginTestUser(t, server, "alice")
	createTestTalkViaAPI(t, server, token, "Distributed Consensus Explained", "raft, consensus")

	req := httptest.NewRequest(http.MethodGet, "/search?q=consensus", http.NoBody)
	w := httptest.NewRecorder()

	server.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var result response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.True(t, result.Success)

	data := result.Data.(map[string]any)
	assert.Equal(t, float64(1), data["total"])

	results := data["results"].([]any)
	first := results[0].(map[string]any)
	talk := first["talk"].(map[string]any)
	assert.Equal(t, "distributed-consensus-explained", talk["slug"])
}

func TestSearch_MissingQuery(t *testing.T) {
	server, cleanup := setupTestServer(t)
	defer cleanup()

	req := httptest.NewRequest(http.MethodGet, "/search", http.NoBody)
	w := httptest.NewRecorder()

	server.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTagListing(t *testing.T) {
	server, cleanup := setupTestServer(t)
	defer cleanup()

	token := loginTestUser(t, server, "alice")
	createTestTalkViaAPI(t, server, token, "On Testing", "testing, go")
	createTestTalkViaAPI(t, server, token, "On Shipping", "devops")

	req := httptest.NewRequest(http.MethodGet, "/tag/testing", http.NoBody)
	w := httptest.NewRecorder()

	server.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var result response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))

	data := result.Data.(map[string]any)
	assert.Equal(t, "testing", data["tag"])
	talks := data["talks"].([]any)
	require.Len(t, talks, 1)
	assert.Equal(t, "on-testing", talks[0].(map[string]any)["slug"])
}

func TestProfile(t *testing.T) {
	server, cleanup := setupTestServer(t)
	defer cleanup()

	token := loginTestUser(t, server, "alice")
	createTestTalkViaAPI(t, server, token, "My First Talk", "")

	req := httptest.NewRequest(http.MethodGet, "/profile/alice", http.NoBody)
	w := httptest.NewRecorder()

	server.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var result response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))

	data := result.Data.(map[string]any)
	user := data["user"].(map[string]any)
	assert.Equal(t, "alice", user["username"])

	authored := data["authored"].([]any)
	require.Len(t, authored, 1)
	assert.Equal(t, "my-first-talk", authored[0].(map[string]any)["slug"])
}

func TestProfile_NotFound(t *testing.T) {
	server, cleanup := setupTestServer(t)
	defer cleanup()

	req := httptest.NewRequest(http.MethodGet, "/profile/nobody", http.NoBody)
	w := httptest.NewRecorder()

	server.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
