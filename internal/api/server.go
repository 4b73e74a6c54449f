// Package api provides the HTTP server and handlers for the tlks application.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/tlksio/tlks-server/internal/http/response"
	"github.com/tlksio/tlks-server/internal/ratelimit"
	"github.com/tlksio/tlks-server/internal/service"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	talkService       *service.TalkService
	searchService     *service.SearchService
	engagementService *service.EngagementService
	feedService       *service.FeedService
	sessionService    *service.SessionService
	writeLimiter      *ratelimit.KeyedRateLimiter
	baseURL           string
	router            *chi.Mux
	logger            *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(
	talkService *service.TalkService,
	searchService *service.SearchService,
	engagementService *service.EngagementService,
	feedService *service.FeedService,
	sessionService *service.SessionService,
	writeLimiter *ratelimit.KeyedRateLimiter,
	baseURL string,
	logger *slog.Logger,
) *Server {
	s := &Server{
		talkService:       talkService,
		searchService:     searchService,
		engagementService: engagementService,
		feedService:       feedService,
		sessionService:    sessionService,
		writeLimiter:      writeLimiter,
		baseURL:           baseURL,
		router:            chi.NewRouter(),
		logger:            logger,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// setupMiddleware configures middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	// Health check.
	s.router.Get("/health", s.handleHealthCheck)

	// Home listings.
	s.router.Get("/", s.handleHome)
	s.router.Get("/latest", s.handleLatest)
	s.router.Get("/popular", s.handlePopular)

	// Search.
	s.router.Get("/search", s.handleSearch)

	// Tag listings.
	s.router.Get("/tag/{tag}", s.handleTag)

	// RSS feeds.
	s.router.Route("/rss", func(r chi.Router) {
		r.Get("/latest", s.handleRSSLatest)
		r.Get("/popular", s.handleRSSPopular)
		r.Get("/tag/{tag}", s.handleRSSTag)
	})

	// Auth.
	s.router.Route("/auth", func(r chi.Router) {
		r.Post("/login", s.handleLogin)
		r.Post("/logout", s.handleLogout)
		r.With(s.requireAuth).Get("/me", s.handleCurrentUser)
	})

	// Profiles.
	s.router.Get("/profile/{username}", s.handleProfile)

	// Talks.
	s.router.Route("/talk", func(r chi.Router) {
		// Submission and engagement need a user and are write-limited.
		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Use(s.limitWrites)
			r.Post("/add", s.handleCreateTalk)
			r.Post("/{slug}/upvote", s.handleUpvote)
			r.Post("/{slug}/favorite", s.handleFavorite)
			r.Post("/{slug}/unfavorite", s.handleUnfavorite)
		})

		r.Get("/play/{slug}", s.handlePlay)
		r.Get("/{slug}", s.handleGetTalk)
	})
}

// handleHealthCheck returns server health status.
func (s *Server) handleHealthCheck(w http.ResponseWriter, _ *http.Request) {
	response.Success(w, map[string]string{
		"status": "healthy",
	}, s.logger)
}
