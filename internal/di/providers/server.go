package providers

import (
	"context"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/tlksio/tlks-server/internal/api"
	"github.com/tlksio/tlks-server/internal/config"
	"github.com/tlksio/tlks-server/internal/logger"
	"github.com/tlksio/tlks-server/internal/service"
)

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Server.Shutdown(ctx)
}

// ProvideHTTPServer provides the HTTP server.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	talkService := do.MustInvoke[*service.TalkService](i)
	searchService := do.MustInvoke[*service.SearchService](i)
	engagementService := do.MustInvoke[*service.EngagementService](i)
	feedService := do.MustInvoke[*service.FeedService](i)
	sessionService := do.MustInvoke[*service.SessionService](i)
	limiterHandle := do.MustInvoke[*WriteLimiterHandle](i)

	handler := api.NewServer(
		talkService,
		searchService,
		engagementService,
		feedService,
		sessionService,
		limiterHandle.KeyedRateLimiter,
		cfg.Server.BaseURL,
		log.Logger,
	)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP server listening", "addr", srv.Addr, "base_url", cfg.Server.BaseURL)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server failed", "error", err)
		}
	}()

	return &HTTPServerHandle{Server: srv}, nil
}
