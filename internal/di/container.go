// Package di provides dependency injection configuration for the tlks server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/tlksio/tlks-server/internal/config"
	"github.com/tlksio/tlks-server/internal/di/providers"
	"github.com/tlksio/tlks-server/internal/logger"
	"github.com/tlksio/tlks-server/internal/service"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideValidator)

	// Storage layer
	do.Provide(injector, providers.ProvideStore)

	// Search layer
	do.Provide(injector, providers.ProvideSearchIndex)
	do.Provide(injector, providers.ProvideSearchService)

	// Business services
	do.Provide(injector, providers.ProvideTalkService)
	do.Provide(injector, providers.ProvideEngagementService)
	do.Provide(injector, providers.ProvideFeedService)
	do.Provide(injector, providers.ProvideSessionService)

	// Rate limiting
	do.Provide(injector, providers.ProvideWriteLimiter)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap invokes all providers so startup failures surface immediately
// instead of on first request.
func Bootstrap(injector *do.RootScope) error {
	_ = do.MustInvoke[*config.Config](injector)
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[*providers.StoreHandle](injector)
	_ = do.MustInvoke[*providers.SearchIndexHandle](injector)
	_ = do.MustInvoke[*service.SearchService](injector)
	_ = do.MustInvoke[*service.TalkService](injector)
	_ = do.MustInvoke[*service.EngagementService](injector)
	_ = do.MustInvoke[*service.FeedService](injector)
	_ = do.MustInvoke[*service.SessionService](injector)
	_ = do.MustInvoke[*providers.WriteLimiterHandle](injector)
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	// Rebuild the search index if it is empty but talks exist.
	providers.TriggerSearchReindexIfNeeded(injector)

	return nil
}
