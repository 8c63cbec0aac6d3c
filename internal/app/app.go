// Package app wires the configured services into a runnable application.
package app

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/tbchen/factwatch/internal/common"
	"github.com/tbchen/factwatch/internal/httpclient"
	"github.com/tbchen/factwatch/internal/interfaces"
	"github.com/tbchen/factwatch/internal/models"
	"github.com/tbchen/factwatch/internal/services/artifacts"
	"github.com/tbchen/factwatch/internal/services/cache"
	"github.com/tbchen/factwatch/internal/services/collection"
	"github.com/tbchen/factwatch/internal/services/credentials"
	"github.com/tbchen/factwatch/internal/services/fetcher"
	"github.com/tbchen/factwatch/internal/services/ratelimit"
	"github.com/tbchen/factwatch/internal/services/reports"
	"github.com/tbchen/factwatch/internal/services/scheduler"
	"github.com/tbchen/factwatch/internal/services/search"
	"github.com/tbchen/factwatch/internal/services/watchlist"
)

// App holds the wired service graph for one process.
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	Watchlist      *models.Watchlist
	WatchlistStats models.WatchlistStats

	Pool          *credentials.Pool
	Limiter       *ratelimit.Limiter
	Cache         interfaces.CacheService
	Fetcher       interfaces.FetchService
	Store         interfaces.ArtifactStore
	Catalog       *search.Catalog
	SearchService interfaces.SearchService
	Coordinator   *collection.Coordinator
	ReportService interfaces.ReportService
	Scheduler     *scheduler.Service
}

// New loads the watchlist and wires every service. Configuration problems
// surface here, before any network call.
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	loaded, err := watchlist.NewLoader(logger).Load(cfg.Watchlist.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to load watchlist: %w", err)
	}
	app.Watchlist = loaded.Watchlist
	app.WatchlistStats = loaded.Stats

	app.Pool, err = credentials.NewPool(cfg.Search.APIKeys, cfg.Search.CSEIDs, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build credential pool: %w", err)
	}

	app.Limiter = ratelimit.NewLimiter(cfg.Search.RatePerSecond, cfg.Search.DailyQuota, logger)

	app.Cache, err = cache.NewService(cfg.Cache.Dir, cfg.Cache.MaxAge.Std(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open search cache: %w", err)
	}

	app.Store, err = artifacts.NewStore(cfg.Artifacts.Dir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open artifact store: %w", err)
	}

	app.Catalog = search.NewCatalog()
	if cfg.Search.CatalogPath != "" {
		app.Catalog, err = search.LoadCatalog(cfg.Search.CatalogPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load query catalog: %w", err)
		}
	}

	app.Fetcher = fetcher.NewService(&cfg.Fetcher, logger)

	client := search.NewClient(
		search.WithHTTPClient(httpclient.NewDefaultHTTPClient(cfg.Search.RequestTimeout.Std())),
		search.WithLogger(logger),
	)

	app.SearchService = search.NewService(
		&cfg.Search,
		app.Catalog,
		client,
		app.Pool,
		app.Limiter,
		app.Cache,
		app.Fetcher,
		app.Store,
		app.Watchlist,
		cfg.Watchlist.Validate,
		logger,
	)

	app.Coordinator = collection.NewCoordinator(cfg, app.SearchService, app.Pool, logger)
	app.ReportService = reports.NewService(cfg, app.Store, app.Catalog, logger)
	app.Scheduler = scheduler.NewService(app.runCycle, logger)

	return app, nil
}

// runCycle is the scheduled unit: a full collection pass followed by
// report generation.
func (a *App) runCycle(ctx context.Context) error {
	if _, err := a.Coordinator.Run(ctx, a.Watchlist, true); err != nil {
		return err
	}
	_, err := a.ReportService.Generate(ctx, a.Watchlist)
	return err
}
