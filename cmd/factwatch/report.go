package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tbchen/factwatch/internal/services/artifacts"
	"github.com/tbchen/factwatch/internal/services/reports"
	"github.com/tbchen/factwatch/internal/services/search"
	"github.com/tbchen/factwatch/internal/services/watchlist"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Aggregate the artifact directory into the four CSV reports",
	Long: `Re-parses and re-scores every stored artifact and writes the
portfolio summary, detailed report, search-pattern effectiveness and
watchlist coverage CSVs. Needs no search credentials.`,
	Run: runReport,
}

func runReport(_ *cobra.Command, _ []string) {
	loaded, err := watchlist.NewLoader(logger).Load(config.Watchlist.Path)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load watchlist")
		os.Exit(1)
	}

	store, err := artifacts.NewStore(config.Artifacts.Dir, logger)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to open artifact store")
		os.Exit(1)
	}

	catalog := search.NewCatalog()
	if config.Search.CatalogPath != "" {
		catalog, err = search.LoadCatalog(config.Search.CatalogPath)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to load query catalog")
			os.Exit(1)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	files, err := reports.NewService(config, store, catalog, logger).Generate(ctx, loaded.Watchlist)
	if err != nil {
		logger.Error().Err(err).Msg("Report generation failed")
		os.Exit(1)
	}

	logger.Info().
		Str("portfolio", files.PortfolioSummary).
		Str("detailed", files.DetailedReport).
		Str("patterns", files.PatternSummary).
		Str("coverage", files.WatchlistSummary).
		Msg("Reports written")
}
