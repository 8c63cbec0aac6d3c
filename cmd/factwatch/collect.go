package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tbchen/factwatch/internal/app"
	"github.com/tbchen/factwatch/internal/common"
)

var (
	collectResume     bool
	collectClearCache bool
)

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Run one collection pass over the watchlist",
	Long: `Walks the watchlist in file order and collects analyst consensus
articles for each company. An interrupted run flushes its progress file;
rerunning with --resume skips the codes already completed.`,
	Run: runCollect,
}

func init() {
	collectCmd.Flags().BoolVar(&collectResume, "resume", false, "Resume from the progress file of an interrupted run")
	collectCmd.Flags().BoolVar(&collectClearCache, "clear-cache", false, "Drop the search response cache before starting")
}

func runCollect(_ *cobra.Command, _ []string) {
	common.PrintBanner(common.GetVersion())

	if err := config.Validate(); err != nil {
		logger.Error().Err(err).Msg("Configuration invalid")
		os.Exit(1)
	}

	application, err := app.New(config, logger)
	if err != nil {
		logger.Error().Err(err).Msg("Startup failed")
		os.Exit(1)
	}

	if collectClearCache {
		if err := application.Cache.Clear(); err != nil {
			logger.Warn().Err(err).Msg("Failed to clear search cache")
		}
	} else if _, err := application.Cache.Sweep(); err != nil {
		logger.Warn().Err(err).Msg("Failed to sweep search cache")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, err := application.Coordinator.Run(ctx, application.Watchlist, collectResume)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Warn().
				Str("run_id", summary.RunID).
				Int("companies", summary.Companies).
				Msg("Run interrupted, progress saved")
			os.Exit(exitInterrupted)
		}
		logger.Error().Err(err).Msg("Collection run failed")
		os.Exit(1)
	}

	logger.Info().
		Str("run_id", summary.RunID).
		Int("companies", summary.Companies).
		Int("accepted", summary.Accepted).
		Int("validation_fail", summary.ValidationFail).
		Int("duplicates", summary.Duplicates).
		Msg("Collection complete")
}
