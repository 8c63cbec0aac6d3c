package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tbchen/factwatch/internal/common"
	"github.com/tbchen/factwatch/internal/services/artifacts"
	"github.com/tbchen/factwatch/internal/services/collection"
	"github.com/tbchen/factwatch/internal/services/watchlist"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show watchlist, artifact and progress state",
	Run:   runStatus,
}

func runStatus(_ *cobra.Command, _ []string) {
	fmt.Printf("factwatch %s\n", common.GetFullVersion())
	fmt.Printf("environment:   %s\n", config.Environment)
	fmt.Printf("watchlist:     %s\n", config.Watchlist.Path)
	fmt.Printf("artifacts:     %s\n", config.Artifacts.Dir)
	fmt.Printf("reports:       %s\n", config.Reports.Dir)
	fmt.Printf("credentials:   %d key(s) configured\n", len(config.Search.APIKeys))

	loaded, err := watchlist.NewLoader(logger).Load(config.Watchlist.Path)
	if err != nil {
		fmt.Printf("watchlist:     unreadable (%v)\n", err)
		os.Exit(1)
	}
	stats := loaded.Stats
	fmt.Printf("companies:     %d valid (%d rows, %d invalid, %d duplicates, %s)\n",
		stats.Valid, stats.TotalRows, stats.Invalid, stats.Duplicates, stats.Encoding)

	store, err := artifacts.NewStore(config.Artifacts.Dir, logger)
	if err != nil {
		fmt.Printf("artifacts:     unreadable (%v)\n", err)
		os.Exit(1)
	}
	stored, err := store.Scan()
	if err != nil {
		fmt.Printf("artifacts:     unreadable (%v)\n", err)
		os.Exit(1)
	}
	codes := make(map[string]struct{})
	for _, artifact := range stored {
		codes[artifact.StockCode] = struct{}{}
	}
	fmt.Printf("artifacts:     %d file(s) across %d company(ies)\n", len(stored), len(codes))

	progress, err := collection.LoadProgress(config.Search.ProgressPath)
	if err != nil {
		fmt.Printf("progress:      unreadable (%v)\n", err)
		os.Exit(1)
	}
	if progress == nil {
		fmt.Println("progress:      no interrupted run")
		return
	}
	fmt.Printf("progress:      run %s interrupted, %d of %d companies completed (resume with collect --resume)\n",
		progress.RunID, len(progress.Completed), loaded.Watchlist.Len())
}
