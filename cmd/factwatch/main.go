package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/ternarybob/arbor"

	"github.com/tbchen/factwatch/internal/common"
)

// Exit codes: 0 success, 1 failure, 130 interrupted.
const exitInterrupted = 130

var (
	configFiles []string

	config *common.Config
	logger arbor.ILogger
)

var rootCmd = &cobra.Command{
	Use:   "factwatch",
	Short: "Collects FactSet-style analyst consensus for Taiwan-listed equities",
	Long: `Factwatch walks a watchlist of Taiwan-listed stock codes, searches
financial news portals for FactSet-style analyst consensus articles,
validates and scores them, stores them as fingerprint-keyed artifacts
and aggregates the artifact set into CSV reports.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}
		return initRuntime()
	},
}

// initRuntime loads .env, the config files and the logger, in that order.
func initRuntime() error {
	// Optional; credentials usually arrive via the environment.
	godotenv.Load()

	cfg, err := common.LoadFromFiles(configFiles...)
	if err != nil {
		return err
	}
	config = cfg
	logger = common.InitLogger(config)
	return nil
}

func main() {
	rootCmd.PersistentFlags().StringSliceVarP(&configFiles, "config", "c",
		nil, "Configuration file (repeatable; later files override earlier ones)")

	rootCmd.AddCommand(collectCmd, reportCmd, scheduleCmd, statusCmd, versionCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "factwatch: %v\n", err)
		os.Exit(1)
	}
}
