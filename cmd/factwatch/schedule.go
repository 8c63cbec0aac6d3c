package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tbchen/factwatch/internal/app"
	"github.com/tbchen/factwatch/internal/common"
)

var scheduleRunNow bool

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the collect-then-report cycle on a cron schedule",
	Run:   runSchedule,
}

func init() {
	scheduleCmd.Flags().BoolVar(&scheduleRunNow, "now", false, "Run one cycle immediately before waiting for the schedule")
}

func runSchedule(_ *cobra.Command, _ []string) {
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

	if err := application.Scheduler.Start(config.Schedule.Cron); err != nil {
		logger.Error().Err(err).Msg("Scheduler failed to start")
		os.Exit(1)
	}

	if scheduleRunNow {
		application.Scheduler.RunNow()
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	<-interrupt

	application.Scheduler.Stop()
	os.Exit(exitInterrupted)
}
