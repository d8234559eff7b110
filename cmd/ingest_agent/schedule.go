package main

import (
	"github.com/spf13/cobra"

	"github.com/jonathan/job-ingest/internal/scheduler"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run ingestion and cleanup on their cron schedules",
	Long: `Runs in the foreground and triggers ingestion and cleanup on the cron specs from the
config (schedule.ingest, schedule.cleanup). A trigger that finds the run lock held by
another process is skipped. Stops on SIGINT or SIGTERM after running jobs finish.`,
	RunE: runSchedule,
}

var (
	scheduleRunNow  bool
	scheduleGeocode bool
)

func init() {
	scheduleCmd.Flags().BoolVar(&scheduleRunNow, "run-now", false, "Run ingestion once immediately")
	scheduleCmd.Flags().BoolVar(&scheduleGeocode, "geocode", true, "Run a geocoding pass after each ingestion")
	rootCmd.AddCommand(scheduleCmd)
}

func runSchedule(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	s := scheduler.New(a.orchestrator, a.sweeper, scheduler.Options{
		IngestSpec:  a.cfg.Schedule.Ingest,
		CleanupSpec: a.cfg.Schedule.Cleanup,
		StaleDays:   a.cfg.StaleDays,
		Geocode:     scheduleGeocode,
		RunOnStart:  scheduleRunNow,
		Logger:      a.log,
	})
	if err := s.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	s.Stop()
	return nil
}
