package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/job-ingest/internal/cleanup"
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Deactivate postings not seen recently",
	Long: `Marks active postings inactive when ingestion has not seen them for --stale-days days.
Postings are never deleted. With --dry-run the sweep only counts.`,
	RunE: runCleanup,
}

var (
	cleanupDryRun    bool
	cleanupStaleDays int
)

func init() {
	cleanupCmd.Flags().BoolVar(&cleanupDryRun, "dry-run", false, "Count stale postings without changing them")
	cleanupCmd.Flags().IntVar(&cleanupStaleDays, "stale-days", 0, "Days since last seen before a posting is stale (default from config)")
	rootCmd.AddCommand(cleanupCmd)
}

func runCleanup(cmd *cobra.Command, _ []string) error {
	if cleanupStaleDays < 0 {
		return fmt.Errorf("--stale-days must be non-negative")
	}

	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	staleDays := cleanupStaleDays
	if staleDays == 0 {
		staleDays = a.cfg.StaleDays
	}

	result, err := a.sweeper.Run(cmd.Context(), cleanup.Options{StaleDays: staleDays, DryRun: cleanupDryRun})
	if err != nil {
		return err
	}
	if verbose {
		a.printer.PrintCleanupResult(result)
		return nil
	}
	return writeJSON(cmd.OutOrStdout(), result)
}
