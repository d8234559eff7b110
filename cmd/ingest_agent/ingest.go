package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/job-ingest/internal/pipeline"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Run one ingestion batch",
	Long: `Enumerates company boards and aggregator queries, fetches their postings, normalizes,
classifies and upserts them. Per-company failures are recorded in the run stats and do not
stop the batch.

With --dry-run nothing is persisted and the run lock is not taken; the reported stats
describe what a real run would have written.`,
	RunE: runIngest,
}

var (
	ingestPlatform     string
	ingestCompany      string
	ingestDryRun       bool
	ingestMaxCompanies int
	ingestCleanup      bool
	ingestStaleDays    int
	ingestGeocode      bool
)

func init() {
	ingestCmd.Flags().StringVarP(&ingestPlatform, "platform", "p", "", "Only ingest this platform (greenhouse, lever, ashby, remotive, arbeitnow, jsearch, usajobs, apprenticeship)")
	ingestCmd.Flags().StringVarP(&ingestCompany, "company", "c", "", "Only ingest the company with this name or slug")
	ingestCmd.Flags().BoolVar(&ingestDryRun, "dry-run", false, "Fetch and classify without writing")
	ingestCmd.Flags().IntVar(&ingestMaxCompanies, "max-companies", 0, "Process at most this many companies (0 = all)")
	ingestCmd.Flags().BoolVar(&ingestCleanup, "cleanup", false, "Run the staleness sweep after ingestion")
	ingestCmd.Flags().IntVar(&ingestStaleDays, "stale-days", 0, "Staleness threshold for --cleanup (default from config)")
	ingestCmd.Flags().BoolVar(&ingestGeocode, "geocode", false, "Run a geocoding pass after ingestion")
	rootCmd.AddCommand(ingestCmd)
}

// ingestOptions builds run options from the flags.
func ingestOptions() (pipeline.RunOptions, error) {
	platform, err := parsePlatform(ingestPlatform)
	if err != nil {
		return pipeline.RunOptions{}, err
	}
	if ingestMaxCompanies < 0 {
		return pipeline.RunOptions{}, fmt.Errorf("--max-companies must be non-negative")
	}
	if ingestStaleDays < 0 {
		return pipeline.RunOptions{}, fmt.Errorf("--stale-days must be non-negative")
	}
	return pipeline.RunOptions{
		Platform:     platform,
		Company:      ingestCompany,
		DryRun:       ingestDryRun,
		MaxCompanies: ingestMaxCompanies,
		RunCleanup:   ingestCleanup,
		StaleDays:    ingestStaleDays,
		RunGeocode:   ingestGeocode,
		Trigger:      "cli",
		Verbose:      verbose,
	}, nil
}

func runIngest(cmd *cobra.Command, _ []string) error {
	opts, err := ingestOptions()
	if err != nil {
		return err
	}

	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	if opts.Platform != "" {
		if _, ok := a.registry.Get(opts.Platform); !ok {
			return fmt.Errorf("platform %s is not enabled (disabled in config or missing credentials)", opts.Platform)
		}
	}
	if opts.StaleDays == 0 {
		opts.StaleDays = a.cfg.StaleDays
	}

	stats, err := a.orchestrator.Run(cmd.Context(), opts)
	if err != nil {
		return err
	}
	if verbose {
		return nil
	}
	return writeJSON(cmd.OutOrStdout(), stats)
}
