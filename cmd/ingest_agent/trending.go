package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var trendingCmd = &cobra.Command{
	Use:   "trending",
	Short: "List postings saved often in the trending window",
	RunE:  runTrending,
}

var trendingLimit int

func init() {
	trendingCmd.Flags().IntVarP(&trendingLimit, "limit", "n", 20, "Maximum postings to list")
	rootCmd.AddCommand(trendingCmd)
}

func runTrending(cmd *cobra.Command, _ []string) error {
	if trendingLimit < 1 {
		return fmt.Errorf("--limit must be positive")
	}

	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	postings, err := a.trending.List(cmd.Context(), trendingLimit)
	if err != nil {
		return err
	}
	if verbose {
		a.printer.PrintTrending(postings, a.trending.Threshold())
		return nil
	}
	return writeJSON(cmd.OutOrStdout(), postings)
}
