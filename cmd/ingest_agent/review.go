package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "List postings whose classification needs review",
	Long:  `Lists low-confidence classifications, lowest confidence first, with the signals behind them.`,
	RunE:  runReview,
}

var reviewLimit int

func init() {
	reviewCmd.Flags().IntVarP(&reviewLimit, "limit", "n", 50, "Maximum postings to list")
	rootCmd.AddCommand(reviewCmd)
}

func runReview(cmd *cobra.Command, _ []string) error {
	if reviewLimit < 1 {
		return fmt.Errorf("--limit must be positive")
	}

	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	postings, err := a.db.ListNeedsReview(cmd.Context(), reviewLimit)
	if err != nil {
		return err
	}
	if verbose {
		a.printer.PrintReviewQueue(postings)
		return nil
	}
	return writeJSON(cmd.OutOrStdout(), postings)
}
