package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jonathan/job-ingest/internal/sources"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List enabled adapters and registered company boards",
	RunE:  runSources,
}

var sourcesPlatform string

func init() {
	sourcesCmd.Flags().StringVarP(&sourcesPlatform, "platform", "p", "", "Only list boards on this platform")
	rootCmd.AddCommand(sourcesCmd)
}

func runSources(cmd *cobra.Command, _ []string) error {
	platform, err := parsePlatform(sourcesPlatform)
	if err != nil {
		return err
	}

	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	companies, err := a.db.ListCompanySources(cmd.Context(), sources.CompanyFilter{Platform: platform})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Enabled adapters: %v\n\n", a.registry.Platforms()) //nolint:errcheck

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PLATFORM\tSLUG\tCOMPANY") //nolint:errcheck
	for _, c := range companies {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", c.Platform, c.Slug, c.CompanyName) //nolint:errcheck
	}
	return tw.Flush()
}
