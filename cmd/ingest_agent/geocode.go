package main

import (
	"github.com/spf13/cobra"
)

var geocodeCmd = &cobra.Command{
	Use:   "geocode",
	Short: "Fill in coordinates for posting locations",
	Long: `Copies coordinates between postings that share a location string, then resolves the
remaining distinct locations through the geocoding API, one request per configured interval,
until the time budget runs out. Unfinished locations are picked up by the next pass.`,
	RunE: runGeocode,
}

func init() {
	rootCmd.AddCommand(geocodeCmd)
}

func runGeocode(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := a.geocoder.Run(cmd.Context())
	if err != nil {
		return err
	}
	if verbose {
		a.printer.PrintGeocodeResult(result)
		return nil
	}
	return writeJSON(cmd.OutOrStdout(), result)
}
