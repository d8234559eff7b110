package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/job-ingest/internal/server"
	"github.com/jonathan/job-ingest/internal/server/ratelimit"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the admin REST API server",
	Long: `Start an HTTP server that exposes endpoints for triggering runs, cleanup and geocoding,
and for reading run history, trending postings and the review queue. Requests must carry
X-API-Key when ADMIN_API_KEY is set.`,
	RunE: runServe,
}

var servePort int

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (default from config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	port := a.cfg.Server.Port
	if cmd.Flags().Changed("port") {
		port = servePort
	}
	if a.cfg.Server.APIKey == "" {
		a.log.Warn("ADMIN_API_KEY is not set; the admin API is unauthenticated")
	}

	srv := server.New(server.Config{
		Port:      port,
		APIKey:    a.cfg.Server.APIKey,
		StaleDays: a.cfg.StaleDays,
		RateLimit: ratelimit.LoadConfig(os.Getenv),
	}, server.Deps{
		Store:    a.db,
		Runner:   a.orchestrator,
		Cleanup:  a.sweeper,
		Geocoder: a.geocoder,
		Trending: a.trending,
		Registry: a.registry,
		Logger:   a.log,
	})

	return srv.Start(cmd.Context())
}
