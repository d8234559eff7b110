package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jonathan/job-ingest/internal/classify"
	"github.com/jonathan/job-ingest/internal/cleanup"
	"github.com/jonathan/job-ingest/internal/config"
	"github.com/jonathan/job-ingest/internal/db"
	"github.com/jonathan/job-ingest/internal/dedup"
	"github.com/jonathan/job-ingest/internal/geocode"
	"github.com/jonathan/job-ingest/internal/logger"
	"github.com/jonathan/job-ingest/internal/observability"
	"github.com/jonathan/job-ingest/internal/pipeline"
	"github.com/jonathan/job-ingest/internal/runlock"
	"github.com/jonathan/job-ingest/internal/sources"
	"github.com/jonathan/job-ingest/internal/trending"
	"github.com/jonathan/job-ingest/internal/types"
)

// app holds the wired components shared by the subcommands.
type app struct {
	cfg          *config.Config
	log          *logger.Logger
	db           *db.DB
	locker       runlock.Locker
	closeLocker  func()
	registry     *sources.Registry
	orchestrator *pipeline.Orchestrator
	sweeper      *cleanup.Sweeper
	geocoder     *geocode.Geocoder
	trending     *trending.Aggregator
	printer      *observability.Printer
}

// loadConfig reads config and builds the logger without touching the network.
func loadConfig() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	log := logger.NewWithOptions(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
	return cfg, log, nil
}

// newApp connects to the catalog and wires every component.
func newApp(ctx context.Context) (*app, error) {
	cfg, log, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable or database_url config is required")
	}

	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	locker, closeLocker, err := runlock.New(ctx, cfg.RedisURL, database)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to set up run lock: %w", err)
	}

	a := &app{
		cfg:         cfg,
		log:         log,
		db:          database,
		locker:      locker,
		closeLocker: closeLocker,
		registry:    sources.FromConfig(cfg, log),
		printer:     observability.NewPrinter(os.Stdout),
	}

	a.sweeper = cleanup.New(database, locker, log)
	a.geocoder = geocode.New(database,
		geocode.NewClient(cfg.Geocoder.URL, cfg.Geocoder.UserAgent, geocode.DefaultCallTimeout),
		geocode.Options{
			Interval: cfg.Geocoder.Interval.D(),
			Budget:   cfg.Geocoder.Budget.D(),
			Logger:   log,
		})
	a.trending = trending.New(database, cfg.Trending.Window.D(), cfg.Trending.Threshold)
	a.orchestrator = pipeline.New(pipeline.Deps{
		Registry:  a.registry,
		Companies: database,
		Upserter:  dedup.New(database, classify.New(cfg.Locale.TargetCountries)),
		Runs:      database,
		Locker:    locker,
		Cleanup:   a.sweeper,
		Geocoder:  a.geocoder,
		Logger:    log,
		Printer:   a.printer,
	}, pipeline.Settings{
		Concurrency:  cfg.Concurrency,
		MaxRunErrors: cfg.MaxRunErrors,
	})

	return a, nil
}

// Close releases the lock backend and the pool.
func (a *app) Close() {
	if a.closeLocker != nil {
		a.closeLocker()
	}
	a.db.Close()
}

// parsePlatform accepts an empty string or a known platform name.
func parsePlatform(s string) (types.Platform, error) {
	p := types.Platform(strings.ToLower(strings.TrimSpace(s)))
	switch p {
	case "", types.PlatformGreenhouse, types.PlatformLever, types.PlatformAshby,
		types.PlatformRemotive, types.PlatformArbeitnow, types.PlatformJSearch, types.PlatformUSAJobs,
		types.PlatformApprenticeship:
		return p, nil
	}
	return "", fmt.Errorf("unknown platform %q", s)
}

// writeJSON prints v as indented JSON.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
