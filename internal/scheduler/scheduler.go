// Package scheduler triggers ingestion and cleanup runs on cron specs.
package scheduler

import (
	"context"
	"errors"
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/jonathan/job-ingest/internal/cleanup"
	"github.com/jonathan/job-ingest/internal/logger"
	"github.com/jonathan/job-ingest/internal/pipeline"
	"github.com/jonathan/job-ingest/internal/runlock"
	"github.com/jonathan/job-ingest/internal/types"
)

// Runner starts ingestion runs.
type Runner interface {
	Run(ctx context.Context, opts pipeline.RunOptions) (*types.RunStats, error)
}

// Options configures the scheduled jobs. An empty spec disables that job.
type Options struct {
	IngestSpec  string
	CleanupSpec string
	StaleDays   int
	Geocode     bool // chain a geocoding pass after each ingestion run
	RunOnStart  bool // run ingestion once immediately
	Logger      *logger.Logger
}

// Scheduler wraps robfig/cron. Jobs of the same kind never overlap within a
// process; across processes the run lock decides.
type Scheduler struct {
	cron    *cron.Cron
	runner  Runner
	cleanup pipeline.CleanupRunner
	opts    Options
	log     *logger.Logger
}

// New creates a scheduler. cleaner may be nil when CleanupSpec is empty.
func New(runner Runner, cleaner pipeline.CleanupRunner, opts Options) *Scheduler {
	log := logger.OrDefault(opts.Logger).With("component", "scheduler")
	cl := cronLogger{log: log}
	return &Scheduler{
		cron:    cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		runner:  runner,
		cleanup: cleaner,
		opts:    opts,
		log:     log,
	}
}

// Start registers the jobs and starts the cron loop. Jobs run with ctx.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.opts.IngestSpec != "" {
		if _, err := s.cron.AddFunc(s.opts.IngestSpec, func() { s.runIngest(ctx) }); err != nil {
			return fmt.Errorf("invalid ingest schedule %q: %w", s.opts.IngestSpec, err)
		}
	}
	if s.opts.CleanupSpec != "" {
		if s.cleanup == nil {
			return errors.New("cleanup schedule set without a cleanup runner")
		}
		if _, err := s.cron.AddFunc(s.opts.CleanupSpec, func() { s.runCleanup(ctx) }); err != nil {
			return fmt.Errorf("invalid cleanup schedule %q: %w", s.opts.CleanupSpec, err)
		}
	}

	s.cron.Start()
	s.log.Info("cron started", "ingest", s.opts.IngestSpec, "cleanup", s.opts.CleanupSpec)

	if s.opts.RunOnStart {
		go s.runIngest(ctx)
	}
	return nil
}

// Stop stops the cron loop and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info("cron stopped")
}

// Jobs returns the number of registered jobs.
func (s *Scheduler) Jobs() int {
	return len(s.cron.Entries())
}

func (s *Scheduler) runIngest(ctx context.Context) {
	s.log.Info("scheduled ingestion started")
	stats, err := s.runner.Run(ctx, pipeline.RunOptions{
		Trigger:    "schedule",
		RunGeocode: s.opts.Geocode,
		StaleDays:  s.opts.StaleDays,
	})
	switch {
	case errors.Is(err, runlock.ErrLocked):
		s.log.Info("scheduled ingestion skipped, another run holds the lock")
	case err != nil:
		s.log.Error("scheduled ingestion failed", "error", err)
	default:
		s.log.Info("scheduled ingestion complete",
			"companies", stats.CompaniesProcessed,
			"created", stats.PostingsCreated,
			"updated", stats.PostingsUpdated,
			"errors", len(stats.Errors)+stats.ErrorsTruncated)
	}
}

func (s *Scheduler) runCleanup(ctx context.Context) {
	result, err := s.cleanup.Run(ctx, cleanup.Options{StaleDays: s.opts.StaleDays})
	switch {
	case errors.Is(err, runlock.ErrLocked):
		s.log.Info("scheduled cleanup skipped, another run holds the lock")
	case err != nil:
		s.log.Error("scheduled cleanup failed", "error", err)
	default:
		s.log.Info("scheduled cleanup complete", "marked_inactive", result.PostingsMarkedInactive)
	}
}

// cronLogger adapts the structured logger to cron.Logger.
type cronLogger struct {
	log *logger.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.log.Debug(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.log.Error(msg, append(keysAndValues, "error", err)...)
}
