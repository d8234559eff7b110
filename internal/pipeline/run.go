// Package pipeline provides the high-level orchestration for an ingestion run:
// enumerate company sources, fetch, normalize, upsert, then optionally chain
// cleanup and geocoding.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/job-ingest/internal/cleanup"
	"github.com/jonathan/job-ingest/internal/db"
	"github.com/jonathan/job-ingest/internal/dedup"
	"github.com/jonathan/job-ingest/internal/logger"
	"github.com/jonathan/job-ingest/internal/normalize"
	"github.com/jonathan/job-ingest/internal/observability"
	"github.com/jonathan/job-ingest/internal/runlock"
	"github.com/jonathan/job-ingest/internal/sources"
	"github.com/jonathan/job-ingest/internal/types"
)

// Stages reported in progress events
const (
	StageEnumerate = "enumerate"
	StageCompany   = "company"
	StageCleanup   = "cleanup"
	StageGeocode   = "geocode"
	StageComplete  = "complete"
)

// DefaultMaxRunErrors caps the error list kept in RunStats.
const DefaultMaxRunErrors = 50

// ProgressEvent represents a progress update during a run
type ProgressEvent struct {
	Stage   string `json:"stage"`
	Company string `json:"company,omitempty"`
	Message string `json:"message"`
	RunID   string `json:"run_id,omitempty"`
	Content any    `json:"content,omitempty"`
}

// ProgressCallback is called when run progress occurs
type ProgressCallback func(event ProgressEvent)

// RunOptions holds configuration for one run
type RunOptions struct {
	Platform     types.Platform
	Company      string // company name or slug; excludes non-matching aggregators
	DryRun       bool
	MaxCompanies int
	RunCleanup   bool
	StaleDays    int
	RunGeocode   bool
	Trigger      string // recorded on the run row: cli, schedule, api
	Verbose      bool
	OnProgress   ProgressCallback
}

// Upserter writes normalized postings.
type Upserter interface {
	Upsert(ctx context.Context, p *types.NormalizedPosting, dryRun bool) (*dedup.Outcome, error)
}

// RunRecorder persists run history.
type RunRecorder interface {
	CreateIngestRun(ctx context.Context, trigger string, dryRun bool) (uuid.UUID, error)
	CompleteIngestRun(ctx context.Context, runID uuid.UUID, status string, stats any) error
}

// CleanupRunner is the staleness sweep chained after ingestion.
type CleanupRunner interface {
	Run(ctx context.Context, opts cleanup.Options) (*types.CleanupResult, error)
}

// GeocodeRunner is the geocoding pass chained after ingestion.
type GeocodeRunner interface {
	Run(ctx context.Context) (*types.GeocodeResult, error)
}

// Deps are the collaborators of an Orchestrator. Registry, Companies and
// Upserter are required; the rest are optional.
type Deps struct {
	Registry  *sources.Registry
	Companies sources.CompanyLister
	Upserter  Upserter
	Runs      RunRecorder
	Locker    runlock.Locker
	Cleanup   CleanupRunner
	Geocoder  GeocodeRunner
	Logger    *logger.Logger
	Printer   *observability.Printer
}

// Settings bound a run.
type Settings struct {
	Concurrency  int // companies processed at once; <=1 is sequential
	MaxRunErrors int
}

// Orchestrator runs ingestion batches.
type Orchestrator struct {
	deps     Deps
	settings Settings
	log      *logger.Logger
	now      func() time.Time

	mu   sync.Mutex
	last *types.RunStats
}

// New creates an orchestrator.
func New(deps Deps, settings Settings) *Orchestrator {
	if settings.Concurrency < 1 {
		settings.Concurrency = 1
	}
	if settings.MaxRunErrors <= 0 {
		settings.MaxRunErrors = DefaultMaxRunErrors
	}
	return &Orchestrator{
		deps:     deps,
		settings: settings,
		log:      logger.OrDefault(deps.Logger),
		now:      time.Now,
	}
}

// LastStats returns the statistics of the most recent completed run, or nil.
func (o *Orchestrator) LastStats() *types.RunStats {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.last
}

// emitProgress calls the progress callback if configured
func emitProgress(opts *RunOptions, stage, company, message string, content any) {
	if opts.OnProgress != nil {
		opts.OnProgress(ProgressEvent{
			Stage:   stage,
			Company: company,
			Message: message,
			Content: content,
		})
	}
}

// target is one FetchPostings call.
type target struct {
	adapter sources.Adapter
	company types.CompanySource
}

// Run executes one bounded ingestion batch. Per-company failures are recorded
// in the returned stats; only setup failures and identity conflicts return
// an error.
func (o *Orchestrator) Run(ctx context.Context, opts RunOptions) (*types.RunStats, error) {
	start := o.now()
	stats := &types.RunStats{DryRun: opts.DryRun, Errors: []string{}}
	rec := &recorder{stats: stats, max: o.settings.MaxRunErrors}

	var lease runlock.Lease
	if !opts.DryRun && o.deps.Locker != nil {
		var err error
		lease, err = o.deps.Locker.TryAcquire(ctx, runlock.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to start run: %w", err)
		}
		defer func() {
			if err := lease.Release(context.WithoutCancel(ctx)); err != nil {
				o.log.Warn("failed to release run lock", "error", err)
			}
		}()
	}

	var runID uuid.UUID
	if !opts.DryRun && o.deps.Runs != nil {
		trigger := opts.Trigger
		if trigger == "" {
			trigger = "cli"
		}
		id, err := o.deps.Runs.CreateIngestRun(ctx, trigger, opts.DryRun)
		if err != nil {
			return nil, fmt.Errorf("failed to start run: %w", err)
		}
		runID = id
	}

	stats, err := o.execute(ctx, opts, rec, lease != nil)
	stats.DurationMs = o.now().Sub(start).Milliseconds()

	if runID != uuid.Nil {
		status := db.RunStatusCompleted
		if err != nil {
			status = db.RunStatusFailed
		}
		if cerr := o.deps.Runs.CompleteIngestRun(context.WithoutCancel(ctx), runID, status, stats); cerr != nil {
			o.log.Error("failed to record run completion", "run_id", runID, "error", cerr)
		}
	}

	if err != nil {
		o.log.Error("ingestion run aborted", "error", err, "duration_ms", stats.DurationMs)
		return stats, err
	}

	o.mu.Lock()
	o.last = stats
	o.mu.Unlock()

	emitProgress(&opts, StageComplete, "", "Run complete", stats)
	o.log.Info("ingestion run complete",
		"companies", stats.CompaniesProcessed,
		"failed", stats.CompaniesFailed,
		"found", stats.PostingsFound,
		"created", stats.PostingsCreated,
		"updated", stats.PostingsUpdated,
		"skipped", stats.PostingsSkipped,
		"duration_ms", stats.DurationMs,
		"dry_run", opts.DryRun)
	if opts.Verbose && o.deps.Printer != nil {
		o.deps.Printer.PrintRunStats(stats)
	}
	return stats, nil
}

func (o *Orchestrator) execute(ctx context.Context, opts RunOptions, rec *recorder, holdsLock bool) (*types.RunStats, error) {
	targets, err := o.enumerate(ctx, opts)
	if err != nil {
		return rec.stats, err
	}
	emitProgress(&opts, StageEnumerate, "", fmt.Sprintf("Processing %d companies", len(targets)), nil)

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(o.settings.Concurrency)
	for _, t := range targets {
		g.Go(func() error {
			return o.processCompany(gCtx, opts, t, rec)
		})
	}
	if err := g.Wait(); err != nil {
		return rec.stats, err
	}

	if opts.RunCleanup && o.deps.Cleanup != nil {
		emitProgress(&opts, StageCleanup, "", "Running cleanup", nil)
		result, err := o.deps.Cleanup.Run(ctx, cleanup.Options{
			StaleDays: opts.StaleDays,
			DryRun:    opts.DryRun,
			SkipLock:  holdsLock,
		})
		if err != nil {
			rec.addError(fmt.Sprintf("cleanup: %v", err))
		} else {
			rec.stats.Cleanup = result
		}
	}

	if opts.RunGeocode && !opts.DryRun && o.deps.Geocoder != nil {
		emitProgress(&opts, StageGeocode, "", "Running geocoder", nil)
		result, err := o.deps.Geocoder.Run(ctx)
		if result != nil {
			rec.stats.Geocode = result
		}
		if err != nil {
			rec.addError(fmt.Sprintf("geocode: %v", err))
		}
	}

	return rec.stats, nil
}

// enumerate lists the companies to process across all selected adapters.
func (o *Orchestrator) enumerate(ctx context.Context, opts RunOptions) ([]target, error) {
	filter := sources.CompanyFilter{Platform: opts.Platform, Company: opts.Company}

	var targets []target
	for _, adapter := range o.deps.Registry.Adapters() {
		if opts.Platform != "" && adapter.Platform() != opts.Platform {
			continue
		}
		companies, err := adapter.ListCompanies(ctx, o.deps.Companies, filter)
		if err != nil {
			return nil, fmt.Errorf("failed to list %s companies: %w", adapter.Platform(), err)
		}
		for _, c := range companies {
			targets = append(targets, target{adapter: adapter, company: c})
		}
	}

	if opts.MaxCompanies > 0 && len(targets) > opts.MaxCompanies {
		targets = targets[:opts.MaxCompanies]
	}
	return targets, nil
}

// processCompany fetches and upserts one company's postings. It returns an
// error only for failures that must abort the whole run.
func (o *Orchestrator) processCompany(ctx context.Context, opts RunOptions, t target, rec *recorder) (err error) {
	name := t.company.CompanyName
	log := o.log.With("company", name, "platform", t.company.Platform)

	// Postings written before a panic stay counted; the rest are skipped.
	var c companyCounts
	defer func() {
		if r := recover(); r != nil {
			log.Error("company processing panicked", "panic", r, "stack", string(debug.Stack()))
			c.skipped = c.found - c.created - c.updated
			rec.companyFailed(c, fmt.Sprintf("%s: panic: %v", name, r))
			err = nil
		}
	}()

	emitProgress(&opts, StageCompany, name, "Fetching postings", nil)
	raws, err := t.adapter.FetchPostings(ctx, t.company)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Warn("failed to fetch postings", "error", err)
		rec.companyFailed(companyCounts{}, fmt.Sprintf("%s: %v", name, err))
		if opts.Verbose && o.deps.Printer != nil {
			o.deps.Printer.PrintCompanyResult(t.company, 0, 0, 0, 0, err)
		}
		return nil
	}

	c.found = len(raws)
	now := o.now()
	for _, raw := range raws {
		posting, err := normalize.Normalize(raw, now)
		if err != nil {
			log.Debug("skipping posting", "error", err)
			c.skipped++
			rec.addError(fmt.Sprintf("%s: %v", name, err))
			continue
		}

		outcome, err := o.deps.Upserter.Upsert(ctx, posting, opts.DryRun)
		if err != nil {
			var conflict *dedup.IdentityConflictError
			if errors.As(err, &conflict) {
				return fmt.Errorf("aborting run: %w", err)
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Warn("failed to upsert posting", "external_id", posting.ExternalID, "error", err)
			c.skipped++
			rec.addError(fmt.Sprintf("%s: %v", name, err))
			continue
		}

		switch {
		case outcome.Created:
			c.created++
		case outcome.Updated:
			c.updated++
		}
		if outcome.Reclassified {
			c.reclassified++
		}
		if opts.Verbose && opts.DryRun && o.deps.Printer != nil {
			o.deps.Printer.PrintClassification(posting.Title, &outcome.Classification)
		}
	}

	rec.companyDone(c)
	log.Info("company processed",
		"found", c.found, "created", c.created, "updated", c.updated, "skipped", c.skipped)
	emitProgress(&opts, StageCompany, name, "Company processed", c.summary())
	if opts.Verbose && o.deps.Printer != nil {
		o.deps.Printer.PrintCompanyResult(t.company, c.found, c.created, c.updated, c.skipped, nil)
	}
	return nil
}
