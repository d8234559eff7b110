// Package cleanup deactivates postings that ingestion has not seen recently.
package cleanup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonathan/job-ingest/internal/logger"
	"github.com/jonathan/job-ingest/internal/runlock"
	"github.com/jonathan/job-ingest/internal/types"
)

// DefaultStaleDays is the staleness threshold used when none is configured.
const DefaultStaleDays = 7

// Store is the catalog surface used by the sweeper.
type Store interface {
	CountActive(ctx context.Context) (int, error)
	CountStale(ctx context.Context, cutoff time.Time) (int, error)
	MarkStale(ctx context.Context, cutoff time.Time) (int, error)
}

// Options configures a sweep.
type Options struct {
	StaleDays int
	DryRun    bool
	// SkipLock is set by callers that already hold the run lock.
	SkipLock bool
}

// Sweeper flips long-unseen postings to inactive. It is the only writer of
// is_active = false.
type Sweeper struct {
	store  Store
	locker runlock.Locker
	log    *logger.Logger
	now    func() time.Time
}

// New creates a sweeper. locker may be nil for callers that never run
// concurrently with ingestion.
func New(store Store, locker runlock.Locker, log *logger.Logger) *Sweeper {
	return &Sweeper{store: store, locker: locker, log: logger.OrDefault(log), now: time.Now}
}

// Cutoff returns the last_seen_at bound: postings seen before it are stale.
func Cutoff(now time.Time, staleDays int) time.Time {
	return now.Add(-time.Duration(staleDays) * 24 * time.Hour)
}

// Run sweeps once. A dry run counts without writing and skips the lock.
func (s *Sweeper) Run(ctx context.Context, opts Options) (*types.CleanupResult, error) {
	staleDays := opts.StaleDays
	if staleDays <= 0 {
		staleDays = DefaultStaleDays
	}

	if !opts.DryRun && !opts.SkipLock && s.locker != nil {
		lease, err := s.locker.TryAcquire(ctx, runlock.Name)
		if err != nil {
			if errors.Is(err, runlock.ErrLocked) {
				return nil, fmt.Errorf("cleanup skipped: %w", err)
			}
			return nil, err
		}
		defer func() {
			if err := lease.Release(context.WithoutCancel(ctx)); err != nil {
				s.log.Warn("failed to release run lock", "error", err)
			}
		}()
	}

	cutoff := Cutoff(s.now(), staleDays)
	result := &types.CleanupResult{DryRun: opts.DryRun, StaleDaysThreshold: staleDays}

	checked, err := s.store.CountActive(ctx)
	if err != nil {
		return nil, err
	}
	result.PostingsChecked = checked

	if opts.DryRun {
		stale, err := s.store.CountStale(ctx, cutoff)
		if err != nil {
			return nil, err
		}
		result.PostingsMarkedInactive = stale
	} else {
		marked, err := s.store.MarkStale(ctx, cutoff)
		if err != nil {
			return nil, err
		}
		result.PostingsMarkedInactive = marked
	}

	s.log.Info("cleanup complete",
		"checked", result.PostingsChecked,
		"marked_inactive", result.PostingsMarkedInactive,
		"stale_days", staleDays,
		"dry_run", opts.DryRun)
	return result, nil
}
