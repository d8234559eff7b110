// Package trending computes the windowed save-count signal at query time.
package trending

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/job-ingest/internal/db"
)

// Defaults match config.DefaultTrendingWindow and config.DefaultTrendingThreshold.
const (
	DefaultWindow    = 24 * time.Hour
	DefaultThreshold = 10
	defaultLimit     = 20
)

// Store reads save events.
type Store interface {
	SaveCount(ctx context.Context, postingID uuid.UUID, since time.Time) (int, error)
	TopSaved(ctx context.Context, since time.Time, minSaves, limit int) ([]db.TrendingPosting, error)
}

// Aggregator answers trending queries. Nothing is materialized.
type Aggregator struct {
	store     Store
	window    time.Duration
	threshold int
	now       func() time.Time
}

// New creates an aggregator. Non-positive values use the defaults.
func New(store Store, window time.Duration, threshold int) *Aggregator {
	if window <= 0 {
		window = DefaultWindow
	}
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Aggregator{store: store, window: window, threshold: threshold, now: time.Now}
}

// Threshold returns the inclusive save count that makes a posting trending.
func (a *Aggregator) Threshold() int { return a.threshold }

// IsTrending reports whether the posting has at least threshold saves in the window.
func (a *Aggregator) IsTrending(ctx context.Context, postingID uuid.UUID) (bool, error) {
	n, err := a.store.SaveCount(ctx, postingID, a.now().Add(-a.window))
	if err != nil {
		return false, err
	}
	return n >= a.threshold, nil
}

// List returns trending postings, most saved first.
func (a *Aggregator) List(ctx context.Context, limit int) ([]db.TrendingPosting, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	return a.store.TopSaved(ctx, a.now().Add(-a.window), a.threshold, limit)
}
