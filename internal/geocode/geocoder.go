// Package geocode resolves posting locations to coordinates in two passes:
// a copy pass that reuses coordinates already in the catalog, and a resolve
// pass that calls an external API under a strict rate limit and time budget.
package geocode

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/jonathan/job-ingest/internal/db"
	"github.com/jonathan/job-ingest/internal/logger"
	"github.com/jonathan/job-ingest/internal/types"
)

// DefaultCallTimeout bounds a single API call.
const DefaultCallTimeout = 5 * time.Second

// placeholderLocations never reach the API.
var placeholderLocations = []string{
	"remote", "anywhere", "worldwide", "global", "various", "various locations",
	"multiple locations", "flexible", "n/a", "na", "tbd", "remote - us", "remote, us",
	"us remote", "remote (us)", "home based", "work from home",
}

// Store is the catalog surface used by the geocoder.
type Store interface {
	CopyKnownCoordinates(ctx context.Context) (int, error)
	PendingLocations(ctx context.Context, skip []string) ([]db.PendingLocation, error)
	ApplyCoordinates(ctx context.Context, location string, c db.Coordinates) (int, error)
}

// Resolver looks up one location.
type Resolver interface {
	Lookup(ctx context.Context, location string) (*db.Coordinates, error)
}

// Options configures pacing. Zero values fall back to package defaults.
type Options struct {
	Interval    time.Duration // minimum gap between API calls; 0 disables pacing
	Budget      time.Duration // wall-clock budget for the resolve pass; 0 is unlimited
	CallTimeout time.Duration
	Logger      *logger.Logger
}

// Geocoder runs the copy and resolve passes.
type Geocoder struct {
	store       Store
	resolver    Resolver
	interval    time.Duration
	budget      time.Duration
	callTimeout time.Duration
	log         *logger.Logger
	now         func() time.Time
}

// New creates a geocoder.
func New(store Store, resolver Resolver, opts Options) *Geocoder {
	callTimeout := opts.CallTimeout
	if callTimeout <= 0 {
		callTimeout = DefaultCallTimeout
	}
	return &Geocoder{
		store:       store,
		resolver:    resolver,
		interval:    opts.Interval,
		budget:      opts.Budget,
		callTimeout: callTimeout,
		log:         logger.OrDefault(opts.Logger),
		now:         time.Now,
	}
}

// Run executes the copy pass to completion, then the resolve pass until the
// pending list or the budget runs out. Failed lookups are counted and left
// for a later run.
func (g *Geocoder) Run(ctx context.Context) (*types.GeocodeResult, error) {
	result := &types.GeocodeResult{}

	copied, err := g.store.CopyKnownCoordinates(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to run copy pass: %w", err)
	}
	result.Copied = copied
	g.log.Info("geocode copy pass complete", "copied", copied)

	pending, err := g.store.PendingLocations(ctx, placeholderLocations)
	if err != nil {
		return result, fmt.Errorf("failed to list pending locations: %w", err)
	}

	if err := g.resolve(ctx, pending, result); err != nil {
		return result, err
	}

	g.log.Info("geocode resolve pass complete",
		"geocoded", result.Geocoded, "failed", result.Failed, "remaining", result.Remaining)
	return result, nil
}

func (g *Geocoder) resolve(ctx context.Context, pending []db.PendingLocation, result *types.GeocodeResult) error {
	limit := rate.Inf
	if g.interval > 0 {
		limit = rate.Every(g.interval)
	}
	limiter := rate.NewLimiter(limit, 1)

	var deadline time.Time
	if g.budget > 0 {
		deadline = g.now().Add(g.budget)
	}

	for i, loc := range pending {
		r := limiter.Reserve()
		delay := r.Delay()

		if !deadline.IsZero() && g.now().Add(delay).Add(g.callTimeout).After(deadline) {
			r.Cancel()
			result.Remaining = len(pending) - i
			g.log.Info("geocode budget exhausted", "remaining", result.Remaining)
			return nil
		}

		if delay > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				r.Cancel()
				result.Remaining = len(pending) - i
				return ctx.Err()
			case <-timer.C:
			}
		}

		coords, err := g.lookup(ctx, loc.Location)
		if err != nil {
			result.Failed++
			var noMatch *NoMatchError
			if errors.As(err, &noMatch) {
				g.log.Debug("no geocode match", "location", loc.Location)
			} else {
				g.log.Warn("geocode lookup failed", "location", loc.Location, "error", err)
			}
			continue
		}

		n, err := g.store.ApplyCoordinates(ctx, loc.Location, *coords)
		if err != nil {
			result.Failed++
			g.log.Error("failed to store coordinates", "location", loc.Location, "error", err)
			continue
		}
		result.Geocoded += n
	}
	return nil
}

func (g *Geocoder) lookup(ctx context.Context, location string) (*db.Coordinates, error) {
	callCtx, cancel := context.WithTimeout(ctx, g.callTimeout)
	defer cancel()
	return g.resolver.Lookup(callCtx, location)
}

// IsPlaceholder reports whether a location string is one the geocoder never sends to the API.
func IsPlaceholder(location string) bool {
	loc := strings.ToLower(strings.TrimSpace(location))
	if loc == "" {
		return true
	}
	for _, p := range placeholderLocations {
		if loc == p {
			return true
		}
	}
	return false
}
