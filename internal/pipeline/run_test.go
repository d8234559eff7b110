package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/job-ingest/internal/cleanup"
	"github.com/jonathan/job-ingest/internal/dedup"
	"github.com/jonathan/job-ingest/internal/logger"
	"github.com/jonathan/job-ingest/internal/runlock"
	"github.com/jonathan/job-ingest/internal/sources"
	"github.com/jonathan/job-ingest/internal/types"
)

// fakeAdapter serves canned postings per company name.
type fakeAdapter struct {
	platform  types.Platform
	kind      sources.Kind
	companies []types.CompanySource
	postings  map[string][]types.RawPosting
	errs      map[string]error
	panics    map[string]bool

	mu      sync.Mutex
	fetched []string
}

func (a *fakeAdapter) Platform() types.Platform { return a.platform }
func (a *fakeAdapter) Kind() sources.Kind       { return a.kind }

func (a *fakeAdapter) ListCompanies(_ context.Context, _ sources.CompanyLister, filter sources.CompanyFilter) ([]types.CompanySource, error) {
	var out []types.CompanySource
	for _, c := range a.companies {
		if filter.Matches(c) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (a *fakeAdapter) FetchPostings(_ context.Context, company types.CompanySource) ([]types.RawPosting, error) {
	a.mu.Lock()
	a.fetched = append(a.fetched, company.CompanyName)
	a.mu.Unlock()
	if a.panics[company.CompanyName] {
		panic("unexpected payload")
	}
	if err := a.errs[company.CompanyName]; err != nil {
		return nil, err
	}
	return a.postings[company.CompanyName], nil
}

func (a *fakeAdapter) fetchCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.fetched)
}

type listerFunc func(ctx context.Context, filter sources.CompanyFilter) ([]types.CompanySource, error)

func (f listerFunc) ListCompanySources(ctx context.Context, filter sources.CompanyFilter) ([]types.CompanySource, error) {
	return f(ctx, filter)
}

// fakeUpserter tracks identities in memory.
type fakeUpserter struct {
	mu      sync.Mutex
	seen    map[string]bool
	dryRuns int
	err     error
}

func newFakeUpserter() *fakeUpserter {
	return &fakeUpserter{seen: map[string]bool{}}
}

func (u *fakeUpserter) Upsert(_ context.Context, p *types.NormalizedPosting, dryRun bool) (*dedup.Outcome, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.err != nil {
		return nil, u.err
	}
	if dryRun {
		u.dryRuns++
		return &dedup.Outcome{Created: true, Reclassified: true}, nil
	}
	key := string(p.Platform) + "/" + p.ExternalID
	if u.seen[key] {
		return &dedup.Outcome{Updated: true, PostingID: uuid.New()}, nil
	}
	u.seen[key] = true
	return &dedup.Outcome{Created: true, Reclassified: true, PostingID: uuid.New()}, nil
}

type fakeRuns struct {
	mu       sync.Mutex
	created  int
	statuses []string
}

func (r *fakeRuns) CreateIngestRun(context.Context, string, bool) (uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.created++
	return uuid.New(), nil
}

func (r *fakeRuns) CompleteIngestRun(_ context.Context, _ uuid.UUID, status string, _ any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, status)
	return nil
}

type fakeLocker struct {
	mu       sync.Mutex
	held     bool
	acquired int
}

type fakeLease struct{ l *fakeLocker }

func (f fakeLease) Release(context.Context) error {
	f.l.mu.Lock()
	defer f.l.mu.Unlock()
	f.l.held = false
	return nil
}

func (l *fakeLocker) TryAcquire(context.Context, string) (runlock.Lease, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held {
		return nil, runlock.ErrLocked
	}
	l.held = true
	l.acquired++
	return fakeLease{l: l}, nil
}

type fakeCleanup struct {
	opts  []cleanup.Options
	calls int
}

func (c *fakeCleanup) Run(_ context.Context, opts cleanup.Options) (*types.CleanupResult, error) {
	c.calls++
	c.opts = append(c.opts, opts)
	return &types.CleanupResult{PostingsChecked: 5, DryRun: opts.DryRun, StaleDaysThreshold: opts.StaleDays}, nil
}

type fakeGeocoder struct{ calls int }

func (g *fakeGeocoder) Run(context.Context) (*types.GeocodeResult, error) {
	g.calls++
	return &types.GeocodeResult{Copied: 1}, nil
}

func company(name string) types.CompanySource {
	return types.CompanySource{ID: uuid.New(), CompanyName: name, Platform: types.PlatformGreenhouse, Slug: name, IsActive: true}
}

func raw(id, title, companyName string) types.RawPosting {
	return types.RawPosting{
		Platform:   types.PlatformGreenhouse,
		ExternalID: id,
		Title:      title,
		Company:    companyName,
		Location:   "Austin, TX",
	}
}

func newOrchestrator(adapter *fakeAdapter, upserter Upserter, deps Deps, settings Settings) *Orchestrator {
	deps.Registry = sources.NewRegistry(adapter)
	deps.Companies = listerFunc(func(context.Context, sources.CompanyFilter) ([]types.CompanySource, error) { return nil, nil })
	deps.Upserter = upserter
	deps.Logger = logger.Discard()
	return New(deps, settings)
}

func TestRun_PartialFailureIsolation(t *testing.T) {
	adapter := &fakeAdapter{
		platform:  types.PlatformGreenhouse,
		kind:      sources.KindATS,
		companies: []types.CompanySource{company("A"), company("B")},
		errs:      map[string]error{"A": errors.New("HTTP status 500")},
		postings: map[string][]types.RawPosting{
			"B": {raw("b-1", "Engineer", "B"), raw("b-2", "Designer", "B")},
		},
	}
	o := newOrchestrator(adapter, newFakeUpserter(), Deps{}, Settings{})

	stats, err := o.Run(context.Background(), RunOptions{})
	require.NoError(t, err)

	assert.Equal(t, 2, stats.CompaniesProcessed)
	assert.Equal(t, 1, stats.CompaniesFailed)
	assert.Equal(t, 2, stats.PostingsFound)
	assert.Equal(t, 2, stats.PostingsCreated)
	require.Len(t, stats.Errors, 1)
	assert.Contains(t, stats.Errors[0], "A: HTTP status 500")
}

func TestRun_PanicIsRecovered(t *testing.T) {
	adapter := &fakeAdapter{
		platform:  types.PlatformGreenhouse,
		kind:      sources.KindATS,
		companies: []types.CompanySource{company("A"), company("B")},
		panics:    map[string]bool{"A": true},
		postings:  map[string][]types.RawPosting{"B": {raw("b-1", "Engineer", "B")}},
	}
	o := newOrchestrator(adapter, newFakeUpserter(), Deps{}, Settings{Concurrency: 2})

	stats, err := o.Run(context.Background(), RunOptions{})
	require.NoError(t, err)

	assert.Equal(t, 1, stats.CompaniesFailed)
	assert.Equal(t, 1, stats.PostingsCreated)
	require.Len(t, stats.Errors, 1)
	assert.Contains(t, stats.Errors[0], "panic: unexpected payload")
}

// panickingUpserter panics on one external ID and delegates the rest.
type panickingUpserter struct {
	*fakeUpserter
	panicOn string
}

func (u *panickingUpserter) Upsert(ctx context.Context, p *types.NormalizedPosting, dryRun bool) (*dedup.Outcome, error) {
	if p.ExternalID == u.panicOn {
		panic("nil classification")
	}
	return u.fakeUpserter.Upsert(ctx, p, dryRun)
}

func TestRun_PanicKeepsPartialCounts(t *testing.T) {
	adapter := &fakeAdapter{
		platform:  types.PlatformGreenhouse,
		kind:      sources.KindATS,
		companies: []types.CompanySource{company("A")},
		postings: map[string][]types.RawPosting{
			"A": {raw("a-1", "Engineer", "A"), raw("a-2", "Designer", "A"), raw("a-3", "Analyst", "A"), raw("a-4", "Writer", "A")},
		},
	}
	upserter := &panickingUpserter{fakeUpserter: newFakeUpserter(), panicOn: "a-3"}
	o := newOrchestrator(adapter, upserter, Deps{}, Settings{})

	stats, err := o.Run(context.Background(), RunOptions{})
	require.NoError(t, err)

	assert.Equal(t, 1, stats.CompaniesProcessed)
	assert.Equal(t, 1, stats.CompaniesFailed)
	assert.Equal(t, 4, stats.PostingsFound)
	assert.Equal(t, 2, stats.PostingsCreated)
	assert.Equal(t, 2, stats.PostingsReclassified)
	assert.Equal(t, 2, stats.PostingsSkipped)
	assert.Len(t, upserter.seen, 2)
	require.Len(t, stats.Errors, 1)
	assert.Contains(t, stats.Errors[0], "A: panic: nil classification")
}

func TestRun_ErrorListIsCapped(t *testing.T) {
	adapter := &fakeAdapter{platform: types.PlatformGreenhouse, kind: sources.KindATS, errs: map[string]error{}}
	for i := 0; i < 5; i++ {
		c := company(fmt.Sprintf("c%d", i))
		adapter.companies = append(adapter.companies, c)
		adapter.errs[c.CompanyName] = errors.New("timeout")
	}
	o := newOrchestrator(adapter, newFakeUpserter(), Deps{}, Settings{MaxRunErrors: 2})

	stats, err := o.Run(context.Background(), RunOptions{})
	require.NoError(t, err)

	assert.Len(t, stats.Errors, 2)
	assert.Equal(t, 3, stats.ErrorsTruncated)
	assert.Equal(t, 5, stats.CompaniesFailed)
}

func TestRun_MalformedPostingIsSkipped(t *testing.T) {
	adapter := &fakeAdapter{
		platform:  types.PlatformGreenhouse,
		kind:      sources.KindATS,
		companies: []types.CompanySource{company("A")},
		postings: map[string][]types.RawPosting{
			"A": {raw("a-1", "", "A"), raw("a-2", "Engineer", "A")},
		},
	}
	o := newOrchestrator(adapter, newFakeUpserter(), Deps{}, Settings{})

	stats, err := o.Run(context.Background(), RunOptions{})
	require.NoError(t, err)

	assert.Equal(t, 2, stats.PostingsFound)
	assert.Equal(t, 1, stats.PostingsSkipped)
	assert.Equal(t, 1, stats.PostingsCreated)
	assert.Zero(t, stats.CompaniesFailed)
}

func TestRun_IdentityConflictIsFatal(t *testing.T) {
	adapter := &fakeAdapter{
		platform:  types.PlatformGreenhouse,
		kind:      sources.KindATS,
		companies: []types.CompanySource{company("A")},
		postings:  map[string][]types.RawPosting{"A": {raw("a-1", "Engineer", "A")}},
	}
	upserter := newFakeUpserter()
	upserter.err = &dedup.IdentityConflictError{Platform: types.PlatformGreenhouse, ExternalID: "a-1", Cause: errors.New("23505")}
	runs := &fakeRuns{}
	o := newOrchestrator(adapter, upserter, Deps{Runs: runs}, Settings{})

	stats, err := o.Run(context.Background(), RunOptions{})
	require.Error(t, err)

	var conflict *dedup.IdentityConflictError
	assert.True(t, errors.As(err, &conflict))
	assert.NotNil(t, stats)
	assert.Equal(t, []string{"failed"}, runs.statuses)
	assert.Nil(t, o.LastStats())
}

func TestRun_SetupFailureAborts(t *testing.T) {
	adapter := &fakeAdapter{platform: types.PlatformGreenhouse, kind: sources.KindATS}
	o := newOrchestrator(adapter, newFakeUpserter(), Deps{}, Settings{})
	o.deps.Registry = sources.NewRegistry(&listingAdapter{fakeAdapter: adapter})
	o.deps.Companies = listerFunc(func(context.Context, sources.CompanyFilter) ([]types.CompanySource, error) {
		return nil, errors.New("connection refused")
	})

	_, err := o.Run(context.Background(), RunOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

// listingAdapter enumerates through the real lister like the ATS adapters do.
type listingAdapter struct {
	*fakeAdapter
}

func (a *listingAdapter) ListCompanies(ctx context.Context, lister sources.CompanyLister, filter sources.CompanyFilter) ([]types.CompanySource, error) {
	return lister.ListCompanySources(ctx, filter)
}

func TestRun_LockHeld(t *testing.T) {
	adapter := &fakeAdapter{
		platform:  types.PlatformGreenhouse,
		kind:      sources.KindATS,
		companies: []types.CompanySource{company("A")},
	}
	locker := &fakeLocker{held: true}
	o := newOrchestrator(adapter, newFakeUpserter(), Deps{Locker: locker}, Settings{})

	_, err := o.Run(context.Background(), RunOptions{})
	require.ErrorIs(t, err, runlock.ErrLocked)
	assert.Zero(t, adapter.fetchCount())
}

func TestRun_DryRunSuppressesWrites(t *testing.T) {
	adapter := &fakeAdapter{
		platform:  types.PlatformGreenhouse,
		kind:      sources.KindATS,
		companies: []types.CompanySource{company("A")},
		postings:  map[string][]types.RawPosting{"A": {raw("a-1", "Engineer", "A")}},
	}
	upserter := newFakeUpserter()
	runs := &fakeRuns{}
	locker := &fakeLocker{}
	geocoder := &fakeGeocoder{}
	sweeper := &fakeCleanup{}
	o := newOrchestrator(adapter, upserter, Deps{Runs: runs, Locker: locker, Geocoder: geocoder, Cleanup: sweeper}, Settings{})

	stats, err := o.Run(context.Background(), RunOptions{DryRun: true, RunCleanup: true, RunGeocode: true, StaleDays: 7})
	require.NoError(t, err)

	assert.True(t, stats.DryRun)
	assert.Equal(t, 1, upserter.dryRuns)
	assert.Empty(t, upserter.seen)
	assert.Zero(t, runs.created)
	assert.Zero(t, locker.acquired)
	assert.Zero(t, geocoder.calls)
	require.Len(t, sweeper.opts, 1)
	assert.True(t, sweeper.opts[0].DryRun)
}

func TestRun_ChainsCleanupAndGeocodeUnderLock(t *testing.T) {
	adapter := &fakeAdapter{
		platform:  types.PlatformGreenhouse,
		kind:      sources.KindATS,
		companies: []types.CompanySource{company("A")},
		postings:  map[string][]types.RawPosting{"A": {raw("a-1", "Engineer", "A")}},
	}
	runs := &fakeRuns{}
	locker := &fakeLocker{}
	sweeper := &fakeCleanup{}
	geocoder := &fakeGeocoder{}
	o := newOrchestrator(adapter, newFakeUpserter(), Deps{Runs: runs, Locker: locker, Cleanup: sweeper, Geocoder: geocoder}, Settings{})

	stats, err := o.Run(context.Background(), RunOptions{RunCleanup: true, RunGeocode: true, StaleDays: 7})
	require.NoError(t, err)

	require.Len(t, sweeper.opts, 1)
	assert.True(t, sweeper.opts[0].SkipLock)
	assert.Equal(t, 7, sweeper.opts[0].StaleDays)
	require.NotNil(t, stats.Cleanup)
	require.NotNil(t, stats.Geocode)
	assert.Equal(t, 1, geocoder.calls)
	assert.Equal(t, 1, locker.acquired)
	assert.False(t, locker.held)
	assert.Equal(t, []string{"completed"}, runs.statuses)
	assert.Same(t, stats, o.LastStats())
}

func TestRun_RescrapeUpdates(t *testing.T) {
	adapter := &fakeAdapter{
		platform:  types.PlatformGreenhouse,
		kind:      sources.KindATS,
		companies: []types.CompanySource{company("A")},
		postings:  map[string][]types.RawPosting{"A": {raw("a-1", "Engineer", "A")}},
	}
	upserter := newFakeUpserter()
	o := newOrchestrator(adapter, upserter, Deps{}, Settings{})

	_, err := o.Run(context.Background(), RunOptions{})
	require.NoError(t, err)
	stats, err := o.Run(context.Background(), RunOptions{})
	require.NoError(t, err)

	assert.Zero(t, stats.PostingsCreated)
	assert.Equal(t, 1, stats.PostingsUpdated)
	assert.Len(t, upserter.seen, 1)
}

func TestRun_FiltersAndCaps(t *testing.T) {
	gh := &fakeAdapter{
		platform:  types.PlatformGreenhouse,
		kind:      sources.KindATS,
		companies: []types.CompanySource{company("A"), company("B"), company("C")},
	}
	lever := &fakeAdapter{
		platform:  types.PlatformLever,
		kind:      sources.KindATS,
		companies: []types.CompanySource{{CompanyName: "L", Platform: types.PlatformLever, Slug: "l"}},
	}
	o := New(Deps{
		Registry:  sources.NewRegistry(gh, lever),
		Companies: listerFunc(func(context.Context, sources.CompanyFilter) ([]types.CompanySource, error) { return nil, nil }),
		Upserter:  newFakeUpserter(),
		Logger:    logger.Discard(),
	}, Settings{})

	t.Run("platform", func(t *testing.T) {
		stats, err := o.Run(context.Background(), RunOptions{Platform: types.PlatformLever})
		require.NoError(t, err)
		assert.Equal(t, 1, stats.CompaniesProcessed)
	})

	t.Run("company", func(t *testing.T) {
		stats, err := o.Run(context.Background(), RunOptions{Company: "b"})
		require.NoError(t, err)
		assert.Equal(t, 1, stats.CompaniesProcessed)
	})

	t.Run("max companies", func(t *testing.T) {
		stats, err := o.Run(context.Background(), RunOptions{MaxCompanies: 2})
		require.NoError(t, err)
		assert.Equal(t, 2, stats.CompaniesProcessed)
	})
}

func TestRun_ConcurrentCompanies(t *testing.T) {
	adapter := &fakeAdapter{platform: types.PlatformGreenhouse, kind: sources.KindATS, postings: map[string][]types.RawPosting{}}
	for i := 0; i < 20; i++ {
		name := fmt.Sprintf("c%02d", i)
		adapter.companies = append(adapter.companies, company(name))
		adapter.postings[name] = []types.RawPosting{raw(name+"-1", "Engineer", name), raw(name+"-2", "Analyst", name)}
	}
	o := newOrchestrator(adapter, newFakeUpserter(), Deps{}, Settings{Concurrency: 4})

	stats, err := o.Run(context.Background(), RunOptions{})
	require.NoError(t, err)
	assert.Equal(t, 20, stats.CompaniesProcessed)
	assert.Equal(t, 40, stats.PostingsCreated)
}

func TestRun_EmitsProgress(t *testing.T) {
	adapter := &fakeAdapter{
		platform:  types.PlatformGreenhouse,
		kind:      sources.KindATS,
		companies: []types.CompanySource{company("A")},
		postings:  map[string][]types.RawPosting{"A": {raw("a-1", "Engineer", "A")}},
	}
	o := newOrchestrator(adapter, newFakeUpserter(), Deps{}, Settings{})

	var stages []string
	_, err := o.Run(context.Background(), RunOptions{OnProgress: func(e ProgressEvent) {
		stages = append(stages, e.Stage)
	}})
	require.NoError(t, err)
	assert.Equal(t, []string{StageEnumerate, StageCompany, StageCompany, StageComplete}, stages)
}
