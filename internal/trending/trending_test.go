package trending

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/job-ingest/internal/db"
)

type saveEvent struct {
	postingID uuid.UUID
	at        time.Time
}

type fakeStore struct {
	events []saveEvent
}

func (s *fakeStore) SaveCount(_ context.Context, postingID uuid.UUID, since time.Time) (int, error) {
	n := 0
	for _, e := range s.events {
		if e.postingID == postingID && !e.at.Before(since) {
			n++
		}
	}
	return n, nil
}

func (s *fakeStore) TopSaved(_ context.Context, since time.Time, minSaves, limit int) ([]db.TrendingPosting, error) {
	counts := map[uuid.UUID]int{}
	for _, e := range s.events {
		if !e.at.Before(since) {
			counts[e.postingID]++
		}
	}
	var out []db.TrendingPosting
	for id, n := range counts {
		if n >= minSaves {
			out = append(out, db.TrendingPosting{PostingID: id, SaveCount: n})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SaveCount > out[j].SaveCount })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

var now = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func saves(id uuid.UUID, n int, age time.Duration) []saveEvent {
	out := make([]saveEvent, n)
	for i := range out {
		out[i] = saveEvent{postingID: id, at: now.Add(-age)}
	}
	return out
}

func newAggregator(store Store) *Aggregator {
	a := New(store, 24*time.Hour, 10)
	a.now = func() time.Time { return now }
	return a
}

func TestIsTrending_ThresholdIsInclusive(t *testing.T) {
	ten, nine := uuid.New(), uuid.New()
	store := &fakeStore{}
	store.events = append(store.events, saves(ten, 10, time.Hour)...)
	store.events = append(store.events, saves(nine, 9, time.Hour)...)
	a := newAggregator(store)

	trending, err := a.IsTrending(context.Background(), ten)
	require.NoError(t, err)
	assert.True(t, trending)

	trending, err = a.IsTrending(context.Background(), nine)
	require.NoError(t, err)
	assert.False(t, trending)
}

func TestIsTrending_WindowExcludesOldSaves(t *testing.T) {
	id := uuid.New()
	store := &fakeStore{}
	store.events = append(store.events, saves(id, 5, time.Hour)...)
	store.events = append(store.events, saves(id, 5, 25*time.Hour)...)

	trending, err := newAggregator(store).IsTrending(context.Background(), id)
	require.NoError(t, err)
	assert.False(t, trending)
}

func TestList_OrderedByCount(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	store := &fakeStore{}
	store.events = append(store.events, saves(a, 12, time.Hour)...)
	store.events = append(store.events, saves(b, 30, time.Hour)...)
	store.events = append(store.events, saves(c, 3, time.Hour)...)

	list, err := newAggregator(store).List(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, b, list[0].PostingID)
	assert.Equal(t, a, list[1].PostingID)
}

func TestNew_Defaults(t *testing.T) {
	a := New(&fakeStore{}, 0, 0)
	assert.Equal(t, DefaultWindow, a.window)
	assert.Equal(t, DefaultThreshold, a.Threshold())
}
