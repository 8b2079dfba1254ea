package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"dsty-finder/internal/catalog"
	"dsty-finder/internal/criteria"
	"dsty-finder/internal/database"
	"dsty-finder/internal/models"
	"dsty-finder/internal/normalize"
	"dsty-finder/internal/score"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	records []normalize.RawRecord
	err     error

	started chan struct{} // closed when FetchRaw begins, if set
	release chan struct{} // FetchRaw blocks on this, if set
}

func (s *fakeSource) Name() string { return "fake" }

func (s *fakeSource) FetchRaw(_ context.Context) ([]normalize.RawRecord, error) {
	if s.started != nil {
		close(s.started)
		s.started = nil
	}
	if s.release != nil {
		<-s.release
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.records, nil
}

type fakeStore struct {
	mu        sync.Mutex
	listings  map[string]models.Listing
	summaries []*models.RunSummary
	failIDs   map[string]bool
	upserts   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		listings: make(map[string]models.Listing),
		failIDs:  make(map[string]bool),
	}
}

func (s *fakeStore) Upsert(l *models.Listing) (database.UpsertResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upserts++

	if s.failIDs[l.ID] {
		return "", errors.New("disk full")
	}

	prev, ok := s.listings[l.ID]
	s.listings[l.ID] = *l
	switch {
	case !ok:
		return database.UpsertInserted, nil
	case prev.PriceJPY == l.PriceJPY && prev.Score == l.Score:
		return database.UpsertUnchanged, nil
	default:
		return database.UpsertUpdated, nil
	}
}

func (s *fakeStore) ListActive(limit int) ([]models.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Listing
	for _, l := range s.listings {
		if l.Active {
			out = append(out, l)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *fakeStore) GetByID(id string) (*models.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.listings[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return &l, nil
}

func (s *fakeStore) Stats(_, _ int) (*database.Stats, error) {
	return &database.Stats{}, nil
}

func (s *fakeStore) SaveRunSummary(sum *models.RunSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summaries = append(s.summaries, sum)
	return nil
}

func (s *fakeStore) Close() error { return nil }

type fakeIndexer struct {
	mu      sync.Mutex
	indexed []models.Listing
	err     error
}

func (f *fakeIndexer) IndexListings(listings []models.Listing) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.indexed = append(f.indexed, listings...)
	return f.err
}

func goodRecord(n int) normalize.RawRecord {
	return normalize.RawRecord{
		"source": "fake",
		"url":    fmt.Sprintf("https://suumo.jp/chintai/jnc_%08d/", n),
		"title":  fmt.Sprintf("テスト物件 %d 3LDK", n),
		"price":  "28.5万円",
		"rooms":  "3LDK",
		"walk":   "徒歩5分",
	}
}

func badRecord() normalize.RawRecord {
	return normalize.RawRecord{"source": "fake", "title": "URLなし", "price": "28万"}
}

func newOrchestrator(src *fakeSource, st database.Store) *Orchestrator {
	scorer := score.New(catalog.Default(), criteria.FamilyProfile())
	return New(src, normalize.New(), scorer, st)
}

func TestRefreshPersistsScoredListings(t *testing.T) {
	src := &fakeSource{records: []normalize.RawRecord{goodRecord(1), goodRecord(2)}}
	st := newFakeStore()

	result, err := newOrchestrator(src, st).Refresh(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, result.Fetched)
	assert.Equal(t, 2, result.Normalized)
	assert.Equal(t, 0, result.Rejected)
	assert.Equal(t, 2, result.New)
	assert.Equal(t, 0, result.PersistErrors)

	listings, err := st.ListActive(0)
	require.NoError(t, err)
	require.Len(t, listings, 2)
	for _, l := range listings {
		assert.Greater(t, l.Score, 0)
		assert.NotEmpty(t, l.Reasons)
	}
}

func TestRefreshCountsRejects(t *testing.T) {
	src := &fakeSource{records: []normalize.RawRecord{goodRecord(1), badRecord()}}
	st := newFakeStore()

	result, err := newOrchestrator(src, st).Refresh(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, result.Fetched)
	assert.Equal(t, 1, result.Normalized)
	assert.Equal(t, 1, result.Rejected)
	require.Len(t, result.RejectReasons, 1)
	assert.Contains(t, result.RejectReasons[0], "missing url")
}

func TestRefreshCapsRejectReasons(t *testing.T) {
	var records []normalize.RawRecord
	for i := 0; i < 8; i++ {
		records = append(records, badRecord())
	}
	src := &fakeSource{records: records}
	st := newFakeStore()

	result, err := newOrchestrator(src, st).Refresh(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 8, result.Rejected)
	assert.Len(t, result.RejectReasons, maxRejectReasonsKept)
}

func TestRefreshSecondRunIsUnchanged(t *testing.T) {
	src := &fakeSource{records: []normalize.RawRecord{goodRecord(1), goodRecord(2)}}
	st := newFakeStore()
	o := newOrchestrator(src, st)

	_, err := o.Refresh(context.Background())
	require.NoError(t, err)

	result, err := o.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, result.New)
	assert.Equal(t, 2, result.Unchanged)
}

func TestRefreshDetectsUpdates(t *testing.T) {
	src := &fakeSource{records: []normalize.RawRecord{goodRecord(1)}}
	st := newFakeStore()
	o := newOrchestrator(src, st)

	_, err := o.Refresh(context.Background())
	require.NoError(t, err)

	// The landlord raised the rent.
	src.records[0]["price"] = "39.5万円"
	result, err := o.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Updated)
	assert.Equal(t, 0, result.Unchanged)
}

func TestRefreshAbortsOnFetchError(t *testing.T) {
	src := &fakeSource{err: errors.New("upstream down")}
	st := newFakeStore()

	result, err := newOrchestrator(src, st).Refresh(context.Background())
	assert.Nil(t, result)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch from fake")

	assert.Equal(t, 0, st.upserts)
	assert.Empty(t, st.summaries)
}

func TestRefreshCountsPersistErrors(t *testing.T) {
	src := &fakeSource{records: []normalize.RawRecord{goodRecord(1), goodRecord(2)}}
	st := newFakeStore()

	// Pre-compute the id of the first record to make its upsert fail.
	l, reject := normalize.New().Normalize(goodRecord(1))
	require.Nil(t, reject)
	st.failIDs[l.ID] = true

	result, err := newOrchestrator(src, st).Refresh(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.PersistErrors)
	assert.Equal(t, 1, result.New)
}

func TestRefreshRejectsConcurrentRuns(t *testing.T) {
	src := &fakeSource{
		records: []normalize.RawRecord{goodRecord(1)},
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	st := newFakeStore()
	o := newOrchestrator(src, st)

	started := src.started
	done := make(chan error, 1)
	go func() {
		_, err := o.Refresh(context.Background())
		done <- err
	}()

	<-started
	_, err := o.Refresh(context.Background())
	assert.ErrorIs(t, err, ErrRefreshInProgress)

	close(src.release)
	require.NoError(t, <-done)
}

func TestRefreshStopsOnCancelledContext(t *testing.T) {
	src := &fakeSource{records: []normalize.RawRecord{goodRecord(1)}}
	st := newFakeStore()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := newOrchestrator(src, st).Refresh(ctx)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, st.upserts)
}

func TestRefreshSavesRunSummary(t *testing.T) {
	src := &fakeSource{records: []normalize.RawRecord{goodRecord(1), badRecord()}}
	st := newFakeStore()

	before := time.Now()
	_, err := newOrchestrator(src, st).Refresh(context.Background())
	require.NoError(t, err)

	require.Len(t, st.summaries, 1)
	sum := st.summaries[0]
	assert.Equal(t, 2, sum.Fetched)
	assert.Equal(t, 1, sum.Normalized)
	assert.Equal(t, 1, sum.Rejected)
	assert.Equal(t, 1, sum.New)
	assert.False(t, sum.StartedAt.Before(before.Add(-time.Second)))
	assert.False(t, sum.FinishedAt.Before(sum.StartedAt))
}

func TestRefreshFeedsIndexer(t *testing.T) {
	src := &fakeSource{records: []normalize.RawRecord{goodRecord(1), goodRecord(2)}}
	st := newFakeStore()
	idx := &fakeIndexer{}

	_, err := newOrchestrator(src, st).WithIndexer(idx).Refresh(context.Background())
	require.NoError(t, err)
	assert.Len(t, idx.indexed, 2)
}

func TestRefreshSurvivesIndexerFailure(t *testing.T) {
	src := &fakeSource{records: []normalize.RawRecord{goodRecord(1)}}
	st := newFakeStore()
	idx := &fakeIndexer{err: errors.New("meilisearch unavailable")}

	result, err := newOrchestrator(src, st).WithIndexer(idx).Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.New)
}
