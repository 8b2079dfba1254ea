// Package engine orchestrates one refresh: acquire, normalize, score,
// persist, summarize.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"dsty-finder/internal/database"
	"dsty-finder/internal/fetcher"
	"dsty-finder/internal/models"
	"dsty-finder/internal/normalize"
	"dsty-finder/internal/score"
	"dsty-finder/internal/search"
)

// ErrRefreshInProgress is returned when a refresh is requested while
// another one is still running. The caller should treat it as a skip, not
// a failure.
var ErrRefreshInProgress = errors.New("refresh already in progress")

// maxRejectReasonsKept bounds the reject detail carried in a run summary.
const maxRejectReasonsKept = 5

// Indexer pushes scored listings into the search index. Optional.
type Indexer interface {
	IndexListings(listings []models.Listing) error
}

var _ Indexer = (*search.SearchClient)(nil)

// Result summarizes one completed refresh.
type Result struct {
	Fetched       int      `json:"fetched"`
	Normalized    int      `json:"normalized"`
	Rejected      int      `json:"rejected"`
	New           int      `json:"new"`
	Updated       int      `json:"updated"`
	Unchanged     int      `json:"unchanged"`
	PersistErrors int      `json:"persist_errors"`
	RejectReasons []string `json:"reject_reasons,omitempty"`
}

// Orchestrator runs refreshes. At most one refresh is active at a time;
// concurrent requests are rejected rather than queued.
type Orchestrator struct {
	source     fetcher.Source
	normalizer *normalize.Normalizer
	scorer     *score.Scorer
	store      database.Store
	indexer    Indexer

	mu  sync.Mutex
	now func() time.Time
}

func New(source fetcher.Source, normalizer *normalize.Normalizer, scorer *score.Scorer, store database.Store) *Orchestrator {
	return &Orchestrator{
		source:     source,
		normalizer: normalizer,
		scorer:     scorer,
		store:      store,
		now:        time.Now,
	}
}

// WithIndexer attaches a search indexer. Index failures are logged, never
// fatal to the run.
func (o *Orchestrator) WithIndexer(idx Indexer) *Orchestrator {
	o.indexer = idx
	return o
}

// Refresh runs one full acquisition cycle. An acquisition fault aborts the
// run with nothing written; per-record persist faults are counted and
// skipped.
func (o *Orchestrator) Refresh(ctx context.Context) (*Result, error) {
	if !o.mu.TryLock() {
		log.Printf("[Refresh] Skipped: another refresh is in progress")
		return nil, ErrRefreshInProgress
	}
	defer o.mu.Unlock()

	startedAt := o.now()
	log.Printf("[Refresh] Starting refresh from source %q", o.source.Name())

	records, err := o.source.FetchRaw(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch from %s: %w", o.source.Name(), err)
	}

	result := &Result{Fetched: len(records)}
	var scored []models.Listing

	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		listing, reject := o.normalizer.Normalize(rec)
		if reject != nil {
			result.Rejected++
			if len(result.RejectReasons) < maxRejectReasonsKept {
				result.RejectReasons = append(result.RejectReasons, reject.String())
			}
			continue
		}
		result.Normalized++

		ranked := o.scorer.Score(*listing)

		outcome, err := o.store.Upsert(&ranked)
		if err != nil {
			result.PersistErrors++
			log.Printf("[Refresh] Persist error for %s: %v", ranked.ID, err)
			continue
		}

		switch outcome {
		case database.UpsertInserted:
			result.New++
		case database.UpsertUpdated:
			result.Updated++
		case database.UpsertUnchanged:
			result.Unchanged++
		}
		scored = append(scored, ranked)
	}

	o.indexScored(scored)
	o.saveSummary(startedAt, result)

	log.Printf("[Refresh] Done: fetched=%d normalized=%d rejected=%d new=%d updated=%d unchanged=%d persist_errors=%d",
		result.Fetched, result.Normalized, result.Rejected, result.New, result.Updated, result.Unchanged, result.PersistErrors)

	return result, nil
}

func (o *Orchestrator) indexScored(scored []models.Listing) {
	if o.indexer == nil || len(scored) == 0 {
		return
	}
	if err := o.indexer.IndexListings(scored); err != nil {
		log.Printf("[Refresh] Search indexing failed: %v", err)
	}
}

func (o *Orchestrator) saveSummary(startedAt time.Time, result *Result) {
	summary := &models.RunSummary{
		StartedAt:     startedAt,
		FinishedAt:    o.now(),
		Fetched:       result.Fetched,
		Normalized:    result.Normalized,
		Rejected:      result.Rejected,
		New:           result.New,
		Updated:       result.Updated,
		Unchanged:     result.Unchanged,
		PersistErrors: result.PersistErrors,
		RejectReasons: result.RejectReasons,
	}
	if err := o.store.SaveRunSummary(summary); err != nil {
		log.Printf("[Refresh] Failed to save run summary: %v", err)
	}
}
