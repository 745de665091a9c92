package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/abndnt/paris-night-sub001/internal/models"
)

// Observer receives a snapshot after every progress mutation. Implementations
// must not block; the store calls them synchronously.
type Observer interface {
	ProgressUpdated(p models.SearchProgress)
}

type searchRecord struct {
	progress  models.SearchProgress
	completed map[string]bool
	results   []models.FlightResult
	cancel    context.CancelFunc
	expiresAt time.Time
}

// ProgressStore owns every live search's state. All mutations go through the
// store mutex, which gives each search the single-writer discipline that the
// monotonic-percent invariant requires. Terminal records are retained for a
// grace window so late progress queries still resolve, then evicted.
type ProgressStore struct {
	mu        sync.Mutex
	records   map[string]*searchRecord
	observers []Observer
	retention time.Duration
	now       func() time.Time
}

func NewProgressStore(retention time.Duration, observers ...Observer) *ProgressStore {
	return &ProgressStore{
		records:   make(map[string]*searchRecord),
		observers: observers,
		retention: retention,
		now:       time.Now,
	}
}

// Run sweeps expired records until ctx is done. Meant to be started once,
// alongside the server.
func (s *ProgressStore) Run(ctx context.Context) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-ctx.Done():
			return
		}
	}
}

func (s *ProgressStore) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for id, rec := range s.records {
		if !rec.expiresAt.IsZero() && now.After(rec.expiresAt) {
			delete(s.records, id)
		}
	}
}

// Create registers a new search in the pending state. The cancel func is
// invoked if the search is cancelled while source tasks are in flight.
func (s *ProgressStore) Create(searchID string, totalSources int, estimated time.Time, cancel context.CancelFunc) {
	s.mu.Lock()

	est := estimated
	rec := &searchRecord{
		progress: models.SearchProgress{
			SearchID:            searchID,
			Status:              models.StatusPending,
			TotalSources:        totalSources,
			CompletedSources:    []string{},
			StartedAt:           s.now(),
			EstimatedCompletion: &est,
		},
		completed: make(map[string]bool),
		cancel:    cancel,
	}
	s.records[searchID] = rec
	snap := snapshot(rec)

	s.mu.Unlock()
	s.notify(snap)
}

// SetStatus advances a search's lifecycle. Transitions out of a terminal
// status are refused.
func (s *ProgressStore) SetStatus(searchID string, status models.SearchStatus) bool {
	s.mu.Lock()

	rec, ok := s.records[searchID]
	if !ok || rec.progress.Status.Terminal() {
		s.mu.Unlock()
		return false
	}
	rec.progress.Status = status
	snap := snapshot(rec)

	s.mu.Unlock()
	s.notify(snap)
	return true
}

// RecordOutcome folds one settled source into the search. It reports false
// when the search has already reached a terminal state, in which case the
// outcome must be discarded by the caller.
func (s *ProgressStore) RecordOutcome(searchID string, outcome models.SourceOutcome) bool {
	s.mu.Lock()

	rec, ok := s.records[searchID]
	if !ok || rec.progress.Status.Terminal() {
		s.mu.Unlock()
		return false
	}
	if rec.completed[outcome.Source] {
		s.mu.Unlock()
		return false
	}

	rec.completed[outcome.Source] = true
	rec.progress.CompletedSources = append(rec.progress.CompletedSources, outcome.Source)

	if outcome.Success {
		rec.progress.ResultCount += len(outcome.Flights)
	} else if outcome.Err != nil {
		rec.progress.Errors = append(rec.progress.Errors, models.SourceFailure{
			Source:  outcome.Source,
			Message: outcome.Err.Error(),
		})
	}

	if rec.progress.TotalSources > 0 {
		rec.progress.Percent = float64(len(rec.completed)) / float64(rec.progress.TotalSources) * 100
	}
	snap := snapshot(rec)

	s.mu.Unlock()
	s.notify(snap)
	return true
}

// Finalize moves a search to completed or failed, stores its aggregated
// results, and schedules eviction. No-op if the search is already terminal.
func (s *ProgressStore) Finalize(searchID string, status models.SearchStatus, results []models.FlightResult) bool {
	s.mu.Lock()

	rec, ok := s.records[searchID]
	if !ok || rec.progress.Status.Terminal() {
		s.mu.Unlock()
		return false
	}

	rec.progress.Status = status
	rec.progress.Percent = 100
	rec.progress.ResultCount = len(results)
	rec.results = results
	rec.cancel = nil
	rec.expiresAt = s.now().Add(s.retention)
	snap := snapshot(rec)

	s.mu.Unlock()
	s.notify(snap)
	return true
}

// Cancel signals any in-flight source tasks and marks the search cancelled.
// Returns whether a live, non-terminal search was found.
func (s *ProgressStore) Cancel(searchID string) bool {
	s.mu.Lock()

	rec, ok := s.records[searchID]
	if !ok || rec.progress.Status.Terminal() {
		s.mu.Unlock()
		return false
	}

	cancel := rec.cancel
	rec.cancel = nil
	rec.progress.Status = models.StatusCancelled
	rec.expiresAt = s.now().Add(s.retention)
	snap := snapshot(rec)

	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	s.notify(snap)
	return true
}

// Get returns a read-only snapshot, or false once the record was evicted.
func (s *ProgressStore) Get(searchID string) (models.SearchProgress, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[searchID]
	if !ok {
		return models.SearchProgress{}, false
	}
	if !rec.expiresAt.IsZero() && s.now().After(rec.expiresAt) {
		delete(s.records, searchID)
		return models.SearchProgress{}, false
	}
	return snapshot(rec), true
}

// Results returns the stored aggregate of a finalized search.
func (s *ProgressStore) Results(searchID string) ([]models.FlightResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[searchID]
	if !ok {
		return nil, false
	}
	if !rec.expiresAt.IsZero() && s.now().After(rec.expiresAt) {
		delete(s.records, searchID)
		return nil, false
	}

	out := make([]models.FlightResult, len(rec.results))
	copy(out, rec.results)
	return out, true
}

// SetResults replaces the stored aggregate, preserving the terminal status.
// Used by re-sort, which reorders without re-querying.
func (s *ProgressStore) SetResults(searchID string, results []models.FlightResult) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[searchID]
	if !ok {
		return false
	}
	rec.results = results
	return true
}

func (s *ProgressStore) notify(snap models.SearchProgress) {
	for _, obs := range s.observers {
		obs.ProgressUpdated(snap)
	}
}

func snapshot(rec *searchRecord) models.SearchProgress {
	snap := rec.progress

	snap.CompletedSources = make([]string, len(rec.progress.CompletedSources))
	copy(snap.CompletedSources, rec.progress.CompletedSources)

	if len(rec.progress.Errors) > 0 {
		snap.Errors = make([]models.SourceFailure, len(rec.progress.Errors))
		copy(snap.Errors, rec.progress.Errors)
	}

	return snap
}
