package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/abndnt/paris-night-sub001/internal/adapters"
	"github.com/abndnt/paris-night-sub001/internal/cache"
	"github.com/abndnt/paris-night-sub001/internal/filter"
	"github.com/abndnt/paris-night-sub001/internal/models"
	"github.com/abndnt/paris-night-sub001/internal/ranking"
)

var (
	ErrSearchNotFound  = errors.New("search not found")
	ErrSearchCancelled = errors.New("search cancelled")
)

type Config struct {
	// MaxConcurrentSearches bounds in-flight searches process-wide; beyond
	// it new searches queue on the semaphore rather than being rejected.
	MaxConcurrentSearches int64
	// SourceTimeout converts one slow source into a failed outcome without
	// stalling its siblings.
	SourceTimeout time.Duration
	// Retention keeps terminal search records queryable before eviction.
	Retention time.Duration
}

func DefaultConfig() Config {
	return Config{
		MaxConcurrentSearches: 10,
		SourceTimeout:         30 * time.Second,
		Retention:             5 * time.Minute,
	}
}

// Options shape the aggregation step of one search.
type Options struct {
	SortBy    string
	SortOrder string
}

// Orchestrator fans a search out to its sources, tracks progress, and
// aggregates the settled outcomes into one sorted result set.
type Orchestrator struct {
	registry *adapters.Registry
	cache    cache.Cache
	progress *ProgressStore
	sem      *semaphore.Weighted
	cfg      Config
}

func New(registry *adapters.Registry, c cache.Cache, cfg Config, observers ...Observer) *Orchestrator {
	if cfg.MaxConcurrentSearches <= 0 {
		cfg.MaxConcurrentSearches = DefaultConfig().MaxConcurrentSearches
	}
	if cfg.SourceTimeout <= 0 {
		cfg.SourceTimeout = DefaultConfig().SourceTimeout
	}
	if cfg.Retention <= 0 {
		cfg.Retention = DefaultConfig().Retention
	}

	return &Orchestrator{
		registry: registry,
		cache:    c,
		progress: NewProgressStore(cfg.Retention, observers...),
		sem:      semaphore.NewWeighted(cfg.MaxConcurrentSearches),
		cfg:      cfg,
	}
}

// Progress exposes the store so the server can run its eviction sweep.
func (o *Orchestrator) Progress() *ProgressStore {
	return o.progress
}

// SearchFlights runs one search across the named sources. Partial failure is
// success: as long as one source delivered, the search completes and the
// per-source failures ride along in the response.
func (o *Orchestrator) SearchFlights(ctx context.Context, req models.SearchRequest, sourceNames []string, opts Options) (*models.SearchResponse, error) {
	start := time.Now()

	if err := req.Criteria.Validate(); err != nil {
		return nil, err
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if len(sourceNames) == 0 {
		sourceNames = o.registry.Names()
	}

	sources, err := o.registry.Resolve(sourceNames)
	if err != nil {
		return nil, err
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("%w: no sources registered", adapters.ErrUnknownSource)
	}

	searchCtx, cancelFn := context.WithCancel(ctx)
	defer cancelFn()

	estimated := start.Add(o.cfg.SourceTimeout)
	o.progress.Create(req.ID, len(sources), estimated, cancelFn)

	if err := o.sem.Acquire(ctx, 1); err != nil {
		o.progress.Cancel(req.ID)
		return nil, err
	}
	defer o.sem.Release(1)

	o.progress.SetStatus(req.ID, models.StatusSearching)

	outcomes := make(chan models.SourceOutcome, len(sources))
	var wg sync.WaitGroup
	for _, src := range sources {
		wg.Add(1)
		go func(src *adapters.Source) {
			defer wg.Done()

			srcCtx, cancel := context.WithTimeout(searchCtx, o.cfg.SourceTimeout)
			defer cancel()

			outcomes <- src.Search(srcCtx, req)
		}(src)
	}

	go func() {
		wg.Wait()
		close(outcomes)
	}()

	var all []models.FlightResult
	var failures []models.SourceFailure
	var cached []string

	for outcome := range outcomes {
		if !o.progress.RecordOutcome(req.ID, outcome) {
			// Search reached a terminal state (cancelled); late results
			// are discarded, never aggregated.
			continue
		}

		if outcome.Success {
			all = append(all, outcome.Flights...)
			if outcome.FromCache {
				cached = append(cached, outcome.Source)
			}
		} else if outcome.Err != nil {
			log.Printf("orchestrator: source %s failed after %v: %v", outcome.Source, outcome.Elapsed, outcome.Err)
			failures = append(failures, models.SourceFailure{
				Source:  outcome.Source,
				Message: outcome.Err.Error(),
			})
		}
	}

	if snap, ok := o.progress.Get(req.ID); ok && snap.Status == models.StatusCancelled {
		return nil, ErrSearchCancelled
	}

	o.progress.SetStatus(req.ID, models.StatusAggregating)

	merged := dedupe(all)
	merged = ranking.Score(merged)
	merged = filter.Sort(merged, opts.SortBy, opts.SortOrder)

	status := models.StatusCompleted
	if len(failures) == len(sources) {
		status = models.StatusFailed
	}
	o.progress.Finalize(req.ID, status, merged)

	return &models.SearchResponse{
		SearchID:     req.ID,
		Criteria:     req.Criteria,
		Results:      merged,
		TotalResults: len(merged),
		SearchTimeMs: time.Since(start).Milliseconds(),
		Sources:      sourceNames,
		Cached:       cached,
		Errors:       failures,
		Status:       status,
	}, nil
}

// FilterSearchResults applies post-hoc filters to a completed search's
// stored results. It never re-queries sources and leaves the stored set
// untouched.
func (o *Orchestrator) FilterSearchResults(searchID string, filters *models.ResultFilters) ([]models.FlightResult, error) {
	results, ok := o.progress.Results(searchID)
	if !ok {
		return nil, ErrSearchNotFound
	}
	return filter.Apply(results, filters), nil
}

// SortSearchResults re-sorts a completed search's stored results in place.
func (o *Orchestrator) SortSearchResults(searchID, sortBy, sortOrder string) ([]models.FlightResult, error) {
	results, ok := o.progress.Results(searchID)
	if !ok {
		return nil, ErrSearchNotFound
	}

	sorted := filter.Sort(results, sortBy, sortOrder)
	o.progress.SetResults(searchID, sorted)
	return sorted, nil
}

// GetSearchProgress returns a snapshot, or false once the record has been
// evicted after completion.
func (o *Orchestrator) GetSearchProgress(searchID string) (models.SearchProgress, bool) {
	return o.progress.Get(searchID)
}

// CancelSearch signals cancellation to in-flight source tasks. In-flight
// network calls may still complete, but their results are discarded.
func (o *Orchestrator) CancelSearch(searchID string) bool {
	return o.progress.Cancel(searchID)
}

// HealthCheck aggregates adapter probes and cache reachability. Some-but-not-
// all failures report degraded; no healthy adapter at all is unhealthy.
func (o *Orchestrator) HealthCheck(ctx context.Context) models.HealthResponse {
	adapterHealth := make(map[string]bool)
	healthy := 0

	for _, name := range o.registry.Names() {
		src, ok := o.registry.Get(name)
		if !ok {
			continue
		}
		err := src.HealthCheck(ctx)
		adapterHealth[name] = err == nil
		if err == nil {
			healthy++
		} else {
			log.Printf("orchestrator: health check failed for %s: %v", name, err)
		}
	}

	cacheHealthy := o.cache.Ping(ctx) == nil

	status := models.HealthHealthy
	switch {
	case healthy == 0 && len(adapterHealth) > 0:
		status = models.HealthUnhealthy
	case healthy < len(adapterHealth) || !cacheHealthy:
		status = models.HealthDegraded
	}

	return models.HealthResponse{
		Status:        status,
		AdapterHealth: adapterHealth,
		CacheHealth:   cacheHealthy,
	}
}

// Stats reports each source's cumulative counters.
func (o *Orchestrator) Stats() map[string]models.AdapterStats {
	stats := make(map[string]models.AdapterStats)
	for _, name := range o.registry.Names() {
		if src, ok := o.registry.Get(name); ok {
			stats[name] = src.Stats()
		}
	}
	return stats
}

// dedupe drops logically identical flights surfaced by multiple sources:
// same airline, flight number and first departure. The cheaper offer wins.
func dedupe(flights []models.FlightResult) []models.FlightResult {
	type identity struct {
		airline   string
		number    string
		departure int64
	}

	seen := make(map[identity]int)
	result := make([]models.FlightResult, 0, len(flights))

	for _, f := range flights {
		id := identity{
			airline:   f.Airline.Code,
			number:    f.FlightNumber,
			departure: f.Departure().Unix(),
		}

		if idx, ok := seen[id]; ok {
			if f.Pricing.Cash < result[idx].Pricing.Cash {
				result[idx] = f
			}
			continue
		}

		seen[id] = len(result)
		result = append(result, f)
	}

	return result
}
