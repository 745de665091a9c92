package adapters

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/abndnt/paris-night-sub001/internal/cache"
	"github.com/abndnt/paris-night-sub001/internal/models"
	"github.com/abndnt/paris-night-sub001/internal/ratelimit"
)

// SourceConfig tunes the shared behavior wrapped around one adapter.
type SourceConfig struct {
	Retry    RetryPolicy
	CacheTTL time.Duration
	// HealthProbeInterval paces synthetic health probes so they cannot
	// starve business traffic.
	HealthProbeInterval time.Duration
}

func DefaultSourceConfig() SourceConfig {
	return SourceConfig{
		Retry:               DefaultRetryPolicy(),
		CacheTTL:            5 * time.Minute,
		HealthProbeInterval: 10 * time.Second,
	}
}

// Source wraps a raw adapter with the shared pipeline: rate-limit check,
// cache lookup, bounded retry with exponential backoff, cache store, stats.
// The orchestrator only ever talks to Sources, never to raw adapters.
type Source struct {
	adapter     Adapter
	limiter     *ratelimit.Limiter
	cache       cache.Cache
	retry       RetryPolicy
	cacheTTL    time.Duration
	stats       *statsRecorder
	healthPacer *rate.Limiter
}

func NewSource(adapter Adapter, limiter *ratelimit.Limiter, c cache.Cache, cfg SourceConfig) *Source {
	interval := cfg.HealthProbeInterval
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &Source{
		adapter:     adapter,
		limiter:     limiter,
		cache:       c,
		retry:       cfg.Retry,
		cacheTTL:    cfg.CacheTTL,
		stats:       newStatsRecorder(adapter.Name()),
		healthPacer: rate.NewLimiter(rate.Every(interval), 1),
	}
}

func (s *Source) Name() string {
	return s.adapter.Name()
}

// Search runs the full per-source pipeline and always settles to an outcome;
// failures are captured in the outcome, not returned.
func (s *Source) Search(ctx context.Context, req models.SearchRequest) models.SourceOutcome {
	start := time.Now()
	name := s.adapter.Name()

	if !s.limiter.Check(ctx, name) {
		err := &SourceError{Source: name, Retryable: false, Err: ErrRateLimited}
		s.stats.recordAttempt()
		s.stats.recordFailure(time.Since(start), err)
		return models.SourceOutcome{Source: name, Err: err, Elapsed: time.Since(start)}
	}

	key := cache.Key(req.Criteria, name)
	if flights, ok := s.cache.Get(ctx, key); ok {
		return models.SourceOutcome{
			Source:    name,
			Success:   true,
			Flights:   flights,
			Elapsed:   time.Since(start),
			FromCache: true,
		}
	}

	flights, err := s.searchWithRetry(ctx, req)
	if err != nil {
		return models.SourceOutcome{Source: name, Err: err, Elapsed: time.Since(start)}
	}

	// A cache write failure only costs us the next lookup.
	_ = s.cache.Set(ctx, key, flights, s.cacheTTL)

	return models.SourceOutcome{
		Source:  name,
		Success: true,
		Flights: flights,
		Elapsed: time.Since(start),
	}
}

func (s *Source) searchWithRetry(ctx context.Context, req models.SearchRequest) ([]models.FlightResult, error) {
	name := s.adapter.Name()
	var lastErr *SourceError

	for attempt := 0; attempt <= s.retry.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(s.retry.Backoff(attempt - 1)):
			case <-ctx.Done():
				return nil, Classify(name, ctx.Err())
			}
		}

		select {
		case <-ctx.Done():
			return nil, Classify(name, ctx.Err())
		default:
		}

		if err := s.limiter.Wait(ctx, name); err != nil {
			return nil, Classify(name, err)
		}
		s.limiter.Increment(ctx, name)
		s.stats.recordAttempt()

		attemptStart := time.Now()
		flights, err := s.adapter.Search(ctx, req)
		if err == nil {
			s.stats.recordSuccess(time.Since(attemptStart))
			return flights, nil
		}

		lastErr = Classify(name, err)
		s.stats.recordFailure(time.Since(attemptStart), lastErr)
		if !lastErr.Retryable {
			break
		}
	}

	return nil, lastErr
}

// HealthCheck probes the source with a minimal synthetic search, bypassing
// the cache and window budgets. Probes within the pacing interval are
// skipped rather than queued.
func (s *Source) HealthCheck(ctx context.Context) error {
	if !s.healthPacer.Allow() {
		return nil
	}

	if hc, ok := s.adapter.(HealthChecker); ok {
		return hc.HealthCheck(ctx)
	}

	probe := models.SearchRequest{
		ID: "health-" + s.adapter.Name(),
		Criteria: models.SearchCriteria{
			Origin:        "LAX",
			Destination:   "JFK",
			DepartureDate: time.Now().AddDate(0, 0, 1).Format("2006-01-02"),
			Passengers:    models.Passengers{Adults: 1},
			CabinClass:    "economy",
		},
		CreatedAt: time.Now().UTC(),
	}

	_, err := s.adapter.Search(ctx, probe)
	return err
}

func (s *Source) Stats() models.AdapterStats {
	return s.stats.snapshot()
}
