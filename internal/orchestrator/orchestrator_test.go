package orchestrator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abndnt/paris-night-sub001/internal/adapters"
	"github.com/abndnt/paris-night-sub001/internal/cache"
	"github.com/abndnt/paris-night-sub001/internal/models"
	"github.com/abndnt/paris-night-sub001/internal/ratelimit"
)

type stubAdapter struct {
	name string
	fn   func(ctx context.Context, req models.SearchRequest) ([]models.FlightResult, error)
}

func (s *stubAdapter) Name() string { return s.name }

func (s *stubAdapter) Search(ctx context.Context, req models.SearchRequest) ([]models.FlightResult, error) {
	return s.fn(ctx, req)
}

func stubFlight(source, number string, price float64, durationMin int) models.FlightResult {
	dep := time.Date(2026, 9, 15, 8, 0, 0, 0, time.UTC)
	return models.FlightResult{
		ID:              source + "-" + number,
		Source:          source,
		Airline:         models.Airline{Code: "ZZ", Name: "Stub Air"},
		FlightNumber:    number,
		DurationMinutes: durationMin,
		CabinClass:      "economy",
		Segments: []models.Segment{{
			Origin:      "LAX",
			Destination: "JFK",
			Departure:   dep,
			Arrival:     dep.Add(time.Duration(durationMin) * time.Minute),
		}},
		Pricing: models.Pricing{Cash: price, Currency: "USD", Total: price},
	}
}

func returning(name string, flights ...models.FlightResult) *stubAdapter {
	return &stubAdapter{
		name: name,
		fn: func(context.Context, models.SearchRequest) ([]models.FlightResult, error) {
			return flights, nil
		},
	}
}

func failing(name string) *stubAdapter {
	return &stubAdapter{
		name: name,
		fn: func(context.Context, models.SearchRequest) ([]models.FlightResult, error) {
			return nil, &adapters.HTTPError{StatusCode: 400, Status: "Bad Request"}
		},
	}
}

func hanging(name string) *stubAdapter {
	return &stubAdapter{
		name: name,
		fn: func(ctx context.Context, _ models.SearchRequest) ([]models.FlightResult, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}
}

func newTestOrchestrator(cfg Config, observers []Observer, stubs ...*stubAdapter) *Orchestrator {
	limiter := ratelimit.NewLimiter(ratelimit.NewMemoryStore(), ratelimit.Budget{PerMinute: 1000, PerHour: 10000})
	memCache := cache.NewMemoryCache()

	registry := adapters.NewRegistry()
	for _, stub := range stubs {
		registry.Register(adapters.NewSource(stub, limiter, memCache, adapters.SourceConfig{
			Retry:               adapters.RetryPolicy{MaxRetries: 0, InitialDelay: time.Millisecond, BackoffMultiplier: 2},
			CacheTTL:            time.Minute,
			HealthProbeInterval: time.Millisecond,
		}))
	}

	return New(registry, memCache, cfg, observers...)
}

func testCriteria() models.SearchCriteria {
	return models.SearchCriteria{
		Origin:        "LAX",
		Destination:   "JFK",
		DepartureDate: "2026-09-15",
		Passengers:    models.Passengers{Adults: 1},
		CabinClass:    "economy",
	}
}

func TestSearchFlights_AggregatesAndSortsAcrossSources(t *testing.T) {
	orch := newTestOrchestrator(DefaultConfig(), nil,
		returning("source-a",
			stubFlight("source-a", "A300", 300, 330),
			stubFlight("source-a", "A450", 450, 340),
			stubFlight("source-a", "A600", 600, 320),
		),
		returning("source-b",
			stubFlight("source-b", "B400", 400, 325),
			stubFlight("source-b", "B900", 900, 315),
		),
	)

	req := models.NewSearchRequest(testCriteria(), "")
	resp, err := orch.SearchFlights(context.Background(), req, []string{"source-a", "source-b"}, Options{SortBy: "price", SortOrder: "asc"})
	require.NoError(t, err)

	assert.Equal(t, models.StatusCompleted, resp.Status)
	assert.Equal(t, 5, resp.TotalResults)
	assert.Empty(t, resp.Errors)

	got := make([]float64, len(resp.Results))
	for i, f := range resp.Results {
		got[i] = f.Pricing.Cash
		assert.GreaterOrEqual(t, f.Score, 0.0)
		assert.LessOrEqual(t, f.Score, 100.0)
	}
	assert.Equal(t, []float64{300, 400, 450, 600, 900}, got)

	progress, ok := orch.GetSearchProgress(resp.SearchID)
	require.True(t, ok)
	assert.Equal(t, models.StatusCompleted, progress.Status)
	assert.Equal(t, 100.0, progress.Percent)
	assert.Equal(t, 2, progress.TotalSources)
}

func TestSearchFlights_TimedOutSourceDoesNotStallOthers(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SourceTimeout = 50 * time.Millisecond

	orch := newTestOrchestrator(cfg, nil,
		returning("fast", stubFlight("fast", "F100", 250, 330)),
		hanging("slow"),
	)

	req := models.NewSearchRequest(testCriteria(), "")
	start := time.Now()
	resp, err := orch.SearchFlights(context.Background(), req, []string{"fast", "slow"}, Options{})
	require.NoError(t, err)

	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Equal(t, models.StatusCompleted, resp.Status, "partial success is success")
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "fast", resp.Results[0].Source)

	require.Len(t, resp.Errors, 1)
	assert.Equal(t, "slow", resp.Errors[0].Source)
}

func TestSearchFlights_AllSourcesFailedIsFailed(t *testing.T) {
	orch := newTestOrchestrator(DefaultConfig(), nil, failing("a"), failing("b"))

	req := models.NewSearchRequest(testCriteria(), "")
	resp, err := orch.SearchFlights(context.Background(), req, []string{"a", "b"}, Options{})
	require.NoError(t, err)

	assert.Equal(t, models.StatusFailed, resp.Status)
	assert.Empty(t, resp.Results)
	assert.Len(t, resp.Errors, 2)

	progress, ok := orch.GetSearchProgress(resp.SearchID)
	require.True(t, ok)
	assert.Equal(t, models.StatusFailed, progress.Status)
}

func TestSearchFlights_UnknownSourceRejectedUpFront(t *testing.T) {
	orch := newTestOrchestrator(DefaultConfig(), nil, returning("known"))

	req := models.NewSearchRequest(testCriteria(), "")
	_, err := orch.SearchFlights(context.Background(), req, []string{"known", "bogus"}, Options{})

	assert.ErrorIs(t, err, adapters.ErrUnknownSource)
}

func TestSearchFlights_InvalidCriteriaRejectedUpFront(t *testing.T) {
	orch := newTestOrchestrator(DefaultConfig(), nil, returning("known"))

	criteria := testCriteria()
	criteria.Origin = ""
	req := models.NewSearchRequest(criteria, "")

	_, err := orch.SearchFlights(context.Background(), req, nil, Options{})

	var validationErr models.ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestSearchFlights_DeduplicatesAcrossSources(t *testing.T) {
	shared := stubFlight("source-a", "ZZ777", 500, 330)
	cheaper := shared
	cheaper.Source = "source-b"
	cheaper.ID = "source-b-ZZ777"
	cheaper.Pricing.Cash = 420

	orch := newTestOrchestrator(DefaultConfig(), nil,
		returning("source-a", shared),
		returning("source-b", cheaper),
	)

	req := models.NewSearchRequest(testCriteria(), "")
	resp, err := orch.SearchFlights(context.Background(), req, nil, Options{})
	require.NoError(t, err)

	require.Len(t, resp.Results, 1, "same airline+number+departure is one flight")
	assert.Equal(t, 420.0, resp.Results[0].Pricing.Cash, "the cheaper offer wins")
}

func TestCancelSearch_DiscardsLateResults(t *testing.T) {
	orch := newTestOrchestrator(DefaultConfig(), nil, hanging("slow-a"), hanging("slow-b"))

	req := models.NewSearchRequest(testCriteria(), "")

	type result struct {
		resp *models.SearchResponse
		err  error
	}
	done := make(chan result, 1)
	go func() {
		resp, err := orch.SearchFlights(context.Background(), req, nil, Options{})
		done <- result{resp, err}
	}()

	// Wait for the search to be live before cancelling.
	require.Eventually(t, func() bool {
		p, ok := orch.GetSearchProgress(req.ID)
		return ok && p.Status == models.StatusSearching
	}, 2*time.Second, 5*time.Millisecond)

	assert.True(t, orch.CancelSearch(req.ID))

	select {
	case r := <-done:
		assert.ErrorIs(t, r.err, ErrSearchCancelled)
		assert.Nil(t, r.resp)
	case <-time.After(5 * time.Second):
		t.Fatal("search did not settle after cancellation")
	}

	progress, ok := orch.GetSearchProgress(req.ID)
	require.True(t, ok)
	assert.Equal(t, models.StatusCancelled, progress.Status)

	results, ok := orch.progress.Results(req.ID)
	require.True(t, ok)
	assert.Empty(t, results, "no late source results leak into a cancelled search")

	assert.False(t, orch.CancelSearch(req.ID), "cancelling a terminal search reports no live search")
}

func TestCancelSearch_UnknownID(t *testing.T) {
	orch := newTestOrchestrator(DefaultConfig(), nil, returning("a"))
	assert.False(t, orch.CancelSearch("nope"))
}

func TestSearchFlights_ProgressPercentIsMonotonic(t *testing.T) {
	obs := &recordingObserver{}
	orch := newTestOrchestrator(DefaultConfig(), []Observer{obs},
		returning("a", stubFlight("a", "A1", 100, 300)),
		returning("b", stubFlight("b", "B1", 200, 300)),
		returning("c", stubFlight("c", "C1", 300, 300)),
	)

	req := models.NewSearchRequest(testCriteria(), "")
	_, err := orch.SearchFlights(context.Background(), req, nil, Options{})
	require.NoError(t, err)

	snaps := obs.all()
	require.NotEmpty(t, snaps)

	last := -1.0
	for _, p := range snaps {
		assert.GreaterOrEqual(t, p.Percent, last, "percent must never decrease")
		assert.LessOrEqual(t, len(p.CompletedSources), p.TotalSources)
		last = p.Percent
	}
	assert.Equal(t, models.StatusCompleted, snaps[len(snaps)-1].Status)
}

func TestFilterSearchResults_AppliesWithoutRequery(t *testing.T) {
	orch := newTestOrchestrator(DefaultConfig(), nil,
		returning("a",
			stubFlight("a", "A1", 300, 330),
			stubFlight("a", "A2", 700, 310),
		),
	)

	req := models.NewSearchRequest(testCriteria(), "")
	resp, err := orch.SearchFlights(context.Background(), req, nil, Options{})
	require.NoError(t, err)

	max := 500.0
	filtered, err := orch.FilterSearchResults(resp.SearchID, &models.ResultFilters{PriceMax: &max})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, 300.0, filtered[0].Pricing.Cash)

	// Filtering is non-destructive.
	all, err := orch.FilterSearchResults(resp.SearchID, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = orch.FilterSearchResults("missing", nil)
	assert.ErrorIs(t, err, ErrSearchNotFound)
}

func TestSortSearchResults_ReordersStoredResults(t *testing.T) {
	orch := newTestOrchestrator(DefaultConfig(), nil,
		returning("a",
			stubFlight("a", "CHEAP-SLOW", 300, 500),
			stubFlight("a", "DEAR-FAST", 700, 310),
		),
	)

	req := models.NewSearchRequest(testCriteria(), "")
	resp, err := orch.SearchFlights(context.Background(), req, nil, Options{SortBy: "price"})
	require.NoError(t, err)
	require.Equal(t, "CHEAP-SLOW", resp.Results[0].FlightNumber)

	sorted, err := orch.SortSearchResults(resp.SearchID, "duration", "asc")
	require.NoError(t, err)
	require.Len(t, sorted, 2)
	assert.Equal(t, "DEAR-FAST", sorted[0].FlightNumber)

	_, err = orch.SortSearchResults("missing", "price", "asc")
	assert.ErrorIs(t, err, ErrSearchNotFound)
}

func TestSearchFlights_QueuesBeyondConcurrencyBound(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxConcurrentSearches = 1

	release := make(chan struct{})
	blocking := &stubAdapter{
		name: "gated",
		fn: func(ctx context.Context, _ models.SearchRequest) ([]models.FlightResult, error) {
			select {
			case <-release:
				return []models.FlightResult{stubFlight("gated", "G1", 100, 300)}, nil
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		},
	}
	orch := newTestOrchestrator(cfg, nil, blocking)

	first := models.NewSearchRequest(testCriteria(), "")
	second := models.NewSearchRequest(testCriteria(), "")

	results := make(chan error, 2)
	go func() {
		_, err := orch.SearchFlights(context.Background(), first, nil, Options{})
		results <- err
	}()
	go func() {
		_, err := orch.SearchFlights(context.Background(), second, nil, Options{})
		results <- err
	}()

	// Neither search is rejected while the bound is held.
	select {
	case err := <-results:
		t.Fatalf("a search settled before release: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	require.NoError(t, <-results)
	require.NoError(t, <-results)
}

func TestHealthCheck_AggregatesAdapterAndCacheHealth(t *testing.T) {
	healthy := returning("up", stubFlight("up", "U1", 100, 300))
	broken := &stubAdapter{
		name: "down",
		fn: func(context.Context, models.SearchRequest) ([]models.FlightResult, error) {
			return nil, errors.New("unreachable")
		},
	}

	orch := newTestOrchestrator(DefaultConfig(), nil, healthy, broken)
	health := orch.HealthCheck(context.Background())

	assert.Equal(t, models.HealthDegraded, health.Status)
	assert.True(t, health.AdapterHealth["up"])
	assert.False(t, health.AdapterHealth["down"])
	assert.True(t, health.CacheHealth)

	allUp := newTestOrchestrator(DefaultConfig(), nil, healthy)
	assert.Equal(t, models.HealthHealthy, allUp.HealthCheck(context.Background()).Status)

	allDown := newTestOrchestrator(DefaultConfig(), nil, broken)
	assert.Equal(t, models.HealthUnhealthy, allDown.HealthCheck(context.Background()).Status)
}

func TestStats_ReportsPerSourceCounters(t *testing.T) {
	orch := newTestOrchestrator(DefaultConfig(), nil,
		returning("a", stubFlight("a", "A1", 100, 300)),
		failing("b"),
	)

	req := models.NewSearchRequest(testCriteria(), "")
	_, err := orch.SearchFlights(context.Background(), req, nil, Options{})
	require.NoError(t, err)

	stats := orch.Stats()
	require.Contains(t, stats, "a")
	require.Contains(t, stats, "b")
	assert.EqualValues(t, 1, stats["a"].SuccessCount)
	assert.EqualValues(t, 1, stats["b"].FailureCount)
}
