package adapters

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/abndnt/paris-night-sub001/internal/models"
)

// statsRecorder accumulates per-source counters. Counters are atomics so the
// hot path never takes the mutex; only last-error/last-success do.
type statsRecorder struct {
	source string

	totalRequests int64
	successCount  int64
	failureCount  int64
	latencyNanos  int64

	mu            sync.Mutex
	lastSuccessAt time.Time
	lastError     string
}

func newStatsRecorder(source string) *statsRecorder {
	return &statsRecorder{source: source}
}

func (s *statsRecorder) recordAttempt() {
	atomic.AddInt64(&s.totalRequests, 1)
}

func (s *statsRecorder) recordSuccess(latency time.Duration) {
	atomic.AddInt64(&s.successCount, 1)
	atomic.AddInt64(&s.latencyNanos, int64(latency))

	s.mu.Lock()
	s.lastSuccessAt = time.Now()
	s.mu.Unlock()
}

func (s *statsRecorder) recordFailure(latency time.Duration, err error) {
	atomic.AddInt64(&s.failureCount, 1)
	atomic.AddInt64(&s.latencyNanos, int64(latency))

	s.mu.Lock()
	s.lastError = err.Error()
	s.mu.Unlock()
}

func (s *statsRecorder) snapshot() models.AdapterStats {
	s.mu.Lock()
	lastSuccess := s.lastSuccessAt
	lastError := s.lastError
	s.mu.Unlock()

	return models.AdapterStats{
		Source:        s.source,
		TotalRequests: atomic.LoadInt64(&s.totalRequests),
		SuccessCount:  atomic.LoadInt64(&s.successCount),
		FailureCount:  atomic.LoadInt64(&s.failureCount),
		TotalLatency:  time.Duration(atomic.LoadInt64(&s.latencyNanos)),
		LastSuccessAt: lastSuccess,
		LastError:     lastError,
	}
}
