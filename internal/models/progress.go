package models

import "time"

type SearchStatus string

const (
	StatusPending     SearchStatus = "pending"
	StatusSearching   SearchStatus = "searching"
	StatusAggregating SearchStatus = "aggregating"
	StatusCompleted   SearchStatus = "completed"
	StatusFailed      SearchStatus = "failed"
	StatusCancelled   SearchStatus = "cancelled"
)

// Terminal reports whether the status admits no further transitions.
func (s SearchStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// SourceFailure records one source's failure within an otherwise usable search.
type SourceFailure struct {
	Source  string `json:"source"`
	Message string `json:"message"`
}

// SearchProgress is a point-in-time snapshot of one search's lifecycle.
// Percent never decreases until the search reaches a terminal status.
type SearchProgress struct {
	SearchID            string          `json:"search_id"`
	Status              SearchStatus    `json:"status"`
	Percent             float64         `json:"percent"`
	CompletedSources    []string        `json:"completed_sources"`
	TotalSources        int             `json:"total_sources"`
	ResultCount         int             `json:"result_count"`
	Errors              []SourceFailure `json:"errors,omitempty"`
	StartedAt           time.Time       `json:"started_at"`
	EstimatedCompletion *time.Time      `json:"estimated_completion,omitempty"`
}

// SourceOutcome is the settled result of one source's attempt at one search.
type SourceOutcome struct {
	Source    string         `json:"source"`
	Success   bool           `json:"success"`
	Flights   []FlightResult `json:"flights,omitempty"`
	Err       error          `json:"-"`
	Elapsed   time.Duration  `json:"elapsed"`
	FromCache bool           `json:"from_cache"`
}

// AdapterStats is a cumulative per-source health ledger.
type AdapterStats struct {
	Source        string        `json:"source"`
	TotalRequests int64         `json:"total_requests"`
	SuccessCount  int64         `json:"success_count"`
	FailureCount  int64         `json:"failure_count"`
	TotalLatency  time.Duration `json:"total_latency"`
	LastSuccessAt time.Time     `json:"last_success_at,omitempty"`
	LastError     string        `json:"last_error,omitempty"`
}

// AverageLatency is total latency over completed requests, zero when idle.
func (s AdapterStats) AverageLatency() time.Duration {
	done := s.SuccessCount + s.FailureCount
	if done == 0 {
		return 0
	}
	return s.TotalLatency / time.Duration(done)
}
