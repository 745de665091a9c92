package models

type SearchResponse struct {
	SearchID     string          `json:"search_id"`
	Criteria     SearchCriteria  `json:"criteria"`
	Results      []FlightResult  `json:"results"`
	TotalResults int             `json:"total_results"`
	SearchTimeMs int64           `json:"search_time_ms"`
	Sources      []string        `json:"sources"`
	Cached       []string        `json:"cached,omitempty"`
	Errors       []SourceFailure `json:"errors,omitempty"`
	Status       SearchStatus    `json:"status"`
}

type HealthStatus string

const (
	HealthHealthy   HealthStatus = "healthy"
	HealthDegraded  HealthStatus = "degraded"
	HealthUnhealthy HealthStatus = "unhealthy"
)

type HealthResponse struct {
	Status        HealthStatus    `json:"status"`
	AdapterHealth map[string]bool `json:"adapter_health"`
	CacheHealth   bool            `json:"cache_health"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}
