package adapters

import (
	"context"

	"github.com/abndnt/paris-night-sub001/internal/models"
)

// Adapter is the raw per-source integration. Implementations translate their
// source's wire format into the shared FlightResult shape; rate limiting,
// caching, retries and stats live in the Source wrapper, not here.
type Adapter interface {
	Name() string
	Search(ctx context.Context, req models.SearchRequest) ([]models.FlightResult, error)
}

// HealthChecker lets an adapter supply its own probe. Adapters that do not
// implement it are probed with a synthetic search instead.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}
