package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/abndnt/paris-night-sub001/internal/models"
)

// Cache stores normalized per-source search results. A miss or backend
// failure is never a search failure; callers fall through to a live call.
type Cache interface {
	Get(ctx context.Context, key string) ([]models.FlightResult, bool)
	Set(ctx context.Context, key string, flights []models.FlightResult, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Close() error
}

// Key hashes the criteria fields that affect results, in a fixed order, so
// semantically identical searches map to the same entry per source.
func Key(criteria models.SearchCriteria, source string) string {
	keyData := struct {
		Origin        string
		Destination   string
		DepartureDate string
		ReturnDate    string
		Adults        int
		Children      int
		Infants       int
		CabinClass    string
		FlexibleDates bool
		Source        string
	}{
		Origin:        criteria.Origin,
		Destination:   criteria.Destination,
		DepartureDate: criteria.DepartureDate,
		Adults:        criteria.Passengers.Adults,
		Children:      criteria.Passengers.Children,
		Infants:       criteria.Passengers.Infants,
		CabinClass:    criteria.CabinClass,
		FlexibleDates: criteria.FlexibleDates,
		Source:        source,
	}

	if criteria.ReturnDate != nil {
		keyData.ReturnDate = *criteria.ReturnDate
	}

	data, _ := json.Marshal(keyData)
	hash := sha256.Sum256(data)
	return "flight:" + hex.EncodeToString(hash[:])
}
