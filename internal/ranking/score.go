package ranking

import (
	"math"

	"github.com/abndnt/paris-night-sub001/internal/models"
)

// Weights are tunable policy. Only the ordering they induce is contract:
// cheaper, shorter, fewer-stops flights must score higher.
const (
	PriceWeight    = 0.5
	DurationWeight = 0.3
	StopsWeight    = 0.2

	stopPenalty = 15.0
)

// Score fills in each flight's desirability in [0,100], higher is better.
// Normalization is relative to the result set, so scores are comparable
// within one search, not across searches.
func Score(flights []models.FlightResult) []models.FlightResult {
	if len(flights) == 0 {
		return flights
	}

	maxPrice := findMaxPrice(flights)
	maxDuration := findMaxDuration(flights)

	result := make([]models.FlightResult, len(flights))
	for i, f := range flights {
		result[i] = f
		result[i].Score = scoreOne(f, maxPrice, maxDuration)
	}

	return result
}

func scoreOne(f models.FlightResult, maxPrice, maxDuration float64) float64 {
	priceCost := 0.0
	if maxPrice > 0 {
		priceCost = (f.Pricing.Cash / maxPrice) * 100
	}

	durationCost := 0.0
	if maxDuration > 0 {
		durationCost = (float64(f.DurationMinutes) / maxDuration) * 100
	}

	stopsCost := math.Min(float64(f.Layovers)*stopPenalty, 100)

	cost := priceCost*PriceWeight + durationCost*DurationWeight + stopsCost*StopsWeight
	score := 100 - cost

	score = math.Round(score*100) / 100
	return math.Max(0, math.Min(100, score))
}

func findMaxPrice(flights []models.FlightResult) float64 {
	maxPrice := 0.0
	for _, f := range flights {
		if f.Pricing.Cash > maxPrice {
			maxPrice = f.Pricing.Cash
		}
	}
	return maxPrice
}

func findMaxDuration(flights []models.FlightResult) float64 {
	maxDuration := 0.0
	for _, f := range flights {
		if d := float64(f.DurationMinutes); d > maxDuration {
			maxDuration = d
		}
	}
	return maxDuration
}
