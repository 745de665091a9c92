package filter

import (
	"sort"
	"strings"
	"time"

	"github.com/abndnt/paris-night-sub001/internal/models"
)

// Apply narrows a result set by the caller's post-hoc filters. Filtering
// never touches the sources; it only works on stored results.
func Apply(flights []models.FlightResult, filters *models.ResultFilters) []models.FlightResult {
	if filters == nil {
		return flights
	}

	result := make([]models.FlightResult, 0, len(flights))
	for _, f := range flights {
		if matches(f, filters) {
			result = append(result, f)
		}
	}
	return result
}

func matches(f models.FlightResult, filters *models.ResultFilters) bool {
	if filters.PriceMax != nil && f.Pricing.Cash > *filters.PriceMax {
		return false
	}

	if filters.MaxStops != nil && f.Layovers > *filters.MaxStops {
		return false
	}

	if len(filters.Airlines) > 0 {
		found := false
		for _, airline := range filters.Airlines {
			if strings.EqualFold(f.Airline.Code, airline) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if filters.CabinClass != nil && !strings.EqualFold(f.CabinClass, *filters.CabinClass) {
		return false
	}

	dep := f.Departure()
	if filters.DepartureTimeMin != nil {
		if minTime, err := parseTimeOfDay(*filters.DepartureTimeMin); err == nil {
			if dep.Hour()*60+dep.Minute() < minTime {
				return false
			}
		}
	}
	if filters.DepartureTimeMax != nil {
		if maxTime, err := parseTimeOfDay(*filters.DepartureTimeMax); err == nil {
			if dep.Hour()*60+dep.Minute() > maxTime {
				return false
			}
		}
	}

	return true
}

func parseTimeOfDay(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}

// Sort orders flights by price, duration or score. Ties always break by
// lowest price, then shortest duration. The sort is stable.
func Sort(flights []models.FlightResult, sortBy, sortOrder string) []models.FlightResult {
	if len(flights) == 0 {
		return flights
	}

	ascending := strings.ToLower(sortOrder) != "desc"

	var primary func(i, j int) int
	switch strings.ToLower(sortBy) {
	case "duration":
		primary = func(i, j int) int {
			return flights[i].DurationMinutes - flights[j].DurationMinutes
		}
	case "score":
		primary = func(i, j int) int {
			return compareFloat(flights[i].Score, flights[j].Score)
		}
	default: // price
		primary = func(i, j int) int {
			return compareFloat(flights[i].Pricing.Cash, flights[j].Pricing.Cash)
		}
	}

	sort.SliceStable(flights, func(i, j int) bool {
		c := primary(i, j)
		if !ascending {
			c = -c
		}
		if c != 0 {
			return c < 0
		}

		if c := compareFloat(flights[i].Pricing.Cash, flights[j].Pricing.Cash); c != 0 {
			return c < 0
		}
		return flights[i].DurationMinutes < flights[j].DurationMinutes
	})

	return flights
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
