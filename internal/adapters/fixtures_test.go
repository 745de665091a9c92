package adapters

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abndnt/paris-night-sub001/internal/models"
)

func fixtureRequest() models.SearchRequest {
	return models.SearchRequest{
		ID: "fixture-search",
		Criteria: models.SearchCriteria{
			Origin:        "LAX",
			Destination:   "JFK",
			DepartureDate: "2026-09-15",
			Passengers:    models.Passengers{Adults: 1},
			CabinClass:    "economy",
		},
	}
}

func TestMeridianAdapter_SearchNormalizes(t *testing.T) {
	adapter, err := NewMeridianAdapter()
	require.NoError(t, err)
	require.Equal(t, "meridian", adapter.Name())

	flights, err := adapter.Search(context.Background(), fixtureRequest())
	require.NoError(t, err)
	require.Len(t, flights, 3, "fixture has 3 economy LAX-JFK itineraries on that date")

	cash := make([]float64, len(flights))
	for i, f := range flights {
		cash[i] = f.Pricing.Cash

		assert.Equal(t, "meridian", f.Source)
		assert.Equal(t, "MR", f.Airline.Code)
		assert.NotEmpty(t, f.Segments)
		assert.Equal(t, "LAX", f.Segments[0].Origin)
		assert.Equal(t, "JFK", f.Segments[len(f.Segments)-1].Destination)
		assert.Equal(t, len(f.Segments)-1, f.Layovers)
		assert.Equal(t, "USD", f.Pricing.Currency)
		assert.InDelta(t, f.Pricing.Cash+f.Pricing.Taxes+f.Pricing.Fees, f.Pricing.Total, 0.001)
		assert.NotEmpty(t, f.Pricing.Formatted)
		assert.Positive(t, f.DurationMinutes)
	}
	sort.Float64s(cash)
	assert.Equal(t, []float64{300, 450, 600}, cash)
}

func TestMeridianAdapter_ConnectionCountsGroundTime(t *testing.T) {
	adapter, err := NewMeridianAdapter()
	require.NoError(t, err)

	flights, err := adapter.Search(context.Background(), fixtureRequest())
	require.NoError(t, err)

	var connection *models.FlightResult
	for i := range flights {
		if flights[i].Layovers == 1 {
			connection = &flights[i]
		}
	}
	require.NotNil(t, connection, "fixture includes a one-stop itinerary")
	require.Len(t, connection.Segments, 2)

	legSum := connection.Segments[0].DurationMinutes + connection.Segments[1].DurationMinutes
	assert.Greater(t, connection.DurationMinutes, legSum,
		"total duration includes the layover, not just flight time")
}

func TestPacificaAdapter_SearchNormalizes(t *testing.T) {
	adapter, err := NewPacificaAdapter()
	require.NoError(t, err)
	require.Equal(t, "pacifica", adapter.Name())

	flights, err := adapter.Search(context.Background(), fixtureRequest())
	require.NoError(t, err)
	require.Len(t, flights, 2)

	cash := []float64{flights[0].Pricing.Cash, flights[1].Pricing.Cash}
	sort.Float64s(cash)
	assert.Equal(t, []float64{400, 900}, cash, "cents are converted to major units")

	for _, f := range flights {
		assert.Equal(t, "pacifica", f.Source)
		assert.Len(t, f.Segments, 1)
		assert.NotEmpty(t, f.Pricing.PointsOptions, "fixture carries redemption options")
		assert.NotEmpty(t, f.Availability.BookingClass)
	}
}

func TestAdapters_NoResultsForUnknownRoute(t *testing.T) {
	meridian, err := NewMeridianAdapter()
	require.NoError(t, err)
	pacifica, err := NewPacificaAdapter()
	require.NoError(t, err)

	req := fixtureRequest()
	req.Criteria.Origin = "SIN"
	req.Criteria.Destination = "NRT"

	flights, err := meridian.Search(context.Background(), req)
	require.NoError(t, err)
	assert.Empty(t, flights)

	flights, err = pacifica.Search(context.Background(), req)
	require.NoError(t, err)
	assert.Empty(t, flights)
}

func TestAdapters_RespectContextCancellation(t *testing.T) {
	adapter, err := NewMeridianAdapter()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = adapter.Search(ctx, fixtureRequest())
	assert.ErrorIs(t, err, context.Canceled)
}
