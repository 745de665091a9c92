package ranking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abndnt/paris-night-sub001/internal/models"
)

func flight(price float64, durationMin, stops int) models.FlightResult {
	return models.FlightResult{
		DurationMinutes: durationMin,
		Layovers:        stops,
		Pricing:         models.Pricing{Cash: price},
	}
}

// The exact weighting is tunable policy; these tests pin the ordering it
// must induce, not numeric output.

func TestScore_CheaperScoresHigher(t *testing.T) {
	scored := Score([]models.FlightResult{
		flight(300, 330, 0),
		flight(900, 330, 0),
	})

	require.Len(t, scored, 2)
	assert.Greater(t, scored[0].Score, scored[1].Score)
}

func TestScore_ShorterScoresHigher(t *testing.T) {
	scored := Score([]models.FlightResult{
		flight(500, 320, 0),
		flight(500, 480, 0),
	})

	assert.Greater(t, scored[0].Score, scored[1].Score)
}

func TestScore_FewerStopsScoresHigher(t *testing.T) {
	scored := Score([]models.FlightResult{
		flight(500, 330, 0),
		flight(500, 330, 2),
	})

	assert.Greater(t, scored[0].Score, scored[1].Score)
}

func TestScore_AlwaysWithinBounds(t *testing.T) {
	scored := Score([]models.FlightResult{
		flight(0, 0, 0),
		flight(10000, 2000, 8),
		flight(1, 30, 0),
	})

	for _, f := range scored {
		assert.GreaterOrEqual(t, f.Score, 0.0)
		assert.LessOrEqual(t, f.Score, 100.0)
	}
}

func TestScore_EmptyInput(t *testing.T) {
	assert.Empty(t, Score(nil))
}

func TestScore_DoesNotMutateInput(t *testing.T) {
	in := []models.FlightResult{flight(300, 330, 0)}
	Score(in)
	assert.Zero(t, in[0].Score)
}
