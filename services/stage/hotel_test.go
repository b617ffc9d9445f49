package stage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripplanner/models"
)

func TestHotelProviderContract(t *testing.T) {
	p := &HotelProvider{}

	_, err := p.Run(context.Background(), Input{Spec: models.TripSpec{}})
	require.Error(t, err)

	var ce *ContractError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, models.StageHotels, ce.Provider)
	assert.ElementsMatch(t, []string{"destination", "check_in", "check_out"}, ce.Missing)
}

func TestHotelProviderDegradesToSynthetic(t *testing.T) {
	// No API key configured, so the live search fails immediately and
	// the provider substitutes synthetic hotels.
	p := &HotelProvider{}
	spec := testSpec()
	spec.Budget = 10000

	data, err := p.Run(context.Background(), Input{Spec: spec})
	require.NoError(t, err)

	hotels := getSlice(data, "hotel_options")
	require.NotEmpty(t, hotels)
	assert.Equal(t, len(hotels), data["total_options"])

	criteria := getMap(data, "search_criteria")
	require.NotNil(t, criteria)
	assert.Equal(t, "2026-06-01", criteria["check_in"])
	assert.Equal(t, "2026-06-04", criteria["check_out"])

	var lastScore float64
	for i, h := range hotels {
		hotel, ok := h.(map[string]any)
		require.True(t, ok)

		assert.Contains(t, hotel["name"], "Paris")
		assert.LessOrEqual(t, number(hotel["estimated_price"]), spec.Budget*0.4)

		nightly := number(hotel["price_per_night"])
		assert.Equal(t, nightly*float64(spec.Duration)*float64(spec.Travelers),
			number(hotel["estimated_price"]))

		score := number(hotel["score"])
		if i > 0 {
			assert.LessOrEqual(t, score, lastScore)
		}
		lastScore = score
	}
}

func TestNightlyRateByPriceLevel(t *testing.T) {
	assert.Equal(t, 50.0, nightlyRate(1))
	assert.Equal(t, 100.0, nightlyRate(2))
	assert.Equal(t, 200.0, nightlyRate(3))
	assert.Equal(t, 400.0, nightlyRate(4))
	assert.Equal(t, 100.0, nightlyRate(0))
}

func TestHotelScorePrefersMatchingStyle(t *testing.T) {
	budgetMatch := hotelScore(4.0, 1, "budget")
	budgetMismatch := hotelScore(4.0, 4, "budget")
	assert.Equal(t, budgetMatch, budgetMismatch+20)

	luxuryMatch := hotelScore(4.0, 4, "luxury")
	assert.Equal(t, 60.0, luxuryMatch)
}
