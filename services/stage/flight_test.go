package stage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripplanner/models"
)

func testSpec() models.TripSpec {
	return models.TripSpec{
		Destination: "Paris",
		Origin:      "JFK",
		StartDate:   "2026-06-01",
		EndDate:     "2026-06-04",
		Duration:    3,
		Budget:      5000,
		Travelers:   2,
		Preferences: models.Preferences{
			Activities:               []string{"culture", "food"},
			AccommodationStyle:       "moderate",
			TransportationPreference: "mixed",
			DiningPreference:         "mixed",
			Pace:                     "moderate",
		},
	}
}

func TestFlightProviderContract(t *testing.T) {
	p := &FlightProvider{}

	_, err := p.Run(context.Background(), Input{Spec: models.TripSpec{}})
	require.Error(t, err)

	var ce *ContractError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, models.StageFlights, ce.Provider)
	assert.ElementsMatch(t, []string{"destination", "start_date", "end_date"}, ce.Missing)
}

func TestFlightProviderDegradesToSynthetic(t *testing.T) {
	// No credentials configured, so the live search fails immediately
	// and the provider substitutes synthetic options.
	p := &FlightProvider{}

	data, err := p.Run(context.Background(), Input{Spec: testSpec()})
	require.NoError(t, err)

	options := getSlice(data, "flight_options")
	require.NotEmpty(t, options)
	assert.Equal(t, len(options), data["total_options"])

	criteria := getMap(data, "search_criteria")
	require.NotNil(t, criteria)
	assert.Equal(t, "Paris", criteria["destination"])
	assert.Equal(t, "JFK", criteria["origin"])

	for _, opt := range options {
		option, ok := opt.(map[string]any)
		require.True(t, ok)

		total := number(option["total_price"])
		assert.Greater(t, total, 0.0)
		assert.LessOrEqual(t, total, 5000.0)
		assert.InDelta(t, total/2, number(option["price_per_person"]), 0.001)

		outbound := getMap(option, "outbound")
		require.NotNil(t, outbound)
		assert.Equal(t, "JFK", getMap(outbound, "departure")["airport"])
		assert.Equal(t, "Paris", getMap(outbound, "arrival")["airport"])

		ret := getMap(option, "return")
		require.NotNil(t, ret)
		assert.Equal(t, "Paris", getMap(ret, "departure")["airport"])
		assert.Equal(t, "JFK", getMap(ret, "arrival")["airport"])
	}
}

func TestSyntheticFlightsRespectBudget(t *testing.T) {
	p := &FlightProvider{}
	spec := testSpec()
	spec.Budget = 100 // too small for any round trip

	data := p.syntheticFlights(spec)
	assert.Empty(t, getSlice(data, "flight_options"))
	assert.Equal(t, 0, data["total_options"])
}

func TestCombineOffersSortsAndCaps(t *testing.T) {
	offer := func(id, price string) amadeusOffer {
		var o amadeusOffer
		o.ID = id
		o.Price.Total = price
		return o
	}

	outbound := []amadeusOffer{offer("o1", "300"), offer("o2", "100")}
	returning := []amadeusOffer{offer("r1", "200"), offer("r2", "400")}

	options := combineOffers(outbound, returning, 650, 1)
	require.Len(t, options, 3) // o1+r2 at 700 busts the budget

	prices := make([]float64, 0, len(options))
	for _, o := range options {
		prices = append(prices, number(o["total_price"]))
	}
	assert.IsNonDecreasing(t, prices)
	assert.Equal(t, 300.0, prices[0])
}
