package stage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripplanner/models"
)

func TestRecommendationProviderContract(t *testing.T) {
	p := &RecommendationProvider{}

	_, err := p.Run(context.Background(), Input{Spec: models.TripSpec{}})
	require.Error(t, err)

	var ce *ContractError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, []string{"destination"}, ce.Missing)
}

func TestRecommendationProviderTemplates(t *testing.T) {
	// No API key configured, so attraction lookup degrades and the
	// built-in templates carry the payload.
	p := &RecommendationProvider{}

	data, err := p.Run(context.Background(), Input{Spec: testSpec()})
	require.NoError(t, err)

	assert.Equal(t, "Paris", data["destination"])

	byActivity := getMap(data, "activity_recommendations")
	require.NotNil(t, byActivity)
	require.Contains(t, byActivity, "culture")
	require.Contains(t, byActivity, "food")
	assert.NotContains(t, byActivity, "shopping")

	total := 0
	for _, activity := range []string{"culture", "food"} {
		recs := getSlice(byActivity, activity)
		assert.NotEmpty(t, recs)
		assert.LessOrEqual(t, len(recs), 5)
		total += len(recs)

		for _, r := range recs {
			rec, ok := r.(map[string]any)
			require.True(t, ok)
			assert.NotEmpty(t, rec["name"])
			assert.Equal(t, activity, rec["type"])
			assert.Greater(t, number(rec["estimated_cost"]), 0.0)
			assert.NotEmpty(t, rec["description"])
			assert.NotEmpty(t, rec["tips"])
		}
	}
	assert.Equal(t, total, data["total_recommendations"])

	assert.NotEmpty(t, getSlice(data, "general_recommendations"))
	assert.NotEmpty(t, getSlice(data, "seasonal_recommendations"))
	assert.NotEmpty(t, getSlice(data, "budget_considerations"))
}

func TestRecommendationsFilteredByBudget(t *testing.T) {
	p := &RecommendationProvider{}
	spec := testSpec()
	spec.Budget = 50 // per-activity cap of 5 excludes everything
	spec.Preferences.Activities = []string{"adventure"}

	data, err := p.Run(context.Background(), Input{Spec: spec})
	require.NoError(t, err)

	byActivity := getMap(data, "activity_recommendations")
	assert.Empty(t, getSlice(byActivity, "adventure"))
	assert.Equal(t, 0, data["total_recommendations"])
}
