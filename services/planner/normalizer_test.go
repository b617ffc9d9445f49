package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripplanner/models"
)

func ptr[T any](v T) *T { return &v }

func validTripRequest() models.TripRequest {
	return models.TripRequest{
		Destination: ptr("Paris"),
		StartDate:   ptr("2026-06-01"),
		EndDate:     ptr("2026-06-04"),
		Budget:      ptr(2000.0),
		Travelers:   ptr(2),
		Preferences: &models.RawPreferences{
			Activities:         []string{"culture", "food"},
			AccommodationStyle: "boutique",
			Pace:               "relaxed",
		},
	}
}

func TestProcessPreferencesValid(t *testing.T) {
	spec, err := ProcessPreferences(validTripRequest())
	require.NoError(t, err)

	assert.Equal(t, "Paris", spec.Destination)
	assert.Equal(t, 3, spec.Duration)
	assert.Equal(t, 2, spec.Travelers)
	assert.Equal(t, 2000.0, spec.Budget)
	assert.Equal(t, []string{"culture", "food"}, spec.Preferences.Activities)
	assert.Equal(t, "boutique", spec.Preferences.AccommodationStyle)
	assert.Equal(t, "relaxed", spec.Preferences.Pace)
	assert.False(t, spec.NormalizedAt.IsZero())
}

func TestProcessPreferencesCollectsAllErrors(t *testing.T) {
	_, err := ProcessPreferences(models.TripRequest{})
	require.Error(t, err)
	assert.Equal(t, CodeInvalidInput, ErrorCode(err))

	var pe *PlanError
	require.ErrorAs(t, err, &pe)
	assert.Contains(t, pe.Fields, "destination: required")
	assert.Contains(t, pe.Fields, "budget: required")
	assert.Contains(t, pe.Fields, "start_date: required")
	assert.Contains(t, pe.Fields, "end_date: required")
	assert.Contains(t, pe.Fields, "preferences: required")
}

func TestProcessPreferencesRejectsBadDates(t *testing.T) {
	req := validTripRequest()
	req.StartDate = ptr("June 1st")
	_, err := ProcessPreferences(req)
	require.Error(t, err)

	var pe *PlanError
	require.ErrorAs(t, err, &pe)
	assert.Contains(t, pe.Fields, `start_date: invalid date "June 1st"`)
}

func TestProcessPreferencesRejectsReversedDates(t *testing.T) {
	req := validTripRequest()
	req.StartDate = ptr("2026-06-10")
	req.EndDate = ptr("2026-06-04")
	_, err := ProcessPreferences(req)
	require.Error(t, err)

	var pe *PlanError
	require.ErrorAs(t, err, &pe)
	assert.Contains(t, pe.Fields, "end_date: before start_date")
}

func TestProcessPreferencesRejectsNonPositiveValues(t *testing.T) {
	req := validTripRequest()
	req.Budget = ptr(-50.0)
	req.Travelers = ptr(0)
	_, err := ProcessPreferences(req)
	require.Error(t, err)

	var pe *PlanError
	require.ErrorAs(t, err, &pe)
	assert.Contains(t, pe.Fields, "budget: must be positive")
	assert.Contains(t, pe.Fields, "travelers: must be at least 1")
}

func TestProcessPreferencesDefaultsUnknownEnums(t *testing.T) {
	req := validTripRequest()
	req.Preferences = &models.RawPreferences{
		Activities:               []string{"culture", "skydiving", "food"},
		AccommodationStyle:       "castle",
		TransportationPreference: "teleport",
		DiningPreference:         "molecular",
		Pace:                     "frantic",
	}

	spec, err := ProcessPreferences(req)
	require.NoError(t, err)

	assert.Equal(t, []string{"culture", "food"}, spec.Preferences.Activities)
	assert.Equal(t, "moderate", spec.Preferences.AccommodationStyle)
	assert.Equal(t, "mixed", spec.Preferences.TransportationPreference)
	assert.Equal(t, "mixed", spec.Preferences.DiningPreference)
	assert.Equal(t, "moderate", spec.Preferences.Pace)
}

func TestProcessPreferencesDefaultsTravelers(t *testing.T) {
	req := validTripRequest()
	req.Travelers = nil

	spec, err := ProcessPreferences(req)
	require.NoError(t, err)
	assert.Equal(t, 1, spec.Travelers)
}

func TestProcessPreferencesSameDayTrip(t *testing.T) {
	req := validTripRequest()
	req.EndDate = ptr("2026-06-01")

	spec, err := ProcessPreferences(req)
	require.NoError(t, err)
	assert.Equal(t, 0, spec.Duration)
}
