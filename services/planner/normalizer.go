package planner

import (
	"fmt"
	"time"

	"tripplanner/models"
)

const dateLayout = "2006-01-02"

// Fixed preference vocabularies. Unknown enum values are silently
// replaced with their documented default; unknown activity tags are
// dropped. Structural problems, by contrast, fail the whole request.
var (
	validActivities = map[string]bool{
		"culture": true, "adventure": true, "relaxation": true,
		"food": true, "shopping": true, "nature": true,
	}
	validAccommodation = map[string]bool{
		"luxury": true, "budget": true, "moderate": true,
		"boutique": true, "hostel": true, "apartment": true,
	}
	validTransportation = map[string]bool{
		"public": true, "private": true, "walking": true, "biking": true, "mixed": true,
	}
	validDining = map[string]bool{
		"fine_dining": true, "casual": true, "street_food": true,
		"local_cuisine": true, "mixed": true,
	}
	validPace = map[string]bool{
		"relaxed": true, "moderate": true, "fast": true,
	}
)

const (
	defaultAccommodation  = "moderate"
	defaultTransportation = "mixed"
	defaultDining         = "mixed"
	defaultPace           = "moderate"
)

// ProcessPreferences validates and canonicalizes a raw trip request
// into an immutable TripSpec. Every structural failure is collected so
// the client sees the full list in one response.
func ProcessPreferences(req models.TripRequest) (models.TripSpec, error) {
	var fields []string

	if req.Destination == nil || *req.Destination == "" {
		fields = append(fields, "destination: required")
	}
	if req.Budget == nil {
		fields = append(fields, "budget: required")
	} else if *req.Budget <= 0 {
		fields = append(fields, "budget: must be positive")
	}
	if req.Preferences == nil {
		fields = append(fields, "preferences: required")
	}

	var start, end time.Time
	startOK, endOK := false, false
	if req.StartDate == nil || *req.StartDate == "" {
		fields = append(fields, "start_date: required")
	} else if t, err := time.Parse(dateLayout, *req.StartDate); err != nil {
		fields = append(fields, fmt.Sprintf("start_date: invalid date %q", *req.StartDate))
	} else {
		start, startOK = t, true
	}
	if req.EndDate == nil || *req.EndDate == "" {
		fields = append(fields, "end_date: required")
	} else if t, err := time.Parse(dateLayout, *req.EndDate); err != nil {
		fields = append(fields, fmt.Sprintf("end_date: invalid date %q", *req.EndDate))
	} else {
		end, endOK = t, true
	}
	if startOK && endOK && end.Before(start) {
		fields = append(fields, "end_date: before start_date")
	}

	travelers := 1
	if req.Travelers != nil {
		if *req.Travelers < 1 {
			fields = append(fields, "travelers: must be at least 1")
		} else {
			travelers = *req.Travelers
		}
	}

	if len(fields) > 0 {
		return models.TripSpec{}, NewInvalidInputError(fields)
	}

	return models.TripSpec{
		Destination:  *req.Destination,
		Origin:       req.Origin,
		StartDate:    *req.StartDate,
		EndDate:      *req.EndDate,
		Duration:     int(end.Sub(start).Hours() / 24),
		Budget:       *req.Budget,
		Travelers:    travelers,
		Preferences:  normalizePreferences(*req.Preferences),
		NormalizedAt: time.Now(),
	}, nil
}

func normalizePreferences(raw models.RawPreferences) models.Preferences {
	activities := make([]string, 0, len(raw.Activities))
	for _, a := range raw.Activities {
		if validActivities[a] {
			activities = append(activities, a)
		}
	}

	return models.Preferences{
		Activities:               activities,
		AccommodationStyle:       pickValid(raw.AccommodationStyle, validAccommodation, defaultAccommodation),
		TransportationPreference: pickValid(raw.TransportationPreference, validTransportation, defaultTransportation),
		DiningPreference:         pickValid(raw.DiningPreference, validDining, defaultDining),
		Pace:                     pickValid(raw.Pace, validPace, defaultPace),
		SpecialRequirements:      raw.SpecialRequirements,
		MustSee:                  raw.MustSee,
		Avoid:                    raw.Avoid,
	}
}

func pickValid(value string, vocabulary map[string]bool, fallback string) string {
	if vocabulary[value] {
		return value
	}
	return fallback
}
