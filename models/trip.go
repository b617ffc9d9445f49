package models

import "time"

// TripRequest is the raw, loosely-typed submission payload. Required
// fields are pointers so that absent and null values can be told apart
// from zero values during validation.
type TripRequest struct {
	Destination *string         `json:"destination"`
	StartDate   *string         `json:"start_date"`
	EndDate     *string         `json:"end_date"`
	Budget      *float64        `json:"budget"`
	Preferences *RawPreferences `json:"preferences"`
	Origin      string          `json:"origin"`
	Travelers   *int            `json:"travelers"`
}

// RawPreferences mirrors the nested preference record as submitted.
type RawPreferences struct {
	Activities               []string `json:"activities"`
	AccommodationStyle       string   `json:"accommodation_style"`
	TransportationPreference string   `json:"transportation_preference"`
	DiningPreference         string   `json:"dining_preference"`
	Pace                     string   `json:"pace"`
	SpecialRequirements      []string `json:"special_requirements"`
	MustSee                  []string `json:"must_see"`
	Avoid                    []string `json:"avoid"`
}

// Preferences is the canonicalized preference set. Enum fields always
// hold a value from the fixed vocabulary.
type Preferences struct {
	Activities               []string `json:"activities"`
	AccommodationStyle       string   `json:"accommodation_style"`
	TransportationPreference string   `json:"transportation_preference"`
	DiningPreference         string   `json:"dining_preference"`
	Pace                     string   `json:"pace"`
	SpecialRequirements      []string `json:"special_requirements,omitempty"`
	MustSee                  []string `json:"must_see,omitempty"`
	Avoid                    []string `json:"avoid,omitempty"`
}

// TripSpec is the normalized trip request. Immutable once created.
type TripSpec struct {
	Destination  string      `json:"destination"`
	Origin       string      `json:"origin,omitempty"`
	StartDate    string      `json:"start_date"`
	EndDate      string      `json:"end_date"`
	Duration     int         `json:"duration"`
	Budget       float64     `json:"budget"`
	Travelers    int         `json:"travelers"`
	Preferences  Preferences `json:"preferences"`
	NormalizedAt time.Time   `json:"normalized_at"`
}
