package models

import "time"

// TripPlan is the terminal artifact of a completed session: the spec
// echo, every stage payload and the derived totals. Total cost and
// remaining budget are taken from the budget analysis summary, which
// is computed as the sum of the per-stage costs.
type TripPlan struct {
	TripID          string         `json:"trip_id"`
	Destination     string         `json:"destination"`
	StartDate       string         `json:"start_date"`
	EndDate         string         `json:"end_date"`
	Duration        int            `json:"duration"`
	Flights         map[string]any `json:"flights"`
	Hotels          map[string]any `json:"hotels"`
	Itinerary       map[string]any `json:"itinerary"`
	Recommendations map[string]any `json:"recommendations"`
	BudgetAnalysis  map[string]any `json:"budget_analysis"`
	TotalCost       float64        `json:"total_cost"`
	BudgetRemaining float64        `json:"budget_remaining"`
	Status          string         `json:"status"`
	CompletedAt     time.Time      `json:"completed_at"`
}

// StageRunResponse wraps the output of a single stage when invoked
// directly through its HTTP endpoint.
type StageRunResponse struct {
	Stage     string         `json:"stage"`
	Status    string         `json:"status"`
	Data      map[string]any `json:"data"`
	Timestamp time.Time      `json:"timestamp"`
}
