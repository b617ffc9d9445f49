package models

import "time"

// Session states. Transitions are monotonic: queued -> running ->
// completed|failed. Completed and failed are terminal.
const (
	StatusQueued    = "queued"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Stage names, in pipeline order. Recommendations, flights and hotels
// depend only on the trip spec; itinerary needs all three; budget
// analysis needs flights, hotels and the itinerary.
const (
	StageRecommendations = "recommendations"
	StageFlights         = "flights"
	StageHotels          = "hotels"
	StageItinerary       = "itinerary"
	StageBudget          = "budget_analysis"
)

// StageNames lists all five stages in execution order.
var StageNames = []string{
	StageRecommendations,
	StageFlights,
	StageHotels,
	StageItinerary,
	StageBudget,
}

// StageResult is the opaque payload a stage produced, tagged with the
// stage name and completion time.
type StageResult struct {
	Stage       string         `json:"stage"`
	Data        map[string]any `json:"data"`
	CompletedAt time.Time      `json:"completed_at"`
}

// ErrorRecord describes why a session failed.
type ErrorRecord struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// PlanningSession is the mutable record of one trip-planning request.
// It is owned by the session store; stage results are appended in
// execution order.
type PlanningSession struct {
	ID           string        `json:"session_id"`
	Status       string        `json:"status"`
	CurrentStage string        `json:"current_stage,omitempty"`
	Spec         TripSpec      `json:"trip_spec"`
	StageResults []StageResult `json:"stage_results"`
	Plan         *TripPlan     `json:"trip_plan,omitempty"`
	Error        *ErrorRecord  `json:"error,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	CompletedAt  *time.Time    `json:"completed_at,omitempty"`
}

// Terminal reports whether the session reached a final state.
func (s *PlanningSession) Terminal() bool {
	return s.Status == StatusCompleted || s.Status == StatusFailed
}

// Result returns the recorded payload for a stage, if attempted.
func (s *PlanningSession) Result(stage string) (StageResult, bool) {
	for _, r := range s.StageResults {
		if r.Stage == stage {
			return r, true
		}
	}
	return StageResult{}, false
}

// SessionView is the client-facing snapshot returned by the status
// endpoint.
type SessionView struct {
	SessionID    string        `json:"session_id"`
	Status       string        `json:"status"`
	CurrentStage string        `json:"current_stage,omitempty"`
	StageResults []StageResult `json:"stage_results,omitempty"`
	TripPlan     *TripPlan     `json:"trip_plan,omitempty"`
	Error        *ErrorRecord  `json:"error,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	CompletedAt  *time.Time    `json:"completed_at,omitempty"`
}

// PlanTaskPayload is the queue payload for a planning job.
type PlanTaskPayload struct {
	SessionID string `json:"session_id"`
}
