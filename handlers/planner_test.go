package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripplanner/models"
	"tripplanner/services/planner"
	"tripplanner/services/stage"
)

type stubProvider struct {
	name    string
	payload map[string]any
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Run(ctx context.Context, in stage.Input) (map[string]any, error) {
	if s.payload != nil {
		return s.payload, nil
	}
	return map[string]any{"stage": s.name, "destination": in.Spec.Destination}, nil
}

func newTestRouter(t *testing.T) (*gin.Engine, planner.SessionStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := planner.NewMemorySessionStore()
	orch := &planner.Orchestrator{
		Store:          store,
		Recommendation: &stubProvider{name: models.StageRecommendations},
		Flight:         &stubProvider{name: models.StageFlights},
		Hotel:          &stubProvider{name: models.StageHotels},
		Itinerary:      &stubProvider{name: models.StageItinerary},
		Budget: &stubProvider{
			name: models.StageBudget,
			payload: map[string]any{
				"summary": map[string]any{"total_cost": 1500.0, "remaining": 500.0},
			},
		},
		SessionDeadline: time.Minute,
	}
	service := &planner.DefaultPlannerService{
		Store:      store,
		Dispatcher: &planner.GoroutineDispatcher{Orchestrator: orch},
	}

	handler := &PlannerHandler{Service: service}
	router := gin.New()
	router.POST("/api/planner/trips", handler.SubmitTrip)
	router.GET("/api/planner/sessions/:sessionID", handler.SessionStatus)
	return router, store
}

func postJSON(t *testing.T, router *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func validTripBody() map[string]any {
	return map[string]any{
		"destination": "Paris",
		"start_date":  "2026-06-01",
		"end_date":    "2026-06-04",
		"budget":      2000,
		"travelers":   2,
		"preferences": map[string]any{
			"activities": []string{"culture", "food"},
			"pace":       "relaxed",
		},
	}
}

func TestSubmitTripReportsAllMissingFields(t *testing.T) {
	router, _ := newTestRouter(t)

	body := validTripBody()
	delete(body, "destination")
	delete(body, "budget")

	w := postJSON(t, router, "/api/planner/trips", body)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp struct {
		Error  string   `json:"error"`
		Fields []string `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp.Fields, "destination: required")
	assert.Contains(t, resp.Fields, "budget: required")
}

func TestSubmitTripAcceptsAndCompletes(t *testing.T) {
	router, _ := newTestRouter(t)

	w := postJSON(t, router, "/api/planner/trips", validTripBody())
	require.Equal(t, http.StatusAccepted, w.Code)

	var accepted struct {
		SessionID string `json:"session_id"`
		Status    string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &accepted))
	require.NotEmpty(t, accepted.SessionID)
	assert.Equal(t, models.StatusQueued, accepted.Status)

	var view models.SessionView
	require.Eventually(t, func() bool {
		req := httptest.NewRequest(http.MethodGet, "/api/planner/sessions/"+accepted.SessionID, nil)
		poll := httptest.NewRecorder()
		router.ServeHTTP(poll, req)
		if poll.Code != http.StatusOK {
			return false
		}
		if err := json.Unmarshal(poll.Body.Bytes(), &view); err != nil {
			return false
		}
		return view.Status == models.StatusCompleted
	}, 5*time.Second, 10*time.Millisecond)

	require.Len(t, view.StageResults, len(models.StageNames))
	for i, name := range models.StageNames {
		assert.Equal(t, name, view.StageResults[i].Stage)
	}

	require.NotNil(t, view.TripPlan)
	assert.Equal(t, "Paris", view.TripPlan.Destination)
	assert.Equal(t, 3, view.TripPlan.Duration)
	assert.Equal(t, 1500.0, view.TripPlan.TotalCost)
	assert.Equal(t, 500.0, view.TripPlan.BudgetRemaining)
	require.NotNil(t, view.CompletedAt)
}

func TestSessionStatusBeforeCompletionHidesPlan(t *testing.T) {
	router, store := newTestRouter(t)

	// A session nobody has claimed stays queued with no plan.
	sess, err := store.Create(models.TripSpec{Destination: "Rome", StartDate: "2026-07-01", EndDate: "2026-07-03", Duration: 2, Budget: 1000, Travelers: 1})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/planner/sessions/"+sess.ID, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var view models.SessionView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, models.StatusQueued, view.Status)
	assert.Nil(t, view.TripPlan)
	assert.Nil(t, view.Error)
}

func TestSessionStatusUnknownSession(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/planner/sessions/does-not-exist", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStageEndpointRunsSingleStage(t *testing.T) {
	gin.SetMode(gin.TestMode)

	sh := &StageHandler{
		Recommendation: &stubProvider{name: models.StageRecommendations},
		Flight:         &stage.FlightProvider{},
		Hotel:          &stubProvider{name: models.StageHotels},
		Itinerary:      &stubProvider{name: models.StageItinerary},
		Budget:         &stubProvider{name: models.StageBudget},
	}
	router := gin.New()
	router.POST("/api/stages/flights/search", sh.SearchFlights)

	w := postJSON(t, router, "/api/stages/flights/search", validTripBody())
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.StageRunResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, models.StageFlights, resp.Stage)
	assert.Equal(t, "success", resp.Status)
	require.NotNil(t, resp.Data)
	assert.Contains(t, resp.Data, "flight_options")
	assert.Contains(t, resp.Data, "search_criteria")
}

func TestStageEndpointValidatesInput(t *testing.T) {
	gin.SetMode(gin.TestMode)

	sh := &StageHandler{Flight: &stage.FlightProvider{}}
	router := gin.New()
	router.POST("/api/stages/flights/search", sh.SearchFlights)

	w := postJSON(t, router, "/api/stages/flights/search", map[string]any{"origin": "JFK"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
