package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"tripplanner/models"
	"tripplanner/services/planner"
	"tripplanner/services/stage"
	"tripplanner/utils"
)

// StageHandler exposes each pipeline stage as a standalone endpoint so
// stages can be exercised and debugged in isolation. Stages that need
// prior payloads accept them inline in the request body.
type StageHandler struct {
	Recommendation stage.Provider
	Flight         stage.Provider
	Hotel          stage.Provider
	Itinerary      stage.Provider
	Budget         stage.Provider
}

type stageRequest struct {
	models.TripRequest
	Recommendations map[string]any `json:"recommendations,omitempty"`
	Flights         map[string]any `json:"flights,omitempty"`
	Hotels          map[string]any `json:"hotels,omitempty"`
	Itinerary       map[string]any `json:"itinerary,omitempty"`
}

func (h *StageHandler) SearchFlights(c *gin.Context)      { h.run(c, h.Flight) }
func (h *StageHandler) SearchHotels(c *gin.Context)       { h.run(c, h.Hotel) }
func (h *StageHandler) GetRecommendations(c *gin.Context) { h.run(c, h.Recommendation) }
func (h *StageHandler) GenerateItinerary(c *gin.Context)  { h.run(c, h.Itinerary) }
func (h *StageHandler) AnalyzeBudget(c *gin.Context)      { h.run(c, h.Budget) }

func (h *StageHandler) run(c *gin.Context, provider stage.Provider) {
	var req stageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	spec, err := planner.ProcessPreferences(req.TripRequest)
	if err != nil {
		writePlanError(c, err)
		return
	}

	data, err := provider.Run(c.Request.Context(), stage.Input{
		Spec:            spec,
		Recommendations: req.Recommendations,
		Flights:         req.Flights,
		Hotels:          req.Hotels,
		Itinerary:       req.Itinerary,
	})
	if err != nil {
		utils.JSONError(c, http.StatusUnprocessableEntity, "stage execution failed", err.Error())
		return
	}

	c.JSON(http.StatusOK, models.StageRunResponse{
		Stage:     provider.Name(),
		Status:    "success",
		Data:      data,
		Timestamp: time.Now(),
	})
}
