package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"tripplanner/models"
	"tripplanner/services/planner"
)

// PlannerHandler exposes trip submission and session polling.
type PlannerHandler struct {
	Service planner.PlannerService
}

// SubmitTrip accepts a trip request, creates a planning session and
// returns immediately. The pipeline runs in the background; clients
// poll the session endpoint for progress.
func (h *PlannerHandler) SubmitTrip(c *gin.Context) {
	var req models.TripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	sess, err := h.Service.SubmitTrip(req)
	if err != nil {
		writePlanError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"session_id": sess.ID,
		"status":     sess.Status,
		"message":    "trip planning started",
	})
}

// SessionStatus returns the current snapshot of a planning session,
// including every stage result recorded so far.
func (h *PlannerHandler) SessionStatus(c *gin.Context) {
	sessionID := c.Param("sessionID")

	view, err := h.Service.SessionStatus(sessionID)
	if err != nil {
		writePlanError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// writePlanError maps planner error kinds to HTTP responses.
func writePlanError(c *gin.Context, err error) {
	var pe *planner.PlanError
	if !errors.As(err, &pe) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	switch pe.Code {
	case planner.CodeInvalidInput:
		c.JSON(http.StatusBadRequest, gin.H{"error": pe.Message, "fields": pe.Fields})
	case planner.CodeNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": pe.Message})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": pe.Message})
	}
}
