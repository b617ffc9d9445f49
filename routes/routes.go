package routes

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"tripplanner/handlers"
	"tripplanner/models"
)

// RegisterPlannerRoutes registers trip submission and session polling.
func RegisterPlannerRoutes(r *gin.Engine, ph *handlers.PlannerHandler) {
	api := r.Group("/api/planner")
	{
		api.POST("/trips", ph.SubmitTrip)
		api.GET("/sessions/:sessionID", ph.SessionStatus)
	}
}

// RegisterStageRoutes registers the standalone per-stage endpoints.
func RegisterStageRoutes(r *gin.Engine, sh *handlers.StageHandler) {
	api := r.Group("/api/stages")
	{
		api.POST("/flights/search", sh.SearchFlights)
		api.POST("/hotels/search", sh.SearchHotels)
		api.POST("/recommendations", sh.GetRecommendations)
		api.POST("/itinerary/generate", sh.GenerateItinerary)
		api.POST("/budget/analyze", sh.AnalyzeBudget)
	}
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"stages": models.StageNames,
		})
	})
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, ph *handlers.PlannerHandler, sh *handlers.StageHandler) {
	// Setup global middleware (e.g., CORS) here.
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	RegisterHealthRoute(r)
	RegisterPlannerRoutes(r, ph)
	RegisterStageRoutes(r, sh)
}
