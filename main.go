package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"

	"tripplanner/config"
	"tripplanner/cron"
	"tripplanner/handlers"
	"tripplanner/middleware"
	"tripplanner/routes"
	"tripplanner/services/planner"
	"tripplanner/services/stage"
	"tripplanner/utils"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware())

	// Session store.
	var store planner.SessionStore
	switch config.AppConfig.SessionStore {
	case "redis":
		utils.InitSessionCache()
		ttl := time.Duration(config.AppConfig.SessionTTLMin) * time.Minute
		store = planner.NewRedisSessionStore(utils.GetSessionCacheClient(), ttl)
	default:
		store = planner.NewMemorySessionStore()
	}

	// Stage providers.
	recommendationProvider := stage.NewRecommendationProvider()
	flightProvider := stage.NewFlightProvider()
	hotelProvider := stage.NewHotelProvider()
	itineraryProvider := stage.NewItineraryProvider()
	budgetProvider := stage.NewBudgetProvider()

	orchestrator := &planner.Orchestrator{
		Store:           store,
		Recommendation:  recommendationProvider,
		Flight:          flightProvider,
		Hotel:           hotelProvider,
		Itinerary:       itineraryProvider,
		Budget:          budgetProvider,
		SessionDeadline: time.Duration(config.AppConfig.SessionDeadlineMin) * time.Minute,
	}

	// Worker dispatcher.
	var dispatcher planner.Dispatcher
	switch config.AppConfig.WorkerMode {
	case "queue":
		dispatcher = planner.NewQueueDispatcher(asynq.RedisClientOpt{
			Addr:     config.AppConfig.RedisAddr,
			Password: config.AppConfig.RedisPassword,
			DB:       config.AppConfig.RedisQueueDB,
		})
		cron.InitPlannerWorker(orchestrator)
	default:
		dispatcher = &planner.GoroutineDispatcher{Orchestrator: orchestrator}
	}

	plannerService := &planner.DefaultPlannerService{
		Store:      store,
		Dispatcher: dispatcher,
	}

	plannerHandler := &handlers.PlannerHandler{Service: plannerService}
	stageHandler := &handlers.StageHandler{
		Recommendation: recommendationProvider,
		Flight:         flightProvider,
		Hotel:          hotelProvider,
		Itinerary:      itineraryProvider,
		Budget:         budgetProvider,
	}

	routes.RegisterRoutes(router, plannerHandler, stageHandler)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
