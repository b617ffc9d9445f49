package planner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"tripplanner/models"
	"tripplanner/services/stage"
	"tripplanner/utils"
)

// Orchestrator drives the stage pipeline for one session at a time.
// It never owns session state: every result is written through the
// store before the next stage starts, so a concurrent status read
// always observes a consistent prefix of the pipeline.
type Orchestrator struct {
	Store           SessionStore
	Recommendation  stage.Provider
	Flight          stage.Provider
	Hotel           stage.Provider
	Itinerary       stage.Provider
	Budget          stage.Provider
	SessionDeadline time.Duration
}

// Run executes the pipeline for a claimed session. It is safe to call
// from any worker: the claim guard guarantees at most one execution per
// session. Run never propagates a panic or an error to its caller; all
// failures end up in the session's error record.
func (o *Orchestrator) Run(ctx context.Context, sessionID string) {
	logger := utils.GetLogger()

	defer func() {
		if r := recover(); r != nil {
			logger.Error("planning worker panicked",
				zap.String("sessionID", sessionID), zap.Any("panic", r))
			o.failSession(sessionID, CodeContractViolation,
				fmt.Sprintf("internal pipeline error: %v", r))
		}
	}()

	claimed, err := o.Store.Claim(sessionID)
	if err != nil {
		logger.Error("failed to claim session", zap.String("sessionID", sessionID), zap.Error(err))
		return
	}
	if !claimed {
		logger.Warn("session already claimed, skipping", zap.String("sessionID", sessionID))
		return
	}

	if o.SessionDeadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.SessionDeadline)
		defer cancel()
	}

	sess, err := o.Store.Get(sessionID)
	if err != nil {
		logger.Error("failed to load claimed session", zap.String("sessionID", sessionID), zap.Error(err))
		return
	}
	spec := sess.Spec
	logger.Info("starting trip planning",
		zap.String("sessionID", sessionID), zap.String("destination", spec.Destination))

	// Stage 1: recommendations.
	recommendations, ok := o.runStage(ctx, sessionID, o.Recommendation, stage.Input{Spec: spec})
	if !ok {
		return
	}

	// Stages 2 and 3: flights and hotels are independent given the
	// spec, so they run concurrently. Results are recorded in fixed
	// order once both finish.
	if err := o.setCurrentStage(sessionID, models.StageFlights); err != nil {
		o.failSession(sessionID, CodeContractViolation, err.Error())
		return
	}

	var (
		mu      sync.Mutex
		flights map[string]any
		hotels  map[string]any
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		data, err := o.Flight.Run(gctx, stage.Input{Spec: spec})
		if err != nil {
			return err
		}
		mu.Lock()
		flights = data
		mu.Unlock()
		return nil
	})
	g.Go(func() error {
		data, err := o.Hotel.Run(gctx, stage.Input{Spec: spec})
		if err != nil {
			return err
		}
		mu.Lock()
		hotels = data
		mu.Unlock()
		return nil
	})
	if err := g.Wait(); err != nil {
		o.failStage(sessionID, err)
		return
	}
	if err := o.recordResult(sessionID, models.StageFlights, flights, models.StageHotels); err != nil {
		o.failSession(sessionID, CodeContractViolation, err.Error())
		return
	}
	if err := o.recordResult(sessionID, models.StageHotels, hotels, models.StageItinerary); err != nil {
		o.failSession(sessionID, CodeContractViolation, err.Error())
		return
	}
	if !o.checkDeadline(ctx, sessionID) {
		return
	}

	// Stage 4: itinerary needs recommendations, flights and hotels.
	itinerary, ok := o.runStage(ctx, sessionID, o.Itinerary, stage.Input{
		Spec:            spec,
		Recommendations: recommendations,
		Flights:         flights,
		Hotels:          hotels,
	})
	if !ok {
		return
	}

	// Stage 5: budget analysis closes the pipeline.
	budget, ok := o.runStage(ctx, sessionID, o.Budget, stage.Input{
		Spec:      spec,
		Flights:   flights,
		Hotels:    hotels,
		Itinerary: itinerary,
	})
	if !ok {
		return
	}

	plan := buildTripPlan(sessionID, spec, recommendations, flights, hotels, itinerary, budget)
	err = o.Store.Update(sessionID, func(sess *models.PlanningSession) error {
		now := time.Now()
		sess.Status = models.StatusCompleted
		sess.CurrentStage = ""
		sess.Plan = plan
		sess.CompletedAt = &now
		return nil
	})
	if err != nil {
		logger.Error("failed to finalize session", zap.String("sessionID", sessionID), zap.Error(err))
		return
	}
	logger.Info("trip planning completed",
		zap.String("sessionID", sessionID), zap.String("destination", spec.Destination))
}

// runStage executes one provider and records its result. The bool
// result reports whether the pipeline may continue.
func (o *Orchestrator) runStage(ctx context.Context, sessionID string, provider stage.Provider, in stage.Input) (map[string]any, bool) {
	if !o.checkDeadline(ctx, sessionID) {
		return nil, false
	}
	if err := o.setCurrentStage(sessionID, provider.Name()); err != nil {
		o.failSession(sessionID, CodeContractViolation, err.Error())
		return nil, false
	}

	data, err := provider.Run(ctx, in)
	if err != nil {
		o.failStage(sessionID, err)
		return nil, false
	}

	next := nextStageAfter(provider.Name())
	if err := o.recordResult(sessionID, provider.Name(), data, next); err != nil {
		o.failSession(sessionID, CodeContractViolation, err.Error())
		return nil, false
	}
	return data, true
}

func nextStageAfter(name string) string {
	for i, stageName := range models.StageNames {
		if stageName == name && i+1 < len(models.StageNames) {
			return models.StageNames[i+1]
		}
	}
	return ""
}

func (o *Orchestrator) setCurrentStage(sessionID, stageName string) error {
	return o.Store.Update(sessionID, func(sess *models.PlanningSession) error {
		sess.CurrentStage = stageName
		return nil
	})
}

// recordResult writes the stage payload and advances the progress
// marker in one atomic update, before the next stage starts.
func (o *Orchestrator) recordResult(sessionID, stageName string, data map[string]any, nextStage string) error {
	return o.Store.Update(sessionID, func(sess *models.PlanningSession) error {
		sess.StageResults = append(sess.StageResults, models.StageResult{
			Stage:       stageName,
			Data:        data,
			CompletedAt: time.Now(),
		})
		sess.CurrentStage = nextStage
		return nil
	})
}

// checkDeadline fails the session with a timeout error once the
// session context expires. This is also the worker's cancellation
// point between stages.
func (o *Orchestrator) checkDeadline(ctx context.Context, sessionID string) bool {
	if ctx.Err() == nil {
		return true
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		o.failSession(sessionID, CodeTimeout, "session exceeded its planning deadline")
	} else {
		o.failSession(sessionID, CodeTimeout, "session canceled before completion")
	}
	return false
}

// failStage maps a provider error to the session's error record. A
// provider error is always a contract violation; degraded external
// calls never surface here. A context error during a stage is a
// timeout.
func (o *Orchestrator) failStage(sessionID string, err error) {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		o.failSession(sessionID, CodeTimeout, "session exceeded its planning deadline")
		return
	}
	var ce *stage.ContractError
	if errors.As(err, &ce) {
		o.failSession(sessionID, CodeContractViolation, ce.Error())
		return
	}
	o.failSession(sessionID, CodeContractViolation, err.Error())
}

func (o *Orchestrator) failSession(sessionID, kind, message string) {
	logger := utils.GetLogger()
	err := o.Store.Update(sessionID, func(sess *models.PlanningSession) error {
		if sess.Terminal() {
			return nil
		}
		now := time.Now()
		sess.Status = models.StatusFailed
		sess.CurrentStage = ""
		sess.Error = &models.ErrorRecord{Kind: kind, Message: message}
		sess.CompletedAt = &now
		return nil
	})
	if err != nil {
		logger.Error("failed to record session failure",
			zap.String("sessionID", sessionID), zap.Error(err))
		return
	}
	logger.Warn("trip planning failed",
		zap.String("sessionID", sessionID), zap.String("kind", kind), zap.String("message", message))
}

// buildTripPlan assembles the terminal artifact. Total cost and the
// remaining budget come from the budget analysis summary, which sums
// the per-stage costs.
func buildTripPlan(sessionID string, spec models.TripSpec, recommendations, flights, hotels, itinerary, budget map[string]any) *models.TripPlan {
	var totalCost, remaining float64
	if summary, ok := budget["summary"].(map[string]any); ok {
		totalCost = asFloat(summary["total_cost"])
		remaining = asFloat(summary["remaining"])
	}

	return &models.TripPlan{
		TripID:          "trip_" + sessionID,
		Destination:     spec.Destination,
		StartDate:       spec.StartDate,
		EndDate:         spec.EndDate,
		Duration:        spec.Duration,
		Flights:         flights,
		Hotels:          hotels,
		Itinerary:       itinerary,
		Recommendations: recommendations,
		BudgetAnalysis:  budget,
		TotalCost:       totalCost,
		BudgetRemaining: remaining,
		Status:          models.StatusCompleted,
		CompletedAt:     time.Now(),
	}
}

func asFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	}
	return 0
}
