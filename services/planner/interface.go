package planner

import (
	"go.uber.org/zap"

	"tripplanner/models"
	"tripplanner/utils"
)

// PlannerService defines the trip planning operations exposed to the
// HTTP boundary.
type PlannerService interface {
	// SubmitTrip validates the request, creates a queued session and
	// dispatches it to a worker. It returns immediately with the new
	// session; it never waits for planning to finish.
	SubmitTrip(req models.TripRequest) (*models.PlanningSession, error)
	// SessionStatus returns the current snapshot of a session.
	SessionStatus(sessionID string) (*models.SessionView, error)
}

// DefaultPlannerService is the production implementation backed by a
// session store and a worker dispatcher.
type DefaultPlannerService struct {
	Store      SessionStore
	Dispatcher Dispatcher
}

func (s *DefaultPlannerService) SubmitTrip(req models.TripRequest) (*models.PlanningSession, error) {
	spec, err := ProcessPreferences(req)
	if err != nil {
		return nil, err
	}

	sess, err := s.Store.Create(spec)
	if err != nil {
		return nil, err
	}

	if err := s.Dispatcher.Dispatch(sess.ID); err != nil {
		// The session stays queued; surfacing the dispatch failure lets
		// the client retry the submission.
		utils.GetLogger().Error("failed to dispatch planning session",
			zap.String("sessionID", sess.ID), zap.Error(err))
		return nil, err
	}

	utils.GetLogger().Info("planning session submitted",
		zap.String("sessionID", sess.ID), zap.String("destination", spec.Destination))
	return sess, nil
}

func (s *DefaultPlannerService) SessionStatus(sessionID string) (*models.SessionView, error) {
	sess, err := s.Store.Get(sessionID)
	if err != nil {
		return nil, err
	}

	view := &models.SessionView{
		SessionID:    sess.ID,
		Status:       sess.Status,
		CurrentStage: sess.CurrentStage,
		StageResults: sess.StageResults,
		Error:        sess.Error,
		CreatedAt:    sess.CreatedAt,
		CompletedAt:  sess.CompletedAt,
	}
	// The plan is only exposed once the session completed, so clients
	// never see a partially assembled artifact.
	if sess.Status == models.StatusCompleted {
		view.TripPlan = sess.Plan
	}
	return view, nil
}
