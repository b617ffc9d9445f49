package planner

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"tripplanner/models"
	"tripplanner/services/tasks"
	"tripplanner/utils"
)

// Dispatcher hands a queued session to a worker. The goroutine
// dispatcher runs the pipeline in-process; the queue dispatcher
// enqueues it for a separate asynq worker pool.
type Dispatcher interface {
	Dispatch(sessionID string) error
}

// GoroutineDispatcher runs each session pipeline on its own goroutine.
// This is the default for single-process deployments.
type GoroutineDispatcher struct {
	Orchestrator *Orchestrator
}

func (d *GoroutineDispatcher) Dispatch(sessionID string) error {
	go d.Orchestrator.Run(context.Background(), sessionID)
	return nil
}

// QueueDispatcher enqueues planning jobs onto the asynq queue so a
// dedicated worker pool picks them up.
type QueueDispatcher struct {
	Client *asynq.Client
}

func NewQueueDispatcher(opts asynq.RedisClientOpt) *QueueDispatcher {
	return &QueueDispatcher{Client: asynq.NewClient(opts)}
}

func (d *QueueDispatcher) Dispatch(sessionID string) error {
	task, err := tasks.NewPlanTripTask(models.PlanTaskPayload{SessionID: sessionID})
	if err != nil {
		return fmt.Errorf("failed to build planning task: %w", err)
	}
	info, err := d.Client.Enqueue(task)
	if err != nil {
		return fmt.Errorf("failed to enqueue planning task: %w", err)
	}
	utils.GetLogger().Info("planning task enqueued",
		zap.String("sessionID", sessionID), zap.String("taskID", info.ID))
	return nil
}
