package tasks

import (
	"encoding/json"

	"github.com/hibiken/asynq"

	"tripplanner/models"
)

const TypePlanTrip = "trip:plan"

func NewPlanTripTask(payload models.PlanTaskPayload) (*asynq.Task, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypePlanTrip, b), nil
}
