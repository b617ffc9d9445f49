package cron

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"

	"tripplanner/config"
	"tripplanner/models"
	"tripplanner/services/planner"
	"tripplanner/services/tasks"
)

// InitPlannerWorker runs the async planning worker in background. Only
// used in queue worker mode; goroutine mode runs pipelines in-process.
func InitPlannerWorker(orch *planner.Orchestrator) {
	redisOpts := asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}

	srv := asynq.NewServer(
		redisOpts,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypePlanTrip, handlePlanTask(orch))

	// Start Redis health monitor
	go monitorRedisConnection()

	// Start async worker with retry logic
	go func() {
		log.Println("[PlannerWorker] 🚀 Starting async worker...")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			if err := srv.Run(mux); err != nil {
				log.Printf("[PlannerWorker] ❌ Attempt %d/%d failed to start worker: %v", attempts, maxAttempts, err)

				if attempts == maxAttempts {
					log.Fatal("[PlannerWorker] ❗ Max retry attempts reached. Exiting.")
				}
				time.Sleep(time.Duration(attempts*2) * time.Second) // Exponential backoff
			} else {
				break
			}
		}
	}()
}

func handlePlanTask(orch *planner.Orchestrator) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p models.PlanTaskPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			log.Printf("[PlannerHandler] 🔴 Invalid payload: %v", err)
			return err
		}

		log.Printf("[PlannerHandler] 🧭 Running planning pipeline for session %s", p.SessionID)

		// Run absorbs all pipeline failures into the session record, so
		// the task never retries a session that already reached a
		// terminal state.
		orch.Run(ctx, p.SessionID)
		return nil
	}
}

// monitorRedisConnection pings Redis periodically to detect failures at runtime.
func monitorRedisConnection() {
	client := redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	})

	ctx := context.Background()

	for {
		if err := client.Ping(ctx).Err(); err != nil {
			log.Printf("[PlannerWorker] ⚠️ Redis connection lost: %v", err)
		}
		time.Sleep(10 * time.Second)
	}
}
