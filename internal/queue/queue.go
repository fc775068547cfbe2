package queue

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/revoshq/podengine/internal/service"
)

type asynqEnqueuer struct {
	client *asynq.Client
}

// NewEnqueuer wraps an asynq client as the ActivityEnqueuer the services
// depend on. Business retries are managed in the executor; asynq's own
// redelivery only fires on infrastructure errors from the handler, and the
// terminal-status guard makes redelivery safe.
func NewEnqueuer(client *asynq.Client) service.ActivityEnqueuer {
	return &asynqEnqueuer{client: client}
}

func (e *asynqEnqueuer) EnqueueActivity(ctx context.Context, activityID int64, delay time.Duration) error {
	payload, err := json.Marshal(ExecuteActivityPayload{ActivityID: activityID})
	if err != nil {
		return err
	}

	task := asynq.NewTask(TaskTypeExecuteActivity, payload)
	_, err = e.client.EnqueueContext(ctx, task, asynq.ProcessIn(delay))
	if err != nil {
		return err
	}

	slog.Info("activity enqueued", "activity_id", activityID, "delay", delay.String())
	return nil
}
