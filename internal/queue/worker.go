package queue

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"
)

func (q *Queue) HandleExecuteActivityTask(ctx context.Context, task *asynq.Task) error {
	var payload ExecuteActivityPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return err
	}

	return q.es.Execute(ctx, payload.ActivityID)
}
