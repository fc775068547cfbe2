package queue

import (
	"github.com/revoshq/podengine/internal/service"
)

const TaskTypeExecuteActivity = "engage:execute"

type ExecuteActivityPayload struct {
	ActivityID int64 `json:"activity_id"`
}

type Queue struct {
	es service.EngagementService
}

func NewQueue(es service.EngagementService) *Queue {
	return &Queue{es: es}
}
