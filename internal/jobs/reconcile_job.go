package job

import (
	"context"
	"log/slog"
	"time"

	"github.com/revoshq/podengine/internal/models"
	"github.com/revoshq/podengine/internal/repository"
	"github.com/revoshq/podengine/internal/service"
)

const reconcileBatchSize = 100

// ReconcileJob sweeps activities whose rows committed but whose enqueue
// failed, returning them to the queue. This closes the enqueue-after-insert
// gap without any operator intervention.
type ReconcileJob struct {
	ar  repository.ActivityRepository
	enq service.ActivityEnqueuer
}

func NewReconcileJob(ar repository.ActivityRepository, enq service.ActivityEnqueuer) *ReconcileJob {
	return &ReconcileJob{ar: ar, enq: enq}
}

func (j *ReconcileJob) Run() {
	ctx := context.Background()

	activities, err := j.ar.ListByStatus(ctx, models.ActivityStatusUnscheduled, reconcileBatchSize)
	if err != nil {
		slog.Info(err.Error())
		return
	}
	if len(activities) == 0 {
		return
	}

	recovered := 0
	for _, a := range activities {
		delay := time.Until(a.ScheduledFor)
		if delay < 0 {
			delay = 0
		}
		if err := j.enq.EnqueueActivity(ctx, a.ID, delay); err != nil {
			slog.Info("reconcile enqueue failed", "activity_id", a.ID, "error", err.Error())
			continue
		}
		if err := j.ar.UpdateStatus(ctx, a.ID, models.ActivityStatusPending); err != nil {
			slog.Info(err.Error())
			continue
		}
		recovered++
	}

	slog.Info("reconciliation sweep finished", "unscheduled", len(activities), "recovered", recovered)
}
