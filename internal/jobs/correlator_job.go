package job

import (
	"context"
	"log/slog"

	"github.com/revoshq/podengine/internal/service"
)

type CorrelatorJob struct {
	cs service.CorrelatorService
}

func NewCorrelatorJob(cs service.CorrelatorService) *CorrelatorJob {
	return &CorrelatorJob{cs: cs}
}

func (j *CorrelatorJob) Run() {
	ctx := context.Background()

	summary, err := j.cs.PollCycle(ctx)
	if err != nil {
		slog.Info("correlator cycle failed", "error", err.Error())
		return
	}

	for _, accErr := range summary.Errors {
		slog.Info("correlator account error", "account_id", accErr.AccountID, "error", accErr.Error)
	}
}
