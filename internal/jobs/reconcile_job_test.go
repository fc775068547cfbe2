package job

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/revoshq/podengine/internal/models"
)

type sweepActivityRepo struct {
	activities map[int64]*models.PodActivity
}

func (f *sweepActivityRepo) CreateBatch(ctx context.Context, tx *sql.Tx, activities []*models.PodActivity) error {
	return errors.New("not implemented")
}

func (f *sweepActivityRepo) GetByID(ctx context.Context, id int64) (*models.PodActivity, error) {
	return f.activities[id], nil
}

func (f *sweepActivityRepo) ExistsForPost(ctx context.Context, postID int64) (bool, error) {
	return false, nil
}

func (f *sweepActivityRepo) ExistsDMTrigger(ctx context.Context, postID int64, targetURN string) (bool, error) {
	return false, nil
}

func (f *sweepActivityRepo) MarkCompleted(ctx context.Context, id int64, result []byte) error {
	return errors.New("not implemented")
}

func (f *sweepActivityRepo) MarkFailed(ctx context.Context, id int64, attempts int, lastError string, result []byte) error {
	return errors.New("not implemented")
}

func (f *sweepActivityRepo) RecordRetry(ctx context.Context, id int64, attempts int, lastError string) error {
	return errors.New("not implemented")
}

func (f *sweepActivityRepo) UpdateStatus(ctx context.Context, id int64, status string) error {
	f.activities[id].Status = status
	return nil
}

func (f *sweepActivityRepo) ListByStatus(ctx context.Context, status string, limit int) ([]*models.PodActivity, error) {
	var out []*models.PodActivity
	for _, a := range f.activities {
		if a.Status == status && len(out) < limit {
			out = append(out, a)
		}
	}
	return out, nil
}

type sweepEnqueuer struct {
	delays  map[int64]time.Duration
	failFor map[int64]error
}

func (f *sweepEnqueuer) EnqueueActivity(ctx context.Context, activityID int64, delay time.Duration) error {
	if err := f.failFor[activityID]; err != nil {
		return err
	}
	f.delays[activityID] = delay
	return nil
}

func sweepFixture(activities ...*models.PodActivity) (*sweepActivityRepo, *sweepEnqueuer, *ReconcileJob) {
	repo := &sweepActivityRepo{activities: make(map[int64]*models.PodActivity)}
	for _, a := range activities {
		repo.activities[a.ID] = a
	}
	enq := &sweepEnqueuer{delays: make(map[int64]time.Duration), failFor: make(map[int64]error)}
	return repo, enq, NewReconcileJob(repo, enq)
}

func TestSweepReEnqueuesOnlyUnscheduledRows(t *testing.T) {
	now := time.Now()
	repo, enq, job := sweepFixture(
		&models.PodActivity{ID: 1, Status: models.ActivityStatusUnscheduled, ScheduledFor: now.Add(5 * time.Minute)},
		&models.PodActivity{ID: 2, Status: models.ActivityStatusUnscheduled, ScheduledFor: now.Add(-10 * time.Minute)},
		&models.PodActivity{ID: 3, Status: models.ActivityStatusPending, ScheduledFor: now.Add(5 * time.Minute)},
		&models.PodActivity{ID: 4, Status: models.ActivityStatusCompleted, ScheduledFor: now.Add(-1 * time.Hour)},
	)

	job.Run()

	require.Len(t, enq.delays, 2)
	assert.Equal(t, models.ActivityStatusPending, repo.activities[1].Status)
	assert.Equal(t, models.ActivityStatusPending, repo.activities[2].Status)

	// future rows keep their remaining delay, overdue rows release immediately
	assert.Greater(t, enq.delays[1], time.Duration(0))
	assert.LessOrEqual(t, enq.delays[1], 5*time.Minute)
	assert.Equal(t, time.Duration(0), enq.delays[2])
}

func TestSweepContinuesPastEnqueueFailures(t *testing.T) {
	now := time.Now()
	repo, enq, job := sweepFixture(
		&models.PodActivity{ID: 1, Status: models.ActivityStatusUnscheduled, ScheduledFor: now},
		&models.PodActivity{ID: 2, Status: models.ActivityStatusUnscheduled, ScheduledFor: now},
	)
	enq.failFor[1] = errors.New("redis unavailable")

	job.Run()

	// the failed row stays unscheduled for the next sweep; the other recovers
	assert.Equal(t, models.ActivityStatusUnscheduled, repo.activities[1].Status)
	assert.Equal(t, models.ActivityStatusPending, repo.activities[2].Status)
	require.Len(t, enq.delays, 1)
}

func TestSweepNoRowsIsNoOp(t *testing.T) {
	_, enq, job := sweepFixture(
		&models.PodActivity{ID: 1, Status: models.ActivityStatusCompleted},
	)

	job.Run()
	assert.Empty(t, enq.delays)
}
