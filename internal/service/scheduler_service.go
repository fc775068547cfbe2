package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	config "github.com/revoshq/podengine/configs"
	"github.com/revoshq/podengine/internal/events"
	"github.com/revoshq/podengine/internal/models"
	"github.com/revoshq/podengine/internal/repository"
	"github.com/revoshq/podengine/internal/transfer"
)

// ActivityEnqueuer hands an activity to the delayed job broker. It is an
// interface so tests can observe enqueues without Redis.
type ActivityEnqueuer interface {
	EnqueueActivity(ctx context.Context, activityID int64, delay time.Duration) error
}

type SchedulerService interface {
	HandlePostPublished(ctx context.Context, evt *events.PostPublished) (*transfer.ScheduleResult, error)
	HandlePostFailed(ctx context.Context, evt *events.PostFailed) error
	// ScheduleDMTrigger creates and enqueues one jittered dm_trigger activity
	// for a comment author.
	ScheduleDMTrigger(ctx context.Context, membership *models.PodMember, postID int64, targetURN string) error
}

type schedulerService struct {
	db  *sql.DB
	cfg config.Config
	ar  repository.ActivityRepository
	pr  repository.PostRepository
	ac  repository.AccountRepository
	es  EligibilityService
	enq ActivityEnqueuer
}

func NewSchedulerService(
	db *sql.DB,
	cfg config.Config,
	ar repository.ActivityRepository,
	pr repository.PostRepository,
	ac repository.AccountRepository,
	es EligibilityService,
	enq ActivityEnqueuer) SchedulerService {
	return &schedulerService{
		db:  db,
		cfg: cfg,
		ar:  ar,
		pr:  pr,
		ac:  ac,
		es:  es,
		enq: enq,
	}
}

func (s *schedulerService) HandlePostPublished(ctx context.Context, evt *events.PostPublished) (*transfer.ScheduleResult, error) {
	account, err := s.ac.GetByProviderURN(ctx, evt.AccountURN)
	if err != nil {
		return nil, err
	}
	if account == nil {
		slog.Info("post.published for unknown account", "account_urn", evt.AccountURN)
		return &transfer.ScheduleResult{}, nil
	}

	post, err := s.pr.GetByExternalURN(ctx, evt.PostURN)
	if err != nil {
		return nil, err
	}
	if post != nil {
		// Redelivery guard: the fan-out already happened for this post.
		exists, err := s.ar.ExistsForPost(ctx, post.ID)
		if err != nil {
			return nil, err
		}
		if exists {
			slog.Info("post already scheduled, ignoring redelivery", "post_urn", evt.PostURN)
			return &transfer.ScheduleResult{PostID: post.ID}, nil
		}
	}

	candidate := post
	if candidate == nil {
		candidate = &models.Post{
			AccountID:   account.ID,
			ExternalURN: evt.PostURN,
			URL:         evt.PostURL,
			Status:      models.PostStatusPublished,
			PublishedAt: evt.PublishedAt,
		}
	}

	podID, eligible, skipped, err := s.es.Resolve(ctx, candidate)
	if err != nil {
		return nil, err
	}
	if podID == 0 {
		return &transfer.ScheduleResult{}, nil
	}

	activities, delays, err := s.buildActivities(podID, eligible, skipped)
	if err != nil {
		return nil, err
	}

	postID, err := s.commitFanOut(ctx, candidate, post != nil, activities)
	if err != nil {
		return nil, err
	}

	result := &transfer.ScheduleResult{PostID: postID, PodID: podID, Skipped: len(skipped)}

	// Enqueue after commit. A failed enqueue leaves the row observable as
	// unscheduled; the reconciliation sweep re-enqueues it later.
	for i, a := range activities[:len(eligible)] {
		if err := s.enq.EnqueueActivity(ctx, a.ID, delays[i]); err != nil {
			slog.Info("enqueue failed, marking activity unscheduled", "activity_id", a.ID)
			if uerr := s.ar.UpdateStatus(ctx, a.ID, models.ActivityStatusUnscheduled); uerr != nil {
				slog.Info(uerr.Error())
			}
			result.Unscheduled++
			continue
		}
		result.Scheduled++
	}

	return result, nil
}

func (s *schedulerService) HandlePostFailed(ctx context.Context, evt *events.PostFailed) error {
	slog.Info("post publish failed upstream", "post_urn", evt.PostURN, "reason", evt.Reason)
	return s.pr.UpdateStatusByURN(ctx, evt.PostURN, models.PostStatusFailed)
}

func (s *schedulerService) ScheduleDMTrigger(ctx context.Context, membership *models.PodMember, postID int64, targetURN string) error {
	key, err := gonanoid.New()
	if err != nil {
		return err
	}

	delay := s.jitterDelay()
	activity := &models.PodActivity{
		PodID:          membership.PodID,
		MemberID:       membership.ID,
		PostID:         postID,
		ActivityType:   models.ActivityTypeDMTrigger,
		TargetURN:      targetURN,
		IdempotencyKey: key,
		ScheduledFor:   time.Now().Add(delay),
		Status:         models.ActivityStatusPending,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := s.ar.CreateBatch(ctx, tx, []*models.PodActivity{activity}); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	if err := s.enq.EnqueueActivity(ctx, activity.ID, delay); err != nil {
		slog.Info("enqueue failed, marking activity unscheduled", "activity_id", activity.ID)
		return s.ar.UpdateStatus(ctx, activity.ID, models.ActivityStatusUnscheduled)
	}
	return nil
}

// buildActivities produces one row per member outcome. Eligible rows come
// first so the caller can zip them with delays.
func (s *schedulerService) buildActivities(podID int64, eligible []transfer.EligibleMember, skipped []transfer.SkippedMember) ([]*models.PodActivity, []time.Duration, error) {
	activities := make([]*models.PodActivity, 0, len(eligible)+len(skipped))
	delays := make([]time.Duration, 0, len(eligible))
	now := time.Now()

	for _, e := range eligible {
		key, err := gonanoid.New()
		if err != nil {
			return nil, nil, err
		}
		delay := s.jitterDelay()
		delays = append(delays, delay)
		activities = append(activities, &models.PodActivity{
			PodID:          podID,
			MemberID:       e.Member.ID,
			ActivityType:   models.ActivityTypeRepost,
			IdempotencyKey: key,
			ScheduledFor:   now.Add(delay),
			Status:         models.ActivityStatusPending,
		})
	}

	for _, sk := range skipped {
		key, err := gonanoid.New()
		if err != nil {
			return nil, nil, err
		}
		activities = append(activities, &models.PodActivity{
			PodID:          podID,
			MemberID:       sk.Member.ID,
			ActivityType:   models.ActivityTypeRepost,
			IdempotencyKey: key,
			ScheduledFor:   now,
			Status:         models.ActivityStatusSkipped,
			SkipReason:     sql.NullString{String: sk.Reason, Valid: true},
		})
	}

	return activities, delays, nil
}

// commitFanOut inserts the post (unless it already exists) and all activity
// rows in one transaction, so a store failure midway leaves nothing behind.
func (s *schedulerService) commitFanOut(ctx context.Context, post *models.Post, postExists bool, activities []*models.PodActivity) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}

	postID := post.ID
	if !postExists {
		postID, err = s.pr.Create(ctx, tx, post)
		if err != nil {
			tx.Rollback()
			return 0, fmt.Errorf("creating post: %w", err)
		}
	}
	for _, a := range activities {
		a.PostID = postID
	}

	if err := s.ar.CreateBatch(ctx, tx, activities); err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("creating activities: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return postID, nil
}

// jitterDelay draws an independent uniform delay from the inclusive
// [JitterMin, JitterMax] window so a pod's reposts never land as one
// synchronized burst.
func (s *schedulerService) jitterDelay() time.Duration {
	span := s.cfg.JitterMax - s.cfg.JitterMin
	if span <= 0 {
		return s.cfg.JitterMin
	}
	return s.cfg.JitterMin + time.Duration(rand.Int63n(int64(span)+1))
}
