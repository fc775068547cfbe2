package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	config "github.com/revoshq/podengine/configs"
	"github.com/revoshq/podengine/internal/models"
	"github.com/revoshq/podengine/internal/provider"
	"github.com/revoshq/podengine/internal/repository"
)

// EngagementService executes one activity at most once. The status check
// before the remote call is the idempotency guard the queue cannot give us:
// asynq delivers at least once; the store delivers the effect at most once.
type EngagementService interface {
	Execute(ctx context.Context, activityID int64) error
}

type engagementService struct {
	cfg    config.Config
	ar     repository.ActivityRepository
	pr     repository.PostRepository
	podr   repository.PodRepository
	cr     repository.CampaignRepository
	lr     repository.LeadRepository
	dl     DeadLetterService
	client provider.Client
	enq    ActivityEnqueuer
}

func NewEngagementService(
	cfg config.Config,
	ar repository.ActivityRepository,
	pr repository.PostRepository,
	podr repository.PodRepository,
	cr repository.CampaignRepository,
	lr repository.LeadRepository,
	dl DeadLetterService,
	client provider.Client,
	enq ActivityEnqueuer) EngagementService {
	return &engagementService{
		cfg:    cfg,
		ar:     ar,
		pr:     pr,
		podr:   podr,
		cr:     cr,
		lr:     lr,
		dl:     dl,
		client: client,
		enq:    enq,
	}
}

// Execute returns an error only for infrastructure failures, which asynq
// redelivers. Business failures are absorbed into the activity state machine.
func (s *engagementService) Execute(ctx context.Context, activityID int64) error {
	activity, err := s.ar.GetByID(ctx, activityID)
	if err != nil {
		return err
	}
	if activity == nil {
		slog.Info("activity not found, dropping job", "activity_id", activityID)
		return nil
	}
	if models.IsTerminalActivityStatus(activity.Status) {
		slog.Info("activity already terminal, skipping", "activity_id", activityID, "status", activity.Status)
		return nil
	}

	member, err := s.podr.GetMemberByID(ctx, activity.MemberID)
	if err != nil {
		return err
	}
	post, err := s.pr.GetByID(ctx, activity.PostID)
	if err != nil {
		return err
	}
	if member == nil || post == nil {
		return s.finalize(ctx, activity, 1, "activity references missing member or post", models.ErrorTypeNotFound)
	}

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.ExecutionTimeout)
	defer cancel()

	response, execErr := s.invoke(callCtx, activity, member, post)
	if execErr == nil {
		return s.complete(ctx, activity, response)
	}

	attempts := activity.ExecutionAttempts + 1
	errType := provider.ErrorType(execErr)

	if !provider.Retryable(execErr) || attempts >= s.cfg.MaxExecutionAttempts {
		return s.finalize(ctx, activity, attempts, execErr.Error(), errType)
	}

	if err := s.ar.RecordRetry(ctx, activity.ID, attempts, execErr.Error()); err != nil {
		return err
	}

	delay := s.backoffDelay(attempts)
	slog.Info("retryable execution failure",
		"activity_id", activity.ID, "attempts", attempts, "retry_in", delay.String(), "error", execErr.Error())

	if err := s.enq.EnqueueActivity(ctx, activity.ID, delay); err != nil {
		// The sweep will pick the row back up.
		return s.ar.UpdateStatus(ctx, activity.ID, models.ActivityStatusUnscheduled)
	}
	return nil
}

func (s *engagementService) invoke(ctx context.Context, activity *models.PodActivity, member *models.PodMember, post *models.Post) (json.RawMessage, error) {
	profileID := member.AutomationProfileID.String

	switch activity.ActivityType {
	case models.ActivityTypeRepost:
		return s.client.Repost(ctx, profileID, post.URL)
	case models.ActivityTypeDMTrigger:
		campaign, err := s.cr.GetActiveByAccountID(ctx, post.AccountID)
		if err != nil {
			return nil, err
		}
		if campaign == nil {
			return nil, &provider.APIError{StatusCode: 404, Message: "no active campaign for post owner"}
		}

		response, err := s.client.SendDirectMessage(ctx, profileID, activity.TargetURN, campaign.DMTemplate)
		if err != nil {
			return nil, err
		}
		s.advanceLead(ctx, campaign.ID, activity.TargetURN)
		return response, nil
	default:
		return nil, &provider.APIError{StatusCode: 400, Message: fmt.Sprintf("unknown activity type %q", activity.ActivityType)}
	}
}

func (s *engagementService) advanceLead(ctx context.Context, campaignID int64, targetURN string) {
	lead, err := s.lr.GetByProviderURN(ctx, campaignID, targetURN)
	if err != nil {
		slog.Info(err.Error())
		return
	}
	if lead == nil {
		return
	}
	if lead.Status == models.LeadStatusNew {
		if err := s.lr.UpdateStatus(ctx, lead.ID, models.LeadStatusDMSent); err != nil {
			slog.Info(err.Error())
		}
	}
}

func (s *engagementService) complete(ctx context.Context, activity *models.PodActivity, response json.RawMessage) error {
	result, err := json.Marshal(models.ExecutionResult{
		Success:     true,
		Timestamp:   time.Now().UTC(),
		APIResponse: response,
	})
	if err != nil {
		return err
	}

	if err := s.ar.MarkCompleted(ctx, activity.ID, result); err != nil {
		if repository.IsUniqueViolation(err) {
			// Another execution already consumed this idempotency key; the
			// remote effect happened exactly once, so this is a no-op success.
			slog.Info("idempotency key already consumed", "activity_id", activity.ID, "key", activity.IdempotencyKey)
			return nil
		}
		return err
	}

	slog.Info("activity completed", "activity_id", activity.ID, "type", activity.ActivityType)
	return nil
}

// finalize moves the activity to its terminal failed state and hands it to
// the dead-letter inbox.
func (s *engagementService) finalize(ctx context.Context, activity *models.PodActivity, attempts int, errMessage, errType string) error {
	result, err := json.Marshal(models.ExecutionResult{
		Success:   false,
		Timestamp: time.Now().UTC(),
		Error:     &errMessage,
		ErrorType: &errType,
	})
	if err != nil {
		return err
	}

	if err := s.ar.MarkFailed(ctx, activity.ID, attempts, errMessage, result); err != nil {
		return err
	}
	return s.dl.Record(ctx, activity.ID, errMessage, errType, attempts)
}

// backoffDelay doubles the base delay per attempt, capped.
func (s *engagementService) backoffDelay(attempts int) time.Duration {
	delay := s.cfg.RetryBaseDelay
	for i := 1; i < attempts; i++ {
		delay *= 2
		if delay >= s.cfg.RetryMaxDelay {
			return s.cfg.RetryMaxDelay
		}
	}
	if delay > s.cfg.RetryMaxDelay {
		return s.cfg.RetryMaxDelay
	}
	return delay
}
