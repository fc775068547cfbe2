package service

import (
	"context"
	"log/slog"

	"github.com/revoshq/podengine/internal/events"
	"github.com/revoshq/podengine/internal/models"
	"github.com/revoshq/podengine/internal/repository"
	"github.com/revoshq/podengine/pkg/textmatch"
)

// TriggerService turns a trigger-phrase comment into a lead-capture flow:
// lead record, pending connection, and a jittered DM activity.
type TriggerService interface {
	HandleCommentReceived(ctx context.Context, evt *events.CommentReceived) error
}

type triggerService struct {
	pr       repository.PostRepository
	cr       repository.CampaignRepository
	lr       repository.LeadRepository
	connr    repository.ConnectionRepository
	ar       repository.ActivityRepository
	selector PrimaryPodSelector
	sched    SchedulerService
}

func NewTriggerService(
	pr repository.PostRepository,
	cr repository.CampaignRepository,
	lr repository.LeadRepository,
	connr repository.ConnectionRepository,
	ar repository.ActivityRepository,
	selector PrimaryPodSelector,
	sched SchedulerService) TriggerService {
	return &triggerService{
		pr:       pr,
		cr:       cr,
		lr:       lr,
		connr:    connr,
		ar:       ar,
		selector: selector,
		sched:    sched,
	}
}

func (s *triggerService) HandleCommentReceived(ctx context.Context, evt *events.CommentReceived) error {
	post, err := s.pr.GetByExternalURN(ctx, evt.PostURN)
	if err != nil {
		return err
	}
	if post == nil {
		slog.Info("comment on unknown post, ignoring", "post_urn", evt.PostURN)
		return nil
	}

	campaign, err := s.cr.GetActiveByAccountID(ctx, post.AccountID)
	if err != nil {
		return err
	}
	if campaign == nil {
		slog.Info("no active campaign for post owner", "account_id", post.AccountID)
		return nil
	}

	if !textmatch.Detects(evt.Text, campaign.TriggerPhrase) {
		return nil
	}

	// Redelivery guard: one DM trigger per (post, commenter).
	exists, err := s.ar.ExistsDMTrigger(ctx, post.ID, evt.AuthorURN)
	if err != nil {
		return err
	}
	if exists {
		slog.Info("dm trigger already scheduled for commenter", "post_id", post.ID, "author_urn", evt.AuthorURN)
		return nil
	}

	// Resolve the membership before writing anything: when the post owner is
	// in no pod, no trigger can be issued, so no lead or connection exists.
	membership, err := s.selector.Select(ctx, post.AccountID)
	if err != nil {
		return err
	}
	if membership == nil {
		slog.Info("post owner has no membership, dm trigger not scheduled", "account_id", post.AccountID)
		return nil
	}

	lead, err := s.lr.GetByProviderURN(ctx, campaign.ID, evt.AuthorURN)
	if err != nil {
		return err
	}
	if lead == nil {
		id, err := s.lr.Create(ctx, &models.Lead{
			CampaignID:  campaign.ID,
			ProviderURN: evt.AuthorURN,
			Name:        evt.AuthorName,
			Status:      models.LeadStatusNew,
		})
		if err != nil {
			return err
		}
		lead = &models.Lead{ID: id, CampaignID: campaign.ID, ProviderURN: evt.AuthorURN}
	}

	// The pending connection is opened when the outbound trigger is issued;
	// the correlator closes it when the invitation arrives. At most one open
	// connection exists per (campaign, commenter), so a redelivered event
	// reuses it instead of opening another.
	open, err := s.connr.FindOpenForCampaign(ctx, campaign.ID, evt.AuthorURN)
	if err != nil {
		return err
	}
	if open == nil {
		if _, err := s.connr.Create(ctx, &models.PendingConnection{
			CampaignID: campaign.ID,
			LeadID:     lead.ID,
			SenderURN:  evt.AuthorURN,
			Status:     models.ConnectionStatusPending,
		}); err != nil {
			return err
		}
	}

	if err := s.sched.ScheduleDMTrigger(ctx, membership, post.ID, evt.AuthorURN); err != nil {
		return err
	}

	slog.Info("trigger phrase matched, dm scheduled",
		"campaign_id", campaign.ID, "post_id", post.ID, "author_urn", evt.AuthorURN)
	return nil
}
