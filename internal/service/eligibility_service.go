package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/revoshq/podengine/internal/models"
	"github.com/revoshq/podengine/internal/repository"
	"github.com/revoshq/podengine/internal/transfer"
)

// PrimaryPodSelector decides which pod amplifies a member's posts. An account
// can belong to several pods; the policy that picks one is explicit so the
// ambiguity is visible and testable rather than buried in a query.
type PrimaryPodSelector interface {
	Select(ctx context.Context, accountID int64) (*models.PodMember, error)
}

type mostRecentPodSelector struct {
	pr repository.PodRepository
}

// NewMostRecentPodSelector picks the most recently joined membership.
func NewMostRecentPodSelector(pr repository.PodRepository) PrimaryPodSelector {
	return &mostRecentPodSelector{pr: pr}
}

func (s *mostRecentPodSelector) Select(ctx context.Context, accountID int64) (*models.PodMember, error) {
	return s.pr.GetLatestMembership(ctx, accountID)
}

type EligibilityService interface {
	// Resolve produces exactly one outcome per pod member other than the
	// poster: eligible, or skipped with a reason code. The returned pod id is
	// the pod chosen by the selector; 0 means the poster is in no pod.
	Resolve(ctx context.Context, post *models.Post) (int64, []transfer.EligibleMember, []transfer.SkippedMember, error)
}

type eligibilityService struct {
	pr       repository.PodRepository
	selector PrimaryPodSelector
}

func NewEligibilityService(pr repository.PodRepository, selector PrimaryPodSelector) EligibilityService {
	return &eligibilityService{pr: pr, selector: selector}
}

func (s *eligibilityService) Resolve(ctx context.Context, post *models.Post) (int64, []transfer.EligibleMember, []transfer.SkippedMember, error) {
	membership, err := s.selector.Select(ctx, post.AccountID)
	if err != nil {
		return 0, nil, nil, fmt.Errorf("pod lookup for account %d: %w", post.AccountID, err)
	}
	if membership == nil {
		slog.Info("post owner belongs to no pod", "account_id", post.AccountID, "post_id", post.ID)
		return 0, nil, nil, nil
	}

	members, err := s.pr.ListMembers(ctx, membership.PodID)
	if err != nil {
		return 0, nil, nil, fmt.Errorf("listing members of pod %d: %w", membership.PodID, err)
	}

	var eligible []transfer.EligibleMember
	var skipped []transfer.SkippedMember
	for _, m := range members {
		if m.AccountID == post.AccountID {
			continue // members never amplify their own posts
		}
		if reason := memberSkipReason(m); reason != "" {
			skipped = append(skipped, transfer.SkippedMember{Member: m, Reason: reason})
			continue
		}
		eligible = append(eligible, transfer.EligibleMember{Member: m})
	}

	return membership.PodID, eligible, skipped, nil
}

// memberSkipReason evaluates the three gates in order and returns the first
// failing one, or "" when the member is eligible.
func memberSkipReason(m *models.PodMember) string {
	if !m.AmplifyEnabled {
		return models.SkipReasonAmplifyDisabled
	}
	if !m.AutomationProfileID.Valid || m.AutomationProfileID.String == "" {
		return models.SkipReasonNoProfile
	}
	if m.ProfileHealth != models.ProfileHealthActive {
		return models.SkipReasonProfileUnhealthy
	}
	return ""
}
