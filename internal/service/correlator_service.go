package service

import (
	"context"
	"log/slog"

	config "github.com/revoshq/podengine/configs"
	"github.com/revoshq/podengine/internal/models"
	"github.com/revoshq/podengine/internal/provider"
	"github.com/revoshq/podengine/internal/repository"
	"github.com/revoshq/podengine/internal/transfer"
	"github.com/revoshq/podengine/pkg/textmatch"
	"github.com/revoshq/podengine/pkg/utils"
)

// EmailExtractor pulls an email address out of an invitation note. The real
// extractor is pluggable; the default is the regex heuristic in textmatch.
type EmailExtractor interface {
	Extract(note string) (string, bool)
}

type heuristicExtractor struct{}

// NewHeuristicExtractor returns the default regex-based extractor.
func NewHeuristicExtractor() EmailExtractor { return heuristicExtractor{} }

func (heuristicExtractor) Extract(note string) (string, bool) {
	return textmatch.ExtractEmail(note)
}

// CorrelatorService matches inbound connection invitations to the pending
// connections this pipeline opened. It only observes and annotates; accepting
// invitations is the provider's own auto-accept setting.
type CorrelatorService interface {
	PollCycle(ctx context.Context) (*transfer.PollSummary, error)
}

type correlatorService struct {
	cfg       config.Config
	ac        repository.AccountRepository
	connr     repository.ConnectionRepository
	lr        repository.LeadRepository
	client    provider.Client
	extractor EmailExtractor
}

func NewCorrelatorService(
	cfg config.Config,
	ac repository.AccountRepository,
	connr repository.ConnectionRepository,
	lr repository.LeadRepository,
	client provider.Client,
	extractor EmailExtractor) CorrelatorService {
	return &correlatorService{
		cfg:       cfg,
		ac:        ac,
		connr:     connr,
		lr:        lr,
		client:    client,
		extractor: extractor,
	}
}

// PollCycle never fails wholesale: one account's fetch error is collected in
// the summary while the remaining accounts continue.
func (s *correlatorService) PollCycle(ctx context.Context) (*transfer.PollSummary, error) {
	accounts, err := s.ac.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	summary := &transfer.PollSummary{Accounts: len(accounts)}
	for _, account := range accounts {
		if err := s.pollAccount(ctx, account, summary); err != nil {
			summary.Errors = append(summary.Errors, transfer.AccountError{
				AccountID: account.ID,
				Error:     err.Error(),
			})
		}
	}

	slog.Info("correlator cycle finished",
		"accounts", summary.Accounts,
		"fetched", summary.Fetched,
		"matched", summary.Matched,
		"unmatched", summary.Unmatched,
		"errors", len(summary.Errors))
	return summary, nil
}

func (s *correlatorService) pollAccount(ctx context.Context, account *models.Account, summary *transfer.PollSummary) error {
	token, err := utils.Decrypt(account.AccessToken, []byte(s.cfg.SecretKey))
	if err != nil {
		return err
	}

	invitations, err := s.client.ListInvitations(ctx, token, s.cfg.InvitationBatchSize)
	if err != nil {
		return err
	}
	summary.Fetched += len(invitations)

	for _, inv := range invitations {
		pending, err := s.connr.FindOpenBySender(ctx, inv.SenderURN)
		if err != nil {
			return err
		}
		if pending == nil {
			// Not every invitation came from our trigger flow.
			slog.Info("invitation without pending connection, skipping", "sender_urn", inv.SenderURN)
			summary.Unmatched++
			continue
		}

		email, ok := s.extractor.Extract(inv.Note)
		if !ok {
			slog.Info("no email in invitation note", "sender_urn", inv.SenderURN)
			summary.NoEmail++
			continue
		}

		if err := s.connr.MarkMatched(ctx, pending.ID, inv.Note, email); err != nil {
			return err
		}
		if err := s.lr.MarkEmailCaptured(ctx, pending.LeadID, email); err != nil {
			return err
		}
		summary.Matched++
	}

	return nil
}
