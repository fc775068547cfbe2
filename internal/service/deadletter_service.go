package service

import (
	"context"
	"log/slog"

	"github.com/revoshq/podengine/internal/models"
	"github.com/revoshq/podengine/internal/repository"
)

// DeadLetterService is the durable inbox for permanently failed activities.
// It never re-enqueues; resolution is a manual operator action.
type DeadLetterService interface {
	Record(ctx context.Context, activityID int64, errMessage, errType string, attempts int) error
	ListUnresolved(ctx context.Context) ([]*models.DeadLetterEntry, error)
	Resolve(ctx context.Context, id int64, notes string) error
}

type deadLetterService struct {
	dr repository.DeadLetterRepository
}

func NewDeadLetterService(dr repository.DeadLetterRepository) DeadLetterService {
	return &deadLetterService{dr: dr}
}

func (s *deadLetterService) Record(ctx context.Context, activityID int64, errMessage, errType string, attempts int) error {
	id, err := s.dr.Create(ctx, &models.DeadLetterEntry{
		ActivityID:   activityID,
		ErrorMessage: errMessage,
		ErrorType:    errType,
		Attempts:     attempts,
	})
	if err != nil {
		return err
	}

	slog.Info("activity dead-lettered",
		"dead_letter_id", id,
		"activity_id", activityID,
		"error_type", errType,
		"attempts", attempts)
	return nil
}

func (s *deadLetterService) ListUnresolved(ctx context.Context) ([]*models.DeadLetterEntry, error) {
	return s.dr.ListUnresolved(ctx)
}

func (s *deadLetterService) Resolve(ctx context.Context, id int64, notes string) error {
	return s.dr.Resolve(ctx, id, notes)
}
