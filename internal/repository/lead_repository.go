package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/revoshq/podengine/internal/models"
)

type LeadRepository interface {
	Create(ctx context.Context, lead *models.Lead) (int64, error)
	GetByProviderURN(ctx context.Context, campaignID int64, urn string) (*models.Lead, error)
	UpdateStatus(ctx context.Context, id int64, status string) error
	MarkEmailCaptured(ctx context.Context, id int64, email string) error
}

type leadRepository struct {
	db *sql.DB
}

func NewLeadRepository(db *sql.DB) LeadRepository {
	return &leadRepository{db: db}
}

func (r *leadRepository) Create(ctx context.Context, lead *models.Lead) (int64, error) {
	query := `
		INSERT INTO leads (campaign_id, provider_urn, name, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query, lead.CampaignID, lead.ProviderURN, lead.Name, lead.Status).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return id, nil
}

func (r *leadRepository) GetByProviderURN(ctx context.Context, campaignID int64, urn string) (*models.Lead, error) {
	query := `
		SELECT id, campaign_id, provider_urn, name, email, status, created_at, updated_at
		FROM leads WHERE campaign_id = $1 AND provider_urn = $2
	`
	row := r.db.QueryRowContext(ctx, query, campaignID, urn)

	var l models.Lead
	err := row.Scan(&l.ID, &l.CampaignID, &l.ProviderURN, &l.Name, &l.Email, &l.Status, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return &l, nil
}

func (r *leadRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	query := `UPDATE leads SET status = $1, updated_at = $2 WHERE id = $3`
	_, err := r.db.ExecContext(ctx, query, status, time.Now(), id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *leadRepository) MarkEmailCaptured(ctx context.Context, id int64, email string) error {
	query := `UPDATE leads SET email = $1, status = $2, updated_at = $3 WHERE id = $4`
	_, err := r.db.ExecContext(ctx, query, email, models.LeadStatusEmailCaptured, time.Now(), id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
