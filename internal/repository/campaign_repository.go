package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/revoshq/podengine/internal/models"
)

// CampaignRepository is read-only from this pipeline's perspective; campaign
// CRUD lives elsewhere.
type CampaignRepository interface {
	GetActiveByAccountID(ctx context.Context, accountID int64) (*models.Campaign, error)
}

type campaignRepository struct {
	db *sql.DB
}

func NewCampaignRepository(db *sql.DB) CampaignRepository {
	return &campaignRepository{db: db}
}

func (r *campaignRepository) GetActiveByAccountID(ctx context.Context, accountID int64) (*models.Campaign, error) {
	query := `
		SELECT id, account_id, name, trigger_phrase, dm_template, active, created_at
		FROM campaigns WHERE account_id = $1 AND active = TRUE
		ORDER BY created_at DESC LIMIT 1
	`
	row := r.db.QueryRowContext(ctx, query, accountID)

	var c models.Campaign
	err := row.Scan(&c.ID, &c.AccountID, &c.Name, &c.TriggerPhrase, &c.DMTemplate, &c.Active, &c.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return &c, nil
}
