package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/revoshq/podengine/internal/models"
)

type ConnectionRepository interface {
	Create(ctx context.Context, pc *models.PendingConnection) (int64, error)
	// FindOpenBySender returns the pending (not yet matched) connection for a
	// sender identity, or nil.
	FindOpenBySender(ctx context.Context, senderURN string) (*models.PendingConnection, error)
	// FindOpenForCampaign is the campaign-scoped variant, used to keep the
	// trigger flow from opening a second connection for the same commenter.
	FindOpenForCampaign(ctx context.Context, campaignID int64, senderURN string) (*models.PendingConnection, error)
	MarkMatched(ctx context.Context, id int64, note, email string) error
}

type connectionRepository struct {
	db *sql.DB
}

func NewConnectionRepository(db *sql.DB) ConnectionRepository {
	return &connectionRepository{db: db}
}

func (r *connectionRepository) Create(ctx context.Context, pc *models.PendingConnection) (int64, error) {
	query := `
		INSERT INTO pending_connections (campaign_id, lead_id, sender_urn, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query, pc.CampaignID, pc.LeadID, pc.SenderURN, pc.Status).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return id, nil
}

const connectionColumns = `id, campaign_id, lead_id, sender_urn, status, captured_note, captured_email, created_at, matched_at`

func (r *connectionRepository) FindOpenBySender(ctx context.Context, senderURN string) (*models.PendingConnection, error) {
	query := `
		SELECT ` + connectionColumns + `
		FROM pending_connections WHERE sender_urn = $1 AND status = $2
		ORDER BY created_at DESC LIMIT 1
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, senderURN, models.ConnectionStatusPending))
}

func (r *connectionRepository) FindOpenForCampaign(ctx context.Context, campaignID int64, senderURN string) (*models.PendingConnection, error) {
	query := `
		SELECT ` + connectionColumns + `
		FROM pending_connections WHERE campaign_id = $1 AND sender_urn = $2 AND status = $3
		ORDER BY created_at DESC LIMIT 1
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, campaignID, senderURN, models.ConnectionStatusPending))
}

func (r *connectionRepository) scanOne(row *sql.Row) (*models.PendingConnection, error) {
	var pc models.PendingConnection
	err := row.Scan(&pc.ID, &pc.CampaignID, &pc.LeadID, &pc.SenderURN, &pc.Status, &pc.CapturedNote, &pc.CapturedEmail, &pc.CreatedAt, &pc.MatchedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return &pc, nil
}

func (r *connectionRepository) MarkMatched(ctx context.Context, id int64, note, email string) error {
	query := `
		UPDATE pending_connections
		SET status = $1, captured_note = $2, captured_email = $3, matched_at = $4
		WHERE id = $5 AND status = $6
	`
	_, err := r.db.ExecContext(ctx, query, models.ConnectionStatusMatched, note, email, time.Now(), id, models.ConnectionStatusPending)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
