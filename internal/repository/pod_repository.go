package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/revoshq/podengine/internal/models"
)

type PodRepository interface {
	GetByID(ctx context.Context, id int64) (*models.Pod, error)
	// GetLatestMembership returns the most recently created membership for an
	// account, or nil when the account belongs to no pod.
	GetLatestMembership(ctx context.Context, accountID int64) (*models.PodMember, error)
	ListMembers(ctx context.Context, podID int64) ([]*models.PodMember, error)
	GetMemberByID(ctx context.Context, id int64) (*models.PodMember, error)
}

type podRepository struct {
	db *sql.DB
}

func NewPodRepository(db *sql.DB) PodRepository {
	return &podRepository{db: db}
}

const memberColumns = `id, pod_id, account_id, amplify_enabled, automation_profile_id, profile_health, created_at`

func (r *podRepository) GetByID(ctx context.Context, id int64) (*models.Pod, error) {
	query := `SELECT id, name, created_at FROM pods WHERE id = $1`
	var pod models.Pod
	err := r.db.QueryRowContext(ctx, query, id).Scan(&pod.ID, &pod.Name, &pod.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return &pod, nil
}

func (r *podRepository) GetLatestMembership(ctx context.Context, accountID int64) (*models.PodMember, error) {
	query := `SELECT ` + memberColumns + ` FROM pod_members WHERE account_id = $1 ORDER BY created_at DESC LIMIT 1`
	return r.scanMember(r.db.QueryRowContext(ctx, query, accountID))
}

func (r *podRepository) ListMembers(ctx context.Context, podID int64) ([]*models.PodMember, error) {
	query := `SELECT ` + memberColumns + ` FROM pod_members WHERE pod_id = $1 ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, podID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var members []*models.PodMember
	for rows.Next() {
		var m models.PodMember
		err := rows.Scan(&m.ID, &m.PodID, &m.AccountID, &m.AmplifyEnabled, &m.AutomationProfileID, &m.ProfileHealth, &m.CreatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		members = append(members, &m)
	}
	return members, rows.Err()
}

func (r *podRepository) GetMemberByID(ctx context.Context, id int64) (*models.PodMember, error) {
	query := `SELECT ` + memberColumns + ` FROM pod_members WHERE id = $1`
	return r.scanMember(r.db.QueryRowContext(ctx, query, id))
}

func (r *podRepository) scanMember(row *sql.Row) (*models.PodMember, error) {
	var m models.PodMember
	err := row.Scan(&m.ID, &m.PodID, &m.AccountID, &m.AmplifyEnabled, &m.AutomationProfileID, &m.ProfileHealth, &m.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return &m, nil
}
