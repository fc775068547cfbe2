package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/lib/pq"
	"github.com/revoshq/podengine/internal/models"
)

type ActivityRepository interface {
	// CreateBatch inserts all rows inside the given transaction so a post's
	// fan-out is all-or-nothing.
	CreateBatch(ctx context.Context, tx *sql.Tx, activities []*models.PodActivity) error
	GetByID(ctx context.Context, id int64) (*models.PodActivity, error)
	ExistsForPost(ctx context.Context, postID int64) (bool, error)
	ExistsDMTrigger(ctx context.Context, postID int64, targetURN string) (bool, error)
	MarkCompleted(ctx context.Context, id int64, result []byte) error
	MarkFailed(ctx context.Context, id int64, attempts int, lastError string, result []byte) error
	RecordRetry(ctx context.Context, id int64, attempts int, lastError string) error
	UpdateStatus(ctx context.Context, id int64, status string) error
	ListByStatus(ctx context.Context, status string, limit int) ([]*models.PodActivity, error)
}

type activityRepository struct {
	db *sql.DB
}

func NewActivityRepository(db *sql.DB) ActivityRepository {
	return &activityRepository{db: db}
}

// IsUniqueViolation reports whether err is a Postgres unique constraint
// violation. The partial unique index on idempotency_key for completed rows
// is the store-level idempotency arbiter.
func IsUniqueViolation(err error) bool {
	if pqErr, ok := err.(*pq.Error); ok {
		return pqErr.Code == "23505"
	}
	return false
}

const activityColumns = `id, pod_id, member_id, post_id, activity_type, target_urn, idempotency_key,
	scheduled_for, status, skip_reason, execution_attempts, last_error, execution_result, created_at, updated_at`

func (r *activityRepository) CreateBatch(ctx context.Context, tx *sql.Tx, activities []*models.PodActivity) error {
	query := `
		INSERT INTO pod_activities
			(pod_id, member_id, post_id, activity_type, target_urn, idempotency_key, scheduled_for, status, skip_reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`

	for _, a := range activities {
		err := tx.QueryRowContext(ctx, query,
			a.PodID, a.MemberID, a.PostID, a.ActivityType, a.TargetURN,
			a.IdempotencyKey, a.ScheduledFor, a.Status, a.SkipReason,
		).Scan(&a.ID)
		if err != nil {
			slog.Info(err.Error())
			return err
		}
	}
	return nil
}

func (r *activityRepository) GetByID(ctx context.Context, id int64) (*models.PodActivity, error) {
	query := `SELECT ` + activityColumns + ` FROM pod_activities WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)

	var a models.PodActivity
	err := row.Scan(&a.ID, &a.PodID, &a.MemberID, &a.PostID, &a.ActivityType, &a.TargetURN,
		&a.IdempotencyKey, &a.ScheduledFor, &a.Status, &a.SkipReason,
		&a.ExecutionAttempts, &a.LastError, &a.ExecutionResult, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return &a, nil
}

func (r *activityRepository) ExistsForPost(ctx context.Context, postID int64) (bool, error) {
	query := `SELECT 1 FROM pod_activities WHERE post_id = $1 AND activity_type = $2 LIMIT 1`

	var result int
	err := r.db.QueryRowContext(ctx, query, postID, models.ActivityTypeRepost).Scan(&result)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		slog.Info(err.Error())
		return false, err
	}
	return result == 1, nil
}

func (r *activityRepository) ExistsDMTrigger(ctx context.Context, postID int64, targetURN string) (bool, error) {
	query := `SELECT 1 FROM pod_activities WHERE post_id = $1 AND activity_type = $2 AND target_urn = $3 LIMIT 1`

	var result int
	err := r.db.QueryRowContext(ctx, query, postID, models.ActivityTypeDMTrigger, targetURN).Scan(&result)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		slog.Info(err.Error())
		return false, err
	}
	return result == 1, nil
}

func (r *activityRepository) MarkCompleted(ctx context.Context, id int64, result []byte) error {
	query := `
		UPDATE pod_activities
		SET status = $1, execution_result = $2, last_error = NULL, updated_at = $3
		WHERE id = $4
	`
	_, err := r.db.ExecContext(ctx, query, models.ActivityStatusCompleted, result, time.Now(), id)
	if err != nil {
		if !IsUniqueViolation(err) {
			slog.Info(err.Error())
		}
		return err
	}
	return nil
}

func (r *activityRepository) MarkFailed(ctx context.Context, id int64, attempts int, lastError string, result []byte) error {
	query := `
		UPDATE pod_activities
		SET status = $1, execution_attempts = $2, last_error = $3, execution_result = $4, updated_at = $5
		WHERE id = $6
	`
	_, err := r.db.ExecContext(ctx, query, models.ActivityStatusFailed, attempts, lastError, result, time.Now(), id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *activityRepository) RecordRetry(ctx context.Context, id int64, attempts int, lastError string) error {
	query := `
		UPDATE pod_activities
		SET execution_attempts = $1, last_error = $2, updated_at = $3
		WHERE id = $4
	`
	_, err := r.db.ExecContext(ctx, query, attempts, lastError, time.Now(), id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *activityRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	query := `UPDATE pod_activities SET status = $1, updated_at = $2 WHERE id = $3`
	_, err := r.db.ExecContext(ctx, query, status, time.Now(), id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *activityRepository) ListByStatus(ctx context.Context, status string, limit int) ([]*models.PodActivity, error) {
	query := `SELECT ` + activityColumns + ` FROM pod_activities WHERE status = $1 ORDER BY created_at LIMIT $2`
	rows, err := r.db.QueryContext(ctx, query, status, limit)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var activities []*models.PodActivity
	for rows.Next() {
		var a models.PodActivity
		err := rows.Scan(&a.ID, &a.PodID, &a.MemberID, &a.PostID, &a.ActivityType, &a.TargetURN,
			&a.IdempotencyKey, &a.ScheduledFor, &a.Status, &a.SkipReason,
			&a.ExecutionAttempts, &a.LastError, &a.ExecutionResult, &a.CreatedAt, &a.UpdatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		activities = append(activities, &a)
	}
	return activities, rows.Err()
}
