package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/revoshq/podengine/internal/models"
)

type DeadLetterRepository interface {
	Create(ctx context.Context, entry *models.DeadLetterEntry) (int64, error)
	ListUnresolved(ctx context.Context) ([]*models.DeadLetterEntry, error)
	Resolve(ctx context.Context, id int64, notes string) error
}

type deadLetterRepository struct {
	db *sql.DB
}

func NewDeadLetterRepository(db *sql.DB) DeadLetterRepository {
	return &deadLetterRepository{db: db}
}

func (r *deadLetterRepository) Create(ctx context.Context, entry *models.DeadLetterEntry) (int64, error) {
	query := `
		INSERT INTO dead_letters (activity_id, error_message, error_type, attempts)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query, entry.ActivityID, entry.ErrorMessage, entry.ErrorType, entry.Attempts).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return id, nil
}

func (r *deadLetterRepository) ListUnresolved(ctx context.Context) ([]*models.DeadLetterEntry, error) {
	query := `
		SELECT id, activity_id, error_message, error_type, attempts, created_at, resolved_at, resolution_notes
		FROM dead_letters WHERE resolved_at IS NULL ORDER BY created_at
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var entries []*models.DeadLetterEntry
	for rows.Next() {
		var e models.DeadLetterEntry
		err := rows.Scan(&e.ID, &e.ActivityID, &e.ErrorMessage, &e.ErrorType, &e.Attempts, &e.CreatedAt, &e.ResolvedAt, &e.ResolutionNotes)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

func (r *deadLetterRepository) Resolve(ctx context.Context, id int64, notes string) error {
	query := `UPDATE dead_letters SET resolved_at = $1, resolution_notes = $2 WHERE id = $3 AND resolved_at IS NULL`
	_, err := r.db.ExecContext(ctx, query, time.Now(), notes, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
