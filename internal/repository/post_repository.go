package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/revoshq/podengine/internal/models"
)

type PostRepository interface {
	Create(ctx context.Context, tx *sql.Tx, post *models.Post) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.Post, error)
	GetByExternalURN(ctx context.Context, urn string) (*models.Post, error)
	UpdateStatusByURN(ctx context.Context, urn, status string) error
}

type postRepository struct {
	db *sql.DB
}

func NewPostRepository(db *sql.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, tx *sql.Tx, post *models.Post) (int64, error) {
	query := `
		INSERT INTO posts (account_id, external_urn, url, status, published_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	var id int64
	var err error

	if tx != nil {
		err = tx.QueryRowContext(ctx, query, post.AccountID, post.ExternalURN, post.URL, post.Status, post.PublishedAt).Scan(&id)
	} else {
		err = r.db.QueryRowContext(ctx, query, post.AccountID, post.ExternalURN, post.URL, post.Status, post.PublishedAt).Scan(&id)
	}
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *postRepository) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	query := `SELECT id, account_id, external_urn, url, status, published_at, created_at FROM posts WHERE id = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *postRepository) GetByExternalURN(ctx context.Context, urn string) (*models.Post, error) {
	query := `SELECT id, account_id, external_urn, url, status, published_at, created_at FROM posts WHERE external_urn = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, urn))
}

func (r *postRepository) UpdateStatusByURN(ctx context.Context, urn, status string) error {
	query := `UPDATE posts SET status = $1 WHERE external_urn = $2`
	_, err := r.db.ExecContext(ctx, query, status, urn)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *postRepository) scanOne(row *sql.Row) (*models.Post, error) {
	var post models.Post
	err := row.Scan(&post.ID, &post.AccountID, &post.ExternalURN, &post.URL, &post.Status, &post.PublishedAt, &post.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return &post, nil
}
