package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/revoshq/podengine/internal/models"
)

type AccountRepository interface {
	GetByID(ctx context.Context, id int64) (*models.Account, error)
	GetByProviderURN(ctx context.Context, urn string) (*models.Account, error)
	ListActive(ctx context.Context) ([]*models.Account, error)
}

type accountRepository struct {
	db *sql.DB
}

func NewAccountRepository(db *sql.DB) AccountRepository {
	return &accountRepository{db: db}
}

const accountColumns = `id, provider_urn, name, access_token, status, connected_at, created_at`

func (r *accountRepository) GetByID(ctx context.Context, id int64) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)
	return scanAccount(row)
}

func (r *accountRepository) GetByProviderURN(ctx context.Context, urn string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE provider_urn = $1`
	row := r.db.QueryRowContext(ctx, query, urn)
	return scanAccount(row)
}

func (r *accountRepository) ListActive(ctx context.Context) ([]*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE status = $1 ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, models.AccountStatusActive)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var accounts []*models.Account
	for rows.Next() {
		var a models.Account
		err := rows.Scan(&a.ID, &a.ProviderURN, &a.Name, &a.AccessToken, &a.Status, &a.ConnectedAt, &a.CreatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		accounts = append(accounts, &a)
	}
	return accounts, rows.Err()
}

func scanAccount(row *sql.Row) (*models.Account, error) {
	var a models.Account
	err := row.Scan(&a.ID, &a.ProviderURN, &a.Name, &a.AccessToken, &a.Status, &a.ConnectedAt, &a.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return &a, nil
}
