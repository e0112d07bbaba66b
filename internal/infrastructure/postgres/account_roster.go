package postgres

import (
	"context"
	"fmt"

	"progress-hub/internal/domain"

	"github.com/jackc/pgx/v5"
)

const listAccountsQuery = `SELECT email FROM users`

// AccountRoster reads the Invidious users table.
// Implements domain.AccountRoster.
type AccountRoster struct {
	db DB
}

// NewAccountRoster creates a roster over db.
func NewAccountRoster(db DB) *AccountRoster {
	return &AccountRoster{db: db}
}

// ListAccounts returns every account name known to Invidious.
func (r *AccountRoster) ListAccounts(ctx context.Context) ([]domain.Identity, error) {
	rows, err := r.db.Query(ctx, listAccountsQuery)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}

	emails, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan accounts: %w", err)
	}

	ids := make([]domain.Identity, len(emails))
	for i, e := range emails {
		ids[i] = domain.Identity(e)
	}
	return ids, nil
}
