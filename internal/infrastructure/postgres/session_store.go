package postgres

import (
	"context"
	"errors"
	"fmt"

	"progress-hub/internal/domain"

	"github.com/jackc/pgx/v5"
)

const lookupSessionQuery = `SELECT email FROM session_ids WHERE id = $1 LIMIT 1`

// SessionStore reads Invidious' session_ids table.
// Implements domain.SessionStore.
type SessionStore struct {
	db DB
}

// NewSessionStore creates a session store over db.
func NewSessionStore(db DB) *SessionStore {
	return &SessionStore{db: db}
}

// LookupIdentity returns the account that owns sessionID.
func (s *SessionStore) LookupIdentity(ctx context.Context, sessionID string) (domain.Identity, error) {
	if sessionID == "" {
		return "", domain.ErrEmptySession
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var email string
	err := s.db.QueryRow(ctx, lookupSessionQuery, sessionID).Scan(&email)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", domain.ErrUnknownSession
	}
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrSessionStoreUnavailable, err)
	}
	if email == "" {
		return "", domain.ErrUnknownSession
	}
	return domain.Identity(email), nil
}
