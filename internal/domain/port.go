package domain

import "context"

// SessionVerifier asks Invidious whether a credential is a live session.
type SessionVerifier interface {
	VerifySession(ctx context.Context, cred Credential) error
}

// SessionStore resolves a session id to the owning account.
type SessionStore interface {
	LookupIdentity(ctx context.Context, sessionID string) (Identity, error)
}

// AuthCache maps a raw credential to a previously resolved identity.
// Implementations own the TTL and must be safe for concurrent use.
type AuthCache interface {
	Get(ctx context.Context, credential string) (Identity, bool, error)
	Set(ctx context.Context, credential string, id Identity) error
}

// AccountRoster lists every account known to Invidious.
type AccountRoster interface {
	ListAccounts(ctx context.Context) ([]Identity, error)
}

// ProgressStore persists watch progress.
type ProgressStore interface {
	FindProgress(ctx context.Context, owner Identity, videoIDs []string) ([]Progress, error)
	UpsertProgress(ctx context.Context, owner Identity, p Progress) error
	DeleteProgress(ctx context.Context, owner Identity, videoID string) error
	DeleteAllProgress(ctx context.Context, owner Identity) (int64, error)
}

// ProgressOwners is the reconciliation view of progress storage.
type ProgressOwners interface {
	ListOwners(ctx context.Context) ([]Identity, error)
	CountByOwners(ctx context.Context, owners []Identity) (map[Identity]int64, error)
	DeleteByOwners(ctx context.Context, owners []Identity) (int64, error)
}
