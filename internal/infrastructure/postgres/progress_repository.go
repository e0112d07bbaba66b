package postgres

import (
	"context"
	"fmt"

	"progress-hub/internal/domain"

	"github.com/jackc/pgx/v5"
)

const (
	findProgressQuery = `
		SELECT video_id, time, updated_at
		FROM watch_progress
		WHERE username = $1 AND video_id = ANY($2)
		LIMIT $3`

	upsertProgressQuery = `
		INSERT INTO watch_progress (username, video_id, time, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (username, video_id)
		DO UPDATE SET time = EXCLUDED.time, updated_at = EXCLUDED.updated_at`

	deleteProgressQuery    = `DELETE FROM watch_progress WHERE username = $1 AND video_id = $2`
	deleteAllProgressQuery = `DELETE FROM watch_progress WHERE username = $1`

	listOwnersQuery     = `SELECT DISTINCT username FROM watch_progress`
	countByOwnersQuery  = `SELECT username, count(*) FROM watch_progress WHERE username = ANY($1) GROUP BY username`
	deleteByOwnersQuery = `DELETE FROM watch_progress WHERE username = ANY($1)`
)

// ProgressRepository stores watch progress in the watch_progress table.
// Implements domain.ProgressStore and domain.ProgressOwners.
type ProgressRepository struct {
	db DB
}

// NewProgressRepository creates a repository over db.
func NewProgressRepository(db DB) *ProgressRepository {
	return &ProgressRepository{db: db}
}

// FindProgress returns the stored progress of owner for the given videos.
func (r *ProgressRepository) FindProgress(ctx context.Context, owner domain.Identity, videoIDs []string) ([]domain.Progress, error) {
	if len(videoIDs) == 0 {
		return []domain.Progress{}, nil
	}

	rows, err := r.db.Query(ctx, findProgressQuery, string(owner), videoIDs, domain.MaxVideoIDs)
	if err != nil {
		return nil, fmt.Errorf("find progress: %w", err)
	}

	progress, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Progress, error) {
		var p domain.Progress
		err := row.Scan(&p.VideoID, &p.Time, &p.UpdatedAt)
		return p, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan progress: %w", err)
	}
	return progress, nil
}

// UpsertProgress saves the playback position of one video.
func (r *ProgressRepository) UpsertProgress(ctx context.Context, owner domain.Identity, p domain.Progress) error {
	if _, err := r.db.Exec(ctx, upsertProgressQuery, string(owner), p.VideoID, p.Time); err != nil {
		return fmt.Errorf("upsert progress: %w", err)
	}
	return nil
}

// DeleteProgress removes the progress of one video.
func (r *ProgressRepository) DeleteProgress(ctx context.Context, owner domain.Identity, videoID string) error {
	if _, err := r.db.Exec(ctx, deleteProgressQuery, string(owner), videoID); err != nil {
		return fmt.Errorf("delete progress: %w", err)
	}
	return nil
}

// DeleteAllProgress removes every record of owner.
func (r *ProgressRepository) DeleteAllProgress(ctx context.Context, owner domain.Identity) (int64, error) {
	tag, err := r.db.Exec(ctx, deleteAllProgressQuery, string(owner))
	if err != nil {
		return 0, fmt.Errorf("delete all progress: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ListOwners returns every distinct username with stored progress.
func (r *ProgressRepository) ListOwners(ctx context.Context) ([]domain.Identity, error) {
	rows, err := r.db.Query(ctx, listOwnersQuery)
	if err != nil {
		return nil, fmt.Errorf("list progress owners: %w", err)
	}

	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan progress owners: %w", err)
	}

	owners := make([]domain.Identity, len(names))
	for i, n := range names {
		owners[i] = domain.Identity(n)
	}
	return owners, nil
}

// CountByOwners returns the number of records per owner.
func (r *ProgressRepository) CountByOwners(ctx context.Context, owners []domain.Identity) (map[domain.Identity]int64, error) {
	counts := make(map[domain.Identity]int64, len(owners))
	if len(owners) == 0 {
		return counts, nil
	}

	rows, err := r.db.Query(ctx, countByOwnersQuery, identitiesToStrings(owners))
	if err != nil {
		return nil, fmt.Errorf("count progress: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			name  string
			count int64
		)
		if err := rows.Scan(&name, &count); err != nil {
			return nil, fmt.Errorf("scan progress count: %w", err)
		}
		counts[domain.Identity(name)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("count progress: %w", err)
	}
	return counts, nil
}

// DeleteByOwners removes all progress of the given owners in one statement.
func (r *ProgressRepository) DeleteByOwners(ctx context.Context, owners []domain.Identity) (int64, error) {
	if len(owners) == 0 {
		return 0, nil
	}

	tag, err := r.db.Exec(ctx, deleteByOwnersQuery, identitiesToStrings(owners))
	if err != nil {
		return 0, fmt.Errorf("delete progress by owners: %w", err)
	}
	return tag.RowsAffected(), nil
}
