package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"progress-hub/internal/domain"
)

// Progress manages the watch progress of an authenticated account.
type Progress struct {
	store  domain.ProgressStore
	logger *slog.Logger
}

// NewProgress creates a new Progress usecase.
func NewProgress(s domain.ProgressStore, l *slog.Logger) *Progress {
	return &Progress{store: s, logger: l}
}

// Get returns the stored progress for a comma separated list of video ids.
// Videos without progress are omitted.
func (uc *Progress) Get(ctx context.Context, owner domain.Identity, videoIDs string) ([]domain.Progress, error) {
	ids, err := domain.ParseVideoIDs(videoIDs)
	if err != nil {
		return nil, err
	}
	return uc.store.FindProgress(ctx, owner, ids)
}

// Save records the playback position of one video, replacing any earlier one.
func (uc *Progress) Save(ctx context.Context, owner domain.Identity, videoID string, seconds float64) error {
	if err := domain.ValidateVideoID(videoID); err != nil {
		return err
	}
	if seconds < 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return fmt.Errorf("%w: time must be a finite, non-negative number", domain.ErrInvalidProgress)
	}
	return uc.store.UpsertProgress(ctx, owner, domain.Progress{VideoID: videoID, Time: seconds})
}

// Delete removes the progress of one video.
func (uc *Progress) Delete(ctx context.Context, owner domain.Identity, videoID string) error {
	if err := domain.ValidateVideoID(videoID); err != nil {
		return err
	}
	return uc.store.DeleteProgress(ctx, owner, videoID)
}

// DeleteAll removes every progress record of owner.
func (uc *Progress) DeleteAll(ctx context.Context, owner domain.Identity) error {
	rows, err := uc.store.DeleteAllProgress(ctx, owner)
	if err != nil {
		return err
	}
	uc.logger.DebugContext(ctx, "cleared watch progress", "rows", rows)
	return nil
}
