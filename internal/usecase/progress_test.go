package usecase

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"strings"
	"testing"

	"progress-hub/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type progressKey struct {
	owner   domain.Identity
	videoID string
}

// memoryProgressStore implements domain.ProgressStore for testing.
type memoryProgressStore struct {
	data map[progressKey]float64
	err  error
}

func newMemoryProgressStore() *memoryProgressStore {
	return &memoryProgressStore{data: make(map[progressKey]float64)}
}

func (m *memoryProgressStore) FindProgress(_ context.Context, owner domain.Identity, videoIDs []string) ([]domain.Progress, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make([]domain.Progress, 0)
	for _, id := range videoIDs {
		if t, ok := m.data[progressKey{owner, id}]; ok {
			out = append(out, domain.Progress{VideoID: id, Time: t})
		}
	}
	return out, nil
}

func (m *memoryProgressStore) UpsertProgress(_ context.Context, owner domain.Identity, p domain.Progress) error {
	if m.err != nil {
		return m.err
	}
	m.data[progressKey{owner, p.VideoID}] = p.Time
	return nil
}

func (m *memoryProgressStore) DeleteProgress(_ context.Context, owner domain.Identity, videoID string) error {
	if m.err != nil {
		return m.err
	}
	delete(m.data, progressKey{owner, videoID})
	return nil
}

func (m *memoryProgressStore) DeleteAllProgress(_ context.Context, owner domain.Identity) (int64, error) {
	if m.err != nil {
		return 0, m.err
	}
	var n int64
	for k := range m.data {
		if k.owner == owner {
			delete(m.data, k)
			n++
		}
	}
	return n, nil
}

const (
	videoA = "dQw4w9WgXcQ"
	videoB = "jNQXAC9IVRw"
)

func TestProgress_SaveThenGet(t *testing.T) {
	store := newMemoryProgressStore()
	uc := NewProgress(store, slog.Default())
	ctx := context.Background()

	require.NoError(t, uc.Save(ctx, "alice@example.com", videoA, 12.5))
	require.NoError(t, uc.Save(ctx, "alice@example.com", videoA, 42))
	require.NoError(t, uc.Save(ctx, "bob@example.com", videoB, 7))

	got, err := uc.Get(ctx, "alice@example.com", videoA+","+videoB)
	require.NoError(t, err)
	require.Len(t, got, 1, "bob's progress is not visible to alice")
	assert.Equal(t, videoA, got[0].VideoID)
	assert.Equal(t, 42.0, got[0].Time)
}

func TestProgress_SaveRejectsInvalidInput(t *testing.T) {
	uc := NewProgress(newMemoryProgressStore(), slog.Default())
	ctx := context.Background()

	tests := []struct {
		name    string
		videoID string
		time    float64
		wantErr error
	}{
		{name: "short id", videoID: "abc", time: 1, wantErr: domain.ErrInvalidVideoID},
		{name: "bad characters", videoID: "dQw4w9WgX!Q", time: 1, wantErr: domain.ErrInvalidVideoID},
		{name: "negative time", videoID: videoA, time: -1, wantErr: domain.ErrInvalidProgress},
		{name: "NaN", videoID: videoA, time: math.NaN(), wantErr: domain.ErrInvalidProgress},
		{name: "infinite", videoID: videoA, time: math.Inf(1), wantErr: domain.ErrInvalidProgress},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := uc.Save(ctx, "alice@example.com", tt.videoID, tt.time)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestProgress_GetRejectsTooManyIDs(t *testing.T) {
	uc := NewProgress(newMemoryProgressStore(), slog.Default())
	ids := strings.TrimSuffix(strings.Repeat(videoA+",", domain.MaxVideoIDs+1), ",")

	_, err := uc.Get(context.Background(), "alice@example.com", ids)

	assert.ErrorIs(t, err, domain.ErrTooManyVideoIDs)
}

func TestProgress_DeleteAndDeleteAll(t *testing.T) {
	store := newMemoryProgressStore()
	uc := NewProgress(store, slog.Default())
	ctx := context.Background()

	require.NoError(t, uc.Save(ctx, "alice@example.com", videoA, 1))
	require.NoError(t, uc.Save(ctx, "alice@example.com", videoB, 2))
	require.NoError(t, uc.Save(ctx, "bob@example.com", videoA, 3))

	require.NoError(t, uc.Delete(ctx, "alice@example.com", videoA))
	got, err := uc.Get(ctx, "alice@example.com", videoA+","+videoB)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, videoB, got[0].VideoID)

	require.NoError(t, uc.DeleteAll(ctx, "alice@example.com"))
	got, err = uc.Get(ctx, "alice@example.com", videoB)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = uc.Get(ctx, "bob@example.com", videoA)
	require.NoError(t, err)
	assert.Len(t, got, 1, "other accounts are untouched")
}

func TestProgress_StoreErrorsPropagate(t *testing.T) {
	store := newMemoryProgressStore()
	store.err = errors.New("db down")
	uc := NewProgress(store, slog.Default())

	assert.Error(t, uc.Save(context.Background(), "alice@example.com", videoA, 1))
	assert.Error(t, uc.DeleteAll(context.Background(), "alice@example.com"))
}
