package otpcodes

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/sevr/internal/common"
	"github.com/dmitrijs2005/sevr/internal/server/models"
)

func TestMemoryRepository_FindActivePicksNewest(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	r := NewMemoryRepository()

	older := &models.OneTimeCode{Email: "a@x.com", Code: "111111", ExpiresAt: now.Add(5 * time.Minute)}
	newer := &models.OneTimeCode{Email: "a@x.com", Code: "222222", ExpiresAt: now.Add(10 * time.Minute)}
	expired := &models.OneTimeCode{Email: "a@x.com", Code: "333333", ExpiresAt: now.Add(-time.Minute)}
	other := &models.OneTimeCode{Email: "b@x.com", Code: "444444", ExpiresAt: now.Add(20 * time.Minute)}
	for _, c := range []*models.OneTimeCode{older, newer, expired, other} {
		require.NoError(t, r.Create(ctx, c))
	}

	got, err := r.FindActive(ctx, "a@x.com", now)
	require.NoError(t, err)
	assert.Equal(t, "222222", got.Code)

	require.NoError(t, r.MarkUsed(ctx, newer.ID))
	got, err = r.FindActive(ctx, "a@x.com", now)
	require.NoError(t, err)
	assert.Equal(t, "111111", got.Code)

	n, err := r.IncrementAttempts(ctx, older.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	got, err = r.FindActive(ctx, "a@x.com", now)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Attempts)

	deleted, err := r.DeleteStale(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted) // used + expired

	_, err = r.FindActive(ctx, "c@x.com", now)
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestMemoryRepository_TransitionsOnlyUnusedRows(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	r := NewMemoryRepository()

	c := &models.OneTimeCode{Email: "a@x.com", Code: "111111", ExpiresAt: now.Add(time.Minute)}
	require.NoError(t, r.Create(ctx, c))

	for want := 1; want <= 3; want++ {
		n, err := r.IncrementAttempts(ctx, c.ID, 3)
		require.NoError(t, err)
		assert.Equal(t, want, n)
	}

	// the third guess locked the row
	_, err := r.FindActive(ctx, "a@x.com", now)
	assert.ErrorIs(t, err, common.ErrorNotFound)
	_, err = r.IncrementAttempts(ctx, c.ID, 3)
	assert.ErrorIs(t, err, common.ErrorNotFound)
	assert.ErrorIs(t, r.MarkUsed(ctx, c.ID), common.ErrorNotFound)

	latest, err := r.FindLatest(ctx, "a@x.com", now)
	require.NoError(t, err)
	assert.Equal(t, 3, latest.Attempts)
	assert.True(t, latest.Used)

	assert.ErrorIs(t, r.MarkUsed(ctx, "missing"), common.ErrorNotFound)
}

func TestMemoryRepository_ConcurrentTransitions(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	r := NewMemoryRepository()

	guessed := &models.OneTimeCode{Email: "a@x.com", Code: "111111", ExpiresAt: now.Add(time.Minute)}
	redeemed := &models.OneTimeCode{Email: "b@x.com", Code: "222222", ExpiresAt: now.Add(time.Minute)}
	require.NoError(t, r.Create(ctx, guessed))
	require.NoError(t, r.Create(ctx, redeemed))

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		counted  int
		consumed int
	)
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			if _, err := r.IncrementAttempts(ctx, guessed.ID, 5); err == nil {
				mu.Lock()
				counted++
				mu.Unlock()
			}
		}()
		go func() {
			defer wg.Done()
			if err := r.MarkUsed(ctx, redeemed.ID); err == nil {
				mu.Lock()
				consumed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, counted)
	assert.Equal(t, 1, consumed)

	latest, err := r.FindLatest(ctx, "a@x.com", now)
	require.NoError(t, err)
	assert.Equal(t, 5, latest.Attempts)
}
