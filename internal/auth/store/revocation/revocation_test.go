package revocation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mugs/pkg/platform/sentinel"
)

func TestInMemoryTRL(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	trl := NewInMemoryTRL().WithClock(func() time.Time { return now })

	t.Run("revoked until the ttl passes", func(t *testing.T) {
		require.NoError(t, trl.RevokeToken(ctx, "jti-1", time.Minute))
		revoked, err := trl.IsRevoked(ctx, "jti-1")
		require.NoError(t, err)
		assert.True(t, revoked)

		now = now.Add(2 * time.Minute)
		revoked, err = trl.IsRevoked(ctx, "jti-1")
		require.NoError(t, err)
		assert.False(t, revoked)
	})

	t.Run("unknown ids are not revoked", func(t *testing.T) {
		revoked, err := trl.IsRevoked(ctx, "never")
		require.NoError(t, err)
		assert.False(t, revoked)
	})

	t.Run("non-positive ttl is rejected", func(t *testing.T) {
		err := trl.RevokeToken(ctx, "jti-2", 0)
		assert.ErrorIs(t, err, sentinel.ErrInvalidState)
	})

	t.Run("batch revoke and cleanup", func(t *testing.T) {
		require.NoError(t, trl.RevokeTokens(ctx, []string{"a", "b", ""}, time.Minute))
		for _, jti := range []string{"a", "b"} {
			revoked, err := trl.IsRevoked(ctx, jti)
			require.NoError(t, err)
			assert.True(t, revoked, jti)
		}

		removed, err := trl.RemoveExpiredAt(ctx, now.Add(time.Hour))
		require.NoError(t, err)
		assert.Equal(t, 3, removed)
	})
}

func TestBatch(t *testing.T) {
	ids, err := batch([]string{" a ", "b", "a", ""}, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)

	ids, err = batch([]string{"", " "}, 0)
	require.NoError(t, err)
	assert.Empty(t, ids, "an empty batch skips ttl validation")

	_, err = batch([]string{"a"}, -time.Second)
	assert.ErrorIs(t, err, sentinel.ErrInvalidState)
}
