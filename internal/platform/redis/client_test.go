package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mugs/internal/platform/config"
)

func TestNewWithoutURLIsDisabled(t *testing.T) {
	c, err := New(context.Background(), config.RedisConfig{})
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestClientOptions(t *testing.T) {
	t.Run("pool settings override the URL defaults", func(t *testing.T) {
		opts, err := clientOptions(config.RedisConfig{
			URL:         "redis://:pw@cache.internal:6380/2",
			PoolSize:    7,
			DialTimeout: 2 * time.Second,
		})
		require.NoError(t, err)
		assert.Equal(t, "cache.internal:6380", opts.Addr)
		assert.Equal(t, "pw", opts.Password)
		assert.Equal(t, 2, opts.DB)
		assert.Equal(t, 7, opts.PoolSize)
		assert.Equal(t, 2*time.Second, opts.DialTimeout)
	})

	t.Run("malformed URL is rejected", func(t *testing.T) {
		_, err := clientOptions(config.RedisConfig{URL: "http://nope"})
		assert.ErrorContains(t, err, "REDIS_URL")
	})
}
