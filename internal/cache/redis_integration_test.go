//go:build integration

package cache_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"mugs/internal/cache"
	"mugs/pkg/testutil/containers"
)

func TestRedisViews(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	rc := containers.GetManager().GetRedis(t)
	suite.Run(t, &ViewsSuite{open: func() cache.Views {
		require.NoError(t, rc.Flush(context.Background()))
		return cache.NewRedis(rc.Client)
	}})
}
