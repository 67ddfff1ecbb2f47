//go:build integration

package redis_test

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docregistry/internal/platform/config"
	"docregistry/internal/platform/redis"
	"docregistry/pkg/testutil/containers"
)

func TestClientAgainstRedis(t *testing.T) {
	container := containers.GetManager().GetRedis(t)
	reg := prometheus.NewRegistry()
	ctx := context.Background()

	client, err := redis.New(ctx, config.RedisConfig{URL: container.URL, PoolSize: 2}, reg)
	require.NoError(t, err)
	require.NotNil(t, client)
	defer client.Close() //nolint:errcheck // test cleanup

	require.NoError(t, client.Health(ctx))
	require.NoError(t, client.Set(ctx, "docregistry:probe", "1", 0).Err())

	client.RecordPoolStats()
	families, err := reg.Gather()
	require.NoError(t, err)

	names := map[string]bool{}
	for _, mf := range families {
		names[mf.GetName()] = true
	}
	assert.True(t, names["docregistry_redis_pool_total_conns"])
	assert.True(t, names["docregistry_redis_pool_hits_total"])
}
