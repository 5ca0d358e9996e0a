//go:build integration

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func newRedisCache(t *testing.T, ttl time.Duration) *RedisStatisticsCache {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err, "Failed to start Redis container")
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("Warning: Failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379/tcp")
	require.NoError(t, err)

	c, err := NewRedisStatisticsCache(RedisConfig{Host: host, Port: port.Int()}, ttl)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestRedisStatisticsCache_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	ctx := context.Background()
	c := newRedisCache(t, time.Minute)

	_, ok, err := c.GetInvoiceStatistics(ctx, 2024)
	require.NoError(t, err)
	assert.False(t, ok)

	gen, err := c.InvoiceStatisticsGeneration(ctx)
	require.NoError(t, err)
	assert.Zero(t, gen)
	require.NoError(t, c.SetInvoiceStatistics(ctx, 2024, gen, sampleStatistics()))

	stats, ok, err := c.GetInvoiceStatistics(ctx, 2024)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "1500.5", stats.CurrentYearSum.String())
	assert.Equal(t, int64(3), stats.Count)

	_, ok, err = c.GetInvoiceStatistics(ctx, 2025)
	require.NoError(t, err)
	assert.False(t, ok, "an entry for another year is a miss")

	ttl, err := c.client.TTL(ctx, c.key()).Result()
	require.NoError(t, err)
	assert.InDelta(t, time.Minute.Seconds(), ttl.Seconds(), 2)

	require.NoError(t, c.InvalidateInvoiceStatistics(ctx))
	_, ok, err = c.GetInvoiceStatistics(ctx, 2024)
	require.NoError(t, err)
	assert.False(t, ok)

	// a result computed before the invalidation is not stored
	require.NoError(t, c.SetInvoiceStatistics(ctx, 2024, gen, sampleStatistics()))
	_, ok, err = c.GetInvoiceStatistics(ctx, 2024)
	require.NoError(t, err)
	assert.False(t, ok)

	gen, err = c.InvoiceStatisticsGeneration(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), gen)
	require.NoError(t, c.SetInvoiceStatistics(ctx, 2024, gen, sampleStatistics()))
	_, ok, err = c.GetInvoiceStatistics(ctx, 2024)
	require.NoError(t, err)
	assert.True(t, ok)
}
