package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/invoicing/backend/internal/domain/invoice"
	"github.com/invoicing/backend/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func sampleStatistics() *invoice.Statistics {
	return &invoice.Statistics{
		CurrentYearSum: decimal.RequireFromString("1500.50"),
		AllTimeSum:     decimal.RequireFromString("2500.75"),
		Count:          3,
	}
}

func TestInMemoryStatisticsCache(t *testing.T) {
	ctx := context.Background()

	t.Run("miss on empty cache", func(t *testing.T) {
		c := NewInMemoryStatisticsCache(time.Minute)
		stats, ok, err := c.GetInvoiceStatistics(ctx, 2024)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Nil(t, stats)
	})

	t.Run("hit for the cached year only", func(t *testing.T) {
		c := NewInMemoryStatisticsCache(time.Minute)
		require.NoError(t, c.SetInvoiceStatistics(ctx, 2024, 0, sampleStatistics()))

		stats, ok, err := c.GetInvoiceStatistics(ctx, 2024)
		require.NoError(t, err)
		require.True(t, ok)
		assert.True(t, stats.AllTimeSum.Equal(decimal.RequireFromString("2500.75")))
		assert.Equal(t, int64(3), stats.Count)

		_, ok, _ = c.GetInvoiceStatistics(ctx, 2025)
		assert.False(t, ok)
	})

	t.Run("returned values are copies", func(t *testing.T) {
		c := NewInMemoryStatisticsCache(time.Minute)
		require.NoError(t, c.SetInvoiceStatistics(ctx, 2024, 0, sampleStatistics()))

		first, _, _ := c.GetInvoiceStatistics(ctx, 2024)
		first.Count = 99
		second, _, _ := c.GetInvoiceStatistics(ctx, 2024)
		assert.Equal(t, int64(3), second.Count)
	})

	t.Run("entries expire", func(t *testing.T) {
		c := NewInMemoryStatisticsCache(time.Minute)
		now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
		c.now = func() time.Time { return now }
		require.NoError(t, c.SetInvoiceStatistics(ctx, 2024, 0, sampleStatistics()))

		now = now.Add(59 * time.Second)
		_, ok, _ := c.GetInvoiceStatistics(ctx, 2024)
		assert.True(t, ok)

		now = now.Add(time.Second)
		_, ok, _ = c.GetInvoiceStatistics(ctx, 2024)
		assert.False(t, ok)
	})

	t.Run("invalidate drops the entry", func(t *testing.T) {
		c := NewInMemoryStatisticsCache(0)
		assert.Equal(t, DefaultStatisticsTTL, c.ttl)
		require.NoError(t, c.SetInvoiceStatistics(ctx, 2024, 0, sampleStatistics()))
		require.NoError(t, c.InvalidateInvoiceStatistics(ctx))

		_, ok, _ := c.GetInvoiceStatistics(ctx, 2024)
		assert.False(t, ok)
	})

	t.Run("write from before an invalidation is dropped", func(t *testing.T) {
		c := NewInMemoryStatisticsCache(time.Minute)
		gen, err := c.InvoiceStatisticsGeneration(ctx)
		require.NoError(t, err)

		require.NoError(t, c.InvalidateInvoiceStatistics(ctx))
		require.NoError(t, c.SetInvoiceStatistics(ctx, 2024, gen, sampleStatistics()))
		_, ok, _ := c.GetInvoiceStatistics(ctx, 2024)
		assert.False(t, ok)

		gen, err = c.InvoiceStatisticsGeneration(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), gen)
		require.NoError(t, c.SetInvoiceStatistics(ctx, 2024, gen, sampleStatistics()))
		_, ok, _ = c.GetInvoiceStatistics(ctx, 2024)
		assert.True(t, ok)
	})

	t.Run("concurrent access", func(t *testing.T) {
		c := NewInMemoryStatisticsCache(time.Minute)
		var wg sync.WaitGroup
		for i := range 20 {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				switch i % 3 {
				case 0:
					_ = c.SetInvoiceStatistics(ctx, 2024, 0, sampleStatistics())
				case 1:
					_, _, _ = c.GetInvoiceStatistics(ctx, 2024)
				default:
					_ = c.InvalidateInvoiceStatistics(ctx)
				}
			}(i)
		}
		wg.Wait()
	})
}

func TestRedisStatisticsCache_Unreachable(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	c := NewRedisStatisticsCacheWithClient(client, "", 0)
	t.Cleanup(func() { _ = c.Close() })
	ctx := context.Background()

	assert.Equal(t, "invoicing:stats:invoice", c.key())
	assert.Equal(t, "invoicing:stats:invoice:generation", c.generationKey())
	assert.Equal(t, DefaultStatisticsTTL, c.ttl)

	_, ok, err := c.GetInvoiceStatistics(ctx, 2024)
	assert.False(t, ok)
	assert.ErrorContains(t, err, "failed to read invoice statistics")
	_, err = c.InvoiceStatisticsGeneration(ctx)
	assert.ErrorContains(t, err, "failed to read invoice statistics generation")
	assert.ErrorContains(t, c.SetInvoiceStatistics(ctx, 2024, 0, sampleStatistics()), "failed to write invoice statistics")
	assert.ErrorContains(t, c.InvalidateInvoiceStatistics(ctx), "failed to invalidate invoice statistics")
	assert.Error(t, c.Ping(ctx))
}

func TestStatisticsCacheFactory(t *testing.T) {
	t.Run("redis disabled uses memory", func(t *testing.T) {
		f := NewStatisticsCacheFactory(config.RedisConfig{Enabled: false, StatsTTL: time.Minute},
			WithLogger(zaptest.NewLogger(t)))

		c, err := f.CreateCache()
		require.NoError(t, err)
		mem, ok := c.(*InMemoryStatisticsCache)
		require.True(t, ok)
		assert.Equal(t, time.Minute, mem.ttl)
	})

	t.Run("unreachable redis falls back to memory", func(t *testing.T) {
		f := NewStatisticsCacheFactory(config.RedisConfig{Enabled: true, Host: "127.0.0.1", Port: 1},
			WithLogger(zaptest.NewLogger(t)))

		c, err := f.CreateCache()
		require.NoError(t, err)
		assert.IsType(t, &InMemoryStatisticsCache{}, c)
	})

	t.Run("unreachable redis without fallback fails", func(t *testing.T) {
		f := NewStatisticsCacheFactory(config.RedisConfig{Enabled: true, Host: "127.0.0.1", Port: 1},
			WithInMemoryFallback(false))

		c, err := f.CreateCache()
		assert.Nil(t, c)
		assert.ErrorContains(t, err, "Redis required for statistics cache")
	})
}
