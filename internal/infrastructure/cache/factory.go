package cache

import (
	"context"
	"fmt"

	"github.com/invoicing/backend/internal/domain/invoice"
	"github.com/invoicing/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// StatisticsCache is the cache-aside store used for invoice statistics.
// SetInvoiceStatistics stores nothing when the generation has moved on
// since the caller read it.
type StatisticsCache interface {
	GetInvoiceStatistics(ctx context.Context, year int) (*invoice.Statistics, bool, error)
	InvoiceStatisticsGeneration(ctx context.Context) (int64, error)
	SetInvoiceStatistics(ctx context.Context, year int, generation int64, stats *invoice.Statistics) error
	InvalidateInvoiceStatistics(ctx context.Context) error
}

// StatisticsCacheFactory creates statistics caches based on configuration
type StatisticsCacheFactory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// StatisticsCacheFactoryOption is a functional option for configuring the factory
type StatisticsCacheFactoryOption func(*StatisticsCacheFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) StatisticsCacheFactoryOption {
	return func(f *StatisticsCacheFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether an unreachable Redis falls back to
// the in-memory cache. Default is true.
func WithInMemoryFallback(allow bool) StatisticsCacheFactoryOption {
	return func(f *StatisticsCacheFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewStatisticsCacheFactory creates a new factory
func NewStatisticsCacheFactory(cfg config.RedisConfig, opts ...StatisticsCacheFactoryOption) *StatisticsCacheFactory {
	f := &StatisticsCacheFactory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateRedisCache creates a Redis-backed statistics cache
func (f *StatisticsCacheFactory) CreateRedisCache() (*RedisStatisticsCache, error) {
	c, err := NewRedisStatisticsCache(RedisConfig{
		Host:     f.redisConfig.Host,
		Port:     f.redisConfig.Port,
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	}, f.redisConfig.StatsTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis statistics cache: %w", err)
	}
	return c, nil
}

// CreateCache returns the Redis cache when Redis is enabled and reachable,
// otherwise the in-memory cache if fallback is allowed
func (f *StatisticsCacheFactory) CreateCache() (StatisticsCache, error) {
	if !f.redisConfig.Enabled {
		f.logger.Info("Redis disabled, using in-memory statistics cache")
		return NewInMemoryStatisticsCache(f.redisConfig.StatsTTL), nil
	}

	c, err := f.CreateRedisCache()
	if err == nil {
		f.logger.Info("Using Redis statistics cache", zap.String("addr", f.redisConfig.Addr()))
		return c, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("Redis required for statistics cache but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory statistics cache. "+
		"Replicas will not see each other's invalidations.",
		zap.Error(err),
	)
	return NewInMemoryStatisticsCache(f.redisConfig.StatsTTL), nil
}

var (
	_ StatisticsCache = (*RedisStatisticsCache)(nil)
	_ StatisticsCache = (*InMemoryStatisticsCache)(nil)
)
