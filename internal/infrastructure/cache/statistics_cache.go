package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/invoicing/backend/internal/domain/invoice"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

const (
	// DefaultStatisticsTTL bounds how stale cached statistics can get when
	// an invalidation is lost
	DefaultStatisticsTTL = 5 * time.Minute

	defaultKeyPrefix = "invoicing:"
	statisticsKey    = "stats:invoice"
	generationKey    = "stats:invoice:generation"
)

// errStaleGeneration aborts a write whose statistics predate an invalidation
var errStaleGeneration = errors.New("invoice statistics generation changed")

// statisticsEntry is the cached form of invoice statistics. Year records
// which calendar year CurrentYearSum covers.
type statisticsEntry struct {
	Year           int             `json:"year"`
	CurrentYearSum decimal.Decimal `json:"current_year_sum"`
	AllTimeSum     decimal.Decimal `json:"all_time_sum"`
	Count          int64           `json:"count"`
}

func newStatisticsEntry(year int, st *invoice.Statistics) statisticsEntry {
	return statisticsEntry{
		Year:           year,
		CurrentYearSum: st.CurrentYearSum,
		AllTimeSum:     st.AllTimeSum,
		Count:          st.Count,
	}
}

func (e statisticsEntry) statistics() *invoice.Statistics {
	return &invoice.Statistics{
		CurrentYearSum: e.CurrentYearSum,
		AllTimeSum:     e.AllTimeSum,
		Count:          e.Count,
	}
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// RedisStatisticsCache stores invoice statistics in Redis under a single
// key, so that invalidation is one DEL regardless of the year. A second
// key counts invalidations and guards writes through WATCH.
type RedisStatisticsCache struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// NewRedisStatisticsCache connects to Redis and verifies the connection
func NewRedisStatisticsCache(cfg RedisConfig, ttl time.Duration) (*RedisStatisticsCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisStatisticsCacheWithClient(client, "", ttl), nil
}

// NewRedisStatisticsCacheWithClient creates a cache on an existing client
func NewRedisStatisticsCacheWithClient(client *redis.Client, keyPrefix string, ttl time.Duration) *RedisStatisticsCache {
	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}
	if ttl <= 0 {
		ttl = DefaultStatisticsTTL
	}
	return &RedisStatisticsCache{
		client:    client,
		keyPrefix: keyPrefix,
		ttl:       ttl,
	}
}

func (c *RedisStatisticsCache) key() string {
	return c.keyPrefix + statisticsKey
}

func (c *RedisStatisticsCache) generationKey() string {
	return c.keyPrefix + generationKey
}

// generationOf parses a GET of the generation key; a missing key is zero
func generationOf(cmd *redis.StringCmd) (int64, error) {
	gen, err := cmd.Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// InvoiceStatisticsGeneration returns the invalidation counter, zero when
// nothing was invalidated yet
func (c *RedisStatisticsCache) InvoiceStatisticsGeneration(ctx context.Context) (int64, error) {
	gen, err := generationOf(c.client.Get(ctx, c.generationKey()))
	if err != nil {
		return 0, fmt.Errorf("failed to read invoice statistics generation: %w", err)
	}
	return gen, nil
}

// GetInvoiceStatistics returns the cached statistics for year. An entry
// cached for another year is a miss.
func (c *RedisStatisticsCache) GetInvoiceStatistics(ctx context.Context, year int) (*invoice.Statistics, bool, error) {
	data, err := c.client.Get(ctx, c.key()).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read invoice statistics: %w", err)
	}

	var entry statisticsEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, false, fmt.Errorf("failed to decode invoice statistics: %w", err)
	}
	if entry.Year != year {
		return nil, false, nil
	}
	return entry.statistics(), true, nil
}

// SetInvoiceStatistics caches stats for year with the configured TTL. The
// write is skipped when the generation differs from the stored counter or
// changes before EXEC.
func (c *RedisStatisticsCache) SetInvoiceStatistics(ctx context.Context, year int, generation int64, stats *invoice.Statistics) error {
	data, err := json.Marshal(newStatisticsEntry(year, stats))
	if err != nil {
		return fmt.Errorf("failed to encode invoice statistics: %w", err)
	}

	genKey := c.generationKey()
	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := generationOf(tx.Get(ctx, genKey))
		if err != nil {
			return err
		}
		if current != generation {
			return errStaleGeneration
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, c.key(), data, c.ttl)
			return nil
		})
		return err
	}, genKey)

	switch {
	case err == nil, errors.Is(err, errStaleGeneration), errors.Is(err, redis.TxFailedErr):
		return nil
	default:
		return fmt.Errorf("failed to write invoice statistics: %w", err)
	}
}

// InvalidateInvoiceStatistics drops the cached entry and bumps the generation
// in one transaction
func (c *RedisStatisticsCache) InvalidateInvoiceStatistics(ctx context.Context) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, c.generationKey())
		pipe.Del(ctx, c.key())
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to invalidate invoice statistics: %w", err)
	}
	return nil
}

// Ping checks the Redis connection
func (c *RedisStatisticsCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis client
func (c *RedisStatisticsCache) Close() error {
	return c.client.Close()
}
