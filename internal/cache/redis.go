// Package cache provides a Redis-backed score cache and a small in-process
// LRU for interpretations. Both are best-effort: a cache failure never fails
// a scoring request, it just costs a recompute.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/kidney-health-score-server/internal/domain"
)

// ScoreCache caches computed KSLS results in Redis, keyed by a digest of the
// scoring input. A circuit breaker guards every Redis call so a cache outage
// degrades to cache misses instead of piling up timeouts.
type ScoreCache struct {
	redis      *redis.Client
	breaker    *gobreaker.CircuitBreaker
	defaultTTL time.Duration
	log        *logrus.Logger
}

type cachedScore struct {
	Result    domain.KSLSResult `json:"result"`
	CachedAt  time.Time         `json:"cached_at"`
	ExpiresAt time.Time         `json:"expires_at"`
}

// NewScoreCache creates a score cache from the cache configuration and
// verifies the Redis connection.
func NewScoreCache(config domain.CacheConfig, logger *logrus.Logger) (*ScoreCache, error) {
	opts, err := redis.ParseURL(config.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	opts.PoolSize = config.PoolSize
	opts.PoolTimeout = config.PoolTimeout
	opts.MaxRetries = config.MaxRetries

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "ScoreCache",
		MaxRequests: 5,
		Interval:    30 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Cache circuit breaker state changed")
		},
	})

	return &ScoreCache{
		redis:      client,
		breaker:    breaker,
		defaultTTL: config.DefaultTTL,
		log:        logger,
	}, nil
}

// GetScore retrieves a cached KSLS result for the given input. A miss,
// an expired entry, or an open breaker all return found=false with no error.
func (c *ScoreCache) GetScore(ctx context.Context, input domain.KSLSInput) (domain.KSLSResult, bool) {
	key, err := ScoreKey(input)
	if err != nil {
		return domain.KSLSResult{}, false
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.redis.Get(ctx, key).Result()
	})
	if err != nil {
		if err != redis.Nil && err != gobreaker.ErrOpenState {
			c.log.WithError(err).Debug("Score cache read failed")
		}
		return domain.KSLSResult{}, false
	}

	var cached cachedScore
	if err := json.Unmarshal([]byte(result.(string)), &cached); err != nil {
		// Corrupted entry; drop it.
		c.redis.Del(ctx, key)
		return domain.KSLSResult{}, false
	}

	if time.Now().After(cached.ExpiresAt) {
		c.redis.Del(ctx, key)
		return domain.KSLSResult{}, false
	}

	return cached.Result, true
}

// SetScore caches a KSLS result. Failures are logged and swallowed.
func (c *ScoreCache) SetScore(ctx context.Context, input domain.KSLSInput, result domain.KSLSResult) {
	key, err := ScoreKey(input)
	if err != nil {
		return
	}

	cached := cachedScore{
		Result:    result,
		CachedAt:  time.Now(),
		ExpiresAt: time.Now().Add(c.defaultTTL),
	}

	payload, err := json.Marshal(cached)
	if err != nil {
		return
	}

	if _, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, c.redis.Set(ctx, key, payload, c.defaultTTL).Err()
	}); err != nil && err != gobreaker.ErrOpenState {
		c.log.WithError(err).Debug("Score cache write failed")
	}
}

// Ping checks the Redis connection.
func (c *ScoreCache) Ping(ctx context.Context) error {
	return c.redis.Ping(ctx).Err()
}

// BreakerState returns the circuit breaker state, for health reporting.
func (c *ScoreCache) BreakerState() gobreaker.State {
	return c.breaker.State()
}

// Close closes the Redis connection.
func (c *ScoreCache) Close() error {
	return c.redis.Close()
}

// ScoreKey derives the cache key for a scoring input. Identical inputs map
// to identical keys because scoring itself is deterministic.
func ScoreKey(input domain.KSLSInput) (string, error) {
	payload, err := json.Marshal(input)
	if err != nil {
		return "", fmt.Errorf("marshaling score key input: %w", err)
	}

	hash := sha256.Sum256(payload)
	return fmt.Sprintf("ksls:input:%x", hash[:8]), nil
}
