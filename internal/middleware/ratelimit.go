package middleware

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aromi/coach-api/internal/models"
	"github.com/aromi/coach-api/internal/request"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	stdlibmw "github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	redisstore "github.com/ulule/limiter/v3/drivers/store/redis"
)

const (
	// DefaultRatelimitKey is the config row that backs API-wide limiting
	DefaultRatelimitKey  = "default"
	defaultRatelimitRate = "5-S"
)

// RedisLimiter wraps the Redis client backing rate limit state
type RedisLimiter struct {
	client *redis.Client
}

// NewRedisLimiter connects to Redis and verifies the connection
func NewRedisLimiter(redisURL string) (*RedisLimiter, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisLimiter{client: client}, nil
}

// Close closes the Redis connection
func (l *RedisLimiter) Close() error {
	return l.client.Close()
}

// Ping checks if Redis is reachable
func (l *RedisLimiter) Ping(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}

// RatelimitConfigStore loads and seeds the persisted rate configuration
type RatelimitConfigStore interface {
	Get(ctx context.Context, configKey string) (*models.RatelimitConfig, error)
	Set(ctx context.Context, configKey, rate string) error
}

// RateLimitFromDB returns middleware that limits by client IP using
// ulule/limiter over Redis. The rate is loaded from the database; when
// no row exists the default rate is seeded.
func RateLimitFromDB(redisLimiter *RedisLimiter, store RatelimitConfigStore, defaultRate string) (func(http.Handler) http.Handler, error) {
	if defaultRate == "" {
		defaultRate = defaultRatelimitRate
	}

	ctx := context.Background()
	rateStr := defaultRate
	cfg, err := store.Get(ctx, DefaultRatelimitKey)
	switch {
	case err == nil && cfg.Rate != "":
		rateStr = cfg.Rate
	case err != nil && errors.Is(err, sql.ErrNoRows):
		if err := store.Set(ctx, DefaultRatelimitKey, defaultRate); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	}

	rate, err := limiter.NewRateFromFormatted(rateStr)
	if err != nil {
		return nil, err
	}

	redisStore, err := redisstore.NewStore(redisLimiter.client)
	if err != nil {
		return nil, err
	}

	instance := limiter.New(redisStore, rate)
	keyGetter := func(r *http.Request) string {
		return request.ClientIP(r)
	}
	mw := stdlibmw.NewMiddleware(instance, stdlibmw.WithKeyGetter(keyGetter))
	return mw.Handler, nil
}
