package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/ulule/limiter/v3"
	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"

	"github.com/BruksfildServices01/church-platform/internal/httperr"
)

const limiterPrefix = "church_limiter"

// NewLimiterStore returns a Redis-backed store when redisURL is set and
// reachable, otherwise an in-process one.
func NewLimiterStore(ctx context.Context, redisURL string, log logrus.FieldLogger) limiter.Store {
	if redisURL == "" {
		return memory.NewStoreWithOptions(limiter.StoreOptions{Prefix: limiterPrefix})
	}

	store, err := newRedisStore(ctx, redisURL)
	if err != nil {
		log.WithError(err).Warn("redis rate-limit store unavailable, falling back to memory")
		return memory.NewStoreWithOptions(limiter.StoreOptions{Prefix: limiterPrefix})
	}
	return store
}

func newRedisStore(ctx context.Context, redisURL string) (limiter.Store, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return sredis.NewStoreWithOptions(client, limiter.StoreOptions{Prefix: limiterPrefix})
}

// RateLimit allows requests per period for each client IP.
func RateLimit(store limiter.Store, requests int64, period time.Duration, log logrus.FieldLogger) gin.HandlerFunc {
	rate := limiter.Rate{Period: period, Limit: requests}
	instance := limiter.New(store, rate)

	return mgin.NewMiddleware(instance,
		mgin.WithLimitReachedHandler(func(c *gin.Context) {
			httperr.Write(c, http.StatusTooManyRequests, "too_many_requests", "Too many requests, please try again later")
		}),
		mgin.WithErrorHandler(func(c *gin.Context, err error) {
			// an unreachable store must not take the API down
			log.WithError(err).Warn("rate limiter store error")
			c.Next()
		}),
	)
}
