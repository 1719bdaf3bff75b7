package security

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/redis/go-redis/v9"
)

// RateLimiter throttles submission endpoints with a fixed window
// counter in Redis, keyed by user when authenticated and by IP
// otherwise.
type RateLimiter struct {
	redis  *redis.Client
	limit  int
	window time.Duration
}

func NewRateLimiter(redisClient *redis.Client, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		redis:  redisClient,
		limit:  limit,
		window: window,
	}
}

// Limit wraps a route handler. Redis failures let the request through:
// throttling is protection, not a dependency.
func (r *RateLimiter) Limit(next func(*core.RequestEvent) error) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		if r.redis == nil {
			return next(e)
		}

		identifier := e.RealIP()
		if e.Auth != nil {
			identifier = "user:" + e.Auth.Id
		}

		key := fmt.Sprintf("favordesk:ratelimit:%s", identifier)
		ctx := e.Request.Context()

		count, err := r.redis.Incr(ctx, key).Result()
		if err != nil {
			slog.Warn("rate limiter unavailable", "error", err)
			return next(e)
		}
		if count == 1 {
			r.redis.Expire(ctx, key, r.window)
		}

		if count > int64(r.limit) {
			return apis.NewTooManyRequestsError("Rate limit exceeded. Please try again later.", nil)
		}

		return next(e)
	}
}
