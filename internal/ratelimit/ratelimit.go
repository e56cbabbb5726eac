package ratelimit

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// Store counts hits per key inside a fixed window. Injected so the
// middleware never owns process-global mutable state.
type Store interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}

type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if count == 1 {
		_ = s.client.Expire(ctx, key, window).Err()
	}
	return count, nil
}

// Middleware limits requests per user (IP fallback) within a fixed window.
// A broken or absent store fails open: analysis availability outranks the
// limiter.
func Middleware(store Store, limit int, window time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if store == nil || limit <= 0 {
			return c.Next()
		}

		key, _ := c.Locals("user_id").(string)
		if key == "" {
			key = c.IP()
		}

		count, err := store.Incr(c.Context(), "ratelimit:"+key, window)
		if err != nil {
			log.Printf("rate limit store error: %v", err)
			return c.Next()
		}
		if count > int64(limit) {
			return fiber.NewError(fiber.StatusTooManyRequests, "rate limit exceeded")
		}
		return c.Next()
	}
}
