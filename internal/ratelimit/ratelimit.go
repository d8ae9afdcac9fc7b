package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter is a fixed-window request counter backed by redis.
type Limiter struct {
	redis  *redis.Client
	limit  int64
	window time.Duration
}

// NewLimiter initializes a limiter allowing limit requests per window
func NewLimiter(client *redis.Client, limit int64, window time.Duration) *Limiter {
	return &Limiter{redis: client, limit: limit, window: window}
}

func (l *Limiter) key(clientID string) string {
	return "ratelimit:login:" + clientID
}

// Allow counts a request for the client and reports whether it is within
// the window's limit. The window starts when the counter is created.
func (l *Limiter) Allow(ctx context.Context, clientID string) (bool, error) {
	count, err := l.redis.Incr(ctx, l.key(clientID)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to count request: %w", err)
	}
	if count == 1 {
		if err := l.redis.Expire(ctx, l.key(clientID), l.window).Err(); err != nil {
			return false, fmt.Errorf("failed to set window expiry: %w", err)
		}
	}
	return count <= l.limit, nil
}
