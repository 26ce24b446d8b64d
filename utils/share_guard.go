package utils

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
)

// ValidateShareAttempts throttles lookups of invalid share tokens per client
// IP so the public profile path cannot be used to brute-force the token
// namespace. A nil redis client disables the guard.
func ValidateShareAttempts(ip string, redisClient *redis.Client) error {
	if redisClient == nil {
		return nil
	}

	key := "share_attempts:" + ip
	attempts, err := redisClient.Incr(context.Background(), key).Result()
	if err != nil {
		return nil // guard is best-effort, never block on Redis trouble
	}

	if attempts == 1 {
		redisClient.Expire(context.Background(), key, 1*time.Hour)
	}

	// Limit to 30 invalid-token probes per hour
	if attempts > 30 {
		return errors.New("too many share link attempts")
	}

	return nil
}

// ResetShareAttempts clears the probe counter after a successful lookup so
// legitimate viewers are never throttled.
func ResetShareAttempts(ip string, redisClient *redis.Client) {
	if redisClient == nil {
		return
	}
	redisClient.Del(context.Background(), "share_attempts:"+ip)
}
