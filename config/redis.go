// config/redis.go
package config

import (
	"context"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

// ConnectRedis connects the client backing the share guard counters. Redis
// is optional here: on failure the public share paths just run unguarded, so
// a missing Redis never takes the service down.
func ConnectRedis() *redis.Client {
	opts, err := redisOptions()
	if err != nil {
		log.Printf("Warning: invalid REDIS_URL: %v", err)
		log.Println("Share link probe guarding will be disabled")
		return nil
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		log.Printf("Warning: Redis connection failed: %v", err)
		log.Println("Share link probe guarding will be disabled")
		return nil
	}

	log.Println("Connected to Redis")
	return client
}

// redisOptions prefers a full REDIS_URL and falls back to the discrete
// REDIS_ADDR / REDIS_PASSWORD / REDIS_DB variables.
func redisOptions() (*redis.Options, error) {
	if rawURL := os.Getenv("REDIS_URL"); rawURL != "" {
		return redis.ParseURL(rawURL)
	}

	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	db := 0
	if dbStr := os.Getenv("REDIS_DB"); dbStr != "" {
		if parsed, err := strconv.Atoi(dbStr); err == nil {
			db = parsed
		}
	}

	// The workload is small INCR/EXPIRE counters on the public share paths,
	// so the pool stays modest and timeouts short.
	return &redis.Options{
		Addr:         addr,
		Password:     os.Getenv("REDIS_PASSWORD"),
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		PoolSize:     10,
		MaxRetries:   2,
	}, nil
}
