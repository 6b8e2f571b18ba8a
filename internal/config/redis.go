package config

// Redis backs the public response cache and the rate limiter.  Both
// degrade to pass-through when no client is available, so a failed
// connection at startup is reported but not fatal.

import (
	"context"
	"crypto/tls"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient connects using REDIS_URL (redis:// or rediss://) when
// set, otherwise REDIS_ADDR, REDIS_PASSWORD, REDIS_DB and REDIS_TLS.  The
// connection is verified with a short ping.
func NewRedisClient(ctx context.Context) (*redis.Client, error) {
	var opts *redis.Options
	if u := os.Getenv("REDIS_URL"); u != "" {
		parsed, err := redis.ParseURL(u)
		if err != nil {
			return nil, fmt.Errorf("parse REDIS_URL: %w", err)
		}
		opts = parsed
	} else {
		opts = &redis.Options{
			Addr:     getenv("REDIS_ADDR", "localhost:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       envInt("REDIS_DB", 0),
		}
		if envBool("REDIS_TLS", false) {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
	}

	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", opts.Addr, err)
	}
	return client, nil
}
