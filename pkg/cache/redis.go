package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/dept-portal-api/pkg/config"
)

const keySeparator = ":"

// NewRedis returns a configured Redis client, failing fast when the server is unreachable.
func NewRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return client, nil
}

// Key joins non-empty parts into a namespaced cache key, e.g. Key("report", "dist", classID).
// Empty parts are rendered as "_" so optional filters keep a stable position.
func Key(parts ...string) string {
	normalised := make([]string, len(parts))
	for i, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			part = "_"
		}
		normalised[i] = part
	}
	return strings.Join(normalised, keySeparator)
}

// Pattern returns a glob matching every key that starts with the provided parts.
func Pattern(parts ...string) string {
	return Key(parts...) + keySeparator + "*"
}
