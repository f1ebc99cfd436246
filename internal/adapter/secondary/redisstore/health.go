package redisstore

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/ruudy-sib/deferq/internal/domain"
	"github.com/ruudy-sib/deferq/internal/port/secondary"
)

// HealthCheck reports Redis as healthy when it answers PING and the
// dead-letter keys hold the types the store writes. A key of the wrong type
// means another application shares the database and every Save would fail.
type HealthCheck struct {
	client   redis.UniversalClient
	expected map[string]string
}

// NewHealthCheck creates a Redis health checker.
func NewHealthCheck(client redis.UniversalClient) secondary.HealthChecker {
	return &HealthCheck{
		client: client,
		expected: map[string]string{
			domain.RedisDeadLetterIndexKey: "zset",
			domain.RedisDeadLetterDataKey:  "hash",
		},
	}
}

// Name returns the name of this health check.
func (h *HealthCheck) Name() string {
	return "redis"
}

// Check pings Redis and verifies the dead-letter key types.
func (h *HealthCheck) Check(ctx context.Context) error {
	if err := h.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping: %w", err)
	}

	for key, want := range h.expected {
		got, err := h.client.Type(ctx, key).Result()
		if err != nil {
			return fmt.Errorf("type of %s: %w", key, err)
		}
		if got != "none" && got != want {
			return fmt.Errorf("key %s holds a %s, want %s", key, got, want)
		}
	}
	return nil
}
