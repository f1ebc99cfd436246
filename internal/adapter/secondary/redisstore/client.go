package redisstore

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ruudy-sib/deferq/internal/config"
)

// NewClient creates a Redis client from the application configuration
// and verifies the connection with a ping. REDIS_MODE selects a
// standalone, sentinel or cluster client.
func NewClient(ctx context.Context, cfg *config.Config, logger *zap.Logger) (redis.UniversalClient, error) {
	opts, err := universalOptions(cfg)
	if err != nil {
		return nil, err
	}

	var client redis.UniversalClient
	switch cfg.RedisMode {
	case "cluster":
		client = redis.NewClusterClient(opts.Cluster())
	case "sentinel":
		client = redis.NewFailoverClient(opts.Failover())
	default:
		client = redis.NewClient(opts.Simple())
	}

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	logger.Info("connected to redis",
		zap.String("mode", cfg.RedisMode),
		zap.Strings("addrs", opts.Addrs),
	)
	return client, nil
}

func universalOptions(cfg *config.Config) (*redis.UniversalOptions, error) {
	opts := &redis.UniversalOptions{
		Password: cfg.RedisPassword,
	}

	switch cfg.RedisMode {
	case "", "standalone":
		opts.Addrs = []string{cfg.RedisAddr}
		opts.DB = cfg.RedisDB
	case "sentinel":
		if cfg.RedisMasterName == "" || len(cfg.RedisSentinelAddrs) == 0 {
			return nil, fmt.Errorf("redis sentinel mode requires a master name and sentinel addresses")
		}
		opts.Addrs = cfg.RedisSentinelAddrs
		opts.MasterName = cfg.RedisMasterName
		opts.DB = cfg.RedisDB
	case "cluster":
		if len(cfg.RedisClusterAddrs) == 0 {
			return nil, fmt.Errorf("redis cluster mode requires cluster addresses")
		}
		opts.Addrs = cfg.RedisClusterAddrs
	default:
		return nil, fmt.Errorf("unknown redis mode %q", cfg.RedisMode)
	}

	return opts, nil
}
