package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pybook/pybook-backend/internal/pkg/logger"
	"github.com/pybook/pybook-backend/internal/utils"
)

// New connects to redis using the usual REDIS_* env vars and pings once so a
// bad address fails at startup rather than on first use.
func New(log *logger.Logger) (*redis.Client, error) {
	clientLog := log.With("client", "Redis")

	host := utils.GetEnv("REDIS_HOST", "localhost", log)
	port := utils.GetEnv("REDIS_PORT", "6379", log)
	password := utils.GetEnv("REDIS_PASSWORD", "", log)
	dbIndex := utils.GetEnvAsInt("REDIS_DB", 0, log)

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", host, port),
		Password: password,
		DB:       dbIndex,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		clientLog.Error("Redis ping failed", "error", err)
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	clientLog.Info("Connected to redis", "addr", client.Options().Addr)
	return client, nil
}
