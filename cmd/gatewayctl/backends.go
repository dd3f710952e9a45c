package main

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/vorgateway/gateway/pkg/config"
	"github.com/vorgateway/gateway/pkg/requestqueue"
)

// openRequestQueue returns a Redis-backed queue when cfg.RedisAddr is set,
// otherwise an in-process queue — the same in-process/cross-process split
// every other shared primitive in this gateway makes.
func openRequestQueue(cfg *config.Config) (requestqueue.Queue, error) {
	if cfg.RedisAddr == "" {
		return requestqueue.NewInProcQueue(), nil
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("requestqueue: redis unreachable at %s: %w", cfg.RedisAddr, err)
	}
	return requestqueue.NewRedisQueue(client, cfg.RequestQueueName), nil
}
