package app

import (
	"context"
	"fmt"

	"github.com/chenyahui/gin-cache/persist"
	redisv8 "github.com/go-redis/redis/v8"
)

// newResponseStore keeps cached HTTP responses in the Redis instance the
// post cache already uses. gin-cache's Redis store is built on the v8
// client, the post cache stays on v9.
func newResponseStore(ctx context.Context, addr, password string, db int) (*persist.RedisStore, error) {
	rdb := redisv8.NewClient(&redisv8.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis for response cache, %w", err)
	}

	return persist.NewRedisStore(rdb), nil
}
