package repository

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// JoinGuard decides whether a client may attempt another join.
type JoinGuard interface {
	Allow(ctx context.Context, clientKey string) (bool, error)
}

type redisJoinGuard struct {
	client *redis.Client
	prefix string
	limit  int
	window time.Duration
}

// NewJoinGuard returns a fixed-window rate limiter stored in Redis under
// keyPrefix. A nil client or non-positive limit disables limiting.
func NewJoinGuard(client *redis.Client, keyPrefix string, limit int, window time.Duration) JoinGuard {
	if client == nil || limit <= 0 || window <= 0 {
		return allowAll{}
	}
	return &redisJoinGuard{client: client, prefix: keyPrefix + "joins:", limit: limit, window: window}
}

func (g *redisJoinGuard) Allow(ctx context.Context, clientKey string) (bool, error) {
	key := g.prefix + clientKey

	pipe := g.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, g.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}
	return incr.Val() <= int64(g.limit), nil
}

type allowAll struct{}

func (allowAll) Allow(context.Context, string) (bool, error) { return true, nil }
