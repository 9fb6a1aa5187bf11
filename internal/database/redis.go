package database

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisClients splits queue traffic from pub/sub: the worker pool blocks
// its connection on BLPOP, so the websocket hub subscribes on its own.
type RedisClients struct {
	Queue  *redis.Client
	PubSub *redis.Client
}

func NewRedisClients(redisURL string) (*RedisClients, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	queue, err := connectRedis(ctx, opt)
	if err != nil {
		return nil, fmt.Errorf("connecting redis queue client: %w", err)
	}

	pubsub, err := connectRedis(ctx, opt)
	if err != nil {
		queue.Close()
		return nil, fmt.Errorf("connecting redis pubsub client: %w", err)
	}

	return &RedisClients{Queue: queue, PubSub: pubsub}, nil
}

func connectRedis(ctx context.Context, opt *redis.Options) (*redis.Client, error) {
	clientOpt := *opt
	client := redis.NewClient(&clientOpt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}

func (r *RedisClients) Close() {
	r.Queue.Close()
	r.PubSub.Close()
}
