package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/GoPolymarket/whaleledger/internal/config"
	"github.com/GoPolymarket/whaleledger/internal/model"
	"github.com/GoPolymarket/whaleledger/internal/pkg/logger"
)

// MovementSink receives events relayed from the Redis channel.
type MovementSink interface {
	Publish(ctx context.Context, evt *model.MovementEvent) error
}

// RedisClient publishes movement events on a pub/sub channel so every server
// instance can relay them to its own stream subscribers.
type RedisClient struct {
	Client  *redis.Client
	channel string
}

func NewRedisClient(cfg *config.Config) (*RedisClient, error) {
	if cfg.Redis.Addr == "" {
		return nil, fmt.Errorf("redis address is empty")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return NewRedisPublisher(rdb, cfg.Redis.MovementChannel), nil
}

func NewRedisPublisher(rdb *redis.Client, channel string) *RedisClient {
	if channel == "" {
		channel = "whaleledger:movements"
	}
	return &RedisClient{Client: rdb, channel: channel}
}

func (r *RedisClient) Publish(ctx context.Context, evt *model.MovementEvent) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	return r.Client.Publish(ctx, r.channel, payload).Err()
}

// Relay forwards channel messages to sink until ctx is cancelled.
func (r *RedisClient) Relay(ctx context.Context, sink MovementSink) error {
	sub := r.Client.Subscribe(ctx, r.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", r.channel, err)
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var evt model.MovementEvent
			if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
				logger.Warn("dropping malformed movement event", "error", err)
				continue
			}
			if err := sink.Publish(ctx, &evt); err != nil {
				logger.Warn("movement relay failed", "event", evt.ID, "error", err)
			}
		}
	}
}

func (r *RedisClient) Close() error {
	return r.Client.Close()
}
