package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/medichain/internal/config"
)

// redisBroadcaster fans events out across processes via redis pub/sub.
type redisBroadcaster struct {
	client *goredis.Client
	prefix string
	buffer int
	logger *zap.Logger
}

func newRedisBroadcaster(lc fx.Lifecycle, cfg config.Realtime, logger *zap.Logger) (Broadcaster, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	b := &redisBroadcaster{
		client: client,
		prefix: cfg.ChannelPrefix,
		buffer: cfg.BufferSize,
		logger: logger,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := client.Ping(ctx).Err(); err != nil {
				return fmt.Errorf("ping redis: %w", err)
			}
			if logger != nil {
				logger.Info("redis broadcaster connected", zap.String("addr", cfg.Redis.Addr))
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if logger != nil {
				logger.Info("closing redis broadcaster")
			}
			return client.Close()
		},
	})

	return b, nil
}

func (b *redisBroadcaster) key(channel string) string {
	if b.prefix == "" {
		return channel
	}
	return b.prefix + ":" + channel
}

// Join subscribes to the channel's redis topic and adapts messages into Events.
func (b *redisBroadcaster) Join(ctx context.Context, channel string) (Subscription, error) {
	pubsub := b.client.Subscribe(ctx, b.key(channel))
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", channel, err)
	}

	events := make(chan Event, b.buffer)
	go func() {
		defer close(events)
		for msg := range pubsub.Channel() {
			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				if b.logger != nil {
					b.logger.Warn("realtime event decode failed", zap.String("channel", channel), zap.Error(err))
				}
				continue
			}
			select {
			case events <- event:
			default:
				// Subscriber is not keeping up; drop.
			}
		}
	}()

	return &redisSubscription{pubsub: pubsub, events: events}, nil
}

// Publish fires the event at current subscribers of the channel.
func (b *redisBroadcaster) Publish(ctx context.Context, channel, name string, payload any) error {
	event, err := newEvent(channel, name, payload)
	if err != nil {
		return err
	}
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, b.key(channel), data).Err()
}

type redisSubscription struct {
	pubsub *goredis.PubSub
	events chan Event
}

func (s *redisSubscription) Events() <-chan Event { return s.events }

func (s *redisSubscription) Close() error {
	return s.pubsub.Close()
}
