package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/medichain/internal/config"
)

// Event is an ephemeral push to currently connected clients. Nothing here is
// persisted; the notification log is the durable record.
type Event struct {
	Channel string          `json:"channel"`
	Name    string          `json:"name"`
	Payload json.RawMessage `json:"payload"`
	Time    time.Time       `json:"time"`
}

// Subscription is one connected client's membership in a channel. Multiple
// subscriptions may share a channel key (multi-device).
type Subscription interface {
	Events() <-chan Event
	Close() error
}

// Broadcaster is the pluggable publish/subscribe abstraction. Publish is
// fire-and-forget: no queuing, no retry, no delivery guarantee. A
// disconnected recipient simply misses the event.
type Broadcaster interface {
	Join(ctx context.Context, channel string) (Subscription, error)
	Publish(ctx context.Context, channel, event string, payload any) error
}

// ManufacturerChannel returns the broadcast key for a manufacturer.
func ManufacturerChannel(id int64) string {
	return fmt.Sprintf("manufacturer-%d", id)
}

// WholesalerChannel returns the broadcast key for a wholesaler.
func WholesalerChannel(id int64) string {
	return fmt.Sprintf("wholesaler-%d", id)
}

// UserChannel returns the role-agnostic broadcast key for a user.
func UserChannel(id int64) string {
	return fmt.Sprintf("user-%d", id)
}

// Module wires the broadcaster into the Fx graph.
var Module = fx.Provide(NewBroadcaster)

// NewBroadcaster builds the configured broadcaster (redis, memory, or noop).
func NewBroadcaster(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) (Broadcaster, error) {
	switch cfg.Realtime.Driver {
	case "noop":
		if logger != nil {
			logger.Info("realtime disabled; using noop broadcaster")
		}
		return noopBroadcaster{}, nil
	case "memory":
		return NewMemoryHub(cfg.Realtime.BufferSize), nil
	case "redis":
		return newRedisBroadcaster(lc, cfg.Realtime, logger)
	default:
		return nil, fmt.Errorf("unsupported realtime driver: %s", cfg.Realtime.Driver)
	}
}

func newEvent(channel, name string, payload any) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{
		Channel: channel,
		Name:    name,
		Payload: data,
		Time:    time.Now().UTC(),
	}, nil
}

type noopBroadcaster struct{}

func (noopBroadcaster) Join(context.Context, string) (Subscription, error) {
	return noopSubscription{events: make(chan Event)}, nil
}

func (noopBroadcaster) Publish(context.Context, string, string, any) error {
	return nil
}

type noopSubscription struct {
	events chan Event
}

func (s noopSubscription) Events() <-chan Event { return s.events }
func (s noopSubscription) Close() error         { return nil }
