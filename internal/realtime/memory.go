package realtime

import (
	"context"
	"sync"
)

// MemoryHub is an in-process broadcaster. Sends are non-blocking: a
// subscriber whose buffer is full drops the event rather than stalling
// Publish, preserving the at-most-once, best-effort contract.
type MemoryHub struct {
	mu         sync.RWMutex
	channels   map[string]map[*memorySubscription]struct{}
	bufferSize int
}

// NewMemoryHub constructs a hub with the given per-subscriber buffer size.
func NewMemoryHub(bufferSize int) *MemoryHub {
	if bufferSize <= 0 {
		bufferSize = 16
	}
	return &MemoryHub{
		channels:   make(map[string]map[*memorySubscription]struct{}),
		bufferSize: bufferSize,
	}
}

// Join registers a new subscription on the channel key.
func (h *MemoryHub) Join(_ context.Context, channel string) (Subscription, error) {
	sub := &memorySubscription{
		hub:     h,
		channel: channel,
		events:  make(chan Event, h.bufferSize),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	subs, ok := h.channels[channel]
	if !ok {
		subs = make(map[*memorySubscription]struct{})
		h.channels[channel] = subs
	}
	subs[sub] = struct{}{}
	return sub, nil
}

// Publish delivers the event to every current subscriber of the channel.
func (h *MemoryHub) Publish(_ context.Context, channel, name string, payload any) error {
	event, err := newEvent(channel, name, payload)
	if err != nil {
		return err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.channels[channel] {
		select {
		case sub.events <- event:
		default:
			// Subscriber is not keeping up; drop.
		}
	}
	return nil
}

func (h *MemoryHub) leave(sub *memorySubscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs, ok := h.channels[sub.channel]
	if !ok {
		return
	}
	if _, member := subs[sub]; !member {
		return
	}
	delete(subs, sub)
	if len(subs) == 0 {
		delete(h.channels, sub.channel)
	}
	close(sub.events)
}

type memorySubscription struct {
	hub     *MemoryHub
	channel string
	events  chan Event
	once    sync.Once
}

func (s *memorySubscription) Events() <-chan Event { return s.events }

func (s *memorySubscription) Close() error {
	s.once.Do(func() { s.hub.leave(s) })
	return nil
}
