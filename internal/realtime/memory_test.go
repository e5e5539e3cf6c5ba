package realtime

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receiveEvent(t *testing.T, sub Subscription) Event {
	t.Helper()
	select {
	case event := <-sub.Events():
		return event
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestMemoryHubFanOut(t *testing.T) {
	hub := NewMemoryHub(4)
	ctx := context.Background()

	first, err := hub.Join(ctx, ManufacturerChannel(7))
	require.NoError(t, err)
	second, err := hub.Join(ctx, ManufacturerChannel(7))
	require.NoError(t, err)
	other, err := hub.Join(ctx, ManufacturerChannel(8))
	require.NoError(t, err)

	require.NoError(t, hub.Publish(ctx, ManufacturerChannel(7), EventNewOrder, map[string]string{"order_id": "ORD-1"}))

	for _, sub := range []Subscription{first, second} {
		event := receiveEvent(t, sub)
		assert.Equal(t, EventNewOrder, event.Name)
		assert.Equal(t, ManufacturerChannel(7), event.Channel)

		var payload map[string]string
		require.NoError(t, json.Unmarshal(event.Payload, &payload))
		assert.Equal(t, "ORD-1", payload["order_id"])
	}

	select {
	case event := <-other.Events():
		t.Fatalf("unexpected event on other channel: %v", event)
	default:
	}
}

func TestMemoryHubPublishWithoutSubscribers(t *testing.T) {
	hub := NewMemoryHub(4)

	err := hub.Publish(context.Background(), WholesalerChannel(1), EventOrderStatusUpdate, map[string]string{"orderId": "ORD-1"})

	assert.NoError(t, err)
}

func TestMemoryHubSlowSubscriberDoesNotBlock(t *testing.T) {
	hub := NewMemoryHub(1)
	ctx := context.Background()

	sub, err := hub.Join(ctx, UserChannel(3))
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 10; i++ {
			_ = hub.Publish(ctx, UserChannel(3), EventUnreadCountUpdate, map[string]int{"unreadCount": i})
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on slow subscriber")
	}

	// Buffer of one means only the first event survives; the rest drop.
	event := receiveEvent(t, sub)
	assert.Equal(t, EventUnreadCountUpdate, event.Name)
}

func TestMemoryHubCloseStopsDelivery(t *testing.T) {
	hub := NewMemoryHub(4)
	ctx := context.Background()

	sub, err := hub.Join(ctx, UserChannel(5))
	require.NoError(t, err)
	require.NoError(t, sub.Close())
	require.NoError(t, sub.Close())

	require.NoError(t, hub.Publish(ctx, UserChannel(5), EventUnreadCountUpdate, map[string]int{"unreadCount": 1}))

	_, open := <-sub.Events()
	assert.False(t, open)
}

func TestChannelNames(t *testing.T) {
	assert.Equal(t, "manufacturer-12", ManufacturerChannel(12))
	assert.Equal(t, "wholesaler-34", WholesalerChannel(34))
	assert.Equal(t, "user-56", UserChannel(56))
}
