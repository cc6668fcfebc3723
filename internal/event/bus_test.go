package event

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBusDeliversToSubscriber(t *testing.T) {
	t.Parallel()

	bus := NewBus()
	events, unsubscribe := bus.Subscribe()
	defer unsubscribe()

	sent := Event{ID: "evt-1", Type: TypeTaskAssigned, UserID: "user-1", Timestamp: time.Now()}
	bus.Publish(sent)

	select {
	case got := <-events:
		require.Equal(t, sent.ID, got.ID)
		require.Equal(t, TypeTaskAssigned, got.Type)
		require.Equal(t, "user-1", got.UserID)
	case <-time.After(time.Second):
		t.Fatal("event never arrived")
	}
}

func TestBusUnsubscribeClosesChannel(t *testing.T) {
	t.Parallel()

	bus := NewBus()
	events, unsubscribe := bus.Subscribe()
	unsubscribe()

	_, open := <-events
	require.False(t, open)

	// Publishing after the only subscriber left must not panic or block.
	bus.Publish(Event{ID: "evt-2", Type: TypeSystem})
}

func TestBusDropsWhenSubscriberIsFull(t *testing.T) {
	t.Parallel()

	bus := NewBus()
	events, unsubscribe := bus.Subscribe()
	defer unsubscribe()

	// The subscriber buffer holds 100 events; the rest must be dropped
	// without blocking the publisher.
	for i := 0; i < 150; i++ {
		bus.Publish(Event{ID: "evt", Type: TypeSystem})
	}

	received := 0
	for {
		select {
		case <-events:
			received++
		default:
			require.Equal(t, 100, received)
			return
		}
	}
}

func TestForNotification(t *testing.T) {
	t.Parallel()

	require.Equal(t, TypeTaskAssigned, ForNotification("task_assigned"))
	require.Equal(t, TypeTaskUpdated, ForNotification("task_updated"))
	require.Equal(t, TypeSentimentAlert, ForNotification("sentiment_alert"))
	require.Equal(t, TypeRetroReady, ForNotification("retro_ready"))
	require.Equal(t, TypeSystem, ForNotification("anything else"))
}
