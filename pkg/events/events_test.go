package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishStampsAndDelivers(t *testing.T) {
	b := NewBroker()
	defer b.Close()

	sub := b.Subscribe()
	b.Publish(&Event{Type: EventCheckpointStarted, Message: "dump started"})

	e := <-sub
	assert.Equal(t, EventCheckpointStarted, e.Type)
	assert.NotEmpty(t, e.ID)
	assert.False(t, e.Timestamp.IsZero())
}

func TestPublishReachesEverySubscriber(t *testing.T) {
	b := NewBroker()
	defer b.Close()

	first := b.Subscribe()
	second := b.Subscribe()
	b.Publish(&Event{Type: EventLoadCompleted})

	assert.Equal(t, EventLoadCompleted, (<-first).Type)
	assert.Equal(t, EventLoadCompleted, (<-second).Type)
}

func TestSlowSubscriberLosesEventsInsteadOfBlocking(t *testing.T) {
	b := NewBroker()
	defer b.Close()

	sub := b.Subscribe()
	// Nobody drains: the buffer fills and the overflow is dropped, but
	// Publish returns every time.
	for i := 0; i < subscriberBuffer+5; i++ {
		b.Publish(&Event{Type: EventExecStarted})
	}
	assert.Len(t, sub, subscriberBuffer)
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	b := NewBroker()
	defer b.Close()

	sub := b.Subscribe()
	b.Unsubscribe(sub)

	_, open := <-sub
	assert.False(t, open)

	// Publishing afterwards reaches no one and does not panic
	b.Publish(&Event{Type: EventExecCompleted})
}

func TestCloseEndsSubscriptionsAndMutesPublish(t *testing.T) {
	b := NewBroker()
	sub := b.Subscribe()

	b.Close()
	_, open := <-sub
	require.False(t, open)

	// Late publishers (a background checkpoint writer finishing after
	// shutdown) are no-ops
	b.Publish(&Event{Type: EventCheckpointCompleted})
	b.Close()

	// Subscribing after Close yields an already-closed channel
	_, open = <-b.Subscribe()
	assert.False(t, open)
}
