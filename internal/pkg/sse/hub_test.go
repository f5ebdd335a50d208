package sse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_PublishReachesOnlyTargetUser(t *testing.T) {
	hub := NewHub()

	aliceCh, aliceDone := hub.Subscribe("alice")
	defer aliceDone()
	bobCh, bobDone := hub.Subscribe("bob")
	defer bobDone()

	hub.Publish("alice", Event{UserID: "alice", Event: "notification", Data: "hello"})

	select {
	case ev := <-aliceCh:
		assert.Equal(t, "notification", ev.Event)
		assert.Equal(t, "hello", ev.Data)
	default:
		t.Fatal("alice did not receive the event")
	}

	select {
	case ev := <-bobCh:
		t.Fatalf("bob received %v", ev)
	default:
	}
}

func TestHub_CleanupIsIdempotent(t *testing.T) {
	hub := NewHub()

	ch, done := hub.Subscribe("alice")
	_, done2 := hub.Subscribe("alice")
	assert.Equal(t, 2, hub.SubscriberCount("alice"))
	assert.Equal(t, 2, hub.TotalSubscribers())

	done()
	done()
	_, open := <-ch
	assert.False(t, open)
	assert.Equal(t, 1, hub.SubscriberCount("alice"))

	done2()
	assert.Equal(t, 0, hub.TotalSubscribers())
}

func TestHub_PublishDropsWhenBufferFull(t *testing.T) {
	var dropped []Event
	hub := NewHub(WithBufferSize(3), WithDropHandler(func(e Event) { dropped = append(dropped, e) }))
	ch, done := hub.Subscribe("alice")
	defer done()

	for i := 0; i < 5; i++ {
		hub.Publish("alice", Event{Event: "notification", Data: i})
	}

	require.Len(t, ch, 3)
	require.Len(t, dropped, 2)
	assert.Equal(t, 3, dropped[0].Data)
	assert.Equal(t, 0, (<-ch).Data)
}

func TestHub_PublishWithoutSubscribers(t *testing.T) {
	calls := 0
	hub := NewHub(WithDropHandler(func(Event) { calls++ }))

	hub.Publish("nobody", Event{Event: "notification"})

	assert.Zero(t, calls)
	assert.Zero(t, hub.TotalSubscribers())
}
