package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingMirror struct {
	mu     sync.Mutex
	events []Event
}

func (m *recordingMirror) Mirror(_ context.Context, event Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func TestHub_PublishReachesSubscribers(t *testing.T) {
	hub := NewHub(4)
	defer hub.Close()

	_, first := hub.Subscribe()
	_, second := hub.Subscribe()
	hub.Publish("saleRecorded", map[string]int{"id": 1})

	for _, ch := range []<-chan Event{first, second} {
		select {
		case event := <-ch:
			assert.Equal(t, "saleRecorded", event.Action)
			assert.NotEmpty(t, event.ID)
		case <-time.After(time.Second):
			t.Fatal("event not delivered")
		}
	}
}

func TestHub_UnsubscribeClosesChannel(t *testing.T) {
	hub := NewHub(1)
	defer hub.Close()

	id, ch := hub.Subscribe()
	require.Equal(t, 1, hub.SubscriberCount())

	hub.Unsubscribe(id)
	hub.Unsubscribe(id)

	_, open := <-ch
	assert.False(t, open)
	assert.Zero(t, hub.SubscriberCount())
}

func TestHub_SlowSubscriberDoesNotBlock(t *testing.T) {
	hub := NewHub(1)
	defer hub.Close()
	_, ch := hub.Subscribe()

	done := make(chan struct{})
	go func() {
		hub.Publish("a", nil)
		hub.Publish("b", nil)
		hub.Publish("c", nil)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full subscriber")
	}
	assert.Equal(t, "a", (<-ch).Action)
	assert.Len(t, ch, 0)
}

func TestHub_MirrorsEveryEventAndCloseWaits(t *testing.T) {
	hub := NewHub(1)
	mirror := &recordingMirror{}
	hub.AddMirror(mirror)

	hub.Publish("deductCredit", 450)
	hub.Publish("addProduct", "Latte")
	hub.Close()

	mirror.mu.Lock()
	defer mirror.mu.Unlock()
	assert.Len(t, mirror.events, 2)
}

func TestHub_ClosedHubIgnoresPublish(t *testing.T) {
	hub := NewHub(1)
	_, ch := hub.Subscribe()
	hub.Close()

	hub.Publish("late", nil)
	_, open := <-ch
	assert.False(t, open)

	_, afterClose := hub.Subscribe()
	_, open = <-afterClose
	assert.False(t, open)
}

func TestEncodeEvent(t *testing.T) {
	body, err := encodeEvent(Event{ID: "e1", Action: "saleRecorded", Payload: map[string]int{"id": 3}})
	require.NoError(t, err)
	assert.Contains(t, string(body), `"action":"saleRecorded"`)
	assert.Contains(t, string(body), `"id":3`)
}
