package events

import (
	"context"
	"sync"
	"time"

	"lounge_pos_backend/pkg/utils"

	"github.com/google/uuid"
)

// Event is one live update sent to terminals.
type Event struct {
	ID      string      `json:"id"`
	Action  string      `json:"action"`
	Payload interface{} `json:"payload"`
	Time    time.Time   `json:"time"`
}

// Mirror forwards events outside the process, e.g. to a message broker.
type Mirror interface {
	Mirror(ctx context.Context, event Event) error
}

// Hub fans events out to in-process subscribers. Publishing never blocks:
// a subscriber whose buffer is full misses the event.
type Hub struct {
	mu            sync.RWMutex
	subscribers   map[string]chan Event
	mirrors       []Mirror
	buffer        int
	mirrorTimeout time.Duration
	closed        bool
	wg            sync.WaitGroup
}

// NewHub creates a hub whose subscriber channels hold buffer events.
func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = 16
	}
	return &Hub{
		subscribers:   make(map[string]chan Event),
		buffer:        buffer,
		mirrorTimeout: 5 * time.Second,
	}
}

// AddMirror registers m to receive every published event.
func (h *Hub) AddMirror(m Mirror) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.mirrors = append(h.mirrors, m)
}

// Subscribe returns a subscriber id and its event channel. The channel is
// closed by Unsubscribe or Close.
func (h *Hub) Subscribe() (string, <-chan Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := uuid.NewString()
	ch := make(chan Event, h.buffer)
	if h.closed {
		close(ch)
		return id, ch
	}
	h.subscribers[id] = ch
	utils.LogDebug("Live subscriber added", map[string]interface{}{"subscriber_id": id, "subscribers": len(h.subscribers)})
	return id, ch
}

// Unsubscribe removes a subscriber. Unknown ids are ignored.
func (h *Hub) Unsubscribe(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.subscribers[id]; ok {
		delete(h.subscribers, id)
		close(ch)
		utils.LogDebug("Live subscriber removed", map[string]interface{}{"subscriber_id": id, "subscribers": len(h.subscribers)})
	}
}

// SubscriberCount reports the number of live subscribers.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// Publish sends an event to every subscriber and mirror.
func (h *Hub) Publish(action string, payload interface{}) {
	event := Event{ID: uuid.NewString(), Action: action, Payload: payload, Time: time.Now()}

	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return
	}

	for id, ch := range h.subscribers {
		select {
		case ch <- event:
		default:
			utils.LogWarn(nil, "Live subscriber too slow, event dropped", map[string]interface{}{"subscriber_id": id, "action": action})
		}
	}

	for _, m := range h.mirrors {
		h.wg.Add(1)
		go func(m Mirror) {
			defer h.wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), h.mirrorTimeout)
			defer cancel()
			if err := m.Mirror(ctx, event); err != nil {
				utils.LogWarn(err, "Event mirror failed", map[string]interface{}{"action": action, "event_id": event.ID})
			}
		}(m)
	}
}

// Close disconnects all subscribers and waits for in-flight mirrors.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	for id, ch := range h.subscribers {
		delete(h.subscribers, id)
		close(ch)
	}
	h.mu.Unlock()
	h.wg.Wait()
}
