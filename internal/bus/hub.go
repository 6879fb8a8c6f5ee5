package bus

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/illarion/dehook/internal/settings"
	"go.uber.org/zap"
)

const defaultBuffer = 16

// Subscription is one connected consumer. C is closed when the consumer
// is unsubscribed or dropped for falling behind.
type Subscription struct {
	ID string
	C  <-chan Message
}

// Hub fans SETTINGS_UPDATED messages out to connected consumers
type Hub struct {
	logger *zap.Logger
	buffer int

	mu     sync.Mutex
	subs   map[string]chan Message
	closed bool
}

// NewHub creates a hub whose subscribers may lag by up to buffer messages
func NewHub(logger *zap.Logger, buffer int) *Hub {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	return &Hub{
		logger: logger,
		buffer: buffer,
		subs:   make(map[string]chan Message),
	}
}

// Subscribe registers a new consumer
func (h *Hub) Subscribe() *Subscription {
	ch := make(chan Message, h.buffer)
	id := uuid.NewString()

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(ch)
	} else {
		h.subs[id] = ch
	}

	h.logger.Debug("consumer subscribed", zap.String("id", id))
	return &Subscription{ID: id, C: ch}
}

// Unsubscribe removes a consumer. Unknown IDs are ignored.
func (h *Hub) Unsubscribe(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.subs[id]; ok {
		delete(h.subs, id)
		close(ch)
		h.logger.Debug("consumer unsubscribed", zap.String("id", id))
	}
}

// Len returns the number of connected consumers
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Publish broadcasts s to every consumer without blocking. A consumer
// whose buffer is full is dropped.
func (h *Hub) Publish(s *settings.AppSettings) {
	payload, err := json.Marshal(s)
	if err != nil {
		h.logger.Error("failed to encode broadcast", zap.Error(err))
		return
	}
	msg := Message{Type: SettingsUpdated, Payload: payload}

	h.mu.Lock()
	defer h.mu.Unlock()
	for id, ch := range h.subs {
		select {
		case ch <- msg:
		default:
			delete(h.subs, id)
			close(ch)
			h.logger.Warn("dropped slow consumer", zap.String("id", id))
		}
	}
}

// Close disconnects every consumer
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
	h.closed = true
}
