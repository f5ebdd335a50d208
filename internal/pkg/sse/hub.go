package sse

import (
	"sync"
)

const defaultBufferSize = 10

// Event is one message for a single user's open streams.
type Event struct {
	UserID string
	Event  string
	Data   any
}

type Option func(*Hub)

// WithBufferSize sets how many events a stream may lag behind before drops.
func WithBufferSize(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.bufferSize = n
		}
	}
}

// WithDropHandler is called, outside the hub lock, for every event a full
// stream could not take.
func WithDropHandler(fn func(Event)) Option {
	return func(h *Hub) { h.onDrop = fn }
}

// Hub fans events out to the open streams of each user. A user may hold
// several streams, one per browser tab.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan Event]struct{}
	bufferSize  int
	onDrop      func(Event)
}

func NewHub(opts ...Option) *Hub {
	h := &Hub{
		subscribers: make(map[string]map[chan Event]struct{}),
		bufferSize:  defaultBufferSize,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Subscribe opens a stream for userID. The returned cancel func closes the
// channel and is safe to call more than once.
func (h *Hub) Subscribe(userID string) (<-chan Event, func()) {
	ch := make(chan Event, h.bufferSize)

	h.mu.Lock()
	streams, ok := h.subscribers[userID]
	if !ok {
		streams = make(map[chan Event]struct{})
		h.subscribers[userID] = streams
	}
	streams[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subscribers[userID], ch)
			if len(h.subscribers[userID]) == 0 {
				delete(h.subscribers, userID)
			}
			close(ch)
		})
	}
	return ch, cancel
}

// Publish never blocks: a stream whose buffer is full misses the event.
func (h *Hub) Publish(userID string, event Event) {
	dropped := 0

	h.mu.RLock()
	for ch := range h.subscribers[userID] {
		select {
		case ch <- event:
		default:
			dropped++
		}
	}
	h.mu.RUnlock()

	if h.onDrop != nil {
		for range dropped {
			h.onDrop(event)
		}
	}
}

func (h *Hub) SubscriberCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[userID])
}

// TotalSubscribers counts open streams across all users.
func (h *Hub) TotalSubscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	total := 0
	for _, streams := range h.subscribers {
		total += len(streams)
	}
	return total
}
