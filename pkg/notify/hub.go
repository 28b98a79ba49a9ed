package notify

import (
	"context"
	"errors"
	"sync"
)

const DefaultSubscriberBuffer = 16

var ErrHubClosed = errors.New("notification hub is closed")

// Hub fans events out to in-process subscribers such as SSE streams.
// A subscriber whose buffer is full misses the event.
type Hub struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[uint64]chan Event
	closed bool
}

func NewHub() *Hub {
	return &Hub{subs: make(map[uint64]chan Event)}
}

// Subscribe returns the event stream and a function that ends the
// subscription. The stream is closed when either is called or the hub closes.
func (h *Hub) Subscribe(buffer int) (<-chan Event, func(), error) {
	if buffer <= 0 {
		buffer = DefaultSubscriberBuffer
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, nil, ErrHubClosed
	}

	id := h.nextID
	h.nextID++
	ch := make(chan Event, buffer)
	h.subs[id] = ch

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if sub, ok := h.subs[id]; ok {
				delete(h.subs, id)
				close(sub)
			}
		})
	}
	return ch, unsubscribe, nil
}

func (h *Hub) Publish(ctx context.Context, evt Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return ErrHubClosed
	}
	for _, sub := range h.subs {
		select {
		case sub <- evt:
		default:
		}
	}
	return nil
}

func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true
	for id, sub := range h.subs {
		delete(h.subs, id)
		close(sub)
	}
	return nil
}
