package events

import "sync"

// Hub fans encoded events out to live subscribers. Slow subscribers miss
// events instead of blocking the publisher.
type Hub struct {
	mu      sync.Mutex
	clients map[chan string]struct{}
	buf     int
}

func NewHub() *Hub {
	return &Hub{clients: make(map[chan string]struct{}), buf: 16}
}

// Subscribe registers a subscriber. cancel unregisters it and closes the
// channel; it is safe to call more than once.
func (h *Hub) Subscribe() (events <-chan string, cancel func()) {
	ch := make(chan string, h.buf)
	h.mu.Lock()
	h.clients[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.clients, ch)
			h.mu.Unlock()
			close(ch)
		})
	}
}

func (h *Hub) Publish(evt string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.clients {
		select {
		case ch <- evt:
		default:
			// drop if slow
		}
	}
}

func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}
