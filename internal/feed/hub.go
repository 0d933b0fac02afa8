// Package feed fans emitted feed lines out to live subscribers.
package feed

import (
	"log"
	"sync"

	"github.com/unklstewy/uatfeed/internal/report"
)

// subscriberBuffer is the per-subscriber line backlog. A subscriber that
// falls further behind than this starts losing lines rather than stalling
// the reporter.
const subscriberBuffer = 64

// Hub broadcasts feed lines to any number of subscribers. It implements
// report.Sink, so it can be attached directly to the reporter.
type Hub struct {
	mu          sync.Mutex
	subscribers map[chan string]struct{}
	dropped     int64
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[chan string]struct{}),
	}
}

// Subscribe registers a new subscriber and returns its line channel.
func (h *Hub) Subscribe() chan string {
	ch := make(chan string, subscriberBuffer)
	h.mu.Lock()
	h.subscribers[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (h *Hub) Unsubscribe(ch chan string) {
	h.mu.Lock()
	if _, ok := h.subscribers[ch]; ok {
		delete(h.subscribers, ch)
		close(ch)
	}
	h.mu.Unlock()
}

// Publish delivers one report line to every subscriber without blocking.
func (h *Hub) Publish(rep report.Report) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range h.subscribers {
		select {
		case ch <- rep.Line:
		default:
			h.dropped++
			if h.dropped%1000 == 1 {
				log.Printf("Warning: feed subscriber full, dropping lines (%d dropped so far)", h.dropped)
			}
		}
	}
}

// Subscribers returns the current subscriber count.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}

// Dropped returns the cumulative count of lines dropped on full
// subscriber buffers.
func (h *Hub) Dropped() int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.dropped
}
