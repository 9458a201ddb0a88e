// Package events provides the in-process event bus used to fan scan
// progress out to subscribers (the websocket stream, tests).
package events

import (
	"sync"
	"time"
)

// EventType identifies what happened
type EventType string

const (
	ScanStarted   EventType = "scan_started"
	TickerScored  EventType = "ticker_scored"
	ScanCompleted EventType = "scan_completed"
	ScanFailed    EventType = "scan_failed"
)

// Event is one published occurrence
type Event struct {
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
}

// ScanStartedData contains data for ScanStarted events
type ScanStartedData struct {
	RunID   string `json:"run_id"`
	Tickers int    `json:"tickers"`
}

// TickerScoredData contains data for TickerScored events
type TickerScoredData struct {
	RunID          string  `json:"run_id"`
	Ticker         string  `json:"ticker"`
	CompositeScore float64 `json:"composite_score"`
	Recommendation string  `json:"recommendation"`
	Completed      int     `json:"completed"`
	Total          int     `json:"total"`
}

// ScanCompletedData contains data for ScanCompleted events
type ScanCompletedData struct {
	RunID   string `json:"run_id"`
	Scored  int    `json:"scored"`
	Skipped int    `json:"skipped"`
}

// ScanFailedData contains data for ScanFailed events
type ScanFailedData struct {
	RunID string `json:"run_id"`
	Error string `json:"error"`
}

// Bus is a simple publish/subscribe bus. Publishing never blocks: a
// subscriber that falls behind drops events rather than stalling the
// publisher.
type Bus struct {
	mu     sync.RWMutex
	subs   map[int]chan Event
	nextID int
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		subs: make(map[int]chan Event),
	}
}

// Subscribe registers a new subscriber. The returned cancel function
// must be called to release the subscription.
func (b *Bus) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++

	ch := make(chan Event, 64)
	b.subs[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if _, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(ch)
		}
	}

	return ch, cancel
}

// Publish delivers an event to all current subscribers
func (b *Bus) Publish(eventType EventType, data interface{}) {
	event := Event{
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subs {
		select {
		case ch <- event:
		default:
			// Slow subscriber, drop
		}
	}
}

// SubscriberCount returns the number of active subscribers
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
