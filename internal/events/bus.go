// Package events buffers UI-facing events so the frontend can render and
// poll them incrementally.
package events

import (
	"sync"
	"time"

	"audio-transcription/internal/domain"
)

// Type classifies messages emitted by the workflow.
type Type string

const (
	TypeState             Type = "state"
	TypeNotification      Type = "notification"
	TypeProgressShown     Type = "progress:shown"
	TypeProgressDismissed Type = "progress:dismissed"
	TypeTick              Type = "tick"
)

// Event is a sequenced payload consumed by UI subscribers.
type Event struct {
	Seq          int64                `json:"seq"`
	Timestamp    time.Time            `json:"timestamp"`
	Type         Type                 `json:"type"`
	Phase        domain.Phase         `json:"phase,omitempty"`
	Message      string               `json:"message,omitempty"`
	Notification *domain.Notification `json:"notification,omitempty"`
	Display      string               `json:"display,omitempty"`
	// Attempt names the transcription a progress event belongs to.
	Attempt uint64 `json:"attempt,omitempty"`
}

// Listener receives every published event after it is sequenced.
type Listener func(Event)

// Bus stores recent events and provides incremental reads.
type Bus struct {
	// deliver orders fan-out so listeners see events in Seq order.
	deliver sync.Mutex

	mu        sync.RWMutex
	nextSeq   int64
	maxEvents int
	events    []Event
	listeners []Listener
}

// NewBus creates a bounded in-memory event buffer.
func NewBus(maxEvents int) *Bus {
	if maxEvents <= 0 {
		maxEvents = 500
	}

	return &Bus{
		maxEvents: maxEvents,
		events:    make([]Event, 0, maxEvents),
	}
}

// Subscribe registers a listener called synchronously on Publish.
// Listeners receive events in Seq order and must not publish themselves.
func (b *Bus) Subscribe(l Listener) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners = append(b.listeners, l)
}

// Publish appends one event, assigns sequence and timestamp, and fans it out.
func (b *Bus) Publish(event Event) Event {
	b.deliver.Lock()
	defer b.deliver.Unlock()

	b.mu.Lock()
	b.nextSeq++
	event.Seq = b.nextSeq
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	b.events = append(b.events, event)
	if len(b.events) > b.maxEvents {
		trim := len(b.events) - b.maxEvents
		b.events = append([]Event(nil), b.events[trim:]...)
	}
	listeners := append([]Listener(nil), b.listeners...)
	b.mu.Unlock()

	for _, l := range listeners {
		l(event)
	}
	return event
}

// Notify publishes a notification event.
func (b *Bus) Notify(message string, severity domain.Severity) Event {
	return b.Publish(Event{
		Type:         TypeNotification,
		Message:      message,
		Notification: &domain.Notification{Message: message, Severity: severity},
	})
}

// Since returns events with sequence strictly greater than seq.
func (b *Bus) Since(seq int64) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if len(b.events) == 0 {
		return nil
	}

	out := make([]Event, 0, len(b.events))
	for _, event := range b.events {
		if event.Seq > seq {
			out = append(out, event)
		}
	}
	return out
}
