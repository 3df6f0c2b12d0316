// Package events provides a publish/subscribe event bus for operational
// observability. Events flow from components (agent loop, chat bridge,
// report generator) to subscribers. The bus is nil-safe: Publish on a
// nil *Bus is a no-op, so components do not need guard checks.
package events

import (
	"sync"
	"time"
)

// Source constants identify which component published an event.
const (
	// SourceAgent identifies events from the core agent loop.
	SourceAgent = "agent"
	// SourceChat identifies events from the chat bridge.
	SourceChat = "chat"
	// SourceReports identifies events from the report generator.
	SourceReports = "reports"
)

// Kind constants describe the type of event within a source.
const (
	// KindRequestStart signals the beginning of an agent request.
	// Data: request_id, context_key.
	KindRequestStart = "request_start"
	// KindLLMCall signals the start of a model API call.
	// Data: request_id, pass, model.
	KindLLMCall = "llm_call"
	// KindLLMResponse signals completion of a model API call.
	// Data: request_id, pass, tokens_in, tokens_out, tool_calls.
	KindLLMResponse = "llm_response"
	// KindToolCall signals the start of a tool execution.
	// Data: request_id, tool, via (structured or failsafe).
	KindToolCall = "tool_call"
	// KindToolDone signals completion of a tool execution.
	// Data: request_id, tool, duration_ms.
	KindToolDone = "tool_done"
	// KindRequestComplete signals the end of an agent request.
	// Data: request_id, context_key, elapsed_ms.
	KindRequestComplete = "request_complete"

	// KindMessageReceived signals an inbound chat message.
	// Data: sender, context_key, message_len.
	KindMessageReceived = "message_received"
	// KindReportPosted signals a periodic report was delivered.
	// Data: channel, sections.
	KindReportPosted = "report_posted"
)

// Event is a single operational event published by a component.
type Event struct {
	Timestamp time.Time      `json:"ts"`
	Source    string         `json:"source"`
	Kind      string         `json:"kind"`
	Data      map[string]any `json:"data,omitempty"`
}

// Subscription identifies an active subscriber for Unsubscribe.
type Subscription struct {
	id int
	ch chan Event
}

// C returns the subscriber's receive channel.
func (s *Subscription) C() <-chan Event { return s.ch }

// Bus is a non-blocking broadcast event bus. Subscribers receive events
// on buffered channels; slow subscribers miss events rather than
// blocking publishers.
type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]chan Event
}

// New creates an event bus ready for use.
func New() *Bus {
	return &Bus{subs: make(map[int]chan Event)}
}

// Publish sends an event to all subscribers. Non-blocking: if a
// subscriber's channel is full, the event is dropped for that
// subscriber. Safe to call on a nil receiver (no-op).
func (b *Bus) Publish(e Event) {
	if b == nil {
		return
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
			// Subscriber is full; drop rather than block.
		}
	}
}

// Subscribe registers a subscriber with the given channel buffer size.
// The caller must eventually call Unsubscribe to release resources.
func (b *Bus) Subscribe(bufSize int) *Subscription {
	ch := make(chan Event, bufSize)
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	b.subs[b.nextID] = ch
	return &Subscription{id: b.nextID, ch: ch}
}

// Unsubscribe removes a subscription and closes its channel. Safe to
// call twice (no-op the second time).
func (b *Bus) Unsubscribe(s *Subscription) {
	if s == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch, ok := b.subs[s.id]; ok {
		delete(b.subs, s.id)
		close(ch)
	}
}

// SubscriberCount returns the number of active subscribers.
func (b *Bus) SubscriberCount() int {
	if b == nil {
		return 0
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
