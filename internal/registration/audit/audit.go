// Package audit publishes registration lifecycle events to an append-only
// trail. Publishing is best-effort: a failed emit is logged by the caller and
// never blocks or rolls back the mutation that produced it.
package audit

import (
	"context"
	"sync"
	"time"
)

// Action names a lifecycle event.
type Action string

const (
	EventRegistrationStarted   Action = "registration_started"
	EventAttendeeAdded         Action = "attendee_added"
	EventAttendeeRemoved       Action = "attendee_removed"
	EventSelectionChanged      Action = "selection_changed"
	EventPaymentIntentCreated  Action = "payment_intent_created"
	EventRegistrationCompleted Action = "registration_completed"
	EventRegistrationCancelled Action = "registration_cancelled"
)

// Event is one audit record.
type Event struct {
	RegistrationID string            `json:"registration_id"`
	Action         Action            `json:"action"`
	AttendeeID     string            `json:"attendee_id,omitempty"`
	Detail         map[string]string `json:"detail,omitempty"`
	At             time.Time         `json:"at"`
}

// Publisher is the audit trail boundary.
type Publisher interface {
	Emit(ctx context.Context, event Event) error
	Close() error
}

// NopPublisher drops every event; used when no trail is configured.
type NopPublisher struct{}

func (NopPublisher) Emit(context.Context, Event) error { return nil }
func (NopPublisher) Close() error                      { return nil }

// InMemoryPublisher collects events for tests.
type InMemoryPublisher struct {
	mu     sync.Mutex
	events []Event
}

func NewInMemoryPublisher() *InMemoryPublisher {
	return &InMemoryPublisher{}
}

func (p *InMemoryPublisher) Emit(_ context.Context, event Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *InMemoryPublisher) Close() error { return nil }

// Events returns a copy of everything emitted so far.
func (p *InMemoryPublisher) Events() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Event(nil), p.events...)
}

// ByAction filters emitted events by action.
func (p *InMemoryPublisher) ByAction(action Action) []Event {
	var out []Event
	for _, e := range p.Events() {
		if e.Action == action {
			out = append(out, e)
		}
	}
	return out
}
