// Package events publishes allocation lifecycle notifications after a
// transaction has committed. Publishers never participate in the transaction:
// a failed publish is reported to the caller but cannot roll back state.
package events

import (
	"context"
	"sync"
	"time"
)

// Kind names an allocation event. Kinds double as AMQP routing keys.
type Kind string

// Event kinds emitted by the allocation service.
const (
	ApplicationSubmitted  Kind = "application.submitted"
	ApplicationReviewed   Kind = "application.reviewed"
	BookingConfirmed      Kind = "booking.confirmed"
	WithdrawalRequested   Kind = "withdrawal.requested"
	WithdrawalApproved    Kind = "withdrawal.approved"
	RegistrationSubmitted Kind = "registration.submitted"
	RegistrationReviewed  Kind = "registration.reviewed"
)

// Event is the payload delivered to subscribers.
type Event struct {
	ID         string            `json:"id"`
	Kind       Kind              `json:"kind"`
	EntityID   string            `json:"entity_id"`
	ProjectID  string            `json:"project_id,omitempty"`
	Actor      string            `json:"actor,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
	Data       map[string]string `json:"data,omitempty"`
}

// Publisher delivers events to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// Nop discards every event.
type Nop struct{}

// Publish implements Publisher.
func (Nop) Publish(context.Context, Event) error { return nil }

// Close implements Publisher.
func (Nop) Close() error { return nil }

// Memory records published events in order. It is safe for concurrent use.
type Memory struct {
	mu     sync.Mutex
	events []Event
	closed bool
}

// NewMemory returns an empty recording publisher.
func NewMemory() *Memory {
	return &Memory{}
}

// Publish implements Publisher.
func (m *Memory) Publish(_ context.Context, event Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	cp := event
	if event.Data != nil {
		cp.Data = make(map[string]string, len(event.Data))
		for k, v := range event.Data {
			cp.Data[k] = v
		}
	}
	m.events = append(m.events, cp)
	return nil
}

// Events returns a copy of everything published so far.
func (m *Memory) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Event, len(m.events))
	copy(out, m.events)
	return out
}

// Kinds lists the kinds of recorded events in publish order.
func (m *Memory) Kinds() []Kind {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Kind, 0, len(m.events))
	for _, e := range m.events {
		out = append(out, e.Kind)
	}
	return out
}

// Close implements Publisher.
func (m *Memory) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}
