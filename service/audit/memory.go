package audit

import (
	"context"
	"sync"
)

// Memory is an in-memory sink, primarily for tests and embedded use.
type Memory struct {
	mu     sync.RWMutex
	events []*Event
}

// NewMemory creates an empty in-memory sink.
func NewMemory() *Memory {
	return &Memory{}
}

// Append records the event.
func (m *Memory) Append(_ context.Context, event *Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

// Events returns a snapshot of all recorded events in append order.
func (m *Memory) Events() []*Event {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Event, len(m.events))
	copy(out, m.events)
	return out
}

var _ Sink = (*Memory)(nil)
