// Package audit provides the append-only write-audit trail. Appending is
// best-effort by contract: the TryAppend helper never lets a sink failure
// reach the execution critical path.
package audit

import (
	"context"
	"log"
	"sync/atomic"
	"time"

	"github.com/viant/warden/internal/clock"
	"github.com/viant/warden/internal/idgen"
)

// Event types recorded by the pipeline.
const (
	EventTypeToolRuntime = "tool_runtime"
	EventTypeWrite       = "write"
	EventTypeHandoff     = "handoff"
)

// Event is a single append-only audit record.
type Event struct {
	ID          string                 `json:"id"`
	EventType   string                 `json:"eventType"`
	Action      string                 `json:"action,omitempty"`
	AgentID     string                 `json:"agentId,omitempty"`
	ExecutionID string                 `json:"executionId,omitempty"`
	Data        map[string]interface{} `json:"data,omitempty"`
	CreatedAt   time.Time              `json:"createdAt"`
}

// NewEvent creates an event with a generated id and the current timestamp.
func NewEvent(eventType, action, agentID, executionID string) *Event {
	return &Event{
		ID:          idgen.New(),
		EventType:   eventType,
		Action:      action,
		AgentID:     agentID,
		ExecutionID: executionID,
		CreatedAt:   clock.Now(),
	}
}

// Sink persists audit events.
type Sink interface {
	Append(ctx context.Context, event *Event) error
}

var dropped atomic.Int64

// TryAppend appends best-effort: a nil sink or a failing sink never blocks or
// fails the caller. Drops are counted and logged.
func TryAppend(ctx context.Context, sink Sink, event *Event) {
	if sink == nil || event == nil {
		return
	}
	if err := sink.Append(ctx, event); err != nil {
		dropped.Add(1)
		log.Printf("audit: dropped %s event %s: %v", event.EventType, event.ID, err)
	}
}

// Dropped returns the number of events lost to sink failures since process
// start.
func Dropped() int64 {
	return dropped.Load()
}
