package approval

import (
	"errors"
	"time"
)

// Status of an approval record. Pending is initial; approved and rejected are
// terminal.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// IsTerminal returns true once the record can no longer change.
func (s Status) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// ErrConflict is returned on an attempt to re-decide a terminal approval with
// a different outcome. The original decision is always preserved.
var ErrConflict = errors.New("approval: already decided")

// Approval is a human-decidable request record gating one execution. The
// decision context (Command, PayloadSummary, Scope, RiskLevel) is immutable
// after creation.
type Approval struct {
	ID             string                 `json:"id"`
	ExecutionID    string                 `json:"executionId"`
	Status         Status                 `json:"status"`
	Command        string                 `json:"command"`
	PayloadSummary map[string]interface{} `json:"payloadSummary,omitempty"`
	Scope          string                 `json:"scope,omitempty"`
	RiskLevel      string                 `json:"riskLevel,omitempty"`
	CreatedAt      time.Time              `json:"createdAt"`
	DecidedAt      *time.Time             `json:"decidedAt,omitempty"`
	ApprovedBy     string                 `json:"approvedBy,omitempty"`
	RejectedBy     string                 `json:"rejectedBy,omitempty"`
	Note           string                 `json:"note,omitempty"`
}

// Clone creates a copy the caller can mutate without affecting the stored
// record.
func (a *Approval) Clone() *Approval {
	if a == nil {
		return nil
	}
	clone := *a
	if a.PayloadSummary != nil {
		clone.PayloadSummary = make(map[string]interface{}, len(a.PayloadSummary))
		for k, v := range a.PayloadSummary {
			clone.PayloadSummary[k] = v
		}
	}
	if a.DecidedAt != nil {
		t := *a.DecidedAt
		clone.DecidedAt = &t
	}
	return &clone
}

// Event envelope published on every lifecycle change.
type Event struct {
	Topic   string            // see topic constants below
	Data    *Approval         // snapshot at publish time
	Headers map[string]string `json:"headers,omitempty"` // optional – tenant, correlation-id etc.
}

// Standard event topics.
const (
	TopicRequestCreated  = "request.created"
	TopicDecisionCreated = "decision.created"
)
