package command

import (
	"github.com/viant/warden/internal/clock"
	"github.com/viant/warden/internal/idgen"
	"time"
)

// Command is the canonical, immutable-by-convention record describing an
// action to take. The execution registry owns the stored snapshot; all other
// components operate on clones.
type Command struct {
	Command     string                 `json:"command"`
	Intent      string                 `json:"intent,omitempty"`
	Params      map[string]interface{} `json:"params,omitempty"`
	Initiator   string                 `json:"initiator,omitempty"`
	ExecutionID string                 `json:"executionId,omitempty"`
	ApprovalID  string                 `json:"approvalId,omitempty"`
	State       State                  `json:"executionState,omitempty"`
	Decision    map[string]interface{} `json:"decision,omitempty"`
	Result      map[string]interface{} `json:"result,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`

	// Executor pins the dispatch target of a synthetic sub-command produced by
	// workflow expansion. Validated marks such a sub-command as already
	// governed so that it bypasses re-evaluation.
	Executor  string `json:"executor,omitempty"`
	Validated bool   `json:"validated,omitempty"`

	RegisteredAt time.Time `json:"registeredAt,omitempty"`
}

// Normalize assigns the generated execution identity and the default
// initiator. The execution id is assigned exactly once; re-normalizing an
// already identified command never changes it.
func (c *Command) Normalize(defaultInitiator string) {
	if c.ExecutionID == "" {
		c.ExecutionID = idgen.New()
	}
	if c.Initiator == "" {
		c.Initiator = defaultInitiator
	}
	if c.RegisteredAt.IsZero() {
		c.RegisteredAt = clock.Now()
	}
}

// Directive returns the string governance and dispatch branch on.
func (c *Command) Directive() string {
	return c.Command
}

// AgentID returns the calling agent recorded in metadata, if any.
func (c *Command) AgentID() string {
	if c.Metadata == nil {
		return ""
	}
	agentID, _ := c.Metadata["agent_id"].(string)
	return agentID
}

// FromMap builds a command from a loosely-typed payload. Only known fields
// are copied over; unknown keys are dropped, not guessed.
func FromMap(values map[string]interface{}) *Command {
	ret := &Command{}
	if values == nil {
		return ret
	}
	if v, ok := values["command"].(string); ok {
		ret.Command = v
	}
	if v, ok := values["intent"].(string); ok {
		ret.Intent = v
	}
	if v, ok := values["params"].(map[string]interface{}); ok {
		ret.Params = v
	}
	if v, ok := values["initiator"].(string); ok {
		ret.Initiator = v
	}
	if v, ok := values["execution_id"].(string); ok {
		ret.ExecutionID = v
	}
	if v, ok := values["approval_id"].(string); ok {
		ret.ApprovalID = v
	}
	if v, ok := values["metadata"].(map[string]interface{}); ok {
		ret.Metadata = v
	}
	return ret
}

// Clone creates a deep copy of the command so that the caller can mutate it
// without affecting the stored instance. Values held inside the maps are
// shared; they are treated as opaque, read-only payload.
func (c *Command) Clone() *Command {
	if c == nil {
		return nil
	}
	clone := *c
	if c.Params != nil {
		clone.Params = make(map[string]interface{}, len(c.Params))
		for k, v := range c.Params {
			clone.Params[k] = v
		}
	}
	if c.Decision != nil {
		clone.Decision = make(map[string]interface{}, len(c.Decision))
		for k, v := range c.Decision {
			clone.Decision[k] = v
		}
	}
	if c.Result != nil {
		clone.Result = make(map[string]interface{}, len(c.Result))
		for k, v := range c.Result {
			clone.Result[k] = v
		}
	}
	if c.Metadata != nil {
		clone.Metadata = make(map[string]interface{}, len(c.Metadata))
		for k, v := range c.Metadata {
			clone.Metadata[k] = v
		}
	}
	return &clone
}
