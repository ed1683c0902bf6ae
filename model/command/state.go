package command

// State represents the current execution state of a command.
type State string

const (
	// StateNone is the initial, unset state of a freshly registered command.
	StateNone State = ""
	// StateBlocked indicates governance withheld execution; an approval may be
	// pending.
	StateBlocked State = "BLOCKED"
	// StateExecuting indicates the command is being dispatched. It is a
	// transient state and is never returned to callers.
	StateExecuting State = "EXECUTING"
	StateCompleted State = "COMPLETED"
	StateFailed    State = "FAILED"
)

// IsTerminal returns true once no further transition is expected.
func (s State) IsTerminal() bool {
	return s == StateCompleted || s == StateFailed
}
