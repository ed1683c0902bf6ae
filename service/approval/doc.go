// Package approval implements the human-in-the-loop approval layer. It keeps
// the lifecycle of approval requests that gate command executions: pending
// until a human approves or rejects, terminal afterwards.
package approval
