package command

import "context"

type executionIDKey string

const executionIDContextKey = executionIDKey("executionID")

// WithExecutionID returns a context carrying the execution id so downstream
// layers can attribute their side effects.
func WithExecutionID(ctx context.Context, executionID string) context.Context {
	return context.WithValue(ctx, executionIDContextKey, executionID)
}

// ExecutionIDFromContext returns the execution id carried by the context or
// an empty string.
func ExecutionIDFromContext(ctx context.Context) string {
	if value, ok := ctx.Value(executionIDContextKey).(string); ok {
		return value
	}
	return ""
}
