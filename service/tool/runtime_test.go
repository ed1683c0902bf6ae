package tool

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/warden/model/command"
	"github.com/viant/warden/service/audit"
	"github.com/viant/warden/service/tool/analysis"
	"github.com/viant/warden/service/tool/docs"
)

func TestRuntime_Execute(t *testing.T) {
	registry := NewRegistry()
	registry.Register(analysis.New())
	registry.Register(docs.New())
	sink := audit.NewMemory()
	runtime := NewRuntime(registry, WithAuditSink(sink))

	ctx := command.WithExecutionID(context.Background(), "exec-1")
	result, err := runtime.Execute(ctx, "dept_finance", "analysis.run", map[string]interface{}{
		"expression": "1 + 2 * 3",
	})
	assert.NoError(t, err)
	assert.Equal(t, true, result["ok"])
	assert.Equal(t, "COMPLETED", result["execution_state"])
	assert.Equal(t, "dept_finance", result["agent_id"])
	data, ok := result["data"].(map[string]interface{})
	assert.True(t, ok)
	assert.Equal(t, 7.0, data["result"])

	events := sink.Events()
	assert.Len(t, events, 1)
	assert.Equal(t, audit.EventTypeToolRuntime, events[0].EventType)
	assert.Equal(t, "analysis.run", events[0].Action)
	assert.Equal(t, "exec-1", events[0].ExecutionID)
}

func TestRuntime_ExecuteErrors(t *testing.T) {
	registry := NewRegistry()
	registry.Register(analysis.New())
	sink := audit.NewMemory()
	runtime := NewRuntime(registry, WithAuditSink(sink))
	ctx := command.WithExecutionID(context.Background(), "exec-1")

	_, err := runtime.Execute(ctx, "dept_finance", "missing.run", nil)
	assert.EqualError(t, err, "tool missing.run not implemented")

	_, err = runtime.Execute(ctx, "dept_finance", "analysis.unknown", nil)
	assert.EqualError(t, err, "tool analysis.unknown not implemented")

	_, err = runtime.Execute(ctx, "dept_finance", "malformed", nil)
	assert.Error(t, err)

	_, err = runtime.Execute(ctx, "dept_finance", "analysis.run", map[string]interface{}{
		"expression": "1 / 0",
	})
	assert.Error(t, err)

	// failed attempts leave an audit trail too
	events := sink.Events()
	assert.Len(t, events, 4)
	for _, event := range events {
		assert.Equal(t, audit.EventTypeToolRuntime, event.EventType)
		assert.Equal(t, "exec-1", event.ExecutionID)
		assert.NotEmpty(t, event.Data["error"])
	}
	assert.Equal(t, "tool missing.run not implemented", events[0].Data["error"])
	assert.Contains(t, events[3].Data["error"], "division by zero")
}
