package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/warden/model/command"
	"github.com/viant/warden/service/dao"
)

func TestService_RegisterIdempotent(t *testing.T) {
	ctx := context.Background()
	srv := New()

	cmd := &command.Command{Command: "tool_call", ExecutionID: "exec-1"}
	assert.NoError(t, srv.Register(ctx, cmd))

	updated := &command.Command{Command: "tool_call", Intent: "analysis.run", ExecutionID: "exec-1"}
	assert.NoError(t, srv.Register(ctx, updated))

	all, err := srv.List(ctx)
	assert.NoError(t, err)
	assert.Len(t, all, 1, "re-registering the same execution id must not duplicate")

	stored, err := srv.Get(ctx, "exec-1")
	assert.NoError(t, err)
	assert.Equal(t, "analysis.run", stored.Intent, "Get returns the latest snapshot")
}

func TestService_GetNotFound(t *testing.T) {
	srv := New()
	_, err := srv.Get(context.Background(), "unknown")
	assert.ErrorIs(t, err, dao.ErrNotFound)
}

func TestService_BlockAndComplete(t *testing.T) {
	ctx := context.Background()
	srv := New()
	assert.NoError(t, srv.Register(ctx, &command.Command{Command: "record_update", ExecutionID: "exec-2"}))

	decision := map[string]interface{}{"allowed": false, "reason": "approval required", "approvalId": "appr-9"}
	assert.NoError(t, srv.Block(ctx, "exec-2", decision))

	blocked, err := srv.Get(ctx, "exec-2")
	assert.NoError(t, err)
	assert.Equal(t, command.StateBlocked, blocked.State)
	assert.Equal(t, "appr-9", blocked.ApprovalID)
	assert.Equal(t, decision, blocked.Decision)

	result := map[string]interface{}{"ok": true}
	assert.NoError(t, srv.Complete(ctx, "exec-2", result))
	completed, err := srv.Get(ctx, "exec-2")
	assert.NoError(t, err)
	assert.Equal(t, command.StateCompleted, completed.State)
	assert.Equal(t, result, completed.Result)
}

func TestService_FailUnknown(t *testing.T) {
	srv := New()
	err := srv.Fail(context.Background(), "missing", map[string]interface{}{"reason": "boom"})
	assert.ErrorIs(t, err, dao.ErrNotFound)
}

func TestService_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	srv := New()
	assert.NoError(t, srv.Register(ctx, &command.Command{Command: "tool_call", ExecutionID: "exec-3"}))

	loaded, err := srv.Get(ctx, "exec-3")
	assert.NoError(t, err)
	loaded.Command = "mutated"

	stored, err := srv.Get(ctx, "exec-3")
	assert.NoError(t, err)
	assert.Equal(t, "tool_call", stored.Command, "callers mutate copies, never the stored snapshot")
}
