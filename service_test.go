package warden

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/viant/warden/model/command"
	"github.com/viant/warden/service/approval"
	"github.com/viant/warden/service/runner"
)

func newService(t *testing.T) *Service {
	srv, err := New(WithDefaultInitiator("alice"))
	assert.NoError(t, err)
	return srv
}

func toolCall(executionID, agentID, expression string) *command.Command {
	return &command.Command{
		Command: "tool_call",
		Params: map[string]interface{}{
			"action": "analysis.run",
			"params": map[string]interface{}{"expression": expression},
		},
		ExecutionID: executionID,
		Metadata:    map[string]interface{}{"agent_id": agentID},
	}
}

func TestService_ApproveThenResume(t *testing.T) {
	srv := newService(t)
	ctx := context.Background()

	blocked, err := srv.Execute(ctx, toolCall("exec-1", "dept_finance", "1+2*3"))
	assert.NoError(t, err)
	assert.Equal(t, command.StateBlocked, blocked.State)
	assert.Equal(t, "approval required", blocked.Reason)
	assert.NotEmpty(t, blocked.ApprovalID)

	pending, err := srv.ListPendingApprovals(ctx)
	assert.NoError(t, err)
	assert.Len(t, pending, 1)

	_, err = srv.Approve(ctx, blocked.ApprovalID, "carol", "verified")
	assert.NoError(t, err)

	result, err := srv.Resume(ctx, "exec-1")
	assert.NoError(t, err)
	assert.Equal(t, command.StateCompleted, result.State)
	data, ok := result.Result["data"].(map[string]interface{})
	assert.True(t, ok)
	assert.Equal(t, 7.0, data["result"])

	stored, err := srv.Execution(ctx, "exec-1")
	assert.NoError(t, err)
	assert.Equal(t, command.StateCompleted, stored.State)
}

func TestService_ApprovalDoesNotUpgradeAllowlist(t *testing.T) {
	srv := newService(t)
	ctx := context.Background()

	blocked, err := srv.Execute(ctx, toolCall("exec-1", "dept_ops", "1+2"))
	assert.NoError(t, err)
	assert.Equal(t, command.StateBlocked, blocked.State)

	_, err = srv.Approve(ctx, blocked.ApprovalID, "carol", "")
	assert.NoError(t, err)

	result, err := srv.Resume(ctx, "exec-1")
	assert.NoError(t, err)
	assert.Equal(t, command.StateBlocked, result.State)
	assert.Equal(t, "action_not_allowed", result.Reason)
}

func TestService_RejectBlocksExecution(t *testing.T) {
	srv := newService(t)
	ctx := context.Background()

	blocked, err := srv.Execute(ctx, toolCall("exec-1", "dept_finance", "1+2"))
	assert.NoError(t, err)

	_, err = srv.Reject(ctx, blocked.ApprovalID, "carol", "not justified")
	assert.NoError(t, err)

	retry := toolCall("exec-1", "dept_finance", "1+2")
	retry.ApprovalID = blocked.ApprovalID
	result, err := srv.Execute(ctx, retry)
	assert.NoError(t, err)
	assert.Equal(t, command.StateBlocked, result.State)
	assert.Equal(t, "approval not granted", result.Reason)

	// the rejection is terminal
	_, err = srv.Approve(ctx, blocked.ApprovalID, "dave", "")
	assert.True(t, errors.Is(err, approval.ErrConflict))
}

func TestService_RunPendingJobs(t *testing.T) {
	srv := newService(t)
	ctx := context.Background()

	jobs := []*runner.Job{
		{
			ID:      "job-1",
			Role:    "finance",
			Command: "tool_call",
			Params: map[string]interface{}{
				"action": "analysis.run",
				"params": map[string]interface{}{"expression": "(2+2)*10"},
			},
		},
		{ID: "job-2", Role: "legal", Command: "tool_call"},
	}

	results := srv.RunPendingJobs(ctx, jobs)
	assert.Len(t, results, 2)

	assert.Equal(t, string(command.StateBlocked), results[0].State)
	assert.Equal(t, "approval required", results[0].Reason)
	assert.NotEmpty(t, results[0].ApprovalID)

	assert.Equal(t, string(command.StateBlocked), results[1].State)
	assert.Equal(t, "no_agent_for_role", results[1].Reason)

	// replaying the same job id is a no-op
	replayed := srv.RunPendingJobs(ctx, []*runner.Job{{ID: "job-1", Role: "finance", Command: "tool_call"}})
	assert.Equal(t, runner.StateSkipped, replayed[0].State)

	// approve out-of-band, then resume the blocked execution
	_, err := srv.Approve(ctx, results[0].ApprovalID, "carol", "")
	assert.NoError(t, err)

	flushed, err := srv.EmitPendingHandoffs(ctx)
	assert.NoError(t, err)
	assert.Equal(t, []string{"job-1"}, flushed)

	result, err := srv.Resume(ctx, "job-1")
	assert.NoError(t, err)
	assert.Equal(t, command.StateCompleted, result.State)
	data, _ := result.Result["data"].(map[string]interface{})
	assert.Equal(t, 40.0, data["result"])
}

func TestService_AutoApproveUnblocks(t *testing.T) {
	srv := newService(t)
	ctx := context.Background()

	blocked, err := srv.Execute(ctx, toolCall("exec-1", "dept_finance", "3*4"))
	assert.NoError(t, err)
	assert.Equal(t, command.StateBlocked, blocked.State)

	stop := approval.AutoApprove(ctx, srv.Approvals(), "autopilot", 5*time.Millisecond)
	defer stop()

	assert.Eventually(t, func() bool {
		approved, approvedErr := srv.Approvals().IsFullyApproved(ctx, blocked.ApprovalID)
		return approvedErr == nil && approved
	}, time.Second, 5*time.Millisecond)

	result, err := srv.Resume(ctx, "exec-1")
	assert.NoError(t, err)
	assert.Equal(t, command.StateCompleted, result.State)
	data, _ := result.Result["data"].(map[string]interface{})
	assert.Equal(t, 12.0, data["result"])

	decided, err := srv.Approvals().Get(ctx, blocked.ApprovalID)
	assert.NoError(t, err)
	assert.Equal(t, "autopilot", decided.ApprovedBy)
}

func TestService_AutoRejectKeepsBlocked(t *testing.T) {
	srv := newService(t)
	ctx := context.Background()

	blocked, err := srv.Execute(ctx, toolCall("exec-1", "dept_finance", "3*4"))
	assert.NoError(t, err)

	stop := approval.AutoReject(ctx, srv.Approvals(), "autopilot", "policy freeze", 5*time.Millisecond)
	defer stop()

	assert.Eventually(t, func() bool {
		decided, getErr := srv.Approvals().Get(ctx, blocked.ApprovalID)
		return getErr == nil && decided.Status == approval.StatusRejected
	}, time.Second, 5*time.Millisecond)

	result, err := srv.Resume(ctx, "exec-1")
	assert.NoError(t, err)
	assert.Equal(t, command.StateBlocked, result.State)
	assert.Equal(t, "approval not granted", result.Reason)
}

func TestService_WorkflowDirective(t *testing.T) {
	srv := newService(t)
	ctx := context.Background()

	cmd := &command.Command{
		Command:     "record_workflow",
		ExecutionID: "exec-1",
		Params: map[string]interface{}{
			"steps": []interface{}{
				map[string]interface{}{"command": "record_update", "params": map[string]interface{}{"id": "r1"}},
			},
		},
	}
	blocked, err := srv.Execute(ctx, cmd)
	assert.NoError(t, err)
	assert.Equal(t, command.StateBlocked, blocked.State)
	assert.Equal(t, "action not allowed", blocked.Reason)
}

func TestService_DefaultInitiatorRequired(t *testing.T) {
	srv, err := New()
	assert.NoError(t, err)

	result, err := srv.Execute(context.Background(), toolCall("exec-1", "dept_finance", "1"))
	assert.NoError(t, err)
	assert.Equal(t, command.StateBlocked, result.State)
	assert.Equal(t, "initiator not allowed", result.Reason)
}
