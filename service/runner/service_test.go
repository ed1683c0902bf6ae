package runner

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/viant/warden/model/command"
	"github.com/viant/warden/service/approval"
	"github.com/viant/warden/service/approval/memory"
	"github.com/viant/warden/service/audit"
	"github.com/viant/warden/service/orchestrator"
	"github.com/viant/warden/service/tool"
)

type mockOrchestrator struct {
	mux       sync.Mutex
	calls     int
	active    int
	maxActive int
	delay     time.Duration
	fn        func(cmd *command.Command) (*orchestrator.Result, error)
}

func (m *mockOrchestrator) Execute(_ context.Context, cmd *command.Command) (*orchestrator.Result, error) {
	m.mux.Lock()
	m.calls++
	m.active++
	if m.active > m.maxActive {
		m.maxActive = m.active
	}
	m.mux.Unlock()

	if m.delay > 0 {
		time.Sleep(m.delay)
	}

	m.mux.Lock()
	m.active--
	m.mux.Unlock()

	if m.fn != nil {
		return m.fn(cmd)
	}
	return &orchestrator.Result{ExecutionID: cmd.ExecutionID, State: command.StateCompleted}, nil
}

func newCatalog() *tool.Catalog {
	catalog := tool.NewCatalog()
	catalog.AddAgent(&tool.Agent{ID: "dept_finance", Roles: []string{"finance"}, Allow: []string{"analysis.run"}})
	return catalog
}

func newRunner(t *testing.T, config Config, dispatcher Orchestrator, sink audit.Sink) (*Service, approval.Service) {
	approvals := memory.New()
	srv, err := New(config, dispatcher, newCatalog(), approvals, WithAuditSink(sink))
	assert.NoError(t, err)
	return srv, approvals
}

func newJob(id string) *Job {
	return &Job{ID: id, Role: "finance", Command: "tool_call", Params: map[string]interface{}{"action": "analysis.run"}}
}

func TestService_RunPendingBoundsConcurrency(t *testing.T) {
	dispatcher := &mockOrchestrator{delay: 10 * time.Millisecond}
	srv, _ := newRunner(t, Config{MaxConcurrency: 2}, dispatcher, nil)

	jobs := make([]*Job, 8)
	for i := range jobs {
		jobs[i] = newJob("job-" + string(rune('a'+i)))
	}
	results := srv.RunPending(context.Background(), jobs)

	assert.Len(t, results, 8)
	for i, result := range results {
		assert.Equal(t, jobs[i].ID, result.JobID)
		assert.Equal(t, string(command.StateCompleted), result.State)
	}
	assert.Equal(t, 8, dispatcher.calls)
	assert.LessOrEqual(t, dispatcher.maxActive, 2)
}

func TestService_RunPendingDeduplicates(t *testing.T) {
	dispatcher := &mockOrchestrator{}
	srv, _ := newRunner(t, DefaultConfig(), dispatcher, nil)

	results := srv.RunPending(context.Background(), []*Job{newJob("job-1"), newJob("job-1")})
	assert.Equal(t, 1, dispatcher.calls)

	skipped := 0
	for _, result := range results {
		if result.State == StateSkipped {
			skipped++
			assert.Equal(t, "idempotent_replay", result.Reason)
			assert.Equal(t, true, result.Result["skipped"])
			assert.Equal(t, "job-1", result.Result["job_id"])
		}
	}
	assert.Equal(t, 1, skipped)

	// a later batch with the same id is also replay protected
	results = srv.RunPending(context.Background(), []*Job{newJob("job-1")})
	assert.Equal(t, StateSkipped, results[0].State)
	assert.Equal(t, 1, dispatcher.calls)
}

func TestService_RunPendingAssignsJobID(t *testing.T) {
	dispatcher := &mockOrchestrator{}
	srv, _ := newRunner(t, DefaultConfig(), dispatcher, nil)

	job := newJob("")
	results := srv.RunPending(context.Background(), []*Job{job, nil})

	assert.NotEmpty(t, results[0].JobID)
	assert.Equal(t, string(command.StateCompleted), results[0].State)
	assert.Equal(t, 1, dispatcher.calls)

	assert.Equal(t, string(command.StateFailed), results[1].State)
	assert.Equal(t, "missing job", results[1].Reason)
}

func TestService_RunPendingExpiredTTL(t *testing.T) {
	dispatcher := &mockOrchestrator{}
	srv, _ := newRunner(t, Config{IdempotencyTTL: time.Nanosecond}, dispatcher, nil)

	srv.RunPending(context.Background(), []*Job{newJob("job-1")})
	time.Sleep(time.Millisecond)
	results := srv.RunPending(context.Background(), []*Job{newJob("job-1")})
	assert.Equal(t, string(command.StateCompleted), results[0].State)
	assert.Equal(t, 2, dispatcher.calls)
}

func TestService_RunPendingNoAgentForRole(t *testing.T) {
	dispatcher := &mockOrchestrator{}
	srv, _ := newRunner(t, DefaultConfig(), dispatcher, nil)

	job := newJob("job-1")
	job.Role = "legal"
	results := srv.RunPending(context.Background(), []*Job{job})

	assert.Equal(t, string(command.StateBlocked), results[0].State)
	assert.Equal(t, "no_agent_for_role", results[0].Reason)
	assert.Equal(t, 0, dispatcher.calls)
}

func TestService_RunPendingRetriesWithBackoff(t *testing.T) {
	dispatcher := &mockOrchestrator{fn: func(*command.Command) (*orchestrator.Result, error) {
		return nil, errors.New("transient failure")
	}}
	srv, _ := newRunner(t, Config{MaxConcurrency: 1, MaxRetries: 2, BackoffBase: 10 * time.Millisecond}, dispatcher, nil)

	var delays []time.Duration
	srv.sleepFn = func(_ context.Context, delay time.Duration) error {
		delays = append(delays, delay)
		return nil
	}

	results := srv.RunPending(context.Background(), []*Job{newJob("job-1")})
	assert.Equal(t, string(command.StateFailed), results[0].State)
	assert.Equal(t, "transient failure", results[0].Failure["reason"])
	assert.Equal(t, "*errors.errorString", results[0].Failure["error_type"])
	assert.Equal(t, 3, dispatcher.calls)
	assert.Equal(t, []time.Duration{10 * time.Millisecond, 20 * time.Millisecond}, delays)
}

func TestService_RunPendingRecoversAfterRetry(t *testing.T) {
	var attempt int
	dispatcher := &mockOrchestrator{fn: func(cmd *command.Command) (*orchestrator.Result, error) {
		attempt++
		if attempt == 1 {
			return nil, errors.New("transient failure")
		}
		return &orchestrator.Result{ExecutionID: cmd.ExecutionID, State: command.StateCompleted}, nil
	}}
	srv, _ := newRunner(t, Config{MaxConcurrency: 1, MaxRetries: 2, BackoffBase: time.Millisecond}, dispatcher, nil)

	var delays []time.Duration
	srv.sleepFn = func(_ context.Context, delay time.Duration) error {
		delays = append(delays, delay)
		return nil
	}

	results := srv.RunPending(context.Background(), []*Job{newJob("job-1")})
	assert.Equal(t, string(command.StateCompleted), results[0].State)
	assert.Len(t, delays, 1)
}

func TestService_RunPendingEmitsHandoff(t *testing.T) {
	sink := audit.NewMemory()
	dispatcher := &mockOrchestrator{}
	srv, _ := newRunner(t, DefaultConfig(), dispatcher, sink)

	silent := newJob("job-2")
	silent.Metadata = map[string]interface{}{"emit_handoff_log": false}
	srv.RunPending(context.Background(), []*Job{newJob("job-1"), silent})

	events := sink.Events()
	assert.Len(t, events, 1)
	assert.Equal(t, audit.EventTypeHandoff, events[0].EventType)
	assert.Equal(t, "job-1", events[0].ExecutionID)
	assert.Equal(t, "dept_finance", events[0].AgentID)
}

func TestService_EmitPendingHandoffs(t *testing.T) {
	ctx := context.Background()
	sink := audit.NewMemory()
	approvals := memory.New()

	created, err := approvals.Create(ctx, &approval.Request{ExecutionID: "job-1", Command: "tool_call"})
	assert.NoError(t, err)

	dispatcher := &mockOrchestrator{fn: func(cmd *command.Command) (*orchestrator.Result, error) {
		return &orchestrator.Result{
			ExecutionID: cmd.ExecutionID,
			State:       command.StateBlocked,
			Reason:      "approval required",
			ApprovalID:  created.ID,
		}, nil
	}}
	srv, err := New(DefaultConfig(), dispatcher, newCatalog(), approvals, WithAuditSink(sink))
	assert.NoError(t, err)

	results := srv.RunPending(ctx, []*Job{newJob("job-1")})
	assert.Equal(t, string(command.StateBlocked), results[0].State)

	// still pending, nothing to flush
	flushed, err := srv.EmitPendingHandoffs(ctx)
	assert.NoError(t, err)
	assert.Empty(t, flushed)

	_, err = approvals.Approve(ctx, created.ID, "carol", "")
	assert.NoError(t, err)

	flushed, err = srv.EmitPendingHandoffs(ctx)
	assert.NoError(t, err)
	assert.Equal(t, []string{"job-1"}, flushed)

	events := sink.Events()
	assert.Len(t, events, 1)
	assert.Equal(t, audit.EventTypeHandoff, events[0].EventType)
	assert.Equal(t, created.ID, events[0].Data["approval_id"])

	// flushing is one-shot
	flushed, err = srv.EmitPendingHandoffs(ctx)
	assert.NoError(t, err)
	assert.Empty(t, flushed)
}
