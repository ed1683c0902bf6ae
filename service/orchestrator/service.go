package orchestrator

import (
	"context"
	"fmt"

	"github.com/viant/warden/model/command"
	"github.com/viant/warden/service/audit"
	"github.com/viant/warden/service/governance"
	"github.com/viant/warden/service/registry"
	"github.com/viant/warden/service/tool"
	"github.com/viant/warden/tracing"
)

// DirectiveWorkflow is the reserved directive expanding into ordered
// sub-commands dispatched to the write executor.
const DirectiveWorkflow = "record_workflow"

// DirectiveToolCall routes execution to the sandboxed tool runtime.
const DirectiveToolCall = "tool_call"

// Executor handles side-effecting directives outside the tool runtime. An
// error return means an irrecoverable infrastructure failure.
type Executor interface {
	Execute(ctx context.Context, cmd *command.Command) (map[string]interface{}, error)
}

// Result is the outcome of one orchestrated execution.
type Result struct {
	ExecutionID string                 `json:"executionId"`
	State       command.State          `json:"state"`
	Reason      string                 `json:"reason,omitempty"`
	ApprovalID  string                 `json:"approvalId,omitempty"`
	Result      map[string]interface{} `json:"result,omitempty"`
}

// Service orchestrates governed command execution.
type Service struct {
	registry         *registry.Service
	governance       *governance.Service
	catalog          *tool.Catalog
	runtime          *tool.Runtime
	writer           Executor
	auditSink        audit.Sink
	defaultInitiator string
}

// Option customises the orchestrator.
type Option func(*Service)

// WithAuditSink attaches the best-effort audit sink.
func WithAuditSink(sink audit.Sink) Option {
	return func(s *Service) { s.auditSink = sink }
}

// WithDefaultInitiator sets the initiator assumed when a command carries
// none.
func WithDefaultInitiator(initiator string) Option {
	return func(s *Service) { s.defaultInitiator = initiator }
}

// New creates an orchestrator. All collaborators except the options are
// required.
func New(executions *registry.Service, evaluator *governance.Service, catalog *tool.Catalog, runtime *tool.Runtime, writer Executor, options ...Option) (*Service, error) {
	if executions == nil {
		return nil, fmt.Errorf("execution registry is required")
	}
	if evaluator == nil {
		return nil, fmt.Errorf("governance evaluator is required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("tool catalog is required")
	}
	if runtime == nil {
		return nil, fmt.Errorf("tool runtime is required")
	}
	if writer == nil {
		return nil, fmt.Errorf("write executor is required")
	}
	ret := &Service{
		registry:   executions,
		governance: evaluator,
		catalog:    catalog,
		runtime:    runtime,
		writer:     writer,
	}
	for _, option := range options {
		option(ret)
	}
	return ret, nil
}

// Execute runs the full pipeline for a single command: normalize, register,
// evaluate governance, then dispatch or block.
func (s *Service) Execute(ctx context.Context, cmd *command.Command) (*Result, error) {
	if cmd == nil {
		return nil, fmt.Errorf("command was nil")
	}
	cmd.Normalize(s.defaultInitiator)
	ctx, span := tracing.StartSpan(ctx, "orchestrator.Execute", "internal")
	var err error
	defer func() { tracing.EndSpan(span, err) }()
	span.WithAttributes(map[string]string{
		"execution.id":      cmd.ExecutionID,
		"command.directive": cmd.Directive(),
	})

	if err = s.registry.Register(ctx, cmd); err != nil {
		return nil, fmt.Errorf("failed to register execution %s: %w", cmd.ExecutionID, err)
	}

	decision, err := s.governance.Evaluate(ctx, cmd.Initiator, cmd.Directive(), cmd.Params, cmd.ExecutionID, cmd.ApprovalID)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		if err = s.registry.Block(ctx, cmd.ExecutionID, decision.AsMap()); err != nil {
			return nil, err
		}
		return &Result{
			ExecutionID: cmd.ExecutionID,
			State:       command.StateBlocked,
			Reason:      decision.Reason,
			ApprovalID:  decision.ApprovalID,
		}, nil
	}

	cmd.ApprovalID = decision.ApprovalID
	cmd.Decision = decision.AsMap()
	return s.dispatch(ctx, cmd)
}

// Resume re-dispatches a previously blocked execution. Governance is not
// fully re-evaluated, but a linked approval is still checked: a pending or
// rejected approval keeps the execution blocked.
func (s *Service) Resume(ctx context.Context, executionID string) (*Result, error) {
	ctx, span := tracing.StartSpan(ctx, "orchestrator.Resume", "internal")
	var err error
	defer func() { tracing.EndSpan(span, err) }()

	cmd, err := s.registry.Get(ctx, executionID)
	if err != nil {
		return nil, fmt.Errorf("failed to resume execution %s: %w", executionID, err)
	}
	if cmd.ApprovalID != "" {
		approved, approvalErr := s.governance.IsApproved(ctx, cmd.ApprovalID)
		if approvalErr != nil {
			err = approvalErr
			return nil, err
		}
		if !approved {
			return s.block(ctx, cmd, "approval not granted")
		}
	}
	return s.dispatch(ctx, cmd)
}

func (s *Service) dispatch(ctx context.Context, cmd *command.Command) (*Result, error) {
	ctx = command.WithExecutionID(ctx, cmd.ExecutionID)
	cmd.State = command.StateExecuting
	if err := s.registry.Register(ctx, cmd); err != nil {
		return nil, err
	}

	switch cmd.Directive() {
	case DirectiveWorkflow:
		return s.runWorkflow(ctx, cmd)
	case DirectiveToolCall:
		return s.runTool(ctx, cmd)
	default:
		return s.runWrite(ctx, cmd)
	}
}

// runTool gates the action against the catalog before invoking the runtime.
// Gate outcomes are BLOCKED results; only runtime failures mark the
// execution FAILED.
func (s *Service) runTool(ctx context.Context, cmd *command.Command) (*Result, error) {
	action, _ := cmd.Params["action"].(string)
	agentID := cmd.AgentID()

	if !s.catalog.IsExecutable(action) {
		return s.block(ctx, cmd, "tool_not_executable")
	}
	if !s.catalog.IsAllowed(agentID, action) {
		return s.block(ctx, cmd, "action_not_allowed")
	}

	params, _ := cmd.Params["params"].(map[string]interface{})
	result, err := s.runtime.Execute(ctx, agentID, action, params)
	if err != nil {
		return s.fail(ctx, cmd, err)
	}
	return s.complete(ctx, cmd, result)
}

// runWorkflow expands Params["steps"] into sequential synthetic commands for
// the write executor. A failing step fails the whole execution; completed
// steps are not rolled back.
func (s *Service) runWorkflow(ctx context.Context, cmd *command.Command) (*Result, error) {
	steps := workflowSteps(cmd.Params)
	if len(steps) == 0 {
		return s.fail(ctx, cmd, fmt.Errorf("workflow had no steps"))
	}
	outputs := make([]interface{}, 0, len(steps))
	for index, step := range steps {
		sub := &command.Command{
			Command:     step.directive,
			Params:      step.params,
			Initiator:   cmd.Initiator,
			ExecutionID: fmt.Sprintf("%s/%v", cmd.ExecutionID, index),
			Executor:    "write",
			Validated:   true,
			State:       command.StateExecuting,
		}
		output, err := s.writer.Execute(ctx, sub)
		if err != nil {
			return s.fail(ctx, cmd, fmt.Errorf("workflow step %v failed: %w", index, err))
		}
		outputs = append(outputs, output)
	}
	return s.complete(ctx, cmd, map[string]interface{}{"steps": outputs})
}

func (s *Service) runWrite(ctx context.Context, cmd *command.Command) (*Result, error) {
	result, err := s.writer.Execute(ctx, cmd)
	if err != nil {
		return nil, err
	}
	event := audit.NewEvent(audit.EventTypeWrite, cmd.Directive(), cmd.AgentID(), cmd.ExecutionID)
	event.Data = result
	audit.TryAppend(ctx, s.auditSink, event)
	return s.complete(ctx, cmd, result)
}

func (s *Service) block(ctx context.Context, cmd *command.Command, reason string) (*Result, error) {
	decision := map[string]interface{}{"allowed": false, "reason": reason}
	if err := s.registry.Block(ctx, cmd.ExecutionID, decision); err != nil {
		return nil, err
	}
	return &Result{
		ExecutionID: cmd.ExecutionID,
		State:       command.StateBlocked,
		Reason:      reason,
		ApprovalID:  cmd.ApprovalID,
	}, nil
}

func (s *Service) complete(ctx context.Context, cmd *command.Command, result map[string]interface{}) (*Result, error) {
	if err := s.registry.Complete(ctx, cmd.ExecutionID, result); err != nil {
		return nil, err
	}
	return &Result{
		ExecutionID: cmd.ExecutionID,
		State:       command.StateCompleted,
		ApprovalID:  cmd.ApprovalID,
		Result:      result,
	}, nil
}

func (s *Service) fail(ctx context.Context, cmd *command.Command, failure error) (*Result, error) {
	result := map[string]interface{}{"error": failure.Error()}
	if err := s.registry.Fail(ctx, cmd.ExecutionID, result); err != nil {
		return nil, err
	}
	return &Result{
		ExecutionID: cmd.ExecutionID,
		State:       command.StateFailed,
		Reason:      failure.Error(),
		ApprovalID:  cmd.ApprovalID,
		Result:      result,
	}, nil
}

type workflowStep struct {
	directive string
	params    map[string]interface{}
}

func workflowSteps(params map[string]interface{}) []workflowStep {
	raw, ok := params["steps"]
	if !ok {
		return nil
	}
	items, ok := raw.([]interface{})
	if !ok {
		if typed, isTyped := raw.([]map[string]interface{}); isTyped {
			for _, item := range typed {
				items = append(items, item)
			}
		}
	}
	var ret []workflowStep
	for _, item := range items {
		values, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		directive, _ := values["command"].(string)
		if directive == "" {
			continue
		}
		stepParams, _ := values["params"].(map[string]interface{})
		ret = append(ret, workflowStep{directive: directive, params: stepParams})
	}
	return ret
}
