package runner

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"github.com/viant/warden/internal/idgen"
	"github.com/viant/warden/model/command"
	"github.com/viant/warden/service/approval"
	"github.com/viant/warden/service/audit"
	"github.com/viant/warden/service/dao"
	"github.com/viant/warden/service/orchestrator"
	"github.com/viant/warden/service/tool"
	"github.com/viant/warden/tracing"
)

// Config controls the runner's concurrency, retry and idempotency windows.
type Config struct {
	MaxConcurrency int           `json:"maxConcurrency,omitempty" yaml:"maxConcurrency,omitempty"`
	MaxRetries     int           `json:"maxRetries,omitempty" yaml:"maxRetries,omitempty"`
	BackoffBase    time.Duration `json:"backoffBase,omitempty" yaml:"backoffBase,omitempty"`
	IdempotencyTTL time.Duration `json:"idempotencyTTL,omitempty" yaml:"idempotencyTTL,omitempty"`
}

// DefaultConfig returns the default runner configuration.
func DefaultConfig() Config {
	return Config{
		MaxConcurrency: 4,
		MaxRetries:     2,
		BackoffBase:    100 * time.Millisecond,
	}
}

// Orchestrator dispatches a single governed command.
type Orchestrator interface {
	Execute(ctx context.Context, cmd *command.Command) (*orchestrator.Result, error)
}

type pendingHandoff struct {
	jobID      string
	approvalID string
	agentID    string
}

// Service runs job batches.
type Service struct {
	config       Config
	orchestrator Orchestrator
	catalog      *tool.Catalog
	approvals    approval.Service
	auditSink    audit.Sink
	dedup        *dedupCache

	mux     sync.Mutex
	pending map[string]*pendingHandoff

	// sleepFn waits for a backoff delay; stubbed in tests
	sleepFn func(ctx context.Context, delay time.Duration) error
}

// Option customises the runner.
type Option func(*Service)

// WithAuditSink attaches the best-effort audit sink receiving handoff
// records.
func WithAuditSink(sink audit.Sink) Option {
	return func(s *Service) { s.auditSink = sink }
}

// New creates a job runner.
func New(config Config, dispatcher Orchestrator, catalog *tool.Catalog, approvals approval.Service, options ...Option) (*Service, error) {
	if dispatcher == nil {
		return nil, fmt.Errorf("orchestrator is required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("tool catalog is required")
	}
	if approvals == nil {
		return nil, fmt.Errorf("approval service is required")
	}
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = DefaultConfig().MaxConcurrency
	}
	if config.BackoffBase <= 0 {
		config.BackoffBase = DefaultConfig().BackoffBase
	}
	ret := &Service{
		config:       config,
		orchestrator: dispatcher,
		catalog:      catalog,
		approvals:    approvals,
		dedup:        newDedupCache(config.IdempotencyTTL),
		pending:      make(map[string]*pendingHandoff),
		sleepFn:      sleep,
	}
	for _, option := range options {
		option(ret)
	}
	return ret, nil
}

// RunPending executes the supplied jobs, at most MaxConcurrency at a time.
// The returned slice is positionally aligned with the input.
func (s *Service) RunPending(ctx context.Context, jobs []*Job) []*Result {
	ctx, span := tracing.StartSpan(ctx, "runner.RunPending", "internal")
	defer tracing.EndSpan(span, nil)

	results := make([]*Result, len(jobs))
	semaphore := make(chan struct{}, s.config.MaxConcurrency)
	var waitGroup sync.WaitGroup
	for i := range jobs {
		waitGroup.Add(1)
		go func(index int, job *Job) {
			defer waitGroup.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()
			results[index] = s.run(ctx, job)
		}(i, jobs[i])
	}
	waitGroup.Wait()
	return results
}

func (s *Service) run(ctx context.Context, job *Job) *Result {
	if job == nil {
		return &Result{State: string(command.StateFailed), Reason: "missing job"}
	}
	if job.ID == "" {
		job.ID = idgen.New()
	}
	if !s.dedup.markSeen(job.ID) {
		return &Result{
			JobID:  job.ID,
			State:  StateSkipped,
			Reason: "idempotent_replay",
			Result: map[string]interface{}{"skipped": true, "reason": "idempotent_replay", "job_id": job.ID},
		}
	}

	agentID, err := s.catalog.ResolveAgentForRole(job.Role)
	if err != nil {
		if !errors.Is(err, dao.ErrNotFound) {
			return s.failed(job, err)
		}
		log.Printf("no agent declares role %v, blocking job %v", job.Role, job.ID)
		return &Result{JobID: job.ID, State: string(command.StateBlocked), Reason: "no_agent_for_role"}
	}

	cmd := s.asCommand(job, agentID)
	attempts := 0
	for {
		outcome, err := s.orchestrator.Execute(ctx, cmd.Clone())
		if err == nil {
			return s.fromOutcome(ctx, job, agentID, outcome)
		}
		attempts++
		retry, delay := s.shouldRetry(attempts)
		if !retry {
			return s.failed(job, err)
		}
		log.Printf("job %v attempt %v failed: %v, retrying in %s", job.ID, attempts, err, delay)
		if err = s.sleepFn(ctx, delay); err != nil {
			return s.failed(job, err)
		}
	}
}

func (s *Service) asCommand(job *Job, agentID string) *command.Command {
	metadata := map[string]interface{}{}
	for k, v := range job.Metadata {
		metadata[k] = v
	}
	metadata["agent_id"] = agentID
	return &command.Command{
		Command:     job.Command,
		Params:      job.Params,
		ExecutionID: job.ID,
		ApprovalID:  job.ApprovalID,
		Metadata:    metadata,
	}
}

// shouldRetry reports whether another attempt should be made after the given
// number of failures and the delay to wait before it.
func (s *Service) shouldRetry(attempts int) (bool, time.Duration) {
	if attempts > s.config.MaxRetries {
		return false, 0
	}
	delay := time.Duration(float64(s.config.BackoffBase) * math.Pow(2, float64(attempts-1)))
	return true, delay
}

func (s *Service) fromOutcome(ctx context.Context, job *Job, agentID string, outcome *orchestrator.Result) *Result {
	ret := &Result{
		JobID:      job.ID,
		State:      string(outcome.State),
		Reason:     outcome.Reason,
		ApprovalID: outcome.ApprovalID,
		Result:     outcome.Result,
	}
	switch outcome.State {
	case command.StateCompleted:
		s.emitHandoff(ctx, job, agentID, ret)
	case command.StateBlocked:
		if outcome.ApprovalID != "" {
			s.deferHandoff(job.ID, outcome.ApprovalID, agentID)
		}
	case command.StateFailed:
		ret.Failure = map[string]interface{}{"reason": outcome.Reason}
	}
	return ret
}

func (s *Service) failed(job *Job, err error) *Result {
	return &Result{
		JobID:  job.ID,
		State:  string(command.StateFailed),
		Reason: err.Error(),
		Failure: map[string]interface{}{
			"reason":     err.Error(),
			"error_type": fmt.Sprintf("%T", err),
		},
	}
}

func (s *Service) emitHandoff(ctx context.Context, job *Job, agentID string, result *Result) {
	if job.Metadata != nil {
		if emit, ok := job.Metadata["emit_handoff_log"].(bool); ok && !emit {
			return
		}
	}
	event := audit.NewEvent(audit.EventTypeHandoff, job.Command, agentID, job.ID)
	event.Data = map[string]interface{}{
		"job_id": job.ID,
		"role":   job.Role,
		"state":  result.State,
	}
	audit.TryAppend(ctx, s.auditSink, event)
}

func (s *Service) deferHandoff(jobID, approvalID, agentID string) {
	s.mux.Lock()
	defer s.mux.Unlock()
	s.pending[jobID] = &pendingHandoff{jobID: jobID, approvalID: approvalID, agentID: agentID}
}

// EmitPendingHandoffs emits the handoff record for every blocked job whose
// approval has since been granted and returns the job ids it flushed.
// Rejected approvals are discarded without a handoff.
func (s *Service) EmitPendingHandoffs(ctx context.Context) ([]string, error) {
	s.mux.Lock()
	pending := make([]*pendingHandoff, 0, len(s.pending))
	for _, handoff := range s.pending {
		pending = append(pending, handoff)
	}
	s.mux.Unlock()

	var flushed []string
	for _, handoff := range pending {
		record, err := s.approvals.Get(ctx, handoff.approvalID)
		if err != nil {
			return flushed, fmt.Errorf("failed to check approval %s: %w", handoff.approvalID, err)
		}
		if !record.Status.IsTerminal() {
			continue
		}
		if record.Status == approval.StatusApproved {
			event := audit.NewEvent(audit.EventTypeHandoff, "", handoff.agentID, handoff.jobID)
			event.Data = map[string]interface{}{
				"job_id":      handoff.jobID,
				"approval_id": handoff.approvalID,
				"state":       "APPROVED",
			}
			audit.TryAppend(ctx, s.auditSink, event)
			flushed = append(flushed, handoff.jobID)
		}
		s.mux.Lock()
		delete(s.pending, handoff.jobID)
		s.mux.Unlock()
	}
	return flushed, nil
}

func sleep(ctx context.Context, delay time.Duration) error {
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
