package warden

import (
	"context"
	"fmt"

	"github.com/viant/afs"
	"github.com/viant/afs/storage"
	"github.com/viant/warden/model/command"
	"github.com/viant/warden/model/types"
	"github.com/viant/warden/policy"
	"github.com/viant/warden/service/approval"
	amemory "github.com/viant/warden/service/approval/memory"
	"github.com/viant/warden/service/audit"
	"github.com/viant/warden/service/governance"
	"github.com/viant/warden/service/meta"
	"github.com/viant/warden/service/orchestrator"
	"github.com/viant/warden/service/registry"
	"github.com/viant/warden/service/runner"
	"github.com/viant/warden/service/tool"
	"github.com/viant/warden/service/tool/analysis"
	"github.com/viant/warden/service/tool/docs"
)

// Service is the façade composing the whole pipeline: policy, approvals,
// governance, execution registry, tool runtime, orchestrator and job runner.
type Service struct {
	config           *Config
	policyConfig     *policy.Config
	resolver         *policy.Resolver
	approvals        approval.Service
	executions       *registry.Service
	catalog          *tool.Catalog
	toolRegistry     *tool.Registry
	toolServices     []types.Service
	runtime          *tool.Runtime
	orchestrator     *orchestrator.Service
	runner           *runner.Service
	runnerConfig     *runner.Config
	auditSink        audit.Sink
	writer           orchestrator.Executor
	metaService      *meta.Service
	metaBaseURL      string
	metaFsOptions    []storage.Option
	defaultInitiator string
}

// nopExecutor is the default write executor; it acknowledges the command
// without any external side effect.
type nopExecutor struct{}

func (n *nopExecutor) Execute(_ context.Context, cmd *command.Command) (map[string]interface{}, error) {
	return map[string]interface{}{"ok": true, "command": cmd.Directive()}, nil
}

// New creates a warden service with the supplied options.
func New(options ...Option) (*Service, error) {
	ret := &Service{}
	for _, option := range options {
		option(ret)
	}
	if err := ret.init(); err != nil {
		return nil, err
	}
	return ret, nil
}

// NewFromConfig loads the configuration document at the given location and
// creates a service from it.
func NewFromConfig(ctx context.Context, location string, options ...Option) (*Service, error) {
	ret := &Service{}
	for _, option := range options {
		option(ret)
	}
	if ret.metaService == nil {
		ret.metaService = meta.New(afs.New(), ret.metaBaseURL, ret.metaFsOptions...)
	}
	config := &Config{}
	if err := ret.metaService.Load(ctx, location, config); err != nil {
		return nil, err
	}
	ret.config = config
	if err := ret.init(); err != nil {
		return nil, err
	}
	return ret, nil
}

func (s *Service) init() error {
	s.ensureBaseSetup()
	if err := s.config.Validate(); err != nil {
		return err
	}

	resolver, err := policy.New(s.policyConfig)
	if err != nil {
		return err
	}
	s.resolver = resolver

	evaluator, err := governance.New(s.resolver, s.approvals)
	if err != nil {
		return err
	}

	s.toolRegistry = tool.NewRegistry()
	s.toolRegistry.Register(analysis.New())
	s.toolRegistry.Register(docs.New())
	for _, service := range s.toolServices {
		s.toolRegistry.Register(service)
	}
	s.runtime = tool.NewRuntime(s.toolRegistry, tool.WithAuditSink(s.auditSink))

	s.executions = registry.New()
	s.orchestrator, err = orchestrator.New(s.executions, evaluator, s.catalog, s.runtime, s.writer,
		orchestrator.WithAuditSink(s.auditSink),
		orchestrator.WithDefaultInitiator(s.defaultInitiator))
	if err != nil {
		return err
	}

	s.runner, err = runner.New(*s.runnerConfig, s.orchestrator, s.catalog, s.approvals,
		runner.WithAuditSink(s.auditSink))
	return err
}

func (s *Service) ensureBaseSetup() {
	if s.config == nil {
		s.config = DefaultConfig()
	}
	if s.policyConfig == nil {
		s.policyConfig = s.config.Policy
	}
	if s.policyConfig == nil {
		s.policyConfig = policy.DefaultConfig()
	}
	if s.catalog == nil {
		catalogConfig := s.config.Catalog
		if catalogConfig == nil {
			catalogConfig = tool.DefaultConfig()
		}
		s.catalog = catalogConfig.Catalog()
	}
	if s.runnerConfig == nil {
		config := s.config.Runner
		s.runnerConfig = &config
	}
	if s.defaultInitiator == "" {
		s.defaultInitiator = s.config.DefaultInitiator
	}
	if s.approvals == nil {
		s.approvals = amemory.New()
	}
	if s.auditSink == nil {
		s.auditSink = audit.NewMemory()
	}
	if s.writer == nil {
		s.writer = &nopExecutor{}
	}
	if s.metaService == nil {
		s.metaService = meta.New(afs.New(), s.metaBaseURL, s.metaFsOptions...)
	}
}

// Execute runs a command through the governed pipeline.
func (s *Service) Execute(ctx context.Context, cmd *command.Command) (*orchestrator.Result, error) {
	return s.orchestrator.Execute(ctx, cmd)
}

// Resume re-dispatches a previously blocked execution, typically after its
// gating approval was granted.
func (s *Service) Resume(ctx context.Context, executionID string) (*orchestrator.Result, error) {
	return s.orchestrator.Resume(ctx, executionID)
}

// Approve grants the pending approval.
func (s *Service) Approve(ctx context.Context, id, approvedBy, note string) (*approval.Approval, error) {
	return s.approvals.Approve(ctx, id, approvedBy, note)
}

// Reject declines the pending approval.
func (s *Service) Reject(ctx context.Context, id, rejectedBy, note string) (*approval.Approval, error) {
	return s.approvals.Reject(ctx, id, rejectedBy, note)
}

// ListPendingApprovals returns all approvals still awaiting a decision.
func (s *Service) ListPendingApprovals(ctx context.Context) ([]*approval.Approval, error) {
	return s.approvals.ListPending(ctx)
}

// RunPendingJobs executes a batch of department jobs.
func (s *Service) RunPendingJobs(ctx context.Context, jobs []*runner.Job) []*runner.Result {
	return s.runner.RunPending(ctx, jobs)
}

// EmitPendingHandoffs flushes the handoff records of blocked jobs whose
// approvals have since been granted.
func (s *Service) EmitPendingHandoffs(ctx context.Context) ([]string, error) {
	return s.runner.EmitPendingHandoffs(ctx)
}

// RegisterToolServices registers additional tool services with the runtime.
func (s *Service) RegisterToolServices(services ...types.Service) {
	for _, service := range services {
		s.toolRegistry.Register(service)
	}
}

// Approvals returns the approval store.
func (s *Service) Approvals() approval.Service {
	return s.approvals
}

// Executions returns the execution registry.
func (s *Service) Executions() *registry.Service {
	return s.executions
}

// Catalog returns the tool catalog.
func (s *Service) Catalog() *tool.Catalog {
	return s.catalog
}

// Policy returns the role resolver.
func (s *Service) Policy() *policy.Resolver {
	return s.resolver
}

// Runner returns the job runner.
func (s *Service) Runner() *runner.Service {
	return s.runner
}

// ToolRegistry returns the tool service registry.
func (s *Service) ToolRegistry() *tool.Registry {
	return s.toolRegistry
}

// Execution returns the latest snapshot of the given execution.
func (s *Service) Execution(ctx context.Context, executionID string) (*command.Command, error) {
	if executionID == "" {
		return nil, fmt.Errorf("executionID was empty")
	}
	return s.executions.Get(ctx, executionID)
}
