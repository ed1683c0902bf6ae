package warden

import (
	"github.com/viant/afs/storage"
	"github.com/viant/warden/model/types"
	"github.com/viant/warden/policy"
	"github.com/viant/warden/service/approval"
	"github.com/viant/warden/service/audit"
	"github.com/viant/warden/service/meta"
	"github.com/viant/warden/service/orchestrator"
	"github.com/viant/warden/service/runner"
	"github.com/viant/warden/service/tool"
	"github.com/viant/warden/tracing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Option customises the warden service.
type Option func(s *Service)

// WithConfig replaces the whole configuration.
func WithConfig(config *Config) Option {
	return func(s *Service) { s.config = config }
}

// WithApprovalService sets the approval store.
func WithApprovalService(svc approval.Service) Option {
	return func(s *Service) { s.approvals = svc }
}

// WithAuditSink sets the audit sink.
func WithAuditSink(sink audit.Sink) Option {
	return func(s *Service) { s.auditSink = sink }
}

// WithWriteExecutor sets the external executor handling side-effecting
// directives.
func WithWriteExecutor(executor orchestrator.Executor) Option {
	return func(s *Service) { s.writer = executor }
}

// WithPolicyConfig sets the role policy.
func WithPolicyConfig(config *policy.Config) Option {
	return func(s *Service) { s.policyConfig = config }
}

// WithCatalog sets the tool catalog.
func WithCatalog(catalog *tool.Catalog) Option {
	return func(s *Service) { s.catalog = catalog }
}

// WithRunnerConfig sets the job runner configuration.
func WithRunnerConfig(config runner.Config) Option {
	return func(s *Service) { s.runnerConfig = &config }
}

// WithToolServices registers additional tool services.
func WithToolServices(services ...types.Service) Option {
	return func(s *Service) { s.toolServices = append(s.toolServices, services...) }
}

// WithDefaultInitiator sets the initiator assumed for commands carrying
// none.
func WithDefaultInitiator(initiator string) Option {
	return func(s *Service) { s.defaultInitiator = initiator }
}

// WithMetaService sets the configuration loader.
func WithMetaService(service *meta.Service) Option {
	return func(s *Service) { s.metaService = service }
}

// WithMetaBaseURL sets the meta base URL.
func WithMetaBaseURL(url string) Option {
	return func(s *Service) { s.metaBaseURL = url }
}

// WithMetaFsOptions sets the meta file system options.
func WithMetaFsOptions(options ...storage.Option) Option {
	return func(s *Service) { s.metaFsOptions = options }
}

// WithTracing configures OpenTelemetry tracing for the service. If outputFile is empty the
// stdout exporter is used; otherwise traces are written to the supplied file path. The function is
// safe to call multiple times – the first successful initialisation wins.
func WithTracing(serviceName, serviceVersion, outputFile string) Option {
	return func(s *Service) {
		_ = tracing.Init(serviceName, serviceVersion, outputFile)
	}
}

// WithTracingExporter configures OpenTelemetry tracing using a custom SpanExporter, for example
// OTLP, Jaeger or Zipkin. The function is safe to call multiple times – the first successful
// initialisation wins.
func WithTracingExporter(serviceName, serviceVersion string, exporter sdktrace.SpanExporter) Option {
	return func(s *Service) {
		_ = tracing.InitWithExporter(serviceName, serviceVersion, exporter)
	}
}
