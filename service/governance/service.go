// Package governance combines the role policy with the approval store to
// produce allow/block decisions. It is a pure decision step: it never
// executes the directive itself, only decides whether execution may proceed
// and creates the approval request gating it.
package governance

import (
	"context"
	"fmt"

	"github.com/viant/warden/policy"
	"github.com/viant/warden/service/approval"
)

// Decision is the structured outcome of a governance evaluation. Blocked
// outcomes are expected, routine results – they are returned, never raised.
type Decision struct {
	Allowed     bool                   `json:"allowed"`
	Reason      string                 `json:"reason,omitempty"`
	ExecutionID string                 `json:"executionId,omitempty"`
	ApprovalID  string                 `json:"approvalId,omitempty"`
	Limits      map[string]interface{} `json:"limits,omitempty"`
}

// AsMap renders the decision as the snapshot attached to the execution
// registry. The reason is safe to display verbatim.
func (d *Decision) AsMap() map[string]interface{} {
	ret := map[string]interface{}{
		"allowed": d.Allowed,
	}
	if d.Reason != "" {
		ret["reason"] = d.Reason
	}
	if d.ApprovalID != "" {
		ret["approvalId"] = d.ApprovalID
	}
	if d.Limits != nil {
		ret["limits"] = d.Limits
	}
	return ret
}

// Service evaluates whether an initiator may execute a directive.
type Service struct {
	resolver  *policy.Resolver
	approvals approval.Service
	riskLevel string
	limits    map[string]interface{}
}

// Option customises the evaluator.
type Option func(*Service)

// WithLimits replaces the governance limits attached to allowed decisions.
func WithLimits(limits map[string]interface{}) Option {
	return func(s *Service) { s.limits = limits }
}

// WithRiskLevel overrides the risk level recorded on created approvals.
func WithRiskLevel(riskLevel string) Option {
	return func(s *Service) { s.riskLevel = riskLevel }
}

// New creates a governance evaluator.
func New(resolver *policy.Resolver, approvals approval.Service, options ...Option) (*Service, error) {
	if resolver == nil {
		return nil, fmt.Errorf("policy resolver is required")
	}
	if approvals == nil {
		return nil, fmt.Errorf("approval service is required")
	}
	ret := &Service{
		resolver:  resolver,
		approvals: approvals,
		riskLevel: "standard",
		limits:    map[string]interface{}{"max_steps": 16, "network": false},
	}
	for _, option := range options {
		option(ret)
	}
	return ret, nil
}

// IsApproved reports whether the given approval has been granted.
func (s *Service) IsApproved(ctx context.Context, approvalID string) (bool, error) {
	return s.approvals.IsFullyApproved(ctx, approvalID)
}

// Evaluate decides whether execution may proceed. The returned error is
// reserved for infrastructure failures (approval store unavailable); policy
// outcomes are always expressed through the decision.
func (s *Service) Evaluate(ctx context.Context, initiator, directive string, params map[string]interface{}, executionID, approvalID string) (*Decision, error) {
	if executionID == "" {
		return &Decision{Allowed: false, Reason: "missing execution_id"}, nil
	}
	if !s.resolver.CanRequest(initiator) {
		return &Decision{Allowed: false, Reason: "initiator not allowed", ExecutionID: executionID}, nil
	}
	role := s.resolver.RoleFor(initiator)
	if !s.resolver.IsAllowed(role, directive) {
		return &Decision{Allowed: false, Reason: "action not allowed", ExecutionID: executionID}, nil
	}

	if approvalID == "" {
		created, err := s.approvals.Create(ctx, &approval.Request{
			ExecutionID:    executionID,
			Command:        directive,
			PayloadSummary: params,
			Scope:          directive,
			RiskLevel:      s.riskLevel,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create approval: %w", err)
		}
		return &Decision{
			Allowed:     false,
			Reason:      "approval required",
			ExecutionID: executionID,
			ApprovalID:  created.ID,
		}, nil
	}

	approved, err := s.approvals.IsFullyApproved(ctx, approvalID)
	if err != nil {
		return nil, fmt.Errorf("failed to check approval %s: %w", approvalID, err)
	}
	if !approved {
		return &Decision{
			Allowed:     false,
			Reason:      "approval not granted",
			ExecutionID: executionID,
			ApprovalID:  approvalID,
		}, nil
	}

	return &Decision{
		Allowed:     true,
		ExecutionID: executionID,
		ApprovalID:  approvalID,
		Limits:      s.limits,
	}, nil
}
