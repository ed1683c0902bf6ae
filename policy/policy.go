package policy

import (
	"context"
	"fmt"
	"strings"
)

// Role identifies a coarse permission bucket an initiator resolves to.
type Role string

const (
	// RoleNone is the deny-by-default role unknown or empty initiators
	// resolve to.
	RoleNone Role = ""
)

// Config represents the declarative, serialisable part of a role policy. The
// zero value is useful – all fields inherit package defaults on New.
type Config struct {
	// DefaultRole is assigned to initiators without an explicit mapping. It
	// should be the most restrictive non-empty role.
	DefaultRole string `json:"defaultRole,omitempty" yaml:"defaultRole,omitempty"`

	// AllowAll lists roles that pass every directive check (system, admin).
	AllowAll []string `json:"allowAll,omitempty" yaml:"allowAll,omitempty"`

	// Deny lists roles that always fail, regardless of any allow-set.
	Deny []string `json:"deny,omitempty" yaml:"deny,omitempty"`

	// Roles maps a role onto the set of directives it may request.
	Roles map[string][]string `json:"roles,omitempty" yaml:"roles,omitempty"`

	// Initiators maps an initiator identity onto its role.
	Initiators map[string]string `json:"initiators,omitempty" yaml:"initiators,omitempty"`
}

// DefaultConfig returns the conservative built-in policy used when no config
// is supplied.
func DefaultConfig() *Config {
	return &Config{
		DefaultRole: "member",
		AllowAll:    []string{"system", "admin"},
		Roles: map[string][]string{
			"member": {"tool_call", "record_read"},
		},
		Initiators: map[string]string{
			"system": "system",
		},
	}
}

// Validate returns an error describing invalid settings or nil.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	if c.DefaultRole == "" {
		return fmt.Errorf("policy: defaultRole is required")
	}
	for _, denied := range c.Deny {
		for _, allowed := range c.AllowAll {
			if strings.EqualFold(denied, allowed) {
				return fmt.Errorf("policy: role %q is both denied and allow-all", denied)
			}
		}
	}
	return nil
}

// Resolver answers role and directive questions for the governance
// evaluator. It is immutable after construction and therefore safe for
// concurrent use.
type Resolver struct {
	config *Config
}

// New creates a resolver; a nil config falls back to DefaultConfig.
func New(config *Config) (*Resolver, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Resolver{config: config}, nil
}

// RoleFor maps an initiator identity onto a role. Unmapped initiators receive
// the default role; an empty initiator resolves to the deny-by-default role.
func (r *Resolver) RoleFor(initiator string) Role {
	if initiator == "" {
		return RoleNone
	}
	if role, ok := r.config.Initiators[initiator]; ok {
		return Role(role)
	}
	return Role(r.config.DefaultRole)
}

// CanRequest is a weaker pre-check: is this identity known at all.
func (r *Resolver) CanRequest(initiator string) bool {
	return r.RoleFor(initiator) != RoleNone
}

// IsAllowed evaluates whether a role may request a directive. Matching is by
// exact, case-insensitive string comparison.
func (r *Resolver) IsAllowed(role Role, directive string) bool {
	if role == RoleNone {
		return false
	}
	for _, denied := range r.config.Deny {
		if strings.EqualFold(string(role), denied) {
			return false
		}
	}
	for _, allowAll := range r.config.AllowAll {
		if strings.EqualFold(string(role), allowAll) {
			return true
		}
	}
	allowed := r.config.Roles[string(role)]
	normalized := strings.ToLower(directive)
	for _, candidate := range allowed {
		if normalized == strings.ToLower(candidate) {
			return true
		}
	}
	return false
}

// ---------------------------------------------------------------------------
// Context helpers
// ---------------------------------------------------------------------------

type ctxKeyT struct{}

var ctxKey ctxKeyT

// WithResolver embeds resolver in ctx.
func WithResolver(ctx context.Context, r *Resolver) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxKey, r)
}

// FromContext extracts the resolver or nil.
func FromContext(ctx context.Context) *Resolver {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxKey).(*Resolver); ok {
		return v
	}
	return nil
}
