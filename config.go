package warden

import (
	"github.com/viant/warden/policy"
	"github.com/viant/warden/service/runner"
	"github.com/viant/warden/service/tool"
)

// Config is a serialisable representation of the pipeline configuration. It
// can be populated from YAML or JSON; the zero-value inherits the package
// defaults for every nested section.
type Config struct {
	Runner           runner.Config  `json:"runner" yaml:"runner"`
	Policy           *policy.Config `json:"policy,omitempty" yaml:"policy,omitempty"`
	Catalog          *tool.Config   `json:"catalog,omitempty" yaml:"catalog,omitempty"`
	DefaultInitiator string         `json:"defaultInitiator,omitempty" yaml:"defaultInitiator,omitempty"`
}

// DefaultConfig returns a Config populated with the package defaults.
func DefaultConfig() *Config {
	return &Config{
		Runner:  runner.DefaultConfig(),
		Policy:  policy.DefaultConfig(),
		Catalog: tool.DefaultConfig(),
	}
}

// Validate returns an error describing invalid settings or nil.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	if c.Policy != nil {
		if err := c.Policy.Validate(); err != nil {
			return err
		}
	}
	return nil
}
