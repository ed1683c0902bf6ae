package tool

// Config is the declarative catalog configuration, typically loaded from
// YAML.
type Config struct {
	Tools  []*Definition `json:"tools,omitempty" yaml:"tools,omitempty"`
	Agents []*Agent      `json:"agents,omitempty" yaml:"agents,omitempty"`
}

// Catalog builds a catalog from the configuration.
func (c *Config) Catalog() *Catalog {
	ret := NewCatalog()
	for _, definition := range c.Tools {
		ret.AddTool(definition)
	}
	for _, agent := range c.Agents {
		ret.AddAgent(agent)
	}
	return ret
}

// DefaultConfig returns the built-in catalog: the analysis and docs tools
// are executable, release automation is catalogued but still planned, and
// the two department agents carry disjoint grants.
func DefaultConfig() *Config {
	return &Config{
		Tools: []*Definition{
			{Name: "analysis.run", Description: "evaluate an arithmetic expression", Status: StatusExecutable},
			{Name: "docs.diff", Description: "compare two documents", Status: StatusExecutable},
			{Name: "deploy.release", Description: "roll out a release", Status: StatusPlanned},
		},
		Agents: []*Agent{
			{ID: "dept_finance", Roles: []string{"finance"}, Priority: 10, Allow: []string{"analysis.run", "docs.diff"}},
			{ID: "dept_ops", Roles: []string{"ops"}, Priority: 5, Allow: []string{"docs.diff"}},
		},
	}
}
