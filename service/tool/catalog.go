package tool

import (
	"sort"
	"sync"

	"github.com/viant/warden/service/dao"
)

// Tool status values. A planned tool is known to the catalog but may not be
// executed; approval never upgrades executability.
const (
	StatusExecutable = "executable"
	StatusPlanned    = "planned"
)

// Definition describes one catalogued tool action.
type Definition struct {
	Name        string `json:"name" yaml:"name"` // fully-qualified service.method
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Status      string `json:"status" yaml:"status"`
}

// Agent is a department/role executor with an explicit action allow-list.
// Agents only gain the actions they are granted.
type Agent struct {
	ID       string   `json:"id" yaml:"id"`
	Roles    []string `json:"roles,omitempty" yaml:"roles,omitempty"`
	Priority int      `json:"priority,omitempty" yaml:"priority,omitempty"`
	Allow    []string `json:"allow,omitempty" yaml:"allow,omitempty"`
}

// HasRole reports whether the agent declares the given role.
func (a *Agent) HasRole(role string) bool {
	for _, candidate := range a.Roles {
		if candidate == role {
			return true
		}
	}
	return false
}

// Catalog holds tool definitions and agent allow-lists behind a single
// mutex.
type Catalog struct {
	mux    sync.RWMutex
	tools  map[string]*Definition
	agents map[string]*Agent
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		tools:  make(map[string]*Definition),
		agents: make(map[string]*Agent),
	}
}

// AddTool registers or replaces a tool definition.
func (c *Catalog) AddTool(definition *Definition) {
	if definition == nil || definition.Name == "" {
		return
	}
	c.mux.Lock()
	defer c.mux.Unlock()
	c.tools[definition.Name] = definition
}

// AddAgent registers or replaces an agent.
func (c *Catalog) AddAgent(agent *Agent) {
	if agent == nil || agent.ID == "" {
		return
	}
	c.mux.Lock()
	defer c.mux.Unlock()
	c.agents[agent.ID] = agent
}

// Tool returns the definition for the given action or nil.
func (c *Catalog) Tool(action string) *Definition {
	c.mux.RLock()
	defer c.mux.RUnlock()
	return c.tools[action]
}

// IsExecutable reports whether the action is catalogued and executable.
func (c *Catalog) IsExecutable(action string) bool {
	c.mux.RLock()
	defer c.mux.RUnlock()
	definition, ok := c.tools[action]
	return ok && definition.Status == StatusExecutable
}

// AgentAllowlist returns the actions the agent is explicitly granted.
func (c *Catalog) AgentAllowlist(agentID string) []string {
	c.mux.RLock()
	defer c.mux.RUnlock()
	agent, ok := c.agents[agentID]
	if !ok {
		return nil
	}
	return append([]string(nil), agent.Allow...)
}

// IsAllowed reports whether the agent's allow-list contains the action.
func (c *Catalog) IsAllowed(agentID, action string) bool {
	c.mux.RLock()
	defer c.mux.RUnlock()
	agent, ok := c.agents[agentID]
	if !ok {
		return false
	}
	for _, candidate := range agent.Allow {
		if candidate == action {
			return true
		}
	}
	return false
}

// ResolveAgentForRole picks the agent for a declared role: highest priority
// first, then the lexicographically smallest id, so resolution is
// deterministic. Returns dao.ErrNotFound when no agent declares the role.
func (c *Catalog) ResolveAgentForRole(role string) (string, error) {
	c.mux.RLock()
	defer c.mux.RUnlock()

	var candidates []*Agent
	for _, agent := range c.agents {
		if agent.HasRole(role) {
			candidates = append(candidates, agent)
		}
	}
	if len(candidates) == 0 {
		return "", dao.ErrNotFound
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Priority != candidates[j].Priority {
			return candidates[i].Priority > candidates[j].Priority
		}
		return candidates[i].ID < candidates[j].ID
	})
	return candidates[0].ID, nil
}
