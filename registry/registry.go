// Package registry builds the immutable capability registry consumed by the
// orchestration engine: named agents with resolved tool sets and named tools
// grouped into reusable bundles. The registry is constructed once during
// initialization from injected descriptors and stays read-only afterwards;
// tests inject alternate registries directly.
package registry

import (
	"fmt"
	"strings"

	"github.com/hupe1980/agentpilot/core"
	"github.com/hupe1980/agentpilot/logging"
)

// AgentDescriptor is the formal specification of one agent: identity,
// routing description, structured persona fields and the tools it may use,
// referenced by name or by group.
type AgentDescriptor struct {
	Name         string   `yaml:"name" json:"name"`
	Description  string   `yaml:"description" json:"description"`
	Role         string   `yaml:"role" json:"role"`
	Backstory    string   `yaml:"backstory" json:"backstory"`
	Boundary     string   `yaml:"boundary" json:"boundary"`
	SystemPrompt string   `yaml:"system_prompt" json:"system_prompt"`
	Goals        []string `yaml:"goals" json:"goals"`
	Tools        []string `yaml:"tools" json:"tools"`
	ToolGroups   []string `yaml:"tool_groups" json:"tool_groups"`
}

// RuntimeSystemPrompt assembles the final instruction set from the
// structured persona fields plus the base prompt.
func (d AgentDescriptor) RuntimeSystemPrompt() string {
	var sections []string
	if d.Role != "" {
		sections = append(sections, "** Role **: "+d.Role)
	}
	if d.Backstory != "" {
		sections = append(sections, "** Backstory **: "+d.Backstory)
	}
	var goals []string
	for _, g := range d.Goals {
		if strings.TrimSpace(g) != "" {
			goals = append(goals, "- "+g)
		}
	}
	if len(goals) > 0 {
		sections = append(sections, "** Goals **:\n"+strings.Join(goals, "\n"))
	}
	if d.Boundary != "" {
		sections = append(sections, "** Operating boundaries **: "+d.Boundary)
	}
	if d.SystemPrompt != "" {
		sections = append(sections, "** Core instructions **: "+d.SystemPrompt)
	}
	return strings.TrimSpace(strings.Join(sections, "\n\n"))
}

// WorkerFactory turns a descriptor plus its resolved tool set into an
// invocable capability. The agent package provides the standard LLM-backed
// implementation.
type WorkerFactory func(d AgentDescriptor, tools []core.Capability) (core.Capability, error)

// Options configures registry construction.
type Options struct {
	Logger logging.Logger
}

// Registry is the read-only catalog of agents and tools. Agents whose
// descriptors reference unresolvable tools or groups are excluded and their
// construction error retained; all other agents remain discoverable.
type Registry struct {
	agents map[string]core.Capability
	tools  map[string]core.Capability
	groups map[string][]string
	failed map[string]*core.ConfigError
}

// New builds the registry. Tool and group resolution failures are isolated
// per agent: a bad descriptor records a ConfigError without aborting the
// process or the remaining agents.
func New(
	descriptors []AgentDescriptor,
	tools []core.Capability,
	groups map[string][]string,
	factory WorkerFactory,
	optFns ...func(o *Options),
) *Registry {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}

	r := &Registry{
		agents: make(map[string]core.Capability, len(descriptors)),
		tools:  make(map[string]core.Capability, len(tools)),
		groups: make(map[string][]string, len(groups)),
		failed: make(map[string]*core.ConfigError),
	}
	for _, t := range tools {
		r.tools[t.ID()] = t
	}
	for name, members := range groups {
		r.groups[name] = append([]string(nil), members...)
	}

	for _, d := range descriptors {
		resolved, err := r.resolveTools(d.Tools, d.ToolGroups)
		if err != nil {
			cfgErr := &core.ConfigError{Agent: d.Name, Message: err.Error()}
			r.failed[d.Name] = cfgErr
			opts.Logger.Warn("registry: skipping agent", "agent", d.Name, "error", err.Error())
			continue
		}
		worker, err := factory(d, resolved)
		if err != nil {
			cfgErr := &core.ConfigError{Agent: d.Name, Message: err.Error()}
			r.failed[d.Name] = cfgErr
			opts.Logger.Warn("registry: agent construction failed", "agent", d.Name, "error", err.Error())
			continue
		}
		r.agents[d.Name] = worker
	}

	return r
}

// resolveTools merges group members with explicit tool names, preserving
// order while de-duplicating, and maps every name to its capability.
func (r *Registry) resolveTools(toolNames, groupNames []string) ([]core.Capability, error) {
	var merged []string
	for _, g := range groupNames {
		members, ok := r.groups[g]
		if !ok {
			return nil, fmt.Errorf("unknown tool group: %s", g)
		}
		merged = append(merged, members...)
	}
	merged = append(merged, toolNames...)

	seen := make(map[string]bool, len(merged))
	var resolved []core.Capability
	for _, name := range merged {
		if seen[name] {
			continue
		}
		seen[name] = true
		t, ok := r.tools[name]
		if !ok {
			return nil, fmt.Errorf("unknown tool: %s", name)
		}
		resolved = append(resolved, t)
	}
	return resolved, nil
}

// Lookup returns the agent capability registered under name.
func (r *Registry) Lookup(name string) (core.Capability, bool) {
	a, ok := r.agents[name]
	return a, ok
}

// Tool returns the tool capability registered under name.
func (r *Registry) Tool(name string) (core.Capability, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// Descriptions maps agent id to routing description for every successfully
// constructed agent.
func (r *Registry) Descriptions() map[string]string {
	out := make(map[string]string, len(r.agents))
	for name, a := range r.agents {
		out[name] = a.Description()
	}
	return out
}

// ConstructionError returns the ConfigError recorded for an agent that
// failed registry build, if any.
func (r *Registry) ConstructionError(name string) (*core.ConfigError, bool) {
	err, ok := r.failed[name]
	return err, ok
}

// Groups returns a copy of the tool group definitions.
func (r *Registry) Groups() map[string][]string {
	out := make(map[string][]string, len(r.groups))
	for name, members := range r.groups {
		out[name] = append([]string(nil), members...)
	}
	return out
}
