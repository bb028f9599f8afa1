// Package agentpilot provides a high-level façade over the orchestration
// engine: agent registry, request routing, plan execution, session
// persistence and event streaming. Most applications interact with this
// package by:
//  1. Creating an AgentPilot via New() with a model and optional overrides
//  2. Invoking requests synchronously (Invoke) or as an event stream (Stream)
//
// The façade delegates orchestration to engine.Engine while keeping setup
// ergonomics concise. All defaults are safe for local development and
// testing; production deployments typically supply a durable session store
// and a structured logger.
package agentpilot

import (
	"context"

	"github.com/hupe1980/agentpilot/agent"
	"github.com/hupe1980/agentpilot/core"
	"github.com/hupe1980/agentpilot/engine"
	"github.com/hupe1980/agentpilot/logging"
	"github.com/hupe1980/agentpilot/model"
	"github.com/hupe1980/agentpilot/prompt"
	"github.com/hupe1980/agentpilot/registry"
	"github.com/hupe1980/agentpilot/session"
	"github.com/hupe1980/agentpilot/tool"
	"github.com/hupe1980/agentpilot/ui"
)

// Options configures the AgentPilot instance.
type Options struct {
	// Agents overrides the default agent descriptors.
	Agents []registry.AgentDescriptor
	// Tools overrides the default tool set.
	Tools []core.Capability
	// ToolGroups overrides the default tool group definitions.
	ToolGroups map[string][]string
	// Store persists sessions (defaults to in-memory).
	Store session.Store
	// Prompts resolves versioned prompt packs. Nil uses the built-in
	// prompts.
	Prompts *prompt.Manager
	// EnableUI wires a UI spec generator over the same model.
	EnableUI bool
	// DefaultAgent receives requests when routing fails.
	DefaultAgent string
	// Logger defaults to NoOp.
	Logger logging.Logger
}

// AgentPilot is the high-level façade aggregating registry and engine.
type AgentPilot struct {
	registry *registry.Registry
	engine   *engine.Engine
}

// New creates an AgentPilot over the given model with optional overrides.
// Unset options fall back to the default agents, tools and an in-memory
// session store.
func New(llm model.Model, optFns ...func(o *Options)) *AgentPilot {
	opts := Options{
		Agents:       registry.DefaultAgents(),
		Tools:        tool.DefaultTools(),
		ToolGroups:   registry.DefaultGroups(),
		Store:        session.NewInMemoryStore(),
		DefaultAgent: "general_assistant",
		Logger:       logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	reg := registry.New(
		opts.Agents,
		opts.Tools,
		opts.ToolGroups,
		agent.Factory(llm, func(o *agent.WorkerOptions) { o.Logger = opts.Logger }),
		func(o *registry.Options) { o.Logger = opts.Logger },
	)

	var uiGen *ui.Generator
	if opts.EnableUI {
		uiGen = ui.NewGenerator(llm, func(o *ui.GeneratorOptions) { o.Logger = opts.Logger })
	}

	decisions := model.NewDecisions(llm, func(o *model.DecisionsOptions) { o.Logger = opts.Logger })

	eng := engine.New(reg, decisions, func(o *engine.Options) {
		o.Store = opts.Store
		o.Logger = opts.Logger
		o.Prompts = opts.Prompts
		o.UIGenerator = uiGen
		o.DefaultAgent = opts.DefaultAgent
	})

	return &AgentPilot{registry: reg, engine: eng}
}

// Registry exposes the immutable agent registry.
func (p *AgentPilot) Registry() *registry.Registry { return p.registry }

// Engine exposes the underlying engine, mainly for serving it over HTTP.
func (p *AgentPilot) Engine() *engine.Engine { return p.engine }

// Invoke handles a request and blocks until the final response is available.
func (p *AgentPilot) Invoke(ctx context.Context, req engine.Request) (*engine.Response, error) {
	return p.engine.Invoke(ctx, req)
}

// Stream handles a request and returns the ordered event stream.
func (p *AgentPilot) Stream(ctx context.Context, req engine.Request) (<-chan core.Event, error) {
	return p.engine.Stream(ctx, req)
}
