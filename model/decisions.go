package model

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/hupe1980/agentpilot/core"
	"github.com/hupe1980/agentpilot/internal/util"
	"github.com/hupe1980/agentpilot/logging"
)

// Prompt pack keys recognized by the decision adapter. A resolved PromptSet
// may override any of them per request.
const (
	PromptKeyRouter      = "router"
	PromptKeyStrategy    = "strategy"
	PromptKeyPlanner     = "planner"
	PromptKeySynthesizer = "synthesizer"
)

const (
	defaultRouterPrompt = "You are an intent classifier for an agentic system. " +
		"Analyze the user's input and select the most appropriate agent from the list below.\n\n" +
		"Available agents:\n%s\n\n" +
		"Respond with JSON only: {\"selected_agent\": \"<agent id>\", \"reasoning\": \"<short explanation>\"}"

	defaultStrategyPrompt = "Decide how to satisfy the user's request. " +
		"Choose \"direct\" for requests a single agent call can answer and \"plan\" for " +
		"requests that need several dependent steps.\n\n" +
		"Respond with JSON only: {\"mode\": \"direct\"|\"plan\", \"reasoning\": \"<short explanation>\"}"

	defaultPlannerPrompt = "Break the user's request into an ordered plan of 2 to 6 concrete steps. " +
		"Each step must be independently executable and build on the previous ones.\n\n" +
		"Respond with JSON only: {\"objective\": \"<one line objective>\", \"steps\": [\"<step>\", ...]}"

	defaultSynthesizerPrompt = "You are given the objective of a completed multi-step plan and the " +
		"results of each step in order. Combine them into one coherent final response for the user. " +
		"Do not mention the plan mechanics."
)

// routeResponse mirrors the structured router output.
type routeResponse struct {
	SelectedAgent string `json:"selected_agent"`
	Reasoning     string `json:"reasoning"`
}

// modeResponse mirrors the structured strategy output.
type modeResponse struct {
	Mode      string `json:"mode"`
	Reasoning string `json:"reasoning"`
}

// planResponse mirrors the structured planner output.
type planResponse struct {
	Objective string   `json:"objective"`
	Steps     []string `json:"steps"`
}

// DecisionsOptions configures the decision adapter.
type DecisionsOptions struct {
	Logger logging.Logger
}

// Decisions adapts a Model into the core.DecisionModel consumed by the
// router, strategy selector and plan executor. It is immutable; WithPrompts
// returns a copy bound to a resolved prompt snapshot.
type Decisions struct {
	model   Model
	prompts core.PromptSet
	logger  logging.Logger
}

// NewDecisions wraps a model with the default prompts.
func NewDecisions(m Model, optFns ...func(o *DecisionsOptions)) *Decisions {
	opts := DecisionsOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Decisions{model: m, logger: opts.Logger}
}

// WithPrompts implements core.DecisionModel. The receiver stays untouched.
func (d *Decisions) WithPrompts(prompts core.PromptSet) core.DecisionModel {
	return &Decisions{model: d.model, prompts: prompts, logger: d.logger}
}

func (d *Decisions) prompt(key, fallback string) string {
	if d.prompts != nil {
		if p, ok := d.prompts.Lookup(key); ok {
			return p
		}
	}
	return fallback
}

// Route implements core.DecisionModel.
func (d *Decisions) Route(ctx context.Context, request, contextSummary string, agents map[string]string) (core.RoutingDecision, error) {
	names := make([]string, 0, len(agents))
	for name := range agents {
		names = append(names, name)
	}
	sort.Strings(names)
	var list strings.Builder
	for _, name := range names {
		fmt.Fprintf(&list, "- %s: %s\n", name, agents[name])
	}

	instructions := fmt.Sprintf(d.prompt(PromptKeyRouter, defaultRouterPrompt), list.String())
	text, err := d.generate(ctx, "route", instructions, request, contextSummary)
	if err != nil {
		return core.RoutingDecision{}, err
	}

	var resp routeResponse
	if err := decodeStructured(text, &resp); err != nil {
		return core.RoutingDecision{}, fmt.Errorf("routing output unparseable: %w", err)
	}
	if resp.SelectedAgent == "" {
		return core.RoutingDecision{}, fmt.Errorf("routing output missing selected_agent")
	}
	return core.RoutingDecision{AgentID: resp.SelectedAgent, Rationale: resp.Reasoning}, nil
}

// SelectMode implements core.DecisionModel.
func (d *Decisions) SelectMode(ctx context.Context, request, contextSummary string) (core.ExecutionDecision, error) {
	text, err := d.generate(ctx, "strategy", d.prompt(PromptKeyStrategy, defaultStrategyPrompt), request, contextSummary)
	if err != nil {
		return core.ExecutionDecision{}, err
	}

	var resp modeResponse
	if err := decodeStructured(text, &resp); err != nil {
		return core.ExecutionDecision{}, fmt.Errorf("strategy output unparseable: %w", err)
	}
	mode := core.ExecutionMode(strings.ToLower(strings.TrimSpace(resp.Mode)))
	if mode != core.ModeDirect && mode != core.ModePlan {
		return core.ExecutionDecision{}, fmt.Errorf("strategy output has invalid mode %q", resp.Mode)
	}
	return core.ExecutionDecision{Mode: mode, Rationale: resp.Reasoning}, nil
}

// Plan implements core.DecisionModel.
func (d *Decisions) Plan(ctx context.Context, request, contextSummary string) (string, []string, error) {
	text, err := d.generate(ctx, "plan", d.prompt(PromptKeyPlanner, defaultPlannerPrompt), request, contextSummary)
	if err != nil {
		return "", nil, err
	}

	var resp planResponse
	if err := decodeStructured(text, &resp); err != nil {
		return "", nil, fmt.Errorf("planner output unparseable: %w", err)
	}
	if resp.Objective == "" {
		resp.Objective = request
	}
	return resp.Objective, resp.Steps, nil
}

// Synthesize implements core.DecisionModel.
func (d *Decisions) Synthesize(ctx context.Context, objective string, results []string) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Objective: %s\n\nStep results:\n", objective)
	for i, r := range results {
		fmt.Fprintf(&b, "%d. %s\n", i+1, r)
	}
	return d.generate(ctx, "synthesize", d.prompt(PromptKeySynthesizer, defaultSynthesizerPrompt), b.String(), "")
}

func (d *Decisions) generate(ctx context.Context, purpose, instructions, input, contextSummary string) (string, error) {
	start := time.Now()
	chunks, errs := d.model.Generate(ctx, Request{
		Instructions: instructions,
		Input:        input,
		Context:      contextSummary,
	})
	text, err := Collect(ctx, chunks, errs)
	logging.LogModelCall(d.logger, purpose, d.model.Info().Name, time.Since(start), err)
	return text, err
}

// decodeStructured extracts and unmarshals the first JSON object in model
// output, tolerating surrounding prose and code fences.
func decodeStructured(text string, v any) error {
	raw := util.ExtractJSON(text)
	if raw == "" {
		return fmt.Errorf("no JSON object in %q", util.Truncate(text, 120))
	}
	return json.Unmarshal([]byte(raw), v)
}
