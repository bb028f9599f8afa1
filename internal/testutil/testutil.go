// Package testutil provides scripted decision models and workers for tests.
package testutil

import (
	"context"
	"fmt"

	"github.com/hupe1980/agentpilot/core"
)

// StubDecisions is a scripted core.DecisionModel. Zero values produce a
// sensible default: route to the first agent offered, direct mode, a
// two-step plan and a fixed synthesis.
type StubDecisions struct {
	RouteAgent string
	RouteErr   error

	Mode    core.ExecutionMode
	ModeErr error

	Objective string
	Steps     []string
	PlanErr   error

	Synthesis string
	SynthErr  error

	// Prompts records the last prompt set bound via WithPrompts.
	Prompts core.PromptSet

	// Calls counts invocations per method name.
	Calls map[string]int
}

func (d *StubDecisions) count(method string) {
	if d.Calls == nil {
		d.Calls = make(map[string]int)
	}
	d.Calls[method]++
}

// Route implements core.DecisionModel.
func (d *StubDecisions) Route(_ context.Context, _, _ string, agents map[string]string) (core.RoutingDecision, error) {
	d.count("Route")
	if d.RouteErr != nil {
		return core.RoutingDecision{}, d.RouteErr
	}
	agentID := d.RouteAgent
	if agentID == "" {
		for name := range agents {
			agentID = name
			break
		}
	}
	return core.RoutingDecision{AgentID: agentID, Rationale: "scripted"}, nil
}

// SelectMode implements core.DecisionModel.
func (d *StubDecisions) SelectMode(_ context.Context, _, _ string) (core.ExecutionDecision, error) {
	d.count("SelectMode")
	if d.ModeErr != nil {
		return core.ExecutionDecision{}, d.ModeErr
	}
	mode := d.Mode
	if mode == "" {
		mode = core.ModeDirect
	}
	return core.ExecutionDecision{Mode: mode, Rationale: "scripted"}, nil
}

// Plan implements core.DecisionModel.
func (d *StubDecisions) Plan(_ context.Context, request, _ string) (string, []string, error) {
	d.count("Plan")
	if d.PlanErr != nil {
		return "", nil, d.PlanErr
	}
	objective := d.Objective
	if objective == "" {
		objective = request
	}
	steps := d.Steps
	if len(steps) == 0 {
		steps = []string{"gather information", "produce the answer"}
	}
	return objective, steps, nil
}

// Synthesize implements core.DecisionModel.
func (d *StubDecisions) Synthesize(_ context.Context, objective string, _ []string) (string, error) {
	d.count("Synthesize")
	if d.SynthErr != nil {
		return "", d.SynthErr
	}
	if d.Synthesis != "" {
		return d.Synthesis, nil
	}
	return "synthesized: " + objective, nil
}

// WithPrompts implements core.DecisionModel. The receiver is returned
// directly so tests can keep asserting on the same instance.
func (d *StubDecisions) WithPrompts(ps core.PromptSet) core.DecisionModel {
	d.Prompts = ps
	return d
}

// StubWorker is a scripted core.Capability. Responses are served in order;
// when exhausted, the last one repeats.
type StubWorker struct {
	AgentID   string
	Responses []string
	Err       error
	FailAfter int // fail on the (FailAfter+1)th call when Err is set

	// Inputs records every input the worker was invoked with.
	Inputs []string

	calls int
}

// ID implements core.Capability.
func (w *StubWorker) ID() string {
	if w.AgentID == "" {
		return "stub_worker"
	}
	return w.AgentID
}

// Description implements core.Capability.
func (w *StubWorker) Description() string { return "scripted worker for tests" }

// RequiredCapabilities implements core.Capability.
func (w *StubWorker) RequiredCapabilities() []string { return nil }

// Invoke implements core.Capability.
func (w *StubWorker) Invoke(_ context.Context, input, _ string) (string, error) {
	w.Inputs = append(w.Inputs, input)
	call := w.calls
	w.calls++

	if w.Err != nil && call >= w.FailAfter {
		return "", w.Err
	}
	if len(w.Responses) == 0 {
		return fmt.Sprintf("response %d", call+1), nil
	}
	if call >= len(w.Responses) {
		return w.Responses[len(w.Responses)-1], nil
	}
	return w.Responses[call], nil
}

// StreamingStubWorker extends StubWorker with token streaming.
type StreamingStubWorker struct {
	StubWorker
	Tokens []string
}

// InvokeStream implements core.StreamingCapability. Tokens are emitted then
// joined as the final response.
func (w *StreamingStubWorker) InvokeStream(ctx context.Context, input, summary string, onToken func(string)) (string, error) {
	if len(w.Tokens) == 0 {
		return w.Invoke(ctx, input, summary)
	}
	var full string
	for _, t := range w.Tokens {
		full += t
		if onToken != nil {
			onToken(t)
		}
	}
	w.Inputs = append(w.Inputs, input)
	return full, nil
}

// SeededPlan builds a plan with the given step descriptions, all pending.
func SeededPlan(objective string, steps ...string) *core.Plan {
	p := &core.Plan{Objective: objective}
	for i, desc := range steps {
		p.Steps = append(p.Steps, core.PlanStep{Index: i, Description: desc, Status: core.StepPending})
	}
	return p
}
