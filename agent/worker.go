package agent

import (
	"context"
	"strings"

	"github.com/hupe1980/agentpilot/core"
	"github.com/hupe1980/agentpilot/logging"
	"github.com/hupe1980/agentpilot/model"
	"github.com/hupe1980/agentpilot/registry"
)

// WorkerOptions configures a Worker instance.
//
// Use functional options with NewWorker to override defaults.
type WorkerOptions struct {
	Logger logging.Logger
}

// Worker is a model-backed agent that answers routed requests and executes
// individual plan steps. It implements core.Capability and
// core.StreamingCapability.
type Worker struct {
	descriptor registry.AgentDescriptor
	llm        model.Model
	tools      []core.Capability
	logger     logging.Logger
}

// NewWorker creates a worker from an agent descriptor, a language model and
// the resolved tool set.
func NewWorker(descriptor registry.AgentDescriptor, llm model.Model, tools []core.Capability, optFns ...func(o *WorkerOptions)) *Worker {
	opts := WorkerOptions{
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Worker{
		descriptor: descriptor,
		llm:        llm,
		tools:      tools,
		logger:     opts.Logger,
	}
}

// Factory returns a registry.WorkerFactory that builds workers over the given
// model. Passing the result to registry.New wires every configured agent to
// the same model backend.
func Factory(llm model.Model, optFns ...func(o *WorkerOptions)) registry.WorkerFactory {
	return func(d registry.AgentDescriptor, tools []core.Capability) (core.Capability, error) {
		return NewWorker(d, llm, tools, optFns...), nil
	}
}

// ID implements core.Capability.
func (w *Worker) ID() string {
	return w.descriptor.Name
}

// Description implements core.Capability.
func (w *Worker) Description() string {
	return w.descriptor.Description
}

// RequiredCapabilities implements core.Capability. It returns the IDs of the
// tools resolved for this worker.
func (w *Worker) RequiredCapabilities() []string {
	ids := make([]string, 0, len(w.tools))
	for _, t := range w.tools {
		ids = append(ids, t.ID())
	}
	return ids
}

// Invoke implements core.Capability. The full response is returned once the
// model call completes.
func (w *Worker) Invoke(ctx context.Context, input, contextSummary string) (string, error) {
	chunks, errs := w.llm.Generate(ctx, model.Request{
		Instructions: w.instructions(),
		Input:        input,
		Context:      contextSummary,
	})

	text, err := model.Collect(ctx, chunks, errs)
	if err != nil {
		w.logger.Error("worker invoke failed", "agent", w.descriptor.Name, "error", err)
		return "", err
	}
	return text, nil
}

// InvokeStream implements core.StreamingCapability. Partial chunks are passed
// to onToken as they arrive; the accumulated response is returned when the
// model finishes. Models that do not stream deliver the full text as the
// terminal chunk, in which case onToken is never called and the caller is
// expected to emit a synthetic token.
func (w *Worker) InvokeStream(ctx context.Context, input, contextSummary string, onToken func(string)) (string, error) {
	chunks, errs := w.llm.Generate(ctx, model.Request{
		Instructions: w.instructions(),
		Input:        input,
		Context:      contextSummary,
		Stream:       true,
	})

	var full strings.Builder
	var final string

	for chunk := range chunks {
		if chunk.Partial {
			full.WriteString(chunk.Text)
			if onToken != nil {
				onToken(chunk.Text)
			}
			continue
		}
		final = chunk.Text
	}

	if err := <-errs; err != nil {
		w.logger.Error("worker stream failed", "agent", w.descriptor.Name, "error", err)
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if full.Len() > 0 {
		return full.String(), nil
	}
	return final, nil
}

// instructions builds the system prompt from the descriptor and, when tools
// are available, an inventory section listing them.
func (w *Worker) instructions() string {
	var sb strings.Builder
	sb.WriteString(w.descriptor.RuntimeSystemPrompt())

	if len(w.tools) > 0 {
		sb.WriteString("\n\n** Available Tools **:\n")
		for _, t := range w.tools {
			sb.WriteString("- ")
			sb.WriteString(t.ID())
			sb.WriteString(": ")
			sb.WriteString(t.Description())
			sb.WriteString("\n")
		}
	}

	return sb.String()
}
