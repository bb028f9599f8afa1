// Package ui generates optional structured presentation specs from a final
// response. A Spec describes how a client could lay out the answer (summary,
// cards, an optional table) without prescribing any rendering technology.
//
// UI generation is best effort: when the model output cannot be parsed into a
// Spec, the caller receives nil and the plain-text response stands on its own.
package ui

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hupe1980/agentpilot/internal/util"
	"github.com/hupe1980/agentpilot/logging"
	"github.com/hupe1980/agentpilot/model"
)

// Card is a titled content block within a Spec.
type Card struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Table is a simple columnar data block.
type Table struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// Spec is the structured presentation of a response.
type Spec struct {
	Layout  string   `json:"layout"`
	Summary string   `json:"summary"`
	Cards   []Card   `json:"cards,omitempty"`
	Table   *Table   `json:"table,omitempty"`
	Notes   []string `json:"notes,omitempty"`
}

const defaultPrompt = `You convert an assistant response into a UI spec. Respond with a single JSON object only, no prose, matching this shape:
{"layout": "single_column" | "two_column", "summary": "<one sentence>", "cards": [{"title": "...", "body": "..."}], "table": {"columns": ["..."], "rows": [["..."]]} or null, "notes": ["..."]}
Keep the summary short. Use cards to break the response into digestible sections. Only include a table when the response contains tabular data.`

// GeneratorOptions configures a Generator.
type GeneratorOptions struct {
	Prompt      string
	CallTimeout time.Duration
	Logger      logging.Logger
}

// Generator turns responses into Specs using a language model.
type Generator struct {
	llm         model.Model
	prompt      string
	callTimeout time.Duration
	logger      logging.Logger
}

// NewGenerator creates a Generator over the given model.
func NewGenerator(llm model.Model, optFns ...func(o *GeneratorOptions)) *Generator {
	opts := GeneratorOptions{
		Prompt:      defaultPrompt,
		CallTimeout: 60 * time.Second,
		Logger:      logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Generator{
		llm:         llm,
		prompt:      opts.Prompt,
		callTimeout: opts.CallTimeout,
		logger:      opts.Logger,
	}
}

// Generate produces a Spec for the given request and response text. A nil
// Spec with nil error means generation was skipped or unusable; callers fall
// back to plain text.
func (g *Generator) Generate(ctx context.Context, request, response string) (*Spec, error) {
	ctx, cancel := context.WithTimeout(ctx, g.callTimeout)
	defer cancel()

	chunks, errs := g.llm.Generate(ctx, model.Request{
		Instructions: g.prompt,
		Input:        "User request:\n" + request + "\n\nAssistant response:\n" + response,
	})
	text, err := model.Collect(ctx, chunks, errs)
	if err != nil {
		g.logger.Warn("ui generation failed", "error", err)
		return nil, nil
	}

	raw := util.ExtractJSON(text)
	if raw == "" {
		g.logger.Warn("ui generation returned no json")
		return nil, nil
	}

	var spec Spec
	if err := json.Unmarshal([]byte(raw), &spec); err != nil {
		g.logger.Warn("ui spec parse failed", "error", err)
		return nil, nil
	}
	if spec.Layout == "" {
		spec.Layout = "single_column"
	}
	return &spec, nil
}
