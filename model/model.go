package model

import (
	"context"
	"fmt"
	"strings"
)

// Request captures the normalized model input.
type Request struct {
	// Instructions is the system prompt.
	Instructions string `json:"instructions"`
	// Input is the user-turn content.
	Input string `json:"input"`
	// Context is an optional session context block appended to the input.
	Context string `json:"context,omitempty"`
	// Stream requests incremental chunks before the final one.
	Stream bool `json:"stream,omitempty"`
}

// Chunk is a (partial or final) piece of model output.
type Chunk struct {
	Partial      bool   `json:"partial"`
	Text         string `json:"text"`
	FinishReason string `json:"finish_reason,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name     string `json:"name"`
	Provider string `json:"provider"` // "openai", "anthropic", "mock", ...
}

// Model is the minimal interface required to drive generation. Generate
// returns a chunk channel and an error channel (buffered size 1); both close
// when generation completes or the context is cancelled.
type Model interface {
	Generate(ctx context.Context, req Request) (<-chan Chunk, <-chan error)

	// Info returns information about the model implementation.
	Info() Info
}

// Collect drains a Generate call into the concatenated final text.
func Collect(ctx context.Context, chunks <-chan Chunk, errs <-chan error) (string, error) {
	var b strings.Builder
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case err, ok := <-errs:
			if ok && err != nil {
				return "", err
			}
			errs = nil
		case c, ok := <-chunks:
			if !ok {
				select {
				case err, ok := <-errs:
					if ok && err != nil {
						return "", err
					}
				default:
				}
				return b.String(), nil
			}
			if !c.Partial {
				// Final chunk carries the full text when nothing streamed.
				if b.Len() == 0 {
					b.WriteString(c.Text)
				}
				continue
			}
			b.WriteString(c.Text)
		}
	}
}

// composeInput joins user input with the optional context block the way all
// adapters expect it.
func composeInput(req Request) string {
	if req.Context == "" {
		return req.Input
	}
	return req.Input + "\n\nSession context:\n" + req.Context
}

// MockModel is a lightweight in-memory Model useful for tests and examples.
// Responses are matched by exact input, then by registered substring, then a
// generic echo.
type MockModel struct {
	info       Info
	responses  map[string]string
	contains   []mockRule
	defaultErr error
}

type mockRule struct {
	needle   string
	response string
}

// NewMockModel constructs a MockModel.
func NewMockModel(name string) *MockModel {
	return &MockModel{
		info:      Info{Name: name, Provider: "mock"},
		responses: make(map[string]string),
	}
}

// AddResponse registers a canned completion for an exact input.
func (m *MockModel) AddResponse(input, response string) { m.responses[input] = response }

// AddContainsResponse registers a canned completion for any input containing
// needle. Rules match in registration order.
func (m *MockModel) AddContainsResponse(needle, response string) {
	m.contains = append(m.contains, mockRule{needle: needle, response: response})
}

// FailWith makes every Generate call fail with err.
func (m *MockModel) FailWith(err error) { m.defaultErr = err }

// Generate implements Model; emits optional streaming chunks then the final
// response.
func (m *MockModel) Generate(ctx context.Context, req Request) (<-chan Chunk, <-chan error) {
	out := make(chan Chunk, 16)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		if m.defaultErr != nil {
			errCh <- m.defaultErr
			return
		}

		full := m.lookup(req)
		if req.Stream {
			for _, word := range strings.SplitAfter(full, " ") {
				select {
				case <-ctx.Done():
					errCh <- ctx.Err()
					return
				case out <- Chunk{Partial: true, Text: word}:
				}
			}
		}
		select {
		case <-ctx.Done():
			errCh <- ctx.Err()
		case out <- Chunk{Text: full, FinishReason: "stop"}:
		}
	}()

	return out, errCh
}

// lookup resolves the canned response for a request. Exact matches consider
// the input alone; contains rules also match against the instructions, so
// tests can script decision calls by their prompt text.
func (m *MockModel) lookup(req Request) string {
	if r, ok := m.responses[req.Input]; ok {
		return r
	}
	haystack := req.Instructions + "\n" + req.Input
	for _, rule := range m.contains {
		if strings.Contains(haystack, rule.needle) {
			return rule.response
		}
	}
	return fmt.Sprintf("Mock response to: %s", req.Input)
}

// Info implements Model.
func (m *MockModel) Info() Info { return m.info }
