// Package tool provides the built-in tools that workers can be equipped with
// through the registry, plus a FunctionTool adapter for exposing plain Go
// functions as tools.
//
// Tools implement core.Capability. The input they receive is free-form text
// produced by the calling worker or plan step; each tool documents the input
// shape it expects in its Description.
package tool

import (
	"context"
)

// FunctionTool adapts a plain Go function to the core.Capability interface.
//
// A FunctionTool has no internal mutable state after construction and is safe
// for concurrent use by multiple goroutines.
type FunctionTool struct {
	name        string
	description string
	fn          func(ctx context.Context, input string) (string, error)
}

// NewFunctionTool constructs a FunctionTool from a name, a description shown
// to models, and the implementation function.
func NewFunctionTool(name, description string, fn func(ctx context.Context, input string) (string, error)) *FunctionTool {
	return &FunctionTool{
		name:        name,
		description: description,
		fn:          fn,
	}
}

// ID implements core.Capability.
func (t *FunctionTool) ID() string {
	return t.name
}

// Description implements core.Capability.
func (t *FunctionTool) Description() string {
	return t.description
}

// RequiredCapabilities implements core.Capability. Standalone tools have no
// dependencies of their own.
func (t *FunctionTool) RequiredCapabilities() []string {
	return nil
}

// Invoke implements core.Capability. The context summary is ignored; tools
// operate on their input alone.
func (t *FunctionTool) Invoke(ctx context.Context, input, _ string) (string, error) {
	return t.fn(ctx, input)
}
