// Package model abstracts language model providers behind a minimal
// streaming Generate interface and layers the structured decision surface
// (routing, strategy selection, planning, synthesis) on top of it. Provider
// adapters live in the anthropic and openai subpackages; MockModel supports
// tests and examples without network access.
package model
