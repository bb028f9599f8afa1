// Package agent provides the model-backed worker agents that execute routed
// requests and plan steps.
//
// A Worker wraps a single language model together with an agent descriptor
// (role, backstory, boundary, goals) and a set of tools. It implements the
// core.Capability interface used by the router and executor, and the
// core.StreamingCapability interface for token-level streaming.
package agent
