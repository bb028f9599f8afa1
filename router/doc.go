// Package router selects the target capability for a request and decides
// between direct and plan execution.
//
// Routing honors an explicit agent id verbatim (failing fast with a
// not-found error when it is unregistered) and otherwise delegates to the
// decision model, constrained to the registered agent vocabulary; anything
// out of vocabulary or unparseable falls back to the configured default
// agent rather than failing the request. Strategy selection forces direct
// mode for explicitly routed requests and defaults to direct whenever the
// decision model produces an unusable answer.
package router
