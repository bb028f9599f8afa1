// Package core defines the shared data model and contracts of the AgentPilot
// orchestration engine: sessions with plans and run history, typed stream
// events, the capability interface implemented by workers and tools, routing
// and execution decisions, and the error taxonomy surfaced to callers.
//
// Everything in this package is transport and storage agnostic. Concrete
// behavior lives in the registry, router, executor, session, stream and
// engine packages which all share these types.
package core
