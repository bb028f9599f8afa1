package core

import "fmt"

// NotFoundError reports an unknown explicit agent id or an unknown session id
// when continuity was required. The run aborts before any worker or plan work.
type NotFoundError struct {
	Kind string // "agent" or "session"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

// NewAgentNotFound builds a NotFoundError for an unknown agent id.
func NewAgentNotFound(id string) *NotFoundError {
	return &NotFoundError{Kind: "agent", ID: id}
}

// NewSessionNotFound builds a NotFoundError for an unknown session id.
func NewSessionNotFound(id string) *NotFoundError {
	return &NotFoundError{Kind: "session", ID: id}
}

// ConfigError reports that an agent definition could not be constructed at
// registry build time, typically because it references an unresolvable tool
// or tool group. It fails that one agent only; other agents remain usable.
type ConfigError struct {
	Agent   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("agent %q misconfigured: %s", e.Agent, e.Message)
}

// StepFailureError wraps a worker error or timeout observed while executing a
// single plan step. It is recovered locally as a failed step status and never
// crashes the executor.
type StepFailureError struct {
	StepIndex int
	Err       error
}

func (e *StepFailureError) Error() string {
	return fmt.Sprintf("step %d failed: %v", e.StepIndex, e.Err)
}

func (e *StepFailureError) Unwrap() error { return e.Err }

// StorageError reports that the persistence layer is unreachable or corrupt.
// Progress already committed before the failure remains intact and resumable
// once storage recovers.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("session storage %s failed: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// ConflictError reports a lost-update conflict on a session record. Backends
// serialize writes per session id, so this only surfaces when a caller holds
// a stale snapshot across a concurrent update.
type ConflictError struct {
	SessionID string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflicting update for session %q", e.SessionID)
}
