package core

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// StepStatus tracks the lifecycle of a single plan step. Transitions are
// monotonic forward only: pending -> running -> {completed, failed}. A step
// never regresses to an earlier status during execution; the one exception
// is RecoverInFlight, which resets a running step found in a freshly loaded
// record back to pending.
type StepStatus string

const (
	// StepPending marks a step that has not been started.
	StepPending StepStatus = "pending"
	// StepRunning marks the step currently being executed.
	StepRunning StepStatus = "running"
	// StepCompleted marks a step that produced a result.
	StepCompleted StepStatus = "completed"
	// StepFailed marks a step whose worker call errored or timed out.
	StepFailed StepStatus = "failed"
	// StepSkipped marks a step deliberately left unexecuted.
	StepSkipped StepStatus = "skipped"
)

// PlanStatus is the overall plan status derived from step statuses. It is
// computed on demand and never stored, so it cannot drift out of sync.
type PlanStatus string

const (
	// PlanPending means at least one step has not reached a terminal status.
	PlanPending PlanStatus = "pending"
	// PlanCompleted means every step completed (or was skipped).
	PlanCompleted PlanStatus = "completed"
	// PlanFailed means at least one step failed.
	PlanFailed PlanStatus = "failed"
)

// PlanStep is one unit of plan work. Index is 0-based and fixed at creation;
// only Status and Result mutate afterwards.
type PlanStep struct {
	Index       int        `json:"index"`
	Description string     `json:"description"`
	Status      StepStatus `json:"status"`
	Result      string     `json:"result,omitempty"`
}

// Plan is an ordered, fixed-length sequence of steps generated to satisfy a
// multi-step request. Once created the step sequence is never reordered or
// resized.
type Plan struct {
	Objective string     `json:"objective"`
	Steps     []PlanStep `json:"steps"`
}

// Status derives the overall plan status from the step statuses.
func (p *Plan) Status() PlanStatus {
	if p == nil {
		return PlanPending
	}
	terminal := true
	for _, s := range p.Steps {
		switch s.Status {
		case StepFailed:
			return PlanFailed
		case StepCompleted, StepSkipped:
		default:
			terminal = false
		}
	}
	if terminal && len(p.Steps) > 0 {
		return PlanCompleted
	}
	return PlanPending
}

// Counts returns the number of completed, pending and failed steps. Running
// steps count as pending since they have not reached a terminal status.
func (p *Plan) Counts() (completed, pending, failed int) {
	if p == nil {
		return 0, 0, 0
	}
	for _, s := range p.Steps {
		switch s.Status {
		case StepCompleted, StepSkipped:
			completed++
		case StepFailed:
			failed++
		default:
			pending++
		}
	}
	return completed, pending, failed
}

// FirstPending returns the index of the first pending step, or -1 when no
// step is pending. Resumption always continues from here.
func (p *Plan) FirstPending() int {
	if p == nil {
		return -1
	}
	for _, s := range p.Steps {
		if s.Status == StepPending {
			return s.Index
		}
	}
	return -1
}

// RecoverInFlight resets steps stuck in running status back to pending and
// returns how many were reset. A running step in a stored record means a
// previous process stopped mid-step; its partial work is lost and the step
// must execute again. Callers run this once after loading a plan, before any
// step starts.
func (p *Plan) RecoverInFlight() int {
	if p == nil {
		return 0
	}
	recovered := 0
	for i := range p.Steps {
		if p.Steps[i].Status == StepRunning {
			p.Steps[i].Status = StepPending
			p.Steps[i].Result = ""
			recovered++
		}
	}
	return recovered
}

// StartStep transitions step i from pending to running.
func (p *Plan) StartStep(i int) error {
	return p.transition(i, StepRunning, "")
}

// CompleteStep transitions step i from running to completed and records its
// result.
func (p *Plan) CompleteStep(i int, result string) error {
	return p.transition(i, StepCompleted, result)
}

// FailStep transitions step i from running to failed and records the failure
// text as its result.
func (p *Plan) FailStep(i int, result string) error {
	return p.transition(i, StepFailed, result)
}

// transition enforces the monotonic forward-only status machine.
func (p *Plan) transition(i int, to StepStatus, result string) error {
	if p == nil || i < 0 || i >= len(p.Steps) {
		return fmt.Errorf("plan has no step %d", i)
	}
	from := p.Steps[i].Status
	allowed := map[StepStatus][]StepStatus{
		StepPending: {StepRunning, StepSkipped},
		StepRunning: {StepCompleted, StepFailed},
	}
	ok := false
	for _, next := range allowed[from] {
		if next == to {
			ok = true
			break
		}
	}
	if !ok {
		return fmt.Errorf("invalid step transition %s -> %s for step %d", from, to, i)
	}
	p.Steps[i].Status = to
	if to == StepCompleted || to == StepFailed {
		p.Steps[i].Result = result
	}
	return nil
}

// Clone returns a deep copy of the plan.
func (p *Plan) Clone() *Plan {
	if p == nil {
		return nil
	}
	steps := make([]PlanStep, len(p.Steps))
	copy(steps, p.Steps)
	return &Plan{Objective: p.Objective, Steps: steps}
}

// RunRecord captures one completed run on a session. Records are immutable
// once appended to the run history.
type RunRecord struct {
	Input           string        `json:"input"`
	ResponseSummary string        `json:"response_summary"`
	Mode            ExecutionMode `json:"mode"`
	AgentID         string        `json:"agent_id"`
	Timestamp       time.Time     `json:"timestamp"`
}

// Session is the durable record of one conversational thread: current plan
// state, the most recent run and a bounded run history. It is owned
// exclusively by the session store and mutated only through Store.Update.
type Session struct {
	ID         string      `json:"session_id"`
	Plan       *Plan       `json:"plan,omitempty"`
	LastRun    *RunRecord  `json:"last_run,omitempty"`
	RunHistory []RunRecord `json:"run_history"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// NewSession creates an empty session record with the given id.
func NewSession(id string) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:         id,
		RunHistory: []RunRecord{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// NewSessionID generates a fresh opaque session identifier.
func NewSessionID() string { return uuid.NewString() }

// RecordRun sets LastRun and appends the record to the run history. Bounding
// of the history happens inside the store's Update, not here.
func (s *Session) RecordRun(rec RunRecord) {
	r := rec
	s.LastRun = &r
	s.RunHistory = append(s.RunHistory, rec)
}

// BoundHistory trims the run history to the limit most recent entries,
// evicting the oldest on overflow. Session stores call this inside Update.
func (s *Session) BoundHistory(limit int) {
	if limit <= 0 || len(s.RunHistory) <= limit {
		return
	}
	trimmed := make([]RunRecord, limit)
	copy(trimmed, s.RunHistory[len(s.RunHistory)-limit:])
	s.RunHistory = trimmed
}

// Clone returns a deep copy of the session safe for independent mutation.
func (s *Session) Clone() *Session {
	clone := &Session{
		ID:         s.ID,
		Plan:       s.Plan.Clone(),
		RunHistory: make([]RunRecord, len(s.RunHistory)),
		CreatedAt:  s.CreatedAt,
		UpdatedAt:  s.UpdatedAt,
	}
	copy(clone.RunHistory, s.RunHistory)
	if s.LastRun != nil {
		lr := *s.LastRun
		clone.LastRun = &lr
	}
	return clone
}
