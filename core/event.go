package core

import "time"

// EventType tags the typed progress and result notifications delivered on a
// streaming run.
type EventType string

const (
	// EventMetadata carries routing and mode info. It is always the first
	// event of a stream; a second metadata event with stage "done" (and
	// error info on failure) precedes the terminal done event.
	EventMetadata EventType = "metadata"
	// EventStatus is a progress trace. Suppressed when tool tracing is off.
	EventStatus EventType = "status"
	// EventToken is an incremental or synthetic chunk of response text.
	EventToken EventType = "token"
	// EventPlan announces the plan being executed.
	EventPlan EventType = "plan"
	// EventStepResult reports a step reaching a terminal status.
	EventStepResult EventType = "step_result"
	// EventUI carries a generated UI spec payload.
	EventUI EventType = "ui"
	// EventDone terminates every stream, on success and failure alike.
	EventDone EventType = "done"
)

// Event is one typed notification on a streaming run. Only the fields
// relevant to its Type are populated.
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`

	// metadata fields
	Stage         string        `json:"stage,omitempty"`
	SessionID     string        `json:"session_id,omitempty"`
	SelectedAgent string        `json:"selected_agent,omitempty"`
	Mode          ExecutionMode `json:"execution_mode,omitempty"`
	Error         string        `json:"error,omitempty"`

	// status message
	Message string `json:"message,omitempty"`

	// token text
	Text string `json:"text,omitempty"`

	// plan payload
	Objective string     `json:"objective,omitempty"`
	Steps     []PlanStep `json:"steps,omitempty"`

	// step_result payload
	Step *PlanStep `json:"step,omitempty"`

	// ui payload
	UI any `json:"ui,omitempty"`
}

func newEvent(t EventType) Event {
	return Event{Type: t, Timestamp: time.Now().UTC()}
}

// NewMetadataEvent builds the metadata event carrying routing and mode info.
func NewMetadataEvent(stage, sessionID, agentID string, mode ExecutionMode) Event {
	e := newEvent(EventMetadata)
	e.Stage = stage
	e.SessionID = sessionID
	e.SelectedAgent = agentID
	e.Mode = mode
	return e
}

// NewErrorMetadataEvent builds a stage "done" metadata event carrying error
// info for a failed run.
func NewErrorMetadataEvent(sessionID string, err error) Event {
	e := newEvent(EventMetadata)
	e.Stage = "done"
	e.SessionID = sessionID
	if err != nil {
		e.Error = err.Error()
	}
	return e
}

// NewStatusEvent builds a progress trace event.
func NewStatusEvent(message string) Event {
	e := newEvent(EventStatus)
	e.Message = message
	return e
}

// NewTokenEvent builds a response text chunk event.
func NewTokenEvent(text string) Event {
	e := newEvent(EventToken)
	e.Text = text
	return e
}

// NewPlanEvent announces the plan about to be executed. The step slice is
// copied so later status mutations do not leak into emitted events.
func NewPlanEvent(p *Plan) Event {
	e := newEvent(EventPlan)
	if p != nil {
		e.Objective = p.Objective
		e.Steps = make([]PlanStep, len(p.Steps))
		copy(e.Steps, p.Steps)
	}
	return e
}

// NewStepResultEvent reports a step that reached a terminal status.
func NewStepResultEvent(step PlanStep) Event {
	e := newEvent(EventStepResult)
	s := step
	e.Step = &s
	return e
}

// NewUIEvent carries a generated UI spec.
func NewUIEvent(spec any) Event {
	e := newEvent(EventUI)
	e.UI = spec
	return e
}

// NewDoneEvent terminates a stream.
func NewDoneEvent() Event { return newEvent(EventDone) }
