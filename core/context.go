package core

import (
	"fmt"
	"strings"

	"github.com/hupe1980/agentpilot/internal/util"
)

const (
	recentTurnWindow  = 3
	previousRespLimit = 500
	turnInputLimit    = 140
	turnResponseLimit = 200
)

// ContextSummary is the compact view of prior interaction handed to routing,
// strategy selection and planning. It is derived from a session snapshot and
// carries no references back into it.
type ContextSummary struct {
	SessionID        string
	PreviousInput    string
	PreviousResponse string
	RecentTurns      []string
	PlanObjective    string
	CompletedSteps   []string
	PendingSteps     []string
	FailedSteps      []string
}

// BuildContext derives a ContextSummary from a session. It is a pure
// function with no side effects, called before every request.
func BuildContext(s *Session) ContextSummary {
	c := ContextSummary{SessionID: s.ID}

	if s.LastRun != nil {
		c.PreviousInput = s.LastRun.Input
		c.PreviousResponse = util.Truncate(s.LastRun.ResponseSummary, previousRespLimit)
	}

	history := s.RunHistory
	if len(history) > recentTurnWindow {
		history = history[len(history)-recentTurnWindow:]
	}
	for i, run := range history {
		c.RecentTurns = append(c.RecentTurns, fmt.Sprintf(
			"%d. user=%s | assistant=%s",
			i+1,
			util.Truncate(run.Input, turnInputLimit),
			util.Truncate(run.ResponseSummary, turnResponseLimit),
		))
	}

	if s.Plan != nil {
		c.PlanObjective = s.Plan.Objective
		for _, step := range s.Plan.Steps {
			switch step.Status {
			case StepCompleted, StepSkipped:
				c.CompletedSteps = append(c.CompletedSteps, step.Description)
			case StepFailed:
				c.FailedSteps = append(c.FailedSteps, step.Description)
			default:
				c.PendingSteps = append(c.PendingSteps, step.Description)
			}
		}
	}

	return c
}

// String renders the summary as the text block handed to decision prompts.
func (c ContextSummary) String() string {
	orNone := func(s string) string {
		if s == "" {
			return "None"
		}
		return s
	}
	joinOrNone := func(items []string) string {
		if len(items) == 0 {
			return "None"
		}
		return strings.Join(items, ", ")
	}
	turns := "None"
	if len(c.RecentTurns) > 0 {
		turns = strings.Join(c.RecentTurns, "\n")
	}

	return fmt.Sprintf(
		"Session ID: %s\n"+
			"Previous input: %s\n"+
			"Previous response summary: %s\n"+
			"Recent turns:\n%s\n"+
			"Plan objective: %s\n"+
			"Completed steps: %s\n"+
			"Pending steps: %s\n"+
			"Failed steps: %s",
		c.SessionID,
		orNone(c.PreviousInput),
		orNone(c.PreviousResponse),
		turns,
		orNone(c.PlanObjective),
		joinOrNone(c.CompletedSteps),
		joinOrNone(c.PendingSteps),
		joinOrNone(c.FailedSteps),
	)
}
