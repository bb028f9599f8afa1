package executor

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentpilot/core"
	"github.com/hupe1980/agentpilot/internal/testutil"
	"github.com/hupe1980/agentpilot/logging"
	"github.com/hupe1980/agentpilot/session"
)

func newRunEnv(t *testing.T, decisions *testutil.StubDecisions) (*Executor, *core.Session, session.Store) {
	t.Helper()
	store := session.NewInMemoryStore()
	sess, err := store.Create()
	require.NoError(t, err)
	return New(store, decisions), sess, store
}

func TestRunCreatesPlanAndCompletes(t *testing.T) {
	decisions := &testutil.StubDecisions{
		Objective: "compare options",
		Steps:     []string{"list options", "evaluate options", "recommend"},
		Synthesis: "final answer",
	}
	exec, sess, store := newRunEnv(t, decisions)
	worker := &testutil.StubWorker{}

	res, err := exec.Run(context.Background(), sess, worker, "compare things", core.ContextSummary{}, 0, Hooks{})
	require.NoError(t, err)

	assert.Equal(t, OutcomeAllCompleted, res.Outcome)
	assert.Equal(t, "final answer", res.Response)
	assert.Len(t, res.Executed, 3)
	assert.Equal(t, core.PlanCompleted, res.Plan.Status())

	// Every transition must be persisted.
	got, err := store.Get(sess.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Plan)
	assert.Equal(t, core.PlanCompleted, got.Plan.Status())
}

func TestRunBudgetedWindowAndResume(t *testing.T) {
	decisions := &testutil.StubDecisions{
		Objective: "four step objective",
		Steps:     []string{"a", "b", "c", "d"},
		Synthesis: "done",
	}
	exec, sess, store := newRunEnv(t, decisions)
	worker := &testutil.StubWorker{}

	// First window: budget 2 executes exactly two steps.
	res, err := exec.Run(context.Background(), sess, worker, "do it", core.ContextSummary{}, 2, Hooks{})
	require.NoError(t, err)
	assert.Equal(t, OutcomePartial, res.Outcome)
	assert.Len(t, res.Executed, 2)
	assert.Equal(t, "2/4 completed, steps 3–4 pending", res.Response)

	// Second window resumes from the first pending step, not from scratch.
	planCalls := decisions.Calls["Plan"]
	sess2, err := store.Get(sess.ID)
	require.NoError(t, err)
	res, err = exec.Run(context.Background(), sess2, worker, "do it", core.ContextSummary{}, 0, Hooks{})
	require.NoError(t, err)

	assert.Equal(t, OutcomeAllCompleted, res.Outcome)
	assert.Len(t, res.Executed, 2)
	assert.Equal(t, planCalls, decisions.Calls["Plan"], "resume must not re-plan")
	assert.Equal(t, "done", res.Response)
}

func TestRunRecoversInterruptedStep(t *testing.T) {
	decisions := &testutil.StubDecisions{Synthesis: "final answer"}
	exec, sess, store := newRunEnv(t, decisions)

	// A stored plan with a running step means a previous process died after
	// persisting StartStep but before finishing the step.
	sess.Plan = &core.Plan{
		Objective: "compare vendors",
		Steps: []core.PlanStep{
			{Index: 0, Description: "list vendors", Status: core.StepCompleted, Result: "vendors listed"},
			{Index: 1, Description: "collect pricing", Status: core.StepRunning},
			{Index: 2, Description: "recommend", Status: core.StepPending},
		},
	}
	require.NoError(t, store.Update(sess))

	worker := &testutil.StubWorker{Responses: []string{"pricing collected", "vendor B"}}
	res, err := exec.Run(context.Background(), sess, worker, "compare vendors", core.ContextSummary{}, 0, Hooks{})
	require.NoError(t, err)

	// The interrupted step re-executes; the plan and its earlier progress
	// survive, no re-plan happens.
	assert.Equal(t, OutcomeAllCompleted, res.Outcome)
	assert.Equal(t, "final answer", res.Response)
	assert.Zero(t, decisions.Calls["Plan"])
	require.Len(t, res.Executed, 2)
	assert.Equal(t, 1, res.Executed[0].Index)
	assert.Equal(t, "pricing collected", res.Executed[0].Result)

	got, err := store.Get(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "compare vendors", got.Plan.Objective)
	assert.Equal(t, core.PlanCompleted, got.Plan.Status())
	assert.Equal(t, "vendors listed", got.Plan.Steps[0].Result)
}

func TestRunFailFast(t *testing.T) {
	decisions := &testutil.StubDecisions{
		Objective: "obj",
		Steps:     []string{"a", "b", "c"},
	}
	exec, sess, store := newRunEnv(t, decisions)
	worker := &testutil.StubWorker{Err: errors.New("tool exploded"), FailAfter: 1}

	res, err := exec.Run(context.Background(), sess, worker, "do it", core.ContextSummary{}, 0, Hooks{})
	require.NoError(t, err)

	assert.Equal(t, OutcomeAborted, res.Outcome)
	// Step 1 completed, step 2 failed, step 3 never started.
	require.Len(t, res.Executed, 2)
	assert.Equal(t, core.StepCompleted, res.Executed[0].Status)
	assert.Equal(t, core.StepFailed, res.Executed[1].Status)
	assert.Equal(t, core.StepPending, res.Plan.Steps[2].Status)
	assert.Equal(t, "1/3 completed, step 2 failed, step 3 pending", res.Response)

	// Failure state is persisted for inspection and potential recovery.
	got, err := store.Get(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, core.PlanFailed, got.Plan.Status())
	assert.Contains(t, got.Plan.Steps[1].Result, "tool exploded")
}

func TestRunPlanningFailure(t *testing.T) {
	decisions := &testutil.StubDecisions{PlanErr: errors.New("model down")}
	exec, sess, _ := newRunEnv(t, decisions)

	_, err := exec.Run(context.Background(), sess, &testutil.StubWorker{}, "do it", core.ContextSummary{}, 0, Hooks{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "planning failed")
}

func TestRunTooFewStepsIsConstructionError(t *testing.T) {
	decisions := &testutil.StubDecisions{Steps: []string{"only one"}}
	exec, sess, _ := newRunEnv(t, decisions)

	_, err := exec.Run(context.Background(), sess, &testutil.StubWorker{}, "do it", core.ContextSummary{}, 0, Hooks{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "plan construction failed")
}

func TestRunHooksFireInOrder(t *testing.T) {
	decisions := &testutil.StubDecisions{
		Objective: "obj",
		Steps:     []string{"a", "b"},
		Synthesis: "done",
	}
	exec, sess, _ := newRunEnv(t, decisions)

	var sequence []string
	hooks := Hooks{
		OnPlan:   func(*core.Plan) { sequence = append(sequence, "plan") },
		OnStatus: func(string) { sequence = append(sequence, "status") },
		OnStep:   func(core.PlanStep) { sequence = append(sequence, "step") },
	}

	_, err := exec.Run(context.Background(), sess, &testutil.StubWorker{}, "do it", core.ContextSummary{}, 0, hooks)
	require.NoError(t, err)
	assert.Equal(t, []string{"plan", "status", "step", "status", "step"}, sequence)
}

func TestRunStepInputCarriesPriorResults(t *testing.T) {
	decisions := &testutil.StubDecisions{
		Objective: "obj",
		Steps:     []string{"first", "second"},
		Synthesis: "done",
	}
	exec, sess, _ := newRunEnv(t, decisions)
	worker := &testutil.StubWorker{Responses: []string{"result one", "result two"}}

	_, err := exec.Run(context.Background(), sess, worker, "do it", core.ContextSummary{}, 0, Hooks{})
	require.NoError(t, err)

	require.Len(t, worker.Inputs, 2)
	assert.Contains(t, worker.Inputs[0], "Objective: obj")
	assert.Contains(t, worker.Inputs[0], "Current step (1/2): first")
	assert.NotContains(t, worker.Inputs[0], "Results so far")
	assert.Contains(t, worker.Inputs[1], "Results so far")
	assert.Contains(t, worker.Inputs[1], "Step 1 (first): result one")
}

func TestRunCancelledContextStopsBeforeNextStep(t *testing.T) {
	decisions := &testutil.StubDecisions{
		Objective: "obj",
		Steps:     []string{"a", "b"},
	}
	exec, sess, _ := newRunEnv(t, decisions)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := exec.Run(ctx, sess, &testutil.StubWorker{}, "do it", core.ContextSummary{}, 0, Hooks{})
	require.NoError(t, err)
	assert.Equal(t, OutcomePartial, res.Outcome)
	assert.Empty(t, res.Executed)
}

func TestRunLogsStepExecution(t *testing.T) {
	var buf bytes.Buffer
	decisions := &testutil.StubDecisions{
		Objective: "obj",
		Steps:     []string{"a", "b"},
		Synthesis: "done",
	}
	store := session.NewInMemoryStore()
	sess, err := store.Create()
	require.NoError(t, err)
	exec := New(store, decisions, func(o *Options) {
		o.Logger = logging.New(&logging.Config{Level: slog.LevelDebug, Format: "json", Output: &buf})
	})

	_, err = exec.Run(context.Background(), sess, &testutil.StubWorker{}, "do it", core.ContextSummary{}, 0, Hooks{})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "plan step finished")
	assert.Contains(t, buf.String(), `"status":"completed"`)
}

func TestRunSynthesisFailureDegradesToJoinedResults(t *testing.T) {
	decisions := &testutil.StubDecisions{
		Objective: "obj",
		Steps:     []string{"a", "b"},
		SynthErr:  errors.New("synthesis down"),
	}
	exec, sess, _ := newRunEnv(t, decisions)
	worker := &testutil.StubWorker{Responses: []string{"alpha", "beta"}}

	res, err := exec.Run(context.Background(), sess, worker, "do it", core.ContextSummary{}, 0, Hooks{})
	require.NoError(t, err)
	assert.Equal(t, OutcomeAllCompleted, res.Outcome)
	assert.Contains(t, res.Response, "alpha")
	assert.Contains(t, res.Response, "beta")
}

func TestNormalizePlan(t *testing.T) {
	t.Run("trims empty steps", func(t *testing.T) {
		plan, err := NormalizePlan("obj", []string{" a ", "", "b", "  "})
		require.NoError(t, err)
		require.Len(t, plan.Steps, 2)
		assert.Equal(t, "a", plan.Steps[0].Description)
	})

	t.Run("too few steps fails", func(t *testing.T) {
		_, err := NormalizePlan("obj", []string{"solo"})
		assert.Error(t, err)
		_, err = NormalizePlan("obj", nil)
		assert.Error(t, err)
	})

	t.Run("merges overflow into sixth step", func(t *testing.T) {
		plan, err := NormalizePlan("obj", []string{"1", "2", "3", "4", "5", "6", "7", "8"})
		require.NoError(t, err)
		require.Len(t, plan.Steps, 6)
		assert.Equal(t, "6; 7; 8", plan.Steps[5].Description)
	})

	t.Run("exactly six stays untouched", func(t *testing.T) {
		plan, err := NormalizePlan("obj", []string{"1", "2", "3", "4", "5", "6"})
		require.NoError(t, err)
		require.Len(t, plan.Steps, 6)
		assert.Equal(t, "6", plan.Steps[5].Description)
	})
}

func TestProgressSummary(t *testing.T) {
	plan := &core.Plan{Steps: []core.PlanStep{
		{Index: 0, Status: core.StepCompleted},
		{Index: 1, Status: core.StepCompleted},
		{Index: 2, Status: core.StepPending},
		{Index: 3, Status: core.StepPending},
	}}
	assert.Equal(t, "2/4 completed, steps 3–4 pending", ProgressSummary(plan))

	plan.Steps[2].Status = core.StepFailed
	assert.Equal(t, "2/4 completed, step 3 failed, step 4 pending", ProgressSummary(plan))

	scattered := &core.Plan{Steps: []core.PlanStep{
		{Index: 0, Status: core.StepPending},
		{Index: 1, Status: core.StepCompleted},
		{Index: 2, Status: core.StepPending},
	}}
	assert.Equal(t, "1/3 completed, steps 1, 3 pending", ProgressSummary(scattered))
}
