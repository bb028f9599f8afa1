package executor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hupe1980/agentpilot/core"
	"github.com/hupe1980/agentpilot/logging"
	"github.com/hupe1980/agentpilot/session"
)

// Plans are normalized to this step range. Oversized plans are merged down;
// undersized ones are a construction error.
const (
	minPlanSteps = 2
	maxPlanSteps = 6
)

// Outcome classifies how a single executor run concluded.
type Outcome string

const (
	// OutcomeAllCompleted means every step finished and synthesis produced
	// the final response.
	OutcomeAllCompleted Outcome = "all_completed"
	// OutcomePartial means the step budget was exhausted (or the run was
	// cancelled) with pending steps remaining; the plan stays resumable.
	OutcomePartial Outcome = "partial"
	// OutcomeAborted means a step failed and execution stopped fail-fast.
	OutcomeAborted Outcome = "aborted"
)

// Result is the outcome of one executor run.
type Result struct {
	Outcome  Outcome
	Response string
	Plan     *core.Plan
	// Executed lists the steps that reached a terminal status in this run,
	// in execution order.
	Executed []core.PlanStep
}

// Hooks receive progress notifications during a run. All fields are
// optional; nil hooks are skipped. Callbacks fire after the corresponding
// transition has been persisted.
type Hooks struct {
	OnPlan   func(p *core.Plan)
	OnStatus func(message string)
	OnStep   func(step core.PlanStep)
}

func (h Hooks) plan(p *core.Plan) {
	if h.OnPlan != nil {
		h.OnPlan(p)
	}
}

func (h Hooks) status(msg string) {
	if h.OnStatus != nil {
		h.OnStatus(msg)
	}
}

func (h Hooks) step(s core.PlanStep) {
	if h.OnStep != nil {
		h.OnStep(s)
	}
}

// Options configures an Executor.
type Options struct {
	// StepTimeout bounds each worker call; a timeout is treated identically
	// to a worker failure.
	StepTimeout time.Duration
	// CallTimeout bounds planning and synthesis model calls.
	CallTimeout time.Duration
	Logger      logging.Logger
}

// Executor drives the plan state machine for one session at a time.
type Executor struct {
	store     session.Store
	decisions core.DecisionModel
	opts      Options
}

// New constructs an Executor persisting through store and planning and
// synthesizing through decisions.
func New(store session.Store, decisions core.DecisionModel, optFns ...func(o *Options)) *Executor {
	opts := Options{
		StepTimeout: 60 * time.Second,
		CallTimeout: 60 * time.Second,
		Logger:      logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Executor{store: store, decisions: decisions, opts: opts}
}

// Run advances the plan attached to sess by at most budget steps (all
// remaining pending steps when budget <= 0), creating a plan first when none
// exists. Every transition is persisted before Run returns, so a restart
// mid-plan loses at most the in-flight step.
func (e *Executor) Run(
	ctx context.Context,
	sess *core.Session,
	worker core.Capability,
	request string,
	summary core.ContextSummary,
	budget int,
	hooks Hooks,
) (*Result, error) {
	// A step persisted as running belongs to a process that stopped mid-step.
	// Reset it to pending before resuming so it executes again instead of
	// blocking the plan in a non-terminal state forever.
	if n := sess.Plan.RecoverInFlight(); n > 0 {
		e.opts.Logger.Warn("executor: recovered interrupted steps", "count", n)
		if err := e.store.Update(sess); err != nil {
			return nil, err
		}
	}

	if err := e.ensurePlan(ctx, sess, request, summary); err != nil {
		return nil, err
	}
	plan := sess.Plan
	hooks.plan(plan)

	executed, runErr := e.executeWindow(ctx, sess, worker, summary, budget, hooks)
	if runErr != nil {
		return nil, runErr
	}

	res := &Result{Plan: plan, Executed: executed}
	completed, pending, failed := plan.Counts()
	switch {
	case failed > 0:
		res.Outcome = OutcomeAborted
		res.Response = ProgressSummary(plan)
	case pending > 0:
		res.Outcome = OutcomePartial
		res.Response = ProgressSummary(plan)
	default:
		res.Outcome = OutcomeAllCompleted
		res.Response = e.synthesize(ctx, plan)
	}

	e.opts.Logger.Info("executor: run finished",
		"outcome", string(res.Outcome),
		"completed", completed,
		"pending", pending,
		"failed", failed,
	)
	return res, nil
}

// ensurePlan requests a plan from the decision model when the session has no
// resumable one, normalizes it and persists it before any step executes.
func (e *Executor) ensurePlan(ctx context.Context, sess *core.Session, request string, summary core.ContextSummary) error {
	if sess.Plan != nil && sess.Plan.FirstPending() >= 0 {
		return nil
	}

	callCtx, cancel := context.WithTimeout(ctx, e.opts.CallTimeout)
	defer cancel()

	objective, steps, err := e.decisions.Plan(callCtx, request, summary.String())
	if err != nil {
		return fmt.Errorf("planning failed: %w", err)
	}
	plan, err := NormalizePlan(objective, steps)
	if err != nil {
		return err
	}
	sess.Plan = plan
	if err := e.store.Update(sess); err != nil {
		return err
	}
	return nil
}

// executeWindow runs steps strictly in index order, transitioning at most
// budget steps out of pending, failing fast on the first step error.
func (e *Executor) executeWindow(
	ctx context.Context,
	sess *core.Session,
	worker core.Capability,
	summary core.ContextSummary,
	budget int,
	hooks Hooks,
) ([]core.PlanStep, error) {
	plan := sess.Plan
	if budget <= 0 {
		budget = len(plan.Steps)
	}

	var executed []core.PlanStep
	started := 0
	var results []string
	for _, s := range plan.Steps {
		if s.Status == core.StepCompleted {
			results = append(results, stepResultLine(s))
		}
	}

	for i := plan.FirstPending(); i >= 0 && started < budget; i = plan.FirstPending() {
		// Client disconnect: never start another step; persisted progress
		// stays resumable.
		if ctx.Err() != nil {
			break
		}

		if err := plan.StartStep(i); err != nil {
			return executed, err
		}
		if err := e.store.Update(sess); err != nil {
			return executed, err
		}
		started++
		hooks.status(fmt.Sprintf("executing step %d/%d: %s", i+1, len(plan.Steps), plan.Steps[i].Description))

		input := stepPrompt(plan, i, results)
		stepCtx, cancel := context.WithTimeout(ctx, e.opts.StepTimeout)
		start := time.Now()
		out, err := worker.Invoke(stepCtx, input, summary.String())
		cancel()

		if err != nil {
			stepErr := &core.StepFailureError{StepIndex: i, Err: err}
			if ferr := plan.FailStep(i, stepErr.Error()); ferr != nil {
				return executed, ferr
			}
			if uerr := e.store.Update(sess); uerr != nil {
				return executed, uerr
			}
			executed = append(executed, plan.Steps[i])
			hooks.step(plan.Steps[i])
			logging.LogStepExecution(e.opts.Logger, i, string(core.StepFailed), time.Since(start), err)
			break
		}

		if cerr := plan.CompleteStep(i, out); cerr != nil {
			return executed, cerr
		}
		if uerr := e.store.Update(sess); uerr != nil {
			return executed, uerr
		}
		executed = append(executed, plan.Steps[i])
		hooks.step(plan.Steps[i])
		results = append(results, stepResultLine(plan.Steps[i]))
		logging.LogStepExecution(e.opts.Logger, i, string(core.StepCompleted), time.Since(start), nil)
	}

	return executed, nil
}

// synthesize combines all step results into the final response. When the
// synthesis model call fails, the joined step results are returned instead
// so a fully executed plan never turns into a failed run at the last moment.
func (e *Executor) synthesize(ctx context.Context, plan *core.Plan) string {
	var results []string
	for _, s := range plan.Steps {
		results = append(results, s.Result)
	}

	callCtx, cancel := context.WithTimeout(ctx, e.opts.CallTimeout)
	defer cancel()

	out, err := e.decisions.Synthesize(callCtx, plan.Objective, results)
	if err != nil {
		e.opts.Logger.Warn("executor: synthesis failed, returning joined step results", "error", err.Error())
		return strings.Join(results, "\n\n")
	}
	return out
}

// stepPrompt builds the worker input for step i: the objective, the step
// description and the accumulated results of earlier steps.
func stepPrompt(plan *core.Plan, i int, priorResults []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Objective: %s\n", plan.Objective)
	fmt.Fprintf(&b, "Current step (%d/%d): %s\n", i+1, len(plan.Steps), plan.Steps[i].Description)
	if len(priorResults) > 0 {
		b.WriteString("Results so far:\n")
		for _, r := range priorResults {
			b.WriteString(r)
			b.WriteString("\n")
		}
	}
	return b.String()
}

func stepResultLine(s core.PlanStep) string {
	return fmt.Sprintf("Step %d (%s): %s", s.Index+1, s.Description, s.Result)
}

// NormalizePlan validates and normalizes model-produced steps into the
// 2..6 step invariant. More than six steps are merged into the sixth; fewer
// than two cannot be repaired and fail as a construction error.
func NormalizePlan(objective string, steps []string) (*core.Plan, error) {
	var cleaned []string
	for _, s := range steps {
		if strings.TrimSpace(s) != "" {
			cleaned = append(cleaned, strings.TrimSpace(s))
		}
	}
	if len(cleaned) < minPlanSteps {
		return nil, fmt.Errorf("plan construction failed: got %d usable steps, need at least %d", len(cleaned), minPlanSteps)
	}
	if len(cleaned) > maxPlanSteps {
		merged := strings.Join(cleaned[maxPlanSteps-1:], "; ")
		cleaned = append(cleaned[:maxPlanSteps-1], merged)
	}

	plan := &core.Plan{Objective: objective}
	for i, desc := range cleaned {
		plan.Steps = append(plan.Steps, core.PlanStep{
			Index:       i,
			Description: desc,
			Status:      core.StepPending,
		})
	}
	return plan, nil
}

// ProgressSummary reports plan progress in the form
// "2/4 completed, steps 3–4 pending" with a failed-step note when present.
func ProgressSummary(plan *core.Plan) string {
	completed, _, _ := plan.Counts()
	var b strings.Builder
	fmt.Fprintf(&b, "%d/%d completed", completed, len(plan.Steps))

	var failedIdx, pendingIdx []int
	for _, s := range plan.Steps {
		switch s.Status {
		case core.StepFailed:
			failedIdx = append(failedIdx, s.Index+1)
		case core.StepPending, core.StepRunning:
			pendingIdx = append(pendingIdx, s.Index+1)
		}
	}
	if len(failedIdx) > 0 {
		fmt.Fprintf(&b, ", %s failed", indexRange(failedIdx))
	}
	if len(pendingIdx) > 0 {
		fmt.Fprintf(&b, ", %s pending", indexRange(pendingIdx))
	}
	return b.String()
}

// indexRange renders 1-based step indexes as "step 3" or "steps 3–5".
func indexRange(idx []int) string {
	if len(idx) == 1 {
		return fmt.Sprintf("step %d", idx[0])
	}
	contiguous := true
	for i := 1; i < len(idx); i++ {
		if idx[i] != idx[i-1]+1 {
			contiguous = false
			break
		}
	}
	if contiguous {
		return fmt.Sprintf("steps %d–%d", idx[0], idx[len(idx)-1])
	}
	parts := make([]string, len(idx))
	for i, v := range idx {
		parts[i] = fmt.Sprintf("%d", v)
	}
	return "steps " + strings.Join(parts, ", ")
}
