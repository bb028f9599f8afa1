// Package executor implements the plan execution state machine: plan
// creation and normalization, budgeted step-by-step execution with fail-fast
// semantics, persistence of every transition, and synthesis of the final
// response once all steps complete.
//
// A run touches at most budget steps and executes them strictly in index
// order, one at a time. A worker failure or timeout marks that step failed
// and stops the run without rolling back completed steps. Plans with
// remaining pending steps stay resumable: a later run on the same session
// continues from the first pending step.
package executor
