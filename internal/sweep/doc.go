// Package sweep turns a configured sweep into an ordered invocation plan
// and executes it one trainer process at a time.
//
// The two halves are deliberately separate: BuildPlan is pure and serves
// both the run and plan commands, while Driver owns process execution,
// timing, and result bookkeeping.
package sweep
