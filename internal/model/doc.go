// Package model defines the domain types and value objects for the
// train-sweep CLI.
//
// This package contains pure data structures with no external dependencies.
// The central aggregate is the Sweep, one experiment batch identified by a
// timestamp stamp shared across all of its runs. HParams mirrors the
// trainer's command-line hyperparameter surface, RunResult and SweepResult
// record outcomes, and ContainerInfo carries Docker runtime state
// reconstructed from container labels.
//
// The package also defines exit codes (ExitCode) and a custom error type
// (CLIError) that carries exit codes for proper OS process exit handling.
package model
