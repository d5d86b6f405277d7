// Package model defines the domain types for the train-sweep CLI.
//
// All entities in this package represent the core data structures passed
// between the config, trainer, sweep, and history layers. A Sweep is one
// experiment batch: a set of sequential training runs grouped under a
// single timestamp (the sweep ID).
package model

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// StampLayout is the time layout of a sweep ID. It matches the trainer's
// own date_time format, so a sweep ID names the directory level the
// trainer creates for its checkpoints and logs.
const StampLayout = "20060102-150405"

// NewStampID formats a timestamp as a sweep ID.
// The stamp is computed once per CLI invocation and shared by every run
// in the batch.
func NewStampID(t time.Time) string {
	return t.Format(StampLayout)
}

// stampRegex validates sweep IDs: eight date digits, a hyphen, six time digits.
var stampRegex = regexp.MustCompile(`^\d{8}-\d{6}$`)

// ValidateStampID checks that the given string is a well-formed sweep ID.
// Both the shape and the encoded date must be valid.
func ValidateStampID(id string) error {
	if !stampRegex.MatchString(id) {
		return fmt.Errorf("invalid sweep id %q: expected YYYYMMDD-HHMMSS", id)
	}
	if _, err := time.Parse(StampLayout, id); err != nil {
		return fmt.Errorf("invalid sweep id %q: %w", id, err)
	}
	return nil
}

// RunStatus represents the lifecycle state of a single training run.
// The state transitions are:
//
//	Pending → Running → Succeeded | Failed
//
// Runs that were never started (because the batch was cancelled) stay Pending.
type RunStatus string

const (
	// StatusPending indicates the run has not started yet.
	StatusPending RunStatus = "pending"

	// StatusRunning indicates the trainer process is currently executing.
	StatusRunning RunStatus = "running"

	// StatusSucceeded indicates the trainer process exited with status 0.
	StatusSucceeded RunStatus = "succeeded"

	// StatusFailed indicates the trainer process exited with a non-zero
	// status or could not be started.
	StatusFailed RunStatus = "failed"
)

// String returns the string representation of RunStatus.
// This method satisfies the fmt.Stringer interface, enabling
// human-readable output in CLI commands and logging.
func (s RunStatus) String() string {
	return string(s)
}

// IsValid checks whether the RunStatus value is one of the
// predefined valid states.
func (s RunStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusRunning, StatusSucceeded, StatusFailed:
		return true
	default:
		return false
	}
}

// Terminal reports whether the status is an end state.
func (s RunStatus) Terminal() bool {
	return s == StatusSucceeded || s == StatusFailed
}

// ParseRunStatus converts a string to a RunStatus.
// Returns an error if the string does not match any valid status.
func ParseRunStatus(s string) (RunStatus, error) {
	status := RunStatus(strings.ToLower(s))
	if !status.IsValid() {
		return "", fmt.Errorf("invalid run status: %q (valid: pending, running, succeeded, failed)", s)
	}
	return status, nil
}

// RunnerKind selects how trainer processes are executed.
type RunnerKind string

const (
	// RunnerLocal executes the trainer with the host's Python interpreter.
	RunnerLocal RunnerKind = "local"

	// RunnerDocker executes the trainer inside a Docker container with the
	// source and artifact directories bind-mounted.
	RunnerDocker RunnerKind = "docker"
)

// String returns the string representation of RunnerKind.
func (k RunnerKind) String() string {
	return string(k)
}

// IsValid checks whether the RunnerKind value is one of the
// predefined valid kinds.
func (k RunnerKind) IsValid() bool {
	switch k {
	case RunnerLocal, RunnerDocker:
		return true
	default:
		return false
	}
}

// IsDocker returns true if runs execute inside containers. Branching on
// this selects the Docker client setup and the clean command's scope.
func (k RunnerKind) IsDocker() bool {
	return k == RunnerDocker
}

// ParseRunnerKind converts a string to a RunnerKind.
// Returns an error if the string does not match any valid kind.
func ParseRunnerKind(s string) (RunnerKind, error) {
	kind := RunnerKind(strings.ToLower(s))
	if !kind.IsValid() {
		return "", fmt.Errorf("invalid runner: %q (valid: local, docker)", s)
	}
	return kind, nil
}

// ValidOptimizers lists the optimizer names the trainer accepts.
var ValidOptimizers = []string{"SGD", "Adam", "Adadelta", "RMSprop"}

// HParams carries the full hyperparameter surface of the trainer.
// Field values map one-to-one onto the trainer's command-line flags;
// the zero value is not usable, start from DefaultHParams.
type HParams struct {
	// N is the ResNet block-depth multiplier. The network depth is
	// derived from it: 6n+2 for version 1, 9n+2 for version 2.
	N int `json:"n" yaml:"n"`

	// Version selects the ResNet variant (1 or 2).
	Version int `json:"version" yaml:"version"`

	// Dataset is the dataset name passed to the trainer.
	Dataset string `json:"dataset" yaml:"dataset"`

	// DataPreprocessing names the input normalization mode.
	DataPreprocessing string `json:"data_preprocessing" yaml:"data_preprocessing"`

	// DataAugmentation names the augmentation mode.
	DataAugmentation string `json:"data_augmentation" yaml:"data_augmentation"`

	// ValidationSplit is the fraction of training data held out for
	// validation. Must be in [0, 1).
	ValidationSplit float64 `json:"validation_split" yaml:"validation_split"`

	// BatchSize is the training batch size.
	BatchSize int `json:"batch_size" yaml:"batch_size"`

	// Epochs is the number of training epochs per run.
	Epochs int `json:"epochs" yaml:"epochs"`

	// LearningRate is the initial learning rate.
	LearningRate float64 `json:"learning_rate" yaml:"learning_rate"`

	// OptimizerName selects the optimizer. See ValidOptimizers.
	OptimizerName string `json:"optimizer_name" yaml:"optimizer_name"`

	// WeightDecay is the L2 regularization coefficient.
	WeightDecay float64 `json:"weight_decay" yaml:"weight_decay"`

	// Momentum is the optimizer momentum. Ignored by optimizers that
	// have no momentum term.
	Momentum float64 `json:"momentum" yaml:"momentum"`

	// LRSchedule names the learning-rate schedule.
	LRSchedule string `json:"lr_schedule" yaml:"lr_schedule"`

	// Seed is the optional random seed. When nil, the trainer picks its
	// own seed and no --seed flag is emitted. When set, the same seed is
	// passed to every run in the batch.
	Seed *int `json:"seed,omitempty" yaml:"seed,omitempty"`
}

// DefaultHParams returns the hyperparameter set the sweep driver ships
// with: ResNet20 v1 on CIFAR-10 with the standard SGD recipe.
func DefaultHParams() HParams {
	return HParams{
		N:                 3,
		Version:           1,
		Dataset:           "cifar10",
		DataPreprocessing: "std_norm",
		DataAugmentation:  "random_translation",
		ValidationSplit:   0.1,
		BatchSize:         128,
		Epochs:            200,
		LearningRate:      0.1,
		OptimizerName:     "SGD",
		WeightDecay:       0.0001,
		Momentum:          0.9,
		LRSchedule:        "cifar10_schedule",
	}
}

// Depth returns the network depth derived from N and Version.
// Version 1 uses 6n+2 layers, version 2 uses 9n+2.
func (h HParams) Depth() int {
	if h.Version == 2 {
		return h.N*9 + 2
	}
	return h.N*6 + 2
}

// ModelName returns the model identifier the trainer derives from the
// depth and version, e.g. "ResNet20v1_CIFAR10". The trainer uses this
// name as a directory level in its artifact layout and as the checkpoint
// file prefix.
func (h HParams) ModelName() string {
	return fmt.Sprintf("ResNet%dv%d_CIFAR10", h.Depth(), h.Version)
}

// Validate checks the hyperparameter values against the trainer's
// accepted ranges. It returns the first violation found.
func (h HParams) Validate() error {
	if h.N < 1 {
		return fmt.Errorf("n must be >= 1, got %d", h.N)
	}
	if h.Version != 1 && h.Version != 2 {
		return fmt.Errorf("version must be 1 or 2, got %d", h.Version)
	}
	if h.Dataset == "" {
		return fmt.Errorf("dataset must not be empty")
	}
	if h.ValidationSplit < 0 || h.ValidationSplit >= 1 {
		return fmt.Errorf("validation_split must be in [0, 1), got %s", FormatFloat(h.ValidationSplit))
	}
	if h.BatchSize < 1 {
		return fmt.Errorf("batch_size must be >= 1, got %d", h.BatchSize)
	}
	if h.Epochs < 1 {
		return fmt.Errorf("epochs must be >= 1, got %d", h.Epochs)
	}
	if h.LearningRate <= 0 {
		return fmt.Errorf("learning_rate must be > 0, got %s", FormatFloat(h.LearningRate))
	}
	if h.WeightDecay < 0 {
		return fmt.Errorf("weight_decay must be >= 0, got %s", FormatFloat(h.WeightDecay))
	}
	if h.Momentum < 0 || h.Momentum > 1 {
		return fmt.Errorf("momentum must be in [0, 1], got %s", FormatFloat(h.Momentum))
	}
	valid := false
	for _, name := range ValidOptimizers {
		if h.OptimizerName == name {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("invalid optimizer_name %q (valid: %s)", h.OptimizerName, strings.Join(ValidOptimizers, ", "))
	}
	if h.LRSchedule == "" {
		return fmt.Errorf("lr_schedule must not be empty")
	}
	return nil
}

// FormatFloat renders a float the way the trainer's command line and
// artifact paths expect it: the shortest decimal form that round-trips.
// The same rendering is used for flag values and for the lr component of
// artifact directory names, so the two can never drift apart.
func FormatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// Sweep describes one experiment batch: the trainer to invoke, how to
// invoke it, and the hyperparameters shared by all runs. This is the
// primary aggregate entity in the domain.
type Sweep struct {
	// ID is the batch timestamp, formatted with StampLayout. It is
	// computed once before the first run and passed to every run as
	// --date_time, grouping sibling runs in the artifact tree.
	ID string `json:"id"`

	// Script is the trainer program, resolved relative to SourceRoot
	// unless absolute.
	Script string `json:"script"`

	// Python is the interpreter used to execute Script.
	Python string `json:"python"`

	// SourceRoot is the directory containing the trainer sources. It is
	// appended to PYTHONPATH and used as the child working directory.
	SourceRoot string `json:"sourceRoot"`

	// ArtifactRoot is the directory prefix under which the trainer
	// writes checkpoints and logs. The driver never writes there itself.
	ArtifactRoot string `json:"artifactRoot"`

	// Runner selects local or containerized execution.
	Runner RunnerKind `json:"runner"`

	// Image is the container image for the docker runner. Ignored for
	// the local runner.
	Image string `json:"image,omitempty"`

	// Preset is the name of the preset the parameters started from,
	// empty when built from defaults.
	Preset string `json:"preset,omitempty"`

	// Runs is the number of repetitions per parameter set. Each
	// repetition receives its index as --run, counted from 1.
	Runs int `json:"runs"`

	// Params holds the base hyperparameters. Grid expansion produces
	// per-point variants of this set.
	Params HParams `json:"params"`

	// CreatedAt is the wall-clock time the batch started.
	CreatedAt time.Time `json:"createdAt"`
}

// Validate checks the sweep definition before any run starts.
func (s *Sweep) Validate() error {
	if err := ValidateStampID(s.ID); err != nil {
		return err
	}
	if s.Script == "" {
		return fmt.Errorf("script must not be empty")
	}
	if s.Runs < 1 {
		return fmt.Errorf("runs must be >= 1, got %d", s.Runs)
	}
	if !s.Runner.IsValid() {
		return fmt.Errorf("invalid runner %q", string(s.Runner))
	}
	if s.Runner.IsDocker() && s.Image == "" {
		return fmt.Errorf("docker runner requires an image")
	}
	if s.Runner == RunnerLocal && s.Python == "" {
		return fmt.Errorf("local runner requires a python interpreter")
	}
	return s.Params.Validate()
}

// RunResult records the outcome of a single trainer invocation.
type RunResult struct {
	// Seq is the position of this invocation in the batch, counted from
	// 1 across all grid points.
	Seq int `json:"seq"`

	// RunIndex is the value passed as --run, counted from 1 within the
	// run's grid point.
	RunIndex int `json:"runIndex"`

	// PointLabel summarizes the grid point's overrides, for example
	// "n=5,optimizer_name=Adam". Empty when the batch has no grid.
	PointLabel string `json:"pointLabel,omitempty"`

	// Status is the final lifecycle state of the run.
	Status RunStatus `json:"status"`

	// ExitCode is the trainer process exit status. Zero for succeeded
	// runs, -1 when the process could not be started at all.
	ExitCode int `json:"exitCode"`

	// StartedAt and FinishedAt bound the trainer process lifetime.
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`

	// Duration is FinishedAt minus StartedAt.
	Duration time.Duration `json:"duration"`

	// ArtifactDir is the directory the trainer writes this run's
	// checkpoints and logs under.
	ArtifactDir string `json:"artifactDir,omitempty"`
}

// SweepResult aggregates the outcomes of all runs in a batch.
type SweepResult struct {
	Sweep *Sweep      `json:"sweep"`
	Runs  []RunResult `json:"runs"`
}

// Succeeded returns the number of runs that exited with status 0.
func (r *SweepResult) Succeeded() int {
	count := 0
	for _, run := range r.Runs {
		if run.Status == StatusSucceeded {
			count++
		}
	}
	return count
}

// Failed returns the number of runs that failed.
func (r *SweepResult) Failed() int {
	count := 0
	for _, run := range r.Runs {
		if run.Status == StatusFailed {
			count++
		}
	}
	return count
}

// ExitStatus returns the process exit status the driver propagates:
// 0 when every run succeeded, otherwise the exit code of the last
// failed run. A failed run with exit code 0 (start failure recorded as
// -1) maps to 1 so the failure stays visible to the calling shell.
func (r *SweepResult) ExitStatus() int {
	status := 0
	for _, run := range r.Runs {
		if run.Status != StatusFailed {
			continue
		}
		if run.ExitCode > 0 {
			status = run.ExitCode
		} else {
			status = 1
		}
	}
	return status
}

// ContainerInfo holds runtime information about a Docker container
// belonging to a sweep. This data is fetched dynamically from the
// Docker API, not persisted.
type ContainerInfo struct {
	// ContainerID is the unique Docker container identifier.
	ContainerID string `json:"containerId"`

	// ContainerName is the human-readable Docker container name.
	ContainerName string `json:"containerName"`

	// SweepID and RunIndex identify the invocation the container
	// executed, reconstructed from its labels.
	SweepID  string `json:"sweepId"`
	RunIndex int    `json:"runIndex"`

	// Status is the Docker container status (e.g. "running", "exited").
	Status string `json:"status"`

	// Labels is the full set of Docker labels on the container,
	// including the trainsweep.* management labels.
	Labels map[string]string `json:"labels,omitempty"`
}

// ExitCode defines standard CLI exit codes. These codes allow scripts
// and CI systems to programmatically determine the outcome of a command.
// A failed training run propagates the trainer's own exit status instead
// of one of these values.
type ExitCode int

const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess ExitCode = 0

	// ExitGeneralError indicates an unspecified error occurred.
	ExitGeneralError ExitCode = 1

	// ExitConfigError indicates invalid flags, an unreadable sweep file,
	// or hyperparameters outside the trainer's accepted ranges.
	ExitConfigError ExitCode = 2

	// ExitScriptNotFound indicates the trainer script or the Python
	// interpreter could not be found before the first run.
	ExitScriptNotFound ExitCode = 3

	// ExitPortAllocationFailed indicates no free port could be found for
	// TensorBoard.
	ExitPortAllocationFailed ExitCode = 4

	// ExitDockerNotRunning indicates the Docker daemon is not accessible.
	ExitDockerNotRunning ExitCode = 5

	// ExitHistoryError indicates the history database could not be
	// opened or written.
	ExitHistoryError ExitCode = 6

	// ExitUserCancelled indicates the user cancelled an interactive prompt.
	ExitUserCancelled ExitCode = 7
)

// CLIError is a custom error type that carries an exit code.
// This allows the CLI layer to translate domain errors into
// appropriate process exit codes.
type CLIError struct {
	// Code is the exit code to return to the OS.
	Code ExitCode

	// Message is the human-readable error description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error satisfies the error interface. It returns the human-readable
// error message, optionally including the underlying error.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a new CLIError with the given exit code and message.
func NewCLIError(code ExitCode, message string) *CLIError {
	return &CLIError{Code: code, Message: message}
}

// WrapCLIError creates a new CLIError that wraps an existing error.
func WrapCLIError(code ExitCode, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Err: err}
}
