// Package trainer builds and executes trainer process invocations for
// the train-sweep CLI.
//
// All local executions go through os/exec against the user's Python
// interpreter rather than embedding any training logic. This approach:
//   - Treats the training program as an opaque executable, exactly as a
//     shell driver would
//   - Uses whatever Python environment the user has activated
//   - Keeps the driver free of any ML framework dependency
//
// The package defines the Runner interface the sweep driver executes
// through, BuildArgs (the single source of the trainer argument vector),
// BuildEnv (PYTHONPATH handling), the LocalRunner implementation, and
// the TensorBoard launcher. The Docker-backed runner lives in the docker
// package and implements the same interface.
package trainer
