// local.go implements the Runner that executes the trainer with the
// host's Python interpreter.
package trainer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
)

// LocalRunner executes trainer invocations as child processes of the
// CLI. Stdout and Stderr default to the parent's stdio; tests inject
// buffers instead.
type LocalRunner struct {
	// Stdout and Stderr receive the trainer's output streams.
	Stdout io.Writer
	Stderr io.Writer

	// Env is the base environment. Defaults to os.Environ().
	Env []string
}

// NewLocalRunner creates a LocalRunner wired to the parent's stdio.
func NewLocalRunner() *LocalRunner {
	return &LocalRunner{}
}

// LookPython verifies the configured interpreter can be found on PATH
// (or at an explicit path) before any run starts. Returns the resolved
// interpreter path.
func LookPython(python string) (string, error) {
	path, err := exec.LookPath(python)
	if err != nil {
		return "", fmt.Errorf("python interpreter %q not found: %w", python, err)
	}
	return path, nil
}

// Run executes one trainer invocation and blocks until the process
// exits. The child runs with the source root as working directory and
// PYTHONPATH extended per BuildEnv.
//
// A normal non-zero trainer exit returns (status, nil). Context
// cancellation kills the child and returns its status together with the
// context error. A process that could not be started returns (-1, err).
func (r *LocalRunner) Run(ctx context.Context, spec RunSpec) (int, error) {
	args := append([]string{spec.Script}, spec.Args...)
	cmd := exec.CommandContext(ctx, spec.Python, args...)
	cmd.Dir = spec.SourceRoot

	base := r.Env
	if base == nil {
		base = os.Environ()
	}
	cmd.Env = BuildEnv(base, spec.SourceRoot)

	cmd.Stdout = writerOr(r.Stdout, os.Stdout)
	cmd.Stderr = writerOr(r.Stderr, os.Stderr)

	err := cmd.Run()
	if err == nil {
		return 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if ctx.Err() != nil {
			return exitErr.ExitCode(), ctx.Err()
		}
		return exitErr.ExitCode(), nil
	}

	return -1, fmt.Errorf("failed to start trainer %s %s: %w", spec.Python, spec.Script, err)
}
