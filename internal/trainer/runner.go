// runner.go defines the execution contract between the sweep driver and
// the concrete runners (local process, Docker container).
package trainer

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// RunSpec describes one trainer invocation. The sweep driver constructs
// one RunSpec per run and hands it to a Runner.
type RunSpec struct {
	// Python is the interpreter executing the script. Unused by runners
	// that bring their own interpreter (Docker images).
	Python string

	// Script is the trainer program path. ResolveScript turns the
	// configured value into an absolute path before the first run.
	Script string

	// SourceRoot is the trainer source directory. It becomes the child
	// working directory and is appended to PYTHONPATH.
	SourceRoot string

	// ArtifactRoot is the trainer output prefix. The Docker runner bind
	// mounts it; the local runner only passes it through unchanged.
	ArtifactRoot string

	// Args is the full trainer argument list from BuildArgs.
	Args []string

	// SweepID and RunIndex identify the invocation for labeling and
	// logging. They duplicate values already present in Args. Seq is the
	// 1-based position across the whole batch and stays unique even when
	// a grid repeats run indices per point.
	SweepID  string
	RunIndex int
	Seq      int
}

// Runner executes a single trainer invocation and blocks until the
// process exits.
//
// The returned exit status follows process conventions: 0 for success,
// the trainer's own status for a normal non-zero exit. A non-zero exit
// is NOT an error at this layer; the error return is reserved for runs
// that could not be started or were interrupted by context cancellation.
// Runners report a -1 status when no process status exists.
type Runner interface {
	Run(ctx context.Context, spec RunSpec) (int, error)
}

// ResolveScript resolves the configured script path against the source
// root and verifies the file exists. Absolute script paths are kept
// as-is. Returns the absolute script path.
func ResolveScript(sourceRoot, script string) (string, error) {
	path := script
	if !filepath.IsAbs(path) {
		path = filepath.Join(sourceRoot, script)
	}
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("trainer script %s not found: %w", path, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("trainer script %s is a directory", path)
	}
	return path, nil
}

// writerOr returns w unless it is nil, in which case fallback is used.
// Runners default their streams to the parent's stdio so trainer output
// reaches the terminal exactly as it would from a shell loop.
func writerOr(w io.Writer, fallback io.Writer) io.Writer {
	if w == nil {
		return fallback
	}
	return w
}
