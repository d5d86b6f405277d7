// tensorboard.go launches TensorBoard against a sweep's log directories.
package trainer

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
)

// tensorboardBinary is the executable looked up on PATH.
const tensorboardBinary = "tensorboard"

// LookTensorBoard verifies the tensorboard executable is installed.
// Returns its resolved path.
func LookTensorBoard() (string, error) {
	path, err := exec.LookPath(tensorboardBinary)
	if err != nil {
		return "", fmt.Errorf("tensorboard not found on PATH: %w", err)
	}
	return path, nil
}

// RunTensorBoard runs TensorBoard in the foreground on the given logdir
// and port, streaming its output to the provided writers (stdio when
// nil). It blocks until the process exits or the context is cancelled.
func RunTensorBoard(ctx context.Context, logdir string, port int, stdout, stderr io.Writer) error {
	cmd := exec.CommandContext(ctx, tensorboardBinary,
		"--logdir", logdir,
		"--port", strconv.Itoa(port),
	)
	cmd.Stdout = writerOr(stdout, os.Stdout)
	cmd.Stderr = writerOr(stderr, os.Stderr)

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("tensorboard exited: %w", err)
	}
	return nil
}
