// Package cli — board.go implements the "train-sweep board" command.
//
// The board command launches TensorBoard over a sweep's log
// directories. Given a sweep ID it resolves the logdir from history;
// without one it falls back to the artifact root, so TensorBoard shows
// every recorded experiment side by side. When the preferred port is
// taken, the next free port above it is picked automatically.
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/shinji-kodama/train-sweep/internal/config"
	"github.com/shinji-kodama/train-sweep/internal/history"
	"github.com/shinji-kodama/train-sweep/internal/model"
	"github.com/shinji-kodama/train-sweep/internal/port"
	"github.com/shinji-kodama/train-sweep/internal/trainer"
)

// defaultBoardPort is TensorBoard's own default port.
const defaultBoardPort = 6006

// boardFlags holds the flag values for the board command.
type boardFlags struct {
	// port is the preferred TCP port; the next free one above it is
	// used when taken.
	port int

	// logdir overrides the resolved log directory entirely.
	logdir string
}

// NewBoardCommand creates the "board" cobra command.
func NewBoardCommand() *cobra.Command {
	flags := &boardFlags{}

	cmd := &cobra.Command{
		Use:   "board [sweep-id]",
		Short: "Launch TensorBoard for recorded sweeps",
		Long: `Launch TensorBoard over a sweep's log directories.

With a sweep ID, the log directory comes from the sweep's recorded
artifact location. Without one, TensorBoard is pointed at the artifact
root so all recorded experiments are browsable together. TensorBoard
runs in the foreground until interrupted.

Examples:
  train-sweep board
  train-sweep board 20260314-092653
  train-sweep board --port 6007 --logdir ~/Documents/DeepLearningData`,

		Args: cobra.MaximumNArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			sweepID := ""
			if len(args) == 1 {
				sweepID = args[0]
			}
			return runBoard(cmd.Context(), sweepID, flags)
		},
	}

	cmd.Flags().IntVar(&flags.port, "port", defaultBoardPort, "Preferred TCP port for TensorBoard")
	cmd.Flags().StringVar(&flags.logdir, "logdir", "", "Log directory (default: resolved from the sweep or artifact root)")

	return cmd
}

// runBoard is the main logic function for the board command.
func runBoard(ctx context.Context, sweepID string, flags *boardFlags) error {
	log := Logger()

	// Step 1: Verify tensorboard is installed before anything else.
	binary, err := trainer.LookTensorBoard()
	if err != nil {
		return model.WrapCLIError(model.ExitScriptNotFound, "tensorboard not available", err)
	}
	log.Debug("tensorboard resolved", zap.String("path", binary))

	// Step 2: Resolve the log directory.
	logdir, err := resolveBoardLogdir(sweepID, flags.logdir)
	if err != nil {
		return err
	}

	// Step 3: Pick a free port at or above the preferred one.
	picker := port.NewPicker(port.NewScanner())
	boardPort, err := picker.Pick(flags.port)
	if err != nil {
		return model.WrapCLIError(model.ExitPortAllocationFailed, "no port available for TensorBoard", err)
	}
	if boardPort != flags.port {
		fmt.Printf("Port %d is in use; using %d instead.\n", flags.port, boardPort)
	}

	// Step 4: Run TensorBoard in the foreground until interrupted.
	fmt.Printf("Starting TensorBoard on http://localhost:%d (logdir %s)\n", boardPort, logdir)
	if err := trainer.RunTensorBoard(ctx, logdir, boardPort, nil, nil); err != nil {
		// Ctrl-C is the normal way to leave TensorBoard.
		if ctx.Err() != nil {
			return nil
		}
		return model.WrapCLIError(model.ExitGeneralError, "tensorboard failed", err)
	}
	return nil
}

// resolveBoardLogdir decides which directory TensorBoard watches:
// the --logdir override, the given sweep's recorded artifact location,
// or the default artifact root, in that order.
func resolveBoardLogdir(sweepID, override string) (string, error) {
	if override != "" {
		expanded, err := config.ExpandUser(override)
		if err != nil {
			return "", model.WrapCLIError(model.ExitConfigError, "invalid --logdir", err)
		}
		return expanded, nil
	}

	if sweepID != "" {
		if err := model.ValidateStampID(sweepID); err != nil {
			return "", model.WrapCLIError(model.ExitConfigError,
				fmt.Sprintf("invalid sweep ID %q", sweepID), err)
		}
		store, err := openHistory()
		if err != nil {
			return "", err
		}
		defer func() { _ = store.Close() }()

		rec, err := store.GetSweep(sweepID)
		if err != nil {
			if errors.Is(err, history.ErrNotFound) {
				return "", model.NewCLIError(model.ExitGeneralError,
					fmt.Sprintf("sweep %q not found — see `train-sweep list`", sweepID))
			}
			return "", model.WrapCLIError(model.ExitHistoryError, "failed to load sweep", err)
		}
		return sweepLogdir(rec), nil
	}

	expanded, err := config.ExpandUser(config.DefaultArtifactRoot)
	if err != nil {
		return "", model.WrapCLIError(model.ExitConfigError, "failed to resolve artifact root", err)
	}
	return expanded, nil
}

// sweepLogdir picks the narrowest directory covering every run of the
// sweep: the single run directory when all runs share one, otherwise
// the sweep's artifact root (grid sweeps spread runs across several
// directories).
func sweepLogdir(rec *history.SweepRecord) string {
	dir := ""
	for _, run := range rec.Runs {
		if run.ArtifactDir == "" {
			continue
		}
		if dir == "" {
			dir = run.ArtifactDir
			continue
		}
		if run.ArtifactDir != dir {
			return rec.ArtifactRoot
		}
	}
	if dir == "" {
		return rec.ArtifactRoot
	}
	return dir
}
