// Package cli implements the cobra-based CLI commands for train-sweep.
//
// Each subcommand (run, plan, list, show, presets, clean, board) is
// defined in its own file within this package. This file defines the
// root command that serves as the parent for all subcommands and
// handles global flags, logging setup, and signal handling.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zapcore"

	"github.com/shinji-kodama/train-sweep/internal/history"
	"github.com/shinji-kodama/train-sweep/internal/model"
)

// Global flag variables shared across all subcommands. These are bound
// to cobra persistent flags on the root command, which makes them
// available to every subcommand automatically.
var (
	// jsonOutput controls whether command output is formatted as JSON.
	// When false (default), output uses human-readable text format.
	jsonOutput bool

	// verbose lowers the diagnostic log level to Debug.
	verbose bool

	// historyPath overrides the history database location. Empty means
	// the default under the user's home directory.
	historyPath string
)

// logger is the process-wide diagnostic logger, built in the root
// command's PersistentPreRunE. Human-facing command output goes to
// stdout through the print helpers; the logger carries diagnostics on
// stderr.
var logger *zap.Logger

// version, commit, and date are set at build time via ldflags. They are
// injected from the main package to display version information.
var (
	// Version is the semantic version of the binary (e.g., "1.0.0").
	Version = "dev"

	// Commit is the Git commit hash the binary was built from.
	Commit = "none"

	// Date is the build timestamp.
	Date = "unknown"
)

// NewRootCommand creates and configures the root cobra command. This is
// the entry point for the entire CLI application.
//
// The root command itself does not perform any action — it only
// provides help text, global flags, and the shared logger. Actual
// functionality is provided by subcommands.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "train-sweep",
		Short: "Repeated-run hyperparameter sweeps for the CIFAR-10 ResNet trainer",
		Long: `train-sweep drives the train_resnet_cifar10_tf.py trainer through repeated
runs and hyperparameter grids. All runs of a batch share one timestamp, so
their artifacts land side by side in the trainer's directory tree; each run
only differs in its --run counter and the grid point's parameters.

Runs execute strictly one at a time, a failed run never stops the batch,
and the batch exits with the status of the last failure.`,

		// SilenceUsage prevents cobra from printing usage on every
		// error; SilenceErrors leaves error formatting (text or JSON)
		// to Execute.
		SilenceUsage:  true,
		SilenceErrors: true,

		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date),

		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			config := zap.NewProductionConfig()
			if verbose {
				config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			}
			var err error
			logger, err = config.Build()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
	}

	// PersistentFlags are inherited by all subcommands.
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&historyPath, "history-db", "", "History database path (default ~/.train-sweep/history.db)")

	// Register subcommands. Each subcommand is defined in its own file
	// (run.go, list.go, etc.) and returns a *cobra.Command.
	rootCmd.AddCommand(NewRunCommand())
	rootCmd.AddCommand(NewPlanCommand())
	rootCmd.AddCommand(NewListCommand())
	rootCmd.AddCommand(NewShowCommand())
	rootCmd.AddCommand(NewPresetsCommand())
	rootCmd.AddCommand(NewCleanCommand())
	rootCmd.AddCommand(NewBoardCommand())

	return rootCmd
}

// Execute runs the root command and handles exit codes. This is the
// main entry point called from main.go.
//
// SIGINT and SIGTERM cancel the command context: a trainer in flight is
// killed, its run recorded as failed, and runs not yet started are left
// pending. Errors returned by commands are translated into OS exit
// codes — CLIError types carry their own, everything else exits 1.
func Execute(rootCmd *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		// A type assertion suffices here; CLIError is never wrapped at
		// this level.
		if cliErr, ok := err.(*model.CLIError); ok {
			printError(cliErr.Message, cliErr.Err)
			os.Exit(int(cliErr.Code))
		}

		printError(err.Error(), nil)
		os.Exit(int(model.ExitGeneralError))
	}
}

// Logger returns the process-wide diagnostic logger. Safe to call
// before the root command ran (returns a no-op logger then), which
// keeps tests of individual helpers independent of cobra.
func Logger() *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

// printError outputs an error message in the appropriate format (JSON
// or text) based on the --json global flag. Errors go to stderr even in
// JSON mode, because stdout is reserved for successful command output.
func printError(message string, underlying error) {
	if jsonOutput {
		errObj := map[string]interface{}{
			"error": map[string]interface{}{
				"message": message,
			},
		}
		if underlying != nil {
			if errMap, ok := errObj["error"].(map[string]interface{}); ok {
				errMap["detail"] = underlying.Error()
			}
		}
		data, _ := json.MarshalIndent(errObj, "", "  ")
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		if underlying != nil {
			fmt.Fprintf(os.Stderr, "Error: %s: %v\n", message, underlying)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %s\n", message)
		}
	}
}

// IsJSONOutput returns whether the --json flag is set. Subcommands use
// this to decide their output format.
func IsJSONOutput() bool {
	return jsonOutput
}

// openHistory opens the run history store, honoring the --history-db
// override. Shared by every subcommand that touches history.
func openHistory() (*history.Store, error) {
	path := historyPath
	if path == "" {
		var err error
		path, err = history.DefaultPath()
		if err != nil {
			return nil, model.WrapCLIError(model.ExitHistoryError, "failed to resolve history database path", err)
		}
	}

	store, err := history.Open(path)
	if err != nil {
		return nil, model.WrapCLIError(model.ExitHistoryError, fmt.Sprintf("failed to open history database %s", path), err)
	}
	return store, nil
}
