// Package cli — show.go implements the "train-sweep show" command.
//
// The show command displays the full record of one sweep: its stored
// configuration snapshot and every recorded run with status, exit code,
// and timing.
package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/train-sweep/internal/history"
	"github.com/shinji-kodama/train-sweep/internal/model"
)

// NewShowCommand creates the "show" cobra command.
func NewShowCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <sweep-id>",
		Short: "Show one recorded sweep in detail",
		Long: `Show the stored configuration and per-run results of one sweep.

The sweep ID is the batch stamp printed by run and listed by list,
e.g. 20260314-092653.

Examples:
  train-sweep show 20260314-092653
  train-sweep show 20260314-092653 --json`,

		Args: cobra.ExactArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(args[0])
		},
	}

	return cmd
}

// runShow is the main logic function for the show command.
func runShow(sweepID string) error {
	// Step 1: Validate the sweep ID before hitting the database.
	if err := model.ValidateStampID(sweepID); err != nil {
		return model.WrapCLIError(model.ExitConfigError,
			fmt.Sprintf("invalid sweep ID %q", sweepID), err)
	}

	// Step 2: Open the history database.
	store, err := openHistory()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	// Step 3: Load the sweep and its runs.
	rec, err := store.GetSweep(sweepID)
	if err != nil {
		if errors.Is(err, history.ErrNotFound) {
			return model.NewCLIError(model.ExitGeneralError,
				fmt.Sprintf("sweep %q not found — see `train-sweep list`", sweepID))
		}
		return model.WrapCLIError(model.ExitHistoryError, "failed to load sweep", err)
	}

	// Step 4: Output in the appropriate format.
	printShowResult(rec)
	return nil
}

// printShowResult outputs the sweep record in text or JSON format.
func printShowResult(rec *history.SweepRecord) {
	if IsJSONOutput() {
		printShowResultJSON(rec)
	} else {
		printShowResultText(rec)
	}
}

// printShowResultJSON outputs the full sweep record as structured JSON.
func printShowResultJSON(rec *history.SweepRecord) {
	data, _ := json.MarshalIndent(rec, "", "  ")
	fmt.Println(string(data))
}

// printShowResultText outputs the sweep record as human-readable text:
// a header block followed by one row per recorded run.
func printShowResultText(rec *history.SweepRecord) {
	fmt.Printf("Sweep %s (%s)\n", rec.ID, rec.Status())
	fmt.Printf("  Model:     %s\n", rec.Model)
	fmt.Printf("  Script:    %s\n", rec.Script)
	fmt.Printf("  Runner:    %s\n", rec.Runner)
	if rec.Preset != "" {
		fmt.Printf("  Preset:    %s\n", rec.Preset)
	}
	fmt.Printf("  Runs:      %d recorded / %d planned\n", rec.RunsRecorded, rec.RunsPlanned)
	fmt.Printf("  Artifacts: %s\n", rec.ArtifactRoot)
	fmt.Printf("  Created:   %s\n", rec.CreatedAt.Local().Format("2006-01-02 15:04:05"))

	if len(rec.Runs) == 0 {
		fmt.Println("\nNo runs recorded.")
		return
	}

	fmt.Println()
	fmt.Printf("  %4s  %4s  %-28s %-10s %5s  %s\n", "SEQ", "RUN", "POINT", "STATUS", "EXIT", "DURATION")
	for _, run := range rec.Runs {
		point := run.PointLabel
		if point == "" {
			point = "-"
		}
		fmt.Printf("  %4d  %4d  %-28s %-10s %5d  %s\n",
			run.Seq, run.RunIndex, point, run.Status, run.ExitCode,
			run.Duration.Round(time.Second))
	}
}
