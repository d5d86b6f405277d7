// Package cli — list.go implements the "train-sweep list" command.
//
// The list command displays recorded sweeps from the history database,
// newest first, as a text table or JSON array depending on the --json
// flag. An optional --status flag filters by sweep outcome.
package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/train-sweep/internal/history"
	"github.com/shinji-kodama/train-sweep/internal/model"
)

// listFlags holds the flag values for the list command.
type listFlags struct {
	// limit caps how many sweeps are shown, newest first.
	limit int

	// status filters sweeps by their derived outcome.
	// Valid values: "succeeded", "failed", "partial", "all" (default).
	status string
}

// NewListCommand creates the "list" cobra command.
func NewListCommand() *cobra.Command {
	flags := &listFlags{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded sweeps",
		Long: `List sweeps recorded in the history database, newest first.

Each sweep is shown with its stamp, model, runner, run counts, and
derived status. A sweep whose recorded runs fall short of its plan is
reported as partial — typically an interrupted batch.

Examples:
  train-sweep list
  train-sweep list --status failed
  train-sweep list --limit 5 --json`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(flags)
		},
	}

	cmd.Flags().IntVar(&flags.limit, "limit", 20, "Maximum number of sweeps to show")
	cmd.Flags().StringVar(&flags.status, "status", "all",
		"Filter by status: succeeded, failed, partial, all (default: all)")

	return cmd
}

// runList is the main logic function for the list command.
func runList(flags *listFlags) error {
	// Step 1: Validate the --status flag value.
	switch flags.status {
	case "all", "succeeded", "failed", "partial":
	default:
		return model.NewCLIError(model.ExitConfigError,
			fmt.Sprintf("invalid status filter %q: valid values are succeeded, failed, partial, all", flags.status))
	}

	// Step 2: Open the history database.
	store, err := openHistory()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	// Step 3: Load the newest sweeps.
	sweeps, err := store.ListSweeps(flags.limit)
	if err != nil {
		return model.WrapCLIError(model.ExitHistoryError, "failed to list sweeps", err)
	}

	// Step 4: Apply the --status filter. The status is derived from run
	// counts, so filtering happens here rather than in SQL.
	if flags.status != "all" {
		filtered := make([]history.SweepSummary, 0, len(sweeps))
		for _, sum := range sweeps {
			if sum.Status() == flags.status {
				filtered = append(filtered, sum)
			}
		}
		sweeps = filtered
	}

	// Step 5: Output results in the appropriate format.
	printListResult(sweeps)
	return nil
}

// printListResult outputs the sweep list in text or JSON format.
func printListResult(sweeps []history.SweepSummary) {
	if IsJSONOutput() {
		printListResultJSON(sweeps)
	} else {
		printListResultText(sweeps)
	}
}

// printListResultJSON outputs the sweep list as structured JSON. The
// top-level key is "sweeps" containing an array of summary objects.
func printListResultJSON(sweeps []history.SweepSummary) {
	type listSweepJSON struct {
		history.SweepSummary
		Status string `json:"status"`
	}
	type resultJSON struct {
		Sweeps []listSweepJSON `json:"sweeps"`
	}

	// Empty slice rather than nil so JSON shows [] instead of null.
	result := resultJSON{Sweeps: make([]listSweepJSON, 0, len(sweeps))}
	for _, sum := range sweeps {
		result.Sweeps = append(result.Sweeps, listSweepJSON{
			SweepSummary: sum,
			Status:       sum.Status(),
		})
	}

	data, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(data))
}

// printListResultText outputs the sweep list as a human-readable text
// table with aligned columns.
//
// The table format is:
//
//	SWEEP            MODEL                 RUNNER  RUNS   STATUS     CREATED
//	20260314-092653  ResNet20v1_CIFAR10    local   5/5    succeeded  2026-03-14 09:26
func printListResultText(sweeps []history.SweepSummary) {
	if len(sweeps) == 0 {
		fmt.Println("No sweeps recorded.")
		return
	}

	fmt.Printf("%-17s %-22s %-7s %-6s %-10s %s\n",
		"SWEEP", "MODEL", "RUNNER", "RUNS", "STATUS", "CREATED")

	for _, sum := range sweeps {
		runs := fmt.Sprintf("%d/%d", sum.RunsRecorded, sum.RunsPlanned)
		fmt.Printf("%-17s %-22s %-7s %-6s %-10s %s\n",
			sum.ID,
			sum.Model,
			sum.Runner,
			runs,
			sum.Status(),
			sum.CreatedAt.Local().Format("2006-01-02 15:04"),
		)
	}
}
