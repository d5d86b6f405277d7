// Package cli — plan.go implements the "train-sweep plan" command.
//
// Plan is the dry-run counterpart of run: it merges and validates the
// same configuration, expands the grid, and prints every trainer
// invocation the batch would execute — without touching the trainer,
// Docker, or the history database.
//
// Orchestration steps:
//  1. Merge settings (defaults < preset < sweep file < explicit flags)
//  2. Validate the merged settings
//  3. Stamp and expand the plan
//  4. Print the invocations
package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/train-sweep/internal/config"
	"github.com/shinji-kodama/train-sweep/internal/docker"
	"github.com/shinji-kodama/train-sweep/internal/model"
	"github.com/shinji-kodama/train-sweep/internal/sweep"
)

// NewPlanCommand creates the "plan" cobra command.
func NewPlanCommand() *cobra.Command {
	flags := &sweepFlags{}

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show what a sweep would execute without running it",
		Long: `Show every trainer invocation a sweep would execute.

Plan resolves the same configuration as run — defaults, preset, sweep
file, and flags — and prints the expanded invocation list. Nothing is
executed and nothing is recorded. The printed stamp is illustrative;
each run command stamps its own batch at start time.

Examples:
  train-sweep plan
  train-sweep plan --config sweep.yaml
  train-sweep plan --preset resnet56 --runs 3`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(cmd, flags)
		},
	}

	addSweepFlags(cmd, flags)

	return cmd
}

// runPlan is the main orchestration function for the plan command.
func runPlan(cmd *cobra.Command, flags *sweepFlags) error {
	// Step 1: Merge settings from defaults, preset, sweep file, flags.
	settings, err := buildSettings(cmd, flags)
	if err != nil {
		return err
	}

	// Step 2: Validate the merged settings.
	if errs := config.ValidateSettings(settings); len(errs) > 0 {
		return model.NewCLIError(model.ExitConfigError, validationMessage(errs))
	}

	// Step 3: Stamp and expand. The stamp here is whatever "now" is;
	// a later run gets its own.
	sw, err := settings.Sweep(time.Now())
	if err != nil {
		return model.WrapCLIError(model.ExitConfigError, "failed to assemble sweep", err)
	}
	plan, err := sweep.BuildPlan(sw, settings.Grid)
	if err != nil {
		return model.WrapCLIError(model.ExitConfigError, "invalid sweep plan", err)
	}

	// Step 4: Output the plan.
	printPlan(plan)
	return nil
}

// printPlan outputs the plan in text or JSON format.
func printPlan(plan *sweep.Plan) {
	if IsJSONOutput() {
		printPlanJSON(plan)
	} else {
		printPlanText(plan)
	}
}

// printPlanJSON outputs the full plan as structured JSON.
func printPlanJSON(plan *sweep.Plan) {
	data, _ := json.MarshalIndent(plan, "", "  ")
	fmt.Println(string(data))
}

// printPlanText outputs the plan as human-readable text: a summary
// header followed by one command line per invocation.
func printPlanText(plan *sweep.Plan) {
	sw := plan.Sweep

	fmt.Printf("Sweep %s: %d point(s) x %d run(s) = %d invocation(s)\n",
		sw.ID, len(plan.Points), sw.Runs, plan.TotalRuns())
	fmt.Printf("  Model:     %s\n", sw.Params.ModelName())
	fmt.Printf("  Runner:    %s\n", sw.Runner)
	fmt.Printf("  Script:    %s\n", sw.Script)
	fmt.Printf("  Artifacts: %s\n", sw.ArtifactRoot)
	fmt.Printf("  Env:       %s\n", planEnv(sw))
	fmt.Println()

	for _, inv := range plan.Invocations {
		header := fmt.Sprintf("run %d/%d", inv.RunIndex, sw.Runs)
		if label := inv.Point.Label(); label != "" {
			header = label + ", " + header
		}
		fmt.Printf("%4d. [%s]\n", inv.Seq, header)
		fmt.Printf("      %s %s %s\n", sw.Python, sw.Script, strings.Join(inv.Args, " "))
		fmt.Printf("      -> %s\n", inv.ArtifactDir)
	}
}

// planEnv renders the one environment change every invocation sees: the
// local runner appends the source root to the host PYTHONPATH, the
// Docker runner pins it to the container workspace.
func planEnv(sw *model.Sweep) string {
	if sw.Runner.IsDocker() {
		return "PYTHONPATH=" + docker.ContainerWorkspace
	}
	return "PYTHONPATH=$PYTHONPATH:" + sw.SourceRoot
}
