// Package cli — clean.go implements the "train-sweep clean" command.
//
// The clean command removes leftover trainer containers. The docker
// runner starts containers with --rm, so normally nothing survives a
// run; containers linger only after a daemon restart or a kill -9 of
// the CLI. Discovery goes through the "trainsweep.managed-by" label,
// so only containers this tool started are ever touched.
//
// Orchestration steps:
//  1. Connect to Docker and verify the daemon is available
//  2. Discover managed trainer containers
//  3. Select targets: exited containers, plus running ones with --all
//  4. Prompt for confirmation unless --force
//  5. Stop (if needed) and remove each target
package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/shinji-kodama/train-sweep/internal/docker"
	"github.com/shinji-kodama/train-sweep/internal/model"
)

// cleanFlags holds the flag values for the clean command.
type cleanFlags struct {
	// force skips the interactive confirmation prompt when true.
	force bool

	// all also stops and removes running trainer containers.
	all bool
}

// NewCleanCommand creates the "clean" cobra command.
func NewCleanCommand() *cobra.Command {
	flags := &cleanFlags{}

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove leftover trainer containers",
		Long: `Remove leftover trainer containers.

Only containers labeled as started by train-sweep are considered. By
default only exited containers are removed; --all also stops and
removes running ones, which aborts the trainer processes inside them.

Examples:
  train-sweep clean
  train-sweep clean --force
  train-sweep clean --all`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runClean(cmd.Context(), flags)
		},
	}

	cmd.Flags().BoolVar(&flags.force, "force", false, "Skip the confirmation prompt")
	cmd.Flags().BoolVar(&flags.all, "all", false, "Also stop and remove running trainer containers")

	return cmd
}

// runClean is the main logic function for the clean command.
func runClean(ctx context.Context, flags *cleanFlags) error {
	log := Logger()

	// Step 1: Connect to Docker and verify the daemon is available.
	cli, err := docker.NewClient()
	if err != nil {
		return err
	}
	defer func() { _ = cli.Close() }()
	if err := cli.Ping(ctx); err != nil {
		return err
	}

	// Step 2: Discover managed trainer containers.
	containers, err := docker.ListManagedContainers(ctx, cli)
	if err != nil {
		return err
	}
	if len(containers) == 0 {
		fmt.Println("No managed trainer containers found.")
		return nil
	}

	// Step 3: Partition and select targets.
	var running, exited []model.ContainerInfo
	for _, c := range containers {
		if c.Status == "running" {
			running = append(running, c)
		} else {
			exited = append(exited, c)
		}
	}

	targets := exited
	if flags.all {
		targets = append(targets, running...)
	}
	if len(targets) == 0 {
		fmt.Printf("No containers to remove (%d running; use --all to include them).\n", len(running))
		return nil
	}

	// Step 4: Prompt for confirmation unless --force is specified.
	if !flags.force {
		confirmed, err := promptCleanConfirmation(targets, flags.all)
		if err != nil {
			return model.WrapCLIError(model.ExitGeneralError, "failed to read user input", err)
		}
		if !confirmed {
			return model.NewCLIError(model.ExitUserCancelled, "operation cancelled by user")
		}
	}

	// Step 5: Stop running targets, then remove everything selected.
	removed := make([]model.ContainerInfo, 0, len(targets))
	for _, c := range targets {
		if c.Status == "running" {
			log.Debug("stopping container", zap.String("name", c.ContainerName))
			if err := docker.StopContainer(ctx, cli, c.ContainerID); err != nil {
				return model.WrapCLIError(model.ExitGeneralError,
					fmt.Sprintf("failed to stop container %s", c.ContainerName), err)
			}
		}
		log.Debug("removing container", zap.String("name", c.ContainerName))
		if err := docker.RemoveContainer(ctx, cli, c.ContainerID, false); err != nil {
			return model.WrapCLIError(model.ExitGeneralError,
				fmt.Sprintf("failed to remove container %s", c.ContainerName), err)
		}
		removed = append(removed, c)
	}

	printCleanResult(removed)
	return nil
}

// promptCleanConfirmation asks the user to confirm the removal. It
// reads a single line from stdin and checks for "y" or "yes".
func promptCleanConfirmation(targets []model.ContainerInfo, includesRunning bool) (bool, error) {
	fmt.Printf("About to remove %d trainer container(s):\n", len(targets))
	for _, c := range targets {
		fmt.Printf("  - %s (%s)\n", c.ContainerName, c.Status)
	}
	if includesRunning {
		fmt.Println("Running containers will be stopped first.")
	}
	fmt.Print("\nContinue? [y/N] ")

	scanner := bufio.NewScanner(os.Stdin)
	if scanner.Scan() {
		answer := strings.TrimSpace(strings.ToLower(scanner.Text()))
		return answer == "y" || answer == "yes", nil
	}

	// Closed stdin reads as "no".
	if err := scanner.Err(); err != nil {
		return false, err
	}
	return false, nil
}

// printCleanResult outputs the clean result in text or JSON format.
func printCleanResult(removed []model.ContainerInfo) {
	if IsJSONOutput() {
		printCleanResultJSON(removed)
	} else {
		printCleanResultText(removed)
	}
}

// printCleanResultJSON outputs the removed containers as structured JSON.
func printCleanResultJSON(removed []model.ContainerInfo) {
	type resultJSON struct {
		Removed []model.ContainerInfo `json:"removed"`
	}

	result := resultJSON{Removed: removed}
	if result.Removed == nil {
		result.Removed = []model.ContainerInfo{}
	}

	data, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(data))
}

// printCleanResultText outputs the clean result as human-readable text.
func printCleanResultText(removed []model.ContainerInfo) {
	fmt.Printf("Removed %d trainer container(s).\n", len(removed))
	for _, c := range removed {
		fmt.Printf("  - %s\n", c.ContainerName)
	}
}
