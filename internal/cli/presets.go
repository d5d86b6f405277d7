// Package cli — presets.go implements the "train-sweep presets" command.
//
// The presets command lists the built-in hyperparameter presets with
// the model each one resolves to, so users can pick one for --preset
// without reading source.
package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/train-sweep/internal/config"
	"github.com/shinji-kodama/train-sweep/internal/model"
)

// NewPresetsCommand creates the "presets" cobra command.
func NewPresetsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "presets",
		Short: "List the built-in parameter presets",
		Long: `List the built-in hyperparameter presets.

A preset is a patch applied over the default recipe; pass its name to
run or plan with --preset. Flags and sweep files still override preset
values.

Examples:
  train-sweep presets
  train-sweep presets --json`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			runPresets()
			return nil
		},
	}

	return cmd
}

// runPresets is the main logic function for the presets command.
func runPresets() {
	printPresets(config.Presets())
}

// printPresets outputs the preset list in text or JSON format.
func printPresets(presets []config.Preset) {
	if IsJSONOutput() {
		printPresetsJSON(presets)
	} else {
		printPresetsText(presets)
	}
}

// printPresetsJSON outputs the presets as structured JSON, each with
// the fully resolved hyperparameters the preset produces over the
// defaults.
func printPresetsJSON(presets []config.Preset) {
	type presetJSON struct {
		Name        string        `json:"name"`
		Description string        `json:"description"`
		Model       string        `json:"model"`
		Params      model.HParams `json:"params"`
	}
	type resultJSON struct {
		Presets []presetJSON `json:"presets"`
	}

	result := resultJSON{Presets: make([]presetJSON, 0, len(presets))}
	for _, p := range presets {
		params := p.Patch.Apply(model.DefaultHParams())
		result.Presets = append(result.Presets, presetJSON{
			Name:        p.Name,
			Description: p.Description,
			Model:       params.ModelName(),
			Params:      params,
		})
	}

	data, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(data))
}

// printPresetsText outputs the presets as a human-readable table.
func printPresetsText(presets []config.Preset) {
	fmt.Printf("%-12s %-22s %s\n", "NAME", "MODEL", "DESCRIPTION")
	for _, p := range presets {
		params := p.Patch.Apply(model.DefaultHParams())
		fmt.Printf("%-12s %-22s %s\n", p.Name, params.ModelName(), p.Description)
	}
}
