// presets.go defines the built-in hyperparameter presets.
//
// These are the alternative configurations that otherwise live as
// commented-out lines in sweep shell scripts: deeper ResNets, the v2
// architecture, and the Adam recipe. A preset is a patch over the
// defaults, so presets stay small and never drift from the base recipe.
package config

import "sort"

// Preset is a named hyperparameter patch with a human-readable summary.
type Preset struct {
	// Name is the identifier used with --preset and in sweep files.
	Name string `json:"name"`

	// Description summarizes the configuration for the presets command.
	Description string `json:"description"`

	// Patch is applied over the default hyperparameters.
	Patch ParamsPatch `json:"-"`
}

func intp(v int) *int { return &v }

func floatp(v float64) *float64 { return &v }

func stringp(v string) *string { return &v }

// builtinPresets holds every preset the tool ships with, keyed by name.
var builtinPresets = map[string]Preset{
	"resnet20": {
		Name:        "resnet20",
		Description: "ResNet20 v1, the default recipe (n=3)",
		Patch:       ParamsPatch{N: intp(3), Version: intp(1)},
	},
	"resnet32": {
		Name:        "resnet32",
		Description: "ResNet32 v1 (n=5)",
		Patch:       ParamsPatch{N: intp(5), Version: intp(1)},
	},
	"resnet56": {
		Name:        "resnet56",
		Description: "ResNet56 v1 (n=9)",
		Patch:       ParamsPatch{N: intp(9), Version: intp(1)},
	},
	"resnet110": {
		Name:        "resnet110",
		Description: "ResNet110 v1 (n=18)",
		Patch:       ParamsPatch{N: intp(18), Version: intp(1)},
	},
	"resnet29v2": {
		Name:        "resnet29v2",
		Description: "ResNet29 v2 (n=3, pre-activation blocks)",
		Patch:       ParamsPatch{N: intp(3), Version: intp(2)},
	},
	"adam": {
		Name:        "adam",
		Description: "ResNet20 v1 trained with Adam (lr=0.001, no momentum)",
		Patch: ParamsPatch{
			OptimizerName: stringp("Adam"),
			LearningRate:  floatp(0.001),
			Momentum:      floatp(0),
		},
	},
}

// LookupPreset returns the preset with the given name.
func LookupPreset(name string) (Preset, bool) {
	preset, ok := builtinPresets[name]
	return preset, ok
}

// Presets returns all built-in presets sorted by name.
func Presets() []Preset {
	presets := make([]Preset, 0, len(builtinPresets))
	for _, p := range builtinPresets {
		presets = append(presets, p)
	}
	sort.Slice(presets, func(i, j int) bool {
		return presets[i].Name < presets[j].Name
	})
	return presets
}

// PresetNames returns the built-in preset names sorted alphabetically.
func PresetNames() []string {
	names := make([]string, 0, len(builtinPresets))
	for name := range builtinPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
