// config.go implements sweep-file loading and the settings merge chain.
//
// The loader accepts YAML and JSONC. JSONC support matters because sweep
// files tend to accumulate commented-out alternative configurations, and
// plain encoding/json rejects comments.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/shinji-kodama/train-sweep/internal/model"
)

// Default values for settings not covered by model.DefaultHParams.
const (
	// DefaultScript is the trainer program the sweep driver invokes.
	DefaultScript = "train_resnet_cifar10_tf.py"

	// DefaultPython is the interpreter used for the local runner.
	DefaultPython = "python"

	// DefaultRuns is the number of repetitions per parameter set.
	DefaultRuns = 5

	// DefaultImage is the container image for the docker runner.
	DefaultImage = "tensorflow/tensorflow:2.15.0"
)

// DefaultArtifactRoot is the directory prefix the trainer writes
// checkpoints and logs under. The leading "~" is expanded against the
// user home directory when the sweep is built.
const DefaultArtifactRoot = "~/Documents/DeepLearningData"

// sweepFileNames lists the file names FindSweepFile looks for, in
// preference order.
var sweepFileNames = []string{
	"train-sweep.yaml",
	"train-sweep.yml",
	"train-sweep.json",
	"train-sweep.jsonc",
}

// SweepFile is the raw representation of a sweep definition file.
// Pointer and zero-value fields distinguish "not set" from explicit
// values so the merge chain only overrides what the file actually says.
type SweepFile struct {
	// Script is the trainer program path, relative to SourceRoot
	// unless absolute.
	Script string `json:"script" yaml:"script"`

	// Python is the interpreter for the local runner.
	Python string `json:"python" yaml:"python"`

	// SourceRoot is the directory containing the trainer sources.
	SourceRoot string `json:"source_root" yaml:"source_root"`

	// ArtifactRoot overrides the trainer output prefix.
	ArtifactRoot string `json:"artifact_root" yaml:"artifact_root"`

	// Runs is the repetition count per parameter set.
	Runs *int `json:"runs" yaml:"runs"`

	// Runner selects "local" or "docker".
	Runner string `json:"runner" yaml:"runner"`

	// Image is the container image for the docker runner.
	Image string `json:"image" yaml:"image"`

	// Preset names a built-in preset applied before the file's own
	// params overrides.
	Preset string `json:"preset" yaml:"preset"`

	// Params partially overrides hyperparameters.
	Params ParamsPatch `json:"params" yaml:"params"`

	// Grid maps hyperparameter names to value lists. The cartesian
	// product of all listed values is swept.
	Grid map[string][]interface{} `json:"grid" yaml:"grid"`
}

// ParamsPatch is a partial hyperparameter override. Every field is a
// pointer so that absent keys leave the lower-precedence value intact.
type ParamsPatch struct {
	N                 *int     `json:"n" yaml:"n"`
	Version           *int     `json:"version" yaml:"version"`
	Dataset           *string  `json:"dataset" yaml:"dataset"`
	DataPreprocessing *string  `json:"data_preprocessing" yaml:"data_preprocessing"`
	DataAugmentation  *string  `json:"data_augmentation" yaml:"data_augmentation"`
	ValidationSplit   *float64 `json:"validation_split" yaml:"validation_split"`
	BatchSize         *int     `json:"batch_size" yaml:"batch_size"`
	Epochs            *int     `json:"epochs" yaml:"epochs"`
	LearningRate      *float64 `json:"learning_rate" yaml:"learning_rate"`
	OptimizerName     *string  `json:"optimizer_name" yaml:"optimizer_name"`
	WeightDecay       *float64 `json:"weight_decay" yaml:"weight_decay"`
	Momentum          *float64 `json:"momentum" yaml:"momentum"`
	LRSchedule        *string  `json:"lr_schedule" yaml:"lr_schedule"`
	Seed              *int     `json:"seed" yaml:"seed"`
}

// Apply overlays the patch onto a hyperparameter set and returns the result.
func (p ParamsPatch) Apply(h model.HParams) model.HParams {
	if p.N != nil {
		h.N = *p.N
	}
	if p.Version != nil {
		h.Version = *p.Version
	}
	if p.Dataset != nil {
		h.Dataset = *p.Dataset
	}
	if p.DataPreprocessing != nil {
		h.DataPreprocessing = *p.DataPreprocessing
	}
	if p.DataAugmentation != nil {
		h.DataAugmentation = *p.DataAugmentation
	}
	if p.ValidationSplit != nil {
		h.ValidationSplit = *p.ValidationSplit
	}
	if p.BatchSize != nil {
		h.BatchSize = *p.BatchSize
	}
	if p.Epochs != nil {
		h.Epochs = *p.Epochs
	}
	if p.LearningRate != nil {
		h.LearningRate = *p.LearningRate
	}
	if p.OptimizerName != nil {
		h.OptimizerName = *p.OptimizerName
	}
	if p.WeightDecay != nil {
		h.WeightDecay = *p.WeightDecay
	}
	if p.Momentum != nil {
		h.Momentum = *p.Momentum
	}
	if p.LRSchedule != nil {
		h.LRSchedule = *p.LRSchedule
	}
	if p.Seed != nil {
		seed := *p.Seed
		h.Seed = &seed
	}
	return h
}

// Load reads and parses a sweep file. The format is chosen by file
// extension: .yaml/.yml use the YAML parser, .json/.jsonc strip comments
// with jsonc before JSON parsing.
func Load(path string) (*SweepFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sweep file %s: %w", path, err)
	}

	var file SweepFile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("failed to parse sweep file %s: %w", path, err)
		}
	case ".json", ".jsonc":
		// jsonc.ToJSON strips // and /* */ comments plus trailing
		// commas, producing strict JSON of the same length.
		clean := jsonc.ToJSON(data)
		if err := json.Unmarshal(clean, &file); err != nil {
			return nil, fmt.Errorf("failed to parse sweep file %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("unsupported sweep file extension %q (expected .yaml, .yml, .json, or .jsonc)", filepath.Ext(path))
	}

	return &file, nil
}

// FindSweepFile searches dir for a sweep file with one of the default
// names. Returns the first match and true, or "" and false when the
// directory carries no sweep file.
func FindSweepFile(dir string) (string, bool) {
	for _, name := range sweepFileNames {
		candidate := filepath.Join(dir, name)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true
		}
	}
	return "", false
}

// Settings is the fully merged sweep definition, ready to be turned
// into a model.Sweep. The merge chain builds it up in precedence order:
// DefaultSettings, ApplyPreset, ApplyFile, then flag overrides applied
// by the CLI layer.
type Settings struct {
	Script       string
	Python       string
	SourceRoot   string
	ArtifactRoot string
	Runs         int
	Runner       model.RunnerKind
	Image        string
	Preset       string
	Params       model.HParams

	// Grid holds normalized grid axes: parameter name to the string
	// renderings of its values. Empty when the sweep has no grid.
	Grid map[string][]string
}

// DefaultSettings returns the settings the CLI starts from before any
// preset, file, or flag is applied.
func DefaultSettings() *Settings {
	return &Settings{
		Script:       DefaultScript,
		Python:       DefaultPython,
		SourceRoot:   ".",
		ArtifactRoot: DefaultArtifactRoot,
		Runs:         DefaultRuns,
		Runner:       model.RunnerLocal,
		Image:        DefaultImage,
		Params:       model.DefaultHParams(),
	}
}

// ApplyPreset overlays a named preset onto the settings.
// Returns an error for unknown preset names.
func (s *Settings) ApplyPreset(name string) error {
	preset, ok := LookupPreset(name)
	if !ok {
		return fmt.Errorf("unknown preset %q (available: %s)", name, strings.Join(PresetNames(), ", "))
	}
	s.Preset = preset.Name
	s.Params = preset.Patch.Apply(s.Params)
	return nil
}

// ApplyFile overlays a parsed sweep file onto the settings. A preset
// named inside the file is applied first, then the file's own fields.
func (s *Settings) ApplyFile(file *SweepFile) error {
	if file.Preset != "" {
		if err := s.ApplyPreset(file.Preset); err != nil {
			return err
		}
	}
	if file.Script != "" {
		s.Script = file.Script
	}
	if file.Python != "" {
		s.Python = file.Python
	}
	if file.SourceRoot != "" {
		s.SourceRoot = file.SourceRoot
	}
	if file.ArtifactRoot != "" {
		s.ArtifactRoot = file.ArtifactRoot
	}
	if file.Runs != nil {
		s.Runs = *file.Runs
	}
	if file.Runner != "" {
		kind, err := model.ParseRunnerKind(file.Runner)
		if err != nil {
			return err
		}
		s.Runner = kind
	}
	if file.Image != "" {
		s.Image = file.Image
	}
	s.Params = file.Params.Apply(s.Params)

	if len(file.Grid) > 0 {
		grid, err := normalizeGrid(file.Grid)
		if err != nil {
			return err
		}
		s.Grid = grid
	}
	return nil
}

// Sweep converts the merged settings into a model.Sweep stamped with the
// given batch time. Relative source roots are made absolute and a
// leading "~" in the artifact root is expanded, so every path recorded
// in history is unambiguous.
func (s *Settings) Sweep(now time.Time) (*model.Sweep, error) {
	sourceRoot, err := filepath.Abs(s.SourceRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve source root %s: %w", s.SourceRoot, err)
	}

	artifactRoot, err := ExpandUser(s.ArtifactRoot)
	if err != nil {
		return nil, err
	}

	sweep := &model.Sweep{
		ID:           model.NewStampID(now),
		Script:       s.Script,
		Python:       s.Python,
		SourceRoot:   sourceRoot,
		ArtifactRoot: artifactRoot,
		Runner:       s.Runner,
		Image:        s.Image,
		Preset:       s.Preset,
		Runs:         s.Runs,
		Params:       s.Params,
		CreatedAt:    now,
	}
	return sweep, nil
}

// ExpandUser resolves a leading "~/" against the current user's home
// directory, matching what the trainer does with its own output prefix.
func ExpandUser(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	if path == "~" {
		return home, nil
	}
	return filepath.Join(home, path[2:]), nil
}

// normalizeGrid renders every grid value as the string that will appear
// on the trainer command line. Axis names are validated against the
// gridable parameter set.
func normalizeGrid(raw map[string][]interface{}) (map[string][]string, error) {
	grid := make(map[string][]string, len(raw))
	for name, values := range raw {
		if !IsGridParam(name) {
			return nil, fmt.Errorf("grid parameter %q is not sweepable (valid: %s)", name, strings.Join(GridParamNames(), ", "))
		}
		if len(values) == 0 {
			return nil, fmt.Errorf("grid parameter %q has no values", name)
		}
		rendered := make([]string, 0, len(values))
		for _, v := range values {
			str, err := renderGridValue(v)
			if err != nil {
				return nil, fmt.Errorf("grid parameter %q: %w", name, err)
			}
			rendered = append(rendered, str)
		}
		grid[name] = rendered
	}
	return grid, nil
}

// renderGridValue converts a YAML/JSON scalar into its command-line
// string form. JSON numbers arrive as float64, YAML preserves ints.
func renderGridValue(v interface{}) (string, error) {
	switch val := v.(type) {
	case string:
		return val, nil
	case int:
		return strconv.Itoa(val), nil
	case int64:
		return strconv.FormatInt(val, 10), nil
	case float64:
		return model.FormatFloat(val), nil
	case bool:
		return strconv.FormatBool(val), nil
	default:
		return "", fmt.Errorf("unsupported value type %T", v)
	}
}

// gridParams lists the hyperparameters a grid block may sweep over.
var gridParams = []string{
	"batch_size",
	"data_augmentation",
	"data_preprocessing",
	"epochs",
	"learning_rate",
	"lr_schedule",
	"momentum",
	"n",
	"optimizer_name",
	"validation_split",
	"version",
	"weight_decay",
}

// IsGridParam reports whether name is a sweepable hyperparameter.
func IsGridParam(name string) bool {
	for _, p := range gridParams {
		if p == name {
			return true
		}
	}
	return false
}

// GridParamNames returns the sweepable hyperparameter names, sorted.
func GridParamNames() []string {
	names := make([]string, len(gridParams))
	copy(names, gridParams)
	sort.Strings(names)
	return names
}
