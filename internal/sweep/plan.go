package sweep

import (
	"fmt"

	"github.com/shinji-kodama/train-sweep/internal/grid"
	"github.com/shinji-kodama/train-sweep/internal/model"
	"github.com/shinji-kodama/train-sweep/internal/trainer"
)

// Invocation is one planned trainer run: the grid point it belongs to,
// the fully resolved hyperparameters, and the exact argument list the
// runner will pass to the script.
type Invocation struct {
	// Seq is the 1-based position in batch execution order.
	Seq int `json:"seq"`

	// RunIndex is the 1-based repeat counter within the grid point. It
	// becomes the trainer's --run argument.
	RunIndex int `json:"run_index"`

	// Point is the grid point, empty for a plain repeat-only sweep.
	Point grid.Point `json:"point,omitempty"`

	// Params are the sweep parameters with the point's settings applied.
	Params model.HParams `json:"params"`

	// Args is the complete trainer argument list for this invocation.
	Args []string `json:"args"`

	// ArtifactDir is where the trainer will write this run's artifacts.
	ArtifactDir string `json:"artifact_dir"`
}

// Plan is a fully expanded sweep: every invocation in the order the
// driver will execute it. Points appear in grid.Expand order and each
// point's runs are consecutive, so Seq counts straight through.
type Plan struct {
	Sweep       *model.Sweep `json:"sweep"`
	Points      []grid.Point `json:"-"`
	Invocations []Invocation `json:"invocations"`
}

// TotalRuns returns the number of trainer invocations the plan holds.
func (p *Plan) TotalRuns() int {
	return len(p.Invocations)
}

// BuildPlan expands the grid axes against the sweep and builds every
// invocation up front. The sweep's stamp is shared by all invocations;
// only the grid settings and the run index vary between them.
//
// Each point's parameters are validated after applying its settings, so
// a grid axis holding an unsupported value fails here instead of midway
// through a multi-hour batch.
func BuildPlan(sw *model.Sweep, axes map[string][]string) (*Plan, error) {
	if err := sw.Validate(); err != nil {
		return nil, err
	}

	points := grid.Expand(axes)
	invocations := make([]Invocation, 0, len(points)*sw.Runs)

	seq := 0
	for _, point := range points {
		params, err := pointParams(sw.Params, point)
		if err != nil {
			return nil, err
		}
		artifactDir := params.RunDir(sw.ArtifactRoot, sw.ID)
		for run := 1; run <= sw.Runs; run++ {
			seq++
			invocations = append(invocations, Invocation{
				Seq:         seq,
				RunIndex:    run,
				Point:       point,
				Params:      params,
				Args:        trainer.BuildArgs(params, sw.ID, run),
				ArtifactDir: artifactDir,
			})
		}
	}

	return &Plan{Sweep: sw, Points: points, Invocations: invocations}, nil
}

// pointParams applies one grid point to a copy of the base parameters
// and validates the result.
func pointParams(base model.HParams, point grid.Point) (model.HParams, error) {
	params := base
	for _, setting := range point {
		if err := model.SetParam(&params, setting.Name, setting.Value); err != nil {
			return params, fmt.Errorf("grid point %q: %w", point.Label(), err)
		}
	}
	if err := params.Validate(); err != nil {
		if label := point.Label(); label != "" {
			return params, fmt.Errorf("grid point %q: %w", label, err)
		}
		return params, err
	}
	return params, nil
}
