package model

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestHParams_RunDir pins the artifact layout to the directory scheme the
// trainer builds from its own arguments:
// <root>/<dataset>/<model>/b<batch>-e<epochs>-lr<lr>/<optimizer>/<stamp>.
func TestHParams_RunDir(t *testing.T) {
	h := DefaultHParams()
	dir := h.RunDir("/data", "20260314-092653")

	expected := filepath.Join("/data", "cifar10", "ResNet20v1_CIFAR10", "b128-e200-lr0.1", "SGD", "20260314-092653")
	assert.Equal(t, expected, dir)
}

// TestHParams_RunDir_FloatRendering checks that the learning rate segment
// uses the shortest decimal form, matching how the trainer interpolates the
// float into the path.
func TestHParams_RunDir_FloatRendering(t *testing.T) {
	tests := []struct {
		name string
		lr   float64
		want string
	}{
		{"tenth", 0.1, "b128-e200-lr0.1"},
		{"thousandth", 0.001, "b128-e200-lr0.001"},
		{"integral", 1.0, "b128-e200-lr1"},
		{"long fraction", 0.0125, "b128-e200-lr0.0125"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := DefaultHParams()
			h.LearningRate = tt.lr
			dir := h.RunDir("/data", "20260314-092653")
			assert.Equal(t, tt.want, filepath.Base(filepath.Dir(filepath.Dir(dir))))
		})
	}
}

// TestHParams_RunDir_VariantRecipe verifies that batch size, epochs,
// optimizer, and depth all shape the path.
func TestHParams_RunDir_VariantRecipe(t *testing.T) {
	h := DefaultHParams()
	h.N = 9
	h.BatchSize = 64
	h.Epochs = 50
	h.LearningRate = 0.001
	h.OptimizerName = "Adam"

	dir := h.RunDir("/data", "20260101-000000")

	expected := filepath.Join("/data", "cifar10", "ResNet56v1_CIFAR10", "b64-e50-lr0.001", "Adam", "20260101-000000")
	assert.Equal(t, expected, dir)
}

// TestSweep_ArtifactDir checks the convenience accessor delegates to the
// sweep's own parameters, root, and stamp.
func TestSweep_ArtifactDir(t *testing.T) {
	sweep := &Sweep{
		ID:           "20260314-092653",
		ArtifactRoot: "/data",
		Params:       DefaultHParams(),
	}
	assert.Equal(t, sweep.Params.RunDir("/data", "20260314-092653"), sweep.ArtifactDir())
}

// TestArtifactSubdirs pins the trainer's fixed subdirectory and log file
// names under a run directory.
func TestArtifactSubdirs(t *testing.T) {
	runDir := filepath.Join("/data", "cifar10", "ResNet20v1_CIFAR10", "b128-e200-lr0.1", "SGD", "20260314-092653")

	assert.Equal(t, filepath.Join(runDir, "logs"), LogDir(runDir))
	assert.Equal(t, filepath.Join(runDir, "ckpts"), CheckpointDir(runDir))
	assert.Equal(t, filepath.Join(runDir, "logs", "training.log.csv"), TrainingLogPath(runDir))
}
