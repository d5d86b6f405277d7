package model

import (
	"fmt"
	"path/filepath"
)

// Artifact directory names created by the trainer under each run directory.
const (
	LogDirName        = "logs"
	CheckpointDirName = "ckpts"
	TrainingLogName   = "training.log.csv"
)

// RunDir returns the directory the trainer writes artifacts to for one
// stamped batch: <root>/<dataset>/<model>/b<batch>-e<epochs>-lr<lr>/<optimizer>/<stamp>.
// The trainer derives the same path from its own arguments and creates it
// itself; the driver only needs to know where to look afterwards.
func (h HParams) RunDir(artifactRoot, stamp string) string {
	recipe := fmt.Sprintf("b%d-e%d-lr%s", h.BatchSize, h.Epochs, FormatFloat(h.LearningRate))
	return filepath.Join(artifactRoot, h.Dataset, h.ModelName(), recipe, h.OptimizerName, stamp)
}

// ArtifactDir returns the run directory for the sweep's own parameters.
// Grid sweeps vary parameters per point and must use HParams.RunDir with
// the point-adjusted parameters instead.
func (s *Sweep) ArtifactDir() string {
	return s.Params.RunDir(s.ArtifactRoot, s.ID)
}

// LogDir returns the trainer's log directory under a run directory. It
// holds config.json and the CSV training log.
func LogDir(runDir string) string {
	return filepath.Join(runDir, LogDirName)
}

// CheckpointDir returns the trainer's checkpoint directory under a run
// directory.
func CheckpointDir(runDir string) string {
	return filepath.Join(runDir, CheckpointDirName)
}

// TrainingLogPath returns the CSV training log inside a run directory.
// The trainer appends one row per finished epoch.
func TrainingLogPath(runDir string) string {
	return filepath.Join(LogDir(runDir), TrainingLogName)
}
