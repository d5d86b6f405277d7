package docker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shinji-kodama/train-sweep/internal/model"
	"github.com/shinji-kodama/train-sweep/internal/trainer"
)

func testRunSpec() trainer.RunSpec {
	return trainer.RunSpec{
		Python:       "python",
		Script:       "/src/train_resnet_cifar10_tf.py",
		SourceRoot:   "/src",
		ArtifactRoot: "/data",
		Args:         []string{"--n=3", "--date_time=20260314-092653", "--run=1"},
		SweepID:      "20260314-092653",
		RunIndex:     1,
		Seq:          1,
	}
}

// TestBuildRunArgs pins the complete docker run invocation: foreground
// with --rm, both bind mounts, workspace working directory, PYTHONPATH,
// sorted labels, then image, interpreter, script, and trainer args.
func TestBuildRunArgs(t *testing.T) {
	createdAt := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	labels := BuildLabels("20260314-092653", 1, "ResNet20v1_CIFAR10", createdAt)

	args, err := BuildRunArgs(testRunSpec(), "tensorflow/tensorflow:2.15.0", labels)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"run", "--rm",
		"--name", "trainsweep-20260314-092653-1",
		"-v", "/src:/workspace",
		"-v", "/data:/root/Documents/DeepLearningData",
		"-w", "/workspace",
		"-e", "PYTHONPATH=/workspace",
		"--label", "trainsweep.created-at=2026-03-14T09:26:53Z",
		"--label", "trainsweep.managed-by=train-sweep",
		"--label", "trainsweep.model=ResNet20v1_CIFAR10",
		"--label", "trainsweep.run-index=1",
		"--label", "trainsweep.sweep-id=20260314-092653",
		"tensorflow/tensorflow:2.15.0",
		"python", "/workspace/train_resnet_cifar10_tf.py",
		"--n=3", "--date_time=20260314-092653", "--run=1",
	}, args)
}

// TestBuildRunArgs_RelativeScript verifies a script configured relative
// to the source root maps into the workspace.
func TestBuildRunArgs_RelativeScript(t *testing.T) {
	spec := testRunSpec()
	spec.Script = "train_resnet_cifar10_tf.py"

	args, err := BuildRunArgs(spec, "tensorflow/tensorflow:2.15.0", nil)
	require.NoError(t, err)
	assert.Contains(t, args, "/workspace/train_resnet_cifar10_tf.py")
}

// TestBuildRunArgs_NestedScript verifies subdirectory scripts keep
// their relative location under the workspace.
func TestBuildRunArgs_NestedScript(t *testing.T) {
	spec := testRunSpec()
	spec.Script = "/src/experiments/train.py"

	args, err := BuildRunArgs(spec, "tensorflow/tensorflow:2.15.0", nil)
	require.NoError(t, err)
	assert.Contains(t, args, "/workspace/experiments/train.py")
}

// TestBuildRunArgs_ScriptOutsideRoot rejects scripts that the container
// could never see because only the source root is mounted.
func TestBuildRunArgs_ScriptOutsideRoot(t *testing.T) {
	spec := testRunSpec()
	spec.Script = "/elsewhere/train.py"

	_, err := BuildRunArgs(spec, "tensorflow/tensorflow:2.15.0", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "outside the source root")
}

// TestContainerName verifies name uniqueness comes from the batch-wide
// sequence number.
func TestContainerName(t *testing.T) {
	assert.Equal(t, "trainsweep-20260314-092653-1", ContainerName("20260314-092653", 1))
	assert.Equal(t, "trainsweep-20260314-092653-12", ContainerName("20260314-092653", 12))
}

// TestNewDockerRunner verifies the runner inherits image and identity
// from the sweep.
func TestNewDockerRunner(t *testing.T) {
	createdAt := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	sweep := &model.Sweep{
		ID:        "20260314-092653",
		Image:     "tensorflow/tensorflow:2.15.0",
		Params:    model.DefaultHParams(),
		CreatedAt: createdAt,
	}

	runner := NewDockerRunner(sweep)

	assert.Equal(t, "tensorflow/tensorflow:2.15.0", runner.Image)
	assert.Equal(t, "ResNet20v1_CIFAR10", runner.Model)
	assert.Equal(t, createdAt, runner.CreatedAt)
}
