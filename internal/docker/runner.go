// runner.go implements the trainer.Runner that executes runs inside
// Docker containers.
package docker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/shinji-kodama/train-sweep/internal/model"
	"github.com/shinji-kodama/train-sweep/internal/trainer"
)

// Filesystem layout inside the trainer container. The source root is
// mounted at the workspace and the artifact root at the path where the
// trainer expands its hardcoded "~/Documents/DeepLearningData" prefix
// (the TensorFlow images run as root).
const (
	// ContainerWorkspace is the source root's mount point and the
	// working directory of every trainer container.
	ContainerWorkspace = "/workspace"

	containerArtifactRoot = "/root/Documents/DeepLearningData"

	// containerPython is the interpreter inside the image. The image
	// brings its own Python; the host interpreter setting is ignored.
	containerPython = "python"
)

// DockerRunner executes trainer invocations as foreground `docker run`
// processes, one container per run. Shelling out to the docker CLI
// keeps the trainer's output streaming to the terminal exactly as a
// local run would, including TensorFlow's progress bars.
//
// Containers are started with --rm so a finished run leaves nothing
// behind; the labels from BuildLabels make any stragglers discoverable
// by the clean command.
type DockerRunner struct {
	// Image is the container image to run.
	Image string

	// Model and CreatedAt fill the identity labels on each container.
	Model     string
	CreatedAt time.Time

	// Stdout and Stderr receive the container's output streams.
	// Defaults to the parent's stdio.
	Stdout io.Writer
	Stderr io.Writer
}

// NewDockerRunner creates a runner for the sweep's image and identity.
func NewDockerRunner(sweep *model.Sweep) *DockerRunner {
	return &DockerRunner{
		Image:     sweep.Image,
		Model:     sweep.Params.ModelName(),
		CreatedAt: sweep.CreatedAt,
	}
}

// ContainerName returns the deterministic container name for one run.
// The sequence number keeps names unique across grid points within a
// batch; sequential execution means at most one exists at a time.
func ContainerName(sweepID string, seq int) string {
	return "trainsweep-" + sweepID + "-" + strconv.Itoa(seq)
}

// BuildRunArgs assembles the full `docker run` argument vector for one
// trainer invocation: foreground, removed on exit, source root mounted
// read-write at the workspace, artifact root mounted at the trainer's
// output prefix, and PYTHONPATH pointing at the workspace the way the
// local runner extends the host environment.
func BuildRunArgs(spec trainer.RunSpec, image string, labels map[string]string) ([]string, error) {
	sourceRoot, err := filepath.Abs(spec.SourceRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve source root %s: %w", spec.SourceRoot, err)
	}
	artifactRoot, err := filepath.Abs(spec.ArtifactRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve artifact root %s: %w", spec.ArtifactRoot, err)
	}

	script, err := containerScriptPath(sourceRoot, spec.Script)
	if err != nil {
		return nil, err
	}

	args := []string{
		"run", "--rm",
		"--name", ContainerName(spec.SweepID, spec.Seq),
		"-v", sourceRoot + ":" + ContainerWorkspace,
		"-v", artifactRoot + ":" + containerArtifactRoot,
		"-w", ContainerWorkspace,
		"-e", "PYTHONPATH=" + ContainerWorkspace,
	}
	args = append(args, LabelArgs(labels)...)
	args = append(args, image, containerPython, script)
	args = append(args, spec.Args...)
	return args, nil
}

// containerScriptPath maps the host script path into the container's
// workspace. The script must live under the source root, since that is
// the only source directory mounted into the container.
func containerScriptPath(sourceRoot, script string) (string, error) {
	if !filepath.IsAbs(script) {
		script = filepath.Join(sourceRoot, script)
	}
	rel, err := filepath.Rel(sourceRoot, script)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("trainer script %s is outside the source root %s", script, sourceRoot)
	}
	return path.Join(ContainerWorkspace, filepath.ToSlash(rel)), nil
}

// Run executes one trainer invocation in a fresh container and blocks
// until it exits.
//
// `docker run` propagates the container's exit status, so a normal
// non-zero trainer exit returns (status, nil) just like the local
// runner. Context cancellation kills the docker CLI (and with it the
// container) and returns the status together with the context error. A
// run that could not be started returns (-1, err).
func (r *DockerRunner) Run(ctx context.Context, spec trainer.RunSpec) (int, error) {
	labels := BuildLabels(spec.SweepID, spec.RunIndex, r.Model, r.CreatedAt)
	args, err := BuildRunArgs(spec, r.Image, labels)
	if err != nil {
		return -1, err
	}

	cmd := exec.CommandContext(ctx, "docker", args...)
	cmd.Stdout = r.Stdout
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	cmd.Stderr = r.Stderr
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}

	err = cmd.Run()
	if err == nil {
		return 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if ctx.Err() != nil {
			return exitErr.ExitCode(), ctx.Err()
		}
		return exitErr.ExitCode(), nil
	}

	return -1, fmt.Errorf("failed to start docker run for %s: %w", spec.Script, err)
}
