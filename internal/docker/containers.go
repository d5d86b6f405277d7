// containers.go implements discovery and cleanup of trainer containers
// through the Docker SDK. Runs themselves go through DockerRunner; the
// SDK side only ever looks at containers after the fact, which is why
// everything here keys off the trainsweep.* labels instead of names.
package docker

import (
	"context"
	"fmt"
	"strings"

	"github.com/docker/docker/api/types/container"

	"github.com/shinji-kodama/train-sweep/internal/model"
)

// ListManagedContainers queries the Docker daemon for all containers
// carrying the "trainsweep.managed-by=train-sweep" label, including
// stopped ones. Containers normally remove themselves on exit (--rm);
// anything this returns is either a run in progress or a straggler left
// behind by a daemon restart or kill -9, which is exactly what the
// clean command wants to see.
func ListManagedContainers(ctx context.Context, cli *Client) ([]model.ContainerInfo, error) {
	// Filtering by label server-side is cheaper than listing everything
	// and filtering in Go.
	containers, err := cli.Inner().ContainerList(ctx, container.ListOptions{
		All:     true,
		Filters: ManagedFilter(),
	})
	if err != nil {
		return nil, model.WrapCLIError(
			model.ExitDockerNotRunning,
			"failed to list Docker containers",
			err,
		)
	}

	result := make([]model.ContainerInfo, 0, len(containers))
	for _, c := range containers {
		result = append(result, containerToInfo(c))
	}

	return result, nil
}

// containerToInfo converts a Docker API container summary to the domain
// ContainerInfo. A pure mapping function with no side effects.
//
// The Docker API returns container names with a leading "/" prefix
// (e.g. "/trainsweep-20260314-092653-1"), which is stripped for CLI
// output. The State field is a short string like "running" or "exited".
func containerToInfo(c container.Summary) model.ContainerInfo {
	name := ""
	if len(c.Names) > 0 {
		// The leading "/" is an artifact of the API, not part of the
		// name users see.
		name = strings.TrimPrefix(c.Names[0], "/")
	}

	// A container missing the identity labels still shows up (it
	// matched the managed-by filter); it just has no sweep attribution.
	sweepID, runIndex, err := ParseLabels(c.Labels)
	if err != nil {
		sweepID, runIndex = "", 0
	}

	return model.ContainerInfo{
		ContainerID:   c.ID,
		ContainerName: name,
		SweepID:       sweepID,
		RunIndex:      runIndex,
		Status:        c.State,
		Labels:        c.Labels,
	}
}

// StopContainer stops a running container by its ID. Docker sends the
// main process SIGTERM and escalates to SIGKILL after the daemon's
// default timeout (typically 10 seconds), which gives a trainer the
// chance to flush its CSV log.
func StopContainer(ctx context.Context, cli *Client, containerID string) error {
	// StopOptions with nil Timeout uses Docker's default.
	err := cli.Inner().ContainerStop(ctx, containerID, container.StopOptions{})
	if err != nil {
		return model.WrapCLIError(
			model.ExitDockerNotRunning,
			fmt.Sprintf("failed to stop container %q", containerID),
			err,
		)
	}
	return nil
}

// RemoveContainer removes a container by its ID. The container must be
// stopped first unless force is true, in which case Docker kills it
// before removal.
func RemoveContainer(ctx context.Context, cli *Client, containerID string, force bool) error {
	err := cli.Inner().ContainerRemove(ctx, containerID, container.RemoveOptions{
		Force: force,
	})
	if err != nil {
		return model.WrapCLIError(
			model.ExitDockerNotRunning,
			fmt.Sprintf("failed to remove container %q", containerID),
			err,
		)
	}
	return nil
}
