package docker

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/docker/docker/api/types/filters"
)

// Label key constants define the Docker labels stamped on every trainer
// container this tool starts. The labels are the sole link between a
// container and the sweep that started it — there is no state file.
//
// All keys share the "trainsweep." prefix to avoid collisions with
// labels set by the image or by other tools.
const (
	// LabelPrefix is the common prefix for all train-sweep labels.
	LabelPrefix = "trainsweep."

	// LabelManagedBy identifies containers managed by train-sweep.
	// This is the primary label used for filtering and discovery.
	// Key: "trainsweep.managed-by", Value: always "train-sweep".
	LabelManagedBy = LabelPrefix + "managed-by"

	// LabelSweepID stores the batch stamp shared by sibling runs.
	// Key: "trainsweep.sweep-id", Value: e.g. "20260314-092653".
	LabelSweepID = LabelPrefix + "sweep-id"

	// LabelRunIndex stores the run's 1-based repeat counter, the same
	// value the trainer receives as --run.
	LabelRunIndex = LabelPrefix + "run-index"

	// LabelModel stores the resolved model name.
	// Key: "trainsweep.model", Value: e.g. "ResNet20v1_CIFAR10".
	LabelModel = LabelPrefix + "model"

	// LabelCreatedAt stores the batch start time as an RFC3339 timestamp.
	LabelCreatedAt = LabelPrefix + "created-at"
)

// ManagedByValue is the constant value for the LabelManagedBy label.
// All containers created by this CLI are tagged with this value,
// enabling discovery via Docker API label filters.
const ManagedByValue = "train-sweep"

// BuildLabels constructs the label map for one trainer container. The
// clean and board commands rely on these labels to attribute a
// container to its sweep without inspecting the process inside.
func BuildLabels(sweepID string, runIndex int, modelName string, createdAt time.Time) map[string]string {
	return map[string]string{
		LabelManagedBy: ManagedByValue,
		LabelSweepID:   sweepID,
		LabelRunIndex:  strconv.Itoa(runIndex),
		LabelModel:     modelName,
		// UTC keeps the timestamp stable regardless of the host
		// machine's timezone.
		LabelCreatedAt: createdAt.UTC().Format(time.RFC3339),
	}
}

// ParseLabels extracts the sweep identity from a container label map.
// This is the inverse of BuildLabels, used when listing containers.
//
// Returns an error when the container is not managed by train-sweep or
// the identifying labels are missing or malformed.
func ParseLabels(labels map[string]string) (sweepID string, runIndex int, err error) {
	if labels[LabelManagedBy] != ManagedByValue {
		return "", 0, fmt.Errorf(
			"label %s has unexpected value %q (expected %q)",
			LabelManagedBy, labels[LabelManagedBy], ManagedByValue,
		)
	}

	sweepID = labels[LabelSweepID]
	if sweepID == "" {
		return "", 0, fmt.Errorf("missing required Docker label: %s", LabelSweepID)
	}

	runIndex, err = strconv.Atoi(labels[LabelRunIndex])
	if err != nil {
		return "", 0, fmt.Errorf("invalid label %s=%q: %w", LabelRunIndex, labels[LabelRunIndex], err)
	}

	return sweepID, runIndex, nil
}

// LabelArgs renders a label map as repeated `--label key=value`
// arguments for a docker CLI invocation. Keys are sorted so the
// generated command line is deterministic.
func LabelArgs(labels map[string]string) []string {
	keys := make([]string, 0, len(labels))
	for key := range labels {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	args := make([]string, 0, len(labels)*2)
	for _, key := range keys {
		args = append(args, "--label", key+"="+labels[key])
	}
	return args
}

// ManagedFilter returns the Docker API list filter matching every
// container managed by train-sweep, running or exited.
func ManagedFilter() filters.Args {
	return filters.NewArgs(filters.Arg("label", LabelManagedBy+"="+ManagedByValue))
}
