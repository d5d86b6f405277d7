package docker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestBuildLabels verifies the full label set stamped on a trainer
// container.
func TestBuildLabels(t *testing.T) {
	createdAt := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

	labels := BuildLabels("20260314-092653", 3, "ResNet20v1_CIFAR10", createdAt)

	assert.Equal(t, ManagedByValue, labels[LabelManagedBy],
		"managed-by label should always be set to the constant value")
	assert.Equal(t, "20260314-092653", labels[LabelSweepID])
	assert.Equal(t, "3", labels[LabelRunIndex])
	assert.Equal(t, "ResNet20v1_CIFAR10", labels[LabelModel])
	assert.Equal(t, "2026-03-14T09:26:53Z", labels[LabelCreatedAt])
	assert.Len(t, labels, 5)
}

// TestBuildLabels_UTCNormalization verifies timestamps are stored in
// UTC regardless of the host timezone.
func TestBuildLabels_UTCNormalization(t *testing.T) {
	jst := time.FixedZone("JST", 9*60*60)
	createdAt := time.Date(2026, 3, 14, 18, 26, 53, 0, jst)

	labels := BuildLabels("20260314-092653", 1, "ResNet20v1_CIFAR10", createdAt)

	assert.Equal(t, "2026-03-14T09:26:53Z", labels[LabelCreatedAt])
}

// TestParseLabels verifies the roundtrip from BuildLabels back to the
// sweep identity.
func TestParseLabels(t *testing.T) {
	labels := BuildLabels("20260314-092653", 4, "ResNet56v1_CIFAR10", time.Now())

	sweepID, runIndex, err := ParseLabels(labels)
	require.NoError(t, err)
	assert.Equal(t, "20260314-092653", sweepID)
	assert.Equal(t, 4, runIndex)
}

// TestParseLabels_Invalid covers the rejection cases: foreign
// containers, missing identity, malformed run index.
func TestParseLabels_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		labels map[string]string
	}{
		{
			name:   "unmanaged container",
			labels: map[string]string{"com.docker.compose.service": "db"},
		},
		{
			name: "wrong managed-by value",
			labels: map[string]string{
				LabelManagedBy: "someone-else",
				LabelSweepID:   "20260314-092653",
				LabelRunIndex:  "1",
			},
		},
		{
			name: "missing sweep id",
			labels: map[string]string{
				LabelManagedBy: ManagedByValue,
				LabelRunIndex:  "1",
			},
		},
		{
			name: "malformed run index",
			labels: map[string]string{
				LabelManagedBy: ManagedByValue,
				LabelSweepID:   "20260314-092653",
				LabelRunIndex:  "first",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ParseLabels(tt.labels)
			assert.Error(t, err)
		})
	}
}

// TestLabelArgs verifies the docker CLI rendering is sorted and pairs
// every key with its value.
func TestLabelArgs(t *testing.T) {
	labels := map[string]string{
		LabelSweepID:   "20260314-092653",
		LabelManagedBy: ManagedByValue,
		LabelRunIndex:  "2",
	}

	args := LabelArgs(labels)

	assert.Equal(t, []string{
		"--label", LabelManagedBy + "=" + ManagedByValue,
		"--label", LabelRunIndex + "=2",
		"--label", LabelSweepID + "=20260314-092653",
	}, args)
}

// TestManagedFilter verifies the list filter targets the managed-by
// label.
func TestManagedFilter(t *testing.T) {
	filter := ManagedFilter()

	values := filter.Get("label")
	require.Len(t, values, 1)
	assert.Equal(t, LabelManagedBy+"="+ManagedByValue, values[0])
}
