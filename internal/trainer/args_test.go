package trainer

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shinji-kodama/train-sweep/internal/model"
)

// TestBuildArgs_Defaults pins the exact argument vector for the default
// parameter set. Flag order and value rendering are part of the trainer
// contract, so this test compares the whole slice.
func TestBuildArgs_Defaults(t *testing.T) {
	args := BuildArgs(model.DefaultHParams(), "20260314-092653", 1)

	expected := []string{
		"--n=3",
		"--version=1",
		"--dataset=cifar10",
		"--data_preprocessing=std_norm",
		"--data_augmentation=random_translation",
		"--validation_split=0.1",
		"--batch_size=128",
		"--epochs=200",
		"--learning_rate=0.1",
		"--optimizer_name=SGD",
		"--weight_decay=0.0001",
		"--momentum=0.9",
		"--lr_schedule=cifar10_schedule",
		"--date_time=20260314-092653",
		"--run=1",
	}
	assert.Equal(t, expected, args)
}

// TestBuildArgs_OnlyRunVaries verifies that sibling invocations of the
// same parameter set differ in the --run token and nothing else, and
// that they share one --date_time value.
func TestBuildArgs_OnlyRunVaries(t *testing.T) {
	const stamp = "20260314-092653"
	params := model.DefaultHParams()

	first := BuildArgs(params, stamp, 1)
	for i := 2; i <= 5; i++ {
		args := BuildArgs(params, stamp, i)
		require.Len(t, args, len(first))

		// Every token except the final --run must be byte-identical.
		assert.Equal(t, first[:len(first)-1], args[:len(args)-1],
			"run %d should differ from run 1 only in the --run token", i)
		assert.Equal(t, fmt.Sprintf("--run=%d", i), args[len(args)-1])
	}
}

// TestBuildArgs_RunMatchesIndex verifies the --run value strictly
// increases by 1 per invocation and matches the loop index.
func TestBuildArgs_RunMatchesIndex(t *testing.T) {
	params := model.DefaultHParams()
	for i := 1; i <= 5; i++ {
		args := BuildArgs(params, "20260314-092653", i)
		assert.Equal(t, fmt.Sprintf("--run=%d", i), args[len(args)-1])
	}
}

// TestBuildArgs_SharedStamp verifies the --date_time token is identical
// across all invocations of a batch.
func TestBuildArgs_SharedStamp(t *testing.T) {
	const stamp = "20270101-120000"
	params := model.DefaultHParams()

	for i := 1; i <= 5; i++ {
		args := BuildArgs(params, stamp, i)
		assert.Contains(t, args, "--date_time="+stamp)
	}
}

// TestBuildArgs_Seed verifies that a configured seed is emitted between
// --lr_schedule and --date_time and stays constant across sibling runs.
func TestBuildArgs_Seed(t *testing.T) {
	params := model.DefaultHParams()
	seed := 42
	params.Seed = &seed

	args1 := BuildArgs(params, "20260314-092653", 1)
	args2 := BuildArgs(params, "20260314-092653", 2)

	require.Len(t, args1, 16)
	assert.Equal(t, "--seed=42", args1[13])
	assert.Equal(t, "--date_time=20260314-092653", args1[14])
	assert.Equal(t, args1[:len(args1)-1], args2[:len(args2)-1])
}

// TestBuildArgs_NoSeedByDefault verifies no --seed token is emitted when
// the seed is unset, leaving seeding to the trainer.
func TestBuildArgs_NoSeedByDefault(t *testing.T) {
	args := BuildArgs(model.DefaultHParams(), "20260314-092653", 1)
	for _, arg := range args {
		assert.NotContains(t, arg, "--seed")
	}
}

// TestBuildArgs_VariantRendering verifies value rendering for a
// non-default parameter set, including float shortening.
func TestBuildArgs_VariantRendering(t *testing.T) {
	params := model.DefaultHParams()
	params.N = 18
	params.OptimizerName = "Adam"
	params.LearningRate = 0.001
	params.Momentum = 0

	args := BuildArgs(params, "20260314-092653", 3)
	assert.Contains(t, args, "--n=18")
	assert.Contains(t, args, "--optimizer_name=Adam")
	assert.Contains(t, args, "--learning_rate=0.001")
	assert.Contains(t, args, "--momentum=0")
}
