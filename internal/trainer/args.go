// args.go builds the trainer's command-line argument vector.
//
// Every invocation in a batch goes through BuildArgs, so the flag order
// and value rendering cannot drift between sibling runs: two runs of the
// same parameter set differ in the --run token and nothing else.
package trainer

import (
	"strconv"

	"github.com/shinji-kodama/train-sweep/internal/model"
)

// BuildArgs returns the full trainer argument list for one invocation.
//
// The flag order is fixed: hyperparameters first, then --seed when one
// is configured, then --date_time and --run. All values use the =-joined
// single-token form the trainer's argument parser accepts.
func BuildArgs(h model.HParams, stamp string, runIndex int) []string {
	args := []string{
		"--n=" + strconv.Itoa(h.N),
		"--version=" + strconv.Itoa(h.Version),
		"--dataset=" + h.Dataset,
		"--data_preprocessing=" + h.DataPreprocessing,
		"--data_augmentation=" + h.DataAugmentation,
		"--validation_split=" + model.FormatFloat(h.ValidationSplit),
		"--batch_size=" + strconv.Itoa(h.BatchSize),
		"--epochs=" + strconv.Itoa(h.Epochs),
		"--learning_rate=" + model.FormatFloat(h.LearningRate),
		"--optimizer_name=" + h.OptimizerName,
		"--weight_decay=" + model.FormatFloat(h.WeightDecay),
		"--momentum=" + model.FormatFloat(h.Momentum),
		"--lr_schedule=" + h.LRSchedule,
	}

	if h.Seed != nil {
		args = append(args, "--seed="+strconv.Itoa(*h.Seed))
	}

	args = append(args,
		"--date_time="+stamp,
		"--run="+strconv.Itoa(runIndex),
	)
	return args
}
