// params.go maps hyperparameter names, as they appear on the trainer
// command line and in grid blocks, onto HParams fields.
package model

import (
	"fmt"
	"strconv"
)

// SetParam assigns the named hyperparameter from its command-line string
// form. Names match the trainer flags (n, version, batch_size, epochs,
// learning_rate, optimizer_name, weight_decay, momentum, lr_schedule,
// validation_split, data_preprocessing, data_augmentation, dataset,
// seed). Returns an error for unknown names or unparseable values.
func SetParam(h *HParams, name, value string) error {
	switch name {
	case "n":
		return setIntParam(&h.N, name, value)
	case "version":
		return setIntParam(&h.Version, name, value)
	case "batch_size":
		return setIntParam(&h.BatchSize, name, value)
	case "epochs":
		return setIntParam(&h.Epochs, name, value)
	case "learning_rate":
		return setFloatParam(&h.LearningRate, name, value)
	case "weight_decay":
		return setFloatParam(&h.WeightDecay, name, value)
	case "momentum":
		return setFloatParam(&h.Momentum, name, value)
	case "validation_split":
		return setFloatParam(&h.ValidationSplit, name, value)
	case "optimizer_name":
		h.OptimizerName = value
	case "lr_schedule":
		h.LRSchedule = value
	case "data_preprocessing":
		h.DataPreprocessing = value
	case "data_augmentation":
		h.DataAugmentation = value
	case "dataset":
		h.Dataset = value
	case "seed":
		seed := 0
		if err := setIntParam(&seed, name, value); err != nil {
			return err
		}
		h.Seed = &seed
	default:
		return fmt.Errorf("unknown hyperparameter %q", name)
	}
	return nil
}

func setIntParam(dst *int, name, value string) error {
	v, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("hyperparameter %s: invalid integer %q", name, value)
	}
	*dst = v
	return nil
}

func setFloatParam(dst *float64, name, value string) error {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("hyperparameter %s: invalid number %q", name, value)
	}
	*dst = v
	return nil
}
