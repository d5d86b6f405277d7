// Package cli — run.go implements the "train-sweep run" command.
//
// The run command is the primary user-facing operation. It merges the
// sweep configuration from defaults, preset, sweep file, and flags,
// stamps the batch, and executes every planned invocation strictly one
// at a time.
//
// Orchestration steps:
//  1. Merge settings (defaults < preset < sweep file < explicit flags)
//  2. Validate the merged settings
//  3. Stamp the batch — one timestamp shared by every run
//  4. Resolve the trainer and construct the runner (local or docker)
//  5. Expand the grid into the invocation plan
//  6. Record the sweep in history (unless --no-record)
//  7. Execute the plan sequentially, recording each run as it finishes
//  8. Print the summary and propagate the exit status
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/shinji-kodama/train-sweep/internal/config"
	"github.com/shinji-kodama/train-sweep/internal/docker"
	"github.com/shinji-kodama/train-sweep/internal/history"
	"github.com/shinji-kodama/train-sweep/internal/model"
	"github.com/shinji-kodama/train-sweep/internal/progress"
	"github.com/shinji-kodama/train-sweep/internal/sweep"
	"github.com/shinji-kodama/train-sweep/internal/trainer"
)

// sweepFlags holds the flag values shared by the run and plan commands:
// everything that shapes what a batch would execute.
type sweepFlags struct {
	configFile   string // --config: explicit sweep file path
	preset       string // --preset: named parameter preset
	runs         int    // --runs: repetitions per parameter set
	script       string // --script: trainer program
	python       string // --python: interpreter for the local runner
	sourceRoot   string // --source-root: trainer source directory
	artifactRoot string // --artifact-root: trainer output prefix
	runner       string // --runner: local or docker
	image        string // --image: container image for the docker runner

	// Hyperparameter overrides, mirroring the trainer's own flags.
	n              int
	versionArg     int
	dataset        string
	preprocessing  string
	augmentation   string
	validationSpl  float64
	batchSize      int
	epochs         int
	learningRate   float64
	optimizer      string
	weightDecay    float64
	momentum       float64
	lrSchedule     string
	seed           int
}

// runFlags extends the shared sweep flags with run-only behavior.
type runFlags struct {
	sweepFlags
	follow   bool // --follow: tail the trainer's CSV log during runs
	noRecord bool // --no-record: skip the history database
}

// addSweepFlags registers the shared sweep definition flags on a
// command. Defaults shown in help mirror the effective defaults; the
// merge in buildSettings only applies flags the user actually set.
func addSweepFlags(cmd *cobra.Command, f *sweepFlags) {
	d := model.DefaultHParams()

	cmd.Flags().StringVar(&f.configFile, "config", "", "Sweep file path (default: train-sweep.{yaml,json} in the current directory)")
	cmd.Flags().StringVar(&f.preset, "preset", "", "Parameter preset (see `train-sweep presets`)")
	cmd.Flags().IntVar(&f.runs, "runs", config.DefaultRuns, "Repetitions per parameter set")
	cmd.Flags().StringVar(&f.script, "script", config.DefaultScript, "Trainer script, resolved against --source-root")
	cmd.Flags().StringVar(&f.python, "python", config.DefaultPython, "Python interpreter for the local runner")
	cmd.Flags().StringVar(&f.sourceRoot, "source-root", ".", "Directory containing the trainer sources")
	cmd.Flags().StringVar(&f.artifactRoot, "artifact-root", config.DefaultArtifactRoot, "Trainer output prefix")
	cmd.Flags().StringVar(&f.runner, "runner", string(model.RunnerLocal), "Execution backend: local or docker")
	cmd.Flags().StringVar(&f.image, "image", config.DefaultImage, "Container image for the docker runner")

	cmd.Flags().IntVar(&f.n, "n", d.N, "ResNet size parameter (depth = 6n+2 for v1, 9n+2 for v2)")
	cmd.Flags().IntVar(&f.versionArg, "version-arg", d.Version, "ResNet version passed to the trainer (1 or 2)")
	cmd.Flags().StringVar(&f.dataset, "dataset", d.Dataset, "Dataset name")
	cmd.Flags().StringVar(&f.preprocessing, "data-preprocessing", d.DataPreprocessing, "Input preprocessing mode")
	cmd.Flags().StringVar(&f.augmentation, "data-augmentation", d.DataAugmentation, "Augmentation mode")
	cmd.Flags().Float64Var(&f.validationSpl, "validation-split", d.ValidationSplit, "Fraction of training data held out for validation")
	cmd.Flags().IntVar(&f.batchSize, "batch-size", d.BatchSize, "Training batch size")
	cmd.Flags().IntVar(&f.epochs, "epochs", d.Epochs, "Training epochs")
	cmd.Flags().Float64Var(&f.learningRate, "learning-rate", d.LearningRate, "Initial learning rate")
	cmd.Flags().StringVar(&f.optimizer, "optimizer", d.OptimizerName, "Optimizer: SGD, Adam, Adadelta, or RMSprop")
	cmd.Flags().Float64Var(&f.weightDecay, "weight-decay", d.WeightDecay, "Weight decay")
	cmd.Flags().Float64Var(&f.momentum, "momentum", d.Momentum, "Optimizer momentum")
	cmd.Flags().StringVar(&f.lrSchedule, "lr-schedule", d.LRSchedule, "Learning rate schedule name")
	cmd.Flags().IntVar(&f.seed, "seed", 0, "Random seed (omitted from trainer args unless set)")
}

// NewRunCommand creates the "run" cobra command.
func NewRunCommand() *cobra.Command {
	flags := &runFlags{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute a training sweep",
		Long: `Execute a batch of trainer runs sharing one timestamp.

By default the trainer runs 5 times with identical parameters, so the runs
land side by side under one stamped artifact directory. A sweep file adds a
parameter grid; every grid point is repeated the same number of times.

Runs execute strictly one at a time. A failed run does not stop the batch;
the command exits with the status of the last failed run.

Examples:
  train-sweep run
  train-sweep run --preset resnet56 --runs 3
  train-sweep run --config sweep.yaml --follow
  train-sweep run --runner docker --epochs 50
  train-sweep run --optimizer Adam --learning-rate 0.001`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd, flags)
		},
	}

	addSweepFlags(cmd, &flags.sweepFlags)
	cmd.Flags().BoolVar(&flags.follow, "follow", false, "Tail the trainer's CSV log and show per-epoch progress")
	cmd.Flags().BoolVar(&flags.noRecord, "no-record", false, "Do not record this sweep in the history database")

	return cmd
}

// runRun is the main orchestration function for the run command.
func runRun(cmd *cobra.Command, flags *runFlags) error {
	ctx := cmd.Context()
	log := Logger()

	// Step 1: Merge settings from defaults, preset, sweep file, flags.
	settings, err := buildSettings(cmd, &flags.sweepFlags)
	if err != nil {
		return err
	}

	// Step 2: Validate the merged settings before anything starts.
	if errs := config.ValidateSettings(settings); len(errs) > 0 {
		return model.NewCLIError(model.ExitConfigError, validationMessage(errs))
	}

	// Step 3: Stamp the batch. The stamp is computed exactly once;
	// every run shares it and the artifact tree groups them by it.
	sw, err := settings.Sweep(time.Now())
	if err != nil {
		return model.WrapCLIError(model.ExitConfigError, "failed to assemble sweep", err)
	}
	log.Debug("sweep stamped",
		zap.String("sweep_id", sw.ID),
		zap.String("model", sw.Params.ModelName()),
		zap.String("runner", string(sw.Runner)))

	// Step 4: Resolve the trainer and construct the runner. Missing
	// interpreter, missing script, or an unreachable Docker daemon
	// fail here, before any run starts.
	runner, cleanup, err := buildRunner(ctx, sw)
	if err != nil {
		return err
	}
	defer cleanup()

	// Step 5: Expand the grid into the full invocation plan.
	plan, err := sweep.BuildPlan(sw, settings.Grid)
	if err != nil {
		return model.WrapCLIError(model.ExitConfigError, "invalid sweep plan", err)
	}

	// Step 6: Open history and record the sweep unless --no-record.
	var store *history.Store
	if !flags.noRecord {
		store, err = openHistory()
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()
		if err := store.RecordSweep(sw, plan.TotalRuns()); err != nil {
			return model.WrapCLIError(model.ExitHistoryError, "failed to record sweep", err)
		}
	}

	// Step 7: Execute the plan. History rows and the optional progress
	// watcher ride along on the driver's hooks.
	driver := sweep.NewDriver(runner, log)

	var watcher *progress.Watcher
	driver.OnRunStart = func(inv sweep.Invocation) {
		if !flags.follow {
			return
		}
		w, watchErr := progress.NewWatcher(model.TrainingLogPath(inv.ArtifactDir), log)
		if watchErr != nil {
			log.Warn("progress watcher unavailable", zap.Error(watchErr))
			return
		}
		watcher = w
		watcher.Start(ctx)
	}
	driver.OnRunEnd = func(run model.RunResult) {
		if watcher != nil {
			watcher.Stop()
			watcher = nil
		}
		if store != nil {
			if recErr := store.RecordRun(sw.ID, run); recErr != nil {
				log.Warn("failed to record run", zap.Int("seq", run.Seq), zap.Error(recErr))
			}
		}
	}

	result := driver.Execute(ctx, plan)

	// Step 8: Output results and propagate the exit status.
	printRunResult(result)

	if status := result.ExitStatus(); status != 0 {
		return model.NewCLIError(
			model.ExitCode(status),
			fmt.Sprintf("%d of %d runs failed", result.Failed(), len(result.Runs)),
		)
	}
	if ctx.Err() != nil {
		return model.NewCLIError(model.ExitUserCancelled, "sweep cancelled before all runs started")
	}
	return nil
}

// buildSettings merges the sweep configuration in precedence order:
// defaults, then preset, then sweep file, then explicit flags. A flag
// participates only when the user actually set it, so flag defaults
// never shadow a preset or file value.
func buildSettings(cmd *cobra.Command, f *sweepFlags) (*config.Settings, error) {
	settings := config.DefaultSettings()
	fl := cmd.Flags()

	if f.preset != "" {
		if err := settings.ApplyPreset(f.preset); err != nil {
			return nil, model.WrapCLIError(model.ExitConfigError, "unknown preset", err)
		}
	}

	// Sweep file: explicit --config wins; otherwise a train-sweep file
	// in the current directory is picked up when present.
	configPath := f.configFile
	if configPath == "" {
		if found, ok := config.FindSweepFile("."); ok {
			configPath = found
		}
	}
	if configPath != "" {
		file, err := config.Load(configPath)
		if err != nil {
			return nil, model.WrapCLIError(model.ExitConfigError, fmt.Sprintf("failed to load sweep file %s", configPath), err)
		}
		if err := settings.ApplyFile(file); err != nil {
			return nil, model.WrapCLIError(model.ExitConfigError, fmt.Sprintf("invalid sweep file %s", configPath), err)
		}
	}

	if fl.Changed("runs") {
		settings.Runs = f.runs
	}
	if fl.Changed("script") {
		settings.Script = f.script
	}
	if fl.Changed("python") {
		settings.Python = f.python
	}
	if fl.Changed("source-root") {
		settings.SourceRoot = f.sourceRoot
	}
	if fl.Changed("artifact-root") {
		settings.ArtifactRoot = f.artifactRoot
	}
	if fl.Changed("runner") {
		kind, err := model.ParseRunnerKind(f.runner)
		if err != nil {
			return nil, model.WrapCLIError(model.ExitConfigError, "invalid --runner", err)
		}
		settings.Runner = kind
	}
	if fl.Changed("image") {
		settings.Image = f.image
	}
	if f.preset != "" {
		settings.Preset = f.preset
	}

	if fl.Changed("n") {
		settings.Params.N = f.n
	}
	if fl.Changed("version-arg") {
		settings.Params.Version = f.versionArg
	}
	if fl.Changed("dataset") {
		settings.Params.Dataset = f.dataset
	}
	if fl.Changed("data-preprocessing") {
		settings.Params.DataPreprocessing = f.preprocessing
	}
	if fl.Changed("data-augmentation") {
		settings.Params.DataAugmentation = f.augmentation
	}
	if fl.Changed("validation-split") {
		settings.Params.ValidationSplit = f.validationSpl
	}
	if fl.Changed("batch-size") {
		settings.Params.BatchSize = f.batchSize
	}
	if fl.Changed("epochs") {
		settings.Params.Epochs = f.epochs
	}
	if fl.Changed("learning-rate") {
		settings.Params.LearningRate = f.learningRate
	}
	if fl.Changed("optimizer") {
		settings.Params.OptimizerName = f.optimizer
	}
	if fl.Changed("weight-decay") {
		settings.Params.WeightDecay = f.weightDecay
	}
	if fl.Changed("momentum") {
		settings.Params.Momentum = f.momentum
	}
	if fl.Changed("lr-schedule") {
		settings.Params.LRSchedule = f.lrSchedule
	}
	if fl.Changed("seed") {
		seed := f.seed
		settings.Params.Seed = &seed
	}

	return settings, nil
}

// buildRunner resolves the trainer and constructs the execution
// backend. The returned cleanup releases resources held for the
// resolution (currently only the Docker ping client).
func buildRunner(ctx context.Context, sw *model.Sweep) (trainer.Runner, func(), error) {
	noop := func() {}

	// The script must exist up front regardless of runner; a typo'd
	// path should not surface five minutes into the batch.
	script, err := trainer.ResolveScript(sw.SourceRoot, sw.Script)
	if err != nil {
		return nil, noop, model.WrapCLIError(model.ExitScriptNotFound, "trainer script not found", err)
	}
	sw.Script = script

	if sw.Runner.IsDocker() {
		cli, err := docker.NewClient()
		if err != nil {
			return nil, noop, err
		}
		if err := cli.Ping(ctx); err != nil {
			_ = cli.Close()
			return nil, noop, err
		}
		// The runner shells out to `docker run`; the SDK client was
		// only needed to verify the daemon is reachable.
		_ = cli.Close()
		return docker.NewDockerRunner(sw), noop, nil
	}

	python, err := trainer.LookPython(sw.Python)
	if err != nil {
		return nil, noop, model.WrapCLIError(model.ExitScriptNotFound, "python interpreter not found", err)
	}
	sw.Python = python
	return trainer.NewLocalRunner(), noop, nil
}

// validationMessage folds the per-field validation errors into one
// multi-line message for the config error exit.
func validationMessage(errs []config.ValidationError) string {
	lines := make([]string, 0, len(errs)+1)
	lines = append(lines, "invalid sweep configuration:")
	for _, e := range errs {
		lines = append(lines, fmt.Sprintf("  - %s: %s", e.Field, e.Message))
	}
	return strings.Join(lines, "\n")
}

// printRunResult outputs the sweep summary in text or JSON format.
func printRunResult(result *model.SweepResult) {
	if IsJSONOutput() {
		printRunResultJSON(result)
	} else {
		printRunResultText(result)
	}
}

// printRunResultJSON outputs the full sweep result as structured JSON.
func printRunResultJSON(result *model.SweepResult) {
	data, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(data))
}

// printRunResultText outputs the sweep summary as human-readable text.
func printRunResultText(result *model.SweepResult) {
	fmt.Printf("Sweep %s finished: %d succeeded, %d failed (%d runs)\n",
		result.Sweep.ID, result.Succeeded(), result.Failed(), len(result.Runs))

	fmt.Printf("  %4s  %4s  %-28s %-10s %5s  %s\n", "SEQ", "RUN", "POINT", "STATUS", "EXIT", "DURATION")
	for _, run := range result.Runs {
		point := run.PointLabel
		if point == "" {
			point = "-"
		}
		exit := "-"
		duration := "-"
		if run.Status.Terminal() {
			exit = fmt.Sprintf("%d", run.ExitCode)
			duration = run.Duration.Round(time.Second).String()
		}
		fmt.Printf("  %4d  %4d  %-28s %-10s %5s  %s\n",
			run.Seq, run.RunIndex, point, run.Status, exit, duration)
	}

	if dir := commonArtifactDir(result); dir != "" {
		fmt.Printf("  Artifacts: %s\n", dir)
	} else {
		fmt.Printf("  Artifacts under: %s\n", result.Sweep.ArtifactRoot)
	}
}

// commonArtifactDir returns the single artifact directory shared by all
// runs, or "" when a grid spread them across several.
func commonArtifactDir(result *model.SweepResult) string {
	dir := ""
	for _, run := range result.Runs {
		if run.ArtifactDir == "" {
			continue
		}
		if dir == "" {
			dir = run.ArtifactDir
			continue
		}
		if run.ArtifactDir != dir {
			return ""
		}
	}
	return dir
}
