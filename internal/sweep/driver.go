package sweep

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/shinji-kodama/train-sweep/internal/model"
	"github.com/shinji-kodama/train-sweep/internal/trainer"
)

// Driver executes a plan's invocations strictly one at a time, in plan
// order. A failed run never stops the batch: the driver records the
// failure and moves on, matching how an unattended overnight sweep
// should behave. Context cancellation is the only thing that cuts a
// batch short, and it leaves not-yet-started runs pending.
type Driver struct {
	runner trainer.Runner
	logger *zap.Logger

	// OnRunStart fires just before an invocation's process starts.
	OnRunStart func(inv Invocation)

	// OnRunEnd fires after an invocation finished, with its final
	// result. The run command records history rows from this hook.
	OnRunEnd func(run model.RunResult)
}

// NewDriver returns a Driver executing runs through the given runner.
// A nil logger disables diagnostics.
func NewDriver(runner trainer.Runner, logger *zap.Logger) *Driver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Driver{runner: runner, logger: logger}
}

// Execute runs the plan and returns the per-run outcomes. The result
// always holds one entry per planned invocation; runs skipped due to
// cancellation remain pending with a zero start time.
func (d *Driver) Execute(ctx context.Context, plan *Plan) *model.SweepResult {
	sw := plan.Sweep
	result := &model.SweepResult{
		Sweep: sw,
		Runs:  make([]model.RunResult, len(plan.Invocations)),
	}
	for i, inv := range plan.Invocations {
		result.Runs[i] = model.RunResult{
			Seq:         inv.Seq,
			RunIndex:    inv.RunIndex,
			PointLabel:  inv.Point.Label(),
			Status:      model.StatusPending,
			ArtifactDir: inv.ArtifactDir,
		}
	}

	d.logger.Info("starting sweep",
		zap.String("sweep_id", sw.ID),
		zap.String("runner", string(sw.Runner)),
		zap.Int("points", len(plan.Points)),
		zap.Int("runs", len(plan.Invocations)))

	for i := range plan.Invocations {
		inv := plan.Invocations[i]
		if ctx.Err() != nil {
			d.logger.Warn("sweep interrupted",
				zap.String("sweep_id", sw.ID),
				zap.Int("completed", i),
				zap.Int("pending", len(plan.Invocations)-i))
			break
		}

		run := &result.Runs[i]
		run.Status = model.StatusRunning
		run.StartedAt = time.Now()
		if d.OnRunStart != nil {
			d.OnRunStart(inv)
		}
		d.logger.Info("starting run",
			zap.Int("seq", inv.Seq),
			zap.Int("run", inv.RunIndex),
			zap.String("point", inv.Point.Label()),
			zap.String("model", inv.Params.ModelName()))

		status, err := d.runner.Run(ctx, trainer.RunSpec{
			Python:       sw.Python,
			Script:       sw.Script,
			SourceRoot:   sw.SourceRoot,
			ArtifactRoot: sw.ArtifactRoot,
			Args:         inv.Args,
			SweepID:      sw.ID,
			RunIndex:     inv.RunIndex,
			Seq:          inv.Seq,
		})

		run.FinishedAt = time.Now()
		run.Duration = run.FinishedAt.Sub(run.StartedAt)
		run.ExitCode = status

		switch {
		case err == nil && status == 0:
			run.Status = model.StatusSucceeded
			d.logger.Info("run succeeded",
				zap.Int("seq", inv.Seq),
				zap.Duration("duration", run.Duration))
		default:
			run.Status = model.StatusFailed
			fields := []zap.Field{
				zap.Int("seq", inv.Seq),
				zap.Int("exit_code", status),
				zap.Duration("duration", run.Duration),
			}
			if err != nil {
				fields = append(fields, zap.Error(err))
			}
			d.logger.Warn("run failed", fields...)
		}

		if d.OnRunEnd != nil {
			d.OnRunEnd(*run)
		}
	}

	d.logger.Info("sweep finished",
		zap.String("sweep_id", sw.ID),
		zap.Int("succeeded", result.Succeeded()),
		zap.Int("failed", result.Failed()),
		zap.Int("exit_status", result.ExitStatus()))

	return result
}
