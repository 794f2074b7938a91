package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/aretw0/covpipe/pkg/adapters/process"
	"github.com/aretw0/covpipe/pkg/domain"
	"github.com/aretw0/covpipe/pkg/lcov"
	"github.com/aretw0/covpipe/pkg/ports"
	"github.com/google/uuid"
)

// Runner executes the pipeline. A Runner may be reused for consecutive runs
// but must not run concurrently with itself on the same build directory.
type Runner struct {
	cfg Config

	commands ports.CommandRunner
	store    ports.RunStore
	locker   ports.Locker
	lockTTL  time.Duration
	hooks    domain.LifecycleHooks
	logger   *slog.Logger

	out    io.Writer
	errOut io.Writer

	baseDir   string
	environ   func() []string
	summarize bool

	now   func() time.Time
	newID func() string
}

// NewRunner creates a Runner for cfg. Without options it launches real processes,
// writes to Stdout/Stderr and keeps no history.
func NewRunner(cfg Config, opts ...Option) *Runner {
	r := &Runner{
		cfg:       cfg,
		commands:  process.NewRunner(),
		lockTTL:   DefaultLockTTL,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		out:       os.Stdout,
		errOut:    os.Stderr,
		environ:   os.Environ,
		summarize: true,
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Config returns the configuration the runner was built with.
func (r *Runner) Config() Config {
	return r.cfg
}

// Run executes configure, build, test, coverage and report in order.
//
// On success the record has status succeeded and exit code 0. When a stage exits
// non-zero the later stages never start, the record carries that stage's exit code,
// and the returned error is a *domain.StageError. Artifacts of earlier stages are
// left on disk.
func (r *Runner) Run(ctx context.Context) (*domain.RunRecord, error) {
	baseDir, err := r.resolveBaseDir()
	if err != nil {
		return nil, err
	}

	record := domain.NewRunRecord(r.newID(), baseDir, r.now())
	record.Toolchain = r.cfg.Toolchain
	logger := r.logger.With("run_id", record.ID)

	plan, err := BuildPlan(r.cfg, baseDir, r.environ())
	if err != nil {
		return record, r.finish(ctx, logger, record, r.prepareFailure(record, err))
	}
	record.ProjectDir = plan.Layout.ProjectDir
	record.BuildDir = plan.Layout.BuildDir
	record.CoverageFile = plan.Layout.CoverageFile
	record.ReportDir = plan.Layout.ReportDir
	record.ReportIndex = plan.Layout.ReportIndex

	if r.hooks.OnRunStart != nil {
		r.hooks.OnRunStart(ctx, &domain.RunEvent{
			EventBase: r.event(domain.EventRunStart, record.ID),
			Record:    record,
		})
	}
	r.save(ctx, logger, record)

	logger.Info("Pipeline started", "base_dir", baseDir, "build_dir", plan.Layout.BuildDir,
		"cc", r.cfg.Toolchain.CC, "cxx", r.cfg.Toolchain.CXX)

	if r.locker != nil {
		unlock, err := r.locker.Lock(ctx, plan.Layout.BuildDir, r.lockTTL)
		if err != nil {
			return record, r.finish(ctx, logger, record, r.prepareFailure(record, fmt.Errorf("%w: %w", domain.ErrLockHeld, err)))
		}
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				logger.Warn("Failed to release build directory lock", "err", err)
			}
		}()
	}

	if err := resetDir(plan.Layout.BuildDir); err != nil {
		return record, r.finish(ctx, logger, record, r.prepareFailure(record, err))
	}

	for _, stage := range plan.Stages {
		if err := r.runStage(ctx, logger, record, stage); err != nil {
			return record, r.finish(ctx, logger, record, err)
		}
	}

	if r.summarize {
		r.attachSummary(logger, record)
	}

	record.Status = domain.RunSucceeded
	record.ExitCode = domain.ExitSuccess
	fmt.Fprintf(r.out, "Coverage report at %s\n", record.ReportIndex)

	return record, r.finish(ctx, logger, record, nil)
}

func (r *Runner) resolveBaseDir() (string, error) {
	dir := r.baseDir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to determine working directory: %w", err)
		}
		dir = wd
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("invalid base directory: %w", err)
	}
	return abs, nil
}

// resetDir deletes any previous build directory so no stale state leaks into this run.
func resetDir(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to remove build directory: %w", err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create build directory: %w", err)
	}
	return nil
}

func (r *Runner) runStage(ctx context.Context, logger *slog.Logger, record *domain.RunRecord, stage domain.Stage) error {
	if err := ctx.Err(); err != nil {
		return r.cancelled(record, stage, err)
	}

	if r.cfg.Trace {
		fmt.Fprintf(r.out, "+ %s\n", stage.Command)
	}
	if r.hooks.OnStageStart != nil {
		r.hooks.OnStageStart(ctx, &domain.StageEvent{
			EventBase: r.event(domain.EventStageStart, record.ID),
			Stage:     stage.Kind,
			Command:   stage.Command,
		})
	}

	result := domain.StageResult{
		Stage:     stage.Kind,
		Command:   stage.Command,
		StartedAt: r.now(),
	}
	logger.Debug("Stage started", "stage", stage.Kind, "cmd", stage.Command.String())

	code, runErr := r.commands.Run(ctx, stage.Command)
	result.FinishedAt = r.now()
	result.ExitCode = code
	if runErr != nil {
		result.Error = runErr.Error()
		if result.ExitCode == 0 {
			result.ExitCode = domain.ExitFailure
		}
	}
	record.Stages = append(record.Stages, result)

	if r.hooks.OnStageFinish != nil {
		r.hooks.OnStageFinish(ctx, &domain.StageEvent{
			EventBase: r.event(domain.EventStageFinish, record.ID),
			Stage:     stage.Kind,
			Command:   stage.Command,
			Result:    &result,
		})
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return r.cancelled(record, stage, ctxErr)
	}

	if !result.Succeeded() {
		attrs := []any{"stage", stage.Kind, "exit_code", result.ExitCode}
		if runErr != nil {
			attrs = append(attrs, "err", runErr)
		}
		logger.Debug("Stage failed", attrs...)
		// The failing command is the only thing the runner adds to the tool's own output
		fmt.Fprintf(r.errOut, "+ %s\n", stage.Command)

		record.Status = domain.RunFailed
		record.ExitCode = result.ExitCode
		record.FailedStage = stage.Kind
		return &domain.StageError{
			Stage:    stage.Kind,
			Command:  stage.Command,
			ExitCode: result.ExitCode,
			Err:      runErr,
		}
	}

	logger.Info("Stage finished", "stage", stage.Kind, "duration", result.Duration())
	return nil
}

func (r *Runner) cancelled(record *domain.RunRecord, stage domain.Stage, err error) error {
	record.Status = domain.RunCancelled
	record.ExitCode = domain.ExitInterrupted
	record.FailedStage = stage.Kind
	return &domain.StageError{
		Stage:    stage.Kind,
		Command:  stage.Command,
		ExitCode: domain.ExitInterrupted,
		Err:      fmt.Errorf("pipeline cancelled: %w", err),
	}
}

func (r *Runner) prepareFailure(record *domain.RunRecord, err error) error {
	record.Status = domain.RunFailed
	record.ExitCode = domain.ExitFailure
	record.FailedStage = domain.StagePrepare
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		record.Status = domain.RunCancelled
		record.ExitCode = domain.ExitInterrupted
	}
	return &domain.StageError{
		Stage:    domain.StagePrepare,
		ExitCode: record.ExitCode,
		Err:      err,
	}
}

// attachSummary never changes the outcome: the report already exists.
func (r *Runner) attachSummary(logger *slog.Logger, record *domain.RunRecord) {
	tf, err := lcov.ParseFile(record.CoverageFile)
	if err != nil {
		logger.Warn("Could not summarize coverage data", "file", record.CoverageFile, "err", err)
		return
	}
	summary := tf.Summary()
	record.Summary = &summary
	logger.Info("Coverage summary",
		"files", summary.Files,
		"lines", fmt.Sprintf("%d/%d", summary.LinesHit, summary.LinesFound),
		"branches", fmt.Sprintf("%d/%d", summary.BranchesHit, summary.BranchesFound),
	)
}

func (r *Runner) finish(ctx context.Context, logger *slog.Logger, record *domain.RunRecord, runErr error) error {
	record.FinishedAt = r.now()

	if r.hooks.OnRunFinish != nil {
		r.hooks.OnRunFinish(ctx, &domain.RunEvent{
			EventBase: r.event(domain.EventRunFinish, record.ID),
			Record:    record,
		})
	}
	r.save(context.WithoutCancel(ctx), logger, record)

	if runErr != nil {
		logger.Info("Pipeline halted", "status", record.Status, "exit_code", record.ExitCode, "stage", record.FailedStage)
	} else {
		logger.Info("Pipeline finished", "duration", record.Duration(), "report", record.ReportIndex)
	}
	return runErr
}

// save is best effort: history must never change the pipeline's exit status.
func (r *Runner) save(ctx context.Context, logger *slog.Logger, record *domain.RunRecord) {
	if r.store == nil {
		return
	}
	if err := r.store.Save(ctx, record); err != nil {
		logger.Warn("Failed to persist run record", "err", err)
	}
}

func (r *Runner) event(t domain.EventType, runID string) domain.EventBase {
	return domain.EventBase{
		Timestamp: r.now(),
		Type:      t,
		RunID:     runID,
	}
}
