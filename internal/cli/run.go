package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/covpipe/internal/config"
	"github.com/aretw0/covpipe/internal/presentation/tui"
	"github.com/aretw0/covpipe/pkg/adapters/process"
	"github.com/aretw0/covpipe/pkg/domain"
	"github.com/aretw0/covpipe/pkg/observability"
	"github.com/aretw0/covpipe/pkg/runner"
)

// Execute handles the 'run' command and returns the process exit status.
func Execute(ctx context.Context, opts RunOptions) int {
	if opts.Watch {
		return RunWatch(ctx, opts)
	}
	_, code := runOnce(ctx, opts)
	return code
}

// runOnce loads the configuration, runs the pipeline and reports the outcome.
// The configuration is reloaded on every call so watch mode picks up edits.
func runOnce(ctx context.Context, opts RunOptions) (*domain.RunRecord, int) {
	logger := createLogger(opts)

	base, cfg, err := opts.load()
	if err != nil {
		fmt.Fprintf(opts.stderr(), "covpipe: %v\n", err)
		return nil, domain.ExitFailure
	}

	p, err := setupPersistence(cfg, base, opts.NoHistory, logger)
	if err != nil {
		fmt.Fprintf(opts.stderr(), "covpipe: %v\n", err)
		return nil, domain.ExitFailure
	}
	defer p.Close()

	r, metrics := newRunner(cfg, base, p, logger, opts)

	if !opts.Quiet {
		tui.PrintBanner(opts.stdout())
	}

	record, err := r.Run(ctx)
	code := domain.ExitCodeOf(err)

	if metrics != nil {
		if werr := metrics.WriteTextfile(resolve(base, cfg.Metrics.Textfile)); werr != nil {
			logger.Warn("Metrics export failed", "err", werr)
		}
	}

	if err != nil && !isStageFailure(err) {
		fmt.Fprintf(opts.stderr(), "covpipe: %v\n", err)
	}
	if record != nil && !opts.Quiet {
		tui.StatusLine(opts.stdout(), record)
	}
	return record, code
}

func newRunner(cfg config.Config, base string, p *persistence, logger *slog.Logger, opts RunOptions) (*runner.Runner, *observability.Metrics) {
	rOpts := []runner.Option{
		runner.WithLogger(logger),
		runner.WithBaseDir(base),
		runner.WithOutput(opts.stdout(), opts.stderr()),
		runner.WithCommandRunner(process.NewRunner(
			process.WithOutput(opts.stdout(), opts.stderr()),
			process.WithLogger(logger),
		)),
		runner.WithLifecycleHooks(createDebugHooks(logger)),
	}
	if p.store != nil {
		rOpts = append(rOpts, runner.WithStore(p.store))
	}
	if p.locker != nil {
		rOpts = append(rOpts, runner.WithLocker(p.locker, cfg.Lock.TTL))
	}

	var metrics *observability.Metrics
	if cfg.Metrics.Textfile != "" {
		metrics = observability.NewMetrics()
		rOpts = append(rOpts, runner.WithLifecycleHooks(metrics.Hooks()))
	}
	return runner.NewRunner(cfg.Config, rOpts...), metrics
}

// isStageFailure reports errors the runner has already explained on stderr.
func isStageFailure(err error) bool {
	var stageErr *domain.StageError
	return errors.As(err, &stageErr) && stageErr.Stage != domain.StagePrepare
}

func createDebugHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStageStart: func(ctx context.Context, e *domain.StageEvent) {
			logger.Debug("Enter Stage", "stage", e.Stage, "dir", e.Command.Dir)
		},
		OnStageFinish: func(ctx context.Context, e *domain.StageEvent) {
			logger.Debug("Leave Stage", "stage", e.Stage, "exit_code", e.Result.ExitCode)
		},
	}
}
