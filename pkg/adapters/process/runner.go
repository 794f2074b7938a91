package process

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"

	"github.com/aretw0/covpipe/pkg/domain"
)

var execCommandContext = exec.CommandContext

// Runner implements ports.CommandRunner by launching local processes.
// Child output is streamed, not buffered: compiler and test logs can be large.
type Runner struct {
	stdout io.Writer
	stderr io.Writer
	logger *slog.Logger
}

// RunnerOption configures the runner.
type RunnerOption func(*Runner)

// WithOutput sets where child stdout and stderr are copied.
func WithOutput(stdout, stderr io.Writer) RunnerOption {
	return func(r *Runner) {
		r.stdout = stdout
		r.stderr = stderr
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

// NewRunner creates a new Process Runner writing to the host's stdout/stderr.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{
		stdout: os.Stdout,
		stderr: os.Stderr,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes the command and waits for it.
//
// The child gets exactly cmd.Env (nil means inherit the host environment) and runs in
// its own process group, so cancelling ctx kills the tool and everything it spawned.
func (r *Runner) Run(ctx context.Context, cmd domain.Command) (int, error) {
	if cmd.Name == "" {
		return domain.ExitFailure, fmt.Errorf("command name is empty")
	}

	if err := ctx.Err(); err != nil {
		return domain.ExitInterrupted, fmt.Errorf("execution cancelled: %w", err)
	}

	c := execCommandContext(ctx, cmd.Name, cmd.Args...)
	c.Dir = cmd.Dir
	c.Env = cmd.Env
	c.Stdout = r.stdout
	c.Stderr = r.stderr
	c.Stdin = nil
	setProcessGroup(c)
	c.Cancel = func() error {
		return killProcessGroup(c)
	}

	r.logger.Debug("Starting process", "cmd", cmd.Name, "args", cmd.Args, "dir", cmd.Dir)

	if err := c.Start(); err != nil {
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, os.ErrNotExist) {
			return domain.ExitNotFound, fmt.Errorf("failed to start %s: %w", cmd.Name, err)
		}
		if errors.Is(err, os.ErrPermission) {
			return domain.ExitNotExecutable, fmt.Errorf("failed to start %s: %w", cmd.Name, err)
		}
		return domain.ExitFailure, fmt.Errorf("failed to start %s: %w", cmd.Name, err)
	}

	err := c.Wait()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return domain.ExitInterrupted, fmt.Errorf("execution cancelled: %w", ctxErr)
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code := exitErr.ExitCode()
			if code < 0 {
				// Killed by a signal we did not send: report it the way a shell does
				sigCode, ok := signalExitCode(exitErr)
				if !ok {
					return domain.ExitFailure, fmt.Errorf("%s terminated: %w", cmd.Name, err)
				}
				r.logger.Debug("Process killed by signal", "cmd", cmd.Name, "exit_code", sigCode)
				return sigCode, nil
			}
			r.logger.Debug("Process exited", "cmd", cmd.Name, "exit_code", code)
			return code, nil
		}
		return domain.ExitFailure, fmt.Errorf("failed to wait for %s: %w", cmd.Name, err)
	}

	r.logger.Debug("Process exited", "cmd", cmd.Name, "exit_code", 0)
	return 0, nil
}
