package runner

import (
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/covpipe/pkg/domain"
	"github.com/aretw0/covpipe/pkg/ports"
)

// DefaultLockTTL bounds how long an abandoned build directory lock survives.
const DefaultLockTTL = 30 * time.Minute

// Option defines a functional option for configuring the Runner.
type Option func(*Runner)

// WithCommandRunner configures the strategy for launching stage processes.
func WithCommandRunner(cr ports.CommandRunner) Option {
	return func(r *Runner) {
		r.commands = cr
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(r *Runner) {
		r.hooks = r.hooks.Merge(hooks)
	}
}

// WithStore configures the RunStore used to persist run records.
// If nil, runs are not recorded.
func WithStore(store ports.RunStore) Option {
	return func(r *Runner) {
		r.store = store
	}
}

// WithLocker guards the build directory against concurrent runs.
func WithLocker(locker ports.Locker, ttl time.Duration) Option {
	return func(r *Runner) {
		r.locker = locker
		if ttl > 0 {
			r.lockTTL = ttl
		}
	}
}

// WithOutput sets where command traces and the final message go (out) and where
// failure notices go (errOut).
func WithOutput(out, errOut io.Writer) Option {
	return func(r *Runner) {
		r.out = out
		r.errOut = errOut
	}
}

// WithBaseDir pins the base directory instead of using the working directory.
func WithBaseDir(dir string) Option {
	return func(r *Runner) {
		r.baseDir = dir
	}
}

// WithEnviron sets the environment every stage inherits before the toolchain is applied.
func WithEnviron(env []string) Option {
	return func(r *Runner) {
		r.environ = func() []string { return env }
	}
}

// WithSummary toggles parsing the coverage-data file after a successful run.
func WithSummary(enabled bool) Option {
	return func(r *Runner) {
		r.summarize = enabled
	}
}

// WithClock overrides time and ID generation (tests).
func WithClock(now func() time.Time, newID func() string) Option {
	return func(r *Runner) {
		if now != nil {
			r.now = now
		}
		if newID != nil {
			r.newID = newID
		}
	}
}
