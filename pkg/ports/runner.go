package ports

import (
	"context"

	"github.com/aretw0/covpipe/pkg/domain"
)

// CommandRunner launches an external tool and waits for it to exit.
type CommandRunner interface {
	// Run executes cmd synchronously and returns its exit status.
	// A non-nil error means the process could not be started or waited for;
	// the returned code is still meaningful in that case (e.g. 127 when not found).
	Run(ctx context.Context, cmd domain.Command) (int, error)
}

// CommandRunnerFunc adapts a function to the CommandRunner interface.
type CommandRunnerFunc func(ctx context.Context, cmd domain.Command) (int, error)

// Run implements CommandRunner.
func (f CommandRunnerFunc) Run(ctx context.Context, cmd domain.Command) (int, error) {
	return f(ctx, cmd)
}
