package covpipe

import (
	"context"

	"github.com/aretw0/covpipe/pkg/domain"
	"github.com/aretw0/covpipe/pkg/runner"
)

// Version is overridden at build time with -ldflags "-X github.com/aretw0/covpipe.Version=...".
var Version = "dev"

// Config describes one pipeline.
type Config = runner.Config

// DefaultConfig returns the gcc-9/Ninja configuration for the "example" project.
func DefaultConfig() Config {
	return runner.DefaultConfig()
}

// Pipeline is the high-level entry point for library consumers.
type Pipeline struct {
	runner *runner.Runner
}

// New creates a Pipeline. Options are the runner's functional options.
func New(cfg Config, opts ...runner.Option) *Pipeline {
	return &Pipeline{runner: runner.NewRunner(cfg, opts...)}
}

// Run executes the five stages and returns the run record.
// A non-nil error carries the exit status; see domain.ExitCodeOf.
func (p *Pipeline) Run(ctx context.Context) (*domain.RunRecord, error) {
	return p.runner.Run(ctx)
}
