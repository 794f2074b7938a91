package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/aretw0/covpipe/internal/config"
	"github.com/aretw0/covpipe/internal/logging"
)

// RunOptions contains everything the commands need besides their own arguments.
type RunOptions struct {
	BaseDir    string
	ConfigPath string
	Overrides  []string

	Watch     bool
	NoHistory bool
	Quiet     bool

	Debug    bool
	JSONLogs bool

	Stdout io.Writer
	Stderr io.Writer
}

func (o RunOptions) stdout() io.Writer {
	if o.Stdout != nil {
		return o.Stdout
	}
	return os.Stdout
}

func (o RunOptions) stderr() io.Writer {
	if o.Stderr != nil {
		return o.Stderr
	}
	return os.Stderr
}

// baseDir returns the absolute base directory, defaulting to the working directory.
func (o RunOptions) baseDir() (string, error) {
	dir := o.BaseDir
	if dir == "" {
		dir = "."
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("invalid base directory: %w", err)
	}
	return abs, nil
}

// load resolves the base directory and reads its configuration.
func (o RunOptions) load() (string, config.Config, error) {
	base, err := o.baseDir()
	if err != nil {
		return "", config.Config{}, err
	}
	cfg, err := config.Load(base, o.ConfigPath, o.Overrides)
	if err != nil {
		return "", config.Config{}, err
	}
	return base, cfg, nil
}

// createLogger configures the application logger. Logs always go to stderr so
// stdout carries stage output and the report location.
func createLogger(opts RunOptions) *slog.Logger {
	level := slog.LevelInfo
	if opts.Debug {
		level = slog.LevelDebug
	} else if !opts.JSONLogs {
		level = slog.LevelWarn
	}
	return logging.NewWithWriter(opts.stderr(), level, opts.JSONLogs)
}
