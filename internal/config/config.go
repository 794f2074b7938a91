// Package config loads covpipe.yaml into a runner configuration plus the
// settings of the surrounding tool (history, locking, metrics).
package config

import (
	"fmt"
	"regexp"
	"slices"
	"time"

	"github.com/aretw0/covpipe/pkg/persistence/middleware"
	"github.com/aretw0/covpipe/pkg/runner"
)

// DefaultFile is looked up in the base directory when no file is named.
const DefaultFile = "covpipe.yaml"

// History backends.
const (
	HistoryFile  = "file"
	HistoryRedis = "redis"
	HistoryNone  = "none"
)

// Lock backends.
const (
	LockNone   = "none"
	LockMemory = "memory"
	LockRedis  = "redis"
)

// History selects where run records are kept.
type History struct {
	Backend  string        `mapstructure:"backend" yaml:"backend"`
	Dir      string        `mapstructure:"dir" yaml:"dir"`
	RedisURL string        `mapstructure:"redis_url" yaml:"redis_url"`
	TTL      time.Duration `mapstructure:"ttl" yaml:"ttl"`

	// Keep bounds the number of stored runs; 0 keeps everything.
	Keep int `mapstructure:"keep" yaml:"keep"`
	// Redact lists patterns for KEY=VALUE arguments whose values are masked before saving.
	Redact []string `mapstructure:"redact" yaml:"redact,omitempty"`
}

// Lock selects how the build directory is guarded against concurrent runs.
type Lock struct {
	Backend  string        `mapstructure:"backend" yaml:"backend"`
	RedisURL string        `mapstructure:"redis_url" yaml:"redis_url"`
	TTL      time.Duration `mapstructure:"ttl" yaml:"ttl"`
}

// Metrics configures the Prometheus textfile export. Empty disables it.
type Metrics struct {
	Textfile string `mapstructure:"textfile" yaml:"textfile"`
}

// Config is the full contents of covpipe.yaml.
type Config struct {
	runner.Config `mapstructure:",squash" yaml:",inline"`

	History History `mapstructure:"history" yaml:"history"`
	Lock    Lock    `mapstructure:"lock" yaml:"lock"`
	Metrics Metrics `mapstructure:"metrics" yaml:"metrics"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Config: runner.DefaultConfig(),
		History: History{
			Backend: HistoryFile,
			Dir:     ".covpipe/runs",
			Keep:    100,
			Redact:  slices.Clone(middleware.DefaultRedactPatterns),
		},
		Lock: Lock{
			Backend: LockNone,
			TTL:     runner.DefaultLockTTL,
		},
	}
}

// Validate checks the pipeline and the tool settings.
func (c Config) Validate() error {
	if err := c.Config.Validate(); err != nil {
		return err
	}

	switch c.History.Backend {
	case HistoryFile:
		if c.History.Dir == "" {
			return fmt.Errorf("history.dir is required for the file backend")
		}
	case HistoryRedis:
		if c.History.RedisURL == "" {
			return fmt.Errorf("history.redis_url is required for the redis backend")
		}
	case HistoryNone:
	default:
		return fmt.Errorf("unknown history.backend %q (want file, redis or none)", c.History.Backend)
	}
	if c.History.TTL < 0 {
		return fmt.Errorf("history.ttl must not be negative")
	}
	if c.History.Keep < 0 {
		return fmt.Errorf("history.keep must not be negative")
	}
	for _, p := range c.History.Redact {
		if _, err := regexp.Compile(p); err != nil {
			return fmt.Errorf("history.redact: %w", err)
		}
	}

	switch c.Lock.Backend {
	case LockNone, LockMemory:
	case LockRedis:
		if c.Lock.RedisURL == "" {
			return fmt.Errorf("lock.redis_url is required for the redis backend")
		}
	default:
		return fmt.Errorf("unknown lock.backend %q (want none, memory or redis)", c.Lock.Backend)
	}
	if c.Lock.TTL < 0 {
		return fmt.Errorf("lock.ttl must not be negative")
	}
	return nil
}
