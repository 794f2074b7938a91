package runner

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/aretw0/covpipe/pkg/domain"
)

// Tools names the external executables. Values containing a path separator are
// resolved against the base directory; bare names are looked up in PATH.
type Tools struct {
	CMake   string `mapstructure:"cmake" yaml:"cmake"`
	Ninja   string `mapstructure:"ninja" yaml:"ninja"`
	CTest   string `mapstructure:"ctest" yaml:"ctest"`
	Fastcov string `mapstructure:"fastcov" yaml:"fastcov"`
	Genhtml string `mapstructure:"genhtml" yaml:"genhtml"`
	Gcov    string `mapstructure:"gcov" yaml:"gcov"`
}

// StageArgs are appended to the fixed arguments of the first three stages.
type StageArgs struct {
	Configure []string `mapstructure:"configure" yaml:"configure,omitempty"`
	Build     []string `mapstructure:"build" yaml:"build,omitempty"`
	Test      []string `mapstructure:"test" yaml:"test,omitempty"`
}

// CoverageConfig maps onto fastcov flags.
type CoverageConfig struct {
	Branch      bool     `mapstructure:"branch" yaml:"branch"`
	Exclude     []string `mapstructure:"exclude" yaml:"exclude"`
	Include     []string `mapstructure:"include" yaml:"include,omitempty"`
	ExcludeGcda []string `mapstructure:"exclude_gcda" yaml:"exclude_gcda,omitempty"`
	Jobs        int      `mapstructure:"jobs" yaml:"jobs"`
	ProcessGcno bool     `mapstructure:"process_gcno" yaml:"process_gcno"`
	Output      string   `mapstructure:"output" yaml:"output"`
}

// ReportConfig maps onto genhtml flags.
type ReportConfig struct {
	Branch bool   `mapstructure:"branch" yaml:"branch"`
	Output string `mapstructure:"output" yaml:"output"`
}

// Config describes one pipeline. Relative paths are relative to the base directory.
type Config struct {
	ProjectDir string `mapstructure:"project_dir" yaml:"project_dir"`
	BuildDir   string `mapstructure:"build_dir" yaml:"build_dir"` // relative to ProjectDir
	Generator  string `mapstructure:"generator" yaml:"generator"`

	// Trace echoes every command line before it runs.
	Trace bool `mapstructure:"trace" yaml:"trace"`

	Toolchain domain.Toolchain  `mapstructure:"toolchain" yaml:"toolchain"`
	Env       map[string]string `mapstructure:"env" yaml:"env,omitempty"`

	Tools    Tools          `mapstructure:"tools" yaml:"tools"`
	Args     StageArgs      `mapstructure:"args" yaml:"args"`
	Coverage CoverageConfig `mapstructure:"coverage" yaml:"coverage"`
	Report   ReportConfig   `mapstructure:"report" yaml:"report"`
}

// DefaultConfig mirrors the reference build script: gcc-9 with Ninja, fastcov from
// the base directory, system headers and tests excluded from coverage.
func DefaultConfig() Config {
	return Config{
		ProjectDir: "example",
		BuildDir:   "build",
		Generator:  "Ninja",
		Trace:      true,
		Toolchain:  domain.Toolchain{CC: "gcc-9", CXX: "g++-9"},
		Tools: Tools{
			CMake:   "cmake",
			Ninja:   "ninja",
			CTest:   "ctest",
			Fastcov: "./fastcov.py",
			Genhtml: "genhtml",
			Gcov:    "gcov-9",
		},
		Coverage: CoverageConfig{
			Branch:  true,
			Exclude: []string{"/usr/include", "test/"},
			Output:  "coverage.info",
		},
		Report: ReportConfig{
			Branch: true,
			Output: "coverage_report",
		},
	}
}

// Validate reports the first configuration problem found.
func (c Config) Validate() error {
	if err := relativeInside("project_dir", c.ProjectDir); err != nil {
		return err
	}
	if err := relativeInside("build_dir", c.BuildDir); err != nil {
		return err
	}
	if filepath.Clean(c.BuildDir) == "." {
		return fmt.Errorf("build_dir must not be the project directory itself")
	}
	if c.Generator == "" {
		return fmt.Errorf("generator is required")
	}

	tools := map[string]string{
		"tools.cmake":   c.Tools.CMake,
		"tools.ninja":   c.Tools.Ninja,
		"tools.ctest":   c.Tools.CTest,
		"tools.fastcov": c.Tools.Fastcov,
		"tools.genhtml": c.Tools.Genhtml,
		"tools.gcov":    c.Tools.Gcov,
	}
	for _, key := range []string{"tools.cmake", "tools.ninja", "tools.ctest", "tools.fastcov", "tools.genhtml", "tools.gcov"} {
		if strings.TrimSpace(tools[key]) == "" {
			return fmt.Errorf("%s is required", key)
		}
	}

	for _, p := range c.Coverage.Exclude {
		if p == "" {
			return fmt.Errorf("coverage.exclude contains an empty pattern")
		}
	}
	for _, p := range c.Coverage.Include {
		if p == "" {
			return fmt.Errorf("coverage.include contains an empty pattern")
		}
	}
	if c.Coverage.Jobs < 0 {
		return fmt.Errorf("coverage.jobs must not be negative")
	}
	if c.Coverage.Output == "" {
		return fmt.Errorf("coverage.output is required")
	}
	if c.Report.Output == "" {
		return fmt.Errorf("report.output is required")
	}
	return nil
}

func relativeInside(key, p string) error {
	if strings.TrimSpace(p) == "" {
		return fmt.Errorf("%s is required", key)
	}
	if filepath.IsAbs(p) {
		return fmt.Errorf("%s must be relative, got %q", key, p)
	}
	clean := filepath.Clean(p)
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return fmt.Errorf("%s must not leave its parent directory, got %q", key, p)
	}
	return nil
}
