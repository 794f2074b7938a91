package runner

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/aretw0/covpipe/pkg/domain"
)

// Layout holds the absolute paths of one run.
type Layout struct {
	BaseDir      string
	ProjectDir   string
	BuildDir     string
	CoverageFile string
	ReportDir    string
	ReportIndex  string
}

// ResolveLayout anchors the configured paths at baseDir, which must be absolute.
func (c Config) ResolveLayout(baseDir string) Layout {
	project := filepath.Join(baseDir, c.ProjectDir)
	report := anchor(baseDir, c.Report.Output)
	return Layout{
		BaseDir:      baseDir,
		ProjectDir:   project,
		BuildDir:     filepath.Join(project, c.BuildDir),
		CoverageFile: anchor(baseDir, c.Coverage.Output),
		ReportDir:    report,
		ReportIndex:  filepath.Join(report, "index.html"),
	}
}

func anchor(baseDir, p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(baseDir, p)
}

// toolPath keeps bare executable names for PATH lookup and anchors anything
// that looks like a path at baseDir.
func toolPath(baseDir, name string) string {
	if strings.ContainsRune(name, '/') || strings.ContainsRune(name, filepath.Separator) {
		return anchor(baseDir, name)
	}
	return name
}

// Plan is the ordered list of stages for one run.
type Plan struct {
	Layout Layout
	Stages []domain.Stage
}

// BuildPlan resolves cfg against baseDir into the five ordered stage commands.
// env becomes the complete environment of every command; the toolchain is merged in.
func BuildPlan(cfg Config, baseDir string, env []string) (*Plan, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if !filepath.IsAbs(baseDir) {
		return nil, fmt.Errorf("base directory must be absolute, got %q", baseDir)
	}

	layout := cfg.ResolveLayout(baseDir)
	childEnv := cfg.Toolchain.Environ(env, cfg.Env)

	sourceArg, err := filepath.Rel(layout.BuildDir, layout.ProjectDir)
	if err != nil {
		sourceArg = layout.ProjectDir
	}

	command := func(tool string, args ...string) domain.Command {
		return domain.Command{
			Name: toolPath(baseDir, tool),
			Args: args,
			Dir:  layout.BuildDir,
			Env:  childEnv,
		}
	}

	configureArgs := append([]string{sourceArg, "-G", cfg.Generator}, cfg.Args.Configure...)

	plan := &Plan{
		Layout: layout,
		Stages: []domain.Stage{
			{Kind: domain.StageConfigure, Command: command(cfg.Tools.CMake, configureArgs...)},
			{Kind: domain.StageBuild, Command: command(cfg.Tools.Ninja, copyArgs(cfg.Args.Build)...)},
			{Kind: domain.StageTest, Command: command(cfg.Tools.CTest, copyArgs(cfg.Args.Test)...)},
			{Kind: domain.StageCoverage, Command: command(cfg.Tools.Fastcov, coverageArgs(cfg, layout)...)},
			{Kind: domain.StageReport, Command: command(cfg.Tools.Genhtml, reportArgs(cfg, layout)...)},
		},
	}
	return plan, nil
}

func coverageArgs(cfg Config, layout Layout) []string {
	cov := cfg.Coverage
	args := []string{"--gcov", cfg.Tools.Gcov}
	if cov.Branch {
		args = append(args, "--branch-coverage")
	}
	if cov.ProcessGcno {
		args = append(args, "--process-gcno")
	}
	if cov.Jobs > 0 {
		args = append(args, "--jobs", strconv.Itoa(cov.Jobs))
	}
	if len(cov.ExcludeGcda) > 0 {
		args = append(args, "--exclude-gcda")
		args = append(args, cov.ExcludeGcda...)
	}
	if len(cov.Include) > 0 {
		args = append(args, "--include")
		args = append(args, cov.Include...)
	}
	if len(cov.Exclude) > 0 {
		args = append(args, "--exclude")
		args = append(args, cov.Exclude...)
	}
	return append(args, "--lcov", "-o", layout.CoverageFile)
}

func reportArgs(cfg Config, layout Layout) []string {
	var args []string
	if cfg.Report.Branch {
		args = append(args, "--branch-coverage")
	}
	return append(args, layout.CoverageFile, "-o", layout.ReportDir)
}

func copyArgs(args []string) []string {
	if len(args) == 0 {
		return nil
	}
	return append([]string(nil), args...)
}
