package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aretw0/covpipe/internal/config"
	"github.com/aretw0/covpipe/internal/presentation/tui"
	"github.com/aretw0/covpipe/pkg/adapters/process"
	"github.com/aretw0/covpipe/pkg/domain"
)

// Validate checks everything the pipeline needs before it runs and prints a table.
func Validate(opts RunOptions) int {
	base, cfg, err := opts.load()
	if err != nil {
		fmt.Fprintf(opts.stderr(), "covpipe: %v\n", err)
		return domain.ExitFailure
	}

	if !tui.ChecksTable(opts.stdout(), Preflight(cfg, base)) {
		return domain.ExitFailure
	}
	return domain.ExitSuccess
}

// Preflight resolves the project layout and every external executable.
func Preflight(cfg config.Config, base string) []tui.Check {
	layout := cfg.ResolveLayout(base)
	lists := filepath.Join(layout.ProjectDir, "CMakeLists.txt")

	checks := []tui.Check{
		{Name: "project", Target: layout.ProjectDir, Err: isDir(layout.ProjectDir)},
		{Name: "CMakeLists.txt", Target: lists, Err: isFile(lists)},
	}

	tools := []struct{ name, exe string }{
		{"CC", cfg.Toolchain.CC},
		{"CXX", cfg.Toolchain.CXX},
		{"cmake", cfg.Tools.CMake},
		{"ninja", cfg.Tools.Ninja},
		{"ctest", cfg.Tools.CTest},
		{"fastcov", cfg.Tools.Fastcov},
		{"genhtml", cfg.Tools.Genhtml},
		{"gcov", cfg.Tools.Gcov},
	}
	for _, t := range tools {
		path, err := process.Resolve(t.exe, base)
		target := t.exe
		if err == nil {
			target = path
		}
		checks = append(checks, tui.Check{Name: t.name, Target: target, Err: err})
	}
	return checks
}

func isDir(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return errors.New("not found")
	}
	if !info.IsDir() {
		return errors.New("not a directory")
	}
	return nil
}

func isFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return errors.New("not found")
	}
	if info.IsDir() {
		return errors.New("is a directory")
	}
	return nil
}
