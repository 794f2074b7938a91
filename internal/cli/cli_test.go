package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/covpipe/internal/logging"
	"github.com/aretw0/covpipe/internal/testutils"
	"github.com/aretw0/covpipe/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// newProject lays out a base directory with stub tools that succeed except
// for the one named in failing.
func newProject(t *testing.T, failing string, code int) (string, []string) {
	t.Helper()
	base := testutils.SetupProject(t, "example")
	bin := filepath.Join(base, "bin")

	stub := func(name, body string) string {
		exit := 0
		if name == failing {
			exit = code
		}
		return testutils.WriteStubTool(t, bin, name, body, exit)
	}

	overrides := []string{
		"tools.cmake=" + stub("cmake", "echo configuring"),
		"tools.ninja=" + stub("ninja", ""),
		"tools.ctest=" + stub("ctest", ""),
		"tools.fastcov=" + stub("fastcov", testutils.FastcovStubBody),
		"tools.genhtml=" + stub("genhtml", testutils.GenhtmlStubBody),
		"tools.gcov=" + stub("gcov", ""),
		"toolchain.cc=" + stub("cc", ""),
		"toolchain.cxx=" + stub("cxx", ""),
	}
	return base, overrides
}

func testOptions(base string, overrides []string) (RunOptions, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	return RunOptions{
		BaseDir:   base,
		Overrides: overrides,
		Quiet:     true,
		Stdout:    &out,
		Stderr:    &errOut,
	}, &out, &errOut
}

func TestExecute_Success(t *testing.T) {
	testutils.SkipOnWindows(t)
	base, overrides := newProject(t, "", 0)
	metrics := filepath.Join(base, "metrics", "covpipe.prom")
	opts, out, errOut := testOptions(base, append(overrides, "metrics.textfile="+metrics))

	code := Execute(t.Context(), opts)
	require.Equal(t, 0, code, errOut.String())

	assert.Contains(t, out.String(), "configuring")
	assert.Contains(t, out.String(), "Coverage report at "+filepath.Join(base, "coverage_report", "index.html"))
	assert.FileExists(t, filepath.Join(base, "coverage.info"))

	data, err := os.ReadFile(metrics)
	require.NoError(t, err)
	assert.Contains(t, string(data), "covpipe_line_coverage_ratio 0.5")

	entries, err := os.ReadDir(filepath.Join(base, ".covpipe", "runs"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestExecute_PropagatesStageExitCode(t *testing.T) {
	testutils.SkipOnWindows(t)
	base, overrides := newProject(t, "ctest", 8)
	opts, _, errOut := testOptions(base, overrides)

	assert.Equal(t, 8, Execute(t.Context(), opts))
	// Quiet runs add nothing to stderr beyond the failing command
	lines := strings.Split(strings.TrimSpace(errOut.String()), "\n")
	require.Len(t, lines, 1, errOut.String())
	assert.True(t, strings.HasPrefix(lines[0], "+ "), lines[0])
	assert.True(t, strings.HasSuffix(lines[0], filepath.Join("bin", "ctest")), lines[0])
	assert.NotContains(t, errOut.String(), "err=")
	assert.NoFileExists(t, filepath.Join(base, "coverage.info"))
	assert.NoDirExists(t, filepath.Join(base, "coverage_report"))
}

func TestExecute_ConfigError(t *testing.T) {
	opts, _, errOut := testOptions(t.TempDir(), []string{"generator="})
	assert.Equal(t, domain.ExitFailure, Execute(t.Context(), opts))
	assert.Contains(t, errOut.String(), "generator is required")
}

func TestExecute_NoHistory(t *testing.T) {
	testutils.SkipOnWindows(t)
	base, overrides := newProject(t, "", 0)
	opts, _, _ := testOptions(base, overrides)
	opts.NoHistory = true

	require.Equal(t, 0, Execute(t.Context(), opts))
	assert.NoDirExists(t, filepath.Join(base, ".covpipe"))
}

func TestHistoryAndShow(t *testing.T) {
	testutils.SkipOnWindows(t)
	base, overrides := newProject(t, "genhtml", 2)
	opts, out, _ := testOptions(base, overrides)

	require.NoError(t, History(t.Context(), opts, 0))
	assert.Contains(t, out.String(), "No runs recorded yet.")

	require.Equal(t, 2, Execute(t.Context(), opts))

	out.Reset()
	require.NoError(t, History(t.Context(), opts, 5))
	assert.Contains(t, out.String(), "failed")
	assert.Contains(t, out.String(), "report")

	out.Reset()
	require.NoError(t, Show(t.Context(), opts, LatestRun))
	assert.Contains(t, out.String(), "**Stopped at:** report")

	err := Show(t.Context(), opts, "does-not-exist")
	assert.ErrorIs(t, err, domain.ErrRunNotFound)
}

func TestHistory_Disabled(t *testing.T) {
	opts, _, _ := testOptions(t.TempDir(), []string{"history.backend=none"})
	assert.ErrorIs(t, History(context.Background(), opts, 0), errHistoryDisabled)
}

func TestExecute_MemoryLockSpansRuns(t *testing.T) {
	testutils.SkipOnWindows(t)
	base, overrides := newProject(t, "", 0)
	overrides = append(overrides, "lock.backend=memory")
	opts, out, _ := testOptions(base, overrides)

	_, cfg, err := opts.load()
	require.NoError(t, err)
	first, err := setupPersistence(cfg, base, true, logging.NewNop())
	require.NoError(t, err)
	second, err := setupPersistence(cfg, base, true, logging.NewNop())
	require.NoError(t, err)
	assert.Same(t, first.locker, second.locker)

	buildDir := cfg.ResolveLayout(base).BuildDir
	unlock, err := first.locker.Lock(t.Context(), buildDir, time.Minute)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(t.Context(), 200*time.Millisecond)
	defer cancel()
	assert.Equal(t, domain.ExitInterrupted, Execute(ctx, opts))
	assert.NotContains(t, out.String(), "Coverage report at")

	require.NoError(t, unlock(t.Context()))
	assert.Equal(t, 0, Execute(t.Context(), opts))
}

func TestValidate(t *testing.T) {
	testutils.SkipOnWindows(t)
	base, overrides := newProject(t, "", 0)

	opts, out, _ := testOptions(base, overrides)
	assert.Equal(t, 0, Validate(opts))
	assert.Contains(t, out.String(), "CMakeLists.txt")

	opts, out, _ = testOptions(base, append(overrides, "tools.ninja=covpipe-missing-ninja"))
	assert.Equal(t, 1, Validate(opts))
	assert.Contains(t, out.String(), "not found in PATH")

	require.NoError(t, os.Remove(filepath.Join(base, "example", "CMakeLists.txt")))
	opts, _, _ = testOptions(base, overrides)
	assert.Equal(t, 1, Validate(opts))
}

func TestProjectWatcher(t *testing.T) {
	root := t.TempDir()
	build := filepath.Join(root, "build")
	require.NoError(t, os.MkdirAll(build, 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src"), 0755))

	w, err := NewProjectWatcher(root, []string{build}, 50*time.Millisecond, logging.NewNop())
	require.NoError(t, err)
	defer w.Close()

	t.Run("Ignores Build Directory", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(t.Context(), 300*time.Millisecond)
		defer cancel()

		require.NoError(t, os.WriteFile(filepath.Join(build, "a.o"), []byte("x"), 0644))
		_, err := w.Wait(ctx)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("Reports Source Change", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(t.Context(), 5*time.Second)
		defer cancel()

		src := filepath.Join(root, "src", "main.cpp")
		go func() {
			for range 3 {
				_ = os.WriteFile(src, []byte("int main(){}"), 0644)
				time.Sleep(10 * time.Millisecond)
			}
		}()

		changed, err := w.Wait(ctx)
		require.NoError(t, err)
		assert.Equal(t, src, changed)
	})
}

func TestProjectWatcher_Ignored(t *testing.T) {
	pw := &ProjectWatcher{root: "/p", exclude: []string{"/p/build"}}
	assert.True(t, pw.ignored("/p/build"))
	assert.True(t, pw.ignored("/p/build/x.o"))
	assert.True(t, pw.ignored("/p/.git/HEAD"))
	assert.False(t, pw.ignored("/p/buildings/x.c"))
	assert.False(t, pw.ignored("/p/src/main.c"))
}
