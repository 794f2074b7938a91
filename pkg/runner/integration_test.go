package runner

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aretw0/covpipe/internal/testutils"
	"github.com/aretw0/covpipe/pkg/adapters/process"
	"github.com/aretw0/covpipe/pkg/domain"
	"github.com/aretw0/covpipe/pkg/lcov"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubConfig points every tool at a shell stub that appends its name, working
// directory and toolchain to a log. The stub named failing exits with code.
func stubConfig(t *testing.T, failing string, code int) (Config, string, string) {
	t.Helper()
	base := testutils.SetupProject(t, "example")
	bin := filepath.Join(base, "bin")
	log := filepath.Join(base, "calls.log")

	stub := func(name, extra string) string {
		exit := 0
		if name == failing {
			exit = code
		}
		body := fmt.Sprintf("echo \"%s|$(pwd)|$CC|$CXX\" >> %q\n%s", name, log, extra)
		return testutils.WriteStubTool(t, bin, name, body, exit)
	}

	cfg := DefaultConfig()
	cfg.Toolchain = domain.Toolchain{CC: "stub-cc", CXX: "stub-c++"}
	cfg.Tools = Tools{
		CMake:   stub("cmake", ""),
		Ninja:   stub("ninja", ""),
		CTest:   stub("ctest", ""),
		Fastcov: stub("fastcov", testutils.FastcovStubBody),
		Genhtml: stub("genhtml", testutils.GenhtmlStubBody),
		Gcov:    "gcov-9",
	}
	return cfg, base, log
}

func readCalls(t *testing.T, log string) []string {
	t.Helper()
	data, err := os.ReadFile(log)
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	return strings.Split(strings.TrimSpace(string(data)), "\n")
}

func TestRunner_Integration_StubTools(t *testing.T) {
	testutils.SkipOnWindows(t)

	cfg, base, log := stubConfig(t, "", 0)
	var out bytes.Buffer
	r := NewRunner(cfg,
		WithCommandRunner(process.NewRunner(process.WithOutput(&out, &out))),
		WithBaseDir(base),
		WithOutput(&out, &out),
		WithEnviron([]string{"PATH=/usr/bin:/bin", "CC=host-cc"}),
	)

	record, err := r.Run(t.Context())
	require.NoError(t, err, out.String())

	build, err := filepath.EvalSymlinks(filepath.Join(base, "example", "build"))
	require.NoError(t, err)
	calls := readCalls(t, log)
	require.Len(t, calls, 5)
	for i, name := range []string{"cmake", "ninja", "ctest", "fastcov", "genhtml"} {
		assert.Equal(t, name+"|"+build+"|stub-cc|stub-c++", calls[i])
	}

	assert.FileExists(t, filepath.Join(base, "coverage.info"))
	assert.FileExists(t, record.ReportIndex)
	require.NotNil(t, record.Summary)
	assert.Equal(t, 1, record.Summary.LinesHit)
	assert.Equal(t, 2, record.Summary.LinesFound)

	// The host environment is never touched.
	assert.NotEqual(t, "stub-cc", os.Getenv("CC"))
}

func TestRunner_Integration_TestFailure(t *testing.T) {
	testutils.SkipOnWindows(t)

	cfg, base, log := stubConfig(t, "ctest", 8)
	r := NewRunner(cfg,
		WithBaseDir(base),
		WithCommandRunner(process.NewRunner(process.WithOutput(&bytes.Buffer{}, &bytes.Buffer{}))),
		WithOutput(&bytes.Buffer{}, &bytes.Buffer{}),
	)

	_, err := r.Run(t.Context())
	require.Error(t, err)
	assert.Equal(t, 8, domain.ExitCodeOf(err))
	assert.Len(t, readCalls(t, log), 3)
	assert.NoFileExists(t, filepath.Join(base, "coverage.info"))
	assert.NoDirExists(t, filepath.Join(base, "coverage_report"))
}

func TestRunner_Integration_StageKilledBySignal(t *testing.T) {
	testutils.SkipOnWindows(t)

	cfg, base, log := stubConfig(t, "", 0)
	cfg.Tools.CTest = testutils.WriteStubTool(t, filepath.Join(base, "bin"), "ctest-segv", "kill -SEGV $$", 0)
	r := NewRunner(cfg,
		WithBaseDir(base),
		WithCommandRunner(process.NewRunner(process.WithOutput(&bytes.Buffer{}, &bytes.Buffer{}))),
		WithOutput(&bytes.Buffer{}, &bytes.Buffer{}),
	)

	record, err := r.Run(t.Context())
	require.Error(t, err)
	assert.Equal(t, 139, domain.ExitCodeOf(err))
	assert.Equal(t, domain.RunFailed, record.Status)
	assert.Equal(t, domain.StageTest, record.FailedStage)
	assert.Len(t, readCalls(t, log), 2)
	assert.NoFileExists(t, filepath.Join(base, "coverage.info"))
	assert.NoDirExists(t, filepath.Join(base, "coverage_report"))
}

// TestRunner_EndToEnd builds the bundled example with the real toolchain.
func TestRunner_EndToEnd(t *testing.T) {
	testutils.SkipOnWindows(t)
	if testing.Short() {
		t.Skip("builds a real project")
	}

	cfg := DefaultConfig()
	for _, tool := range []string{"cmake", "ninja", "ctest", "genhtml", cfg.Toolchain.CC, cfg.Toolchain.CXX, cfg.Tools.Gcov} {
		if _, err := exec.LookPath(tool); err != nil {
			t.Skipf("%s not installed", tool)
		}
	}
	fastcov, err := exec.LookPath("fastcov.py")
	if err != nil {
		if fastcov, err = exec.LookPath("fastcov"); err != nil {
			t.Skip("fastcov not installed")
		}
	}
	cfg.Tools.Fastcov = fastcov

	base := t.TempDir()
	require.NoError(t, os.CopyFS(filepath.Join(base, "example"), os.DirFS(filepath.Join("testdata", "example"))))

	var out bytes.Buffer
	r := NewRunner(cfg,
		WithBaseDir(base),
		WithOutput(&out, &out),
		WithCommandRunner(process.NewRunner(process.WithOutput(&out, &out))),
	)

	record, err := r.Run(t.Context())
	require.NoError(t, err, out.String())
	assert.FileExists(t, filepath.Join(base, "coverage.info"))
	assert.FileExists(t, filepath.Join(base, "coverage_report", "index.html"))
	require.NotNil(t, record.Summary)
	assert.Equal(t, 1.0, record.Summary.LineRate(), "every line of calc.cpp is exercised")

	tf, err := lcov.ParseFile(filepath.Join(base, "coverage.info"))
	require.NoError(t, err)
	var sources []string
	for _, p := range tf.Paths() {
		if strings.HasSuffix(p, filepath.Join("src", "calc.cpp")) {
			sources = append(sources, p)
		}
	}
	assert.Len(t, sources, 1, "coverage data must reference calc.cpp: %v", tf.Paths())
}
