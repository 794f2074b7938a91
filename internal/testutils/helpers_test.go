package testutils

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteStubTool(t *testing.T) {
	SkipOnWindows(t)

	dir := t.TempDir()
	out := filepath.Join(dir, "out.info")
	stub := WriteStubTool(t, filepath.Join(dir, "bin"), "fastcov", FastcovStubBody, 3)

	err := exec.Command(stub, "--lcov", "-o", out).Run()
	var exitErr *exec.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 3, exitErr.ExitCode())

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "SF:/x.c")
}

func TestSetupProject(t *testing.T) {
	base := SetupProject(t, "example")
	assert.True(t, filepath.IsAbs(base))
	assert.FileExists(t, filepath.Join(base, "example", "CMakeLists.txt"))
}
