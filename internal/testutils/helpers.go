package testutils

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

// SkipOnWindows skips tests that rely on POSIX shell stubs.
func SkipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("uses POSIX sh")
	}
}

// WriteStubTool creates an executable shell script named name in dir that runs
// body and then exits with code. It returns the absolute path of the script.
func WriteStubTool(t *testing.T, dir, name, body string, code int) string {
	t.Helper()

	require.NoError(t, os.MkdirAll(dir, 0755))
	path := filepath.Join(dir, name)
	script := fmt.Sprintf("#!/bin/sh\n%s\nexit %d\n", body, code)
	require.NoError(t, os.WriteFile(path, []byte(script), 0755), "Failed to write stub %s", name)

	abs, err := filepath.Abs(path)
	require.NoError(t, err)
	return abs
}

// Stub bodies that mimic the side effects of the real coverage tools. Both
// write to their last argument, which is the -o target.
const (
	FastcovStubBody = `for last; do :; done; printf 'SF:/x.c\nDA:1,1\nDA:2,0\nend_of_record\n' > "$last"`
	GenhtmlStubBody = `for last; do :; done; mkdir -p "$last" && touch "$last/index.html"`
)

// SetupProject creates a base directory holding project/CMakeLists.txt and
// returns its absolute path.
func SetupProject(t *testing.T, project string) string {
	t.Helper()

	base := t.TempDir()
	absPath, err := filepath.Abs(base)
	require.NoError(t, err, "Failed to get absolute path for temp dir")

	dir := filepath.Join(absPath, project)
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "CMakeLists.txt"), []byte("project(example CXX)\n"), 0644))
	return absPath
}
