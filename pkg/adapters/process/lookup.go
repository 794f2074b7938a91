package process

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Resolve locates an executable the way the pipeline will invoke it.
// Names containing a path separator are resolved against baseDir and must exist;
// bare names are searched in PATH.
func Resolve(name, baseDir string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("executable name is empty")
	}

	if !strings.ContainsRune(name, '/') && !strings.ContainsRune(name, filepath.Separator) {
		path, err := exec.LookPath(name)
		if err != nil {
			return "", fmt.Errorf("%s not found in PATH: %w", name, err)
		}
		return path, nil
	}

	path := name
	if !filepath.IsAbs(path) {
		path = filepath.Join(baseDir, path)
	}
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s is a directory", path)
	}
	if info.Mode().Perm()&0111 == 0 {
		return "", fmt.Errorf("%s is not executable", path)
	}
	return path, nil
}
