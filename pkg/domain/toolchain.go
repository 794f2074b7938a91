package domain

import (
	"slices"
	"strings"
)

// Compiler-selection variables honoured by CMake.
const (
	EnvCC  = "CC"
	EnvCXX = "CXX"
)

// Toolchain selects the C and C++ compilers for the configure and build stages.
type Toolchain struct {
	CC  string `json:"cc"`
	CXX string `json:"cxx"`
}

// Environ merges the toolchain and extra variables over a base environment.
// Later entries win; the base slice is never modified.
func (t Toolchain) Environ(base []string, extra map[string]string) []string {
	overrides := make(map[string]string, len(extra)+2)
	for k, v := range extra {
		overrides[k] = v
	}
	if t.CC != "" {
		overrides[EnvCC] = t.CC
	}
	if t.CXX != "" {
		overrides[EnvCXX] = t.CXX
	}

	env := make([]string, 0, len(base)+len(overrides))
	for _, kv := range base {
		key, _, _ := strings.Cut(kv, "=")
		if _, replaced := overrides[key]; replaced {
			continue
		}
		env = append(env, kv)
	}
	for _, key := range sortedKeys(overrides) {
		env = append(env, key+"="+overrides[key])
	}
	return env
}

// LookupEnv returns the value of key in a KEY=VALUE slice. The last match wins.
func LookupEnv(env []string, key string) (string, bool) {
	var (
		val   string
		found bool
	)
	for _, kv := range env {
		k, v, ok := strings.Cut(kv, "=")
		if ok && k == key {
			val, found = v, true
		}
	}
	return val, found
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
