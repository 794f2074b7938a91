package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_DefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(t.TempDir(), "", nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_ExplicitMissingFile(t *testing.T) {
	_, err := Load(t.TempDir(), "nope.yaml", nil)
	assert.ErrorContains(t, err, "failed to read config")
}

func TestLoad_MergesFileOverDefaults(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, DefaultFile, `
project_dir: app
toolchain:
  cc: clang
coverage:
  exclude: [/usr/include]
  jobs: 2
history:
  backend: none
lock:
  backend: memory
  ttl: 5m
metrics:
  textfile: out/covpipe.prom
`)

	cfg, err := Load(dir, "", nil)
	require.NoError(t, err)

	assert.Equal(t, "app", cfg.ProjectDir)
	assert.Equal(t, "build", cfg.BuildDir, "untouched keys keep defaults")
	assert.Equal(t, "clang", cfg.Toolchain.CC)
	assert.Equal(t, "g++-9", cfg.Toolchain.CXX, "sibling keys in nested maps keep defaults")
	assert.Equal(t, []string{"/usr/include"}, cfg.Coverage.Exclude)
	assert.Equal(t, 2, cfg.Coverage.Jobs)
	assert.True(t, cfg.Coverage.Branch)
	assert.Equal(t, HistoryNone, cfg.History.Backend)
	assert.Equal(t, LockMemory, cfg.Lock.Backend)
	assert.Equal(t, 5*time.Minute, cfg.Lock.TTL)
	assert.Equal(t, "out/covpipe.prom", cfg.Metrics.Textfile)
}

func TestLoad_Overrides(t *testing.T) {
	cfg, err := Load(t.TempDir(), "", []string{
		"toolchain.cxx=clang++",
		"coverage.jobs=4",
		"coverage.exclude=a/,b/",
		"args.build=[-j, '8']",
		"trace=false",
		"env.CFLAGS=--coverage",
		"history.ttl=24h",
	})
	require.NoError(t, err)

	assert.Equal(t, "clang++", cfg.Toolchain.CXX)
	assert.Equal(t, 4, cfg.Coverage.Jobs)
	assert.Equal(t, []string{"a/", "b/"}, cfg.Coverage.Exclude)
	assert.Equal(t, []string{"-j", "8"}, cfg.Args.Build)
	assert.False(t, cfg.Trace)
	assert.Equal(t, "--coverage", cfg.Env["CFLAGS"])
	assert.Equal(t, 24*time.Hour, cfg.History.TTL)
}

func TestDefault_History(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 100, cfg.History.Keep)
	assert.NotEmpty(t, cfg.History.Redact)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name      string
		file      string
		overrides []string
		want      string
	}{
		{"bad yaml", "project_dir: [unterminated", nil, "failed to parse"},
		{"unknown key", "projct_dir: x", nil, "failed to decode"},
		{"bad type", "coverage: {jobs: many}", nil, "failed to decode"},
		{"invalid value", "generator: ''", nil, "invalid config"},
		{"bad override", "", []string{"no-equals-sign"}, "invalid override"},
		{"bad history backend", "", []string{"history.backend=s3"}, "unknown history.backend"},
		{"redis history without url", "", []string{"history.backend=redis"}, "history.redis_url"},
		{"redis lock without url", "", []string{"lock.backend=redis"}, "lock.redis_url"},
		{"bad lock backend", "", []string{"lock.backend=etcd"}, "unknown lock.backend"},
		{"negative ttl", "", []string{"lock.ttl=-1s"}, "lock.ttl"},
		{"negative keep", "", []string{"history.keep=-2"}, "history.keep"},
		{"bad redact pattern", "", []string{"history.redact=[\"(\"]"}, "history.redact"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, dir, DefaultFile, tt.file)
			_, err := Load(dir, "", tt.overrides)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_AbsoluteAndRelativePaths(t *testing.T) {
	dir := t.TempDir()
	other := t.TempDir()
	abs := writeFile(t, other, "ci.yaml", "generator: Unix Makefiles\n")
	writeFile(t, dir, "local.yaml", "build_dir: out\n")

	cfg, err := Load(dir, abs, nil)
	require.NoError(t, err)
	assert.Equal(t, "Unix Makefiles", cfg.Generator)

	cfg, err = Load(dir, "local.yaml", nil)
	require.NoError(t, err)
	assert.Equal(t, "out", cfg.BuildDir)
}

func TestLoad_EmptyFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, DefaultFile, "\n")
	cfg, err := Load(dir, "", nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}
