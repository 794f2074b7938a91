package domain

import (
	"strings"
	"time"
)

// StageKind identifies one of the ordered pipeline stages.
type StageKind string

const (
	StageConfigure StageKind = "configure" // Build-system generator
	StageBuild     StageKind = "build"     // Build executor
	StageTest      StageKind = "test"      // Test runner
	StageCoverage  StageKind = "coverage"  // Coverage extraction
	StageReport    StageKind = "report"    // Report generation
)

// StagePrepare is not a real stage: it names the build directory reset that
// happens before Configure, so failures there can still be attributed.
const StagePrepare StageKind = "prepare"

// StageOrder is the fixed execution order of the pipeline.
var StageOrder = []StageKind{
	StageConfigure,
	StageBuild,
	StageTest,
	StageCoverage,
	StageReport,
}

// Index returns the position of the stage in StageOrder, or -1.
func (k StageKind) Index() int {
	for i, s := range StageOrder {
		if s == k {
			return i
		}
	}
	return -1
}

// Command is a fully resolved external tool invocation.
type Command struct {
	// Name is the executable (path or name resolved via PATH).
	Name string `json:"name"`

	// Args are passed verbatim, without shell interpretation.
	Args []string `json:"args,omitempty"`

	// Dir is the working directory of the child process.
	Dir string `json:"dir"`

	// Env is the complete environment of the child process (KEY=VALUE).
	// It is never persisted: it carries the inherited host environment.
	Env []string `json:"-"`
}

// String renders the command line the way a shell trace would echo it.
func (c Command) String() string {
	parts := make([]string, 0, len(c.Args)+1)
	parts = append(parts, quoteArg(c.Name))
	for _, a := range c.Args {
		parts = append(parts, quoteArg(a))
	}
	return strings.Join(parts, " ")
}

func quoteArg(s string) string {
	if s == "" {
		return "''"
	}
	if !strings.ContainsAny(s, " \t\n'\"\\$`") {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// Stage pairs a stage kind with the command that implements it.
type Stage struct {
	Kind    StageKind
	Command Command
}

// StageResult is the outcome of one executed stage.
type StageResult struct {
	Stage      StageKind `json:"stage"`
	Command    Command   `json:"command"`
	ExitCode   int       `json:"exit_code"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// Error holds a message when the stage could not be started or was interrupted.
	Error string `json:"error,omitempty"`
}

// Succeeded reports whether the stage exited with status 0.
func (r StageResult) Succeeded() bool {
	return r.ExitCode == 0 && r.Error == ""
}

// Duration is the wall time spent in the stage.
func (r StageResult) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
