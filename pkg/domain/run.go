package domain

import "time"

// RunStatus defines where a run ended up.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunSucceeded RunStatus = "succeeded"
	RunFailed    RunStatus = "failed"
	RunCancelled RunStatus = "cancelled"
)

// Exit codes that do not come from a stage process.
const (
	ExitSuccess       = 0
	ExitFailure       = 1   // Configuration or prepare errors
	ExitNotExecutable = 126 // Stage executable exists but may not be run
	ExitNotFound      = 127 // Stage executable could not be started
	ExitInterrupted   = 130 // Run cancelled by a signal
)

// RunRecord captures the full outcome of one pipeline run.
type RunRecord struct {
	ID      string    `json:"id"`
	Status  RunStatus `json:"status"`
	BaseDir string    `json:"base_dir"`

	ProjectDir string `json:"project_dir"`
	BuildDir   string `json:"build_dir"`

	Toolchain Toolchain `json:"toolchain"`

	// ExitCode is 0 on success, otherwise the exit status of FailedStage.
	ExitCode    int       `json:"exit_code"`
	FailedStage StageKind `json:"failed_stage,omitempty"`

	// Stages holds one entry per stage that was started, in execution order.
	Stages []StageResult `json:"stages"`

	CoverageFile string `json:"coverage_file"`
	ReportDir    string `json:"report_dir"`
	ReportIndex  string `json:"report_index"`

	// Summary is filled from the coverage-data file after a successful run.
	Summary *CoverageSummary `json:"summary,omitempty"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitempty"`
}

// NewRunRecord creates a record in the running state.
func NewRunRecord(id, baseDir string, startedAt time.Time) *RunRecord {
	return &RunRecord{
		ID:        id,
		Status:    RunRunning,
		BaseDir:   baseDir,
		Stages:    []StageResult{},
		StartedAt: startedAt,
	}
}

// Duration is the total wall time of the run, zero while running.
func (r *RunRecord) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// LastStage returns the most recently executed stage, if any.
func (r *RunRecord) LastStage() (StageResult, bool) {
	if len(r.Stages) == 0 {
		return StageResult{}, false
	}
	return r.Stages[len(r.Stages)-1], true
}

// CoverageSummary aggregates counts from a coverage-data file.
type CoverageSummary struct {
	Files          int `json:"files"`
	LinesFound     int `json:"lines_found"`
	LinesHit       int `json:"lines_hit"`
	FunctionsFound int `json:"functions_found"`
	FunctionsHit   int `json:"functions_hit"`
	BranchesFound  int `json:"branches_found"`
	BranchesHit    int `json:"branches_hit"`
}

// LineRate returns the fraction of lines hit (1 when nothing is instrumented).
func (s CoverageSummary) LineRate() float64 {
	return ratio(s.LinesHit, s.LinesFound)
}

// FunctionRate returns the fraction of functions hit.
func (s CoverageSummary) FunctionRate() float64 {
	return ratio(s.FunctionsHit, s.FunctionsFound)
}

// BranchRate returns the fraction of branches taken.
func (s CoverageSummary) BranchRate() float64 {
	return ratio(s.BranchesHit, s.BranchesFound)
}

func ratio(hit, found int) float64 {
	if found == 0 {
		return 1
	}
	return float64(hit) / float64(found)
}
