package domain

import (
	"errors"
	"fmt"
)

// ErrRunNotFound is returned when a run ID cannot be found in the store.
var ErrRunNotFound = errors.New("run not found")

// ErrLockHeld is returned when the build directory is locked by another run.
var ErrLockHeld = errors.New("build directory is locked by another run")

// StageError reports the stage that halted the pipeline.
type StageError struct {
	Stage    StageKind
	Command  Command
	ExitCode int
	Err      error
}

func (e *StageError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("stage %s failed (exit %d): %v", e.Stage, e.ExitCode, e.Err)
	}
	return fmt.Sprintf("stage %s failed (exit %d): %s", e.Stage, e.ExitCode, e.Command)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// ExitCodeOf extracts the process exit status carried by err.
// nil maps to ExitSuccess and unknown errors to ExitFailure.
func ExitCodeOf(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var stageErr *StageError
	if errors.As(err, &stageErr) && stageErr.ExitCode != 0 {
		return stageErr.ExitCode
	}
	return ExitFailure
}
