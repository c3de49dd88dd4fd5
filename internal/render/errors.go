package render

import (
	"fmt"
)

// Stage names the part of frame production a driver failure came from.
type Stage int

const (
	StageBuild Stage = iota
	StageSync
	StageAcquire
	StageRecord
	StageSubmit
	StagePresent
	StageRebuild
)

var stageNames = [...]string{
	StageBuild:   "build",
	StageSync:    "sync",
	StageAcquire: "acquire",
	StageRecord:  "record",
	StageSubmit:  "submit",
	StagePresent: "present",
	StageRebuild: "rebuild",
}

func (s Stage) String() string {
	if int(s) < len(stageNames) {
		return stageNames[s]
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

// StageError is a non-recoverable driver failure. Surface invalidation is
// never reported as a StageError.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("render: %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Cause lets github.com/pkg/errors.Cause reach the driver error.
func (e *StageError) Cause() error { return e.Err }

func stageErr(stage Stage, err error) error {
	if err == nil {
		return nil
	}
	if se, ok := err.(*StageError); ok {
		return se
	}
	return &StageError{Stage: stage, Err: err}
}
