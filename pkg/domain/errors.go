package domain

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is returned when a Config violates its invariants.
var ErrInvalidConfig = errors.New("invalid config")

// ErrOutOfTime is returned when the simulated time budget is exhausted and the
// config asks for a hard failure.
var ErrOutOfTime = errors.New("out of time")

// ErrAlreadyFinished is returned when Step is called on a finished paradigm.
var ErrAlreadyFinished = errors.New("already finished, reset required")

// ErrMissingCatalog is returned when an environment needs a part catalog and none is configured.
var ErrMissingCatalog = errors.New("part config catalog required")

// ErrUnknownPartConfig is returned when a named part config is not in the catalog.
var ErrUnknownPartConfig = errors.New("unknown part config")

// ErrUnknownStartPosition is returned for a crash test start position that does not exist.
var ErrUnknownStartPosition = errors.New("unknown start position")

// ErrIncompleteRecord is returned when a run record has no completion marker.
var ErrIncompleteRecord = errors.New("outcome.json not found, results are either incomplete/invalid, or path is incorrect")

// ErrEnvMismatch is returned when a run record was produced by another environment.
var ErrEnvMismatch = errors.New("environment mismatch")

// ErrPartialAppend is returned when a history append does not supply every sequence.
var ErrPartialAppend = errors.New("partial history append")

// ErrNoConnection is returned when a simulator operation runs before Launch.
var ErrNoConnection = errors.New("no simulator connection")

// ErrRecordNotFound is returned by run indexes for unknown run ids.
var ErrRecordNotFound = errors.New("run record not found")

// OutOfTimeError carries the step that exceeded the budget.
type OutOfTimeError struct {
	Step     int
	MaxSteps float64
	MaxTime  float64
	FPS      int
}

func (e *OutOfTimeError) Error() string {
	return fmt.Sprintf("out of time: step %d exceeds %g steps (max_time=%gs at %d fps)", e.Step, e.MaxSteps, e.MaxTime, e.FPS)
}

func (e *OutOfTimeError) Unwrap() error {
	return ErrOutOfTime
}
