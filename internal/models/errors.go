package models

import (
	"errors"
	"fmt"
)

// Pipeline failure kinds. Stages wrap these with detail; test with errors.Is.
var (
	ErrDimensionMismatch            = errors.New("dimension mismatch")
	ErrEmptyFrame                   = errors.New("empty frame")
	ErrOutOfBoundsInterpolation     = errors.New("interpolation query outside source grid")
	ErrInvalidPropagationParameters = errors.New("invalid propagation parameters")
	ErrInvalidField                 = errors.New("invalid field")
	ErrDegenerateHistogram          = errors.New("degenerate histogram")
	ErrDegenerateLine               = errors.New("degenerate line")
	ErrNoCalibrationSet             = errors.New("no calibration set")
	ErrInvalidReferenceDistance     = errors.New("invalid reference distance")
)

// Stage names the pipeline step that produced an error.
type Stage string

const (
	StageValidate    Stage = "validate"
	StageContrast    Stage = "contrast"
	StageResample    Stage = "resample"
	StageDenoise     Stage = "denoise"
	StagePropagate   Stage = "propagate"
	StageDecompose   Stage = "decompose"
	StageBinarize    Stage = "binarize"
	StageClean       Stage = "clean"
	StageAnalyze     Stage = "analyze"
	StageCalibration Stage = "calibration"
)

// StageError attaches the failing stage to an underlying error.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// AtStage wraps err with the stage name. A nil err stays nil.
func AtStage(stage Stage, err error) error {
	if err == nil {
		return nil
	}
	return &StageError{Stage: stage, Err: err}
}
