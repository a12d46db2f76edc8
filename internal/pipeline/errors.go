package pipeline

import (
	"errors"
	"fmt"

	"analytics-export/internal/config"
)

type Stage string

const (
	StageConfig  Stage = "config"
	StageAuth    Stage = "auth"
	StageFetch   Stage = "fetch"
	StageFlatten Stage = "flatten"
	StageCsv     Stage = "csv"
	StageStore   Stage = "store"
)

var stageExitCodes = map[Stage]int{
	StageConfig:  1,
	StageAuth:    2,
	StageFetch:   3,
	StageFlatten: 4,
	StageCsv:     5,
	StageStore:   6,
}

// StageError attributes a failure to the step of the run that produced it.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %s", e.Stage, e.Err.Error())
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func stageError(stage Stage, err error) error {
	if err == nil {
		return nil
	}
	return &StageError{Stage: stage, Err: err}
}

// ExitCode maps a run error to a process exit status. Under stage_codes
// the first StageError found decides the code, unclassified errors exit 1.
func ExitCode(err error, policy string) int {
	if err == nil || policy == config.ExitAlwaysZero {
		return 0
	}
	var stageErr *StageError
	if errors.As(err, &stageErr) {
		code, ok := stageExitCodes[stageErr.Stage]
		if ok {
			return code
		}
	}
	return 1
}
