package lifepilot

import "fmt"

// Steps within a stage.
const (
	StepPrompt   = "prompt"
	StepGenerate = "generate"
	StepExtract  = "extract"
)

// StageError records where the pipeline stopped. Err is left intact so
// callers can still match upstream and extraction errors with errors.Is/As.
type StageError struct {
	Stage string
	Step  string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }
