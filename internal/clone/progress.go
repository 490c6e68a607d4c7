package clone

import (
	"time"
)

// Step names a phase of a clone run.
type Step string

const (
	StepValidation   Step = "validation"
	StepSchema       Step = "schema"
	StepRLS          Step = "rls"
	StepData         Step = "data"
	StepMigration    Step = "migration"
	StepStorage      Step = "storage"
	StepInstructions Step = "instructions"
	StepComplete     Step = "complete"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
	StatusError      Status = "error"
)

// Progress is one entry of the run transcript.
type Progress struct {
	Step    Step
	Status  Status
	Message string
	Error   string
	At      time.Time
}

type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Issue is a message for the caller, tagged with how serious it is.
type Issue struct {
	Severity Severity
	Step     Step
	Message  string
}

// stepResult is what each phase hands back: a value or the reason it failed.
type stepResult[T any] struct {
	value T
	err   error
}

func ok[T any](v T) stepResult[T] { return stepResult[T]{value: v} }

func failed[T any](err error) stepResult[T] { return stepResult[T]{err: err} }

func (r stepResult[T]) Failed() bool { return r.err != nil }

// OrElse returns the value, or def when the step failed.
func (r stepResult[T]) OrElse(def T) T {
	if r.err != nil {
		return def
	}
	return r.value
}
