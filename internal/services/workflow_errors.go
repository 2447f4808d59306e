package services

import (
	"errors"
	"fmt"
	"strings"
)

// Kinds of business failure. A WorkflowError unwraps to exactly one of them.
var (
	ErrValidation        = errors.New("validation error")
	ErrUnauthorized      = errors.New("unauthorized transition")
	ErrInvalidTransition = errors.New("invalid state transition")
	ErrNotFound          = errors.New("task not found")
	ErrVersionConflict   = errors.New("version conflict")
)

// WorkflowError is a business-rule failure. Anything else returned by the
// engine is an infrastructure error from the store.
type WorkflowError struct {
	Kind   error
	Op     string
	TaskID string
	Field  string // set for validation errors
	State  string // current state, set for invalid transitions
	Msg    string
}

func (e *WorkflowError) Error() string {
	if e == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	if e.Op != "" {
		b.WriteString(": ")
		b.WriteString(e.Op)
	}
	if e.Field != "" {
		b.WriteString(": ")
		b.WriteString(e.Field)
	}
	if e.Msg != "" {
		b.WriteString(": ")
		b.WriteString(e.Msg)
	}
	return b.String()
}

func (e *WorkflowError) Unwrap() error { return e.Kind }

func validationf(op, field, format string, args ...any) error {
	return &WorkflowError{Kind: ErrValidation, Op: op, Field: field, Msg: fmt.Sprintf(format, args...)}
}

func unauthorizedf(op, taskID, format string, args ...any) error {
	return &WorkflowError{Kind: ErrUnauthorized, Op: op, TaskID: taskID, Msg: fmt.Sprintf(format, args...)}
}

func invalidTransitionf(op, taskID, state, format string, args ...any) error {
	return &WorkflowError{Kind: ErrInvalidTransition, Op: op, TaskID: taskID, State: state, Msg: fmt.Sprintf(format, args...)}
}

func notFound(op, taskID string) error {
	return &WorkflowError{Kind: ErrNotFound, Op: op, TaskID: taskID, Msg: taskID}
}

func versionConflict(op, taskID string) error {
	return &WorkflowError{Kind: ErrVersionConflict, Op: op, TaskID: taskID, Msg: "task was changed concurrently, reload and retry"}
}

// ResultLabel names the outcome of an operation for metrics and logs.
func ResultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrVersionConflict):
		return "conflict"
	default:
		return "error"
	}
}

// IsBusinessError reports whether err belongs to the workflow taxonomy.
func IsBusinessError(err error) bool {
	var we *WorkflowError
	return errors.As(err, &we)
}
