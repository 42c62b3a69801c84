package entity

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound        = errors.New("tool not found")
	ErrDuplicateName   = errors.New("duplicate tool name")
	ErrValidation      = errors.New("invalid arguments")
	ErrExecution       = errors.New("tool execution failed")
	ErrSessionLost     = errors.New("browser session lost")
	ErrContextClosed   = errors.New("execution context closed")
	ErrTimeout         = errors.New("tool execution timed out")
	ErrFinalized       = errors.New("response already collected")
	ErrElementNotFound = errors.New("element not found")
	ErrInvalidURL      = errors.New("invalid url")
)

type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("tool %q not found", e.Name)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

type DuplicateNameError struct {
	Name string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("tool %q already registered", e.Name)
}

func (e *DuplicateNameError) Is(target error) bool { return target == ErrDuplicateName }

// ValidationError points at the first offending field. Field uses dotted/indexed paths, e.g. "selectors[2]".
type ValidationError struct {
	Field      string
	Constraint string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid arguments: %s", e.Constraint)
	}
	return fmt.Sprintf("invalid argument %q: %s", e.Field, e.Constraint)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

type ExecutionError struct {
	Tool  ToolName
	Cause error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("tool %s failed: %v", e.Tool, e.Cause)
}

func (e *ExecutionError) Is(target error) bool { return target == ErrExecution }

func (e *ExecutionError) Unwrap() error { return e.Cause }

type SessionLostError struct {
	Tool  ToolName
	Cause error
}

func (e *SessionLostError) Error() string {
	return fmt.Sprintf("browser session lost during %s: %v", e.Tool, e.Cause)
}

func (e *SessionLostError) Is(target error) bool { return target == ErrSessionLost }

func (e *SessionLostError) Unwrap() error { return e.Cause }

type TimeoutError struct {
	Tool    ToolName
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("tool %s exceeded %s", e.Tool, e.Timeout)
}

func (e *TimeoutError) Is(target error) bool { return target == ErrTimeout }

type ElementNotFoundError struct {
	Selector string
	Timeout  time.Duration
}

func (e *ElementNotFoundError) Error() string {
	return fmt.Sprintf("element %q not found within %s", e.Selector, e.Timeout)
}

func (e *ElementNotFoundError) Is(target error) bool { return target == ErrElementNotFound }
