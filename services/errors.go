package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Failure kinds returned by the planner. Match them with errors.Is.
var (
	ErrPermissionDenied = errors.New("permission denied")
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
	ErrInvalidOperation = errors.New("invalid operation")
	ErrValidation       = errors.New("validation error")
)

// RuleError carries the user-facing message of a rule violation.
type RuleError struct {
	Kind    error
	Message string
}

func (e *RuleError) Error() string {
	return e.Message
}

func (e *RuleError) Unwrap() error {
	return e.Kind
}

func fail(kind error, format string, args ...any) error {
	return &RuleError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func denied(format string, args ...any) error {
	return fail(ErrPermissionDenied, format, args...)
}

func notFound(format string, args ...any) error {
	return fail(ErrNotFound, format, args...)
}

func conflict(format string, args ...any) error {
	return fail(ErrConflict, format, args...)
}

func invalid(format string, args ...any) error {
	return fail(ErrInvalidOperation, format, args...)
}

func validation(format string, args ...any) error {
	return fail(ErrValidation, format, args...)
}

// lookup turns gorm.ErrRecordNotFound into a NotFound failure for what.
func lookup(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound("%s not found", what)
	}
	return fmt.Errorf("load %s: %w", what, err)
}
