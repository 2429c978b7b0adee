package errs

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError is returned for malformed arguments. Nothing was changed.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// InsufficientBalanceError is returned when a spend exceeds the lifetime balance.
type InsufficientBalanceError struct {
	UserID   int64
	Balance  int64
	Required int64
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("user %d has %d points, %d required", e.UserID, e.Balance, e.Required)
}

// NotFoundError represents an unknown user, handle or record.
type NotFoundError struct {
	Entity      string
	Key         any
	Suggestions []string
}

func (e *NotFoundError) Error() string {
	msg := fmt.Sprintf("%s %v not found", e.Entity, e.Key)
	if len(e.Suggestions) > 0 {
		msg += fmt.Sprintf(" (did you mean %s?)", strings.Join(e.Suggestions, ", "))
	}
	return msg
}

// PersistenceError wraps a storage failure. The operation was rolled back.
type PersistenceError struct {
	Operation string
	Entity    string
	Err       error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence error during %s for %s: %v", e.Operation, e.Entity, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// ScoringSkip marks a message that silently earns nothing.
type ScoringSkip struct {
	Reason string
}

func (e *ScoringSkip) Error() string {
	return "scoring skipped: " + e.Reason
}

func Validation(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

func Persistence(operation, entity string, err error) error {
	if err == nil {
		return nil
	}
	var pe *PersistenceError
	if errors.As(err, &pe) {
		return err
	}
	return &PersistenceError{Operation: operation, Entity: entity, Err: err}
}

func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

func IsInsufficient(err error) bool {
	var target *InsufficientBalanceError
	return errors.As(err, &target)
}

func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

func IsPersistence(err error) bool {
	var target *PersistenceError
	return errors.As(err, &target)
}

func IsSkip(err error) bool {
	var target *ScoringSkip
	return errors.As(err, &target)
}

// UserFacing reports whether the error message may be shown to the invoking user as is.
func UserFacing(err error) bool {
	return IsValidation(err) || IsInsufficient(err) || IsNotFound(err)
}
