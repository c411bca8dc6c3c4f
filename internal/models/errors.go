package models

import "fmt"

// ValidationError reports malformed input such as a negative rating or an
// unknown id. The caller is expected to re-prompt.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// DomainError reports a business-rule violation (budget, points, category,
// foreign quota, nothing to undo). Reason is meant to be shown verbatim.
type DomainError struct {
	Reason string
}

func (e *DomainError) Error() string {
	return e.Reason
}

// StateError reports an operation that is invalid for the current draft
// phase, e.g. picking before the draft started.
type StateError struct {
	Reason string
}

func (e *StateError) Error() string {
	return e.Reason
}

// Validationf builds a ValidationError.
func Validationf(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// Domainf builds a DomainError.
func Domainf(format string, args ...any) error {
	return &DomainError{Reason: fmt.Sprintf(format, args...)}
}

// Statef builds a StateError.
func Statef(format string, args ...any) error {
	return &StateError{Reason: fmt.Sprintf(format, args...)}
}
