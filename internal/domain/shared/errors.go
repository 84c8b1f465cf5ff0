// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"errors"
	"fmt"
)

// Base error kinds. Check them with errors.Is().
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")

	// Validation errors
	ErrValidation      = errors.New("validation error")
	ErrInvalidID       = errors.New("invalid ID")
	ErrEmptyValue      = errors.New("value cannot be empty")
	ErrValueOutOfRange = errors.New("value out of range")
	ErrInvalidFormat   = errors.New("invalid format")

	// State errors
	ErrStateTransition = errors.New("invalid state transition")

	// Business rule violations
	ErrDomainRule = errors.New("business rule violated")

	// Concurrency errors
	ErrConflict = errors.New("concurrent modification detected")

	// Persisted data that cannot be decoded into a domain value.
	ErrDataIntegrity = errors.New("data integrity violation")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "module", "review", "solving"
	Op      string // Operation that failed, e.g., "MoveIssue"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Invalid builds a validation error naming the offending field, the way the
// review and position checks report "issue-review-status" or "userId".
func Invalid(domain, op, field string) *DomainError {
	return NewDomainError(domain, op, ErrValidation, fmt.Sprintf("value is invalid: %s", field))
}

// NotFound builds a not-found error for the given record description.
func NotFound(domain, op, what string) *DomainError {
	return NewDomainError(domain, op, ErrNotFound, fmt.Sprintf("%s not found", what))
}

// Module domain errors
var (
	ErrModuleNotFound    = NewDomainError("module", "Find", ErrNotFound, "module not found")
	ErrIssueNotFound     = NewDomainError("module", "FindIssue", ErrNotFound, "issue not found")
	ErrIssueExists       = NewDomainError("module", "AddIssue", ErrAlreadyExists, "issue already belongs to module")
	ErrIssueDeleted      = NewDomainError("module", "MoveIssue", ErrStateTransition, "issue is soft deleted")
	ErrModuleDeleted     = NewDomainError("module", "Mutate", ErrStateTransition, "module is soft deleted")
	ErrModuleConflict    = NewDomainError("module", "Save", ErrConflict, "module was modified concurrently")
	ErrInvalidPosition   = NewDomainError("shared", "NewPosition", ErrValidation, "position must be greater than zero")
	ErrPositionOverflow  = NewDomainError("shared", "Forward", ErrValidation, "position exceeds maximum")
	ErrPositionUnderflow = NewDomainError("shared", "Back", ErrValidation, "position cannot go below one")
)

// Review domain errors
var (
	ErrReviewNotFound       = NewDomainError("review", "Find", ErrNotFound, "issue review not found")
	ErrReviewExists         = NewDomainError("review", "Create", ErrAlreadyExists, "issue review already exists")
	ErrReviewConflict       = NewDomainError("review", "Save", ErrConflict, "issue review was modified concurrently")
	ErrReviewStatus         = Invalid("review", "Transition", "issue-review-status")
	ErrCommentAuthor        = Invalid("review", "AddComment", "userId")
	ErrReviewerAlreadyGiven = Invalid("review", "StartReview", "reviewerId")
)

// Solving domain errors
var (
	ErrUserIssueNotFound      = NotFound("solving", "Find", "user issue")
	ErrUserIssueExists        = NewDomainError("solving", "Add", ErrAlreadyExists, "issue already taken on work")
	ErrPreviousSolvedNotFound = NotFound("solving", "TakeOnWork", "Previous solved issue")
	ErrPreviousIssueNotSolved = NewDomainError("solving", "TakeOnWork", ErrDomainRule, "previous issue not solved")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if the error is an "already exists" error.
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrEmptyValue) ||
		errors.Is(err, ErrValueOutOfRange) ||
		errors.Is(err, ErrInvalidFormat)
}

// IsConflict checks if the error is an optimistic concurrency failure.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsDomainRule checks if the error is a business rule violation.
func IsDomainRule(err error) bool {
	return errors.Is(err, ErrDomainRule)
}

// IsRetryable checks if the operation can be retried on fresh state.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConflict)
}
