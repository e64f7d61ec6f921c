package domain

import (
	"errors"
	"fmt"
)

// ErrorCode is a machine-readable classification of a domain error.
type ErrorCode string

const (
	CodeValidation         ErrorCode = "VALIDATION_ERROR"
	CodeInvalidTransition  ErrorCode = "INVALID_TRANSITION"
	CodeMissingReason      ErrorCode = "MISSING_REASON"
	CodeUnauthorized       ErrorCode = "UNAUTHORIZED"
	CodeInvalidRating      ErrorCode = "INVALID_RATING"
	CodeReviewNotPermitted ErrorCode = "REVIEW_NOT_PERMITTED"
	CodeNotFound           ErrorCode = "NOT_FOUND"
	CodeConflict           ErrorCode = "CONFLICT"
	CodeForbidden          ErrorCode = "FORBIDDEN"
)

// Error is a typed domain error. Every failure the core produces is one of
// these, never an untyped fault, so callers can map it to an accurate
// user-facing message.
type Error struct {
	Code    ErrorCode
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewValidationError creates a validation error.
func NewValidationError(message string) *Error {
	return &Error{Code: CodeValidation, Message: message}
}

// NewInvalidTransitionError creates an error naming the current status and
// the event that was illegal from it.
func NewInvalidTransitionError(current, event string) *Error {
	return &Error{
		Code:    CodeInvalidTransition,
		Message: fmt.Sprintf("cannot %s a booking in status %q", event, current),
	}
}

// NewMissingReasonError creates an error for a decline/cancel without the
// required annotation.
func NewMissingReasonError(event string) *Error {
	return &Error{
		Code:    CodeMissingReason,
		Message: fmt.Sprintf("a reason is required to %s a booking", event),
	}
}

// NewUnauthorizedError creates an error for an actor that is not allowed to
// perform the event.
func NewUnauthorizedError(message string) *Error {
	return &Error{Code: CodeUnauthorized, Message: message}
}

// NewInvalidRatingError creates an error for a rating outside 1-5.
func NewInvalidRatingError(rating int) *Error {
	return &Error{
		Code:    CodeInvalidRating,
		Message: fmt.Sprintf("rating must be between 1 and 5, got %d", rating),
	}
}

// NewReviewNotPermittedError creates an error carrying the specific
// ineligibility reason.
func NewReviewNotPermittedError(reason string) *Error {
	return &Error{Code: CodeReviewNotPermitted, Message: reason}
}

// NewNotFoundError creates a not-found error for an entity.
func NewNotFoundError(entity, id string) *Error {
	return &Error{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s %s not found", entity, id),
	}
}

// NewConflictError creates an error for a lost optimistic-locking race.
func NewConflictError(message string) *Error {
	return &Error{Code: CodeConflict, Message: message}
}

// NewForbiddenError creates an error for an actor acting on a resource that
// is not theirs.
func NewForbiddenError(message string) *Error {
	return &Error{Code: CodeForbidden, Message: message}
}

// CodeOf returns the domain error code of err, or "" if err is not a domain
// error.
func CodeOf(err error) ErrorCode {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// IsCode reports whether err is a domain error with the given code.
func IsCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}
