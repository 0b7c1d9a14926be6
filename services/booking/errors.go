// File: services/booking/errors.go
package booking

import "fmt"

// SchedulingError is the common shape for every failure the scheduling flow
// can surface. Code distinguishes the class; handlers map it to a status and
// the router maps it to patient-facing wording.
type SchedulingError struct {
	Code    string
	Message string
}

func (e *SchedulingError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

const (
	CodeValidation = "validationError"
	CodeNotFound   = "notFoundError"
	CodeConflict   = "conflictError"
	CodeUpstream   = "upstreamError"
	CodeState      = "stateError"
)

// NewValidationError reports malformed or missing caller input.
func NewValidationError(msg string) error {
	return &SchedulingError{Code: CodeValidation, Message: msg}
}

// NewNotFoundError reports a referenced entity that does not exist, such as
// a cancellation with no booking on file.
func NewNotFoundError(msg string) error {
	return &SchedulingError{Code: CodeNotFound, Message: msg}
}

// NewConflictError reports a slot taken between offer and commit.
func NewConflictError(msg string) error {
	return &SchedulingError{Code: CodeConflict, Message: msg}
}

// NewUpstreamError reports a calendar or AI collaborator failure.
func NewUpstreamError(msg string) error {
	return &SchedulingError{Code: CodeUpstream, Message: msg}
}

// NewStateError reports an operation invalid for the conversation's state,
// such as a confirmation with nothing pending.
func NewStateError(msg string) error {
	return &SchedulingError{Code: CodeState, Message: msg}
}

// ErrorCode extracts the scheduling error class, or "" for foreign errors.
func ErrorCode(err error) string {
	if se, ok := err.(*SchedulingError); ok {
		return se.Code
	}
	return ""
}
