// Package corekit holds small cross-cutting types shared by every package
// of the Approval & Leave core.
package corekit

import "fmt"

// Kind is the closed set of error kinds the core surfaces to callers
// (spec §7). Transports built on top of this library map a Kind to a
// status code without string-matching error messages.
type Kind string

const (
	KindNotFound             Kind = "NOT_FOUND"
	KindConflict             Kind = "CONFLICT"
	KindValidationFailure    Kind = "VALIDATION_FAILURE"
	KindBusinessRuleViolation Kind = "BUSINESS_RULE_VIOLATION"
	KindNoWorkflowConfigured Kind = "NO_WORKFLOW_CONFIGURED"
	KindNoApproversResolved  Kind = "NO_APPROVERS_RESOLVED"
	KindExternalUnavailable  Kind = "EXTERNAL_UNAVAILABLE"
)

// CoreError wraps an underlying error with a Kind and optional structured
// detail (e.g. the conflicting entity's id).
type CoreError struct {
	Kind    Kind
	Message string
	Detail  any
	Err     error
}

func (e *CoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *CoreError) Unwrap() error { return e.Err }

// New constructs a CoreError of the given kind.
func New(kind Kind, message string) *CoreError {
	return &CoreError{Kind: kind, Message: message}
}

// Wrap constructs a CoreError of the given kind wrapping err.
func Wrap(kind Kind, message string, err error) *CoreError {
	return &CoreError{Kind: kind, Message: message, Err: err}
}

// WithDetail attaches structured detail (e.g. a conflicting entity id) to
// the error and returns it for chaining.
func (e *CoreError) WithDetail(detail any) *CoreError {
	e.Detail = detail
	return e
}

// Is allows errors.Is(err, corekit.New(KindNotFound, "")) style kind checks.
func (e *CoreError) Is(target error) bool {
	other, ok := target.(*CoreError)
	if !ok {
		return false
	}
	return e.Kind == other.Kind
}
