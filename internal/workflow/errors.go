package workflow

import "errors"

var (
	// ErrAlreadyDecided is returned when a decision row already carries a
	// terminal Decision value (spec §4.1 "Decision processing" step 2).
	ErrAlreadyDecided = errors.New("workflow: approver has already decided")
	// ErrNotYourTurn is returned in SEQUENTIAL mode when the approver's
	// level does not match the request's current level.
	ErrNotYourTurn = errors.New("workflow: not this approver's turn")
	// ErrNotPending is returned when a decision is attempted on a request
	// that has already resolved.
	ErrNotPending = errors.New("workflow: request is not pending")
	// ErrNoPendingDecision is returned when an admin override cannot find
	// any unresolved decision row to attach to.
	ErrNoPendingDecision = errors.New("workflow: no pending decision row to override")
	// ErrDelegateRequired is returned when decision type DELEGATED carries
	// no delegate target.
	ErrDelegateRequired = errors.New("workflow: delegation requires a delegate id")
)
