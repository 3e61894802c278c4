package leave

import "errors"

var (
	// ErrWrongStatus is returned when a transition is attempted from a
	// status that does not permit it (spec §4.2 state machine).
	ErrWrongStatus = errors.New("leave: request is not in a status that permits this transition")
	// ErrNotOwner is returned when a requester-only transition (cancel,
	// accept-condition, voluntary work request) is attempted by someone
	// else.
	ErrNotOwner = errors.New("leave: only the requester may perform this action")
	// ErrProtocolRequired names the missing-protocol case. Create does not
	// return this value: it reports a missing protocol number as a
	// corekit validation failure carrying the same message.
	ErrProtocolRequired = errors.New("leave: protocol number is required for this leave type")
	// ErrRecallWindow is returned when a full or partial recall is
	// attempted outside [start_date, end_date] or with days outside range.
	ErrRecallWindow = errors.New("leave: recall is outside the request's date range")
	// ErrCannotModifyInFlight is returned when modify-approved or revoke is
	// attempted on or after start_date.
	ErrCannotModifyInFlight = errors.New("leave: request has already started")
	// ErrReopenNotInFuture is returned when reopen is attempted on a
	// request whose start_date is not in the future.
	ErrReopenNotInFuture = errors.New("leave: start date is not in the future")
	// ErrInterruptionOverlap is returned when a new interruption would
	// overlap an existing one of the same type: an ACTIVE sickness
	// interruption, or a voluntary-work request still pending approval.
	ErrInterruptionOverlap = errors.New("leave: interruption overlaps an existing one")
	// ErrConditionAlreadyDecided is returned when accept-condition is
	// called on a request that is not APPROVED_CONDITIONAL, and when a
	// voluntary-work decision is made on an interruption that is no longer
	// pending approval.
	ErrConditionAlreadyDecided = errors.New("leave: condition has already been decided")
	// ErrVoluntaryWorkWindow is returned when a voluntary-work day is not
	// strictly after today and on or before the request's end date.
	ErrVoluntaryWorkWindow = errors.New("leave: voluntary work day is outside (today, end_date]")
)
