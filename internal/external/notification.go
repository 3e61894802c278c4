package external

import (
	"context"

	"github.com/google/uuid"
)

// EventType enumerates the notification events the core fires (spec §6).
// Dispatch is fire-and-forget: a Notifier failure never blocks the
// triggering operation.
type EventType string

const (
	EventApprovalRequest       EventType = "APPROVAL_REQUEST"
	EventApprovalReminder      EventType = "APPROVAL_REMINDER"
	EventLeaveSubmitted        EventType = "LEAVE_SUBMITTED"
	EventLeaveApproved         EventType = "LEAVE_APPROVED"
	EventLeaveRejected         EventType = "LEAVE_REJECTED"
	EventLeaveReopened         EventType = "LEAVE_REOPENED"
	EventLeaveRevoked          EventType = "LEAVE_REVOKED"
	EventLeaveRecalled         EventType = "LEAVE_RECALLED"
	EventVoluntaryWorkRequest  EventType = "VOLUNTARY_WORK_REQUEST"
	EventVoluntaryWorkApproved EventType = "VOLUNTARY_WORK_APPROVED"
	EventVoluntaryWorkRejected EventType = "VOLUNTARY_WORK_REJECTED"
)

// Event is the payload handed to Notifier.Notify.
type Event struct {
	Type        EventType
	RecipientID uuid.UUID
	EntityType  string
	EntityID    uuid.UUID
	Data        map[string]any
}

// Notifier is the out-of-process notification collaborator (spec §6). The
// core calls it best-effort: the caller decides whether to log and drop a
// failure or to surface it, but it must never roll back the triggering
// transaction.
type Notifier interface {
	Notify(ctx context.Context, event Event) error
}
