package external

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// AuditEntry is one append-only audit record (spec §6). It mirrors
// model.ApprovalHistory's shape but is transport-agnostic: the audit sink
// may be a separate service with its own storage.
type AuditEntry struct {
	EntityType string
	EntityID   uuid.UUID
	Action     string
	ActorID    *uuid.UUID
	ActorType  string
	Details    map[string]any
	OccurredAt time.Time
}

// AuditSink is the out-of-process audit collaborator (spec §6).
type AuditSink interface {
	LogAction(ctx context.Context, entry AuditEntry) error
}
