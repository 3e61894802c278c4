package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/datatypes"
)

// ApprovalMode controls how decisions are tallied into a terminal status.
type ApprovalMode string

const (
	ApprovalModeAny        ApprovalMode = "ANY"
	ApprovalModeAll        ApprovalMode = "ALL"
	ApprovalModeSequential ApprovalMode = "SEQUENTIAL"
	ApprovalModeMajority   ApprovalMode = "MAJORITY"
)

// ExpirationAction is taken when a PENDING request's deadline passes.
type ExpirationAction string

const (
	ExpirationActionReject      ExpirationAction = "REJECT"
	ExpirationActionEscalate    ExpirationAction = "ESCALATE"
	ExpirationActionAutoApprove ExpirationAction = "AUTO_APPROVE"
	ExpirationActionNotifyOnly  ExpirationAction = "NOTIFY_ONLY"
)

// ApprovalStatus is the closed set of terminal and non-terminal request states.
type ApprovalStatus string

const (
	ApprovalStatusPending             ApprovalStatus = "PENDING"
	ApprovalStatusApproved            ApprovalStatus = "APPROVED"
	ApprovalStatusApprovedConditional ApprovalStatus = "APPROVED_CONDITIONAL"
	ApprovalStatusRejected            ApprovalStatus = "REJECTED"
	ApprovalStatusExpired             ApprovalStatus = "EXPIRED"
	ApprovalStatusEscalated           ApprovalStatus = "ESCALATED"
	ApprovalStatusCancelled           ApprovalStatus = "CANCELLED"
)

// IsTerminal reports whether the status admits no further decisions.
func (s ApprovalStatus) IsTerminal() bool {
	switch s {
	case ApprovalStatusApproved, ApprovalStatusApprovedConditional,
		ApprovalStatusRejected, ApprovalStatusExpired, ApprovalStatusCancelled:
		return true
	default:
		return false
	}
}

// DecisionType is the closed set of per-approver decisions.
type DecisionType string

const (
	DecisionApproved            DecisionType = "APPROVED"
	DecisionRejected            DecisionType = "REJECTED"
	DecisionDelegated           DecisionType = "DELEGATED"
	DecisionApprovedConditional DecisionType = "APPROVED_CONDITIONAL"
)

// ActorType distinguishes who performed a history-logged action.
type ActorType string

const (
	ActorTypeUser      ActorType = "USER"
	ActorTypeSystem    ActorType = "SYSTEM"
	ActorTypeScheduler ActorType = "SCHEDULER"
)

// ReminderType distinguishes the two scheduled reminder kinds.
type ReminderType string

const (
	ReminderTypeFirst ReminderType = "FIRST"
	ReminderTypeFinal ReminderType = "FINAL"
)

// WorkflowConfig selects how a given entity type's approval requests are
// routed, assigned, tallied and expired. See spec §3/§4.1.
type WorkflowConfig struct {
	BaseModel
	EntityType          string             `gorm:"type:varchar(100);not null;index" json:"entity_type"`
	Name                string             `gorm:"type:varchar(200);not null" json:"name"`
	MinApprovers        int                `gorm:"not null;default:1" json:"min_approvers"`
	MaxApprovers        int                `gorm:"not null" json:"max_approvers"`
	ApprovalMode        ApprovalMode       `gorm:"type:varchar(20);not null" json:"approval_mode"`
	ApproverRoleIDs     pq.StringArray     `gorm:"type:text[]" json:"approver_role_ids"`
	AutoAssignApprovers bool               `gorm:"not null;default:false" json:"auto_assign_approvers"`
	AllowSelfApproval   bool               `gorm:"not null;default:false" json:"allow_self_approval"`
	ExpirationHours     int                `gorm:"not null" json:"expiration_hours"`
	ExpirationAction    ExpirationAction   `gorm:"type:varchar(20);not null" json:"expiration_action"`
	EscalationRoleID    *string            `gorm:"type:varchar(100)" json:"escalation_role_id,omitempty"`
	ReminderHoursBefore pq.Int64Array      `gorm:"type:int[]" json:"reminder_hours_before"`
	SendReminders       bool               `gorm:"not null;default:true" json:"send_reminders"`
	Conditions          datatypes.JSON     `gorm:"type:jsonb" json:"conditions,omitempty"`
	Priority            int                `gorm:"not null;default:100" json:"priority"`
	IsActive            bool               `gorm:"not null;default:true;index" json:"is_active"`
	IsDefault           bool               `gorm:"not null;default:false" json:"is_default"`
	TargetRoleIDs       pq.StringArray     `gorm:"type:text[]" json:"target_role_ids"`
}

// TableName overrides the default pluralization to keep the approvals schema
// grouping explicit, matching spec §3's per-concern schema layout.
func (WorkflowConfig) TableName() string { return "approvals.workflow_configs" }

// ApprovalRequest is the per-entity approval instance. At most one PENDING
// request may exist per (EntityType, EntityID) — invariant §8.1.
type ApprovalRequest struct {
	BaseModel
	EntityType         string         `gorm:"type:varchar(100);not null;index:idx_entity" json:"entity_type"`
	EntityID           uuid.UUID      `gorm:"type:uuid;not null;index:idx_entity" json:"entity_id"`
	WorkflowConfigID   uuid.UUID      `gorm:"type:uuid;not null" json:"workflow_config_id"`
	RequesterID        uuid.UUID      `gorm:"type:uuid;not null" json:"requester_id"`
	Title              string         `gorm:"type:varchar(300)" json:"title"`
	Description        string         `gorm:"type:text" json:"description"`
	Metadata           datatypes.JSON `gorm:"type:jsonb" json:"metadata,omitempty"`
	CallbackURL        string         `gorm:"type:text" json:"callback_url"`
	Status             ApprovalStatus `gorm:"type:varchar(30);not null;index" json:"status"`
	RequiredApprovals  int            `gorm:"not null" json:"required_approvals"`
	ReceivedApprovals  int            `gorm:"not null;default:0" json:"received_approvals"`
	ReceivedRejections int            `gorm:"not null;default:0" json:"received_rejections"`
	CurrentLevel       int            `gorm:"not null;default:1" json:"current_level"`
	MaxLevel           int            `gorm:"not null;default:1" json:"max_level"`
	ExpiresAt          *time.Time     `json:"expires_at,omitempty"`
	ExpiredActionTaken bool           `gorm:"not null;default:false" json:"expired_action_taken"`
	ConditionType      *string        `gorm:"type:varchar(100)" json:"condition_type,omitempty"`
	ConditionDetails   datatypes.JSON `gorm:"type:jsonb" json:"condition_details,omitempty"`
	ResolutionNotes    string         `gorm:"type:text" json:"resolution_notes,omitempty"`
	FinalDeciderID     *uuid.UUID     `gorm:"type:uuid" json:"final_decider_id,omitempty"`
	ResolvedAt         *time.Time     `json:"resolved_at,omitempty"`
}

func (ApprovalRequest) TableName() string { return "approvals.requests" }

// ApprovalDecision is one row per assigned approver per request.
type ApprovalDecision struct {
	BaseModel
	RequestID         uuid.UUID     `gorm:"type:uuid;not null;index" json:"request_id"`
	ApproverID        uuid.UUID     `gorm:"type:uuid;not null" json:"approver_id"`
	ApproverName      string        `gorm:"type:varchar(200)" json:"approver_name"`
	ApproverRole      string        `gorm:"type:varchar(100)" json:"approver_role"`
	ApprovalLevel     int           `gorm:"not null;default:1" json:"approval_level"`
	Decision          *DecisionType `gorm:"type:varchar(30)" json:"decision,omitempty"`
	Notes             string        `gorm:"type:text" json:"notes,omitempty"`
	DelegatedToID     *uuid.UUID    `gorm:"type:uuid" json:"delegated_to_id,omitempty"`
	AssignedAt        time.Time     `gorm:"not null;default:now()" json:"assigned_at"`
	DecidedAt         *time.Time    `json:"decided_at,omitempty"`
}

func (ApprovalDecision) TableName() string { return "approvals.decisions" }

// ApprovalHistory is an append-only event log per request (invariant §8.4).
type ApprovalHistory struct {
	BaseModel
	RequestID uuid.UUID      `gorm:"type:uuid;not null;index" json:"request_id"`
	Action    string         `gorm:"type:varchar(100);not null" json:"action"`
	ActorID   *uuid.UUID     `gorm:"type:uuid" json:"actor_id,omitempty"`
	ActorType ActorType      `gorm:"type:varchar(20);not null" json:"actor_type"`
	Details   datatypes.JSON `gorm:"type:jsonb" json:"details,omitempty"`
}

func (ApprovalHistory) TableName() string { return "approvals.history" }

// ApprovalReminder is pre-scheduled per (request, approver, reminder type).
type ApprovalReminder struct {
	BaseModel
	RequestID    uuid.UUID    `gorm:"type:uuid;not null;index" json:"request_id"`
	ApproverID   uuid.UUID    `gorm:"type:uuid;not null" json:"approver_id"`
	ReminderType ReminderType `gorm:"type:varchar(10);not null" json:"reminder_type"`
	ScheduledAt  time.Time    `gorm:"not null;index" json:"scheduled_at"`
	Sent         bool         `gorm:"not null;default:false;index" json:"sent"`
}

func (ApprovalReminder) TableName() string { return "approvals.reminders" }
