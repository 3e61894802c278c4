package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// LeaveRequestStatus is the closed set of leave-request lifecycle states
// (spec §4.2).
type LeaveRequestStatus string

const (
	LeaveStatusDraft               LeaveRequestStatus = "DRAFT"
	LeaveStatusPending             LeaveRequestStatus = "PENDING"
	LeaveStatusApproved            LeaveRequestStatus = "APPROVED"
	LeaveStatusApprovedConditional LeaveRequestStatus = "APPROVED_CONDITIONAL"
	LeaveStatusRejected            LeaveRequestStatus = "REJECTED"
	LeaveStatusCancelled           LeaveRequestStatus = "CANCELLED"
	LeaveStatusExpired             LeaveRequestStatus = "EXPIRED"
	LeaveStatusRecalled            LeaveRequestStatus = "RECALLED"
)

// IsTerminalFor reports whether the status is terminal given today's date
// relative to the request's end date (an APPROVED request becomes terminal
// once it has run its course).
func (s LeaveRequestStatus) IsTerminalFor(endDate, today time.Time) bool {
	switch s {
	case LeaveStatusCancelled, LeaveStatusRejected, LeaveStatusRecalled:
		return true
	case LeaveStatusApproved:
		return endDate.Before(today)
	default:
		return false
	}
}

// IsNonTerminal reports whether the status still participates in the
// overlap invariant (spec §8.3).
func (s LeaveRequestStatus) IsNonTerminal() bool {
	switch s {
	case LeaveStatusDraft, LeaveStatusPending, LeaveStatusApproved, LeaveStatusApprovedConditional:
		return true
	default:
		return false
	}
}

// LeaveRequest is a single employee absence request.
type LeaveRequest struct {
	BaseModel
	UserID                uuid.UUID          `gorm:"type:uuid;not null;index" json:"user_id"`
	LeaveTypeID           uuid.UUID          `gorm:"type:uuid;not null" json:"leave_type_id"`
	LeaveTypeCode         string             `gorm:"type:varchar(50);not null" json:"leave_type_code"`
	Status                LeaveRequestStatus `gorm:"type:varchar(30);not null;index" json:"status"`
	StartDate             time.Time          `gorm:"type:date;not null" json:"start_date"`
	EndDate               time.Time          `gorm:"type:date;not null" json:"end_date"`
	StartHalfDay          bool               `gorm:"not null;default:false" json:"start_half_day"`
	EndHalfDay            bool               `gorm:"not null;default:false" json:"end_half_day"`
	DaysRequested         decimal.Decimal    `gorm:"type:numeric(5,2);not null" json:"days_requested"`
	ProtocolNumber        *string            `gorm:"type:varchar(100)" json:"protocol_number,omitempty"`
	DeductionDetails      datatypes.JSON     `gorm:"type:jsonb" json:"deduction_details,omitempty"`
	BalanceDeducted       bool               `gorm:"not null;default:false" json:"balance_deducted"`
	ConditionType         *string            `gorm:"type:varchar(100)" json:"condition_type,omitempty"`
	ConditionDetails      datatypes.JSON     `gorm:"type:jsonb" json:"condition_details,omitempty"`
	ConditionAccepted     *bool              `json:"condition_accepted,omitempty"`
	RecalledAt            *time.Time         `json:"recalled_at,omitempty"`
	RecallReason          *string            `gorm:"type:text" json:"recall_reason,omitempty"`
	RecallDate            *time.Time         `gorm:"type:date" json:"recall_date,omitempty"`
	DaysUsedBeforeRecall  decimal.Decimal    `gorm:"type:numeric(5,2)" json:"days_used_before_recall"`
	HasInterruptions      bool               `gorm:"not null;default:false" json:"has_interruptions"`
	ApprovalRequestID     *uuid.UUID         `gorm:"type:uuid" json:"approval_request_id,omitempty"`
}

func (LeaveRequest) TableName() string { return "leaves.requests" }

// Overlaps reports whether [StartDate,EndDate] intersects [from,to], both
// inclusive (spec §4.2 "Overlap & protocol invariants").
func (r *LeaveRequest) Overlaps(from, to time.Time) bool {
	return !r.EndDate.Before(from) && !r.StartDate.After(to)
}

// InterruptionType is the closed set of LeaveInterruption kinds.
type InterruptionType string

const (
	InterruptionPartialRecall  InterruptionType = "PARTIAL_RECALL"
	InterruptionSickness       InterruptionType = "SICKNESS"
	InterruptionVoluntaryWork  InterruptionType = "VOLUNTARY_WORK"
)

// InterruptionStatus is the closed set of LeaveInterruption states.
type InterruptionStatus string

const (
	InterruptionStatusActive          InterruptionStatus = "ACTIVE"
	InterruptionStatusPendingApproval InterruptionStatus = "PENDING_APPROVAL"
	InterruptionStatusApproved        InterruptionStatus = "APPROVED"
	InterruptionStatusRejected        InterruptionStatus = "REJECTED"
)

// LeaveInterruption is a child record of an APPROVED LeaveRequest describing
// a partial recall, sickness-during-vacation, or voluntary-work conversion
// (spec §4.2, §3).
type LeaveInterruption struct {
	BaseModel
	LeaveRequestID    uuid.UUID          `gorm:"type:uuid;not null;index" json:"leave_request_id"`
	InterruptionType  InterruptionType   `gorm:"type:varchar(30);not null" json:"interruption_type"`
	StartDate         time.Time          `gorm:"type:date;not null" json:"start_date"`
	EndDate           time.Time          `gorm:"type:date;not null" json:"end_date"`
	SpecificDays      pq.StringArray     `gorm:"type:text[]" json:"specific_days"`
	DaysRefunded      decimal.Decimal    `gorm:"type:numeric(5,2);not null;default:0" json:"days_refunded"`
	ProtocolNumber    *string            `gorm:"type:varchar(100)" json:"protocol_number,omitempty"`
	InitiatedByID     uuid.UUID          `gorm:"type:uuid;not null" json:"initiated_by_id"`
	InitiatedByRole   string             `gorm:"type:varchar(100)" json:"initiated_by_role"`
	Status            InterruptionStatus `gorm:"type:varchar(30);not null" json:"status"`
}

func (LeaveInterruption) TableName() string { return "leaves.interruptions" }

// SpecificDates parses SpecificDays ("2006-01-02" strings) into time.Time.
func (i *LeaveInterruption) SpecificDates() ([]time.Time, error) {
	dates := make([]time.Time, 0, len(i.SpecificDays))
	for _, s := range i.SpecificDays {
		d, err := time.Parse("2006-01-02", s)
		if err != nil {
			return nil, err
		}
		dates = append(dates, d)
	}
	return dates, nil
}
