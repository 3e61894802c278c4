package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BalanceType is the closed set of buckets tracked by the ledger (spec §4.5).
type BalanceType string

const (
	BalanceTypeVacationAP BalanceType = "VACATION_AP"
	BalanceTypeVacationAC BalanceType = "VACATION_AC"
	BalanceTypeROL        BalanceType = "ROL"
	BalanceTypePermits    BalanceType = "PERMITS"
)

// BalanceTransactionType is the closed set of ledger entry kinds.
type BalanceTransactionType string

const (
	TransactionAccrual   BalanceTransactionType = "ACCRUAL"
	TransactionDeduct    BalanceTransactionType = "DEDUCT"
	TransactionRestore   BalanceTransactionType = "RESTORE"
	TransactionAdjust    BalanceTransactionType = "ADJUST"
	TransactionCarryOver BalanceTransactionType = "CARRY_OVER"
	TransactionExpire    BalanceTransactionType = "EXPIRE"
)

// BalanceTransaction is an append-only per-user, per-bucket ledger entry
// (invariant §8.2, §8.4).
type BalanceTransaction struct {
	BaseModel
	UserID          uuid.UUID              `gorm:"type:uuid;not null;index:idx_user_bucket_year" json:"user_id"`
	Year            int                    `gorm:"not null;index:idx_user_bucket_year" json:"year"`
	BalanceType     BalanceType            `gorm:"type:varchar(20);not null;index:idx_user_bucket_year" json:"balance_type"`
	TransactionType BalanceTransactionType `gorm:"type:varchar(20);not null" json:"transaction_type"`
	Amount          decimal.Decimal        `gorm:"type:numeric(10,2);not null" json:"amount"`
	BalanceAfter    decimal.Decimal        `gorm:"type:numeric(10,2);not null" json:"balance_after"`
	LeaveRequestID  *uuid.UUID             `gorm:"type:uuid;index" json:"leave_request_id,omitempty"`
	DedupeKey       string                 `gorm:"type:varchar(200);index" json:"dedupe_key,omitempty"`
}

func (BalanceTransaction) TableName() string { return "leaves.balance_transactions" }

// LeaveBalance is the per (user, year) derived-balance snapshot, kept for
// query speed. ledger.Service updates it in the same transaction as each
// BalanceTransaction it writes; it is not re-derived from or compared
// against the ledger rows.
type LeaveBalance struct {
	BaseModel
	UserID          uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_user_year" json:"user_id"`
	Year            int             `gorm:"not null;uniqueIndex:idx_user_year" json:"year"`
	VacationAPTotal decimal.Decimal `gorm:"type:numeric(10,2);not null;default:0" json:"vacation_ap_total"`
	VacationAPUsed  decimal.Decimal `gorm:"type:numeric(10,2);not null;default:0" json:"vacation_ap_used"`
	VacationAPExpiry time.Time      `gorm:"type:date" json:"vacation_ap_expiry"`
	VacationACTotal decimal.Decimal `gorm:"type:numeric(10,2);not null;default:0" json:"vacation_ac_total"`
	VacationACUsed  decimal.Decimal `gorm:"type:numeric(10,2);not null;default:0" json:"vacation_ac_used"`
	ROLTotal        decimal.Decimal `gorm:"type:numeric(10,2);not null;default:0" json:"rol_total"`
	ROLUsed         decimal.Decimal `gorm:"type:numeric(10,2);not null;default:0" json:"rol_used"`
	PermitsTotal    decimal.Decimal `gorm:"type:numeric(10,2);not null;default:0" json:"permits_total"`
	PermitsUsed     decimal.Decimal `gorm:"type:numeric(10,2);not null;default:0" json:"permits_used"`
}

func (LeaveBalance) TableName() string { return "leaves.balances" }

// Total returns the total entitlement for a bucket.
func (b *LeaveBalance) Total(bt BalanceType) decimal.Decimal {
	switch bt {
	case BalanceTypeVacationAP:
		return b.VacationAPTotal
	case BalanceTypeVacationAC:
		return b.VacationACTotal
	case BalanceTypeROL:
		return b.ROLTotal
	case BalanceTypePermits:
		return b.PermitsTotal
	default:
		return decimal.Zero
	}
}

// Used returns the consumed amount for a bucket.
func (b *LeaveBalance) Used(bt BalanceType) decimal.Decimal {
	switch bt {
	case BalanceTypeVacationAP:
		return b.VacationAPUsed
	case BalanceTypeVacationAC:
		return b.VacationACUsed
	case BalanceTypeROL:
		return b.ROLUsed
	case BalanceTypePermits:
		return b.PermitsUsed
	default:
		return decimal.Zero
	}
}

// Available returns Total-Used for a bucket.
func (b *LeaveBalance) Available(bt BalanceType) decimal.Decimal {
	return b.Total(bt).Sub(b.Used(bt))
}

// ApplyUsedDelta adds delta (positive=consume, negative=restore) to the
// bucket's Used column.
func (b *LeaveBalance) ApplyUsedDelta(bt BalanceType, delta decimal.Decimal) {
	switch bt {
	case BalanceTypeVacationAP:
		b.VacationAPUsed = b.VacationAPUsed.Add(delta)
	case BalanceTypeVacationAC:
		b.VacationACUsed = b.VacationACUsed.Add(delta)
	case BalanceTypeROL:
		b.ROLUsed = b.ROLUsed.Add(delta)
	case BalanceTypePermits:
		b.PermitsUsed = b.PermitsUsed.Add(delta)
	}
}
