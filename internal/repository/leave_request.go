package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cristian75IT/kronos-core/internal/model"
)

var ErrLeaveRequestNotFound = errors.New("leave request not found")

// LeaveRequestRepository handles leave request persistence.
type LeaveRequestRepository struct {
	db *DB
}

func NewLeaveRequestRepository(db *DB) *LeaveRequestRepository {
	return &LeaveRequestRepository{db: db}
}

func (r *LeaveRequestRepository) Create(ctx context.Context, req *model.LeaveRequest) error {
	return r.db.GORM.WithContext(ctx).Create(req).Error
}

func (r *LeaveRequestRepository) CreateTx(ctx context.Context, tx *gorm.DB, req *model.LeaveRequest) error {
	return tx.WithContext(ctx).Create(req).Error
}

func (r *LeaveRequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.LeaveRequest, error) {
	var req model.LeaveRequest
	err := r.db.GORM.WithContext(ctx).First(&req, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrLeaveRequestNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get leave request: %w", err)
	}
	return &req, nil
}

// GetByIDForUpdate locks the request row for the duration of the calling
// transaction, the same row-lock pattern as ApprovalRequestRepository (spec
// §5: every lifecycle transition owns its request row for the transaction).
// Must be called with a tx already opened via DB.WithTransaction.
func (r *LeaveRequestRepository) GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.LeaveRequest, error) {
	var req model.LeaveRequest
	err := tx.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).First(&req, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrLeaveRequestNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock leave request: %w", err)
	}
	return &req, nil
}

func (r *LeaveRequestRepository) Update(ctx context.Context, req *model.LeaveRequest) error {
	return r.db.GORM.WithContext(ctx).Save(req).Error
}

func (r *LeaveRequestRepository) UpdateTx(ctx context.Context, tx *gorm.DB, req *model.LeaveRequest) error {
	return tx.WithContext(ctx).Save(req).Error
}

// ListOverlappingNonTerminal returns the user's requests that are still
// non-terminal (spec: DRAFT/PENDING/APPROVED/APPROVED_CONDITIONAL) and
// overlap [from,to], for the overlap invariant (spec §8.3). excludeID, when
// non-nil, skips that request (used when re-validating an edit).
func (r *LeaveRequestRepository) ListOverlappingNonTerminal(ctx context.Context, userID uuid.UUID, from, to time.Time, excludeID *uuid.UUID) ([]model.LeaveRequest, error) {
	q := r.db.GORM.WithContext(ctx).
		Where("user_id = ? AND status IN ? AND start_date <= ? AND end_date >= ?",
			userID,
			[]model.LeaveRequestStatus{
				model.LeaveStatusDraft,
				model.LeaveStatusPending,
				model.LeaveStatusApproved,
				model.LeaveStatusApprovedConditional,
			},
			to, from)
	if excludeID != nil {
		q = q.Where("id <> ?", *excludeID)
	}
	var reqs []model.LeaveRequest
	if err := q.Find(&reqs).Error; err != nil {
		return nil, fmt.Errorf("failed to list overlapping leave requests: %w", err)
	}
	return reqs, nil
}

func (r *LeaveRequestRepository) ListByApprovalRequestID(ctx context.Context, approvalRequestID uuid.UUID) (*model.LeaveRequest, error) {
	var req model.LeaveRequest
	err := r.db.GORM.WithContext(ctx).
		Where("approval_request_id = ?", approvalRequestID).
		First(&req).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrLeaveRequestNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get leave request by approval request: %w", err)
	}
	return &req, nil
}

// SumDaysRequestedInMonth totals DaysRequested for a user's PENDING/APPROVED/
// APPROVED_CONDITIONAL requests of leaveTypeCode whose start_date falls in
// (year, month), for the policy engine's max_per_month check (spec §4.3).
// excludeID, when non-nil, skips that request (re-validating an edit).
func (r *LeaveRequestRepository) SumDaysRequestedInMonth(ctx context.Context, userID uuid.UUID, leaveTypeCode string, year int, month time.Month, excludeID *uuid.UUID) (decimal.Decimal, error) {
	q := r.db.GORM.WithContext(ctx).Model(&model.LeaveRequest{}).
		Where("user_id = ? AND leave_type_code = ? AND status IN ? AND date_part('year', start_date) = ? AND date_part('month', start_date) = ?",
			userID, leaveTypeCode,
			[]model.LeaveRequestStatus{model.LeaveStatusPending, model.LeaveStatusApproved, model.LeaveStatusApprovedConditional},
			year, int(month))
	if excludeID != nil {
		q = q.Where("id <> ?", *excludeID)
	}
	var total *decimal.Decimal
	if err := q.Select("COALESCE(SUM(days_requested), 0)").Scan(&total).Error; err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum monthly leave days: %w", err)
	}
	if total == nil {
		return decimal.Zero, nil
	}
	return *total, nil
}

// ListApprovedOverlappingClosure returns up to limit APPROVED and
// APPROVED_CONDITIONAL leave requests overlapping a closure's date range,
// for recalculate_for_closure (spec §4.6).
func (r *LeaveRequestRepository) ListApprovedOverlappingClosure(ctx context.Context, from, to time.Time, limit int) ([]model.LeaveRequest, error) {
	var reqs []model.LeaveRequest
	err := r.db.GORM.WithContext(ctx).
		Where("status IN ? AND start_date <= ? AND end_date >= ?",
			[]model.LeaveRequestStatus{model.LeaveStatusApproved, model.LeaveStatusApprovedConditional},
			to, from).
		Order("start_date ASC").
		Limit(limit).
		Find(&reqs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list leave requests for closure recalculation: %w", err)
	}
	return reqs, nil
}
