package leave

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cristian75IT/kronos-core/internal/external"
	"github.com/cristian75IT/kronos-core/internal/ledger"
	"github.com/cristian75IT/kronos-core/internal/model"
)

// Cancel transitions DRAFT/PENDING/APPROVED to CANCELLED. Only the
// requester may cancel; a prior deduction is restored (spec §4.2
// "cancel").
func (s *Service) Cancel(ctx context.Context, requestID, actorID uuid.UUID) (*model.LeaveRequest, error) {
	var req *model.LeaveRequest
	if err := s.db.WithTransaction(ctx, func(tx *gorm.DB) error {
		locked, err := s.requests.GetByIDForUpdate(ctx, tx, requestID)
		if err != nil {
			return err
		}
		if locked.UserID != actorID {
			return ErrNotOwner
		}
		switch locked.Status {
		case model.LeaveStatusDraft, model.LeaveStatusPending, model.LeaveStatusApproved:
		default:
			return ErrWrongStatus
		}

		if locked.BalanceDeducted {
			if err := restoreDeduction(ctx, s.ledger, tx, locked); err != nil {
				return err
			}
		}
		locked.Status = model.LeaveStatusCancelled
		req = locked
		return s.requests.UpdateTx(ctx, tx, locked)
	}); err != nil {
		return nil, err
	}
	s.logAudit(ctx, actorID, "CANCELLED", req, nil)
	return req, nil
}

// Revoke transitions APPROVED to REJECTED. Only allowed before start_date;
// restores balance (spec §4.2 "revoke").
func (s *Service) Revoke(ctx context.Context, requestID, actorID uuid.UUID) (*model.LeaveRequest, error) {
	var req *model.LeaveRequest
	today := dateOnly(time.Now().UTC())
	if err := s.db.WithTransaction(ctx, func(tx *gorm.DB) error {
		locked, err := s.requests.GetByIDForUpdate(ctx, tx, requestID)
		if err != nil {
			return err
		}
		if locked.Status != model.LeaveStatusApproved {
			return ErrWrongStatus
		}
		if !locked.StartDate.After(today) {
			return ErrCannotModifyInFlight
		}
		if locked.BalanceDeducted {
			if err := restoreDeduction(ctx, s.ledger, tx, locked); err != nil {
				return err
			}
		}
		locked.Status = model.LeaveStatusRejected
		req = locked
		return s.requests.UpdateTx(ctx, tx, locked)
	}); err != nil {
		return nil, err
	}
	s.notify(ctx, external.EventLeaveRevoked, req.UserID, req, nil)
	s.logAudit(ctx, actorID, "REVOKED", req, nil)
	return req, nil
}

// Reopen transitions {REJECTED, CANCELLED, EXPIRED} back to PENDING when
// start_date is still in the future (spec §4.2 state machine).
func (s *Service) Reopen(ctx context.Context, requestID, actorID uuid.UUID) (*model.LeaveRequest, error) {
	var req *model.LeaveRequest
	today := dateOnly(time.Now().UTC())
	if err := s.db.WithTransaction(ctx, func(tx *gorm.DB) error {
		locked, err := s.requests.GetByIDForUpdate(ctx, tx, requestID)
		if err != nil {
			return err
		}
		switch locked.Status {
		case model.LeaveStatusRejected, model.LeaveStatusCancelled, model.LeaveStatusExpired:
		default:
			return ErrWrongStatus
		}
		if !locked.StartDate.After(today) {
			return ErrReopenNotInFuture
		}
		locked.Status = model.LeaveStatusPending
		req = locked
		return s.requests.UpdateTx(ctx, tx, locked)
	}); err != nil {
		return nil, err
	}
	s.notify(ctx, external.EventLeaveReopened, req.UserID, req, nil)
	s.logAudit(ctx, actorID, "REOPENED", req, nil)
	return req, nil
}

// AcceptCondition resolves APPROVED_CONDITIONAL into APPROVED or CANCELLED.
// Only the requester may decide; accepting deducts the balance (spec §4.2
// "accept-condition").
func (s *Service) AcceptCondition(ctx context.Context, requestID, actorID uuid.UUID, accept bool) (*model.LeaveRequest, error) {
	var req *model.LeaveRequest
	if err := s.db.WithTransaction(ctx, func(tx *gorm.DB) error {
		locked, err := s.requests.GetByIDForUpdate(ctx, tx, requestID)
		if err != nil {
			return err
		}
		if locked.Status != model.LeaveStatusApprovedConditional {
			return ErrConditionAlreadyDecided
		}
		if locked.UserID != actorID {
			return ErrNotOwner
		}

		if accept {
			leaveType, err := s.config.GetLeaveTypeByCode(ctx, locked.LeaveTypeCode)
			if err != nil {
				return fmt.Errorf("leave: load leave type: %w", err)
			}
			if err := deductBreakdown(ctx, s.ledger, tx, locked, leaveType.AllowNegativeBalance); err != nil {
				return err
			}
			locked.Status = model.LeaveStatusApproved
			locked.ConditionAccepted = boolPtr(true)
		} else {
			locked.Status = model.LeaveStatusCancelled
			locked.ConditionAccepted = boolPtr(false)
		}
		req = locked
		return s.requests.UpdateTx(ctx, tx, locked)
	}); err != nil {
		return nil, err
	}
	s.logAudit(ctx, actorID, "CONDITION_DECIDED", req, map[string]any{"accepted": accept})
	return req, nil
}

// restoreDeduction restores the full breakdown stored at deduction time, in
// reverse bucket order (spec §4.5 "AP is restored after AC").
func restoreDeduction(ctx context.Context, svc *ledger.Service, tx *gorm.DB, req *model.LeaveRequest) error {
	if len(req.DeductionDetails) == 0 {
		return nil
	}
	var breakdown []ledger.BucketAmount
	if err := json.Unmarshal(req.DeductionDetails, &breakdown); err != nil {
		return fmt.Errorf("leave: decode deduction breakdown: %w", err)
	}
	year := req.StartDate.Year()
	dedupePrefix := fmt.Sprintf("%s:RESTORE:%d", req.ID, time.Now().UTC().Unix())
	if err := svc.RestoreBucketsDescending(ctx, tx, req.UserID, year, breakdown, req.ID, dedupePrefix); err != nil {
		return err
	}
	req.BalanceDeducted = false
	return nil
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func boolPtr(b bool) *bool { return &b }
