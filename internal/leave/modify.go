package leave

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cristian75IT/kronos-core/internal/model"
)

// ModifyApprovedInput carries the new date range for an in-place edit of an
// already-approved request (spec §4.2 "Modify approved").
type ModifyApprovedInput struct {
	RequestID    uuid.UUID
	ActorID      uuid.UUID
	NewStart     time.Time
	NewEnd       time.Time
	NewStartHalf bool
	NewEndHalf   bool
}

// ModifyApproved recomputes days_requested for a new date range on an
// APPROVED/APPROVED_CONDITIONAL request (only allowed when the new start
// date is still in the future) and posts the signed delta split across the
// stored deduction buckets, one ledger entry per bucket (spec §4.2 "Modify
// approved").
func (s *Service) ModifyApproved(ctx context.Context, in ModifyApprovedInput) (*model.LeaveRequest, error) {
	if in.NewEnd.Before(in.NewStart) {
		return nil, ErrRecallWindow
	}

	var req *model.LeaveRequest
	var before, after model.LeaveRequest

	if err := s.db.WithTransaction(ctx, func(tx *gorm.DB) error {
		locked, err := s.requests.GetByIDForUpdate(ctx, tx, in.RequestID)
		if err != nil {
			return err
		}
		if locked.Status != model.LeaveStatusApproved && locked.Status != model.LeaveStatusApprovedConditional {
			return ErrWrongStatus
		}
		today := dateOnly(time.Now().UTC())
		newStart := dateOnly(in.NewStart)
		if !newStart.After(today) {
			return ErrCannotModifyInFlight
		}

		before = *locked

		newDays, err := s.resolveWorkingDays(ctx, newStart, dateOnly(in.NewEnd), in.NewStartHalf, in.NewEndHalf)
		if err != nil {
			return fmt.Errorf("leave: compute modified days: %w", err)
		}
		delta := newDays.Sub(locked.DaysRequested)

		if !delta.IsZero() && locked.BalanceDeducted && len(locked.DeductionDetails) > 0 {
			dedupe := fmt.Sprintf("%s:ADJUST:%d", locked.ID, time.Now().UTC().UnixNano())
			if err := adjustBreakdownProportional(ctx, s.ledger, tx, locked.UserID, locked.StartDate.Year(), locked.DeductionDetails, delta, locked.ID, dedupe); err != nil {
				return err
			}
		}

		locked.StartDate = newStart
		locked.EndDate = dateOnly(in.NewEnd)
		locked.StartHalfDay = in.NewStartHalf
		locked.EndHalfDay = in.NewEndHalf
		locked.DaysRequested = newDays

		after = *locked
		req = locked
		return s.requests.UpdateTx(ctx, tx, locked)
	}); err != nil {
		return nil, err
	}

	s.logAudit(ctx, in.ActorID, "MODIFIED", req, map[string]any{
		"before": map[string]any{"start_date": before.StartDate, "end_date": before.EndDate, "days_requested": before.DaysRequested.String()},
		"after":  map[string]any{"start_date": after.StartDate, "end_date": after.EndDate, "days_requested": after.DaysRequested.String()},
	})
	return req, nil
}
