package leave

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cristian75IT/kronos-core/internal/external"
	"github.com/cristian75IT/kronos-core/internal/model"
)

// VoluntaryWorkInput carries the employee-initiated conversion request
// (spec §4.2 "Voluntary work").
type VoluntaryWorkInput struct {
	RequestID  uuid.UUID
	ActorID    uuid.UUID
	WorkDays   []time.Time
	Protocol   *string
}

// RequestVoluntaryWork lets the requester offer to work specific future
// days of their own approved vacation. It creates a PENDING_APPROVAL
// VOLUNTARY_WORK interruption with no balance effect until the manager
// decides (spec §4.2 "Voluntary work").
func (s *Service) RequestVoluntaryWork(ctx context.Context, in VoluntaryWorkInput) (*model.LeaveInterruption, error) {
	if len(in.WorkDays) == 0 {
		return nil, ErrRecallWindow
	}

	var interruption *model.LeaveInterruption

	if err := s.db.WithTransaction(ctx, func(tx *gorm.DB) error {
		locked, err := s.requests.GetByIDForUpdate(ctx, tx, in.RequestID)
		if err != nil {
			return err
		}
		if locked.UserID != in.ActorID {
			return ErrNotOwner
		}
		if locked.Status != model.LeaveStatusApproved && locked.Status != model.LeaveStatusApprovedConditional {
			return ErrWrongStatus
		}

		today := dateOnly(time.Now().UTC())
		specificDays := make([]string, 0, len(in.WorkDays))
		var minDay, maxDay time.Time
		for i, d := range in.WorkDays {
			day := dateOnly(d)
			if !day.After(today) || day.After(locked.EndDate) {
				return ErrVoluntaryWorkWindow
			}
			if i == 0 || day.Before(minDay) {
				minDay = day
			}
			if i == 0 || day.After(maxDay) {
				maxDay = day
			}
			specificDays = append(specificDays, day.Format("2006-01-02"))
		}

		existing, err := s.interruptions.ListByLeaveRequest(ctx, locked.ID)
		if err != nil {
			return fmt.Errorf("leave: list interruptions: %w", err)
		}
		for _, e := range existing {
			if e.InterruptionType != model.InterruptionVoluntaryWork || e.Status != model.InterruptionStatusPendingApproval {
				continue
			}
			if !e.EndDate.Before(minDay) && !e.StartDate.After(maxDay) {
				return ErrInterruptionOverlap
			}
		}

		interruption = &model.LeaveInterruption{
			LeaveRequestID:   locked.ID,
			InterruptionType: model.InterruptionVoluntaryWork,
			StartDate:        minDay,
			EndDate:          maxDay,
			SpecificDays:     specificDays,
			ProtocolNumber:   in.Protocol,
			InitiatedByID:    in.ActorID,
			Status:           model.InterruptionStatusPendingApproval,
		}
		return s.interruptions.CreateTx(ctx, tx, interruption)
	}); err != nil {
		return nil, err
	}

	req := &model.LeaveRequest{BaseModel: model.BaseModel{ID: in.RequestID}}
	s.notify(ctx, external.EventVoluntaryWorkRequest, in.ActorID, req, map[string]any{"interruption_id": interruption.ID})
	s.logAudit(ctx, in.ActorID, "VOLUNTARY_WORK_REQUESTED", req, nil)
	return interruption, nil
}

// DecideVoluntaryWork resolves a PENDING_APPROVAL VOLUNTARY_WORK
// interruption. On approval it refunds the computed working days; on
// rejection the balance is left unchanged. Both notify the employee (spec
// §4.2 "Voluntary work").
func (s *Service) DecideVoluntaryWork(ctx context.Context, interruptionID, approverID uuid.UUID, approve bool) (*model.LeaveInterruption, error) {
	var interruption *model.LeaveInterruption
	var req *model.LeaveRequest

	if err := s.db.WithTransaction(ctx, func(tx *gorm.DB) error {
		found, err := s.interruptions.GetByID(ctx, interruptionID)
		if err != nil {
			return err
		}
		if found.Status != model.InterruptionStatusPendingApproval {
			return ErrConditionAlreadyDecided
		}

		locked, err := s.requests.GetByIDForUpdate(ctx, tx, found.LeaveRequestID)
		if err != nil {
			return err
		}

		if approve {
			dates, derr := found.SpecificDates()
			if derr != nil {
				return fmt.Errorf("leave: parse voluntary work days: %w", derr)
			}
			var refunded = found.DaysRefunded
			for _, d := range dates {
				startHalf := d.Equal(locked.StartDate) && locked.StartHalfDay
				endHalf := d.Equal(locked.EndDate) && locked.EndHalfDay
				day, derr := s.resolveWorkingDays(ctx, d, d, startHalf, endHalf)
				if derr != nil {
					return fmt.Errorf("leave: compute voluntary work day: %w", derr)
				}
				refunded = refunded.Add(day)
			}
			if refunded.IsPositive() && locked.BalanceDeducted && len(locked.DeductionDetails) > 0 {
				dedupe := fmt.Sprintf("%s:RESTORE:VOLUNTARY", found.ID)
				if err := s.restoreProportional(ctx, tx, locked, refunded, dedupe); err != nil {
					return err
				}
			}
			found.DaysRefunded = refunded
			found.Status = model.InterruptionStatusApproved
			locked.HasInterruptions = true
			if err := s.requests.UpdateTx(ctx, tx, locked); err != nil {
				return err
			}
		} else {
			found.Status = model.InterruptionStatusRejected
		}

		interruption = found
		req = locked
		return s.interruptions.UpdateTx(ctx, tx, found)
	}); err != nil {
		return nil, err
	}

	event := external.EventVoluntaryWorkApproved
	if !approve {
		event = external.EventVoluntaryWorkRejected
	}
	s.notify(ctx, event, req.UserID, req, map[string]any{"interruption_id": interruption.ID})
	s.logAudit(ctx, approverID, "VOLUNTARY_WORK_DECIDED", req, map[string]any{"approved": approve})
	return interruption, nil
}
