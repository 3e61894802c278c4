package leave

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cristian75IT/kronos-core/internal/model"
)

// SicknessInput carries the sick window reported inside an approved
// vacation (spec §4.2 "Sickness during vacation").
type SicknessInput struct {
	RequestID uuid.UUID
	ActorID   uuid.UUID
	StartDate time.Time
	EndDate   time.Time
	Protocol  *string
}

// ReportSickness implements Art. 6 D.Lgs 66/2003: sick days inside an
// approved vacation do not count against it. The sick window is refunded
// and recorded as a SICKNESS interruption, which may stack with
// PARTIAL_RECALL but not with another SICKNESS over the same day (spec
// §4.2).
func (s *Service) ReportSickness(ctx context.Context, in SicknessInput) (*model.LeaveInterruption, error) {
	if in.EndDate.Before(in.StartDate) {
		return nil, ErrRecallWindow
	}

	var interruption *model.LeaveInterruption

	if err := s.db.WithTransaction(ctx, func(tx *gorm.DB) error {
		locked, err := s.requests.GetByIDForUpdate(ctx, tx, in.RequestID)
		if err != nil {
			return err
		}
		if locked.Status != model.LeaveStatusApproved && locked.Status != model.LeaveStatusApprovedConditional {
			return ErrWrongStatus
		}
		start, end := dateOnly(in.StartDate), dateOnly(in.EndDate)
		if start.Before(locked.StartDate) || end.After(locked.EndDate) {
			return ErrRecallWindow
		}

		existing, err := s.interruptions.ListByLeaveRequest(ctx, locked.ID)
		if err != nil {
			return fmt.Errorf("leave: list interruptions: %w", err)
		}
		for _, e := range existing {
			if e.InterruptionType != model.InterruptionSickness || e.Status != model.InterruptionStatusActive {
				continue
			}
			if !e.EndDate.Before(start) && !e.StartDate.After(end) {
				return ErrInterruptionOverlap
			}
		}

		startHalf := start.Equal(locked.StartDate) && locked.StartHalfDay
		endHalf := end.Equal(locked.EndDate) && locked.EndHalfDay
		refunded, err := s.resolveWorkingDays(ctx, start, end, startHalf, endHalf)
		if err != nil {
			return fmt.Errorf("leave: compute sick window: %w", err)
		}

		if refunded.IsPositive() && locked.BalanceDeducted && len(locked.DeductionDetails) > 0 {
			dedupe := fmt.Sprintf("%s:RESTORE:SICKNESS:%s", locked.ID, start.Format("2006-01-02"))
			if err := s.restoreProportional(ctx, tx, locked, refunded, dedupe); err != nil {
				return err
			}
		}

		interruption = &model.LeaveInterruption{
			LeaveRequestID:   locked.ID,
			InterruptionType: model.InterruptionSickness,
			StartDate:        start,
			EndDate:          end,
			DaysRefunded:     refunded,
			ProtocolNumber:   in.Protocol,
			InitiatedByID:    in.ActorID,
			Status:           model.InterruptionStatusActive,
		}
		if err := s.interruptions.CreateTx(ctx, tx, interruption); err != nil {
			return fmt.Errorf("leave: create sickness interruption: %w", err)
		}

		locked.HasInterruptions = true
		return s.requests.UpdateTx(ctx, tx, locked)
	}); err != nil {
		return nil, err
	}

	s.logAudit(ctx, in.ActorID, "SICKNESS_REPORTED", &model.LeaveRequest{BaseModel: model.BaseModel{ID: in.RequestID}}, map[string]any{
		"days_refunded": interruption.DaysRefunded.String(),
	})
	return interruption, nil
}
