package leave

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/cristian75IT/kronos-core/internal/external"
	"github.com/cristian75IT/kronos-core/internal/ledger"
	"github.com/cristian75IT/kronos-core/internal/model"
)

// FullRecallInput carries the data a full recall needs (spec §4.2 "Full
// recall").
type FullRecallInput struct {
	RequestID  uuid.UUID
	ActorID    uuid.UUID
	RecallDate time.Time
	Reason     string
}

// FullRecall ends an APPROVED/APPROVED_CONDITIONAL request early: it
// computes days_used up to the day before recall_date, restores the
// remainder, and moves the request to RECALLED (spec §4.2 "Full recall").
func (s *Service) FullRecall(ctx context.Context, in FullRecallInput) (*model.LeaveRequest, error) {
	var req *model.LeaveRequest
	var daysUsed, daysToRestore decimal.Decimal

	if err := s.db.WithTransaction(ctx, func(tx *gorm.DB) error {
		locked, err := s.requests.GetByIDForUpdate(ctx, tx, in.RequestID)
		if err != nil {
			return err
		}
		if locked.Status != model.LeaveStatusApproved && locked.Status != model.LeaveStatusApprovedConditional {
			return ErrWrongStatus
		}
		recallDate := dateOnly(in.RecallDate)
		today := dateOnly(time.Now().UTC())
		if recallDate.Before(locked.StartDate) || recallDate.After(locked.EndDate) || recallDate.Before(today) {
			return ErrRecallWindow
		}

		cutoff := recallDate.AddDate(0, 0, -1)
		if cutoff.Before(locked.StartDate) {
			daysUsed = decimal.Zero
		} else {
			daysUsed, err = s.resolveWorkingDays(ctx, locked.StartDate, cutoff, locked.StartHalfDay, false)
			if err != nil {
				return fmt.Errorf("leave: compute days used before recall: %w", err)
			}
		}
		if daysUsed.IsNegative() {
			daysUsed = decimal.Zero
		}
		daysToRestore = locked.DaysRequested.Sub(daysUsed)
		if daysToRestore.IsNegative() {
			daysToRestore = decimal.Zero
		}

		if daysToRestore.IsPositive() && len(locked.DeductionDetails) > 0 && locked.BalanceDeducted {
			dedupe := fmt.Sprintf("%s:RESTORE:RECALL", locked.ID)
			if derr := s.restoreProportional(ctx, tx, locked, daysToRestore, dedupe); derr != nil {
				return derr
			}
		}

		now := time.Now().UTC()
		locked.Status = model.LeaveStatusRecalled
		locked.RecalledAt = &now
		locked.RecallDate = &recallDate
		reason := in.Reason
		locked.RecallReason = &reason
		locked.DaysUsedBeforeRecall = daysUsed
		req = locked
		return s.requests.UpdateTx(ctx, tx, locked)
	}); err != nil {
		return nil, err
	}

	s.notify(ctx, external.EventLeaveRecalled, req.UserID, req, map[string]any{
		"days_used":       daysUsed.String(),
		"days_to_restore": daysToRestore.String(),
	})
	s.logAudit(ctx, in.ActorID, "RECALLED", req, map[string]any{
		"days_used":       daysUsed.String(),
		"days_to_restore": daysToRestore.String(),
	})
	return req, nil
}

// PartialRecallInput carries the data a partial recall needs (spec §4.2
// "Partial recall").
type PartialRecallInput struct {
	RequestID   uuid.UUID
	ActorID     uuid.UUID
	RecallDays  []time.Time
	Protocol    *string
}

// PartialRecall refunds working days recalled out of an otherwise-intact
// approved request, recording a PARTIAL_RECALL interruption without
// rewriting the parent's date range or days_requested (spec §4.2 "Partial
// recall").
func (s *Service) PartialRecall(ctx context.Context, in PartialRecallInput) (*model.LeaveInterruption, error) {
	if len(in.RecallDays) == 0 {
		return nil, ErrRecallWindow
	}

	var interruption *model.LeaveInterruption
	var refunded decimal.Decimal

	if err := s.db.WithTransaction(ctx, func(tx *gorm.DB) error {
		locked, err := s.requests.GetByIDForUpdate(ctx, tx, in.RequestID)
		if err != nil {
			return err
		}
		if locked.Status != model.LeaveStatusApproved && locked.Status != model.LeaveStatusApprovedConditional {
			return ErrWrongStatus
		}

		specificDays := make([]string, 0, len(in.RecallDays))
		for _, d := range in.RecallDays {
			day := dateOnly(d)
			if day.Before(locked.StartDate) || day.After(locked.EndDate) {
				return ErrRecallWindow
			}
			specificDays = append(specificDays, day.Format("2006-01-02"))

			startHalf := day.Equal(locked.StartDate) && locked.StartHalfDay
			endHalf := day.Equal(locked.EndDate) && locked.EndHalfDay
			dayDays, derr := s.resolveWorkingDays(ctx, day, day, startHalf, endHalf)
			if derr != nil {
				return fmt.Errorf("leave: compute recalled day: %w", derr)
			}
			refunded = refunded.Add(dayDays)
		}

		if refunded.IsPositive() && locked.BalanceDeducted && len(locked.DeductionDetails) > 0 {
			dedupe := fmt.Sprintf("%s:RESTORE:PARTIAL:%s", locked.ID, specificDays[0])
			if derr := s.restoreProportional(ctx, tx, locked, refunded, dedupe); derr != nil {
				return derr
			}
		}

		interruption = &model.LeaveInterruption{
			LeaveRequestID:  locked.ID,
			InterruptionType: model.InterruptionPartialRecall,
			StartDate:       in.RecallDays[0],
			EndDate:         in.RecallDays[len(in.RecallDays)-1],
			SpecificDays:    specificDays,
			DaysRefunded:    refunded,
			ProtocolNumber:  in.Protocol,
			InitiatedByID:   in.ActorID,
			Status:          model.InterruptionStatusActive,
		}
		if err := s.interruptions.CreateTx(ctx, tx, interruption); err != nil {
			return fmt.Errorf("leave: create interruption: %w", err)
		}

		locked.HasInterruptions = true
		return s.requests.UpdateTx(ctx, tx, locked)
	}); err != nil {
		return nil, err
	}

	s.logAudit(ctx, in.ActorID, "PARTIAL_RECALL", &model.LeaveRequest{BaseModel: model.BaseModel{ID: in.RequestID}}, map[string]any{
		"days_refunded": refunded.String(),
	})
	return interruption, nil
}

// restoreProportional restores days out of the request's stored deduction
// breakdown, split across buckets in reverse deduction order (spec §4.5:
// "AP is restored after AC").
func (s *Service) restoreProportional(ctx context.Context, tx *gorm.DB, req *model.LeaveRequest, days decimal.Decimal, dedupeKeyPrefix string) error {
	return adjustBreakdownProportional(ctx, s.ledger, tx, req.UserID, req.StartDate.Year(), req.DeductionDetails, days.Neg(), req.ID, dedupeKeyPrefix)
}

// adjustBreakdownProportional splits a signed day delta across the buckets
// recorded in a request's deduction breakdown, proportional to each
// bucket's share of the original deduction (the last bucket in breakdown
// order absorbs any rounding remainder so the split always sums exactly to
// delta). A negative delta (a restore — full recall, partial recall,
// sickness, voluntary work, or a closure that shrank the request) posts
// through RestoreBucketsDescending, so AP is restored only after AC (spec
// §4.5: "issues one entry per bucket affected, in the reverse order of the
// original deduction"). A positive delta (modify-approved or a closure
// growing the request) posts additional ADJUST entries in the breakdown's
// original order, mirroring how the original deduction was allocated.
func adjustBreakdownProportional(ctx context.Context, svc *ledger.Service, tx *gorm.DB, userID uuid.UUID, year int, raw []byte, delta decimal.Decimal, leaveRequestID uuid.UUID, dedupeKeyPrefix string) error {
	if delta.IsZero() || len(raw) == 0 {
		return nil
	}
	var breakdown []ledger.BucketAmount
	if err := json.Unmarshal(raw, &breakdown); err != nil {
		return fmt.Errorf("leave: decode deduction breakdown: %w", err)
	}
	total := decimal.Zero
	for _, b := range breakdown {
		total = total.Add(b.Days)
	}
	if total.IsZero() || len(breakdown) == 0 {
		return nil
	}

	magnitude := delta.Abs()
	scaled := make([]ledger.BucketAmount, len(breakdown))
	allocated := decimal.Zero
	for i, b := range breakdown {
		var amt decimal.Decimal
		if i == len(breakdown)-1 {
			amt = magnitude.Sub(allocated)
		} else {
			amt = magnitude.Mul(b.Days).Div(total).Round(2)
			allocated = allocated.Add(amt)
		}
		scaled[i] = ledger.BucketAmount{BalanceType: b.BalanceType, Days: amt}
	}

	if delta.IsNegative() {
		return svc.RestoreBucketsDescending(ctx, tx, userID, year, scaled, leaveRequestID, dedupeKeyPrefix)
	}
	for _, b := range scaled {
		if b.Days.IsZero() {
			continue
		}
		dedupe := dedupeKeyPrefix
		if dedupe != "" {
			dedupe = fmt.Sprintf("%s:%s", dedupe, b.BalanceType)
		}
		if err := svc.Adjust(ctx, tx, userID, year, b.BalanceType, b.Days.Neg(), leaveRequestID, dedupe); err != nil {
			return err
		}
	}
	return nil
}
