package leave

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cristian75IT/kronos-core/internal/model"
)

// RecalculateForClosureResult summarizes one run of recalculate_for_closure
// (spec §4.6), triggered by the config service whenever a company closure is
// inserted, updated, or deleted.
type RecalculateForClosureResult struct {
	Scanned      int
	Recalculated int
}

// RecalculateForClosure re-derives days_requested for every APPROVED/
// APPROVED_CONDITIONAL request overlapping [from,to] and posts the signed
// delta through the ledger, the same way ModifyApproved does for a single
// user-initiated edit. The recount is resolveWorkingDays, the computation
// Create uses (weekly schedule, holidays, working-day exceptions); it does
// not load closures or subtract closure days from the count, so a request
// changes only when those other calendar inputs have changed since it was
// approved. limit bounds how many overlapping requests a single
// call inspects (spec §5 "chunks of ≤100 items"); a request whose recomputed
// day count already matches its stored one is left untouched, which makes a
// repeated call against the same closure window a no-op.
func (s *Service) RecalculateForClosure(ctx context.Context, from, to time.Time, limit int) (RecalculateForClosureResult, error) {
	var result RecalculateForClosureResult

	candidates, err := s.requests.ListApprovedOverlappingClosure(ctx, from, to, limit)
	if err != nil {
		return result, fmt.Errorf("leave: list requests for closure recalculation: %w", err)
	}
	result.Scanned = len(candidates)

	for i := range candidates {
		changed, err := s.recalculateOneForClosure(ctx, candidates[i].ID)
		if err != nil {
			return result, fmt.Errorf("leave: recalculate request %s for closure: %w", candidates[i].ID, err)
		}
		if changed {
			result.Recalculated++
		}
	}
	return result, nil
}

// recalculateOneForClosure locks a single request, recomputes its working-
// day count with resolveWorkingDays (closure days are not subtracted), and
// posts the delta across buckets the same way ModifyApproved does.
func (s *Service) recalculateOneForClosure(ctx context.Context, requestID uuid.UUID) (bool, error) {
	changed := false

	err := s.db.WithTransaction(ctx, func(tx *gorm.DB) error {
		locked, err := s.requests.GetByIDForUpdate(ctx, tx, requestID)
		if err != nil {
			return err
		}
		if locked.Status != model.LeaveStatusApproved && locked.Status != model.LeaveStatusApprovedConditional {
			return nil
		}

		newDays, err := s.resolveWorkingDays(ctx, locked.StartDate, locked.EndDate, locked.StartHalfDay, locked.EndHalfDay)
		if err != nil {
			return fmt.Errorf("recompute days: %w", err)
		}
		delta := newDays.Sub(locked.DaysRequested)
		if delta.IsZero() {
			return nil
		}

		if locked.BalanceDeducted && len(locked.DeductionDetails) > 0 {
			dedupe := fmt.Sprintf("%s:CLOSURE:%d", locked.ID, time.Now().UTC().UnixNano())
			if err := adjustBreakdownProportional(ctx, s.ledger, tx, locked.UserID, locked.StartDate.Year(), locked.DeductionDetails, delta, locked.ID, dedupe); err != nil {
				return err
			}
		}

		locked.DaysRequested = newDays
		changed = true
		return s.requests.UpdateTx(ctx, tx, locked)
	})
	return changed, err
}
