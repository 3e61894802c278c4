package leave

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cristian75IT/kronos-core/internal/corekit"
	"github.com/cristian75IT/kronos-core/internal/external"
	"github.com/cristian75IT/kronos-core/internal/ledger"
	"github.com/cristian75IT/kronos-core/internal/model"
	"github.com/cristian75IT/kronos-core/internal/policy"
	"github.com/cristian75IT/kronos-core/internal/workflow"
)

const callbackURL = "/leaves/internal/approval-callback"

// SubmitResult reports the outcome of Submit: the persisted request plus
// the policy engine's verdict, so callers can surface warnings even when
// the request moved forward.
type SubmitResult struct {
	Request *model.LeaveRequest
	Policy  policy.Result
}

// Submit runs the policy engine (§4.3) against a DRAFT request and either
// auto-approves (deducting balance immediately) or hands off to the
// Approval Workflow Engine with callback_url = /leaves/internal/approval-
// callback (spec §4.2 "submit").
func (s *Service) Submit(ctx context.Context, requestID, actorID uuid.UUID) (*SubmitResult, error) {
	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.Status != model.LeaveStatusDraft {
		return nil, ErrWrongStatus
	}
	if req.UserID != actorID {
		return nil, ErrNotOwner
	}

	leaveType, err := s.config.GetLeaveType(ctx, req.LeaveTypeID)
	if err != nil {
		return nil, fmt.Errorf("leave: load leave type: %w", err)
	}

	result, breakdown, err := s.evaluatePolicy(ctx, req, *leaveType)
	if err != nil {
		return nil, err
	}
	if !result.IsValid {
		return &SubmitResult{Request: req, Policy: result}, corekit.New(corekit.KindValidationFailure, "policy evaluation rejected the request").
			WithDetail(result.Errors)
	}

	year := req.StartDate.Year()
	if !leaveType.RequiresApproval {
		if err := s.db.WithTransaction(ctx, func(tx *gorm.DB) error {
			locked, err := s.requests.GetByIDForUpdate(ctx, tx, req.ID)
			if err != nil {
				return err
			}
			if locked.Status != model.LeaveStatusDraft {
				return ErrWrongStatus
			}
			locked.Status = model.LeaveStatusApproved
			locked.BalanceDeducted = true
			if details, derr := json.Marshal(breakdown); derr == nil {
				locked.DeductionDetails = details
			}
			for _, b := range breakdown {
				dedupe := fmt.Sprintf("%s:DEDUCT:%s", locked.ID, b.BalanceType)
				if derr := s.ledger.Deduct(ctx, tx, locked.UserID, year, b.BalanceType, b.Days, locked.ID, leaveType.AllowNegativeBalance, dedupe); derr != nil {
					return derr
				}
			}
			req = locked
			return s.requests.UpdateTx(ctx, tx, locked)
		}); err != nil {
			return nil, err
		}
		s.notify(ctx, external.EventLeaveApproved, req.UserID, req, nil)
		s.logAudit(ctx, actorID, "AUTO_APPROVED", req, map[string]any{"days_requested": req.DaysRequested.String()})
		return &SubmitResult{Request: req, Policy: result}, nil
	}

	approval, err := s.workflow.Submit(ctx, workflow.SubmitInput{
		EntityType:  "leave_request",
		EntityID:    req.ID,
		RequesterID: req.UserID,
		Title:       fmt.Sprintf("Leave request (%s)", req.LeaveTypeCode),
		CallbackURL: callbackURL,
		EntityData: workflow.EntityData{
			"leave_type": req.LeaveTypeCode,
			"days":       req.DaysRequested,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("leave: submit to workflow engine: %w", err)
	}

	if err := s.db.WithTransaction(ctx, func(tx *gorm.DB) error {
		locked, err := s.requests.GetByIDForUpdate(ctx, tx, req.ID)
		if err != nil {
			return err
		}
		if locked.Status != model.LeaveStatusDraft {
			return ErrWrongStatus
		}
		locked.Status = model.LeaveStatusPending
		locked.ApprovalRequestID = &approval.ID
		if details, derr := json.Marshal(breakdown); derr == nil {
			locked.DeductionDetails = details
		}
		req = locked
		return s.requests.UpdateTx(ctx, tx, locked)
	}); err != nil {
		return nil, err
	}

	s.logAudit(ctx, actorID, "SUBMITTED", req, nil)
	return &SubmitResult{Request: req, Policy: result}, nil
}

// evaluatePolicy assembles policy.Input from the snapshot balance and
// monthly-usage sum, and runs the engine's common checks plus the
// registered strategy for the request's leave type code.
func (s *Service) evaluatePolicy(ctx context.Context, req *model.LeaveRequest, leaveType external.LeaveTypeConfig) (policy.Result, []ledger.BucketAmount, error) {
	year := req.StartDate.Year()
	bal, err := s.balances.GetSnapshot(ctx, req.UserID, year)
	if err != nil {
		return policy.Result{}, nil, fmt.Errorf("leave: load balance snapshot: %w", err)
	}

	monthlyUsed, err := s.requests.SumDaysRequestedInMonth(ctx, req.UserID, req.LeaveTypeCode, req.StartDate.Year(), req.StartDate.Month(), &req.ID)
	if err != nil {
		return policy.Result{}, nil, fmt.Errorf("leave: sum monthly usage: %w", err)
	}

	overlapping, err := s.requests.ListOverlappingNonTerminal(ctx, req.UserID, req.StartDate, req.EndDate, &req.ID)
	if err != nil {
		return policy.Result{}, nil, fmt.Errorf("leave: re-check overlap: %w", err)
	}

	in := policy.Input{
		Request:         req,
		LeaveType:       leaveType,
		WorkingDays:     req.DaysRequested,
		Today:           time.Now().UTC(),
		AvailableAP:     bal.Available(model.BalanceTypeVacationAP),
		AvailableAC:     bal.Available(model.BalanceTypeVacationAC),
		AvailableROL:    bal.Available(model.BalanceTypeROL),
		AvailablePerm:   bal.Available(model.BalanceTypePermits),
		MonthlyUsedDays: monthlyUsed,
	}
	common := policy.CommonCheckInput{
		Overlaps:         len(overlapping) > 0,
		ProtocolNumber:   req.ProtocolNumber,
		RequiresProtocol: leaveType.RequiresProtocol,
	}
	result, err := s.policy.Evaluate(ctx, in, common)
	if err != nil {
		return policy.Result{}, nil, err
	}
	breakdown := result.BalanceBreakdown
	return result, breakdown, nil
}
