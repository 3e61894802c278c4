package leave

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/gorm"

	"github.com/cristian75IT/kronos-core/internal/external"
	"github.com/cristian75IT/kronos-core/internal/ledger"
	"github.com/cristian75IT/kronos-core/internal/model"
	"github.com/cristian75IT/kronos-core/internal/workflow"
)

// HandleApprovalCallback applies the Approval Workflow Engine's resolution
// to the leave request it was raised for (spec §4.2 "approve / reject /
// conditional-approve ... only via callback from the workflow engine").
// The transport wrapping this library is responsible for receiving the
// POST to /leaves/internal/approval-callback and decoding it into payload.
func (s *Service) HandleApprovalCallback(ctx context.Context, payload workflow.CallbackPayload) (*model.LeaveRequest, error) {
	if payload.EntityType != "leave_request" {
		return nil, fmt.Errorf("leave: callback for unexpected entity type %q", payload.EntityType)
	}

	var (
		req       *model.LeaveRequest
		notifyVia external.EventType
	)

	if err := s.db.WithTransaction(ctx, func(tx *gorm.DB) error {
		locked, err := s.requests.GetByIDForUpdate(ctx, tx, payload.EntityID)
		if err != nil {
			return err
		}
		if locked.Status != model.LeaveStatusPending {
			return ErrWrongStatus
		}

		leaveType, err := s.config.GetLeaveTypeByCode(ctx, locked.LeaveTypeCode)
		if err != nil {
			return fmt.Errorf("leave: load leave type: %w", err)
		}

		switch payload.Status {
		case model.ApprovalStatusApproved:
			locked.Status = model.LeaveStatusApproved
			if err := deductBreakdown(ctx, s.ledger, tx, locked, leaveType.AllowNegativeBalance); err != nil {
				return err
			}
			notifyVia = external.EventLeaveApproved

		case model.ApprovalStatusApprovedConditional:
			locked.Status = model.LeaveStatusApprovedConditional
			locked.ConditionType = payload.ConditionType
			if len(payload.ConditionDetails) > 0 {
				locked.ConditionDetails = []byte(payload.ConditionDetails)
			}
			notifyVia = external.EventLeaveApproved

		case model.ApprovalStatusRejected:
			locked.Status = model.LeaveStatusRejected
			notifyVia = external.EventLeaveRejected

		default:
			return fmt.Errorf("leave: unexpected callback status %q", payload.Status)
		}

		req = locked
		return s.requests.UpdateTx(ctx, tx, locked)
	}); err != nil {
		return nil, err
	}

	s.notify(ctx, notifyVia, req.UserID, req, nil)
	s.logAudit(ctx, req.UserID, "APPROVAL_CALLBACK_"+string(payload.Status), req, nil)
	return req, nil
}

// deductBreakdown replays the deduction breakdown computed at submit time
// (stored in DeductionDetails) now that the workflow engine has approved
// the request, inside the caller's transaction.
func deductBreakdown(ctx context.Context, svc *ledger.Service, tx *gorm.DB, req *model.LeaveRequest, allowNegative bool) error {
	if req.BalanceDeducted || len(req.DeductionDetails) == 0 {
		return nil
	}
	var breakdown []ledger.BucketAmount
	if err := json.Unmarshal(req.DeductionDetails, &breakdown); err != nil {
		return fmt.Errorf("leave: decode deduction breakdown: %w", err)
	}
	year := req.StartDate.Year()
	for _, b := range breakdown {
		dedupe := fmt.Sprintf("%s:DEDUCT:%s", req.ID, b.BalanceType)
		if err := svc.Deduct(ctx, tx, req.UserID, year, b.BalanceType, b.Days, req.ID, allowNegative, dedupe); err != nil {
			return err
		}
	}
	req.BalanceDeducted = true
	return nil
}
