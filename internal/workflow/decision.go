package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cristian75IT/kronos-core/internal/external"
	"github.com/cristian75IT/kronos-core/internal/model"
	"github.com/cristian75IT/kronos-core/internal/repository"
)

// DecisionInput is the (request_id, approver_id, decision_type) triple
// driving ProcessDecision (spec §4.1 "Decision processing").
type DecisionInput struct {
	RequestID     uuid.UUID
	ApproverID    uuid.UUID
	ActorID       uuid.UUID
	Decision      model.DecisionType
	Notes         string
	DelegateToID  *uuid.UUID
	AdminOverride bool
}

// ProcessDecision writes one approver's decision, recomputes the tally
// under the request's workflow mode, resolves the request if the mode's
// rule is satisfied, and — only after the transaction commits — fires the
// resolution callback (spec §5: callbacks run post-commit).
func (s *Service) ProcessDecision(ctx context.Context, in DecisionInput) (*model.ApprovalRequest, error) {
	if in.Decision == model.DecisionDelegated && in.DelegateToID == nil {
		return nil, ErrDelegateRequired
	}

	var (
		req         *model.ApprovalRequest
		resolvedNow bool
	)

	err := s.db.WithTransaction(ctx, func(tx *gorm.DB) error {
		var err error
		req, err = s.requests.GetByIDForUpdate(ctx, tx, in.RequestID)
		if err != nil {
			return err
		}
		if req.Status != model.ApprovalStatusPending {
			return ErrNotPending
		}

		cfg, err := s.workflows.GetByID(ctx, req.WorkflowConfigID)
		if err != nil {
			return fmt.Errorf("load workflow config: %w", err)
		}

		row, overrode, err := s.findDecisionRow(ctx, tx, req, cfg.ApprovalMode, in)
		if err != nil {
			return err
		}
		if row.Decision != nil {
			return ErrAlreadyDecided
		}
		if cfg.ApprovalMode == model.ApprovalModeSequential && row.ApprovalLevel != req.CurrentLevel {
			return ErrNotYourTurn
		}
		if overrode {
			if err := s.history.AppendTx(ctx, tx, &model.ApprovalHistory{
				RequestID: req.ID,
				Action:    "ADMIN_OVERRIDE_DECISION",
				ActorID:   &in.ActorID,
				ActorType: model.ActorTypeUser,
			}); err != nil {
				return fmt.Errorf("log admin override: %w", err)
			}
		}

		now := time.Now().UTC()
		decision := in.Decision
		row.Decision = &decision
		row.Notes = in.Notes
		row.DecidedAt = &now
		if decision == model.DecisionDelegated {
			row.DelegatedToID = in.DelegateToID
		}
		if err := s.decisions.UpdateTx(ctx, tx, row); err != nil {
			return fmt.Errorf("write decision: %w", err)
		}

		if decision == model.DecisionDelegated {
			delegateRow := model.ApprovalDecision{
				RequestID:     req.ID,
				ApproverID:    *in.DelegateToID,
				ApprovalLevel: row.ApprovalLevel,
				AssignedAt:    now,
			}
			if err := s.decisions.CreateMany(ctx, tx, []model.ApprovalDecision{delegateRow}); err != nil {
				return fmt.Errorf("assign delegate: %w", err)
			}
			if err := s.notifier.Notify(ctx, external.Event{
				Type:        external.EventApprovalRequest,
				RecipientID: *in.DelegateToID,
				EntityType:  req.EntityType,
				EntityID:    req.EntityID,
				Data:        map[string]any{"request_id": req.ID, "title": req.Title, "reason": "delegated"},
			}); err != nil {
				_ = err // swallowed per spec §7
			}
			return s.history.AppendTx(ctx, tx, &model.ApprovalHistory{
				RequestID: req.ID,
				Action:    "DELEGATED",
				ActorID:   &in.ApproverID,
				ActorType: model.ActorTypeUser,
			})
		}

		switch decision {
		case model.DecisionApproved, model.DecisionApprovedConditional:
			req.ReceivedApprovals++
		case model.DecisionRejected:
			req.ReceivedRejections++
		}

		allDecisions, err := s.decisions.ListByRequestTx(ctx, tx, req.ID)
		if err != nil {
			return fmt.Errorf("list decisions for tally: %w", err)
		}
		anyConditional := false
		levelCleared := true
		for _, d := range allDecisions {
			if d.Decision != nil && *d.Decision == model.DecisionApprovedConditional {
				anyConditional = true
			}
			if cfg.ApprovalMode == model.ApprovalModeSequential && d.ApprovalLevel == req.CurrentLevel && d.Decision == nil {
				levelCleared = false
			}
		}

		outcome := applyTally(cfg.ApprovalMode, req, anyConditional, levelCleared)
		if outcome.advance {
			req.CurrentLevel++
		}
		if outcome.resolved {
			req.Status = outcome.status
			req.ResolvedAt = &now
			req.FinalDeciderID = &in.ApproverID
			resolvedNow = true
			if err := s.reminders.CancelUnsentByRequestTx(ctx, tx, req.ID); err != nil {
				return fmt.Errorf("cancel reminders: %w", err)
			}
			if err := s.history.AppendTx(ctx, tx, &model.ApprovalHistory{
				RequestID: req.ID,
				Action:    "RESOLVED_" + string(outcome.status),
				ActorID:   &in.ApproverID,
				ActorType: model.ActorTypeUser,
			}); err != nil {
				return fmt.Errorf("log resolution: %w", err)
			}
		} else {
			if err := s.history.AppendTx(ctx, tx, &model.ApprovalHistory{
				RequestID: req.ID,
				Action:    "DECISION_" + string(decision),
				ActorID:   &in.ApproverID,
				ActorType: model.ActorTypeUser,
			}); err != nil {
				return fmt.Errorf("log decision: %w", err)
			}
		}

		return s.requests.UpdateTx(ctx, tx, req)
	})
	if err != nil {
		return nil, err
	}

	if resolvedNow {
		decisions, derr := s.decisions.ListByRequest(ctx, req.ID)
		if derr != nil {
			decisions = nil
		}
		s.callback.Post(ctx, req.CallbackURL, buildCallbackPayload(req, decisions))
	}

	return req, nil
}

// findDecisionRow locates the decision row for in.ApproverID, or — with
// AdminOverride set and no row for that approver — the first unresolved
// row at the current sequential level (or the first unresolved row in any
// other mode), per spec §4.1 step 1.
func (s *Service) findDecisionRow(ctx context.Context, tx *gorm.DB, req *model.ApprovalRequest, mode model.ApprovalMode, in DecisionInput) (*model.ApprovalDecision, bool, error) {
	row, err := s.decisions.GetByRequestAndApprover(ctx, tx, req.ID, in.ApproverID)
	if err == nil {
		return row, false, nil
	}
	if !errors.Is(err, repository.ErrApprovalDecisionNotFound) {
		return nil, false, fmt.Errorf("lookup decision row: %w", err)
	}
	if !in.AdminOverride {
		return nil, false, err
	}

	all, err := s.decisions.ListByRequestTx(ctx, tx, req.ID)
	if err != nil {
		return nil, false, fmt.Errorf("list decisions for override: %w", err)
	}
	for i := range all {
		candidate := &all[i]
		if candidate.Decision != nil {
			continue
		}
		if mode == model.ApprovalModeSequential && candidate.ApprovalLevel != req.CurrentLevel {
			continue
		}
		return candidate, true, nil
	}
	return nil, false, ErrNoPendingDecision
}
