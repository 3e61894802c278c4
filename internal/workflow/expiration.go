package workflow

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/cristian75IT/kronos-core/internal/external"
	"github.com/cristian75IT/kronos-core/internal/model"
)

// RunExpirationSweep implements check_expirations (spec §4.1 "Expiration &
// escalation", §4.6): loads PENDING requests past their expires_at, up to
// limit rows, and applies each workflow's expiration_action exactly once
// (expired_action_taken guards at-most-once semantics).
func (s *Service) RunExpirationSweep(ctx context.Context, limit int) (int, error) {
	expiring, err := s.requests.ListExpiring(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("list expiring requests: %w", err)
	}

	processed := 0
	for i := range expiring {
		if err := s.expireOne(ctx, &expiring[i]); err != nil {
			return processed, fmt.Errorf("expire request %s: %w", expiring[i].ID, err)
		}
		processed++
	}
	return processed, nil
}

func (s *Service) expireOne(ctx context.Context, req *model.ApprovalRequest) error {
	cfg, err := s.workflows.GetByID(ctx, req.WorkflowConfigID)
	if err != nil {
		return fmt.Errorf("load workflow config: %w", err)
	}

	var resolved bool
	err = s.db.WithTransaction(ctx, func(tx *gorm.DB) error {
		locked, err := s.requests.GetByIDForUpdate(ctx, tx, req.ID)
		if err != nil {
			return err
		}
		if locked.Status != model.ApprovalStatusPending || locked.ExpiredActionTaken {
			return nil
		}

		now := time.Now().UTC()
		switch cfg.ExpirationAction {
		case model.ExpirationActionReject:
			locked.Status = model.ApprovalStatusRejected
			locked.ResolutionNotes = "auto-expired"
			locked.ResolvedAt = &now
			resolved = true

		case model.ExpirationActionAutoApprove:
			locked.Status = model.ApprovalStatusApproved
			locked.ResolutionNotes = "auto-expired, auto-approved"
			locked.ResolvedAt = &now
			resolved = true

		case model.ExpirationActionEscalate:
			locked.Status = model.ApprovalStatusEscalated
			if cfg.EscalationRoleID != nil {
				escalated, err := s.directory.GetUsers(ctx, external.UserFilter{Role: cfg.EscalationRoleID})
				if err != nil {
					return fmt.Errorf("resolve escalation role: %w", err)
				}
				if len(escalated) > 0 {
					escalatedIDs := userIDs(escalated)
					decisions := buildDecisionRows(locked, model.ApprovalModeAny, escalatedIDs)
					if err := s.decisions.CreateMany(ctx, tx, decisions); err != nil {
						return fmt.Errorf("assign escalation approvers: %w", err)
					}
					locked.RequiredApprovals = RequiredApprovals(model.ApprovalModeAny, len(escalated))
					locked.MaxLevel = len(escalated)
					locked.CurrentLevel = 1
					locked.Status = model.ApprovalStatusPending
					if cfg.ExpirationHours > 0 {
						expiresAt := now.Add(time.Duration(cfg.ExpirationHours) * time.Hour)
						locked.ExpiresAt = &expiresAt
					}
					reminders := buildReminders(locked.ID, cfg, escalatedIDs, locked.ExpiresAt, now)
					if err := s.reminders.CreateManyTx(ctx, tx, reminders); err != nil {
						return fmt.Errorf("schedule escalation reminders: %w", err)
					}
				}
			}

		case model.ExpirationActionNotifyOnly:
			// remains PENDING; reminder emitted below, expired_action_taken
			// still flips so the sweep does not re-notify every tick.
			pending, err := s.decisions.ListByRequestTx(ctx, tx, locked.ID)
			if err != nil {
				return fmt.Errorf("list approvers for notify-only expiry: %w", err)
			}
			for _, d := range pending {
				if d.Decision == nil {
					if err := s.notifier.Notify(ctx, external.Event{
						Type:        external.EventApprovalReminder,
						RecipientID: d.ApproverID,
						EntityType:  locked.EntityType,
						EntityID:    locked.EntityID,
						Data:        map[string]any{"request_id": locked.ID, "reason": "expired_notify_only"},
					}); err != nil {
						_ = err // swallowed per spec §7
					}
				}
			}
		}

		locked.ExpiredActionTaken = true
		if resolved {
			if err := s.reminders.CancelUnsentByRequestTx(ctx, tx, locked.ID); err != nil {
				return fmt.Errorf("cancel reminders: %w", err)
			}
		}
		if err := s.history.AppendTx(ctx, tx, &model.ApprovalHistory{
			RequestID: locked.ID,
			Action:    "EXPIRED_" + string(cfg.ExpirationAction),
			ActorType: model.ActorTypeScheduler,
		}); err != nil {
			return fmt.Errorf("log expiration: %w", err)
		}

		*req = *locked
		return s.requests.UpdateTx(ctx, tx, locked)
	})
	if err != nil {
		return err
	}

	if resolved {
		decisions, derr := s.decisions.ListByRequest(ctx, req.ID)
		if derr != nil {
			decisions = nil
		}
		s.callback.Post(ctx, req.CallbackURL, buildCallbackPayload(req, decisions))
	}
	return nil
}
