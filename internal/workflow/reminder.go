package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/cristian75IT/kronos-core/internal/external"
	"github.com/cristian75IT/kronos-core/internal/model"
)

const finalReminderHoursBefore = 2

// buildReminders schedules a FIRST reminder at the furthest configured
// reminder_hours_before offset and a FINAL reminder 2h before expiry, for
// every approver, skipping any that would fall in the past (spec §4.1
// "Reminders"). Returns nil if the workflow has reminders disabled, has no
// expiry, or no approvers.
func buildReminders(requestID uuid.UUID, cfg *model.WorkflowConfig, approvers []uuid.UUID, expiresAt *time.Time, now time.Time) []model.ApprovalReminder {
	if !cfg.SendReminders || expiresAt == nil || len(approvers) == 0 {
		return nil
	}

	firstOffset := 0
	for _, h := range cfg.ReminderHoursBefore {
		if int(h) > firstOffset {
			firstOffset = int(h)
		}
	}

	var reminders []model.ApprovalReminder
	for _, approverID := range approvers {
		if firstOffset > 0 {
			if scheduledAt := expiresAt.Add(-time.Duration(firstOffset) * time.Hour); scheduledAt.After(now) {
				reminders = append(reminders, model.ApprovalReminder{
					RequestID:    requestID,
					ApproverID:   approverID,
					ReminderType: model.ReminderTypeFirst,
					ScheduledAt:  scheduledAt,
				})
			}
		}
		if scheduledAt := expiresAt.Add(-finalReminderHoursBefore * time.Hour); scheduledAt.After(now) {
			reminders = append(reminders, model.ApprovalReminder{
				RequestID:    requestID,
				ApproverID:   approverID,
				ReminderType: model.ReminderTypeFinal,
				ScheduledAt:  scheduledAt,
			})
		}
	}
	return reminders
}

// reminderRequestRepo is the narrow slice of ApprovalRequestRepository the
// reminder dispatcher needs to re-check a request is still PENDING.
type reminderRequestRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.ApprovalRequest, error)
}

type reminderRepo interface {
	ListDueUnsent(ctx context.Context, limit int) ([]model.ApprovalReminder, error)
	MarkSent(ctx context.Context, id uuid.UUID) error
}

// DispatchReminders implements send_reminders (spec §4.6): loads due
// reminders up to limit, notifies each approver only if the request is
// still PENDING, and flips the row to sent either way so a stale or
// already-resolved reminder is never retried indefinitely.
func DispatchReminders(ctx context.Context, reminders reminderRepo, requests reminderRequestRepo, notifier external.Notifier, limit int) (int, error) {
	due, err := reminders.ListDueUnsent(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("list due reminders: %w", err)
	}

	dispatched := 0
	for _, reminder := range due {
		req, err := requests.GetByID(ctx, reminder.RequestID)
		if err == nil && req.Status == model.ApprovalStatusPending {
			event := external.Event{
				Type:        external.EventApprovalReminder,
				RecipientID: reminder.ApproverID,
				EntityType:  req.EntityType,
				EntityID:    req.EntityID,
				Data: map[string]any{
					"request_id":    req.ID,
					"reminder_type": reminder.ReminderType,
				},
			}
			if err := notifier.Notify(ctx, event); err != nil {
				// Swallowed per spec §7: notification failures are logged, not fatal.
				log.Warn().Err(err).Str("reminder_id", reminder.ID.String()).Msg("reminder notification failed")
			} else {
				dispatched++
			}
		}
		if err := reminders.MarkSent(ctx, reminder.ID); err != nil {
			return dispatched, fmt.Errorf("mark reminder sent: %w", err)
		}
	}
	return dispatched, nil
}
