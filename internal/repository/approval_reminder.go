package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cristian75IT/kronos-core/internal/model"
)

// ApprovalReminderRepository handles the pre-scheduled reminder table
// consumed by send_reminders (spec §4.6).
type ApprovalReminderRepository struct {
	db *DB
}

func NewApprovalReminderRepository(db *DB) *ApprovalReminderRepository {
	return &ApprovalReminderRepository{db: db}
}

func (r *ApprovalReminderRepository) CreateManyTx(ctx context.Context, tx *gorm.DB, reminders []model.ApprovalReminder) error {
	if len(reminders) == 0 {
		return nil
	}
	return tx.WithContext(ctx).Create(&reminders).Error
}

// ListDueUnsent returns unsent reminders whose ScheduledAt has passed, up to
// limit rows, chunked per spec §4.6's "no more than 100 per tick" guidance.
func (r *ApprovalReminderRepository) ListDueUnsent(ctx context.Context, limit int) ([]model.ApprovalReminder, error) {
	var reminders []model.ApprovalReminder
	err := r.db.GORM.WithContext(ctx).
		Where("sent = ? AND scheduled_at <= now()", false).
		Order("scheduled_at ASC").
		Limit(limit).
		Find(&reminders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list due reminders: %w", err)
	}
	return reminders, nil
}

// MarkSent flips Sent, guarded so a reminder already marked sent is a no-op
// (spec §5 idempotency: a retried tick must not double-notify).
func (r *ApprovalReminderRepository) MarkSent(ctx context.Context, id uuid.UUID) error {
	result := r.db.GORM.WithContext(ctx).
		Model(&model.ApprovalReminder{}).
		Where("id = ? AND sent = ?", id, false).
		Update("sent", true)
	if result.Error != nil {
		return fmt.Errorf("failed to mark reminder sent: %w", result.Error)
	}
	return nil
}

// CancelUnsentByRequestTx deletes unsent reminders for a request once it
// leaves PENDING, so a resolved request never fires a stale reminder.
func (r *ApprovalReminderRepository) CancelUnsentByRequestTx(ctx context.Context, tx *gorm.DB, requestID uuid.UUID) error {
	return tx.WithContext(ctx).
		Where("request_id = ? AND sent = ?", requestID, false).
		Delete(&model.ApprovalReminder{}).Error
}
