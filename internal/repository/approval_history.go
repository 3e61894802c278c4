package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cristian75IT/kronos-core/internal/model"
)

// ApprovalHistoryRepository handles the append-only approval event log
// (invariant §8.4: no row is ever updated or deleted).
type ApprovalHistoryRepository struct {
	db *DB
}

func NewApprovalHistoryRepository(db *DB) *ApprovalHistoryRepository {
	return &ApprovalHistoryRepository{db: db}
}

func (r *ApprovalHistoryRepository) AppendTx(ctx context.Context, tx *gorm.DB, entry *model.ApprovalHistory) error {
	return tx.WithContext(ctx).Create(entry).Error
}

func (r *ApprovalHistoryRepository) ListByRequest(ctx context.Context, requestID uuid.UUID) ([]model.ApprovalHistory, error) {
	var entries []model.ApprovalHistory
	err := r.db.GORM.WithContext(ctx).
		Where("request_id = ?", requestID).
		Order("created_at ASC").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list approval history: %w", err)
	}
	return entries, nil
}
