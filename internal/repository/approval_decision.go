package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cristian75IT/kronos-core/internal/model"
)

var ErrApprovalDecisionNotFound = errors.New("approval decision not found")

// ApprovalDecisionRepository handles per-approver decision rows.
type ApprovalDecisionRepository struct {
	db *DB
}

func NewApprovalDecisionRepository(db *DB) *ApprovalDecisionRepository {
	return &ApprovalDecisionRepository{db: db}
}

func (r *ApprovalDecisionRepository) CreateMany(ctx context.Context, tx *gorm.DB, decisions []model.ApprovalDecision) error {
	if len(decisions) == 0 {
		return nil
	}
	return tx.WithContext(ctx).Create(&decisions).Error
}

func (r *ApprovalDecisionRepository) ListByRequest(ctx context.Context, requestID uuid.UUID) ([]model.ApprovalDecision, error) {
	var decisions []model.ApprovalDecision
	err := r.db.GORM.WithContext(ctx).
		Where("request_id = ?", requestID).
		Order("approval_level ASC, assigned_at ASC").
		Find(&decisions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list approval decisions: %w", err)
	}
	return decisions, nil
}

// ListByRequestTx is the transactional counterpart, used once the request
// row is already locked (spec §5).
func (r *ApprovalDecisionRepository) ListByRequestTx(ctx context.Context, tx *gorm.DB, requestID uuid.UUID) ([]model.ApprovalDecision, error) {
	var decisions []model.ApprovalDecision
	err := tx.WithContext(ctx).
		Where("request_id = ?", requestID).
		Order("approval_level ASC, assigned_at ASC").
		Find(&decisions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list approval decisions: %w", err)
	}
	return decisions, nil
}

func (r *ApprovalDecisionRepository) GetByRequestAndApprover(ctx context.Context, tx *gorm.DB, requestID, approverID uuid.UUID) (*model.ApprovalDecision, error) {
	var decision model.ApprovalDecision
	err := tx.WithContext(ctx).
		Where("request_id = ? AND approver_id = ?", requestID, approverID).
		First(&decision).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrApprovalDecisionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get approval decision: %w", err)
	}
	return &decision, nil
}

func (r *ApprovalDecisionRepository) UpdateTx(ctx context.Context, tx *gorm.DB, decision *model.ApprovalDecision) error {
	return tx.WithContext(ctx).Save(decision).Error
}
