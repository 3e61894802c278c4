package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cristian75IT/kronos-core/internal/model"
)

var ErrLeaveInterruptionNotFound = errors.New("leave interruption not found")

// LeaveInterruptionRepository handles partial-recall/sickness/voluntary-work
// child records of an APPROVED leave request.
type LeaveInterruptionRepository struct {
	db *DB
}

func NewLeaveInterruptionRepository(db *DB) *LeaveInterruptionRepository {
	return &LeaveInterruptionRepository{db: db}
}

func (r *LeaveInterruptionRepository) CreateTx(ctx context.Context, tx *gorm.DB, interruption *model.LeaveInterruption) error {
	return tx.WithContext(ctx).Create(interruption).Error
}

func (r *LeaveInterruptionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.LeaveInterruption, error) {
	var interruption model.LeaveInterruption
	err := r.db.GORM.WithContext(ctx).First(&interruption, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrLeaveInterruptionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get leave interruption: %w", err)
	}
	return &interruption, nil
}

func (r *LeaveInterruptionRepository) UpdateTx(ctx context.Context, tx *gorm.DB, interruption *model.LeaveInterruption) error {
	return tx.WithContext(ctx).Save(interruption).Error
}

func (r *LeaveInterruptionRepository) ListByLeaveRequest(ctx context.Context, leaveRequestID uuid.UUID) ([]model.LeaveInterruption, error) {
	var interruptions []model.LeaveInterruption
	err := r.db.GORM.WithContext(ctx).
		Where("leave_request_id = ?", leaveRequestID).
		Order("start_date ASC").
		Find(&interruptions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list leave interruptions: %w", err)
	}
	return interruptions, nil
}
