package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cristian75IT/kronos-core/internal/model"
)

var ErrApprovalRequestNotFound = errors.New("approval request not found")

// ApprovalRequestRepository handles approval request persistence.
type ApprovalRequestRepository struct {
	db *DB
}

func NewApprovalRequestRepository(db *DB) *ApprovalRequestRepository {
	return &ApprovalRequestRepository{db: db}
}

func (r *ApprovalRequestRepository) Create(ctx context.Context, req *model.ApprovalRequest) error {
	return r.db.GORM.WithContext(ctx).Create(req).Error
}

func (r *ApprovalRequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.ApprovalRequest, error) {
	var req model.ApprovalRequest
	err := r.db.GORM.WithContext(ctx).First(&req, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrApprovalRequestNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get approval request: %w", err)
	}
	return &req, nil
}

// GetByIDForUpdate locks the request row for the duration of the calling
// transaction (spec §5: only one decision may mutate a request at a time).
// Must be called with a tx already opened via DB.WithTransaction.
func (r *ApprovalRequestRepository) GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.ApprovalRequest, error) {
	var req model.ApprovalRequest
	err := tx.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).First(&req, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrApprovalRequestNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock approval request: %w", err)
	}
	return &req, nil
}

func (r *ApprovalRequestRepository) Update(ctx context.Context, req *model.ApprovalRequest) error {
	return r.db.GORM.WithContext(ctx).Save(req).Error
}

// UpdateTx saves req using an already-open transaction handle.
func (r *ApprovalRequestRepository) UpdateTx(ctx context.Context, tx *gorm.DB, req *model.ApprovalRequest) error {
	return tx.WithContext(ctx).Save(req).Error
}

// GetPendingByEntity returns the current PENDING request for an entity, if
// any. Invariant §8.1: at most one may exist.
func (r *ApprovalRequestRepository) GetPendingByEntity(ctx context.Context, entityType string, entityID uuid.UUID) (*model.ApprovalRequest, error) {
	var req model.ApprovalRequest
	err := r.db.GORM.WithContext(ctx).
		Where("entity_type = ? AND entity_id = ? AND status = ?", entityType, entityID, model.ApprovalStatusPending).
		First(&req).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pending approval request: %w", err)
	}
	return &req, nil
}

// ListExpiring returns PENDING requests whose ExpiresAt has passed and have
// not yet had their expiration action applied, up to limit rows (spec §4.6
// check_expirations, idempotent chunking).
func (r *ApprovalRequestRepository) ListExpiring(ctx context.Context, limit int) ([]model.ApprovalRequest, error) {
	var reqs []model.ApprovalRequest
	err := r.db.GORM.WithContext(ctx).
		Where("status = ? AND expired_action_taken = ? AND expires_at IS NOT NULL AND expires_at <= now()",
			model.ApprovalStatusPending, false).
		Order("expires_at ASC").
		Limit(limit).
		Find(&reqs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list expiring approval requests: %w", err)
	}
	return reqs, nil
}

// ListOlderThanRetention returns terminal requests resolved before the
// retention cutoff, for cleanup_old_requests (spec §4.6).
func (r *ApprovalRequestRepository) ListOlderThanRetention(ctx context.Context, cutoffDays int, limit int) ([]model.ApprovalRequest, error) {
	var reqs []model.ApprovalRequest
	err := r.db.GORM.WithContext(ctx).
		Where("resolved_at IS NOT NULL AND resolved_at < now() - (? || ' days')::interval", cutoffDays).
		Order("resolved_at ASC").
		Limit(limit).
		Find(&reqs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list retained approval requests: %w", err)
	}
	return reqs, nil
}

func (r *ApprovalRequestRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.GORM.WithContext(ctx).Delete(&model.ApprovalRequest{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete approval request: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrApprovalRequestNotFound
	}
	return nil
}
