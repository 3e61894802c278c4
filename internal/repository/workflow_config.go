package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cristian75IT/kronos-core/internal/model"
)

var ErrWorkflowConfigNotFound = errors.New("workflow config not found")

// WorkflowConfigRepository handles approval workflow configuration access.
type WorkflowConfigRepository struct {
	db *DB
}

func NewWorkflowConfigRepository(db *DB) *WorkflowConfigRepository {
	return &WorkflowConfigRepository{db: db}
}

func (r *WorkflowConfigRepository) Create(ctx context.Context, cfg *model.WorkflowConfig) error {
	return r.db.GORM.WithContext(ctx).Create(cfg).Error
}

func (r *WorkflowConfigRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.WorkflowConfig, error) {
	var cfg model.WorkflowConfig
	err := r.db.GORM.WithContext(ctx).First(&cfg, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrWorkflowConfigNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get workflow config: %w", err)
	}
	return &cfg, nil
}

func (r *WorkflowConfigRepository) Update(ctx context.Context, cfg *model.WorkflowConfig) error {
	return r.db.GORM.WithContext(ctx).Save(cfg).Error
}

// Deactivate flips is_active to false rather than deleting the row: a
// config may still be referenced by ApprovalRequest.WorkflowConfigID of a
// past (possibly still in-flight) request, and ListCandidatesForEntityType
// already filters on is_active, so deactivating removes the config from
// future selection without orphaning history.
func (r *WorkflowConfigRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	result := r.db.GORM.WithContext(ctx).
		Model(&model.WorkflowConfig{}).
		Where("id = ?", id).
		Update("is_active", false)
	if result.Error != nil {
		return fmt.Errorf("failed to deactivate workflow config: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrWorkflowConfigNotFound
	}
	return nil
}

// ListByEntityType returns every config for an entity type regardless of
// is_active, for administration screens that need to show deactivated
// configs alongside active ones (unlike ListCandidatesForEntityType, which
// is selection-only and filters to active).
func (r *WorkflowConfigRepository) ListByEntityType(ctx context.Context, entityType string) ([]model.WorkflowConfig, error) {
	var cfgs []model.WorkflowConfig
	err := r.db.GORM.WithContext(ctx).
		Where("entity_type = ?", entityType).
		Order("is_default ASC, priority ASC").
		Find(&cfgs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list workflow configs by entity type: %w", err)
	}
	return cfgs, nil
}

// ListCandidatesForEntityType returns the active configs for an entity type,
// non-default configs first and then default ones, each group ordered by
// Priority ascending (lower number wins ties, spec §4.1 selection rule), so
// the caller can walk them in order and pick the first whose Conditions
// predicate matches.
func (r *WorkflowConfigRepository) ListCandidatesForEntityType(ctx context.Context, entityType string) ([]model.WorkflowConfig, error) {
	var cfgs []model.WorkflowConfig
	err := r.db.GORM.WithContext(ctx).
		Where("entity_type = ? AND is_active = ?", entityType, true).
		Order("is_default ASC, priority ASC").
		Find(&cfgs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list workflow configs: %w", err)
	}
	return cfgs, nil
}
