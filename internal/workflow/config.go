package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cristian75IT/kronos-core/internal/external"
	"github.com/cristian75IT/kronos-core/internal/model"
)

// ConfigRepository is the narrow slice of repository.WorkflowConfigRepository
// ConfigService needs for administration. Distinct from workflowConfigRepo,
// which is the selection-only surface the engine uses to pick a config for
// an incoming request.
type ConfigRepository interface {
	Create(ctx context.Context, cfg *model.WorkflowConfig) error
	Update(ctx context.Context, cfg *model.WorkflowConfig) error
	Deactivate(ctx context.Context, id uuid.UUID) error
	ListByEntityType(ctx context.Context, entityType string) ([]model.WorkflowConfig, error)
}

// ConfigService is the administration surface over WorkflowConfig rows
// (SPEC_FULL.md "Workflow setup endpoints", grounded on original_source's
// routers/setup.py and routers/config.py): create, update, soft-deactivate,
// list-by-entity-type. It never hard-deletes a config, since a resolved
// ApprovalRequest keeps referencing its WorkflowConfigID indefinitely
// (invariant §8.4's append-only history).
type ConfigService struct {
	repo  ConfigRepository
	audit external.AuditSink
}

func NewConfigService(repo ConfigRepository, audit external.AuditSink) *ConfigService {
	return &ConfigService{repo: repo, audit: audit}
}

// CreateConfig inserts a new workflow config (spec §3 "WorkflowConfig").
func (s *ConfigService) CreateConfig(ctx context.Context, actorID uuid.UUID, cfg *model.WorkflowConfig) (*model.WorkflowConfig, error) {
	if cfg.MaxApprovers < cfg.MinApprovers {
		return nil, fmt.Errorf("workflow: max_approvers must be >= min_approvers")
	}
	if err := s.repo.Create(ctx, cfg); err != nil {
		return nil, fmt.Errorf("workflow: create config: %w", err)
	}
	s.logAudit(ctx, actorID, "CONFIG_CREATED", cfg.ID, nil)
	return cfg, nil
}

// UpdateConfig overwrites an existing config in place.
func (s *ConfigService) UpdateConfig(ctx context.Context, actorID uuid.UUID, cfg *model.WorkflowConfig) (*model.WorkflowConfig, error) {
	if cfg.MaxApprovers < cfg.MinApprovers {
		return nil, fmt.Errorf("workflow: max_approvers must be >= min_approvers")
	}
	if err := s.repo.Update(ctx, cfg); err != nil {
		return nil, fmt.Errorf("workflow: update config: %w", err)
	}
	s.logAudit(ctx, actorID, "CONFIG_UPDATED", cfg.ID, nil)
	return cfg, nil
}

// DeactivateConfig soft-deactivates a config (is_active=false), dropping it
// out of ListCandidatesForEntityType's selection pool without deleting it.
func (s *ConfigService) DeactivateConfig(ctx context.Context, actorID, configID uuid.UUID) error {
	if err := s.repo.Deactivate(ctx, configID); err != nil {
		return fmt.Errorf("workflow: deactivate config: %w", err)
	}
	s.logAudit(ctx, actorID, "CONFIG_DEACTIVATED", configID, nil)
	return nil
}

// ListConfigsForEntityType returns every config, active and inactive, for an
// entity type — an administration listing, unlike the engine's selection-only
// ListCandidatesForEntityType.
func (s *ConfigService) ListConfigsForEntityType(ctx context.Context, entityType string) ([]model.WorkflowConfig, error) {
	cfgs, err := s.repo.ListByEntityType(ctx, entityType)
	if err != nil {
		return nil, fmt.Errorf("workflow: list configs: %w", err)
	}
	return cfgs, nil
}

func (s *ConfigService) logAudit(ctx context.Context, actorID uuid.UUID, action string, configID uuid.UUID, details map[string]any) {
	entry := external.AuditEntry{
		EntityType: "workflow_config",
		EntityID:   configID,
		Action:     action,
		ActorID:    &actorID,
		ActorType:  "user",
		Details:    details,
		OccurredAt: time.Now().UTC(),
	}
	if err := s.audit.LogAction(ctx, entry); err != nil {
		_ = err // swallowed per spec §6/§7
	}
}
