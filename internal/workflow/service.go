package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/cristian75IT/kronos-core/internal/corekit"
	"github.com/cristian75IT/kronos-core/internal/external"
	"github.com/cristian75IT/kronos-core/internal/model"
	"github.com/cristian75IT/kronos-core/internal/repository"
)

// workflowConfigRepo is the narrow slice of WorkflowConfigRepository the
// engine needs for selection.
type workflowConfigRepo interface {
	ListCandidatesForEntityType(ctx context.Context, entityType string) ([]model.WorkflowConfig, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.WorkflowConfig, error)
}

type approvalRequestRepo interface {
	Create(ctx context.Context, req *model.ApprovalRequest) error
	GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.ApprovalRequest, error)
	UpdateTx(ctx context.Context, tx *gorm.DB, req *model.ApprovalRequest) error
	GetPendingByEntity(ctx context.Context, entityType string, entityID uuid.UUID) (*model.ApprovalRequest, error)
	ListExpiring(ctx context.Context, limit int) ([]model.ApprovalRequest, error)
}

type approvalDecisionRepo interface {
	CreateMany(ctx context.Context, tx *gorm.DB, decisions []model.ApprovalDecision) error
	ListByRequestTx(ctx context.Context, tx *gorm.DB, requestID uuid.UUID) ([]model.ApprovalDecision, error)
	ListByRequest(ctx context.Context, requestID uuid.UUID) ([]model.ApprovalDecision, error)
	GetByRequestAndApprover(ctx context.Context, tx *gorm.DB, requestID, approverID uuid.UUID) (*model.ApprovalDecision, error)
	UpdateTx(ctx context.Context, tx *gorm.DB, decision *model.ApprovalDecision) error
}

type approvalHistoryRepo interface {
	AppendTx(ctx context.Context, tx *gorm.DB, entry *model.ApprovalHistory) error
}

type approvalReminderRepoForService interface {
	CreateManyTx(ctx context.Context, tx *gorm.DB, reminders []model.ApprovalReminder) error
	CancelUnsentByRequestTx(ctx context.Context, tx *gorm.DB, requestID uuid.UUID) error
}

// Service is the Approval Workflow Engine: selection, assignment, decision
// processing, expiration/escalation, reminders, and the resolution
// callback, all per spec §4.1.
type Service struct {
	db           *repository.DB
	workflows    workflowConfigRepo
	requests     approvalRequestRepo
	decisions    approvalDecisionRepo
	history      approvalHistoryRepo
	reminders    approvalReminderRepoForService
	directory    external.Directory
	notifier     external.Notifier
	audit        external.AuditSink
	callback     *CallbackClient
}

// NewService wires the engine's dependencies.
func NewService(
	db *repository.DB,
	workflows workflowConfigRepo,
	requests approvalRequestRepo,
	decisions approvalDecisionRepo,
	history approvalHistoryRepo,
	reminders approvalReminderRepoForService,
	directory external.Directory,
	notifier external.Notifier,
	audit external.AuditSink,
	callback *CallbackClient,
) *Service {
	return &Service{
		db:        db,
		workflows: workflows,
		requests:  requests,
		decisions: decisions,
		history:   history,
		reminders: reminders,
		directory: directory,
		notifier:  notifier,
		audit:     audit,
		callback:  callback,
	}
}

// SubmitInput carries everything Submit needs to select a workflow, assign
// approvers, and create the approval request.
type SubmitInput struct {
	EntityType         string
	EntityID           uuid.UUID
	RequesterID        uuid.UUID
	Title              string
	Description        string
	Metadata           map[string]any
	CallbackURL        string
	EntityData         EntityData
	ExplicitWorkflowID *uuid.UUID
	CallerApprovers    []uuid.UUID
}

// Submit selects a workflow, assigns approvers, and creates a PENDING
// ApprovalRequest with its decision rows and reminders (spec §4.1). It
// enforces invariant §8.1 by first checking no PENDING request already
// exists for the entity.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (*model.ApprovalRequest, error) {
	if existing, err := s.requests.GetPendingByEntity(ctx, in.EntityType, in.EntityID); err != nil {
		return nil, fmt.Errorf("check existing pending request: %w", err)
	} else if existing != nil {
		return nil, corekit.New(corekit.KindConflict, "a pending approval request already exists for this entity").
			WithDetail(existing.ID)
	}

	cfg, err := s.selectWorkflowConfig(ctx, in)
	if err != nil {
		return nil, err
	}

	approvers, err := ResolveApprovers(ctx, s.directory, cfg, in.RequesterID, in.CallerApprovers)
	if err != nil {
		return nil, fmt.Errorf("resolve approvers: %w", err)
	}

	now := time.Now().UTC()
	req := &model.ApprovalRequest{
		EntityType:       in.EntityType,
		EntityID:         in.EntityID,
		WorkflowConfigID: cfg.ID,
		RequesterID:      in.RequesterID,
		Title:            in.Title,
		Description:      in.Description,
		CallbackURL:      in.CallbackURL,
		Status:           model.ApprovalStatusPending,
		CurrentLevel:     1,
	}
	if cfg.ExpirationHours > 0 {
		expiresAt := now.Add(time.Duration(cfg.ExpirationHours) * time.Hour)
		req.ExpiresAt = &expiresAt
	}

	var decisions []model.ApprovalDecision
	if len(approvers) == 0 {
		req.RequiredApprovals = 0
		req.MaxLevel = 0
	} else {
		req.RequiredApprovals = RequiredApprovals(cfg.ApprovalMode, len(approvers))
		req.MaxLevel = len(approvers)
		decisions = buildDecisionRows(req, cfg.ApprovalMode, approvers)
	}

	if err := s.requests.Create(ctx, req); err != nil {
		return nil, fmt.Errorf("create approval request: %w", err)
	}

	if len(decisions) > 0 {
		if err := s.db.WithTransaction(ctx, func(tx *gorm.DB) error {
			if err := s.decisions.CreateMany(ctx, tx, decisions); err != nil {
				return fmt.Errorf("create decision rows: %w", err)
			}
			reminders := buildReminders(req.ID, cfg, approvers, req.ExpiresAt, now)
			if err := s.reminders.CreateManyTx(ctx, tx, reminders); err != nil {
				return fmt.Errorf("schedule reminders: %w", err)
			}
			return s.history.AppendTx(ctx, tx, &model.ApprovalHistory{
				RequestID: req.ID,
				Action:    "SUBMITTED",
				ActorID:   &in.RequesterID,
				ActorType: model.ActorTypeUser,
			})
		}); err != nil {
			return nil, err
		}
		s.notifyApprovers(ctx, req, approvers)
	}
	// spec §4.1: an empty approver list still creates the request PENDING;
	// it becomes operations' problem to assign (NoApproversResolved).
	if len(approvers) == 0 {
		log.Warn().Str("request_id", req.ID.String()).Str("entity_type", req.EntityType).Str("entity_id", req.EntityID.String()).Msg("NoApproversResolved: approval request created with no approvers")
	}

	return req, nil
}

func (s *Service) selectWorkflowConfig(ctx context.Context, in SubmitInput) (*model.WorkflowConfig, error) {
	if in.ExplicitWorkflowID != nil {
		return s.workflows.GetByID(ctx, *in.ExplicitWorkflowID)
	}
	candidates, err := s.workflows.ListCandidatesForEntityType(ctx, in.EntityType)
	if err != nil {
		return nil, fmt.Errorf("list workflow candidates: %w", err)
	}
	return SelectWorkflow(candidates, in.EntityData)
}

func buildDecisionRows(req *model.ApprovalRequest, mode model.ApprovalMode, approvers []uuid.UUID) []model.ApprovalDecision {
	decisions := make([]model.ApprovalDecision, len(approvers))
	for i, approverID := range approvers {
		level := 1
		if mode == model.ApprovalModeSequential {
			level = i + 1
		}
		decisions[i] = model.ApprovalDecision{
			RequestID:     req.ID,
			ApproverID:    approverID,
			ApprovalLevel: level,
			AssignedAt:    time.Now().UTC(),
		}
	}
	return decisions
}

func (s *Service) notifyApprovers(ctx context.Context, req *model.ApprovalRequest, approvers []uuid.UUID) {
	for _, approverID := range approvers {
		event := external.Event{
			Type:        external.EventApprovalRequest,
			RecipientID: approverID,
			EntityType:  req.EntityType,
			EntityID:    req.EntityID,
			Data:        map[string]any{"request_id": req.ID, "title": req.Title},
		}
		if err := s.notifier.Notify(ctx, event); err != nil {
			_ = err // swallowed per spec §7
		}
	}
}
