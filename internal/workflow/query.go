package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cristian75IT/kronos-core/internal/model"
)

// approvalRequestReader is the plain (non-locking) request-read surface
// ApprovalQueryService needs.
type approvalRequestReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.ApprovalRequest, error)
}

// approvalDecisionReader is the plain decision-read surface ApprovalQueryService needs.
type approvalDecisionReader interface {
	ListByRequest(ctx context.Context, requestID uuid.UUID) ([]model.ApprovalDecision, error)
}

// approvalHistoryReader is the plain history-read surface ApprovalQueryService needs.
type approvalHistoryReader interface {
	ListByRequest(ctx context.Context, requestID uuid.UUID) ([]model.ApprovalHistory, error)
}

// ApprovalStatusView is a point-in-time read of a request, grouping its
// current state with its full decision and history trail.
type ApprovalStatusView struct {
	RequestID          uuid.UUID
	EntityType         string
	EntityID           uuid.UUID
	Status             model.ApprovalStatus
	CurrentLevel       int
	MaxLevel           int
	RequiredApprovals  int
	ReceivedApprovals  int
	ReceivedRejections int
	ResolvedAt         *time.Time
	Decisions          []model.ApprovalDecision
	History            []model.ApprovalHistory
}

// ApprovalQueryService is the internal-only read path other services use to
// check a request's current status without registering a callback
// (SPEC_FULL.md "Workflow setup endpoints" supplement, grounded on
// original_source's routers/internal.py).
type ApprovalQueryService struct {
	requests  approvalRequestReader
	decisions approvalDecisionReader
	history   approvalHistoryReader
}

func NewApprovalQueryService(requests approvalRequestReader, decisions approvalDecisionReader, history approvalHistoryReader) *ApprovalQueryService {
	return &ApprovalQueryService{requests: requests, decisions: decisions, history: history}
}

// GetStatus returns requestID's current status plus its decision and
// history trail.
func (s *ApprovalQueryService) GetStatus(ctx context.Context, requestID uuid.UUID) (*ApprovalStatusView, error) {
	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("workflow: get request: %w", err)
	}
	decisions, err := s.decisions.ListByRequest(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("workflow: list decisions: %w", err)
	}
	history, err := s.history.ListByRequest(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("workflow: list history: %w", err)
	}
	return &ApprovalStatusView{
		RequestID:          req.ID,
		EntityType:         req.EntityType,
		EntityID:           req.EntityID,
		Status:             req.Status,
		CurrentLevel:       req.CurrentLevel,
		MaxLevel:           req.MaxLevel,
		RequiredApprovals:  req.RequiredApprovals,
		ReceivedApprovals:  req.ReceivedApprovals,
		ReceivedRejections: req.ReceivedRejections,
		ResolvedAt:         req.ResolvedAt,
		Decisions:          decisions,
		History:            history,
	}, nil
}
