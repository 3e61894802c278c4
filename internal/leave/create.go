package leave

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cristian75IT/kronos-core/internal/corekit"
	"github.com/cristian75IT/kronos-core/internal/model"
)

// CreateInput carries everything create needs (spec §4.2 "create").
type CreateInput struct {
	UserID         uuid.UUID
	LeaveTypeID    uuid.UUID
	LeaveTypeCode  string
	StartDate      time.Time
	EndDate        time.Time
	StartHalfDay   bool
	EndHalfDay     bool
	ProtocolNumber *string
}

// Create validates and persists a DRAFT leave request: overlap check,
// protocol requirement, and the days_requested computation via the
// working-day kernel (spec §4.2 "create").
func (s *Service) Create(ctx context.Context, in CreateInput) (*model.LeaveRequest, error) {
	if in.EndDate.Before(in.StartDate) {
		return nil, corekit.New(corekit.KindValidationFailure, "end date precedes start date")
	}

	leaveType, err := s.config.GetLeaveType(ctx, in.LeaveTypeID)
	if err != nil {
		return nil, fmt.Errorf("leave: load leave type: %w", err)
	}

	if leaveType.RequiresProtocol && (in.ProtocolNumber == nil || *in.ProtocolNumber == "") {
		return nil, corekit.New(corekit.KindValidationFailure, "protocol number is required for this leave type")
	}

	overlapping, err := s.requests.ListOverlappingNonTerminal(ctx, in.UserID, in.StartDate, in.EndDate, nil)
	if err != nil {
		return nil, fmt.Errorf("leave: check overlap: %w", err)
	}
	if len(overlapping) > 0 {
		return nil, corekit.New(corekit.KindConflict, "request overlaps an existing non-terminal request").
			WithDetail(overlapping[0].ID)
	}

	days, err := s.resolveWorkingDays(ctx, in.StartDate, in.EndDate, in.StartHalfDay, in.EndHalfDay)
	if err != nil {
		return nil, fmt.Errorf("leave: compute working days: %w", err)
	}

	req := &model.LeaveRequest{
		UserID:         in.UserID,
		LeaveTypeID:    in.LeaveTypeID,
		LeaveTypeCode:  in.LeaveTypeCode,
		Status:         model.LeaveStatusDraft,
		StartDate:      in.StartDate,
		EndDate:        in.EndDate,
		StartHalfDay:   in.StartHalfDay,
		EndHalfDay:     in.EndHalfDay,
		DaysRequested:  days,
		ProtocolNumber: in.ProtocolNumber,
	}
	if err := s.requests.Create(ctx, req); err != nil {
		return nil, fmt.Errorf("leave: create request: %w", err)
	}

	s.logAudit(ctx, in.UserID, "CREATED", req, map[string]any{"days_requested": days.String()})
	return req, nil
}
