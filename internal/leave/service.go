// Package leave is the Leave Lifecycle engine (spec §4.2): the DRAFT →
// PENDING → terminal state machine, overlap/protocol invariants, and the
// recall/sickness/voluntary-work/modify-approved sub-flows layered on top
// of it. It drives the Leave Policy Engine (package policy), the Balance
// Ledger (package ledger), and hands off to the generic Approval Workflow
// Engine (package workflow) exactly the way the leave domain is the
// workflow engine's first caller.
package leave

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/cristian75IT/kronos-core/internal/calendar"
	"github.com/cristian75IT/kronos-core/internal/external"
	"github.com/cristian75IT/kronos-core/internal/ledger"
	"github.com/cristian75IT/kronos-core/internal/model"
	"github.com/cristian75IT/kronos-core/internal/policy"
	"github.com/cristian75IT/kronos-core/internal/repository"
	"github.com/cristian75IT/kronos-core/internal/workflow"
)

// requestRepo is the narrow slice of LeaveRequestRepository the service
// needs, named the way workflow/service.go names its own per-consumer
// repository interfaces.
type requestRepo interface {
	Create(ctx context.Context, req *model.LeaveRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.LeaveRequest, error)
	GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.LeaveRequest, error)
	UpdateTx(ctx context.Context, tx *gorm.DB, req *model.LeaveRequest) error
	ListOverlappingNonTerminal(ctx context.Context, userID uuid.UUID, from, to time.Time, excludeID *uuid.UUID) ([]model.LeaveRequest, error)
	ListByApprovalRequestID(ctx context.Context, approvalRequestID uuid.UUID) (*model.LeaveRequest, error)
	SumDaysRequestedInMonth(ctx context.Context, userID uuid.UUID, leaveTypeCode string, year int, month time.Month, excludeID *uuid.UUID) (decimal.Decimal, error)
	ListApprovedOverlappingClosure(ctx context.Context, from, to time.Time, limit int) ([]model.LeaveRequest, error)
}

// interruptionRepo is the narrow slice of LeaveInterruptionRepository the
// recall/sickness/voluntary-work sub-flows need.
type interruptionRepo interface {
	CreateTx(ctx context.Context, tx *gorm.DB, interruption *model.LeaveInterruption) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.LeaveInterruption, error)
	UpdateTx(ctx context.Context, tx *gorm.DB, interruption *model.LeaveInterruption) error
	ListByLeaveRequest(ctx context.Context, leaveRequestID uuid.UUID) ([]model.LeaveInterruption, error)
}

// balanceReader is the non-locking read path for pre-transaction policy
// evaluation; ledger.Service owns the locking read/write path used once a
// transaction is open (spec §4.3/§4.5).
type balanceReader interface {
	GetSnapshot(ctx context.Context, userID uuid.UUID, year int) (*model.LeaveBalance, error)
}

// calendarRepo is the repo-shaped dependency calendar.Resolve needs. The
// service holds its own copy of the same narrow interface resolve.go
// declares unexported, since that interface cannot be imported across
// packages.
type calendarRepo interface {
	GetLocationCalendar(ctx context.Context, locationID *uuid.UUID) (*model.LocationCalendar, error)
	GetWorkWeekProfile(ctx context.Context, id uuid.UUID) (*model.WorkWeekProfile, error)
	GetDefaultWorkWeekProfile(ctx context.Context) (*model.WorkWeekProfile, error)
	ListHolidaysByProfiles(ctx context.Context, profileIDs []uuid.UUID) ([]model.CalendarHoliday, error)
	ListWorkingDayExceptions(ctx context.Context, from, to time.Time, departmentID, locationID *uuid.UUID) ([]model.WorkingDayException, error)
}

// Service is the Leave Lifecycle engine (spec §4.2).
type Service struct {
	db            *repository.DB
	requests      requestRepo
	interruptions interruptionRepo
	balances      balanceReader
	calendar      calendarRepo
	ledger        *ledger.Service
	policy        *policy.Engine
	workflow      *workflow.Service
	config        external.ConfigService
	directory     external.Directory
	notifier      external.Notifier
	audit         external.AuditSink
}

// NewService wires the engine's dependencies.
func NewService(
	db *repository.DB,
	requests requestRepo,
	interruptions interruptionRepo,
	balances balanceReader,
	cal calendarRepo,
	ledgerSvc *ledger.Service,
	policyEngine *policy.Engine,
	workflowSvc *workflow.Service,
	config external.ConfigService,
	directory external.Directory,
	notifier external.Notifier,
	audit external.AuditSink,
) *Service {
	return &Service{
		db:            db,
		requests:      requests,
		interruptions: interruptions,
		balances:      balances,
		calendar:      cal,
		ledger:        ledgerSvc,
		policy:        policyEngine,
		workflow:      workflowSvc,
		config:        config,
		directory:     directory,
		notifier:      notifier,
		audit:         audit,
	}
}

// resolveWorkingDays computes the working-day count for [start,end] honoring
// half-day endpoint flags, via calendar.Resolve + calendar.WorkingDays (spec
// §4.4). locationID/departmentID are always nil: model.LeaveRequest carries
// no location or department, and the engine does not look up the
// requester's department in the directory, so every request resolves
// against the tenant-wide calendar (see DESIGN.md Open Questions).
func (s *Service) resolveWorkingDays(ctx context.Context, start, end time.Time, startHalf, endHalf bool) (decimal.Decimal, error) {
	schedule, holidays, exceptions, err := calendar.Resolve(ctx, s.calendar, nil, nil, start, end)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return calendar.WorkingDays(start, end, startHalf, endHalf, schedule, holidays, exceptions)
}

func (s *Service) notify(ctx context.Context, eventType external.EventType, recipientID uuid.UUID, req *model.LeaveRequest, extra map[string]any) {
	data := map[string]any{"leave_request_id": req.ID}
	for k, v := range extra {
		data[k] = v
	}
	event := external.Event{
		Type:        eventType,
		RecipientID: recipientID,
		EntityType:  "leave_request",
		EntityID:    req.ID,
		Data:        data,
	}
	if err := s.notifier.Notify(ctx, event); err != nil {
		_ = err // swallowed per spec §7
	}
}

func (s *Service) logAudit(ctx context.Context, actorID uuid.UUID, action string, req *model.LeaveRequest, details map[string]any) {
	entry := external.AuditEntry{
		EntityType: "leave_request",
		EntityID:   req.ID,
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
