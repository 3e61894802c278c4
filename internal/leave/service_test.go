package leave_test

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/cristian75IT/kronos-core/internal/external"
	"github.com/cristian75IT/kronos-core/internal/ledger"
	"github.com/cristian75IT/kronos-core/internal/model"
	"github.com/cristian75IT/kronos-core/internal/policy"
	"github.com/cristian75IT/kronos-core/internal/policy/strategy"
	"github.com/cristian75IT/kronos-core/internal/repository"
)

// newGormDB opens an in-memory sqlite database purely so repository.DB's
// WithTransaction can BEGIN/COMMIT a real transaction; none of the fakes in
// this package issue queries through the *gorm.DB they're handed, so no
// schema is needed.
func newGormDB(t *testing.T) *repository.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	return &repository.DB{GORM: gdb}
}

// fakeRequests is an in-memory requestRepo.
type fakeRequests struct {
	mu   sync.Mutex
	byID map[uuid.UUID]*model.LeaveRequest
}

func newFakeRequests() *fakeRequests {
	return &fakeRequests{byID: make(map[uuid.UUID]*model.LeaveRequest)}
}

func (f *fakeRequests) Create(_ context.Context, req *model.LeaveRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	clone := *req
	f.byID[req.ID] = &clone
	return nil
}

func (f *fakeRequests) GetByID(_ context.Context, id uuid.UUID) (*model.LeaveRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	req, ok := f.byID[id]
	if !ok {
		return nil, ErrNotFoundFake
	}
	clone := *req
	return &clone, nil
}

func (f *fakeRequests) GetByIDForUpdate(_ context.Context, _ *gorm.DB, id uuid.UUID) (*model.LeaveRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	req, ok := f.byID[id]
	if !ok {
		return nil, ErrNotFoundFake
	}
	clone := *req
	return &clone, nil
}

func (f *fakeRequests) UpdateTx(_ context.Context, _ *gorm.DB, req *model.LeaveRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	clone := *req
	f.byID[req.ID] = &clone
	return nil
}

func (f *fakeRequests) ListOverlappingNonTerminal(_ context.Context, userID uuid.UUID, from, to time.Time, excludeID *uuid.UUID) ([]model.LeaveRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.LeaveRequest
	for _, req := range f.byID {
		if req.UserID != userID || !req.Status.IsNonTerminal() {
			continue
		}
		if excludeID != nil && req.ID == *excludeID {
			continue
		}
		if req.Overlaps(from, to) {
			out = append(out, *req)
		}
	}
	return out, nil
}

func (f *fakeRequests) ListByApprovalRequestID(_ context.Context, approvalRequestID uuid.UUID) (*model.LeaveRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, req := range f.byID {
		if req.ApprovalRequestID != nil && *req.ApprovalRequestID == approvalRequestID {
			clone := *req
			return &clone, nil
		}
	}
	return nil, ErrNotFoundFake
}

func (f *fakeRequests) SumDaysRequestedInMonth(_ context.Context, userID uuid.UUID, code string, year int, month time.Month, excludeID *uuid.UUID) (decimal.Decimal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := decimal.Zero
	for _, req := range f.byID {
		if req.UserID != userID || req.LeaveTypeCode != code {
			continue
		}
		if excludeID != nil && req.ID == *excludeID {
			continue
		}
		if req.StartDate.Year() == year && req.StartDate.Month() == month {
			switch req.Status {
			case model.LeaveStatusPending, model.LeaveStatusApproved, model.LeaveStatusApprovedConditional:
				total = total.Add(req.DaysRequested)
			}
		}
	}
	return total, nil
}

func (f *fakeRequests) ListApprovedOverlappingClosure(_ context.Context, from, to time.Time, limit int) ([]model.LeaveRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.LeaveRequest
	for _, req := range f.byID {
		if req.Status != model.LeaveStatusApproved && req.Status != model.LeaveStatusApprovedConditional {
			continue
		}
		if req.Overlaps(from, to) {
			out = append(out, *req)
		}
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

var ErrNotFoundFake = fakeErr("leave request not found")

type fakeErr string

func (e fakeErr) Error() string { return string(e) }

// fakeInterruptions is an in-memory interruptionRepo.
type fakeInterruptions struct {
	mu   sync.Mutex
	byID map[uuid.UUID]*model.LeaveInterruption
}

func newFakeInterruptions() *fakeInterruptions {
	return &fakeInterruptions{byID: make(map[uuid.UUID]*model.LeaveInterruption)}
}

func (f *fakeInterruptions) CreateTx(_ context.Context, _ *gorm.DB, i *model.LeaveInterruption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	clone := *i
	f.byID[i.ID] = &clone
	return nil
}

func (f *fakeInterruptions) GetByID(_ context.Context, id uuid.UUID) (*model.LeaveInterruption, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i, ok := f.byID[id]
	if !ok {
		return nil, ErrNotFoundFake
	}
	clone := *i
	return &clone, nil
}

func (f *fakeInterruptions) UpdateTx(_ context.Context, _ *gorm.DB, i *model.LeaveInterruption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	clone := *i
	f.byID[i.ID] = &clone
	return nil
}

func (f *fakeInterruptions) ListByLeaveRequest(_ context.Context, leaveRequestID uuid.UUID) ([]model.LeaveInterruption, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.LeaveInterruption
	for _, i := range f.byID {
		if i.LeaveRequestID == leaveRequestID {
			out = append(out, *i)
		}
	}
	return out, nil
}

// fakeBalances is an in-memory balanceReader. When ledger is set, the
// snapshot the ledger holds for (userID, year) is returned first, so reads
// see every entry ledger.Service has posted.
type fakeBalances struct {
	snapshots map[uuid.UUID]*model.LeaveBalance
	ledger    *fakeLedgerRepo
}

func newFakeBalances() *fakeBalances {
	return &fakeBalances{snapshots: make(map[uuid.UUID]*model.LeaveBalance)}
}

func (f *fakeBalances) GetSnapshot(ctx context.Context, userID uuid.UUID, year int) (*model.LeaveBalance, error) {
	if f.ledger != nil {
		if posted, err := f.ledger.GetSnapshotForUpdateTx(ctx, nil, userID, year); err == nil {
			return posted, nil
		}
	}
	bal, ok := f.snapshots[userID]
	if !ok {
		return nil, ErrNotFoundFake
	}
	clone := *bal
	return &clone, nil
}

// fakeCalendar is an in-memory calendarRepo that always falls back to the
// built-in Monday-Friday schedule with no holidays or exceptions.
type fakeCalendar struct{}

func (fakeCalendar) GetLocationCalendar(context.Context, *uuid.UUID) (*model.LocationCalendar, error) {
	return nil, repository.ErrLocationCalendarNotFound
}

func (fakeCalendar) GetWorkWeekProfile(context.Context, uuid.UUID) (*model.WorkWeekProfile, error) {
	return nil, ErrNotFoundFake
}

func (fakeCalendar) GetDefaultWorkWeekProfile(context.Context) (*model.WorkWeekProfile, error) {
	return nil, ErrNotFoundFake
}

func (fakeCalendar) ListHolidaysByProfiles(context.Context, []uuid.UUID) ([]model.CalendarHoliday, error) {
	return nil, nil
}

func (fakeCalendar) ListWorkingDayExceptions(context.Context, time.Time, time.Time, *uuid.UUID, *uuid.UUID) ([]model.WorkingDayException, error) {
	return nil, nil
}

// fakeLedgerRepo is an in-memory balanceRepoForLedger backing ledger.Service
// in tests, keyed by (userID, year).
type fakeLedgerRepo struct {
	mu       sync.Mutex
	balances map[string]*model.LeaveBalance
	dedupe   map[string]bool
	posted   []model.BalanceTransaction
}

func newFakeLedgerRepo() *fakeLedgerRepo {
	return &fakeLedgerRepo{balances: make(map[string]*model.LeaveBalance), dedupe: make(map[string]bool)}
}

func ledgerKey(userID uuid.UUID, year int) string {
	return fmt.Sprintf("%s:%d", userID, year)
}

func (f *fakeLedgerRepo) seed(bal *model.LeaveBalance) {
	f.mu.Lock()
	defer f.mu.Unlock()
	clone := *bal
	f.balances[ledgerKey(bal.UserID, bal.Year)] = &clone
}

func (f *fakeLedgerRepo) GetSnapshotForUpdateTx(_ context.Context, _ *gorm.DB, userID uuid.UUID, year int) (*model.LeaveBalance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	bal, ok := f.balances[ledgerKey(userID, year)]
	if !ok {
		return nil, repository.ErrLeaveBalanceNotFound
	}
	clone := *bal
	return &clone, nil
}

func (f *fakeLedgerRepo) CreateSnapshotTx(_ context.Context, _ *gorm.DB, bal *model.LeaveBalance) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if bal.ID == uuid.Nil {
		bal.ID = uuid.New()
	}
	clone := *bal
	f.balances[ledgerKey(bal.UserID, bal.Year)] = &clone
	return nil
}

func (f *fakeLedgerRepo) UpdateSnapshotTx(_ context.Context, _ *gorm.DB, bal *model.LeaveBalance) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	clone := *bal
	f.balances[ledgerKey(bal.UserID, bal.Year)] = &clone
	return nil
}

func (f *fakeLedgerRepo) AppendTransactionTx(_ context.Context, _ *gorm.DB, txn *model.BalanceTransaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if txn.DedupeKey != "" {
		f.dedupe[txn.DedupeKey] = true
	}
	f.posted = append(f.posted, *txn)
	return nil
}

func (f *fakeLedgerRepo) ExistsByDedupeKeyTx(_ context.Context, _ *gorm.DB, dedupeKey string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if dedupeKey == "" {
		return false, nil
	}
	return f.dedupe[dedupeKey], nil
}

// fakeConfig is an in-memory external.ConfigService.
type fakeConfig struct {
	byID   map[uuid.UUID]external.LeaveTypeConfig
	byCode map[string]external.LeaveTypeConfig
}

func newFakeConfig() *fakeConfig {
	return &fakeConfig{byID: make(map[uuid.UUID]external.LeaveTypeConfig), byCode: make(map[string]external.LeaveTypeConfig)}
}

func (f *fakeConfig) add(cfg external.LeaveTypeConfig) {
	f.byID[cfg.ID] = cfg
	f.byCode[cfg.Code] = cfg
}

func (f *fakeConfig) GetLeaveType(_ context.Context, id uuid.UUID) (*external.LeaveTypeConfig, error) {
	cfg, ok := f.byID[id]
	if !ok {
		return nil, ErrNotFoundFake
	}
	return &cfg, nil
}

func (f *fakeConfig) GetLeaveTypeByCode(_ context.Context, code string) (*external.LeaveTypeConfig, error) {
	cfg, ok := f.byCode[code]
	if !ok {
		return nil, ErrNotFoundFake
	}
	return &cfg, nil
}

func (f *fakeConfig) GetHolidays(context.Context, int, *uuid.UUID) ([]external.Holiday, error) {
	return nil, nil
}

func (f *fakeConfig) GetClosures(context.Context, int, *uuid.UUID) ([]external.Closure, error) {
	return nil, nil
}

func (f *fakeConfig) GetWorkWeekProfile(context.Context, *uuid.UUID) (*external.WorkWeekProfile, error) {
	return nil, ErrNotFoundFake
}

// fakeDirectory is a minimal external.Directory the leave tests don't
// exercise beyond satisfying workflow.Service's dependency.
type fakeDirectory struct{}

func (fakeDirectory) GetUser(context.Context, uuid.UUID) (*external.User, error) { return nil, ErrNotFoundFake }
func (fakeDirectory) GetUsers(context.Context, external.UserFilter) ([]external.User, error) {
	return nil, nil
}
func (fakeDirectory) GetSubordinates(context.Context, uuid.UUID) ([]external.User, error) {
	return nil, nil
}
func (fakeDirectory) GetApprovers(context.Context) ([]external.User, error) { return nil, nil }
func (fakeDirectory) GetDepartment(context.Context, uuid.UUID) (*external.Department, error) {
	return nil, ErrNotFoundFake
}
func (fakeDirectory) GetService(context.Context, uuid.UUID) (*external.Service, error) {
	return nil, ErrNotFoundFake
}

// fakeNotifier records every event fired.
type fakeNotifier struct {
	mu     sync.Mutex
	events []external.Event
}

func (f *fakeNotifier) Notify(_ context.Context, event external.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

// fakeAudit records every audit entry.
type fakeAudit struct {
	mu      sync.Mutex
	entries []external.AuditEntry
}

func (f *fakeAudit) LogAction(_ context.Context, entry external.AuditEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, entry)
	return nil
}

// fakeWorkflowConfigs/fakeApprovalRequests/etc. back workflow.Service so
// Submit's hand-off path can be exercised without a database.
type fakeWorkflowConfigs struct {
	configs []model.WorkflowConfig
}

func (f *fakeWorkflowConfigs) ListCandidatesForEntityType(context.Context, string) ([]model.WorkflowConfig, error) {
	return f.configs, nil
}

func (f *fakeWorkflowConfigs) GetByID(_ context.Context, id uuid.UUID) (*model.WorkflowConfig, error) {
	for i := range f.configs {
		if f.configs[i].ID == id {
			return &f.configs[i], nil
		}
	}
	return nil, ErrNotFoundFake
}

type fakeApprovalRequests struct {
	mu   sync.Mutex
	byID map[uuid.UUID]*model.ApprovalRequest
}

func newFakeApprovalRequests() *fakeApprovalRequests {
	return &fakeApprovalRequests{byID: make(map[uuid.UUID]*model.ApprovalRequest)}
}

func (f *fakeApprovalRequests) Create(_ context.Context, req *model.ApprovalRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	clone := *req
	f.byID[req.ID] = &clone
	return nil
}

func (f *fakeApprovalRequests) GetByIDForUpdate(_ context.Context, _ *gorm.DB, id uuid.UUID) (*model.ApprovalRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	req, ok := f.byID[id]
	if !ok {
		return nil, ErrNotFoundFake
	}
	clone := *req
	return &clone, nil
}

func (f *fakeApprovalRequests) UpdateTx(_ context.Context, _ *gorm.DB, req *model.ApprovalRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	clone := *req
	f.byID[req.ID] = &clone
	return nil
}

func (f *fakeApprovalRequests) GetPendingByEntity(_ context.Context, entityType string, entityID uuid.UUID) (*model.ApprovalRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, req := range f.byID {
		if req.EntityType == entityType && req.EntityID == entityID && req.Status == model.ApprovalStatusPending {
			clone := *req
			return &clone, nil
		}
	}
	return nil, nil
}

func (f *fakeApprovalRequests) ListExpiring(context.Context, int) ([]model.ApprovalRequest, error) {
	return nil, nil
}

type fakeApprovalDecisions struct{}

func (fakeApprovalDecisions) CreateMany(context.Context, *gorm.DB, []model.ApprovalDecision) error {
	return nil
}
func (fakeApprovalDecisions) ListByRequestTx(context.Context, *gorm.DB, uuid.UUID) ([]model.ApprovalDecision, error) {
	return nil, nil
}
func (fakeApprovalDecisions) ListByRequest(context.Context, uuid.UUID) ([]model.ApprovalDecision, error) {
	return nil, nil
}
func (fakeApprovalDecisions) GetByRequestAndApprover(context.Context, *gorm.DB, uuid.UUID, uuid.UUID) (*model.ApprovalDecision, error) {
	return nil, ErrNotFoundFake
}
func (fakeApprovalDecisions) UpdateTx(context.Context, *gorm.DB, *model.ApprovalDecision) error {
	return nil
}

type fakeApprovalHistory struct{}

func (fakeApprovalHistory) AppendTx(context.Context, *gorm.DB, *model.ApprovalHistory) error {
	return nil
}

type fakeApprovalReminders struct{}

func (fakeApprovalReminders) CreateManyTx(context.Context, *gorm.DB, []model.ApprovalReminder) error {
	return nil
}
func (fakeApprovalReminders) CancelUnsentByRequestTx(context.Context, *gorm.DB, uuid.UUID) error {
	return nil
}

func mustJSON(v any) jsonBytes {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}

type jsonBytes = []byte

func registerVacationStrategy(engine *policy.Engine) {
	engine.Register(strategy.Vacation{})
}

func newVacationLeaveType(id uuid.UUID, requiresApproval bool) external.LeaveTypeConfig {
	return external.LeaveTypeConfig{
		ID:                   id,
		Code:                 "vacation",
		RequiresApproval:     requiresApproval,
		AllowPastDates:       true,
		AllowNegativeBalance: false,
	}
}
