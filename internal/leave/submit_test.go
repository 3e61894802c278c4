package leave_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cristian75IT/kronos-core/internal/external"
	"github.com/cristian75IT/kronos-core/internal/ledger"
	"github.com/cristian75IT/kronos-core/internal/leave"
	"github.com/cristian75IT/kronos-core/internal/model"
	"github.com/cristian75IT/kronos-core/internal/policy"
	"github.com/cristian75IT/kronos-core/internal/workflow"
)

func seedBalance(d *testDeps, userID uuid.UUID, year int, apTotal string) {
	total, _ := decimal.NewFromString(apTotal)
	bal := &model.LeaveBalance{UserID: userID, Year: year, VacationAPTotal: total}
	d.balances.snapshots[userID] = bal
	d.ledgerRepo.seed(bal)
}

func TestSubmit_AutoApprovesWhenLeaveTypeDoesNotRequireApproval(t *testing.T) {
	d := newTestDeps(t)
	leaveTypeID := uuid.New()
	d.config.add(newVacationLeaveType(leaveTypeID, false))
	userID := uuid.New()
	seedBalance(d, userID, 2026, "20")

	req, err := d.svc.Create(context.Background(), leave.CreateInput{
		UserID:        userID,
		LeaveTypeID:   leaveTypeID,
		LeaveTypeCode: "vacation",
		StartDate:     time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC),
		EndDate:       time.Date(2026, 8, 7, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	result, err := d.svc.Submit(context.Background(), req.ID, userID)
	require.NoError(t, err)
	assert.Equal(t, model.LeaveStatusApproved, result.Request.Status)
	assert.True(t, result.Request.BalanceDeducted)

	stored, err := d.requests.GetByID(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, model.LeaveStatusApproved, stored.Status)

	require.Len(t, d.notifier.events, 1)
	assert.Equal(t, external.EventLeaveApproved, d.notifier.events[0].Type)
}

func TestSubmit_RejectsWrongStatus(t *testing.T) {
	d := newTestDeps(t)
	leaveTypeID := uuid.New()
	d.config.add(newVacationLeaveType(leaveTypeID, false))
	userID := uuid.New()
	seedBalance(d, userID, 2026, "20")

	req, err := d.svc.Create(context.Background(), leave.CreateInput{
		UserID:        userID,
		LeaveTypeID:   leaveTypeID,
		LeaveTypeCode: "vacation",
		StartDate:     time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC),
		EndDate:       time.Date(2026, 8, 7, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	_, err = d.svc.Submit(context.Background(), req.ID, userID)
	require.NoError(t, err)

	_, err = d.svc.Submit(context.Background(), req.ID, userID)
	assert.ErrorIs(t, err, leave.ErrWrongStatus)
}

func TestSubmit_HandsOffToWorkflowWhenApprovalRequired(t *testing.T) {
	d := newTestDeps(t)
	leaveTypeID := uuid.New()
	d.config.add(newVacationLeaveType(leaveTypeID, true))
	userID := uuid.New()
	seedBalance(d, userID, 2026, "20")

	workflowConfigs := &fakeWorkflowConfigs{configs: []model.WorkflowConfig{
		{
			BaseModel:        model.BaseModel{ID: uuid.New()},
			EntityType:       "leave_request",
			Name:             "vacation approval",
			MinApprovers:     1,
			MaxApprovers:     1,
			ApprovalMode:     model.ApprovalModeSequential,
			IsActive:         true,
			IsDefault:        true,
			Priority:         1,
			AutoAssignApprovers: false,
		},
	}}
	workflowSvc := workflow.NewService(
		newGormDB(t),
		workflowConfigs,
		newFakeApprovalRequests(),
		fakeApprovalDecisions{},
		fakeApprovalHistory{},
		fakeApprovalReminders{},
		fakeDirectory{},
		d.notifier,
		d.audit,
		nil,
	)

	svc := leave.NewService(
		newGormDB(t),
		d.requests,
		d.interruptions,
		d.balances,
		fakeCalendar{},
		ledger.NewService(d.ledgerRepo),
		func() *policy.Engine {
			e := policy.NewEngine()
			registerVacationStrategy(e)
			return e
		}(),
		workflowSvc,
		d.config,
		fakeDirectory{},
		d.notifier,
		d.audit,
	)

	req, err := svc.Create(context.Background(), leave.CreateInput{
		UserID:        userID,
		LeaveTypeID:   leaveTypeID,
		LeaveTypeCode: "vacation",
		StartDate:     time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC),
		EndDate:       time.Date(2026, 8, 7, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	result, err := svc.Submit(context.Background(), req.ID, userID)
	require.NoError(t, err)
	assert.Equal(t, model.LeaveStatusPending, result.Request.Status)
	assert.NotNil(t, result.Request.ApprovalRequestID)
}
