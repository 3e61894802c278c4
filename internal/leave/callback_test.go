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
	"github.com/cristian75IT/kronos-core/internal/model"
	"github.com/cristian75IT/kronos-core/internal/workflow"
)

func seedPendingRequest(t *testing.T, d *testDeps, userID uuid.UUID, days string) *model.LeaveRequest {
	t.Helper()
	daysDec, _ := decimal.NewFromString(days)
	req := &model.LeaveRequest{
		UserID:            userID,
		LeaveTypeCode:     "vacation",
		Status:            model.LeaveStatusPending,
		StartDate:         time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC),
		EndDate:           time.Date(2026, 8, 7, 0, 0, 0, 0, time.UTC),
		DaysRequested:     daysDec,
		DeductionDetails:  mustJSON([]ledger.BucketAmount{{BalanceType: model.BalanceTypeVacationAP, Days: daysDec}}),
		ApprovalRequestID: uuidPtr(uuid.New()),
	}
	require.NoError(t, d.requests.Create(context.Background(), req))
	return req
}

func uuidPtr(id uuid.UUID) *uuid.UUID { return &id }

func TestHandleApprovalCallback_ApprovedDeductsBalance(t *testing.T) {
	d := newTestDeps(t)
	userID := uuid.New()
	seedBalance(d, userID, 2026, "20")
	req := seedPendingRequest(t, d, userID, "5")
	d.config.add(external.LeaveTypeConfig{ID: uuid.New(), Code: "vacation", AllowNegativeBalance: false})

	updated, err := d.svc.HandleApprovalCallback(context.Background(), workflow.CallbackPayload{
		EntityType: "leave_request",
		EntityID:   req.ID,
		Status:     model.ApprovalStatusApproved,
		ResolvedAt: time.Now().UTC(),
	})
	require.NoError(t, err)
	assert.Equal(t, model.LeaveStatusApproved, updated.Status)
	assert.True(t, updated.BalanceDeducted)

	require.Len(t, d.notifier.events, 1)
	assert.Equal(t, external.EventLeaveApproved, d.notifier.events[0].Type)
}

func TestHandleApprovalCallback_ConditionalStoresCondition(t *testing.T) {
	d := newTestDeps(t)
	userID := uuid.New()
	seedBalance(d, userID, 2026, "20")
	req := seedPendingRequest(t, d, userID, "5")
	d.config.add(external.LeaveTypeConfig{ID: uuid.New(), Code: "vacation"})

	condType := "SPLIT_SHIFT"
	updated, err := d.svc.HandleApprovalCallback(context.Background(), workflow.CallbackPayload{
		EntityType:       "leave_request",
		EntityID:         req.ID,
		Status:           model.ApprovalStatusApprovedConditional,
		ConditionType:    &condType,
		ConditionDetails: mustJSON(map[string]string{"note": "cover the morning shift"}),
	})
	require.NoError(t, err)
	assert.Equal(t, model.LeaveStatusApprovedConditional, updated.Status)
	assert.False(t, updated.BalanceDeducted)
	require.NotNil(t, updated.ConditionType)
	assert.Equal(t, condType, *updated.ConditionType)
}

func TestHandleApprovalCallback_RejectedDoesNotTouchBalance(t *testing.T) {
	d := newTestDeps(t)
	userID := uuid.New()
	seedBalance(d, userID, 2026, "20")
	req := seedPendingRequest(t, d, userID, "5")
	d.config.add(external.LeaveTypeConfig{ID: uuid.New(), Code: "vacation"})

	updated, err := d.svc.HandleApprovalCallback(context.Background(), workflow.CallbackPayload{
		EntityType: "leave_request",
		EntityID:   req.ID,
		Status:     model.ApprovalStatusRejected,
	})
	require.NoError(t, err)
	assert.Equal(t, model.LeaveStatusRejected, updated.Status)
	assert.False(t, updated.BalanceDeducted)
}
