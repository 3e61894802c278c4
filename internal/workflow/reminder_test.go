package workflow_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cristian75IT/kronos-core/internal/external"
	"github.com/cristian75IT/kronos-core/internal/model"
	"github.com/cristian75IT/kronos-core/internal/workflow"
)

type fakeNotifier struct {
	events []external.Event
	fail   bool
}

func (f *fakeNotifier) Notify(_ context.Context, event external.Event) error {
	if f.fail {
		return assert.AnError
	}
	f.events = append(f.events, event)
	return nil
}

type fakeReminderRepo struct {
	due    []model.ApprovalReminder
	marked []uuid.UUID
}

func (f *fakeReminderRepo) ListDueUnsent(_ context.Context, limit int) ([]model.ApprovalReminder, error) {
	if limit > 0 && limit < len(f.due) {
		return f.due[:limit], nil
	}
	return f.due, nil
}

func (f *fakeReminderRepo) MarkSent(_ context.Context, id uuid.UUID) error {
	f.marked = append(f.marked, id)
	return nil
}

type fakeReminderRequestRepo struct {
	requests map[uuid.UUID]*model.ApprovalRequest
}

func (f *fakeReminderRequestRepo) GetByID(_ context.Context, id uuid.UUID) (*model.ApprovalRequest, error) {
	req, ok := f.requests[id]
	if !ok {
		return nil, assert.AnError
	}
	return req, nil
}

func TestDispatchReminders_NotifiesOnlyForStillPendingRequests(t *testing.T) {
	pendingReq := &model.ApprovalRequest{BaseModel: model.BaseModel{ID: uuid.New()}, Status: model.ApprovalStatusPending}
	resolvedReq := &model.ApprovalRequest{BaseModel: model.BaseModel{ID: uuid.New()}, Status: model.ApprovalStatusApproved}

	reminders := &fakeReminderRepo{due: []model.ApprovalReminder{
		{BaseModel: model.BaseModel{ID: uuid.New()}, RequestID: pendingReq.ID, ApproverID: uuid.New(), ReminderType: model.ReminderTypeFirst},
		{BaseModel: model.BaseModel{ID: uuid.New()}, RequestID: resolvedReq.ID, ApproverID: uuid.New(), ReminderType: model.ReminderTypeFinal},
	}}
	requests := &fakeReminderRequestRepo{requests: map[uuid.UUID]*model.ApprovalRequest{
		pendingReq.ID:  pendingReq,
		resolvedReq.ID: resolvedReq,
	}}
	notifier := &fakeNotifier{}

	dispatched, err := workflow.DispatchReminders(context.Background(), reminders, requests, notifier, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, dispatched)
	assert.Len(t, notifier.events, 1)
	assert.Len(t, reminders.marked, 2, "both rows flip to sent even though only one notifies")
}

func TestDispatchReminders_NotifyFailureStillMarksSent(t *testing.T) {
	req := &model.ApprovalRequest{BaseModel: model.BaseModel{ID: uuid.New()}, Status: model.ApprovalStatusPending}
	reminderID := uuid.New()
	reminders := &fakeReminderRepo{due: []model.ApprovalReminder{
		{BaseModel: model.BaseModel{ID: reminderID}, RequestID: req.ID, ApproverID: uuid.New(), ReminderType: model.ReminderTypeFirst},
	}}
	requests := &fakeReminderRequestRepo{requests: map[uuid.UUID]*model.ApprovalRequest{req.ID: req}}
	notifier := &fakeNotifier{fail: true}

	dispatched, err := workflow.DispatchReminders(context.Background(), reminders, requests, notifier, 10)
	require.NoError(t, err)
	assert.Equal(t, 0, dispatched)
	assert.Equal(t, []uuid.UUID{reminderID}, reminders.marked)
}

