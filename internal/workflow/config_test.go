package workflow_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cristian75IT/kronos-core/internal/model"
	"github.com/cristian75IT/kronos-core/internal/workflow"
)

type fakeConfigRepo struct {
	byID map[uuid.UUID]*model.WorkflowConfig
}

func newFakeConfigRepo() *fakeConfigRepo {
	return &fakeConfigRepo{byID: make(map[uuid.UUID]*model.WorkflowConfig)}
}

func (f *fakeConfigRepo) Create(_ context.Context, cfg *model.WorkflowConfig) error {
	if cfg.ID == uuid.Nil {
		cfg.ID = uuid.New()
	}
	clone := *cfg
	f.byID[cfg.ID] = &clone
	return nil
}

func (f *fakeConfigRepo) Update(_ context.Context, cfg *model.WorkflowConfig) error {
	clone := *cfg
	f.byID[cfg.ID] = &clone
	return nil
}

func (f *fakeConfigRepo) Deactivate(_ context.Context, id uuid.UUID) error {
	cfg, ok := f.byID[id]
	if !ok {
		return assert.AnError
	}
	cfg.IsActive = false
	return nil
}

func (f *fakeConfigRepo) ListByEntityType(_ context.Context, entityType string) ([]model.WorkflowConfig, error) {
	var out []model.WorkflowConfig
	for _, cfg := range f.byID {
		if cfg.EntityType == entityType {
			out = append(out, *cfg)
		}
	}
	return out, nil
}

func TestConfigService_CreateUpdateAndDeactivate(t *testing.T) {
	repo := newFakeConfigRepo()
	audit := fakeDecisionAudit{}
	svc := workflow.NewConfigService(repo, audit)
	actorID := uuid.New()

	created, err := svc.CreateConfig(context.Background(), actorID, &model.WorkflowConfig{
		EntityType:   "leave_request",
		Name:         "Default vacation workflow",
		MinApprovers: 1,
		MaxApprovers: 1,
		ApprovalMode: model.ApprovalModeAny,
		IsActive:     true,
	})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, created.ID)

	created.Name = "Updated vacation workflow"
	updated, err := svc.UpdateConfig(context.Background(), actorID, created)
	require.NoError(t, err)
	assert.Equal(t, "Updated vacation workflow", updated.Name)

	err = svc.DeactivateConfig(context.Background(), actorID, created.ID)
	require.NoError(t, err)
	assert.False(t, repo.byID[created.ID].IsActive, "deactivate must flip is_active, never delete the row")

	cfgs, err := svc.ListConfigsForEntityType(context.Background(), "leave_request")
	require.NoError(t, err)
	require.Len(t, cfgs, 1, "deactivated configs must still be listed, not removed")
}

func TestConfigService_RejectsMaxApproversBelowMin(t *testing.T) {
	svc := workflow.NewConfigService(newFakeConfigRepo(), fakeDecisionAudit{})
	_, err := svc.CreateConfig(context.Background(), uuid.New(), &model.WorkflowConfig{
		EntityType:   "leave_request",
		MinApprovers: 2,
		MaxApprovers: 1,
	})
	assert.Error(t, err)
}
