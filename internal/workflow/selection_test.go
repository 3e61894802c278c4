package workflow_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/cristian75IT/kronos-core/internal/corekit"
	"github.com/cristian75IT/kronos-core/internal/model"
	"github.com/cristian75IT/kronos-core/internal/workflow"
)

func conditions(t *testing.T, v any) datatypes.JSON {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return datatypes.JSON(raw)
}

func TestSelectWorkflow_MatchesByAmountRange(t *testing.T) {
	candidates := []model.WorkflowConfig{
		{
			Name:     "low-value",
			Priority: 10,
			Conditions: conditions(t, map[string]any{
				"max_amount": "1000",
			}),
		},
		{
			Name:     "high-value",
			Priority: 20,
			Conditions: conditions(t, map[string]any{
				"min_amount": "1000.01",
			}),
		},
	}

	got, err := workflow.SelectWorkflow(candidates, workflow.EntityData{"amount": "1500"})
	require.NoError(t, err)
	assert.Equal(t, "high-value", got.Name)
}

func TestSelectWorkflow_MissingFieldDefaultsToZero(t *testing.T) {
	candidates := []model.WorkflowConfig{
		{
			Name:       "requires-positive-amount",
			Conditions: conditions(t, map[string]any{"min_amount": "1"}),
		},
	}

	_, err := workflow.SelectWorkflow(candidates, workflow.EntityData{})
	var coreErr *corekit.CoreError
	require.True(t, errors.As(err, &coreErr))
	assert.Equal(t, corekit.KindNoWorkflowConfigured, coreErr.Kind)
}

func TestSelectWorkflow_FallsBackToDefault(t *testing.T) {
	candidates := []model.WorkflowConfig{
		{
			Name:       "specific",
			Conditions: conditions(t, map[string]any{"departments": []string{"LEGAL"}}),
		},
		{
			Name:      "catch-all",
			IsDefault: true,
		},
	}

	got, err := workflow.SelectWorkflow(candidates, workflow.EntityData{"department": "SALES"})
	require.NoError(t, err)
	assert.Equal(t, "catch-all", got.Name)
}

func TestSelectWorkflow_NoMatchNoDefaultErrors(t *testing.T) {
	candidates := []model.WorkflowConfig{
		{Name: "specific", Conditions: conditions(t, map[string]any{"departments": []string{"LEGAL"}})},
	}

	_, err := workflow.SelectWorkflow(candidates, workflow.EntityData{"department": "SALES"})
	var coreErr *corekit.CoreError
	require.True(t, errors.As(err, &coreErr))
	assert.Equal(t, corekit.KindNoWorkflowConfigured, coreErr.Kind)
}

func TestSelectWorkflow_EntitySubtypeAndDepartmentBothRequired(t *testing.T) {
	candidates := []model.WorkflowConfig{
		{
			Name: "matches-both",
			Conditions: conditions(t, map[string]any{
				"entity_subtypes": []string{"VACATION"},
				"departments":     []string{"SALES"},
			}),
		},
	}

	_, err := workflow.SelectWorkflow(candidates, workflow.EntityData{"subtype": "VACATION", "department": "LEGAL"})
	require.Error(t, err)

	got, err := workflow.SelectWorkflow(candidates, workflow.EntityData{"subtype": "VACATION", "department": "SALES"})
	require.NoError(t, err)
	assert.Equal(t, "matches-both", got.Name)
}

func TestSelectWorkflow_EmptyConditionsMatchesAnything(t *testing.T) {
	candidates := []model.WorkflowConfig{{Name: "catch-all"}}

	got, err := workflow.SelectWorkflow(candidates, workflow.EntityData{"amount": "999999"})
	require.NoError(t, err)
	assert.Equal(t, "catch-all", got.Name)
}
