// Package workflow is the generic, entity-agnostic Approval Workflow Engine
// (spec §4.1): workflow selection by predicate, approver assignment,
// multi-level decision tallying, expiration/escalation, reminders, and the
// resolution callback.
package workflow

import (
	"encoding/json"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"github.com/cristian75IT/kronos-core/internal/corekit"
	"github.com/cristian75IT/kronos-core/internal/model"
)

// EntityData is the caller-supplied bag of fields a workflow's Conditions
// predicate is matched against (spec §4.1 selection table).
type EntityData map[string]any

// predicate is the structured shape WorkflowConfig.Conditions decodes into.
type predicate struct {
	MinAmount      *decimal.Decimal `json:"min_amount,omitempty"`
	MaxAmount      *decimal.Decimal `json:"max_amount,omitempty"`
	MinDays        *decimal.Decimal `json:"min_days,omitempty"`
	MaxDays        *decimal.Decimal `json:"max_days,omitempty"`
	EntitySubtypes []string         `json:"entity_subtypes,omitempty"`
	Departments    []string         `json:"departments,omitempty"`
}

// SelectWorkflow picks the first active workflow (already ordered ascending
// by priority, non-default first) whose Conditions predicate matches, or
// falls back to the config flagged is_default. Returns NoWorkflowConfigured
// if neither yields a match (spec §4.1).
func SelectWorkflow(candidates []model.WorkflowConfig, data EntityData) (*model.WorkflowConfig, error) {
	var fallback *model.WorkflowConfig

	for i := range candidates {
		cfg := &candidates[i]
		if cfg.IsDefault {
			if fallback == nil {
				fallback = cfg
			}
			continue
		}
		matched, err := predicateMatches(cfg.Conditions, data)
		if err != nil {
			return nil, corekit.Wrap(corekit.KindValidationFailure, "invalid workflow conditions", err)
		}
		if matched {
			return cfg, nil
		}
	}

	if fallback != nil {
		return fallback, nil
	}
	return nil, corekit.New(corekit.KindNoWorkflowConfigured, "no workflow matched and no default is configured")
}

func predicateMatches(conditions datatypes.JSON, data EntityData) (bool, error) {
	if len(conditions) == 0 {
		return true, nil
	}
	var p predicate
	if err := json.Unmarshal(conditions, &p); err != nil {
		return false, err
	}

	if p.MinAmount != nil || p.MaxAmount != nil {
		if !numericInRange(data["amount"], p.MinAmount, p.MaxAmount) {
			return false, nil
		}
	}
	if p.MinDays != nil || p.MaxDays != nil {
		if !numericInRange(data["days"], p.MinDays, p.MaxDays) {
			return false, nil
		}
	}
	if len(p.EntitySubtypes) > 0 {
		subtype, ok := stringField(data, "subtype", "leave_type")
		if !ok || !contains(p.EntitySubtypes, subtype) {
			return false, nil
		}
	}
	if len(p.Departments) > 0 {
		dept, ok := stringField(data, "department")
		if !ok || !contains(p.Departments, dept) {
			return false, nil
		}
	}
	return true, nil
}

// numericInRange defaults a missing field to zero (spec §4.1: "range
// predicates against a missing field default the value to 0").
func numericInRange(raw any, min, max *decimal.Decimal) bool {
	value := decimal.Zero
	if raw != nil {
		if d, ok := toDecimal(raw); ok {
			value = d
		}
	}
	if min != nil && value.LessThan(*min) {
		return false
	}
	if max != nil && value.GreaterThan(*max) {
		return false
	}
	return true
}

func toDecimal(raw any) (decimal.Decimal, bool) {
	switch v := raw.(type) {
	case decimal.Decimal:
		return v, true
	case float64:
		return decimal.NewFromFloat(v), true
	case int:
		return decimal.NewFromInt(int64(v)), true
	case string:
		d, err := decimal.NewFromString(v)
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	default:
		return decimal.Zero, false
	}
}

// stringField returns the first present key's string value.
func stringField(data EntityData, keys ...string) (string, bool) {
	for _, key := range keys {
		raw, ok := data[key]
		if !ok {
			continue
		}
		s, ok := raw.(string)
		if !ok {
			continue
		}
		return s, true
	}
	return "", false
}

func contains(list []string, value string) bool {
	for _, v := range list {
		if v == value {
			return true
		}
	}
	return false
}
