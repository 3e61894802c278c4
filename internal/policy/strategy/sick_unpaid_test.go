package strategy_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cristian75IT/kronos-core/internal/external"
	"github.com/cristian75IT/kronos-core/internal/policy"
	"github.com/cristian75IT/kronos-core/internal/policy/strategy"
)

func TestSick_NoBalanceBucketConsumed(t *testing.T) {
	s := strategy.Sick{}
	result, err := s.Validate(context.Background(), policy.Input{
		Request:     baseRequest(),
		LeaveType:   external.LeaveTypeConfig{Code: "sick", RequiresApproval: false},
		WorkingDays: decimal.NewFromInt(3),
		Today:       time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.True(t, result.IsValid)
	assert.Empty(t, result.BalanceBreakdown)
	assert.False(t, result.RequiresApproval)
}

func TestUnpaid_AlwaysRequiresApproval(t *testing.T) {
	s := strategy.Unpaid{}
	result, err := s.Validate(context.Background(), policy.Input{
		Request:     baseRequest(),
		LeaveType:   external.LeaveTypeConfig{Code: "unpaid", RequiresApproval: false},
		WorkingDays: decimal.NewFromInt(3),
		Today:       time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.True(t, result.IsValid)
	assert.Empty(t, result.BalanceBreakdown)
	assert.True(t, result.RequiresApproval)
}
