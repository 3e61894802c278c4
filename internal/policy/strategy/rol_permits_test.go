package strategy_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cristian75IT/kronos-core/internal/external"
	"github.com/cristian75IT/kronos-core/internal/model"
	"github.com/cristian75IT/kronos-core/internal/policy"
	"github.com/cristian75IT/kronos-core/internal/policy/strategy"
)

func TestROL_WithinBalance(t *testing.T) {
	s := strategy.ROL{}
	result, err := s.Validate(context.Background(), policy.Input{
		Request:      baseRequest(),
		LeaveType:    external.LeaveTypeConfig{Code: "rol"},
		WorkingDays:  decimal.NewFromInt(2),
		Today:        time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
		AvailableROL: decimal.NewFromInt(5),
	})
	require.NoError(t, err)
	assert.True(t, result.IsValid)
	require.Len(t, result.BalanceBreakdown, 1)
	assert.Equal(t, model.BalanceTypeROL, result.BalanceBreakdown[0].BalanceType)
}

func TestROL_ExceedsBalanceRejected(t *testing.T) {
	s := strategy.ROL{}
	result, err := s.Validate(context.Background(), policy.Input{
		Request:      baseRequest(),
		LeaveType:    external.LeaveTypeConfig{Code: "rol"},
		WorkingDays:  decimal.NewFromInt(6),
		Today:        time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
		AvailableROL: decimal.NewFromInt(5),
	})
	require.NoError(t, err)
	assert.False(t, result.IsValid)
	assert.Contains(t, result.Errors, "insufficient balance")
}

func TestPermits_WithinBalance(t *testing.T) {
	s := strategy.Permits{}
	result, err := s.Validate(context.Background(), policy.Input{
		Request:       baseRequest(),
		LeaveType:     external.LeaveTypeConfig{Code: "permits"},
		WorkingDays:   decimal.NewFromInt(1),
		Today:         time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
		AvailablePerm: decimal.NewFromInt(3),
	})
	require.NoError(t, err)
	assert.True(t, result.IsValid)
	require.Len(t, result.BalanceBreakdown, 1)
	assert.Equal(t, model.BalanceTypePermits, result.BalanceBreakdown[0].BalanceType)
}

func TestPermits_AllowNegativeBalanceBypassesCap(t *testing.T) {
	s := strategy.Permits{}
	result, err := s.Validate(context.Background(), policy.Input{
		Request:       baseRequest(),
		LeaveType:     external.LeaveTypeConfig{Code: "permits", AllowNegativeBalance: true},
		WorkingDays:   decimal.NewFromInt(5),
		Today:         time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
		AvailablePerm: decimal.Zero,
	})
	require.NoError(t, err)
	assert.True(t, result.IsValid)
}
