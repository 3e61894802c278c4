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

func baseRequest() *model.LeaveRequest {
	return &model.LeaveRequest{
		StartDate: time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 6, 5, 0, 0, 0, 0, time.UTC),
	}
}

func TestVacation_SplitsAPThenAC(t *testing.T) {
	s := strategy.Vacation{}
	result, err := s.Validate(context.Background(), policy.Input{
		Request:     baseRequest(),
		LeaveType:   external.LeaveTypeConfig{Code: "vacation"},
		WorkingDays: decimal.NewFromInt(5),
		Today:       time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
		AvailableAP: decimal.NewFromInt(3),
		AvailableAC: decimal.NewFromInt(10),
	})
	require.NoError(t, err)
	require.True(t, result.IsValid)
	require.Len(t, result.BalanceBreakdown, 2)
	assert.Equal(t, model.BalanceTypeVacationAP, result.BalanceBreakdown[0].BalanceType)
	assert.True(t, decimal.NewFromInt(3).Equal(result.BalanceBreakdown[0].Days))
	assert.Equal(t, model.BalanceTypeVacationAC, result.BalanceBreakdown[1].BalanceType)
	assert.True(t, decimal.NewFromInt(2).Equal(result.BalanceBreakdown[1].Days))
}

func TestVacation_NoAPUsesOnlyAC(t *testing.T) {
	s := strategy.Vacation{}
	result, err := s.Validate(context.Background(), policy.Input{
		Request:     baseRequest(),
		LeaveType:   external.LeaveTypeConfig{Code: "vacation"},
		WorkingDays: decimal.NewFromInt(4),
		Today:       time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
		AvailableAP: decimal.Zero,
		AvailableAC: decimal.NewFromInt(10),
	})
	require.NoError(t, err)
	require.True(t, result.IsValid)
	require.Len(t, result.BalanceBreakdown, 1)
	assert.Equal(t, model.BalanceTypeVacationAC, result.BalanceBreakdown[0].BalanceType)
}

func TestVacation_InsufficientBalanceRejected(t *testing.T) {
	s := strategy.Vacation{}
	result, err := s.Validate(context.Background(), policy.Input{
		Request:     baseRequest(),
		LeaveType:   external.LeaveTypeConfig{Code: "vacation"},
		WorkingDays: decimal.NewFromInt(5),
		Today:       time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
		AvailableAP: decimal.Zero,
		AvailableAC: decimal.NewFromInt(2),
	})
	require.NoError(t, err)
	assert.False(t, result.IsValid)
	assert.Contains(t, result.Errors, "insufficient vacation balance")
}

func TestVacation_AllowNegativeBalanceOverridesCap(t *testing.T) {
	s := strategy.Vacation{}
	result, err := s.Validate(context.Background(), policy.Input{
		Request:     baseRequest(),
		LeaveType:   external.LeaveTypeConfig{Code: "vacation", AllowNegativeBalance: true},
		WorkingDays: decimal.NewFromInt(5),
		Today:       time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
		AvailableAP: decimal.Zero,
		AvailableAC: decimal.NewFromInt(2),
	})
	require.NoError(t, err)
	assert.True(t, result.IsValid)
	require.Len(t, result.BalanceBreakdown, 1)
	assert.True(t, decimal.NewFromInt(5).Equal(result.BalanceBreakdown[0].Days))
}

func TestVacation_MinNoticeDaysViolation(t *testing.T) {
	s := strategy.Vacation{}
	result, err := s.Validate(context.Background(), policy.Input{
		Request:     baseRequest(),
		LeaveType:   external.LeaveTypeConfig{Code: "vacation", MinNoticeDays: 30},
		WorkingDays: decimal.NewFromInt(5),
		Today:       time.Date(2026, 5, 30, 0, 0, 0, 0, time.UTC),
		AvailableAC: decimal.NewFromInt(10),
	})
	require.NoError(t, err)
	assert.False(t, result.IsValid)
}
