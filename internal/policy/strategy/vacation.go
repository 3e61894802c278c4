// Package strategy holds the built-in per-leave-type-code policy
// strategies (spec §4.3, §9).
package strategy

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/cristian75IT/kronos-core/internal/ledger"
	"github.com/cristian75IT/kronos-core/internal/model"
	"github.com/cristian75IT/kronos-core/internal/policy"
)

// Vacation validates ordinary paid vacation requests, deducting AP
// (previous-year carry-over) before AC (current accrual) per spec §4.3's
// "the buckets enforce the deduction order (AP before AC, oldest first)".
type Vacation struct{}

func (Vacation) Code() string { return "vacation" }

func (Vacation) Validate(_ context.Context, in policy.Input) (policy.Result, error) {
	result := policy.Result{IsValid: true, RequiresApproval: in.LeaveType.RequiresApproval}
	result.Errors = append(result.Errors, policy.ValidateNoticeAndConsecutive(in)...)

	remaining := in.WorkingDays
	var breakdown []ledger.BucketAmount

	fromAP := decimal.Min(remaining, in.AvailableAP)
	if fromAP.IsPositive() {
		breakdown = append(breakdown, ledger.BucketAmount{BalanceType: model.BalanceTypeVacationAP, Days: fromAP})
		remaining = remaining.Sub(fromAP)
	}
	if remaining.IsPositive() {
		fromAC := remaining
		if !in.LeaveType.AllowNegativeBalance {
			fromAC = decimal.Min(remaining, in.AvailableAC)
		}
		breakdown = append(breakdown, ledger.BucketAmount{BalanceType: model.BalanceTypeVacationAC, Days: fromAC})
		remaining = remaining.Sub(fromAC)
	}

	if remaining.IsPositive() && !in.LeaveType.AllowNegativeBalance {
		result.IsValid = false
		result.Errors = append(result.Errors, "insufficient vacation balance")
	}

	result.BalanceBreakdown = breakdown
	if len(result.Errors) > 0 {
		result.IsValid = false
	}
	return result, nil
}
