package strategy

import (
	"context"

	"github.com/cristian75IT/kronos-core/internal/ledger"
	"github.com/cristian75IT/kronos-core/internal/model"
	"github.com/cristian75IT/kronos-core/internal/policy"
)

// Parental validates statutory parental leave against the PERMITS bucket,
// the closest fit among the four buckets for CCNL-governed parental-leave
// entitlements tracked outside vacation accrual.
type Parental struct{}

func (Parental) Code() string { return "parental" }

func (Parental) Validate(_ context.Context, in policy.Input) (policy.Result, error) {
	result := policy.Result{IsValid: true, RequiresApproval: in.LeaveType.RequiresApproval}
	result.Errors = append(result.Errors, policy.ValidateNoticeAndConsecutive(in)...)
	if in.WorkingDays.GreaterThan(in.AvailablePerm) && !in.LeaveType.AllowNegativeBalance {
		result.Errors = append(result.Errors, "insufficient balance")
	}
	result.BalanceBreakdown = []ledger.BucketAmount{{BalanceType: model.BalanceTypePermits, Days: in.WorkingDays}}
	if len(result.Errors) > 0 {
		result.IsValid = false
	}
	return result, nil
}
