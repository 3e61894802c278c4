package strategy

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/cristian75IT/kronos-core/internal/ledger"
	"github.com/cristian75IT/kronos-core/internal/model"
	"github.com/cristian75IT/kronos-core/internal/policy"
)

// ROL validates paid-leave-in-lieu-of-overtime requests against the single
// ROL bucket.
type ROL struct{}

func (ROL) Code() string { return "rol" }

func (ROL) Validate(_ context.Context, in policy.Input) (policy.Result, error) {
	return validateSingleBucket(in, model.BalanceTypeROL, in.AvailableROL), nil
}

// Permits validates short statutory-permit requests against the PERMITS
// bucket.
type Permits struct{}

func (Permits) Code() string { return "permits" }

func (Permits) Validate(_ context.Context, in policy.Input) (policy.Result, error) {
	return validateSingleBucket(in, model.BalanceTypePermits, in.AvailablePerm), nil
}

func validateSingleBucket(in policy.Input, bucket model.BalanceType, available decimal.Decimal) policy.Result {
	result := policy.Result{IsValid: true, RequiresApproval: in.LeaveType.RequiresApproval}
	result.Errors = append(result.Errors, policy.ValidateNoticeAndConsecutive(in)...)

	if in.WorkingDays.GreaterThan(available) && !in.LeaveType.AllowNegativeBalance {
		result.Errors = append(result.Errors, "insufficient balance")
	}

	result.BalanceBreakdown = []ledger.BucketAmount{{BalanceType: bucket, Days: in.WorkingDays}}
	if len(result.Errors) > 0 {
		result.IsValid = false
	}
	return result
}
