package strategy

import (
	"context"

	"github.com/cristian75IT/kronos-core/internal/policy"
)

// Sick validates INPS-protocolled sick leave. It consumes no leave balance
// bucket: sick days are tracked separately by payroll, so the policy
// engine's own protocol-requirement check (driven by the leave type's
// requires_protocol flag) is the governing rule here.
type Sick struct{}

func (Sick) Code() string { return "sick" }

func (Sick) Validate(_ context.Context, in policy.Input) (policy.Result, error) {
	result := policy.Result{IsValid: true, RequiresApproval: in.LeaveType.RequiresApproval}
	result.Errors = append(result.Errors, policy.ValidateNoticeAndConsecutive(in)...)
	if len(result.Errors) > 0 {
		result.IsValid = false
	}
	return result, nil
}

// Unpaid validates unpaid leave of absence: no balance bucket, no min
// notice enforcement beyond what the leave type configures, approval
// always required regardless of the config flag (an employer signs off on
// every unpaid absence).
type Unpaid struct{}

func (Unpaid) Code() string { return "unpaid" }

func (Unpaid) Validate(_ context.Context, in policy.Input) (policy.Result, error) {
	result := policy.Result{IsValid: true, RequiresApproval: true}
	result.Errors = append(result.Errors, policy.ValidateNoticeAndConsecutive(in)...)
	if len(result.Errors) > 0 {
		result.IsValid = false
	}
	return result, nil
}
