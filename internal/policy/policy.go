// Package policy is the Leave Policy Engine (spec §4.3): a registry of
// per-leave-type-code strategies, combined by the engine with the common
// checks every leave type shares.
package policy

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cristian75IT/kronos-core/internal/external"
	"github.com/cristian75IT/kronos-core/internal/ledger"
	"github.com/cristian75IT/kronos-core/internal/model"
)

// Input is everything a Strategy needs to validate one prospective request.
type Input struct {
	Request         *model.LeaveRequest
	LeaveType       external.LeaveTypeConfig
	WorkingDays     decimal.Decimal
	Today           time.Time
	AvailableAP     decimal.Decimal
	AvailableAC     decimal.Decimal
	AvailableROL    decimal.Decimal
	AvailablePerm   decimal.Decimal
	MonthlyUsedDays decimal.Decimal // days of this leave type already used in the request's month, for max_per_month
}

// ValidateNoticeAndConsecutive applies the leave-type-driven checks shared
// by every strategy (spec §4.3: min_notice_days, max_consecutive_days,
// max_per_month, allow_past_dates).
func ValidateNoticeAndConsecutive(in Input) []string {
	var errs []string
	lt := in.LeaveType

	if !lt.AllowPastDates && in.Request.StartDate.Before(dateOnly(in.Today)) {
		errs = append(errs, "leave type does not allow past-dated requests")
	}
	if lt.MinNoticeDays > 0 {
		earliestAllowed := dateOnly(in.Today).AddDate(0, 0, lt.MinNoticeDays)
		if in.Request.StartDate.Before(earliestAllowed) {
			errs = append(errs, fmt.Sprintf("requires at least %d days advance notice", lt.MinNoticeDays))
		}
	}
	if lt.MaxConsecutiveDays > 0 {
		span := int(in.Request.EndDate.Sub(in.Request.StartDate).Hours()/24) + 1
		if span > lt.MaxConsecutiveDays {
			errs = append(errs, fmt.Sprintf("exceeds maximum of %d consecutive days", lt.MaxConsecutiveDays))
		}
	}
	if !lt.MaxPerMonth.IsZero() {
		projected := in.MonthlyUsedDays.Add(in.WorkingDays)
		if projected.GreaterThan(lt.MaxPerMonth) {
			errs = append(errs, fmt.Sprintf("exceeds monthly cap of %s days", lt.MaxPerMonth.String()))
		}
	}
	return errs
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Result is one strategy's (or the combined engine's) verdict (spec §4.3:
// "{is_valid, errors[], warnings[], requires_approval, balance_breakdown}").
type Result struct {
	IsValid          bool
	Errors           []string
	Warnings         []string
	RequiresApproval bool
	BalanceBreakdown []ledger.BucketAmount
}

// Strategy is a per-leave-type-code validator (spec §9: "a plain function
// or record with the validator signature").
type Strategy interface {
	Code() string
	Validate(ctx context.Context, in Input) (Result, error)
}

// Engine runs the common checks and then dispatches to the strategy
// registered for the request's leave type code.
type Engine struct {
	strategies map[string]Strategy
}

// NewEngine builds an engine with no strategies registered; callers
// register one per supported leave type code via Register.
func NewEngine() *Engine {
	return &Engine{strategies: make(map[string]Strategy)}
}

// Register adds or replaces the strategy for its Code(). Adding a new leave
// type is a registration, not a subclass (spec §9).
func (e *Engine) Register(s Strategy) {
	e.strategies[s.Code()] = s
}

// CommonCheckInput carries the data the engine itself checks before handing
// off to a strategy (spec §4.3: "overlap, dates ordered, protocol
// requirement").
type CommonCheckInput struct {
	Overlaps         bool
	ProtocolNumber   *string
	RequiresProtocol bool
}

// Evaluate runs the common checks, then the registered strategy for
// in.LeaveType.Code, combining both via AND on validity (warnings pass
// through regardless).
func (e *Engine) Evaluate(ctx context.Context, in Input, common CommonCheckInput) (Result, error) {
	result := Result{IsValid: true}

	if common.Overlaps {
		result.IsValid = false
		result.Errors = append(result.Errors, "request overlaps an existing non-terminal request")
	}
	if in.Request.EndDate.Before(in.Request.StartDate) {
		result.IsValid = false
		result.Errors = append(result.Errors, "end date precedes start date")
	}
	if common.RequiresProtocol && (common.ProtocolNumber == nil || *common.ProtocolNumber == "") {
		result.IsValid = false
		result.Errors = append(result.Errors, "protocol number is required for this leave type")
	}

	strategy, ok := e.strategies[in.LeaveType.Code]
	if !ok {
		return Result{}, fmt.Errorf("policy: no strategy registered for leave type code %q", in.LeaveType.Code)
	}
	strategyResult, err := strategy.Validate(ctx, in)
	if err != nil {
		return Result{}, fmt.Errorf("policy: strategy %q: %w", in.LeaveType.Code, err)
	}

	result.IsValid = result.IsValid && strategyResult.IsValid
	result.Errors = append(result.Errors, strategyResult.Errors...)
	result.Warnings = append(result.Warnings, strategyResult.Warnings...)
	result.RequiresApproval = strategyResult.RequiresApproval
	result.BalanceBreakdown = strategyResult.BalanceBreakdown

	return result, nil
}
