package external

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LeaveTypeConfig is the config collaborator's view of a leave type
// (spec §6).
type LeaveTypeConfig struct {
	ID                  uuid.UUID
	Code                string
	RequiresApproval    bool
	RequiresProtocol    bool
	AllowPastDates      bool
	AllowNegativeBalance bool
	MinNoticeDays       int
	MaxConsecutiveDays  int
	MaxPerMonth         decimal.Decimal
}

// Holiday is the config collaborator's flattened view of an expanded
// holiday occurrence for a given year/location.
type Holiday struct {
	Date time.Time
	Name string
}

// Closure mirrors model.CalendarClosure as seen by a collaborator.
type Closure struct {
	ID                   uuid.UUID
	Name                 string
	StartDate            time.Time
	EndDate              time.Time
	IsPaid               bool
	ConsumesLeaveBalance bool
	LeaveTypeCode        *string
}

// WorkWeekProfile is the config collaborator's view of a weekly schedule.
type WorkWeekProfile struct {
	ID   uuid.UUID
	Name string
}

// ConfigService is the read-only synchronous config collaborator (spec §6).
type ConfigService interface {
	GetLeaveType(ctx context.Context, id uuid.UUID) (*LeaveTypeConfig, error)
	GetLeaveTypeByCode(ctx context.Context, code string) (*LeaveTypeConfig, error)
	GetHolidays(ctx context.Context, year int, location *uuid.UUID) ([]Holiday, error)
	GetClosures(ctx context.Context, year int, location *uuid.UUID) ([]Closure, error)
	GetWorkWeekProfile(ctx context.Context, location *uuid.UUID) (*WorkWeekProfile, error)
}
