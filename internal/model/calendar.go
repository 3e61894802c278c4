package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// WorkWeekProfile maps weekday 0..6 (Sunday=0) to a working/hours rule.
type WorkWeekProfile struct {
	BaseModel
	Name      string         `gorm:"type:varchar(200);not null" json:"name"`
	IsDefault bool           `gorm:"not null;default:false" json:"is_default"`
	Days      datatypes.JSON `gorm:"type:jsonb;not null" json:"days"` // WeekdayRule per weekday, see WeekdayRule
}

func (WorkWeekProfile) TableName() string { return "calendar.work_week_profiles" }

// WeekdayRule is the decoded shape of WorkWeekProfile.Days[weekday].
type WeekdayRule struct {
	IsWorking bool            `json:"is_working"`
	Hours     decimal.Decimal `json:"hours"`
}

// HolidayRuleType is the closed set of CalendarHoliday recurrence forms.
type HolidayRuleType string

const (
	HolidayRuleFixed         HolidayRuleType = "fixed"
	HolidayRuleYearly        HolidayRuleType = "yearly"
	HolidayRuleEasterRelative HolidayRuleType = "easter_relative"
)

// HolidayProfile groups a set of CalendarHoliday rules that a
// LocationCalendar can subscribe to.
type HolidayProfile struct {
	BaseModel
	Name string `gorm:"type:varchar(200);not null" json:"name"`
}

func (HolidayProfile) TableName() string { return "calendar.holiday_profiles" }

// CalendarHoliday is a single rule within a HolidayProfile. Depending on
// RuleType, Year/Month/Day or Offset apply (spec §3, §4.4):
//   - fixed:           FixedDate set, Year matched against the queried year
//   - yearly:          Month+Day, recurs every year
//   - easter_relative: Offset days added to Western Easter Sunday
type CalendarHoliday struct {
	BaseModel
	HolidayProfileID uuid.UUID       `gorm:"type:uuid;not null;index" json:"holiday_profile_id"`
	Name             string          `gorm:"type:varchar(200);not null" json:"name"`
	RuleType         HolidayRuleType `gorm:"type:varchar(20);not null" json:"rule_type"`
	FixedDate        *time.Time      `gorm:"type:date" json:"fixed_date,omitempty"`
	Month            *int            `json:"month,omitempty"`
	Day              *int            `json:"day,omitempty"`
	Offset           *int            `json:"offset,omitempty"`
}

func (CalendarHoliday) TableName() string { return "calendar.holidays" }

// CalendarClosure is an employer-declared company-wide non-working range.
type CalendarClosure struct {
	BaseModel
	Name                  string     `gorm:"type:varchar(200);not null" json:"name"`
	StartDate             time.Time  `gorm:"type:date;not null" json:"start_date"`
	EndDate               time.Time  `gorm:"type:date;not null" json:"end_date"`
	DepartmentID          *uuid.UUID `gorm:"type:uuid" json:"department_id,omitempty"`
	LocationID            *uuid.UUID `gorm:"type:uuid" json:"location_id,omitempty"`
	IsPaid                bool       `gorm:"not null;default:true" json:"is_paid"`
	ConsumesLeaveBalance  bool       `gorm:"not null;default:false" json:"consumes_leave_balance"`
	LeaveTypeCode         *string    `gorm:"type:varchar(50)" json:"leave_type_code,omitempty"`
}

func (CalendarClosure) TableName() string { return "calendar.closures" }

// Overlaps reports whether the closure intersects [from,to], inclusive.
func (c *CalendarClosure) Overlaps(from, to time.Time) bool {
	return !c.EndDate.Before(from) && !c.StartDate.After(to)
}

// WorkingDayExceptionType is the closed set of WorkingDayException overrides.
type WorkingDayExceptionType string

const (
	ExceptionWorking    WorkingDayExceptionType = "working"
	ExceptionNonWorking WorkingDayExceptionType = "non_working"
)

// WorkingDayException overrides the weekly profile/holiday set for a single
// date, optionally scoped to a location/department.
type WorkingDayException struct {
	BaseModel
	Date         time.Time               `gorm:"type:date;not null;index" json:"date"`
	ExceptionType WorkingDayExceptionType `gorm:"type:varchar(20);not null" json:"exception_type"`
	LocationID   *uuid.UUID              `gorm:"type:uuid" json:"location_id,omitempty"`
	DepartmentID *uuid.UUID              `gorm:"type:uuid" json:"department_id,omitempty"`
}

func (WorkingDayException) TableName() string { return "calendar.working_day_exceptions" }

// LocationCalendar links a location (nil = default/tenant-wide) to a
// WorkWeekProfile and a set of subscribed HolidayProfiles.
type LocationCalendar struct {
	BaseModel
	LocationID        *uuid.UUID  `gorm:"type:uuid;uniqueIndex" json:"location_id,omitempty"`
	WorkWeekProfileID uuid.UUID   `gorm:"type:uuid;not null" json:"work_week_profile_id"`
	HolidayProfileIDs []uuid.UUID `gorm:"-" json:"holiday_profile_ids"` // resolved via join table, see repository
}

func (LocationCalendar) TableName() string { return "calendar.location_calendars" }

// LocationCalendarHolidayProfile is the join table backing
// LocationCalendar.HolidayProfileIDs.
type LocationCalendarHolidayProfile struct {
	LocationCalendarID uuid.UUID `gorm:"type:uuid;primaryKey"`
	HolidayProfileID   uuid.UUID `gorm:"type:uuid;primaryKey"`
}

func (LocationCalendarHolidayProfile) TableName() string {
	return "calendar.location_calendar_holiday_profiles"
}
