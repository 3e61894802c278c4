package calendar

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cristian75IT/kronos-core/internal/model"
)

// WeekdaySchedule maps a weekday to its working/hours rule, decoded from a
// WorkWeekProfile's Days JSON column (spec §3).
type WeekdaySchedule map[time.Weekday]model.WeekdayRule

// DecodeWorkWeekProfile unmarshals Days (keyed by weekday number, "0"=Sunday
// through "6"=Saturday) into a WeekdaySchedule.
func DecodeWorkWeekProfile(profile *model.WorkWeekProfile) (WeekdaySchedule, error) {
	raw := map[string]model.WeekdayRule{}
	if err := json.Unmarshal(profile.Days, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode work week profile %s: %w", profile.ID, err)
	}
	schedule := make(WeekdaySchedule, len(raw))
	for key, rule := range raw {
		var weekday int
		if _, err := fmt.Sscanf(key, "%d", &weekday); err != nil {
			return nil, fmt.Errorf("work week profile %s: invalid weekday key %q", profile.ID, key)
		}
		schedule[time.Weekday(weekday)] = rule
	}
	return schedule, nil
}

// DefaultWeekdaySchedule is the built-in Monday-Friday fallback used when no
// profile is configured at all (spec §4.4 step 1).
func DefaultWeekdaySchedule() WeekdaySchedule {
	full := decimal.NewFromInt(8)
	return WeekdaySchedule{
		time.Sunday:    {IsWorking: false},
		time.Monday:    {IsWorking: true, Hours: full},
		time.Tuesday:   {IsWorking: true, Hours: full},
		time.Wednesday: {IsWorking: true, Hours: full},
		time.Thursday:  {IsWorking: true, Hours: full},
		time.Friday:    {IsWorking: true, Hours: full},
		time.Saturday:  {IsWorking: false},
	}
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// IsHoliday reports whether date matches any expanded holiday occurrence.
// Feb 29 occurrences that were never generated for a non-leap year simply
// never appear in the slice (spec §4.4).
func IsHoliday(date time.Time, holidays []Occurrence) bool {
	for _, h := range holidays {
		if sameDate(date, h.Date) {
			return true
		}
	}
	return false
}

// IsWorkingDay evaluates spec §4.4 step 4's rule for a single calendar day:
// (weekly_profile.is_working || exception == working) && !is_holiday &&
// exception != non_working.
func IsWorkingDay(date time.Time, schedule WeekdaySchedule, holidays []Occurrence, exceptions []model.WorkingDayException) bool {
	excWorking, excNonWorking := false, false
	for _, exc := range exceptions {
		if !sameDate(exc.Date, date) {
			continue
		}
		switch exc.ExceptionType {
		case model.ExceptionWorking:
			excWorking = true
		case model.ExceptionNonWorking:
			excNonWorking = true
		}
	}
	if excNonWorking {
		return false
	}
	if IsHoliday(date, holidays) {
		return false
	}
	profileWorking := schedule[date.Weekday()].IsWorking
	return profileWorking || excWorking
}

// WorkingDays computes the working-day count of the inclusive range
// [start, end], honoring half-day flags on the two endpoints only (spec
// §4.4). start must not be after end.
func WorkingDays(start, end time.Time, startHalf, endHalf bool, schedule WeekdaySchedule, holidays []Occurrence, exceptions []model.WorkingDayException) (decimal.Decimal, error) {
	start, end = dateOnly(start), dateOnly(end)
	if end.Before(start) {
		return decimal.Zero, fmt.Errorf("end date %s before start date %s", end.Format("2006-01-02"), start.Format("2006-01-02"))
	}

	total := decimal.Zero
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if !IsWorkingDay(d, schedule, holidays, exceptions) {
			continue
		}
		half := false
		if d.Equal(start) && startHalf {
			half = true
		}
		if d.Equal(end) && endHalf {
			half = true
		}
		if half {
			total = total.Add(decimal.NewFromFloat(0.5))
		} else {
			total = total.Add(decimal.NewFromInt(1))
		}
	}
	return total, nil
}
