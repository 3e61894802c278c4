package calendar

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cristian75IT/kronos-core/internal/model"
	"github.com/cristian75IT/kronos-core/internal/repository"
)

// repo is the narrow slice of CalendarRepository Resolve needs: the weekly
// profile lookup chain (location → default → built-in), the holiday rules
// subscribed by that location, and the exceptions overriding both for the
// queried range.
type repo interface {
	GetLocationCalendar(ctx context.Context, locationID *uuid.UUID) (*model.LocationCalendar, error)
	GetWorkWeekProfile(ctx context.Context, id uuid.UUID) (*model.WorkWeekProfile, error)
	GetDefaultWorkWeekProfile(ctx context.Context) (*model.WorkWeekProfile, error)
	ListHolidaysByProfiles(ctx context.Context, profileIDs []uuid.UUID) ([]model.CalendarHoliday, error)
	ListWorkingDayExceptions(ctx context.Context, from, to time.Time, departmentID, locationID *uuid.UUID) ([]model.WorkingDayException, error)
}

// Resolve assembles the WeekdaySchedule, expanded holiday Occurrences, and
// WorkingDayExceptions for [start,end] at the given location/department,
// ready to hand to WorkingDays or AggregateRangeParams (spec §4.4 steps
// 1-3). It is the single place that wires the kernel's pure functions to
// the persisted calendar configuration.
func Resolve(ctx context.Context, r repo, locationID, departmentID *uuid.UUID, start, end time.Time) (WeekdaySchedule, []Occurrence, []model.WorkingDayException, error) {
	schedule, holidayProfileIDs, err := resolveSchedule(ctx, r, locationID)
	if err != nil {
		return nil, nil, nil, err
	}

	rules, err := r.ListHolidaysByProfiles(ctx, holidayProfileIDs)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("calendar: list holiday rules: %w", err)
	}

	var holidays []Occurrence
	for year := start.Year(); year <= end.Year(); year++ {
		occurrences, err := ExpandHolidays(rules, year)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("calendar: expand holidays for %d: %w", year, err)
		}
		holidays = append(holidays, occurrences...)
	}

	exceptions, err := r.ListWorkingDayExceptions(ctx, start, end, departmentID, locationID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("calendar: list working day exceptions: %w", err)
	}

	return schedule, holidays, exceptions, nil
}

func resolveSchedule(ctx context.Context, r repo, locationID *uuid.UUID) (WeekdaySchedule, []uuid.UUID, error) {
	lc, err := r.GetLocationCalendar(ctx, locationID)
	switch {
	case err == nil:
		profile, perr := r.GetWorkWeekProfile(ctx, lc.WorkWeekProfileID)
		if perr != nil {
			return nil, nil, fmt.Errorf("calendar: load work week profile: %w", perr)
		}
		schedule, derr := DecodeWorkWeekProfile(profile)
		if derr != nil {
			return nil, nil, derr
		}
		return schedule, lc.HolidayProfileIDs, nil

	case errors.Is(err, repository.ErrLocationCalendarNotFound):
		profile, derr := r.GetDefaultWorkWeekProfile(ctx)
		if derr != nil {
			return DefaultWeekdaySchedule(), nil, nil
		}
		schedule, derr := DecodeWorkWeekProfile(profile)
		if derr != nil {
			return nil, nil, derr
		}
		return schedule, nil, nil

	default:
		return nil, nil, fmt.Errorf("calendar: load location calendar: %w", err)
	}
}
