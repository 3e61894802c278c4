package calendar

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cristian75IT/kronos-core/internal/model"
)

// LeaveOccurrence is a user's leave request as it projects onto a single day
// of the aggregated range.
type LeaveOccurrence struct {
	LeaveRequestID uuid.UUID
	Status         model.LeaveRequestStatus
	HalfDay        bool
}

// Event is a calendar event surfacing on the range view (e.g. from a
// visible shared calendar); the core does not own event authoring, only the
// day-fusion shape.
type Event struct {
	Name string
}

// DayView is the per-day fusion the Calendar Range Aggregator produces.
type DayView struct {
	Date          time.Time
	HolidayName   string
	ClosureName   string
	Leaves        []LeaveOccurrence
	Events        []Event
	IsWorkingDay  bool
}

// RangeView is the aggregated output for [Start, End].
type RangeView struct {
	Start            time.Time
	End              time.Time
	Days             []DayView
	WorkingDaysCount decimal.Decimal
}

// AggregateRangeParams bundles the primitives RangeView fuses. They are the
// same inputs WorkingDays consumes, so the two must agree numerically
// (invariant §8.10).
type AggregateRangeParams struct {
	Schedule   WeekdaySchedule
	Holidays   []Occurrence
	Exceptions []model.WorkingDayException
	Closures   []model.CalendarClosure
	Leaves     map[string][]LeaveOccurrence // keyed by "2006-01-02"
	Events     map[string][]Event           // keyed by "2006-01-02"
}

// AggregateRange builds the per-day view for [start, end], fusing holidays,
// closures, leaves and events, and counting working days with the closure
// overlay applied on top of the kernel's rule (spec §4.4).
func AggregateRange(start, end time.Time, params AggregateRangeParams) RangeView {
	start, end = dateOnly(start), dateOnly(end)
	view := RangeView{Start: start, End: end, WorkingDaysCount: decimal.Zero}

	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		key := d.Format("2006-01-02")
		dv := DayView{
			Date:   d,
			Leaves: params.Leaves[key],
			Events: params.Events[key],
		}

		for _, h := range params.Holidays {
			if sameDate(h.Date, d) {
				dv.HolidayName = h.Name
				break
			}
		}

		var closure *model.CalendarClosure
		for i := range params.Closures {
			c := &params.Closures[i]
			if !c.EndDate.Before(d) && !c.StartDate.After(d) {
				closure = c
				break
			}
		}
		if closure != nil {
			dv.ClosureName = closure.Name
		}

		working := IsWorkingDay(d, params.Schedule, params.Holidays, params.Exceptions)
		if closure != nil {
			// A closure overlays the kernel's verdict: the day is never a
			// working day while the company is shut, regardless of the
			// weekly profile (spec §4.4).
			working = false
		}
		dv.IsWorkingDay = working
		if working {
			view.WorkingDaysCount = view.WorkingDaysCount.Add(decimal.NewFromInt(1))
		}

		view.Days = append(view.Days, dv)
	}

	return view
}
