// Package calendar is the working-day kernel: holiday rule expansion,
// weekly-profile/closure/exception combination, and the range aggregator
// built on the same primitives (spec §4.4).
package calendar

import (
	"fmt"
	"sort"
	"time"

	"github.com/cristian75IT/kronos-core/internal/model"
)

// Occurrence is one expanded holiday date.
type Occurrence struct {
	Date time.Time
	Name string
}

// ExpandHolidays turns a set of CalendarHoliday rules into concrete
// occurrences for the given year (spec §3's fixed/yearly/easter_relative
// rule types):
//   - fixed:           FixedDate.Year must equal year, else the rule does
//     not occur that year
//   - yearly:          Month+Day recur every year
//   - easter_relative: Offset days added to Western Easter Sunday
func ExpandHolidays(rules []model.CalendarHoliday, year int) ([]Occurrence, error) {
	if year < 1900 || year > 2200 {
		return nil, fmt.Errorf("invalid year: %d", year)
	}

	easter := easterSunday(year)
	occurrences := make([]Occurrence, 0, len(rules))

	for _, rule := range rules {
		switch rule.RuleType {
		case model.HolidayRuleFixed:
			if rule.FixedDate == nil {
				return nil, fmt.Errorf("holiday %q: fixed rule missing fixed_date", rule.Name)
			}
			if rule.FixedDate.Year() != year {
				continue
			}
			occurrences = append(occurrences, Occurrence{Date: dateOnly(*rule.FixedDate), Name: rule.Name})

		case model.HolidayRuleYearly:
			if rule.Month == nil || rule.Day == nil {
				return nil, fmt.Errorf("holiday %q: yearly rule missing month/day", rule.Name)
			}
			if *rule.Month == 2 && *rule.Day == 29 && !isLeap(year) {
				continue
			}
			occurrences = append(occurrences, Occurrence{
				Date: time.Date(year, time.Month(*rule.Month), *rule.Day, 0, 0, 0, 0, time.UTC),
				Name: rule.Name,
			})

		case model.HolidayRuleEasterRelative:
			if rule.Offset == nil {
				return nil, fmt.Errorf("holiday %q: easter_relative rule missing offset", rule.Name)
			}
			occurrences = append(occurrences, Occurrence{
				Date: easter.AddDate(0, 0, *rule.Offset),
				Name: rule.Name,
			})

		default:
			return nil, fmt.Errorf("holiday %q: unknown rule type %q", rule.Name, rule.RuleType)
		}
	}

	sort.Slice(occurrences, func(i, j int) bool {
		return occurrences[i].Date.Before(occurrences[j].Date)
	})
	return occurrences, nil
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// isLeap reports whether year is a Gregorian leap year.
func isLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// easterSunday computes Western (Gregorian) Easter Sunday via the Anonymous
// Gregorian Algorithm.
func easterSunday(year int) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := ((h + l - 7*m + 114) % 31) + 1
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}
