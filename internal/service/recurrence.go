package service

import (
	"time"

	"github.com/xyedo/rrule"

	"github.com/venuedesk/backend/internal/entity"
)

var weekdayByIndex = map[int]rrule.Weekday{
	0: rrule.SU,
	1: rrule.MO,
	2: rrule.TU,
	3: rrule.WE,
	4: rrule.TH,
	5: rrule.FR,
	6: rrule.SA,
}

// expandRecurrence returns one occurrence per selected weekday between the
// recurrence bounds. Each occurrence keeps the base event's time of day and
// duration. An empty weekday set yields no occurrences.
func expandRecurrence(rule *entity.RecurringRule, baseStart, baseEnd time.Time) ([]entity.Occurrence, error) {
	if rule == nil || !rule.IsRecurring {
		return []entity.Occurrence{{Start: baseStart, End: baseEnd}}, nil
	}
	if len(rule.DaysOfWeek) == 0 {
		return nil, nil
	}

	weekdays := make([]rrule.Weekday, 0, len(rule.DaysOfWeek))
	for _, d := range rule.DaysOfWeek {
		wd, ok := weekdayByIndex[d]
		if !ok {
			return nil, entity.NewValidationError("days_of_week", "weekday index must be between 0 and 6")
		}
		weekdays = append(weekdays, wd)
	}

	start := rule.RecurringStartDate.UTC()
	until := rule.RecurringEndDate.UTC()
	base := baseStart.UTC()
	duration := baseEnd.Sub(baseStart)

	dtstart := time.Date(start.Year(), start.Month(), start.Day(),
		base.Hour(), base.Minute(), base.Second(), 0, time.UTC)
	untilEnd := time.Date(until.Year(), until.Month(), until.Day(),
		23, 59, 59, 0, time.UTC)

	r, err := rrule.NewRRule(rrule.ROption{
		Freq:      rrule.DAILY,
		Dtstart:   dtstart,
		Until:     untilEnd,
		Byweekday: weekdays,
	})
	if err != nil {
		return nil, err
	}

	dates := r.All()
	occurrences := make([]entity.Occurrence, 0, len(dates))
	for _, d := range dates {
		occurrences = append(occurrences, entity.Occurrence{Start: d, End: d.Add(duration)})
	}
	return occurrences, nil
}
