package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/venuedesk/backend/internal/entity"
)

func date(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, time.UTC)
}

func TestExpandRecurrenceNonRecurring(t *testing.T) {
	start := date(2025, 3, 7, 22, 0)
	end := date(2025, 3, 7, 23, 30)

	occ, err := expandRecurrence(nil, start, end)
	require.NoError(t, err)
	require.Len(t, occ, 1)
	assert.Equal(t, entity.Occurrence{Start: start, End: end}, occ[0])
}

func TestExpandRecurrenceSingleWeekday(t *testing.T) {
	rule := &entity.RecurringRule{
		IsRecurring:        true,
		RecurringStartDate: date(2025, 3, 3, 0, 0),
		RecurringEndDate:   date(2025, 3, 16, 0, 0),
		DaysOfWeek:         []int{5}, // Fridays
	}

	occ, err := expandRecurrence(rule, date(2025, 3, 7, 22, 0), date(2025, 3, 7, 23, 30))
	require.NoError(t, err)
	require.Len(t, occ, 2)
	assert.Equal(t, date(2025, 3, 7, 22, 0), occ[0].Start)
	assert.Equal(t, date(2025, 3, 7, 23, 30), occ[0].End)
	assert.Equal(t, date(2025, 3, 14, 22, 0), occ[1].Start)
	assert.Equal(t, date(2025, 3, 14, 23, 30), occ[1].End)
}

func TestExpandRecurrenceMultipleWeekdays(t *testing.T) {
	rule := &entity.RecurringRule{
		IsRecurring:        true,
		RecurringStartDate: date(2025, 3, 3, 0, 0),
		RecurringEndDate:   date(2025, 3, 16, 0, 0),
		DaysOfWeek:         []int{1, 5}, // Mondays and Fridays
	}

	occ, err := expandRecurrence(rule, date(2025, 3, 7, 20, 0), date(2025, 3, 7, 22, 0))
	require.NoError(t, err)
	require.Len(t, occ, 4)
	var days []int
	for _, o := range occ {
		days = append(days, o.Start.Day())
		assert.Equal(t, 2*time.Hour, o.End.Sub(o.Start))
	}
	assert.Equal(t, []int{3, 7, 10, 14}, days)
}

func TestExpandRecurrenceCrossMidnight(t *testing.T) {
	rule := &entity.RecurringRule{
		IsRecurring:        true,
		RecurringStartDate: date(2025, 3, 3, 0, 0),
		RecurringEndDate:   date(2025, 3, 9, 0, 0),
		DaysOfWeek:         []int{6}, // Saturday
	}

	occ, err := expandRecurrence(rule, date(2025, 3, 7, 22, 0), date(2025, 3, 8, 2, 0))
	require.NoError(t, err)
	require.Len(t, occ, 1)
	assert.Equal(t, date(2025, 3, 8, 22, 0), occ[0].Start)
	assert.Equal(t, date(2025, 3, 9, 2, 0), occ[0].End)
}

func TestExpandRecurrenceEmptyWeekdays(t *testing.T) {
	rule := &entity.RecurringRule{
		IsRecurring:        true,
		RecurringStartDate: date(2025, 3, 3, 0, 0),
		RecurringEndDate:   date(2025, 3, 16, 0, 0),
	}

	occ, err := expandRecurrence(rule, date(2025, 3, 7, 22, 0), date(2025, 3, 7, 23, 0))
	require.NoError(t, err)
	assert.Empty(t, occ)
}

func TestExpandRecurrenceInvalidWeekday(t *testing.T) {
	rule := &entity.RecurringRule{
		IsRecurring:        true,
		RecurringStartDate: date(2025, 3, 3, 0, 0),
		RecurringEndDate:   date(2025, 3, 16, 0, 0),
		DaysOfWeek:         []int{7},
	}

	_, err := expandRecurrence(rule, date(2025, 3, 7, 22, 0), date(2025, 3, 7, 23, 0))
	require.Error(t, err)
}
