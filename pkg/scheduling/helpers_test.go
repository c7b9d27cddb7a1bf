package scheduling

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// Monday
var testDay = time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)

func at(hour, minute int) time.Time {
	return testDay.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func onDay(day time.Time, hour, minute int) time.Time {
	return StartOfDay(day).Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func span(startHour, startMinute, endHour, endMinute int) TimeInterval {
	return TimeInterval{Start: at(startHour, startMinute), End: at(endHour, endMinute)}
}

func dayIndex(t *testing.T, day time.Time, busy ...TimeInterval) *IntervalIndex {
	t.Helper()
	index, err := NewDayIndex(NewBusyCalendar(busy), StartOfDay(day))
	require.NoError(t, err)
	return index
}
