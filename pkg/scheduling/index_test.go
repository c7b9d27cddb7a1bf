package scheduling

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIntervalIndex(t *testing.T) {
	t.Run("should reject inverted and empty windows", func(t *testing.T) {
		_, err := NewIntervalIndex(nil, span(10, 0, 9, 0))
		assert.ErrorIs(t, err, ErrInvalidRequest)

		_, err = NewIntervalIndex(nil, TimeInterval{Start: at(9, 0), End: at(9, 0)})
		assert.ErrorIs(t, err, ErrInvalidRequest)
	})

	t.Run("should drop intervals outside the window and malformed ones", func(t *testing.T) {
		// given
		busy := BusyCalendar{
			{Start: at(-2, 0), End: at(-1, 0)},
			span(9, 0, 10, 0),
			{Start: at(11, 0), End: at(11, 0)},
			{Start: at(25, 0), End: at(26, 0)},
			{Start: at(23, 0), End: at(25, 0)},
		}

		// when
		index, err := NewDayIndex(busy, testDay)

		// then
		require.NoError(t, err)
		assert.Equal(t, 2, index.Len())
		assert.Equal(t, DayWindow(testDay), index.Window())
	})
}

func TestIntervalIndex_FirstBlockingEnd(t *testing.T) {
	index := dayIndex(t, testDay, span(13, 0, 14, 0), span(9, 0, 10, 0), span(9, 30, 11, 0))

	t.Run("should return end of the earliest-starting intersecting interval", func(t *testing.T) {
		end, ok := index.FirstBlockingEnd(span(9, 45, 10, 15))

		assert.True(t, ok)
		assert.Equal(t, at(10, 0), end)
	})

	t.Run("should report nothing for a free interval", func(t *testing.T) {
		_, ok := index.FirstBlockingEnd(span(11, 0, 13, 0))

		assert.False(t, ok)
		assert.False(t, index.Overlaps(span(11, 0, 13, 0)))
	})

	t.Run("should treat touching intervals as free", func(t *testing.T) {
		assert.False(t, index.Overlaps(span(14, 0, 15, 0)))
		assert.True(t, index.Overlaps(IntervalOf(at(13, 59), 2*time.Minute)))
	})
}
