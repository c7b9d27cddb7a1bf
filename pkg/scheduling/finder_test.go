package scheduling

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlotFinder_FindFreeSlots(t *testing.T) {
	finder := NewSlotFinder(15 * time.Minute)

	t.Run("should tile an empty day at duration steps", func(t *testing.T) {
		// given
		index := dayIndex(t, testDay)

		// when
		slots, err := finder.FindFreeSlots(DayWindow(testDay), 3*time.Hour, index)

		// then
		require.NoError(t, err)
		require.Len(t, slots, 8)
		for i, slot := range slots {
			assert.Equal(t, at(3*i, 0), slot.Start)
		}
	})

	t.Run("should jump past the blocking interval", func(t *testing.T) {
		// given
		window := span(8, 0, 12, 0)
		index := dayIndex(t, testDay, span(8, 30, 10, 10))

		// when
		slots, err := finder.FindFreeSlots(window, time.Hour, index)

		// then
		require.NoError(t, err)
		assert.Equal(t, []TimeInterval{span(10, 10, 11, 10)}, slots)
	})

	t.Run("should advance by granularity when the blocker ends earlier", func(t *testing.T) {
		// given
		window := span(8, 0, 10, 0)
		index := dayIndex(t, testDay, span(7, 0, 8, 5))

		// when
		slots, err := finder.FindFreeSlots(window, time.Hour, index)

		// then
		require.NoError(t, err)
		assert.Equal(t, []TimeInterval{span(8, 15, 9, 15)}, slots)
	})

	t.Run("should return nothing for a window fully covered by one busy interval", func(t *testing.T) {
		index := dayIndex(t, testDay, DayWindow(testDay))

		slots, err := finder.FindFreeSlots(DayWindow(testDay), 30*time.Minute, index)

		require.NoError(t, err)
		assert.Empty(t, slots)
	})

	t.Run("should reject non-positive durations and inverted windows", func(t *testing.T) {
		index := dayIndex(t, testDay)

		_, err := finder.FindFreeSlots(DayWindow(testDay), 0, index)
		assert.ErrorIs(t, err, ErrInvalidRequest)

		_, err = finder.FindFreeSlots(DayWindow(testDay), -time.Minute, index)
		assert.ErrorIs(t, err, ErrInvalidRequest)

		_, err = finder.FindFreeSlots(span(12, 0, 8, 0), time.Hour, index)
		assert.ErrorIs(t, err, ErrInvalidRequest)
	})

	t.Run("should not emit a slot that would cross the window end", func(t *testing.T) {
		index := dayIndex(t, testDay)

		slots, err := finder.FindFreeSlots(span(9, 0, 11, 30), time.Hour, index)

		require.NoError(t, err)
		assert.Equal(t, []TimeInterval{span(9, 0, 10, 0), span(10, 0, 11, 0)}, slots)
	})
}

func TestSlotFinder_FreeSlots(t *testing.T) {
	finder := NewSlotFinder(15 * time.Minute)
	index := dayIndex(t, testDay, span(10, 0, 11, 0))

	t.Run("should be restartable and stop early on demand", func(t *testing.T) {
		seq, err := finder.FreeSlots(DayWindow(testDay), time.Hour, index)
		require.NoError(t, err)

		var first []TimeInterval
		for slot := range seq {
			first = append(first, slot)
			if len(first) == 3 {
				break
			}
		}
		var all []TimeInterval
		for slot := range seq {
			all = append(all, slot)
		}

		assert.Len(t, first, 3)
		assert.Len(t, all, 23)
		assert.Equal(t, first, all[:3])
	})
}

func TestSlotFinder_Properties(t *testing.T) {
	finder := NewSlotFinder(15 * time.Minute)
	rng := rand.New(rand.NewSource(42))

	for run := 0; run < 200; run++ {
		var busy []TimeInterval
		n := rng.Intn(8)
		for i := 0; i < n; i++ {
			start := at(0, rng.Intn(24*60))
			busy = append(busy, IntervalOf(start, time.Duration(1+rng.Intn(180))*time.Minute))
		}
		duration := time.Duration(5+rng.Intn(240)) * time.Minute
		window := DayWindow(testDay)
		index := dayIndex(t, testDay, busy...)

		slots, err := finder.FindFreeSlots(window, duration, index)
		require.NoError(t, err)
		again, err := finder.FindFreeSlots(window, duration, index)
		require.NoError(t, err)
		assert.Equal(t, slots, again, "deterministic output")

		for i, slot := range slots {
			assert.Equal(t, duration, slot.Duration())
			assert.False(t, slot.Start.Before(window.Start))
			assert.False(t, slot.End.After(window.End))
			for _, b := range busy {
				assert.False(t, slot.Overlaps(b), "slot %s overlaps busy %s", slot, b)
			}
			if i > 0 {
				assert.False(t, slots[i-1].Overlaps(slot))
				assert.False(t, slot.Start.Before(slots[i-1].End))
			}
		}
	}
}
