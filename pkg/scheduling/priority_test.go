package scheduling

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriorityOrder_Rank(t *testing.T) {
	t.Run("should rank by position in the default order", func(t *testing.T) {
		order := DefaultPriorityOrder()

		assert.Equal(t, 0, order.Rank(PriorityLow))
		assert.Equal(t, 1, order.Rank(PriorityMedium))
		assert.Equal(t, 2, order.Rank(PriorityHigh))
		assert.Equal(t, 3, order.Rank(PriorityUrgent))
		assert.Equal(t, 3, order.Rank(" Urgent "))
	})

	t.Run("should rank unknown labels with rank 0 by default", func(t *testing.T) {
		order := DefaultPriorityOrder()

		assert.False(t, order.Known("someday"))
		assert.Equal(t, 0, order.Rank("someday"))
		assert.Equal(t, order.Rank(PriorityLow), order.Rank("someday"))
	})

	t.Run("should use the configured unknown rank", func(t *testing.T) {
		order, err := NewPriorityOrder(DefaultPriorityLevels, 4)
		require.NoError(t, err)

		assert.Equal(t, 4, order.Rank("someday"))
		assert.Equal(t, 4, order.UnknownRank())
	})
}

func TestNewPriorityOrder(t *testing.T) {
	tests := []struct {
		name        string
		levels      []Priority
		unknownRank int
	}{
		{"empty order", nil, 0},
		{"duplicate level", []Priority{PriorityLow, "LOW"}, 0},
		{"blank level", []Priority{PriorityLow, " "}, 0},
		{"negative unknown rank", DefaultPriorityLevels, -1},
		{"unknown rank past the end", DefaultPriorityLevels, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPriorityOrder(tt.levels, tt.unknownRank)
			assert.ErrorIs(t, err, ErrInvalidRequest)
		})
	}

	t.Run("should normalize labels", func(t *testing.T) {
		order, err := NewPriorityOrder([]Priority{"Urgent", "Low"}, 0)

		require.NoError(t, err)
		assert.Equal(t, []Priority{PriorityUrgent, PriorityLow}, order.Levels())
	})
}

func TestSettings_Validate(t *testing.T) {
	t.Run("should accept defaults", func(t *testing.T) {
		assert.NoError(t, DefaultSettings().Validate())
	})

	t.Run("should reject a default priority outside the order", func(t *testing.T) {
		settings := DefaultSettings()
		settings.DefaultPriority = "someday"

		assert.ErrorIs(t, settings.Validate(), ErrInvalidRequest)
	})

	t.Run("should reject non-positive granularity", func(t *testing.T) {
		settings := DefaultSettings()
		settings.SlotGranularity = 0

		assert.ErrorIs(t, settings.Validate(), ErrInvalidRequest)
	})
}
