package intent

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Wednesday afternoon in Warsaw.
func referenceNow(t *testing.T) time.Time {
	loc, err := time.LoadLocation("Europe/Warsaw")
	require.NoError(t, err)
	return time.Date(2025, time.March, 12, 14, 20, 0, 0, loc)
}

func TestRuleParser_Parse(t *testing.T) {
	now := referenceNow(t)
	loc := now.Location()
	parser := NewRuleParser(45)

	tests := []struct {
		name      string
		text      string
		wantTitle string
		wantStart time.Time
	}{
		{"should read tomorrow at 3pm", "Lunch with Ana tomorrow at 3pm", "Lunch with Ana",
			time.Date(2025, time.March, 13, 15, 0, 0, 0, loc)},
		{"should read next monday at 10:30am", "Dentist next monday at 10:30am", "Dentist",
			time.Date(2025, time.March, 17, 10, 30, 0, 0, loc)},
		{"should jump a full week for same weekday", "Retro next wednesday at 9am", "Retro",
			time.Date(2025, time.March, 19, 9, 0, 0, 0, loc)},
		{"should read bare 9am as today", "Gym 9am", "Gym 9am",
			time.Date(2025, time.March, 12, 9, 0, 0, 0, loc)},
		{"should read 12am as midnight", "Deploy at 12am", "Deploy",
			time.Date(2025, time.March, 12, 0, 0, 0, 0, loc)},
		{"should read 24h clock", "Call at 16:45", "Call",
			time.Date(2025, time.March, 12, 16, 45, 0, 0, loc)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, err := parser.Parse(context.Background(), tt.text, now)

			require.NoError(t, err)
			assert.Equal(t, ActionCreate, in.Action)
			assert.Equal(t, tt.wantTitle, in.Title)
			require.NotNil(t, in.StartTime)
			assert.True(t, tt.wantStart.Equal(*in.StartTime), "start %s", in.StartTime)
			require.NotNil(t, in.EndTime)
			assert.Equal(t, 45*time.Minute, in.EndTime.Sub(*in.StartTime))
			assert.Equal(t, 45*time.Minute, in.Duration())
		})
	}
}

func TestRuleParser_WithoutTime(t *testing.T) {
	now := referenceNow(t)
	parser := NewRuleParser(0)

	t.Run("should leave start empty when no time is named", func(t *testing.T) {
		in, err := parser.Parse(context.Background(), "Write 2 reports", now)

		require.NoError(t, err)
		assert.Nil(t, in.StartTime)
		assert.Nil(t, in.EndTime)
		assert.Equal(t, "Write 2 reports", in.Title)
		assert.Equal(t, DefaultDurationMinutes, in.DurationMinutes)
		assert.Equal(t, DefaultPriority, in.Priority)
	})

	t.Run("should ignore unknown weekday and impossible hours", func(t *testing.T) {
		in, err := parser.Parse(context.Background(), "Party next week at 25pm", now)

		require.NoError(t, err)
		assert.Nil(t, in.StartTime)
	})

	t.Run("should detect priority words", func(t *testing.T) {
		in, err := parser.Parse(context.Background(), "Urgent: fix prod tomorrow at 8am", now)

		require.NoError(t, err)
		assert.Equal(t, "urgent", in.Priority)
	})

	t.Run("should reject empty text", func(t *testing.T) {
		_, err := parser.Parse(context.Background(), "   ", now)

		assert.ErrorIs(t, err, ErrEmptyText)
	})
}
