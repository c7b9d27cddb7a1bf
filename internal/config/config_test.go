package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/klokku/planner/pkg/scheduling"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("should use defaults when the file is missing", func(t *testing.T) {
		cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))

		require.NoError(t, err)
		assert.Equal(t, Defaults(), cfg)
	})

	t.Run("should override defaults from file and environment", func(t *testing.T) {
		// given
		path := filepath.Join(t.TempDir(), "application.yaml")
		content := `
port: 9000
db:
  driver: sqlite
  path: /tmp/planner.db
scheduling:
  slotgranularity: 30
  priorityorder: [urgent, high, medium, low]
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
		t.Setenv("PLANNER_SCHEDULING_DEFAULTDURATION", "45")
		t.Setenv("PLANNER_SCHEDULING_MORNINGPRIORITIES", "urgent,high")
		t.Setenv("PLANNER_INTENT_ENABLED", "true")

		// when
		cfg, err := Load(path)

		// then
		require.NoError(t, err)
		assert.Equal(t, 9000, cfg.Port)
		assert.Equal(t, "sqlite", cfg.Database.Driver)
		assert.Equal(t, "/tmp/planner.db", cfg.Database.Path)
		assert.Equal(t, 30, cfg.Scheduling.SlotGranularity)
		assert.Equal(t, 45, cfg.Scheduling.DefaultDuration)
		assert.Equal(t, []string{"urgent", "high", "medium", "low"}, cfg.Scheduling.PriorityOrder)
		assert.Equal(t, []string{"urgent", "high"}, cfg.Scheduling.MorningPriorities)
		assert.True(t, cfg.Intent.Enabled)
	})

	t.Run("should keep commas in scalar environment values", func(t *testing.T) {
		// given
		t.Setenv("PLANNER_INTENT_APIKEY", "sk-a,b")
		t.Setenv("PLANNER_DB_PASS", "p,ss")
		t.Setenv("PLANNER_SCHEDULING_ROUTINEWEEKDAYS", "1,3")

		// when
		cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))

		// then
		require.NoError(t, err)
		assert.Equal(t, "sk-a,b", cfg.Intent.ApiKey)
		assert.Equal(t, "p,ss", cfg.Database.Pass)
		assert.Equal(t, []int{1, 3}, cfg.Scheduling.RoutineWeekdays)
	})
}

func TestScheduling_EngineSettings(t *testing.T) {
	t.Run("should convert defaults", func(t *testing.T) {
		settings, err := Defaults().Scheduling.EngineSettings()

		require.NoError(t, err)
		assert.Equal(t, time.Hour, settings.DefaultDuration)
		assert.Equal(t, 15*time.Minute, settings.SlotGranularity)
		assert.Equal(t, scheduling.PriorityMedium, settings.DefaultPriority)
		assert.Equal(t, 3, settings.PriorityOrder.Rank(scheduling.PriorityUrgent))
		assert.Equal(t, time.UTC, settings.Location)
	})

	t.Run("should reject an unknown time zone", func(t *testing.T) {
		cfg := Defaults().Scheduling
		cfg.DefaultTimezone = "Mars/Olympus"

		_, err := cfg.EngineSettings()

		assert.Error(t, err)
	})

	t.Run("should reject a default priority outside the order", func(t *testing.T) {
		cfg := Defaults().Scheduling
		cfg.DefaultPriority = "whenever"

		_, err := cfg.EngineSettings()

		assert.ErrorIs(t, err, scheduling.ErrInvalidRequest)
	})
}

func TestScheduling_Weekdays(t *testing.T) {
	weekdays, err := Defaults().Scheduling.Weekdays()
	require.NoError(t, err)
	assert.Equal(t, scheduling.DefaultRoutineWeekdays, weekdays)

	cfg := Defaults().Scheduling
	cfg.RoutineWeekdays = []int{7}
	_, err = cfg.Weekdays()
	assert.Error(t, err)
}
