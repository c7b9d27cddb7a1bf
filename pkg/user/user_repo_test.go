package user

import (
	"context"
	"testing"

	"github.com/klokku/planner/internal/test_utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRepo(t *testing.T) (*UserRepoImpl, context.Context) {
	db := test_utils.SetupTestDB(t)
	return NewUserRepo(db), context.Background()
}

func sampleUser(uid, username string) User {
	return User{
		Uid:         uid,
		Username:    username,
		DisplayName: "Display " + username,
		Settings: Settings{
			Timezone:          "Europe/Warsaw",
			EventCalendarType: GoogleCalendar,
			GoogleCalendar:    GoogleCalendarSettings{CalendarId: "primary"},
		},
	}
}

func TestUserRepoImpl_CreateUser(t *testing.T) {
	repo, ctx := setupRepo(t)

	// given
	user := sampleUser("uid-1", "alice")

	// when
	id, err := repo.CreateUser(ctx, user)
	require.NoError(t, err)

	// then
	stored, err := repo.GetUser(ctx, id)
	require.NoError(t, err)
	user.Id = id
	assert.Equal(t, user, stored)

	byUid, err := repo.GetUserByUid(ctx, "uid-1")
	require.NoError(t, err)
	assert.Equal(t, user, byUid)
}

func TestUserRepoImpl_DefaultsCalendarType(t *testing.T) {
	repo, ctx := setupRepo(t)

	id, err := repo.CreateUser(ctx, User{Uid: "uid-2", Username: "bob", DisplayName: "Bob"})
	require.NoError(t, err)

	stored, err := repo.GetUser(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, LocalCalendar, stored.Settings.EventCalendarType)
	assert.Empty(t, stored.Settings.GoogleCalendar.CalendarId)
}

func TestUserRepoImpl_GetUser(t *testing.T) {
	repo, ctx := setupRepo(t)

	t.Run("should return ErrUserNotFound for unknown id", func(t *testing.T) {
		_, err := repo.GetUser(ctx, 999)
		assert.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("should return ErrUserNotFound for unknown uid", func(t *testing.T) {
		_, err := repo.GetUserByUid(ctx, "missing")
		assert.ErrorIs(t, err, ErrUserNotFound)
	})
}

func TestUserRepoImpl_UpdateUser(t *testing.T) {
	repo, ctx := setupRepo(t)

	// given
	id, err := repo.CreateUser(ctx, sampleUser("uid-3", "carol"))
	require.NoError(t, err)

	// when
	updated, err := repo.UpdateUser(ctx, id, User{
		Username:    "ignored",
		DisplayName: "Carol C",
		Settings:    Settings{Timezone: "UTC", EventCalendarType: LocalCalendar},
	})

	// then
	require.NoError(t, err)
	assert.Equal(t, "carol", updated.Username)
	assert.Equal(t, "Carol C", updated.DisplayName)
	assert.Equal(t, "UTC", updated.Settings.Timezone)
	assert.Equal(t, LocalCalendar, updated.Settings.EventCalendarType)
	assert.Empty(t, updated.Settings.GoogleCalendar.CalendarId)

	_, err = repo.UpdateUser(ctx, 999, updated)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserRepoImpl_DeleteUser(t *testing.T) {
	repo, ctx := setupRepo(t)

	id, err := repo.CreateUser(ctx, sampleUser("uid-4", "dave"))
	require.NoError(t, err)

	require.NoError(t, repo.DeleteUser(ctx, id))

	_, err = repo.GetUser(ctx, id)
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.ErrorIs(t, repo.DeleteUser(ctx, id), ErrUserNotFound)
}

func TestUserRepoImpl_GetAllUsersAndAvailability(t *testing.T) {
	repo, ctx := setupRepo(t)

	_, err := repo.CreateUser(ctx, sampleUser("uid-5", "erin"))
	require.NoError(t, err)
	_, err = repo.CreateUser(ctx, sampleUser("uid-6", "frank"))
	require.NoError(t, err)

	users, err := repo.GetAllUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "erin", users[0].Username)
	assert.Equal(t, "frank", users[1].Username)

	available, err := repo.IsUsernameAvailable(ctx, "erin")
	require.NoError(t, err)
	assert.False(t, available)

	available, err = repo.IsUsernameAvailable(ctx, "grace")
	require.NoError(t, err)
	assert.True(t, available)
}
