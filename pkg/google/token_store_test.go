package google

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/klokku/planner/internal/test_utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func setupTokenStore(t *testing.T) (*TokenStore, int) {
	db := test_utils.SetupTestDB(t)
	userId := test_utils.CreateTestUser(t, db, "google-user")
	return NewTokenStore(db), userId
}

func TestTokenStore_Token(t *testing.T) {
	ctx := context.Background()

	t.Run("should return nil token when user never authenticated", func(t *testing.T) {
		store, userId := setupTokenStore(t)

		token, err := store.GetToken(ctx, userId)

		require.NoError(t, err)
		assert.Nil(t, token)
	})

	t.Run("should store and replace token", func(t *testing.T) {
		store, userId := setupTokenStore(t)
		expiry := time.Unix(1_800_000_000, 0)

		require.NoError(t, store.SaveToken(ctx, userId, &oauth2.Token{
			AccessToken: "a1", RefreshToken: "r1", TokenType: "Bearer", Expiry: expiry,
		}))
		require.NoError(t, store.SaveToken(ctx, userId, &oauth2.Token{
			AccessToken: "a2", RefreshToken: "r2", TokenType: "Bearer", Expiry: expiry,
		}))

		token, err := store.GetToken(ctx, userId)
		require.NoError(t, err)
		require.NotNil(t, token)
		assert.Equal(t, "a2", token.AccessToken)
		assert.Equal(t, "r2", token.RefreshToken)
		assert.True(t, expiry.Equal(token.Expiry))
	})

	t.Run("should delete token", func(t *testing.T) {
		store, userId := setupTokenStore(t)
		require.NoError(t, store.SaveToken(ctx, userId, &oauth2.Token{AccessToken: "a", Expiry: time.Now()}))

		require.NoError(t, store.DeleteToken(ctx, userId))

		token, err := store.GetToken(ctx, userId)
		require.NoError(t, err)
		assert.Nil(t, token)
	})
}

func TestTokenStore_State(t *testing.T) {
	ctx := context.Background()

	t.Run("should consume state once", func(t *testing.T) {
		store, userId := setupTokenStore(t)
		require.NoError(t, store.SaveState(ctx, "nonce-1", AuthState{UserId: userId, FinalUrl: "https://app/settings"}))

		state, err := store.ConsumeState(ctx, "nonce-1")
		require.NoError(t, err)
		assert.Equal(t, AuthState{UserId: userId, FinalUrl: "https://app/settings"}, state)

		_, err = store.ConsumeState(ctx, "nonce-1")
		assert.ErrorIs(t, err, ErrUnknownAuthState)
	})

	t.Run("should hand a state to only one of concurrent callbacks", func(t *testing.T) {
		// given
		store, userId := setupTokenStore(t)
		require.NoError(t, store.SaveState(ctx, "nonce-race", AuthState{UserId: userId, FinalUrl: "https://app"}))
		var consumed, rejected atomic.Int32

		// when
		var wg sync.WaitGroup
		for range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := store.ConsumeState(ctx, "nonce-race")
				if err == nil {
					consumed.Add(1)
				} else if errors.Is(err, ErrUnknownAuthState) {
					rejected.Add(1)
				}
			}()
		}
		wg.Wait()

		// then
		assert.Equal(t, int32(1), consumed.Load())
		assert.Equal(t, int32(7), rejected.Load())
	})

	t.Run("should delete expired state when consumed", func(t *testing.T) {
		store, userId := setupTokenStore(t)
		created := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
		store.now = func() time.Time { return created }
		require.NoError(t, store.SaveState(ctx, "nonce-3", AuthState{UserId: userId}))

		store.now = func() time.Time { return created.Add(stateTTL + time.Minute) }
		_, err := store.ConsumeState(ctx, "nonce-3")
		require.ErrorIs(t, err, ErrUnknownAuthState)

		purged, err := store.PurgeExpiredStates(ctx)
		require.NoError(t, err)
		assert.Zero(t, purged)
	})

	t.Run("should reject expired state", func(t *testing.T) {
		store, userId := setupTokenStore(t)
		created := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
		store.now = func() time.Time { return created }
		require.NoError(t, store.SaveState(ctx, "nonce-2", AuthState{UserId: userId}))

		store.now = func() time.Time { return created.Add(stateTTL + time.Minute) }
		_, err := store.ConsumeState(ctx, "nonce-2")

		assert.ErrorIs(t, err, ErrUnknownAuthState)
	})

	t.Run("should purge only expired states", func(t *testing.T) {
		// given
		store, userId := setupTokenStore(t)
		created := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
		store.now = func() time.Time { return created }
		require.NoError(t, store.SaveState(ctx, "old", AuthState{UserId: userId}))
		store.now = func() time.Time { return created.Add(10 * time.Minute) }
		require.NoError(t, store.SaveState(ctx, "fresh", AuthState{UserId: userId}))

		// when
		store.now = func() time.Time { return created.Add(stateTTL + time.Minute) }
		purged, err := store.PurgeExpiredStates(ctx)

		// then
		require.NoError(t, err)
		assert.Equal(t, int64(1), purged)
		_, err = store.ConsumeState(ctx, "fresh")
		assert.NoError(t, err)
	})
}

func TestWithSuccess(t *testing.T) {
	assert.Equal(t, "https://app/settings?success=true", withSuccess("https://app/settings", true))
	assert.Equal(t, "https://app/x?a=1&success=false", withSuccess("https://app/x?a=1", false))
	assert.Equal(t, "/?success=true", withSuccess("", true))
}
