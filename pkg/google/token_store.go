package google

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

var ErrUnknownAuthState = errors.New("unknown or expired authentication state")

// stateTTL bounds how long an OAuth login may take between redirect and callback.
const stateTTL = 15 * time.Minute

type AuthState struct {
	UserId   int
	FinalUrl string
}

// TokenStore persists OAuth state nonces and per-user Google tokens.
type TokenStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewTokenStore(db *sql.DB) *TokenStore {
	return &TokenStore{db: db, now: time.Now}
}

func (s *TokenStore) SaveState(ctx context.Context, nonce string, state AuthState) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO google_auth_state (nonce, user_id, final_url, created_at) VALUES ($1, $2, $3, $4)`,
		nonce, state.UserId, state.FinalUrl, s.now().UnixMilli())
	if err != nil {
		err = fmt.Errorf("failed to store Google auth state for user %d: %w", state.UserId, err)
		log.Error(err)
		return err
	}
	return nil
}

// ConsumeState deletes the state stored under nonce and returns it. Of concurrent callers with the
// same nonce only one gets the state.
func (s *TokenStore) ConsumeState(ctx context.Context, nonce string) (AuthState, error) {
	var state AuthState
	var createdAt int64
	err := s.db.QueryRowContext(ctx,
		`DELETE FROM google_auth_state WHERE nonce = $1 RETURNING user_id, final_url, created_at`, nonce).
		Scan(&state.UserId, &state.FinalUrl, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return AuthState{}, ErrUnknownAuthState
	} else if err != nil {
		return AuthState{}, fmt.Errorf("failed to consume Google auth state: %w", err)
	}
	if s.now().Sub(time.UnixMilli(createdAt)) > stateTTL {
		log.Debugf("Google auth state for user %d expired", state.UserId)
		return AuthState{}, ErrUnknownAuthState
	}
	return state, nil
}

// PurgeExpiredStates removes states of logins that were never completed.
func (s *TokenStore) PurgeExpiredStates(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-stateTTL).UnixMilli()
	res, err := s.db.ExecContext(ctx, `DELETE FROM google_auth_state WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge Google auth states: %w", err)
	}
	return res.RowsAffected()
}

func (s *TokenStore) SaveToken(ctx context.Context, userId int, token *oauth2.Token) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO google_calendar_auth (user_id, access_token, refresh_token, token_type, expiry)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (user_id) DO UPDATE SET access_token = excluded.access_token,
				refresh_token = excluded.refresh_token, token_type = excluded.token_type, expiry = excluded.expiry`,
		userId, token.AccessToken, token.RefreshToken, token.TokenType, token.Expiry.Unix())
	if err != nil {
		err = fmt.Errorf("failed to store Google auth token for user %d: %w", userId, err)
		log.Error(err)
		return err
	}
	return nil
}

// GetToken returns nil without error when the user never authenticated.
func (s *TokenStore) GetToken(ctx context.Context, userId int) (*oauth2.Token, error) {
	var token oauth2.Token
	var expiry int64
	err := s.db.QueryRowContext(ctx,
		`SELECT access_token, refresh_token, token_type, expiry FROM google_calendar_auth WHERE user_id = $1`, userId).
		Scan(&token.AccessToken, &token.RefreshToken, &token.TokenType, &expiry)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("unable to retrieve Google auth token: %w", err)
	}
	token.Expiry = time.Unix(expiry, 0)
	return &token, nil
}

func (s *TokenStore) DeleteToken(ctx context.Context, userId int) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM google_calendar_auth WHERE user_id = $1`, userId)
	if err != nil {
		return fmt.Errorf("failed to delete Google auth token for user %d: %w", userId, err)
	}
	return nil
}
