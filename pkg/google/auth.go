package google

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/klokku/planner/internal/config"
	"github.com/klokku/planner/internal/rest"
	"github.com/klokku/planner/pkg/user"
	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
)

type googleAuthRedirect struct {
	RedirectUrl string `json:"redirectUrl"`
}

type GoogleAuth struct {
	store       *TokenStore
	oauthConfig *oauth2.Config
}

func NewGoogleAuth(store *TokenStore, cfg config.Application) *GoogleAuth {
	oauthConfig := &oauth2.Config{
		ClientID:     cfg.Google.ClientId,
		ClientSecret: cfg.Google.ClientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  strings.TrimSuffix(cfg.Host, "/") + "/api/integrations/google/auth/callback",
		Scopes:       []string{calendar.CalendarEventsScope, calendar.CalendarReadonlyScope},
	}
	return &GoogleAuth{store: store, oauthConfig: oauthConfig}
}

// OAuthLogin godoc
// @Summary Start Google Calendar authentication
// @Tags Google
// @Produce json
// @Param finalUrl query string false "Where to send the browser after the callback"
// @Success 200 {object} googleAuthRedirect
// @Router /api/integrations/google/auth/login [get]
// @Security XUserId
func (g *GoogleAuth) OAuthLogin(w http.ResponseWriter, r *http.Request) {
	userId, err := user.CurrentId(r.Context())
	if err != nil {
		rest.WriteError(w, http.StatusForbidden, "User not found", "")
		return
	}

	nonce := uuid.NewString()
	state := AuthState{UserId: userId, FinalUrl: r.URL.Query().Get("finalUrl")}
	if err := g.store.SaveState(r.Context(), nonce, state); err != nil {
		rest.WriteError(w, http.StatusInternalServerError, "Failed to handle Google authentication", "")
		return
	}

	log.Tracef("Redirecting user %d to Google auth URL", userId)
	u := g.oauthConfig.AuthCodeURL(nonce, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	rest.WriteJSON(w, http.StatusOK, googleAuthRedirect{RedirectUrl: u})
}

// OAuthCallback exchanges the authorization code and redirects to the final URL with a success flag.
func (g *GoogleAuth) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	code := r.FormValue("code")
	nonce := r.FormValue("state")

	state, err := g.store.ConsumeState(r.Context(), nonce)
	if err != nil {
		log.Warnf("rejecting Google auth callback: %v", err)
		if errors.Is(err, ErrUnknownAuthState) {
			rest.WriteError(w, http.StatusBadRequest, "Unknown authentication state", "")
			return
		}
		rest.WriteError(w, http.StatusInternalServerError, "Failed to handle Google authentication", "")
		return
	}

	token, err := g.oauthConfig.Exchange(r.Context(), code)
	if err != nil {
		log.Errorf("unable to exchange code for token: %v", err)
		http.Redirect(w, r, withSuccess(state.FinalUrl, false), http.StatusFound)
		return
	}
	if err := g.store.SaveToken(r.Context(), state.UserId, token); err != nil {
		http.Redirect(w, r, withSuccess(state.FinalUrl, false), http.StatusFound)
		return
	}
	log.Debugf("Stored Google auth token for user %d", state.UserId)
	http.Redirect(w, r, withSuccess(state.FinalUrl, true), http.StatusFound)
}

// OAuthLogout godoc
// @Summary Forget stored Google credentials
// @Tags Google
// @Success 204 "No Content"
// @Router /api/integrations/google/auth/logout [post]
// @Security XUserId
func (g *GoogleAuth) OAuthLogout(w http.ResponseWriter, r *http.Request) {
	userId, err := user.CurrentId(r.Context())
	if err != nil {
		rest.WriteError(w, http.StatusForbidden, "User not found", "")
		return
	}
	if err := g.store.DeleteToken(r.Context(), userId); err != nil {
		log.Error(err)
		rest.WriteError(w, http.StatusInternalServerError, "Failed to handle Google authentication", "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// client returns nil without error when the user has no stored token.
func (g *GoogleAuth) client(ctx context.Context, userId int) (*http.Client, error) {
	token, err := g.store.GetToken(ctx, userId)
	if err != nil {
		log.Error(err)
		return nil, err
	}
	if token == nil {
		return nil, nil
	}
	return g.oauthConfig.Client(context.WithoutCancel(ctx), token), nil
}

func withSuccess(finalUrl string, success bool) string {
	if finalUrl == "" {
		finalUrl = "/"
	}
	u, err := url.Parse(finalUrl)
	if err != nil {
		return "/"
	}
	q := u.Query()
	if success {
		q.Set("success", "true")
	} else {
		q.Set("success", "false")
	}
	u.RawQuery = q.Encode()
	return u.String()
}
