// internal/app/features/authgoogle/handler.go
package authgoogle

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tewell/reelhub/internal/app/features/login"
	"github.com/tewell/reelhub/internal/app/session"
	"github.com/tewell/reelhub/internal/app/store/oauthstate"
	"github.com/tewell/reelhub/internal/app/system/gate"
	"github.com/tewell/reelhub/internal/app/system/timeouts"
	"github.com/tewell/reelhub/internal/app/system/websession"
	"github.com/tewell/reelhub/internal/domain/models"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const stateTTL = 10 * time.Minute

// Handler handles Google OAuth sign-in.
type Handler struct {
	Sessions   *session.Manager
	Web        *websession.Manager
	StateStore *oauthstate.Store
	Logins     login.LoginRecorder
	Log        *zap.Logger

	ClientID     string
	ClientSecret string
	RedirectURL  string // e.g. "https://reelhub.example/auth/google/callback"
}

// NewHandler creates a new Google OAuth handler.
func NewHandler(
	sessions *session.Manager,
	web *websession.Manager,
	stateStore *oauthstate.Store,
	logins login.LoginRecorder,
	clientID, clientSecret, baseURL string,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Sessions:     sessions,
		Web:          web,
		StateStore:   stateStore,
		Logins:       logins,
		Log:          logger,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  baseURL + "/auth/google/callback",
	}
}

// oauth2Config returns the Google OAuth2 configuration.
func (h *Handler) oauth2Config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     h.ClientID,
		ClientSecret: h.ClientSecret,
		RedirectURL:  h.RedirectURL,
		Scopes: []string{
			"openid",
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: google.Endpoint,
	}
}

// IsConfigured returns true if Google OAuth is configured.
func (h *Handler) IsConfigured() bool {
	return h.ClientID != "" && h.ClientSecret != ""
}

// ServeLogin handles GET /auth/google: redirects to Google's consent
// screen with a one-time state token.
func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	if !h.IsConfigured() {
		h.Log.Warn("Google OAuth not configured")
		http.Redirect(w, r, gate.LoginPath+"?error=google_not_configured", http.StatusSeeOther)
		return
	}

	state, err := generateState()
	if err != nil {
		h.Log.Error("failed to generate OAuth state", zap.Error(err))
		http.Redirect(w, r, gate.LoginPath+"?error=internal", http.StatusSeeOther)
		return
	}

	returnURL := r.URL.Query().Get("return")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	if err := h.StateStore.Save(ctx, state, returnURL, time.Now().UTC().Add(stateTTL)); err != nil {
		h.Log.Error("failed to save OAuth state", zap.Error(err))
		http.Redirect(w, r, gate.LoginPath+"?error=internal", http.StatusSeeOther)
		return
	}

	dest := h.oauth2Config().AuthCodeURL(state, oauth2.AccessTypeOffline)
	h.Log.Debug("initiating Google OAuth flow", zap.String("return_url", returnURL))
	http.Redirect(w, r, dest, http.StatusTemporaryRedirect)
}

// ServeCallback handles GET /auth/google/callback: validates the state,
// exchanges the code, fetches the Google identity, and signs the caller's
// session in as it.
func (h *Handler) ServeCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.Log.Warn("Google OAuth error",
			zap.String("error", errParam),
			zap.String("description", r.URL.Query().Get("error_description")))
		http.Redirect(w, r, gate.LoginPath+"?error=google_denied", http.StatusSeeOther)
		return
	}

	state := r.URL.Query().Get("state")
	if state == "" {
		h.Log.Warn("missing OAuth state parameter")
		http.Redirect(w, r, gate.LoginPath+"?error=invalid_state", http.StatusSeeOther)
		return
	}

	vctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()
	returnURL, valid, err := h.StateStore.Validate(vctx, state)
	if err != nil {
		h.Log.Error("failed to validate OAuth state", zap.Error(err))
		http.Redirect(w, r, gate.LoginPath+"?error=internal", http.StatusSeeOther)
		return
	}
	if !valid {
		h.Log.Warn("invalid or expired OAuth state")
		http.Redirect(w, r, gate.LoginPath+"?error=invalid_state", http.StatusSeeOther)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		h.Log.Warn("missing OAuth code parameter")
		http.Redirect(w, r, gate.LoginPath+"?error=invalid_code", http.StatusSeeOther)
		return
	}

	token, err := h.oauth2Config().Exchange(ctx, code)
	if err != nil {
		h.Log.Error("failed to exchange OAuth code", zap.Error(err))
		http.Redirect(w, r, gate.LoginPath+"?error=token_exchange", http.StatusSeeOther)
		return
	}

	googleUser, err := fetchGoogleUserInfo(ctx, token)
	if err != nil {
		h.Log.Error("failed to fetch Google user info", zap.Error(err))
		http.Redirect(w, r, gate.LoginPath+"?error=user_info", http.StatusSeeOther)
		return
	}
	if !googleUser.EmailVerified {
		h.Log.Warn("Google identity has unverified email",
			zap.String("email", googleUser.Email))
		http.Redirect(w, r, gate.LoginPath+"?error=email_unverified", http.StatusSeeOther)
		return
	}

	sid, err := h.Web.SessionID(w, r)
	if err != nil {
		h.Log.Error("session id resolution failed during OAuth callback", zap.Error(err))
		http.Redirect(w, r, gate.LoginPath+"?error=session", http.StatusSeeOther)
		return
	}

	st := h.Sessions.Get(ctx, sid)
	pr, err := st.LoginExternal(ctx, googleUser.Email, googleUser.Name, googleUser.Picture, models.AuthMethodGoogle)
	if err != nil {
		h.Log.Warn("Google sign-in rejected",
			zap.String("email", googleUser.Email), zap.Error(err))
		http.Redirect(w, r, gate.LoginPath+"?error=sign_in_failed", http.StatusSeeOther)
		return
	}

	if err := h.Logins.CreateFrom(ctx, r, pr.UID, models.AuthMethodGoogle); err != nil {
		h.Log.Warn("login record write failed", zap.String("uid", pr.UID), zap.Error(err))
	}

	h.Log.Info("user signed in via Google OAuth", zap.String("uid", pr.UID))
	http.Redirect(w, r, safeReturn(returnURL), http.StatusSeeOther)
}

// safeReturn keeps post-login redirects on this site. Anything absolute or
// protocol-relative falls back to the root.
func safeReturn(raw string) string {
	if raw == "" {
		return "/"
	}
	u, err := url.Parse(raw)
	if err != nil || u.IsAbs() || u.Host != "" || !strings.HasPrefix(u.Path, "/") || strings.HasPrefix(u.Path, "//") {
		return "/"
	}
	return u.RequestURI()
}

// googleUserInfo represents user info returned from Google.
type googleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// fetchGoogleUserInfo retrieves user information from Google's userinfo endpoint.
func fetchGoogleUserInfo(ctx context.Context, token *oauth2.Token) (*googleUserInfo, error) {
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))

	resp, err := client.Get("https://www.googleapis.com/oauth2/v2/userinfo")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode user info: %w", err)
	}
	return &info, nil
}

// generateState creates a cryptographically secure random state string.
func generateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
