// internal/app/features/authgoogle/handler_test.go
package authgoogle

import (
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/tewell/reelhub/internal/app/store/oauthstate"
	"github.com/tewell/reelhub/internal/app/system/gate"
	"github.com/tewell/reelhub/internal/testutil"
)

func TestSafeReturn(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", "/"},
		{"/", "/"},
		{"/profile", "/profile"},
		{"/movies/tt0133093?tab=reviews", "/movies/tt0133093?tab=reviews"},
		{"https://evil.example/phish", "/"},
		{"//evil.example/phish", "/"},
		{"javascript:alert(1)", "/"},
		{"profile", "/"},
		{"%zz", "/"},
	}
	for _, c := range cases {
		if got := safeReturn(c.in); got != c.want {
			t.Errorf("safeReturn(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestGenerateState(t *testing.T) {
	a, err := generateState()
	if err != nil {
		t.Fatalf("generateState: %v", err)
	}
	b, err := generateState()
	if err != nil {
		t.Fatalf("generateState: %v", err)
	}
	if a == b {
		t.Error("two states are identical")
	}
	if raw, err := base64.URLEncoding.DecodeString(a); err != nil || len(raw) != 32 {
		t.Errorf("decoded state = %d bytes, err %v", len(raw), err)
	}
}

func TestServeLoginNotConfigured(t *testing.T) {
	h := &Handler{Log: zap.NewNop()}

	w := httptest.NewRecorder()
	h.ServeLogin(w, httptest.NewRequest(http.MethodGet, "/auth/google", nil))

	if w.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", w.Code)
	}
	if got := w.Header().Get("Location"); got != gate.LoginPath+"?error=google_not_configured" {
		t.Errorf("Location = %q", got)
	}
}

func TestServeCallbackRejectsEarly(t *testing.T) {
	h := &Handler{Log: zap.NewNop()}

	cases := []struct {
		name      string
		target    string
		wantError string
	}{
		{"provider error", "/auth/google/callback?error=access_denied", "google_denied"},
		{"missing state", "/auth/google/callback?code=abc", "invalid_state"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			h.ServeCallback(w, httptest.NewRequest(http.MethodGet, c.target, nil))
			if w.Code != http.StatusSeeOther {
				t.Fatalf("status = %d, want 303", w.Code)
			}
			loc, err := url.Parse(w.Header().Get("Location"))
			if err != nil {
				t.Fatalf("parse Location: %v", err)
			}
			if got := loc.Query().Get("error"); got != c.wantError {
				t.Errorf("error = %q, want %q", got, c.wantError)
			}
		})
	}
}

func TestServeLoginRedirectsToConsent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := &Handler{
		StateStore:   oauthstate.New(db),
		Log:          zap.NewNop(),
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURL:  "https://reelhub.example/auth/google/callback",
	}

	w := httptest.NewRecorder()
	h.ServeLogin(w, httptest.NewRequest(http.MethodGet, "/auth/google?return=%2Fprofile", nil))

	if w.Code != http.StatusTemporaryRedirect {
		t.Fatalf("status = %d, want 307", w.Code)
	}
	dest, err := url.Parse(w.Header().Get("Location"))
	if err != nil {
		t.Fatalf("parse Location: %v", err)
	}
	if !strings.Contains(dest.Host, "google") {
		t.Errorf("redirect host = %q", dest.Host)
	}
	q := dest.Query()
	if q.Get("client_id") != "client-id" {
		t.Errorf("client_id = %q", q.Get("client_id"))
	}
	state := q.Get("state")
	if state == "" {
		t.Fatal("no state parameter in consent URL")
	}

	// The state round-trips through the store exactly once.
	ctx, cancel := testutil.TestContext()
	defer cancel()
	returnURL, valid, err := h.StateStore.Validate(ctx, state)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !valid {
		t.Fatal("freshly issued state is invalid")
	}
	if returnURL != "/profile" {
		t.Errorf("returnURL = %q, want /profile", returnURL)
	}
	if _, valid, _ := h.StateStore.Validate(ctx, state); valid {
		t.Error("state validated twice")
	}
}

func TestServeCallbackUnknownState(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := &Handler{
		StateStore:   oauthstate.New(db),
		Log:          zap.NewNop(),
		ClientID:     "client-id",
		ClientSecret: "client-secret",
	}

	w := httptest.NewRecorder()
	h.ServeCallback(w, httptest.NewRequest(http.MethodGet, "/auth/google/callback?state=bogus&code=abc", nil))

	if w.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", w.Code)
	}
	if got := w.Header().Get("Location"); got != gate.LoginPath+"?error=invalid_state" {
		t.Errorf("Location = %q", got)
	}
}
