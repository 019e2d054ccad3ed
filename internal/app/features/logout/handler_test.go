// internal/app/features/logout/handler_test.go
package logout_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/tewell/reelhub/internal/app/features/logout"
	"github.com/tewell/reelhub/internal/app/session"
	"github.com/tewell/reelhub/internal/app/system/gate"
	"github.com/tewell/reelhub/internal/app/system/websession"
	"github.com/tewell/reelhub/internal/testutil"
)

func TestHandleLogout(t *testing.T) {
	logger := zap.NewNop()
	auth := testutil.NewFakeAuth()
	auth.AddAccount("ada@example.com", "hunter2-long")
	sessions := session.NewManager(auth, testutil.NewFakeProfiles(), logger)
	t.Cleanup(sessions.Close)
	web, err := websession.NewManager("0123456789abcdef0123456789abcdef", "reelhub_session", "", false, logger)
	if err != nil {
		t.Fatalf("websession.NewManager: %v", err)
	}
	g := gate.New(sessions, web, 0, logger)
	h := g.Load(logout.Routes(logout.NewHandler(sessions, web, logger)))

	// Mint a session cookie, then sign that session in.
	seed := httptest.NewRecorder()
	sid, err := web.SessionID(seed, httptest.NewRequest(http.MethodGet, "/", nil))
	if err != nil {
		t.Fatalf("SessionID: %v", err)
	}
	st := sessions.Get(context.Background(), sid)
	if _, err := st.Login(context.Background(), "ada@example.com", "hunter2-long"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	r := httptest.NewRequest(http.MethodPost, "/", nil)
	for _, c := range seed.Result().Cookies() {
		r.AddCookie(c)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp struct {
		SignedIn    bool `json:"signed_in"`
		Initialized bool `json:"initialized"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.SignedIn {
		t.Error("signed_in = true after logout")
	}
	if !resp.Initialized {
		t.Error("initialized = false in logout response")
	}

	// Cookie cleared.
	cleared := false
	for _, c := range w.Result().Cookies() {
		if c.Name == "reelhub_session" && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Error("session cookie not expired by logout")
	}

	// Auth session signed out and store evicted: a fresh store for the same
	// id reports signed out.
	fresh := sessions.Get(context.Background(), sid)
	if fresh == st {
		t.Error("session store not evicted by logout")
	}
	if fresh.State().SignedIn() {
		t.Error("auth session still signed in after logout")
	}
}

func TestHandleLogoutSignedOutSession(t *testing.T) {
	logger := zap.NewNop()
	sessions := session.NewManager(testutil.NewFakeAuth(), testutil.NewFakeProfiles(), logger)
	t.Cleanup(sessions.Close)
	web, err := websession.NewManager("0123456789abcdef0123456789abcdef", "reelhub_session", "", false, logger)
	if err != nil {
		t.Fatalf("websession.NewManager: %v", err)
	}
	g := gate.New(sessions, web, 0, logger)
	h := g.Load(logout.Routes(logout.NewHandler(sessions, web, logger)))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("logout of signed-out session: status = %d", w.Code)
	}
}
