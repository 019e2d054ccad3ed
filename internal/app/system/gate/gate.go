// internal/app/system/gate/gate.go

// Package gate enforces the auth requirement on protected routes. A
// protected request first waits for the session store to finish its initial
// synchronization with the auth-state stream, then proceeds only if someone
// is signed in, otherwise redirects to the login entry point carrying the
// originally requested path.
//
// The wait is bounded. An auth stream that never fires (misconfiguration,
// dead backend) fails safe to "signed out" after Wait instead of suspending
// the request forever.
package gate

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tewell/reelhub/internal/app/session"
	"github.com/tewell/reelhub/internal/app/system/websession"
	"github.com/tewell/reelhub/internal/domain/models"

	"go.uber.org/zap"
)

// DefaultWait bounds the wait for session initialization.
const DefaultWait = 5 * time.Second

// LoginPath is where unauthenticated visitors are sent. The original path
// rides along in the return parameter for the post-login redirect.
const LoginPath = "/login"

// Decision is the outcome of the pure gate check.
type Decision struct {
	Allow       bool
	RedirectURL string // set when !Allow
}

// Decide is the gate's decision function. Routes that do not require auth
// always proceed; routes that do proceed iff the snapshot has an identity.
// Callers must only pass initialized snapshots for requiresAuth routes;
// waiting is the middleware's job.
func Decide(st session.State, requiresAuth bool, target string) Decision {
	if !requiresAuth {
		return Decision{Allow: true}
	}
	if st.SignedIn() {
		return Decision{Allow: true}
	}
	return Decision{RedirectURL: LoginPath + "?return=" + url.QueryEscape(target)}
}

// Gate wires the decision function into the router.
type Gate struct {
	Sessions *session.Manager
	Web      *websession.Manager
	Wait     time.Duration
	Log      *zap.Logger
}

// New builds a Gate. wait<=0 selects DefaultWait.
func New(sessions *session.Manager, web *websession.Manager, wait time.Duration, logger *zap.Logger) *Gate {
	if wait <= 0 {
		wait = DefaultWait
	}
	return &Gate{Sessions: sessions, Web: web, Wait: wait, Log: logger}
}

type ctxKey string

const storeKey ctxKey = "sessionStore"

// Load resolves the request's session store and injects it into the
// context. Applied globally, like a "who might this be" pass; it makes no
// auth decision.
func (g *Gate) Load(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sid, err := g.Web.SessionID(w, r)
		if err != nil {
			g.Log.Error("session id resolution failed", zap.Error(err))
			next.ServeHTTP(w, r)
			return
		}
		st := g.Sessions.Get(r.Context(), sid)
		ctx := context.WithValue(r.Context(), storeKey, st)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// StoreFrom returns the session store placed in the context by Load.
func StoreFrom(r *http.Request) (*session.Store, bool) {
	st, ok := r.Context().Value(storeKey).(*session.Store)
	return st, ok
}

// PrincipalFrom returns the signed-in principal behind the request, if any.
func PrincipalFrom(r *http.Request) (*models.Principal, bool) {
	st, ok := StoreFrom(r)
	if !ok {
		return nil, false
	}
	id := st.State().Identity
	return id, id != nil
}

// RequireSession is the middleware form of the gate for protected route
// groups. Unauthenticated callers get a 303 redirect to the login page
// (HTML) or a 401 with the redirect in the body (API).
func (g *Gate) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		st, ok := StoreFrom(r)
		if !ok {
			// Load didn't run or failed; no session state means no entry.
			g.deny(w, r, Decide(session.State{}, true, r.URL.RequestURI()))
			return
		}

		wctx, cancel := context.WithTimeout(r.Context(), g.Wait)
		err := st.WaitUntilInitialized(wctx)
		cancel()
		if err != nil {
			// Fail safe: an uninitialized session is treated as signed out.
			g.Log.Warn("session initialization wait expired; treating as signed out",
				zap.Duration("wait", g.Wait), zap.Error(err))
		}

		d := Decide(st.State(), true, r.URL.RequestURI())
		if d.Allow {
			next.ServeHTTP(w, r)
			return
		}
		g.deny(w, r, d)
	})
}

func (g *Gate) deny(w http.ResponseWriter, r *http.Request, d Decision) {
	if wantsHTML(r) {
		http.Redirect(w, r, d.RedirectURL, http.StatusSeeOther)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"sign-in required","login":"` + d.RedirectURL + `"}`))
}

func wantsHTML(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}
