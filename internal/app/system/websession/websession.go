// internal/app/system/websession/websession.go

// Package websession manages the browser cookie that carries the opaque
// auth session id. The cookie holds nothing else: who (if anyone) is signed
// in behind that id is the auth service's business, surfaced through the
// session store.
package websession

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

const sessionIDKey = "auth_session_id"

// Manager wraps a gorilla CookieStore for the session-id cookie.
type Manager struct {
	store *sessions.CookieStore
	name  string
	log   *zap.Logger
}

// NewManager builds a Manager. An empty sessionKey gets a random one with a
// warning: fine for dev, but sessions then die with the process.
//
// In production (secure=true) cookies are Secure + SameSite=Lax; in local
// dev over http they are plain Lax so the browser accepts them.
func NewManager(sessionKey, name, domain string, secure bool, logger *zap.Logger) (*Manager, error) {
	if name == "" {
		return nil, fmt.Errorf("session cookie name is empty")
	}
	key := []byte(sessionKey)
	if len(key) == 0 {
		key = securecookie.GenerateRandomKey(64)
		logger.Warn("no session key configured; generated a random one (sessions will not survive restarts)")
	} else if len(key) < 32 {
		logger.Warn("session key is short; 32+ chars recommended",
			zap.Int("length", len(key)))
	}

	store := sessions.NewCookieStore(key)
	store.Options = &sessions.Options{
		Domain:   domain,
		Path:     "/",
		Secure:   secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}

	logger.Info("web session store initialized",
		zap.Bool("secure", secure),
		zap.String("cookie", name))

	return &Manager{store: store, name: name, log: logger}, nil
}

// SessionID returns the request's auth session id, minting and saving a new
// one when the cookie is absent or unreadable.
func (m *Manager) SessionID(w http.ResponseWriter, r *http.Request) (string, error) {
	sess, err := m.store.Get(r, m.name)
	if err != nil {
		// Undecodable cookie (rotated key, tampering): start fresh.
		m.log.Warn("session cookie decode failed; issuing new session", zap.Error(err))
		sess, _ = m.store.New(r, m.name)
	}

	if id, ok := sess.Values[sessionIDKey].(string); ok && id != "" {
		return id, nil
	}

	id := uuid.NewString()
	sess.Values[sessionIDKey] = id
	if err := sess.Save(r, w); err != nil {
		return "", fmt.Errorf("save session cookie: %w", err)
	}
	return id, nil
}

// Peek returns the session id without minting one. ok is false when the
// request carries no usable session cookie.
func (m *Manager) Peek(r *http.Request) (string, bool) {
	sess, err := m.store.Get(r, m.name)
	if err != nil {
		return "", false
	}
	id, ok := sess.Values[sessionIDKey].(string)
	return id, ok && id != ""
}

// Clear deletes the session cookie.
func (m *Manager) Clear(w http.ResponseWriter, r *http.Request) error {
	sess, err := m.store.Get(r, m.name)
	if err != nil {
		m.log.Warn("session decode failed during clear", zap.Error(err))
		sess, _ = m.store.New(r, m.name)
	}
	sess.Options.MaxAge = -1 // delete immediately
	return sess.Save(r, w)
}
