// internal/app/session/store.go

// Package session holds the observable session state for one signed-in (or
// signed-out) principal and keeps it synchronized with the auth service's
// state stream.
//
// A Store is constructed per logical auth session, subscribes to the stream
// exactly once, and is the only writer of its own fields. Handlers and the
// navigation gate read snapshots via State() or wait on
// WaitUntilInitialized.
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/tewell/reelhub/internal/app/system/authsvc"
	"github.com/tewell/reelhub/internal/app/system/timeouts"
	"github.com/tewell/reelhub/internal/domain/models"

	"go.uber.org/zap"
)

// ErrNoSession is returned by operations that require a signed-in identity
// when the session is signed out.
var ErrNoSession = errors.New("no user signed in")

// ProfileSource is the slice of the profile repository the session store
// composes with. Satisfied by *profiles.Store and by test fakes.
type ProfileSource interface {
	Get(ctx context.Context, uid string) (*models.Profile, error)
	Create(ctx context.Context, uid string, data models.Profile) error
	Update(ctx context.Context, uid string, fields map[string]any) error
	SetPreferences(ctx context.Context, uid string, prefs models.Preferences) error
	TouchLastLogin(ctx context.Context, uid string) error
}

// State is an immutable snapshot of the session.
//
// Initialized becomes true after the first auth-stream notification and
// stays true; Loading is true before that and for the duration of Login and
// Register calls. Identity and Profile agree whenever both are set.
type State struct {
	Identity    *models.Principal
	Profile     *models.Profile
	Loading     bool
	Initialized bool
}

// SignedIn reports whether the snapshot has an identity.
func (s State) SignedIn() bool { return s.Identity != nil }

// RegisterExtra carries the optional profile fields supplied at
// registration.
type RegisterExtra struct {
	DisplayName string
	PhotoURL    string
	Preferences models.Preferences
}

// ProfileUpdate names the profile fields UpdateProfile can change. Nil
// pointers are left untouched.
type ProfileUpdate struct {
	DisplayName *string
	PhotoURL    *string
}

func (u ProfileUpdate) fields() map[string]any {
	f := map[string]any{}
	if u.DisplayName != nil {
		f["display_name"] = *u.DisplayName
	}
	if u.PhotoURL != nil {
		f["photo_url"] = *u.PhotoURL
	}
	return f
}

// Store is the observable session object.
type Store struct {
	sid      string
	svc      authsvc.Service
	profiles ProfileSource
	log      *zap.Logger

	mu          sync.RWMutex
	identity    *models.Principal
	profile     *models.Profile
	loading     bool
	initialized bool

	initOnce sync.Once
	initCh   chan struct{}

	subMu sync.Mutex
	subs  map[int]func(State)
	next  int

	cancel authsvc.CancelFunc
}

// New constructs a Store for the given auth session id and subscribes it to
// the auth-state stream. The stream fires immediately, so a Store built
// from an already-signed-in session is initialized before New returns (for
// the production provider; a slow fake may initialize later).
func New(ctx context.Context, sessionID string, svc authsvc.Service, profiles ProfileSource, logger *zap.Logger) *Store {
	s := &Store{
		sid:      sessionID,
		svc:      svc,
		profiles: profiles,
		log:      logger,
		loading:  true,
		initCh:   make(chan struct{}),
		subs:     make(map[int]func(State)),
	}
	s.cancel = svc.OnStateChange(ctx, sessionID, s.handleAuthState)
	return s
}

// handleAuthState is the single entry point for stream notifications. Every
// notification re-derives the cached profile: a best-effort fetch when
// signed in (failure degrades to no profile, never to a failed transition),
// a clear when signed out.
func (s *Store) handleAuthState(pr *models.Principal) {
	var profile *models.Profile
	if pr != nil {
		ctx, cancel := context.WithTimeout(context.Background(), timeouts.Short())
		p, err := s.profiles.Get(ctx, pr.UID)
		cancel()
		if err != nil {
			s.log.Warn("session: profile load failed, continuing without profile",
				zap.String("uid", pr.UID), zap.Error(err))
		} else {
			profile = p
		}
	}

	s.mu.Lock()
	s.identity = pr
	s.profile = profile
	s.loading = false
	s.initialized = true
	s.mu.Unlock()

	s.initOnce.Do(func() { close(s.initCh) })
	s.notify()
}

// State returns a snapshot of the session.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return State{
		Identity:    s.identity,
		Profile:     s.profile,
		Loading:     s.loading,
		Initialized: s.initialized,
	}
}

// WaitUntilInitialized blocks until the first auth-stream notification has
// been processed or ctx expires.
func (s *Store) WaitUntilInitialized(ctx context.Context) error {
	select {
	case <-s.initCh:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Subscribe registers fn to be called with a snapshot after every state
// change. The returned cancel removes the subscription.
func (s *Store) Subscribe(fn func(State)) func() {
	s.subMu.Lock()
	token := s.next
	s.next++
	s.subs[token] = fn
	s.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			defer s.subMu.Unlock()
			delete(s.subs, token)
		})
	}
}

func (s *Store) notify() {
	st := s.State()
	s.subMu.Lock()
	fns := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()
	for _, fn := range fns {
		fn(st)
	}
}

func (s *Store) setLoading(v bool) {
	s.mu.Lock()
	s.loading = v
	s.mu.Unlock()
	s.notify()
}

// Login delegates the credential check to the auth service. Identity and
// profile are updated by the resulting stream notification, not here; the
// only direct side effect is touching last_login_at. Auth errors propagate
// unchanged, provider code intact.
func (s *Store) Login(ctx context.Context, email, password string) (models.Principal, error) {
	s.setLoading(true)
	defer s.setLoading(false)

	pr, err := s.svc.SignIn(ctx, s.sid, email, password)
	if err != nil {
		s.log.Info("login failed",
			zap.String("code", authsvc.ErrCode(err)), zap.Error(err))
		return models.Principal{}, err
	}

	if err := s.profiles.TouchLastLogin(ctx, pr.UID); err != nil {
		return models.Principal{}, err
	}
	return pr, nil
}

// Register creates the account, then synchronously creates the profile. If
// the profile write fails the account still exists; there is no
// compensating delete, so the error is logged loudly before propagating.
func (s *Store) Register(ctx context.Context, email, password string, extra RegisterExtra) (models.Principal, error) {
	s.setLoading(true)
	defer s.setLoading(false)

	pr, err := s.svc.SignUp(ctx, s.sid, email, password)
	if err != nil {
		s.log.Info("registration failed",
			zap.String("code", authsvc.ErrCode(err)), zap.Error(err))
		return models.Principal{}, err
	}

	prefs := extra.Preferences
	if prefs == nil {
		prefs = models.Preferences{}
	}
	profile := models.Profile{
		Email:       pr.Email,
		DisplayName: extra.DisplayName,
		PhotoURL:    extra.PhotoURL,
		Preferences: prefs,
	}
	if err := s.profiles.Create(ctx, pr.UID, profile); err != nil {
		s.log.Error("register: account exists but profile creation failed",
			zap.String("uid", pr.UID), zap.Error(err))
		return models.Principal{}, err
	}

	// The stream notification fired before the profile document existed;
	// re-derive the cache now that it does.
	s.refreshProfile(ctx)
	return pr, nil
}

// LoginExternal signs the session in through a federated identity already
// verified by the provider. A first sign-in has no profile yet; one is
// created from the identity's claims.
func (s *Store) LoginExternal(ctx context.Context, email, displayName, photoURL, provider string) (models.Principal, error) {
	s.setLoading(true)
	defer s.setLoading(false)

	pr, err := s.svc.SignInExternal(ctx, s.sid, email, provider)
	if err != nil {
		s.log.Info("external login failed",
			zap.String("provider", provider),
			zap.String("code", authsvc.ErrCode(err)), zap.Error(err))
		return models.Principal{}, err
	}

	existing, err := s.profiles.Get(ctx, pr.UID)
	if err != nil {
		return models.Principal{}, err
	}
	if existing == nil {
		profile := models.Profile{
			Email:       pr.Email,
			DisplayName: displayName,
			PhotoURL:    photoURL,
			Preferences: models.Preferences{},
		}
		if err := s.profiles.Create(ctx, pr.UID, profile); err != nil {
			s.log.Error("external login: account exists but profile creation failed",
				zap.String("uid", pr.UID), zap.Error(err))
			return models.Principal{}, err
		}
	} else if err := s.profiles.TouchLastLogin(ctx, pr.UID); err != nil {
		return models.Principal{}, err
	}

	s.refreshProfile(ctx)
	return pr, nil
}

// refreshProfile re-reads the cached profile for the current identity and
// notifies subscribers. Failures leave the cache alone.
func (s *Store) refreshProfile(ctx context.Context) {
	s.mu.RLock()
	id := s.identity
	s.mu.RUnlock()
	if id == nil {
		return
	}

	p, err := s.profiles.Get(ctx, id.UID)
	if err != nil {
		s.log.Warn("profile refresh failed", zap.String("uid", id.UID), zap.Error(err))
		return
	}

	s.mu.Lock()
	s.profile = p
	s.mu.Unlock()
	s.notify()
}

// Logout delegates to the auth service's sign-out. The cached profile is
// cleared immediately; identity clearing arrives with the stream
// notification.
func (s *Store) Logout(ctx context.Context) error {
	if err := s.svc.SignOut(ctx, s.sid); err != nil {
		return err
	}

	s.mu.Lock()
	s.profile = nil
	s.mu.Unlock()
	s.notify()
	return nil
}

// UpdateProfile writes the given fields through the profile repository and,
// only after the write succeeds, merges them into the cached profile.
func (s *Store) UpdateProfile(ctx context.Context, updates ProfileUpdate) error {
	s.mu.RLock()
	id := s.identity
	s.mu.RUnlock()
	if id == nil {
		return ErrNoSession
	}

	if err := s.profiles.Update(ctx, id.UID, updates.fields()); err != nil {
		return err
	}

	s.mu.Lock()
	if s.profile != nil {
		if updates.DisplayName != nil {
			s.profile.DisplayName = *updates.DisplayName
		}
		if updates.PhotoURL != nil {
			s.profile.PhotoURL = *updates.PhotoURL
		}
	}
	s.mu.Unlock()
	s.notify()
	return nil
}

// UpdatePreferences replaces the persisted preferences and, after the write
// succeeds, merges the new keys into the cached copy.
func (s *Store) UpdatePreferences(ctx context.Context, prefs models.Preferences) error {
	s.mu.RLock()
	id := s.identity
	s.mu.RUnlock()
	if id == nil {
		return ErrNoSession
	}

	if err := s.profiles.SetPreferences(ctx, id.UID, prefs); err != nil {
		return err
	}

	s.mu.Lock()
	if s.profile != nil {
		merged := models.Preferences{}
		for k, v := range s.profile.Preferences {
			merged[k] = v
		}
		for k, v := range prefs {
			merged[k] = v
		}
		s.profile.Preferences = merged
	}
	s.mu.Unlock()
	s.notify()
	return nil
}

// Close unsubscribes from the auth-state stream. The Store remains readable
// but no longer tracks changes.
func (s *Store) Close() {
	if s.cancel != nil {
		s.cancel()
	}
}
