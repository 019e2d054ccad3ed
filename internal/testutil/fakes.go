// internal/testutil/fakes.go
package testutil

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tewell/reelhub/internal/app/system/authsvc"
	"github.com/tewell/reelhub/internal/app/system/normalize"
	"github.com/tewell/reelhub/internal/domain/models"
)

// FakeAuth is an in-memory authsvc.Service. Accounts are plaintext keyed by
// email; sessions and subscribers live in maps. With HoldInitial set, the
// immediate first fire of OnStateChange is withheld until FireInitial is
// called, which lets tests observe the gate's suspended wait.
type FakeAuth struct {
	HoldInitial bool

	mu       sync.Mutex
	accounts map[string]fakeAccount         // email → account
	sessions map[string]*models.Principal   // session id → principal
	subs     map[string]map[int]func(*models.Principal)
	held     []func() // withheld initial fires
	next     int
}

type fakeAccount struct {
	uid      string
	email    string
	password string
	disabled bool
}

// NewFakeAuth creates an empty FakeAuth.
func NewFakeAuth() *FakeAuth {
	return &FakeAuth{
		accounts: make(map[string]fakeAccount),
		sessions: make(map[string]*models.Principal),
		subs:     make(map[string]map[int]func(*models.Principal)),
	}
}

// AddAccount seeds an account and returns its UID.
func (f *FakeAuth) AddAccount(email, password string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	email = normalize.Email(email)
	a := fakeAccount{uid: uuid.NewString(), email: email, password: password}
	f.accounts[email] = a
	return a.uid
}

func (f *FakeAuth) SignIn(ctx context.Context, sessionID, email, password string) (models.Principal, error) {
	f.mu.Lock()
	a, ok := f.accounts[normalize.Email(email)]
	f.mu.Unlock()
	if !ok || a.password != password {
		return models.Principal{}, authsvc.NewError(authsvc.CodeInvalidCredential, errors.New("bad credentials"))
	}
	if a.disabled {
		return models.Principal{}, authsvc.NewError(authsvc.CodeUserDisabled, errors.New("account disabled"))
	}
	pr := models.Principal{UID: a.uid, Email: a.email}
	f.establish(sessionID, pr)
	return pr, nil
}

func (f *FakeAuth) SignUp(ctx context.Context, sessionID, email, password string) (models.Principal, error) {
	email = normalize.Email(email)
	f.mu.Lock()
	if _, exists := f.accounts[email]; exists {
		f.mu.Unlock()
		return models.Principal{}, authsvc.NewError(authsvc.CodeEmailInUse, errors.New("email already registered"))
	}
	a := fakeAccount{uid: uuid.NewString(), email: email, password: password}
	f.accounts[email] = a
	f.mu.Unlock()

	pr := models.Principal{UID: a.uid, Email: a.email}
	f.establish(sessionID, pr)
	return pr, nil
}

func (f *FakeAuth) SignInExternal(ctx context.Context, sessionID, email, provider string) (models.Principal, error) {
	email = normalize.Email(email)
	f.mu.Lock()
	a, ok := f.accounts[email]
	if !ok {
		a = fakeAccount{uid: uuid.NewString(), email: email}
		f.accounts[email] = a
	}
	f.mu.Unlock()
	if a.disabled {
		return models.Principal{}, authsvc.NewError(authsvc.CodeUserDisabled, errors.New("account disabled"))
	}
	pr := models.Principal{UID: a.uid, Email: a.email}
	f.establish(sessionID, pr)
	return pr, nil
}

func (f *FakeAuth) SignOut(ctx context.Context, sessionID string) error {
	f.mu.Lock()
	delete(f.sessions, sessionID)
	f.mu.Unlock()
	f.publish(sessionID, nil)
	return nil
}

func (f *FakeAuth) OnStateChange(ctx context.Context, sessionID string, fn func(*models.Principal)) authsvc.CancelFunc {
	f.mu.Lock()
	token := f.next
	f.next++
	if f.subs[sessionID] == nil {
		f.subs[sessionID] = make(map[int]func(*models.Principal))
	}
	f.subs[sessionID][token] = fn
	cur := f.sessions[sessionID]
	initial := func() { fn(cur) }
	if f.HoldInitial {
		f.held = append(f.held, initial)
		initial = nil
	}
	f.mu.Unlock()

	if initial != nil {
		initial()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			defer f.mu.Unlock()
			delete(f.subs[sessionID], token)
		})
	}
}

// FireInitial delivers the withheld immediate notifications.
func (f *FakeAuth) FireInitial() {
	f.mu.Lock()
	held := f.held
	f.held = nil
	f.mu.Unlock()
	for _, fn := range held {
		fn()
	}
}

// Disable marks an account disabled and signs out its sessions, emulating a
// spontaneous external change.
func (f *FakeAuth) Disable(email string) {
	email = normalize.Email(email)
	f.mu.Lock()
	a, ok := f.accounts[email]
	if !ok {
		f.mu.Unlock()
		return
	}
	a.disabled = true
	f.accounts[email] = a
	var affected []string
	for sid, pr := range f.sessions {
		if pr != nil && pr.UID == a.uid {
			affected = append(affected, sid)
		}
	}
	for _, sid := range affected {
		delete(f.sessions, sid)
	}
	f.mu.Unlock()
	for _, sid := range affected {
		f.publish(sid, nil)
	}
}

func (f *FakeAuth) establish(sessionID string, pr models.Principal) {
	f.mu.Lock()
	f.sessions[sessionID] = &pr
	f.mu.Unlock()
	f.publish(sessionID, &pr)
}

func (f *FakeAuth) publish(sessionID string, pr *models.Principal) {
	f.mu.Lock()
	fns := make([]func(*models.Principal), 0, len(f.subs[sessionID]))
	for _, fn := range f.subs[sessionID] {
		fns = append(fns, fn)
	}
	f.mu.Unlock()
	for _, fn := range fns {
		fn(pr)
	}
}

// FakeProfiles is an in-memory session.ProfileSource with per-operation
// error injection.
type FakeProfiles struct {
	mu       sync.Mutex
	profiles map[string]models.Profile

	FailGet    error
	FailCreate error
	FailUpdate error
	FailPrefs  error
	FailTouch  error
}

// NewFakeProfiles creates an empty FakeProfiles.
func NewFakeProfiles() *FakeProfiles {
	return &FakeProfiles{profiles: make(map[string]models.Profile)}
}

func (f *FakeProfiles) Get(ctx context.Context, uid string) (*models.Profile, error) {
	if f.FailGet != nil {
		return nil, f.FailGet
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[uid]
	if !ok {
		return nil, nil
	}
	cp := p
	return &cp, nil
}

func (f *FakeProfiles) Create(ctx context.Context, uid string, data models.Profile) error {
	if f.FailCreate != nil {
		return f.FailCreate
	}
	now := time.Now().UTC()
	data.UID = uid
	if data.Preferences == nil {
		data.Preferences = models.Preferences{}
	}
	data.CreatedAt = now
	data.UpdatedAt = now
	data.LastLoginAt = now
	f.mu.Lock()
	defer f.mu.Unlock()
	f.profiles[uid] = data
	return nil
}

func (f *FakeProfiles) Update(ctx context.Context, uid string, fields map[string]any) error {
	if f.FailUpdate != nil {
		return f.FailUpdate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	p := f.profiles[uid]
	p.UID = uid
	if v, ok := fields["display_name"].(string); ok {
		p.DisplayName = v
	}
	if v, ok := fields["photo_url"].(string); ok {
		p.PhotoURL = v
	}
	p.UpdatedAt = time.Now().UTC()
	f.profiles[uid] = p
	return nil
}

func (f *FakeProfiles) SetPreferences(ctx context.Context, uid string, prefs models.Preferences) error {
	if f.FailPrefs != nil {
		return f.FailPrefs
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	p := f.profiles[uid]
	p.UID = uid
	p.Preferences = prefs
	p.UpdatedAt = time.Now().UTC()
	f.profiles[uid] = p
	return nil
}

func (f *FakeProfiles) TouchLastLogin(ctx context.Context, uid string) error {
	if f.FailTouch != nil {
		return f.FailTouch
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	p := f.profiles[uid]
	p.UID = uid
	p.LastLoginAt = time.Now().UTC()
	f.profiles[uid] = p
	return nil
}

// Stored returns a copy of the stored profile, if any.
func (f *FakeProfiles) Stored(uid string) (models.Profile, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[uid]
	return p, ok
}
