// internal/app/session/manager.go
package session

import (
	"context"
	"sync"
	"time"

	"github.com/tewell/reelhub/internal/app/system/authsvc"
	"go.uber.org/zap"
)

// DefaultIdleTTL is how long an untouched Store is kept before the janitor
// evicts it. Eviction only drops the in-memory store; the session itself
// lives in the database, so the next request rebuilds the store and
// re-syncs.
const DefaultIdleTTL = 30 * time.Minute

// Manager materializes one Store per auth session id. It is the seam
// between the cookie layer (which only knows session ids) and the session
// state machine: handlers and the gate ask it for the Store behind the
// current request.
//
// Stores are evicted on logout and when idle past DefaultIdleTTL, so
// one-shot clients that never send their cookie back (bots, probes, curl)
// do not pin a store and a stream subscription forever.
type Manager struct {
	svc      authsvc.Service
	profiles ProfileSource
	log      *zap.Logger

	mu     sync.Mutex
	stores map[string]*managedStore

	done      chan struct{}
	closeOnce sync.Once
}

type managedStore struct {
	store    *Store
	lastSeen time.Time
}

// NewManager creates a Manager over the given auth service and profile
// source and starts its idle-eviction janitor.
func NewManager(svc authsvc.Service, profiles ProfileSource, logger *zap.Logger) *Manager {
	m := &Manager{
		svc:      svc,
		profiles: profiles,
		log:      logger,
		stores:   make(map[string]*managedStore),
		done:     make(chan struct{}),
	}
	go m.janitor()
	return m
}

// Get returns the Store for sessionID, constructing and subscribing it on
// first use.
func (m *Manager) Get(ctx context.Context, sessionID string) *Store {
	m.mu.Lock()
	if e, ok := m.stores[sessionID]; ok {
		e.lastSeen = time.Now()
		m.mu.Unlock()
		return e.store
	}
	m.mu.Unlock()

	// Construct outside the lock; New fires the stream's immediate
	// notification synchronously and may take a DB round trip.
	st := New(ctx, sessionID, m.svc, m.profiles, m.log)

	m.mu.Lock()
	defer m.mu.Unlock()
	if prior, ok := m.stores[sessionID]; ok {
		// Lost a construction race; keep the first store.
		st.Close()
		prior.lastSeen = time.Now()
		return prior.store
	}
	m.stores[sessionID] = &managedStore{store: st, lastSeen: time.Now()}
	return st
}

// Evict closes and forgets the Store for sessionID. Called when the cookie
// session is destroyed.
func (m *Manager) Evict(sessionID string) {
	m.mu.Lock()
	e, ok := m.stores[sessionID]
	delete(m.stores, sessionID)
	m.mu.Unlock()
	if ok {
		e.store.Close()
	}
}

// EvictIdle closes and forgets every Store that has not been touched for
// olderThan. It returns the number of stores evicted.
func (m *Manager) EvictIdle(olderThan time.Duration) int {
	cutoff := time.Now().Add(-olderThan)

	m.mu.Lock()
	var victims []*managedStore
	for sid, e := range m.stores {
		if e.lastSeen.Before(cutoff) {
			victims = append(victims, e)
			delete(m.stores, sid)
		}
	}
	m.mu.Unlock()

	for _, e := range victims {
		e.store.Close()
	}
	if len(victims) > 0 {
		m.log.Debug("evicted idle session stores", zap.Int("count", len(victims)))
	}
	return len(victims)
}

func (m *Manager) janitor() {
	ticker := time.NewTicker(DefaultIdleTTL / 4)
	defer ticker.Stop()
	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			m.EvictIdle(DefaultIdleTTL)
		}
	}
}

// Close stops the janitor and evicts every Store. Called at shutdown.
func (m *Manager) Close() {
	m.closeOnce.Do(func() { close(m.done) })

	m.mu.Lock()
	stores := m.stores
	m.stores = make(map[string]*managedStore)
	m.mu.Unlock()
	for _, e := range stores {
		e.store.Close()
	}
}
