// internal/app/session/manager_test.go
package session_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/tewell/reelhub/internal/app/session"
	"github.com/tewell/reelhub/internal/testutil"
)

func TestManagerReturnsSameStore(t *testing.T) {
	m := session.NewManager(testutil.NewFakeAuth(), testutil.NewFakeProfiles(), zap.NewNop())
	t.Cleanup(m.Close)

	a := m.Get(context.Background(), "sess-1")
	b := m.Get(context.Background(), "sess-1")
	if a != b {
		t.Error("two Gets for one session id returned different stores")
	}

	other := m.Get(context.Background(), "sess-2")
	if other == a {
		t.Error("distinct session ids share a store")
	}
}

func TestManagerGetConcurrent(t *testing.T) {
	m := session.NewManager(testutil.NewFakeAuth(), testutil.NewFakeProfiles(), zap.NewNop())
	t.Cleanup(m.Close)

	const n = 16
	stores := make([]*session.Store, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			stores[i] = m.Get(context.Background(), "sess-1")
		}(i)
	}
	wg.Wait()

	for i := 1; i < n; i++ {
		if stores[i] != stores[0] {
			t.Fatal("concurrent Gets produced different stores")
		}
	}
}

func TestManagerEvict(t *testing.T) {
	auth := testutil.NewFakeAuth()
	m := session.NewManager(auth, testutil.NewFakeProfiles(), zap.NewNop())
	t.Cleanup(m.Close)

	auth.AddAccount("ada@example.com", "hunter2-long")
	a := m.Get(context.Background(), "sess-1")
	m.Evict("sess-1")

	// Evicted store is closed: stream changes no longer reach it.
	if _, err := auth.SignIn(context.Background(), "sess-1", "ada@example.com", "hunter2-long"); err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if a.State().SignedIn() {
		t.Error("evicted store still tracks the stream")
	}

	// A fresh Get builds a new store that sees the current state.
	b := m.Get(context.Background(), "sess-1")
	if b == a {
		t.Error("Get after Evict returned the evicted store")
	}
	if !b.State().SignedIn() {
		t.Error("fresh store missed the signed-in state")
	}
}

func TestManagerEvictsIdleStores(t *testing.T) {
	m := session.NewManager(testutil.NewFakeAuth(), testutil.NewFakeProfiles(), zap.NewNop())
	t.Cleanup(m.Close)

	// One-shot clients that never send their cookie back each mint a
	// fresh session id. Their stores must not stick around forever.
	const n = 200
	for i := 0; i < n; i++ {
		m.Get(context.Background(), fmt.Sprintf("drive-by-%d", i))
	}

	time.Sleep(5 * time.Millisecond)
	if got := m.EvictIdle(0); got != n {
		t.Fatalf("EvictIdle(0) evicted %d stores, want %d", got, n)
	}
	if got := m.EvictIdle(0); got != 0 {
		t.Errorf("second EvictIdle(0) evicted %d stores, want 0", got)
	}
}

func TestManagerEvictIdleKeepsActiveStores(t *testing.T) {
	m := session.NewManager(testutil.NewFakeAuth(), testutil.NewFakeProfiles(), zap.NewNop())
	t.Cleanup(m.Close)

	active := m.Get(context.Background(), "sess-active")
	m.Get(context.Background(), "sess-stale")

	if got := m.EvictIdle(time.Hour); got != 0 {
		t.Fatalf("EvictIdle(1h) evicted %d recently used stores, want 0", got)
	}

	// A store touched by Get after eviction is the same store.
	if m.Get(context.Background(), "sess-active") != active {
		t.Error("active store was replaced after EvictIdle")
	}
}
