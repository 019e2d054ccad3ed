// internal/app/system/authsvc/provider_test.go
package authsvc_test

import (
	"testing"

	"go.uber.org/zap"

	"github.com/tewell/reelhub/internal/app/system/authsvc"
	"github.com/tewell/reelhub/internal/domain/models"
	"github.com/tewell/reelhub/internal/testutil"
)

func newTestProvider(t *testing.T) (*authsvc.Provider, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	p := authsvc.NewProvider(db, zap.NewNop())

	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := p.EnsureIndexes(ctx); err != nil {
		t.Fatalf("EnsureIndexes: %v", err)
	}
	return p, testutil.NewFixtures(db)
}

func TestSignUpAndSignIn(t *testing.T) {
	p, _ := newTestProvider(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	pr, err := p.SignUp(ctx, "sess-1", "  Ada@Example.COM ", "correct-horse")
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if pr.UID == "" {
		t.Fatal("empty UID from SignUp")
	}
	if pr.Email != "ada@example.com" {
		t.Errorf("Email = %q, want normalized ada@example.com", pr.Email)
	}

	cur, err := p.Current(ctx, "sess-1")
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if cur == nil || cur.UID != pr.UID {
		t.Errorf("Current = %+v, want %+v", cur, pr)
	}

	// Fresh session signs in with the same credentials.
	pr2, err := p.SignIn(ctx, "sess-2", "ada@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if pr2.UID != pr.UID {
		t.Errorf("SignIn UID = %q, want %q", pr2.UID, pr.UID)
	}
}

func TestSignUpValidation(t *testing.T) {
	p, fx := newTestProvider(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	cases := []struct {
		name     string
		email    string
		password string
		wantCode string
	}{
		{"missing at", "not-an-email", "correct-horse", authsvc.CodeInvalidEmail},
		{"empty local part", "@example.com", "correct-horse", authsvc.CodeInvalidEmail},
		{"trailing at", "ada@", "correct-horse", authsvc.CodeInvalidEmail},
		{"short password", "ada@example.com", "short", authsvc.CodeWeakPassword},
		{"empty password", "ada@example.com", "", authsvc.CodeWeakPassword},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := p.SignUp(ctx, "sess-1", tc.email, tc.password)
			if !authsvc.IsCode(err, tc.wantCode) {
				t.Fatalf("err = %v, want code %s", err, tc.wantCode)
			}
		})
	}
	if n := fx.CountDocs(t, "accounts"); n != 0 {
		t.Errorf("%d accounts created by rejected sign-ups", n)
	}
}

func TestSignUpDuplicateEmail(t *testing.T) {
	p, _ := newTestProvider(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := p.SignUp(ctx, "sess-1", "ada@example.com", "correct-horse"); err != nil {
		t.Fatalf("first SignUp: %v", err)
	}
	_, err := p.SignUp(ctx, "sess-2", "ADA@example.com", "another-pass")
	if !authsvc.IsCode(err, authsvc.CodeEmailInUse) {
		t.Fatalf("err = %v, want code %s", err, authsvc.CodeEmailInUse)
	}
}

func TestSignInWrongCredentials(t *testing.T) {
	p, fx := newTestProvider(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx.CreateAccount(t, "ada@example.com", "correct-horse")

	// Unknown email and wrong password produce the same code.
	_, err := p.SignIn(ctx, "sess-1", "nobody@example.com", "whatever-pass")
	if !authsvc.IsCode(err, authsvc.CodeInvalidCredential) {
		t.Fatalf("unknown email: err = %v, want %s", err, authsvc.CodeInvalidCredential)
	}
	_, err = p.SignIn(ctx, "sess-1", "ada@example.com", "wrong-password")
	if !authsvc.IsCode(err, authsvc.CodeInvalidCredential) {
		t.Fatalf("wrong password: err = %v, want %s", err, authsvc.CodeInvalidCredential)
	}

	cur, err := p.Current(ctx, "sess-1")
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if cur != nil {
		t.Errorf("session signed in after failed attempts: %+v", cur)
	}
}

func TestSignInDisabledAccount(t *testing.T) {
	p, fx := newTestProvider(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a := fx.CreateAccount(t, "ada@example.com", "correct-horse")
	if err := p.DisableAccount(ctx, a.UID); err != nil {
		t.Fatalf("DisableAccount: %v", err)
	}

	_, err := p.SignIn(ctx, "sess-1", "ada@example.com", "correct-horse")
	if !authsvc.IsCode(err, authsvc.CodeUserDisabled) {
		t.Fatalf("err = %v, want code %s", err, authsvc.CodeUserDisabled)
	}
}

func TestSignInExternalCreatesOnFirstUse(t *testing.T) {
	p, fx := newTestProvider(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	pr, err := p.SignInExternal(ctx, "sess-1", "grace@example.com", "google")
	if err != nil {
		t.Fatalf("first SignInExternal: %v", err)
	}
	if n := fx.CountDocs(t, "accounts"); n != 1 {
		t.Fatalf("account count = %d, want 1", n)
	}

	// Second sign-in reuses the account.
	pr2, err := p.SignInExternal(ctx, "sess-2", "grace@example.com", "google")
	if err != nil {
		t.Fatalf("second SignInExternal: %v", err)
	}
	if pr2.UID != pr.UID {
		t.Errorf("UID changed across external sign-ins: %q != %q", pr2.UID, pr.UID)
	}
	if n := fx.CountDocs(t, "accounts"); n != 1 {
		t.Errorf("account count = %d after repeat sign-in, want 1", n)
	}

	// A federated account has no password to sign in with.
	_, err = p.SignIn(ctx, "sess-3", "grace@example.com", "anything-here")
	if !authsvc.IsCode(err, authsvc.CodeInvalidCredential) {
		t.Errorf("password sign-in to federated account: err = %v, want %s",
			err, authsvc.CodeInvalidCredential)
	}
}

func TestSignOut(t *testing.T) {
	p, _ := newTestProvider(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := p.SignUp(ctx, "sess-1", "ada@example.com", "correct-horse"); err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if err := p.SignOut(ctx, "sess-1"); err != nil {
		t.Fatalf("SignOut: %v", err)
	}

	cur, err := p.Current(ctx, "sess-1")
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if cur != nil {
		t.Errorf("session still signed in after SignOut: %+v", cur)
	}

	// Signing out an already-signed-out session is not an error.
	if err := p.SignOut(ctx, "sess-1"); err != nil {
		t.Errorf("repeat SignOut: %v", err)
	}
}

func TestOnStateChangeFiresImmediately(t *testing.T) {
	p, _ := newTestProvider(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	var got []*models.Principal
	cancelSub := p.OnStateChange(ctx, "sess-1", func(pr *models.Principal) {
		got = append(got, pr)
	})
	defer cancelSub()

	if len(got) != 1 {
		t.Fatalf("notifications after subscribe = %d, want 1 immediate fire", len(got))
	}
	if got[0] != nil {
		t.Errorf("immediate fire = %+v for signed-out session, want nil", got[0])
	}

	pr, err := p.SignUp(ctx, "sess-1", "ada@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if len(got) != 2 || got[1] == nil || got[1].UID != pr.UID {
		t.Fatalf("after sign-up: notifications = %+v", got)
	}

	if err := p.SignOut(ctx, "sess-1"); err != nil {
		t.Fatalf("SignOut: %v", err)
	}
	if len(got) != 3 || got[2] != nil {
		t.Fatalf("after sign-out: notifications = %+v", got)
	}

	cancelSub()
	if _, err := p.SignIn(ctx, "sess-1", "ada@example.com", "correct-horse"); err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if len(got) != 3 {
		t.Error("subscriber notified after cancel")
	}
}

func TestOnStateChangeSignedInSession(t *testing.T) {
	p, _ := newTestProvider(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	pr, err := p.SignUp(ctx, "sess-1", "ada@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}

	var got *models.Principal
	cancelSub := p.OnStateChange(ctx, "sess-1", func(p *models.Principal) { got = p })
	defer cancelSub()

	if got == nil || got.UID != pr.UID {
		t.Errorf("immediate fire = %+v, want current principal", got)
	}
}

func TestDisableAccountSignsOutSessions(t *testing.T) {
	p, _ := newTestProvider(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	pr, err := p.SignUp(ctx, "sess-1", "ada@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if _, err := p.SignIn(ctx, "sess-2", "ada@example.com", "correct-horse"); err != nil {
		t.Fatalf("SignIn sess-2: %v", err)
	}

	var sess1, sess2 []*models.Principal
	c1 := p.OnStateChange(ctx, "sess-1", func(p *models.Principal) { sess1 = append(sess1, p) })
	defer c1()
	c2 := p.OnStateChange(ctx, "sess-2", func(p *models.Principal) { sess2 = append(sess2, p) })
	defer c2()

	if err := p.DisableAccount(ctx, pr.UID); err != nil {
		t.Fatalf("DisableAccount: %v", err)
	}

	if last := sess1[len(sess1)-1]; last != nil {
		t.Errorf("sess-1 final state = %+v, want signed out", last)
	}
	if last := sess2[len(sess2)-1]; last != nil {
		t.Errorf("sess-2 final state = %+v, want signed out", last)
	}
	for _, sid := range []string{"sess-1", "sess-2"} {
		cur, err := p.Current(ctx, sid)
		if err != nil {
			t.Fatalf("Current %s: %v", sid, err)
		}
		if cur != nil {
			t.Errorf("%s still signed in after disable", sid)
		}
	}
}
