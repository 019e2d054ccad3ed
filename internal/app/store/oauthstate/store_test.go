// internal/app/store/oauthstate/store_test.go
package oauthstate_test

import (
	"testing"
	"time"

	"github.com/tewell/reelhub/internal/app/store/oauthstate"
	"github.com/tewell/reelhub/internal/testutil"
)

func TestValidateOneTimeUse(t *testing.T) {
	s := oauthstate.New(testutil.SetupTestDB(t))
	ctx, cancel := testutil.TestContext()
	defer cancel()

	exp := time.Now().UTC().Add(10 * time.Minute)
	if err := s.Save(ctx, "tok-1", "/movies/42", exp); err != nil {
		t.Fatalf("Save: %v", err)
	}

	ret, ok, err := s.Validate(ctx, "tok-1")
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !ok {
		t.Fatal("fresh token rejected")
	}
	if ret != "/movies/42" {
		t.Errorf("return URL = %q", ret)
	}

	// Second use must fail.
	_, ok, err = s.Validate(ctx, "tok-1")
	if err != nil {
		t.Fatalf("second Validate: %v", err)
	}
	if ok {
		t.Error("state token accepted twice")
	}
}

func TestValidateUnknownToken(t *testing.T) {
	s := oauthstate.New(testutil.SetupTestDB(t))
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, ok, err := s.Validate(ctx, "never-saved")
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if ok {
		t.Error("unknown token accepted")
	}
}

func TestValidateExpiredToken(t *testing.T) {
	s := oauthstate.New(testutil.SetupTestDB(t))
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := s.Save(ctx, "tok-old", "/", time.Now().UTC().Add(-time.Minute)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	_, ok, err := s.Validate(ctx, "tok-old")
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if ok {
		t.Error("expired token accepted")
	}
}
