// internal/app/store/comments/commentstore_test.go
package comments_test

import (
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/tewell/reelhub/internal/app/store/comments"
	"github.com/tewell/reelhub/internal/domain/models"
	"github.com/tewell/reelhub/internal/testutil"
)

func newTestStore(t *testing.T) (*comments.Store, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	s := comments.New(db, zap.NewNop())

	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := s.EnsureIndexes(ctx); err != nil {
		t.Fatalf("EnsureIndexes: %v", err)
	}
	return s, testutil.NewFixtures(db)
}

func principal(uid, email string) *models.Principal {
	return &models.Principal{UID: uid, Email: email}
}

func TestAddAndFetchOwn(t *testing.T) {
	s, _ := newTestStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	pr := principal("uid-1", "ada@example.com")
	c, err := s.Add(ctx, "movie-42", "Loved it.", 5, pr)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if c.ID.IsZero() {
		t.Error("added comment has zero id")
	}
	if c.UserEmail != "ada@example.com" {
		t.Errorf("UserEmail = %q", c.UserEmail)
	}

	got, err := s.FetchOwn(ctx, "movie-42", pr)
	if err != nil {
		t.Fatalf("FetchOwn: %v", err)
	}
	if got == nil {
		t.Fatal("own comment not found")
	}
	if got.Comment != "Loved it." || got.Rating != 5 {
		t.Errorf("own comment = %+v", got)
	}
}

func TestAddRequiresPrincipal(t *testing.T) {
	s, fx := newTestStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := s.Add(ctx, "movie-42", "drive-by", 1, nil)
	if !errors.Is(err, comments.ErrAuthRequired) {
		t.Fatalf("err = %v, want comments.ErrAuthRequired", err)
	}
	if n := fx.CountDocs(t, "comments"); n != 0 {
		t.Errorf("%d comments written by unauthenticated Add", n)
	}
}

func TestAddDuplicateReview(t *testing.T) {
	s, fx := newTestStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	pr := principal("uid-1", "ada@example.com")
	if _, err := s.Add(ctx, "movie-42", "First thoughts.", 4, pr); err != nil {
		t.Fatalf("first Add: %v", err)
	}
	_, err := s.Add(ctx, "movie-42", "Second thoughts.", 2, pr)
	if !errors.Is(err, comments.ErrDuplicateReview) {
		t.Fatalf("err = %v, want comments.ErrDuplicateReview", err)
	}
	if n := fx.CountDocs(t, "comments"); n != 1 {
		t.Errorf("comment count = %d after duplicate, want 1", n)
	}

	// Same user, different movie is fine; different user, same movie too.
	if _, err := s.Add(ctx, "movie-7", "Also good.", 4, pr); err != nil {
		t.Errorf("same user on another movie: %v", err)
	}
	if _, err := s.Add(ctx, "movie-42", "Disagree.", 2, principal("uid-2", "bob@example.com")); err != nil {
		t.Errorf("another user on same movie: %v", err)
	}
}

func TestFetchOwnSignedOut(t *testing.T) {
	s, _ := newTestStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	c, err := s.FetchOwn(ctx, "movie-42", nil)
	if err != nil {
		t.Fatalf("FetchOwn: %v", err)
	}
	if c != nil {
		t.Errorf("FetchOwn for nil principal = %+v, want nil", c)
	}
}

func TestFetchOwnNoComment(t *testing.T) {
	s, _ := newTestStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	c, err := s.FetchOwn(ctx, "movie-42", principal("uid-1", "ada@example.com"))
	if err != nil {
		t.Fatalf("FetchOwn: %v", err)
	}
	if c != nil {
		t.Errorf("FetchOwn = %+v, want nil when the user has not commented", c)
	}
}

func TestFetchAllMostRecentFirst(t *testing.T) {
	s, _ := newTestStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	users := []string{"uid-1", "uid-2", "uid-3"}
	for i, uid := range users {
		if _, err := s.Add(ctx, "movie-42", "review", 3+i%2, principal(uid, uid+"@example.com")); err != nil {
			t.Fatalf("Add %s: %v", uid, err)
		}
		time.Sleep(20 * time.Millisecond)
	}
	if _, err := s.Add(ctx, "movie-7", "other movie", 5, principal("uid-1", "uid-1@example.com")); err != nil {
		t.Fatalf("Add other movie: %v", err)
	}

	all, err := s.FetchAll(ctx, "movie-42")
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("len = %d, want 3", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i].CreatedAt.After(all[i-1].CreatedAt) {
			t.Fatalf("comments not in recency order: %v before %v",
				all[i-1].CreatedAt, all[i].CreatedAt)
		}
	}
	if all[0].UserID != "uid-3" {
		t.Errorf("most recent comment by %q, want uid-3", all[0].UserID)
	}
}

func TestFetchAllEmpty(t *testing.T) {
	s, _ := newTestStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	all, err := s.FetchAll(ctx, "movie-unreviewed")
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	if len(all) != 0 {
		t.Errorf("len = %d, want 0", len(all))
	}
}
