// internal/testutil/fixtures.go
package testutil

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	"github.com/tewell/reelhub/internal/app/system/normalize"
	"github.com/tewell/reelhub/internal/domain/models"
)

// Fixtures inserts test documents directly, bypassing the stores.
type Fixtures struct {
	DB *mongo.Database
}

// NewFixtures wraps a test database.
func NewFixtures(db *mongo.Database) *Fixtures {
	return &Fixtures{DB: db}
}

// CreateAccount inserts a password account and returns it. Uses a low
// bcrypt cost so test suites stay fast.
func (f *Fixtures) CreateAccount(t *testing.T, email, password string) models.Account {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash fixture password: %v", err)
	}
	h := string(hash)
	now := time.Now().UTC()
	a := models.Account{
		UID:          uuid.NewString(),
		Email:        email,
		EmailCI:      normalize.Email(email),
		PasswordHash: &h,
		AuthMethod:   models.AuthMethodPassword,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	ctx, cancel := TestContext()
	defer cancel()
	if _, err := f.DB.Collection("accounts").InsertOne(ctx, a); err != nil {
		t.Fatalf("insert fixture account: %v", err)
	}
	return a
}

// CreateProfile inserts a profile document for the given UID.
func (f *Fixtures) CreateProfile(t *testing.T, uid, email, displayName string) models.Profile {
	t.Helper()

	now := time.Now().UTC()
	p := models.Profile{
		UID:         uid,
		Email:       email,
		EmailCI:     normalize.Email(email),
		DisplayName: displayName,
		Preferences: models.Preferences{},
		CreatedAt:   now,
		UpdatedAt:   now,
		LastLoginAt: now,
	}

	ctx, cancel := TestContext()
	defer cancel()
	if _, err := f.DB.Collection("profiles").InsertOne(ctx, p); err != nil {
		t.Fatalf("insert fixture profile: %v", err)
	}
	return p
}

// CreateComment inserts a review for movieID by the given user.
func (f *Fixtures) CreateComment(t *testing.T, movieID, uid, email, text string, rating int) models.Comment {
	t.Helper()

	c := models.Comment{
		MovieID:   movieID,
		UserID:    uid,
		UserEmail: email,
		Comment:   text,
		Rating:    rating,
		CreatedAt: time.Now().UTC(),
	}

	ctx, cancel := TestContext()
	defer cancel()
	res, err := f.DB.Collection("comments").InsertOne(ctx, c)
	if err != nil {
		t.Fatalf("insert fixture comment: %v", err)
	}
	c.ID, _ = res.InsertedID.(primitive.ObjectID)
	return c
}

// CountDocs returns the number of documents in a collection.
func (f *Fixtures) CountDocs(t *testing.T, collection string) int64 {
	t.Helper()

	ctx, cancel := TestContext()
	defer cancel()
	n, err := f.DB.Collection(collection).CountDocuments(ctx, bson.M{})
	if err != nil {
		t.Fatalf("count %s: %v", collection, err)
	}
	return n
}
