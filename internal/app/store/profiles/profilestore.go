// internal/app/store/profiles/profilestore.go
package profiles

import (
	"context"
	"time"

	"github.com/tewell/reelhub/internal/app/store/storage"
	"github.com/tewell/reelhub/internal/app/system/normalize"
	"github.com/tewell/reelhub/internal/domain/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Store performs profile reads and writes against the profiles collection.
// Documents are keyed by the auth UID, so one profile per account. Every
// failure is logged with its cause and surfaced as a generic storage.Error.
type Store struct {
	c   *mongo.Collection
	log *zap.Logger
}

// New creates a profiles Store.
func New(db *mongo.Database, logger *zap.Logger) *Store {
	return &Store{c: db.Collection("profiles"), log: logger}
}

// EnsureIndexes creates the email lookup index. Idempotent.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email_ci", Value: 1}},
		Options: options.Index().SetName("idx_profiles_email_ci"),
	})
	return err
}

// Create writes a new profile for uid with all three timestamps set to the
// same instant, overwriting any existing document at that id.
func (s *Store) Create(ctx context.Context, uid string, data models.Profile) error {
	now := time.Now().UTC()
	data.UID = uid
	data.Email = normalize.Email(data.Email)
	data.EmailCI = data.Email
	if data.Preferences == nil {
		data.Preferences = models.Preferences{}
	}
	data.CreatedAt = now
	data.UpdatedAt = now
	data.LastLoginAt = now

	_, err := s.c.ReplaceOne(ctx, bson.M{"_id": uid}, data, options.Replace().SetUpsert(true))
	if err != nil {
		s.log.Error("create profile failed", zap.String("uid", uid), zap.Error(err))
		return storage.Wrap("profiles.create", err)
	}
	return nil
}

// Get returns the profile for uid, or nil when no profile exists.
func (s *Store) Get(ctx context.Context, uid string) (*models.Profile, error) {
	var p models.Profile
	err := s.c.FindOne(ctx, bson.M{"_id": uid}).Decode(&p)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		s.log.Error("get profile failed", zap.String("uid", uid), zap.Error(err))
		return nil, storage.Wrap("profiles.get", err)
	}
	return &p, nil
}

// Update merges fields into the profile and bumps updated_at. The write
// upserts, so an out-of-order update before Create leaves a partial
// document rather than failing.
func (s *Store) Update(ctx context.Context, uid string, fields map[string]any) error {
	set := bson.M{"updated_at": time.Now().UTC()}
	for k, v := range fields {
		set[k] = v
	}
	_, err := s.c.UpdateOne(ctx,
		bson.M{"_id": uid},
		bson.M{"$set": set},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		s.log.Error("update profile failed", zap.String("uid", uid), zap.Error(err))
		return storage.Wrap("profiles.update", err)
	}
	return nil
}

// TouchLastLogin sets last_login_at to now, leaving everything else alone.
func (s *Store) TouchLastLogin(ctx context.Context, uid string) error {
	_, err := s.c.UpdateOne(ctx,
		bson.M{"_id": uid},
		bson.M{"$set": bson.M{"last_login_at": time.Now().UTC()}},
	)
	if err != nil {
		s.log.Error("touch last login failed", zap.String("uid", uid), zap.Error(err))
		return storage.Wrap("profiles.touch_last_login", err)
	}
	return nil
}

// FindByEmail returns the first profile whose email matches, or nil when
// none does. Nothing enforces uniqueness here; with duplicates the store's
// default ordering decides which one comes back.
func (s *Store) FindByEmail(ctx context.Context, email string) (*models.Profile, error) {
	var p models.Profile
	err := s.c.FindOne(ctx, bson.M{"email_ci": normalize.Email(email)}).Decode(&p)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		s.log.Error("find profile by email failed", zap.Error(err))
		return nil, storage.Wrap("profiles.find_by_email", err)
	}
	return &p, nil
}

// GetPreferences returns the preferences sub-document, empty (not nil) when
// the profile or its preferences are absent.
func (s *Store) GetPreferences(ctx context.Context, uid string) (models.Preferences, error) {
	p, err := s.Get(ctx, uid)
	if err != nil {
		return nil, err
	}
	if p == nil || p.Preferences == nil {
		return models.Preferences{}, nil
	}
	return p.Preferences, nil
}

// SetPreferences replaces the preferences sub-document and bumps
// updated_at.
func (s *Store) SetPreferences(ctx context.Context, uid string, prefs models.Preferences) error {
	_, err := s.c.UpdateOne(ctx,
		bson.M{"_id": uid},
		bson.M{"$set": bson.M{
			"preferences": prefs,
			"updated_at":  time.Now().UTC(),
		}},
	)
	if err != nil {
		s.log.Error("set preferences failed", zap.String("uid", uid), zap.Error(err))
		return storage.Wrap("profiles.set_preferences", err)
	}
	return nil
}
