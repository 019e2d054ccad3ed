// internal/app/store/comments/commentstore.go
package comments

import (
	"context"
	"errors"
	"time"

	"github.com/tewell/reelhub/internal/app/store/storage"
	"github.com/tewell/reelhub/internal/domain/models"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

var (
	// ErrAuthRequired is returned when an operation needing a signed-in
	// principal is attempted without one. Nothing is written in that case.
	ErrAuthRequired = errors.New("sign-in required to comment")

	// ErrDuplicateReview is returned when the user already has a comment on
	// the movie. The unique (movie_id, user_id) index enforces this at write
	// time.
	ErrDuplicateReview = errors.New("a review for this movie already exists")
)

// Store appends and queries movie comments. Rating range and text length
// are not validated here; that is the caller's concern.
type Store struct {
	c   *mongo.Collection
	log *zap.Logger
}

// New creates a comments Store.
func New(db *mongo.Database, logger *zap.Logger) *Store {
	return &Store{c: db.Collection("comments"), log: logger}
}

// EnsureIndexes creates the query indexes and the one-review-per-user
// constraint. Idempotent.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "movie_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_comments_movie_recency"),
		},
		{
			Keys: bson.D{{Key: "movie_id", Value: 1}, {Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("idx_comments_movie_user"),
		},
	})
	return err
}

// Add appends a comment by principal on movieID. Fails with ErrAuthRequired
// when principal is nil and ErrDuplicateReview when the user has already
// reviewed the movie.
func (s *Store) Add(ctx context.Context, movieID, text string, rating int, principal *models.Principal) (models.Comment, error) {
	if principal == nil {
		return models.Comment{}, ErrAuthRequired
	}

	c := models.Comment{
		ID:        primitive.NewObjectID(),
		MovieID:   movieID,
		UserID:    principal.UID,
		UserEmail: principal.Email,
		Comment:   text,
		Rating:    rating,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := s.c.InsertOne(ctx, c); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Comment{}, ErrDuplicateReview
		}
		s.log.Error("add comment failed",
			zap.String("movie_id", movieID),
			zap.String("user_id", principal.UID),
			zap.Error(err))
		return models.Comment{}, storage.Wrap("comments.add", err)
	}
	return c, nil
}

// FetchOwn returns the principal's comment on movieID, or nil when signed
// out or no comment exists.
func (s *Store) FetchOwn(ctx context.Context, movieID string, principal *models.Principal) (*models.Comment, error) {
	if principal == nil {
		return nil, nil
	}

	var c models.Comment
	err := s.c.FindOne(ctx, bson.M{
		"movie_id": movieID,
		"user_id":  principal.UID,
	}).Decode(&c)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		s.log.Error("fetch own comment failed",
			zap.String("movie_id", movieID),
			zap.String("user_id", principal.UID),
			zap.Error(err))
		return nil, storage.Wrap("comments.fetch_own", err)
	}
	return &c, nil
}

// FetchAll returns every comment on movieID, most recent first.
func (s *Store) FetchAll(ctx context.Context, movieID string) ([]models.Comment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

	cur, err := s.c.Find(ctx, bson.M{"movie_id": movieID}, opts)
	if err != nil {
		s.log.Error("fetch comments failed", zap.String("movie_id", movieID), zap.Error(err))
		return nil, storage.Wrap("comments.fetch_all", err)
	}
	defer cur.Close(ctx)

	var out []models.Comment
	if err := cur.All(ctx, &out); err != nil {
		s.log.Error("decode comments failed", zap.String("movie_id", movieID), zap.Error(err))
		return nil, storage.Wrap("comments.fetch_all", err)
	}
	return out, nil
}
