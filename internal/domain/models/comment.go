// internal/domain/models/comment.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Comment is a review left on a movie. Comments are append-only; a user
// has at most one comment per movie (enforced by a unique index).
type Comment struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	MovieID   string             `bson:"movie_id" json:"movie_id"`
	UserID    string             `bson:"user_id" json:"user_id"`
	UserEmail string             `bson:"user_email" json:"user_email"`
	Comment   string             `bson:"comment" json:"comment"`
	Rating    int                `bson:"rating" json:"rating"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}
