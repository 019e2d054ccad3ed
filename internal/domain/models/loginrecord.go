// internal/domain/models/loginrecord.go
package models

import "time"

// LoginRecord is one entry in a user's login history.
type LoginRecord struct {
	UserID    string    `bson:"user_id" json:"user_id"` // auth UID
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	IP        string    `bson:"ip" json:"ip"`
	Provider  string    `bson:"provider" json:"provider"` // "password" | "google"
}
