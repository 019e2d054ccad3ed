// internal/domain/models/profile.go
package models

import "time"

// Preferences is the free-form preference sub-document on a profile
// (theme, locale, notification settings, whatever the UI stores).
type Preferences map[string]any

// Profile is the per-user profile document. The document _id is the auth
// UID, so there is exactly one profile per account.
type Profile struct {
	UID         string      `bson:"_id" json:"uid"`
	Email       string      `bson:"email" json:"email"`
	EmailCI     string      `bson:"email_ci" json:"-"` // lowercase, trimmed; used for lookups
	DisplayName string      `bson:"display_name,omitempty" json:"display_name,omitempty"`
	PhotoURL    string      `bson:"photo_url,omitempty" json:"photo_url,omitempty"`
	Preferences Preferences `bson:"preferences" json:"preferences"`

	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at" json:"updated_at"`
	LastLoginAt time.Time `bson:"last_login_at" json:"last_login_at"`
}
