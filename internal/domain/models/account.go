// internal/domain/models/account.go
package models

import "time"

// Account auth methods.
const (
	AuthMethodPassword = "password"
	AuthMethodGoogle   = "google"
)

// Account is a credential record owned by the auth service. It is separate
// from Profile: accounts answer "who can sign in", profiles hold what the
// application knows about them.
type Account struct {
	UID          string  `bson:"_id" json:"uid"` // opaque id (uuid)
	Email        string  `bson:"email" json:"email"`
	EmailCI      string  `bson:"email_ci" json:"-"`
	PasswordHash *string `bson:"password_hash,omitempty" json:"-"` // nil for federated accounts
	AuthMethod   string  `bson:"auth_method" json:"auth_method"`   // "password" | "google"
	Disabled     bool    `bson:"disabled,omitempty" json:"disabled,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
