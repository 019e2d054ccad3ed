// internal/domain/models/principal.go
package models

// Principal is the authenticated identity behind a session: the opaque
// account UID assigned by the auth service plus the email it was registered
// with. A nil *Principal means signed out.
type Principal struct {
	UID   string `bson:"uid" json:"uid"`
	Email string `bson:"email" json:"email"`
}
