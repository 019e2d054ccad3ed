// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// WAFFLE's CoreConfig handles framework-level settings (ports, TLS,
// logging, timeouts). AppConfig is everything specific to ReelHub,
// loaded in LoadConfig from config files, REELHUB_* environment
// variables, and command-line flags.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string
	MongoDatabase    string
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Session cookie configuration
	SessionKey    string // Secret key for signing session cookies (must be strong in production)
	SessionName   string // Cookie name (default: reelhub_session)
	SessionDomain string // Cookie domain (blank means current host)

	// GateWait bounds how long the session gate waits for a session's
	// first auth state before treating the caller as signed out.
	GateWait time.Duration

	// Base URL for OAuth callbacks (e.g. "https://reelhub.example")
	BaseURL string

	// Google OAuth configuration (blank disables the Google route)
	GoogleClientID     string
	GoogleClientSecret string
}
