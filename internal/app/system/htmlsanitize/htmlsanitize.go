// internal/app/system/htmlsanitize/htmlsanitize.go

// Package htmlsanitize strips dangerous markup from user-submitted text.
// Comment bodies are stored as the user typed them minus anything that
// could execute in another visitor's browser; the comment repository itself
// performs no validation, so this is the only scrubbing point.
package htmlsanitize

import "github.com/microcosm-cc/bluemonday"

var policy = bluemonday.UGCPolicy()

// Comment sanitizes a comment body with the UGC policy: basic formatting
// survives, scripts, event handlers, and forms do not.
func Comment(s string) string {
	if s == "" {
		return ""
	}
	return policy.Sanitize(s)
}
