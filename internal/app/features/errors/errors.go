// internal/app/features/errors/errors.go

// Package errors renders API failures as JSON and maps domain errors to
// HTTP status codes. Auth-service codes pass through in the body so the
// client can map them to messages.
package errors

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/tewell/reelhub/internal/app/session"
	"github.com/tewell/reelhub/internal/app/store/comments"
	"github.com/tewell/reelhub/internal/app/store/storage"
	"github.com/tewell/reelhub/internal/app/system/authsvc"
	"github.com/tewell/reelhub/internal/app/system/authutil"

	"go.uber.org/zap"
)

// Payload is the JSON body for every error response.
type Payload struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// BadRequest writes a 400 with the given message.
func BadRequest(w http.ResponseWriter, msg string) {
	JSON(w, http.StatusBadRequest, Payload{Error: msg})
}

// statusFor maps a domain error to its HTTP status and client message.
// Unrecognized errors are internal: 500 and a generic message, the cause
// stays in the log.
func statusFor(err error) (int, Payload) {
	if code := authsvc.ErrCode(err); code != "" {
		switch code {
		case authsvc.CodeInvalidCredential:
			return http.StatusUnauthorized, Payload{Error: "invalid email or password", Code: code}
		case authsvc.CodeUserDisabled:
			return http.StatusForbidden, Payload{Error: "this account is disabled", Code: code}
		case authsvc.CodeEmailInUse:
			return http.StatusConflict, Payload{Error: "an account with this email already exists", Code: code}
		case authsvc.CodeInvalidEmail:
			return http.StatusBadRequest, Payload{Error: "invalid email address", Code: code}
		case authsvc.CodeWeakPassword:
			return http.StatusBadRequest, Payload{Error: authutil.PasswordRules(), Code: code}
		case authsvc.CodeTooManyRequests:
			return http.StatusTooManyRequests, Payload{Error: "too many attempts, try again later", Code: code}
		default:
			return http.StatusInternalServerError, Payload{Error: "something went wrong", Code: code}
		}
	}

	switch {
	case errors.Is(err, session.ErrNoSession), errors.Is(err, comments.ErrAuthRequired):
		return http.StatusUnauthorized, Payload{Error: "sign-in required"}
	case errors.Is(err, comments.ErrDuplicateReview):
		return http.StatusConflict, Payload{Error: "you have already reviewed this movie"}
	case storage.Is(err):
		return http.StatusServiceUnavailable, Payload{Error: "storage unavailable, try again shortly"}
	default:
		return http.StatusInternalServerError, Payload{Error: "something went wrong"}
	}
}

// Error writes err as a JSON response. Server-side failures (5xx) are
// logged with their cause; client errors are the caller's problem and stay
// out of the log.
func Error(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	status, body := statusFor(err)
	if status >= 500 && logger != nil {
		logger.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Error(err))
	}
	JSON(w, status, body)
}
