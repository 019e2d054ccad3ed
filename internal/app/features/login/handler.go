// internal/app/features/login/handler.go
package login

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/tewell/reelhub/internal/app/features/errors"
	"github.com/tewell/reelhub/internal/app/features/sessionstate"
	"github.com/tewell/reelhub/internal/app/session"
	"github.com/tewell/reelhub/internal/app/system/authsvc"
	"github.com/tewell/reelhub/internal/app/system/gate"
	"github.com/tewell/reelhub/internal/app/system/ratelimit"
	"github.com/tewell/reelhub/internal/domain/models"

	"go.uber.org/zap"
)

// LoginRecorder appends to the login history. Satisfied by
// *loginstore.Store.
type LoginRecorder interface {
	CreateFrom(ctx context.Context, r *http.Request, uid, provider string) error
}

// Handler serves password sign-in.
type Handler struct {
	Logins LoginRecorder
	Limits *ratelimit.LoginLimiter
	Log    *zap.Logger
}

// NewHandler constructs a login Handler. limits may be nil to disable
// attempt throttling.
func NewHandler(logins LoginRecorder, limits *ratelimit.LoginLimiter, logger *zap.Logger) *Handler {
	return &Handler{Logins: logins, Limits: limits, Log: logger}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleLogin handles POST /api/login.
//
// On success: 200 with the resulting session state. Auth failures keep
// their provider code in the body so the client can tell a bad password
// from a disabled account.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.BadRequest(w, "malformed request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		errors.BadRequest(w, "email and password are required")
		return
	}

	if h.Limits != nil && !h.Limits.Allow(r, req.Email) {
		errors.Error(w, r, h.Log, authsvc.NewError(authsvc.CodeTooManyRequests, nil))
		return
	}

	st, ok := gate.StoreFrom(r)
	if !ok {
		errors.Error(w, r, h.Log, session.ErrNoSession)
		return
	}

	pr, err := st.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		errors.Error(w, r, h.Log, err)
		return
	}
	if h.Limits != nil {
		h.Limits.Succeeded(req.Email)
	}

	// History is informational; a failed write must not fail the sign-in.
	if err := h.Logins.CreateFrom(r.Context(), r, pr.UID, models.AuthMethodPassword); err != nil {
		h.Log.Warn("login record write failed", zap.String("uid", pr.UID), zap.Error(err))
	}

	errors.JSON(w, http.StatusOK, sessionstate.Payload(st.State()))
}
