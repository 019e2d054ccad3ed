// internal/app/features/register/handler.go
package register

import (
	"encoding/json"
	"net/http"

	"github.com/tewell/reelhub/internal/app/features/errors"
	"github.com/tewell/reelhub/internal/app/features/login"
	"github.com/tewell/reelhub/internal/app/features/sessionstate"
	"github.com/tewell/reelhub/internal/app/session"
	"github.com/tewell/reelhub/internal/app/system/gate"
	"github.com/tewell/reelhub/internal/app/system/normalize"
	"github.com/tewell/reelhub/internal/domain/models"

	"go.uber.org/zap"
)

// Handler serves account registration.
type Handler struct {
	Logins login.LoginRecorder
	Log    *zap.Logger
}

// NewHandler constructs a register Handler.
func NewHandler(logins login.LoginRecorder, logger *zap.Logger) *Handler {
	return &Handler{Logins: logins, Log: logger}
}

type registerRequest struct {
	Email       string             `json:"email"`
	Password    string             `json:"password"`
	DisplayName string             `json:"display_name"`
	PhotoURL    string             `json:"photo_url"`
	Preferences models.Preferences `json:"preferences"`
}

// HandleRegister handles POST /api/register. A successful registration
// leaves the caller signed in, same as the sign-up flow it mirrors.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.BadRequest(w, "malformed request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		errors.BadRequest(w, "email and password are required")
		return
	}

	st, ok := gate.StoreFrom(r)
	if !ok {
		errors.Error(w, r, h.Log, session.ErrNoSession)
		return
	}

	pr, err := st.Register(r.Context(), req.Email, req.Password, session.RegisterExtra{
		DisplayName: normalize.Name(req.DisplayName),
		PhotoURL:    req.PhotoURL,
		Preferences: req.Preferences,
	})
	if err != nil {
		errors.Error(w, r, h.Log, err)
		return
	}

	if err := h.Logins.CreateFrom(r.Context(), r, pr.UID, models.AuthMethodPassword); err != nil {
		h.Log.Warn("login record write failed", zap.String("uid", pr.UID), zap.Error(err))
	}

	errors.JSON(w, http.StatusCreated, sessionstate.Payload(st.State()))
}
