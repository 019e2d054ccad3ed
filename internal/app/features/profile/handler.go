// internal/app/features/profile/handler.go

// Package profile serves the signed-in user's profile, preferences, and
// login history. All routes sit behind the session gate, so handlers can
// assume an initialized, signed-in session store in the request context.
package profile

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/tewell/reelhub/internal/app/features/errors"
	"github.com/tewell/reelhub/internal/app/session"
	"github.com/tewell/reelhub/internal/app/system/gate"
	"github.com/tewell/reelhub/internal/app/system/normalize"
	"github.com/tewell/reelhub/internal/domain/models"

	"go.uber.org/zap"
)

const defaultHistoryLimit = 20

// LoginHistory reads the login history. Satisfied by *loginstore.Store.
type LoginHistory interface {
	Recent(ctx context.Context, uid string, limit int64) ([]models.LoginRecord, error)
}

// Handler serves the profile endpoints.
type Handler struct {
	Logins LoginHistory
	Log    *zap.Logger
}

// NewHandler constructs a profile Handler.
func NewHandler(logins LoginHistory, logger *zap.Logger) *Handler {
	return &Handler{Logins: logins, Log: logger}
}

// ServeProfile handles GET /api/profile.
func (h *Handler) ServeProfile(w http.ResponseWriter, r *http.Request) {
	st, ok := gate.StoreFrom(r)
	if !ok {
		errors.Error(w, r, h.Log, session.ErrNoSession)
		return
	}
	snap := st.State()
	if snap.Profile == nil {
		// Signed in but no profile document (e.g. a failed write at
		// registration). Not an error; the client sees an empty profile.
		errors.JSON(w, http.StatusOK, models.Profile{Preferences: models.Preferences{}})
		return
	}
	errors.JSON(w, http.StatusOK, snap.Profile)
}

type profilePatch struct {
	DisplayName *string `json:"display_name"`
	PhotoURL    *string `json:"photo_url"`
}

// HandleUpdate handles PATCH /api/profile. Only the fields present in the
// body change; absent fields are left alone.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req profilePatch
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.BadRequest(w, "malformed request body")
		return
	}
	if req.DisplayName == nil && req.PhotoURL == nil {
		errors.BadRequest(w, "no updatable fields in request")
		return
	}
	if req.DisplayName != nil {
		trimmed := normalize.Name(*req.DisplayName)
		req.DisplayName = &trimmed
	}

	st, ok := gate.StoreFrom(r)
	if !ok {
		errors.Error(w, r, h.Log, session.ErrNoSession)
		return
	}
	err := st.UpdateProfile(r.Context(), session.ProfileUpdate{
		DisplayName: req.DisplayName,
		PhotoURL:    req.PhotoURL,
	})
	if err != nil {
		errors.Error(w, r, h.Log, err)
		return
	}
	errors.JSON(w, http.StatusOK, st.State().Profile)
}

// ServePreferences handles GET /api/profile/preferences.
func (h *Handler) ServePreferences(w http.ResponseWriter, r *http.Request) {
	st, ok := gate.StoreFrom(r)
	if !ok {
		errors.Error(w, r, h.Log, session.ErrNoSession)
		return
	}
	snap := st.State()
	prefs := models.Preferences{}
	if snap.Profile != nil && snap.Profile.Preferences != nil {
		prefs = snap.Profile.Preferences
	}
	errors.JSON(w, http.StatusOK, prefs)
}

// HandleSetPreferences handles PUT /api/profile/preferences.
func (h *Handler) HandleSetPreferences(w http.ResponseWriter, r *http.Request) {
	var prefs models.Preferences
	if err := json.NewDecoder(r.Body).Decode(&prefs); err != nil {
		errors.BadRequest(w, "malformed request body")
		return
	}
	if prefs == nil {
		errors.BadRequest(w, "preferences object required")
		return
	}

	st, ok := gate.StoreFrom(r)
	if !ok {
		errors.Error(w, r, h.Log, session.ErrNoSession)
		return
	}
	if err := st.UpdatePreferences(r.Context(), prefs); err != nil {
		errors.Error(w, r, h.Log, err)
		return
	}

	snap := st.State()
	out := models.Preferences{}
	if snap.Profile != nil && snap.Profile.Preferences != nil {
		out = snap.Profile.Preferences
	}
	errors.JSON(w, http.StatusOK, out)
}

// ServeLogins handles GET /api/profile/logins. limit caps the history
// length; out-of-range values fall back to the default.
func (h *Handler) ServeLogins(w http.ResponseWriter, r *http.Request) {
	pr, ok := gate.PrincipalFrom(r)
	if !ok {
		errors.Error(w, r, h.Log, session.ErrNoSession)
		return
	}

	limit := int64(defaultHistoryLimit)
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.ParseInt(s, 10, 64); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}

	recs, err := h.Logins.Recent(r.Context(), pr.UID, limit)
	if err != nil {
		errors.Error(w, r, h.Log, err)
		return
	}
	if recs == nil {
		recs = []models.LoginRecord{}
	}
	errors.JSON(w, http.StatusOK, recs)
}
