// internal/app/features/sessionstate/handler.go

// Package sessionstate reports the caller's session to the client: whether
// anyone is signed in, who, and their profile. Clients poll this on boot
// instead of keeping their own idea of auth state.
package sessionstate

import (
	"context"
	"net/http"
	"time"

	"github.com/tewell/reelhub/internal/app/features/errors"
	"github.com/tewell/reelhub/internal/app/session"
	"github.com/tewell/reelhub/internal/app/system/gate"
	"github.com/tewell/reelhub/internal/domain/models"

	"go.uber.org/zap"
)

// Handler serves the session-state endpoint.
type Handler struct {
	Wait time.Duration // bound on the initialization wait
	Log  *zap.Logger
}

// NewHandler constructs a sessionstate Handler. wait<=0 selects the gate's
// default.
func NewHandler(wait time.Duration, logger *zap.Logger) *Handler {
	if wait <= 0 {
		wait = gate.DefaultWait
	}
	return &Handler{Wait: wait, Log: logger}
}

// UserPayload is the identity part of the session response.
type UserPayload struct {
	UID   string `json:"uid"`
	Email string `json:"email"`
}

// StatePayload is the JSON form of a session snapshot.
type StatePayload struct {
	SignedIn    bool            `json:"signed_in"`
	Initialized bool            `json:"initialized"`
	Loading     bool            `json:"loading"`
	User        *UserPayload    `json:"user,omitempty"`
	Profile     *models.Profile `json:"profile,omitempty"`
}

// Payload converts a session snapshot for the wire.
func Payload(st session.State) StatePayload {
	p := StatePayload{
		SignedIn:    st.SignedIn(),
		Initialized: st.Initialized,
		Loading:     st.Loading,
		Profile:     st.Profile,
	}
	if st.Identity != nil {
		p.User = &UserPayload{UID: st.Identity.UID, Email: st.Identity.Email}
	}
	return p
}

// Serve handles GET /api/session. It waits (bounded) for the session store
// to finish its initial synchronization so the first poll after page load
// gets a settled answer rather than loading=true.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	st, ok := gate.StoreFrom(r)
	if !ok {
		errors.JSON(w, http.StatusOK, StatePayload{})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.Wait)
	defer cancel()
	if err := st.WaitUntilInitialized(ctx); err != nil {
		h.Log.Warn("session state requested before initialization completed", zap.Error(err))
	}

	errors.JSON(w, http.StatusOK, Payload(st.State()))
}
