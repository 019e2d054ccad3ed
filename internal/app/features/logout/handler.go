// internal/app/features/logout/handler.go
package logout

import (
	"net/http"

	"github.com/tewell/reelhub/internal/app/features/errors"
	"github.com/tewell/reelhub/internal/app/features/sessionstate"
	"github.com/tewell/reelhub/internal/app/session"
	"github.com/tewell/reelhub/internal/app/system/gate"
	"github.com/tewell/reelhub/internal/app/system/websession"

	"go.uber.org/zap"
)

// Handler serves sign-out. Besides the auth-service sign-out it drops the
// session cookie and evicts the in-memory store, so the next request starts
// from a clean session.
type Handler struct {
	Sessions *session.Manager
	Web      *websession.Manager
	Log      *zap.Logger
}

// NewHandler constructs a logout Handler.
func NewHandler(sessions *session.Manager, web *websession.Manager, logger *zap.Logger) *Handler {
	return &Handler{Sessions: sessions, Web: web, Log: logger}
}

// HandleLogout handles POST /api/logout. Logging out a signed-out session
// succeeds; the operation is idempotent end to end.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	st, ok := gate.StoreFrom(r)
	if ok {
		if err := st.Logout(r.Context()); err != nil {
			errors.Error(w, r, h.Log, err)
			return
		}
	}

	if sid, ok := h.Web.Peek(r); ok {
		h.Sessions.Evict(sid)
	}
	if err := h.Web.Clear(w, r); err != nil {
		h.Log.Warn("session cookie clear failed", zap.Error(err))
	}

	errors.JSON(w, http.StatusOK, sessionstate.StatePayload{Initialized: true})
}
