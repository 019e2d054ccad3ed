// internal/app/features/comments/handler.go

// Package comments serves movie reviews. Reading is public; writing
// requires a signed-in session. Comment text is sanitized at this boundary
// so the stores only ever see clean HTML.
package comments

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/tewell/reelhub/internal/app/features/errors"
	commentstore "github.com/tewell/reelhub/internal/app/store/comments"
	"github.com/tewell/reelhub/internal/app/system/gate"
	"github.com/tewell/reelhub/internal/app/system/htmlsanitize"
	"github.com/tewell/reelhub/internal/domain/models"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const maxCommentLength = 4000

// Handler serves the comment endpoints.
type Handler struct {
	Comments *commentstore.Store
	Log      *zap.Logger
}

// NewHandler constructs a comments Handler.
func NewHandler(comments *commentstore.Store, logger *zap.Logger) *Handler {
	return &Handler{Comments: comments, Log: logger}
}

type addRequest struct {
	Comment string `json:"comment"`
	Rating  int    `json:"rating"`
}

// HandleAdd handles POST /api/movies/{movieID}/comments.
func (h *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	movieID := chi.URLParam(r, "movieID")
	if movieID == "" {
		errors.BadRequest(w, "movie id required")
		return
	}

	var req addRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.BadRequest(w, "malformed request body")
		return
	}
	text := strings.TrimSpace(htmlsanitize.Comment(req.Comment))
	if text == "" {
		errors.BadRequest(w, "comment text required")
		return
	}
	if len(text) > maxCommentLength {
		errors.BadRequest(w, "comment too long")
		return
	}
	if req.Rating < 1 || req.Rating > 5 {
		errors.BadRequest(w, "rating must be between 1 and 5")
		return
	}

	pr, _ := gate.PrincipalFrom(r)
	c, err := h.Comments.Add(r.Context(), movieID, text, req.Rating, pr)
	if err != nil {
		errors.Error(w, r, h.Log, err)
		return
	}
	errors.JSON(w, http.StatusCreated, c)
}

// ServeAll handles GET /api/movies/{movieID}/comments. Public; most recent
// first.
func (h *Handler) ServeAll(w http.ResponseWriter, r *http.Request) {
	movieID := chi.URLParam(r, "movieID")
	if movieID == "" {
		errors.BadRequest(w, "movie id required")
		return
	}

	all, err := h.Comments.FetchAll(r.Context(), movieID)
	if err != nil {
		errors.Error(w, r, h.Log, err)
		return
	}
	if all == nil {
		all = []models.Comment{}
	}
	errors.JSON(w, http.StatusOK, all)
}

// ServeOwn handles GET /api/movies/{movieID}/comments/mine. Returns null
// when the caller is signed out or has not reviewed the movie.
func (h *Handler) ServeOwn(w http.ResponseWriter, r *http.Request) {
	movieID := chi.URLParam(r, "movieID")
	if movieID == "" {
		errors.BadRequest(w, "movie id required")
		return
	}

	pr, _ := gate.PrincipalFrom(r)
	c, err := h.Comments.FetchOwn(r.Context(), movieID, pr)
	if err != nil {
		errors.Error(w, r, h.Log, err)
		return
	}
	errors.JSON(w, http.StatusOK, c)
}
