// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/okian/rally/internal/domain/model"
)

// PhotoDependencies defines the interface for photo operations.
type PhotoDependencies interface {
	SubmitPhoto(ctx context.Context, teamID, url string) (model.Photo, error)
	ApprovePhoto(ctx context.Context, photoID string) (model.Photo, error)
	RejectPhoto(ctx context.Context, photoID, reason string) error
	ListPhotos(ctx context.Context, approved *bool) ([]model.Photo, error)
}

// PhotosHandler handles photo submission and moderation requests.
type PhotosHandler struct {
	deps PhotoDependencies
}

// NewPhotosHandler creates a new photos handler.
func NewPhotosHandler(deps PhotoDependencies) *PhotosHandler {
	return &PhotosHandler{deps: deps}
}

// photoRequest mirrors the OpenAPI schema for POST /photos.
type photoRequest struct {
	TeamID string `json:"teamId"`
	URL    string `json:"url"`
}

func (p photoRequest) validate() error {
	switch {
	case strings.TrimSpace(p.TeamID) == "":
		return errors.New("missing teamId")
	case strings.TrimSpace(p.URL) == "":
		return errors.New("missing url")
	}
	return nil
}

// rejectRequest mirrors the OpenAPI schema for POST /photos/{id}/reject.
type rejectRequest struct {
	Reason string `json:"reason"`
}

// HandlePhotos handles GET /photos?status=pending|approved and POST /photos.
func (h *PhotosHandler) HandlePhotos(w http.ResponseWriter, r *http.Request) {
	const op = "api.photos"
	switch r.Method {
	case http.MethodGet:
		var approved *bool
		switch status := r.URL.Query().Get("status"); status {
		case "":
		case "pending":
			v := false
			approved = &v
		case "approved":
			v := true
			approved = &v
		default:
			writeError(w, http.StatusBadRequest, "bad_request",
				wrap(op, errors.New("status must be pending or approved")))
			return
		}
		photos, err := h.deps.ListPhotos(r.Context(), approved)
		if err != nil {
			writeDomainError(w, op, err)
			return
		}
		writeJSON(w, http.StatusOK, photos)
	case http.MethodPost:
		var req photoRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", wrap(op, err))
			return
		}
		if err := req.validate(); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", wrap(op, err))
			return
		}
		photo, err := h.deps.SubmitPhoto(r.Context(), req.TeamID, strings.TrimSpace(req.URL))
		if err != nil {
			writeDomainError(w, op, err)
			return
		}
		writeJSON(w, http.StatusCreated, photo)
	default:
		http.NotFound(w, r)
	}
}

// HandleModeration handles POST /photos/{id}/approve and
// POST /photos/{id}/reject requests.
func (h *PhotosHandler) HandleModeration(w http.ResponseWriter, r *http.Request) {
	const op = "api.photo_moderation"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	// Extract path parameters after /photos/
	path := strings.TrimPrefix(r.URL.Path, "/photos/")
	photoID, action, ok := strings.Cut(path, "/")
	if !ok || photoID == "" {
		http.NotFound(w, r)
		return
	}

	switch action {
	case "approve":
		photo, err := h.deps.ApprovePhoto(r.Context(), photoID)
		if err != nil {
			writeDomainError(w, op, err)
			return
		}
		writeJSON(w, http.StatusOK, photo)
	case "reject":
		var req rejectRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "bad_request", wrap(op, err))
			return
		}
		if err := h.deps.RejectPhoto(r.Context(), photoID, req.Reason); err != nil {
			writeDomainError(w, op, err)
			return
		}
		writeJSON(w, http.StatusOK, ackResponse{Status: "rejected"})
	default:
		http.NotFound(w, r)
	}
}
