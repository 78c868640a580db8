// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/okian/rally/internal/domain/model"
)

// UserDependencies defines the interface for user operations.
type UserDependencies interface {
	CreateUser(ctx context.Context, in UserInput) (model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
}

// UsersHandler handles user requests.
type UsersHandler struct {
	deps UserDependencies
}

// NewUsersHandler creates a new users handler.
func NewUsersHandler(deps UserDependencies) *UsersHandler {
	return &UsersHandler{deps: deps}
}

// userRequest mirrors the OpenAPI schema for POST /users.
type userRequest struct {
	Name   string `json:"name"`
	TeamID string `json:"teamId"`
	Role   string `json:"role"`
}

func (u userRequest) validate() error {
	if strings.TrimSpace(u.Name) == "" {
		return errors.New("missing name")
	}
	return nil
}

// HandleUsers handles GET /users and POST /users requests.
func (h *UsersHandler) HandleUsers(w http.ResponseWriter, r *http.Request) {
	const op = "api.users"
	switch r.Method {
	case http.MethodGet:
		users, err := h.deps.ListUsers(r.Context())
		if err != nil {
			writeDomainError(w, op, err)
			return
		}
		writeJSON(w, http.StatusOK, users)
	case http.MethodPost:
		var req userRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", wrap(op, err))
			return
		}
		if err := req.validate(); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", wrap(op, err))
			return
		}
		user, err := h.deps.CreateUser(r.Context(), UserInput{
			Name:   strings.TrimSpace(req.Name),
			TeamID: req.TeamID,
			Role:   req.Role,
		})
		if err != nil {
			writeDomainError(w, op, err)
			return
		}
		writeJSON(w, http.StatusCreated, user)
	default:
		http.NotFound(w, r)
	}
}
