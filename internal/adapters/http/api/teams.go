// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/okian/rally/internal/domain/model"
	"github.com/okian/rally/internal/domain/types"
)

// TeamDependencies defines the interface for team operations.
type TeamDependencies interface {
	CreateTeam(ctx context.Context, name string) (model.Team, error)
	ListTeams(ctx context.Context) ([]model.Team, error)
	TeamScore(ctx context.Context, teamID string) (types.TeamScore, error)
}

// TeamsHandler handles team requests.
type TeamsHandler struct {
	deps TeamDependencies
}

// NewTeamsHandler creates a new teams handler.
func NewTeamsHandler(deps TeamDependencies) *TeamsHandler {
	return &TeamsHandler{deps: deps}
}

// teamRequest mirrors the OpenAPI schema for POST /teams.
type teamRequest struct {
	Name string `json:"name"`
}

func (t teamRequest) validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return errors.New("missing name")
	}
	return nil
}

// HandleTeams handles GET /teams and POST /teams requests.
func (h *TeamsHandler) HandleTeams(w http.ResponseWriter, r *http.Request) {
	const op = "api.teams"
	switch r.Method {
	case http.MethodGet:
		teams, err := h.deps.ListTeams(r.Context())
		if err != nil {
			writeDomainError(w, op, err)
			return
		}
		writeJSON(w, http.StatusOK, teams)
	case http.MethodPost:
		var req teamRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", wrap(op, err))
			return
		}
		if err := req.validate(); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", wrap(op, err))
			return
		}
		team, err := h.deps.CreateTeam(r.Context(), strings.TrimSpace(req.Name))
		if err != nil {
			writeDomainError(w, op, err)
			return
		}
		writeJSON(w, http.StatusCreated, team)
	default:
		http.NotFound(w, r)
	}
}

// HandleTeamScore handles GET /teams/{id}/score requests.
func (h *TeamsHandler) HandleTeamScore(w http.ResponseWriter, r *http.Request) {
	const op = "api.team_score"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	// Extract path parameters after /teams/
	path := strings.TrimPrefix(r.URL.Path, "/teams/")
	teamID, rest, ok := strings.Cut(path, "/")
	if !ok || teamID == "" || rest != "score" {
		http.NotFound(w, r)
		return
	}
	score, err := h.deps.TeamScore(r.Context(), teamID)
	if err != nil {
		writeDomainError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, score)
}
