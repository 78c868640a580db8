// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/rally/internal/adapters/ws"
	"github.com/okian/rally/internal/domain/model"
	"github.com/okian/rally/internal/domain/types"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Idempotency support for mutating endpoints.
	SeenAndRecord(ctx context.Context, key string) bool
	Unrecord(ctx context.Context, key string)

	// Producer operations.
	CreateTeam(ctx context.Context, name string) (model.Team, error)
	RecordDonation(ctx context.Context, in DonationInput) (model.Donation, error)
	RecordSale(ctx context.Context, in SaleInput) (model.ShirtSale, error)
	SubmitPhoto(ctx context.Context, teamID, url string) (model.Photo, error)
	ApprovePhoto(ctx context.Context, photoID string) (model.Photo, error)
	RejectPhoto(ctx context.Context, photoID, reason string) error
	CreateUser(ctx context.Context, in UserInput) (model.User, error)

	// Read operations expose leaderboard data.
	ListTeams(ctx context.Context) ([]model.Team, error)
	ListDonations(ctx context.Context) ([]model.Donation, error)
	ListSales(ctx context.Context) ([]model.ShirtSale, error)
	ListPhotos(ctx context.Context, approved *bool) ([]model.Photo, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	TeamScore(ctx context.Context, teamID string) (types.TeamScore, error)
	SnapshotJSON(ctx context.Context) ([]byte, error)

	// Viewer group membership.
	Subscribe(sub ws.Subscriber)
	Unsubscribe(id string)
	ClientBuffer() int
}

// Entry mirrors the read shape returned by leaderboard queries.
type Entry = types.Entry

// Validated request inputs shared with the service layer.
type (
	DonationInput = types.DonationInput
	SaleInput     = types.SaleInput
	UserInput     = types.UserInput
)

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	teamsHandler       *TeamsHandler
	donationsHandler   *DonationsHandler
	salesHandler       *SalesHandler
	photosHandler      *PhotosHandler
	usersHandler       *UsersHandler
	leaderboardHandler *LeaderboardHandler
	wsHandler          *WSHandler
}

// Option customizes the API server.
type Option func(*serverOptions)

type serverOptions struct {
	allowedOrigins []string
}

// WithAllowedOrigins restricts websocket upgrades to the given origins.
// Empty keeps upgrades open to all origins.
func WithAllowedOrigins(origins []string) Option {
	return func(o *serverOptions) {
		o.allowedOrigins = origins
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	var so serverOptions
	for _, opt := range opts {
		opt(&so)
	}
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
		teamsHandler:       NewTeamsHandler(deps),
		donationsHandler:   NewDonationsHandler(deps),
		salesHandler:       NewSalesHandler(deps),
		photosHandler:      NewPhotosHandler(deps),
		usersHandler:       NewUsersHandler(deps),
		leaderboardHandler: NewLeaderboardHandler(deps),
		wsHandler:          NewWSHandler(deps, so.allowedOrigins),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	// Specific paths first (most specific to least specific)
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/leaderboard", MetricsMiddleware(s.leaderboardHandler.HandleGetLeaderboard, "leaderboard"))
	mux.HandleFunc("/teams", MetricsMiddleware(s.teamsHandler.HandleTeams, "teams"))
	mux.HandleFunc("/teams/", MetricsMiddleware(s.teamsHandler.HandleTeamScore, "team_score"))
	mux.HandleFunc("/donations", MetricsMiddleware(s.donationsHandler.HandleDonations, "donations"))
	mux.HandleFunc("/sales", MetricsMiddleware(s.salesHandler.HandleSales, "sales"))
	mux.HandleFunc("/photos", MetricsMiddleware(s.photosHandler.HandlePhotos, "photos"))
	mux.HandleFunc("/photos/", MetricsMiddleware(s.photosHandler.HandleModeration, "photo_moderation"))
	mux.HandleFunc("/users", MetricsMiddleware(s.usersHandler.HandleUsers, "users"))
	mux.HandleFunc("/ws/leaderboard", s.wsHandler.HandleJoin)
}

// idempotencyKey extracts the optional Idempotency-Key header. Producers use
// it to dedupe retried submissions.
func idempotencyKey(r *http.Request) string {
	return r.Header.Get("Idempotency-Key")
}

type ackResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
