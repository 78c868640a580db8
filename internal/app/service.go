// Package app provides the core business service that implements
// the dependencies required by the HTTP API and the broadcast worker.
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/okian/rally/internal/adapters/cache"
	"github.com/okian/rally/internal/adapters/mq/bus"
	"github.com/okian/rally/internal/adapters/mq/worker"
	"github.com/okian/rally/internal/adapters/repository"
	"github.com/okian/rally/internal/adapters/repository/postgres"
	"github.com/okian/rally/internal/adapters/ws"
	"github.com/okian/rally/internal/domain/dedupe"
	"github.com/okian/rally/internal/domain/model"
	"github.com/okian/rally/internal/domain/scoring"
	"github.com/okian/rally/internal/domain/snapshot"
	"github.com/okian/rally/internal/domain/types"
	"github.com/okian/rally/pkg/logger"
	"github.com/okian/rally/pkg/metrics"
)

// ErrPhotoApproved reports a rejection attempt on an already-approved photo.
// Approval is terminal; approved photos are never revoked. It wraps the
// store conflict sentinel so the HTTP layer maps it to 409.
var ErrPhotoApproved = fmt.Errorf("photo already approved: %w", repository.ErrConflict)

// Default service configuration constants.
const (
	defaultBusCapacity  = 1024
	defaultClientBuffer = 16
	defaultDedupeSize   = 50_000
	defaultRole         = "member"
	defaultCurrency     = "usd"
)

// pushMessage is the envelope for every websocket push.
type pushMessage struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Service wires the store, snapshot builder, cache, bus, hub and broadcast
// worker into the operations exposed over HTTP and websocket.
type Service struct {
	mu sync.RWMutex

	store       repository.Store
	builder     *snapshot.Builder
	cache       cache.Snapshot
	hub         *ws.Hub
	bus         bus.Bus
	broadcaster *worker.Broadcaster
	deduper     dedupe.Deduper

	// generation increments on every mutating event; the snapshot cache is
	// keyed by it so a completed mutation is never served a stale snapshot.
	generation atomic.Uint64

	// Configuration
	databaseURL   string
	migrationsDir string
	redisAddr     string
	busCapacity   int
	clientBuffer  int
	dedupeSize    int

	started bool
	logger  logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.logger = log
		}
	}
}

// WithDatabaseURL selects the Postgres store backend.
func WithDatabaseURL(dsn string) Option {
	return func(s *Service) {
		s.databaseURL = strings.TrimSpace(dsn)
	}
}

// WithMigrationsDir sets the goose migrations directory.
func WithMigrationsDir(dir string) Option {
	return func(s *Service) {
		if dir != "" {
			s.migrationsDir = dir
		}
	}
}

// WithRedisAddr selects the Redis snapshot cache backend.
func WithRedisAddr(addr string) Option {
	return func(s *Service) {
		s.redisAddr = strings.TrimSpace(addr)
	}
}

// WithBusCapacity bounds the mutation bus.
func WithBusCapacity(capacity int) Option {
	return func(s *Service) {
		if capacity > 0 {
			s.busCapacity = capacity
		}
	}
}

// WithClientBuffer sets the per-subscriber outbound buffer size.
func WithClientBuffer(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.clientBuffer = size
		}
	}
}

// WithDedupeSize bounds the idempotency-key cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithStore injects a store, bypassing backend selection. Used by tests.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		s.store = store
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		migrationsDir: "db/migrations",
		busCapacity:   defaultBusCapacity,
		clientBuffer:  defaultClientBuffer,
		dedupeSize:    defaultDedupeSize,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting leaderboard service...")

	if s.store == nil {
		if s.databaseURL != "" {
			runner, err := postgres.NewRunner(s.databaseURL, s.migrationsDir, s.logger)
			if err != nil {
				return fmt.Errorf("configure migrations: %w", err)
			}
			if err := runner.Ensure(ctx); err != nil {
				return fmt.Errorf("run migrations: %w", err)
			}
			pool, err := postgres.Connect(ctx, s.databaseURL)
			if err != nil {
				return fmt.Errorf("connect database: %w", err)
			}
			s.store = postgres.New(pool)
			s.logger.Info(ctx, "using postgres store")
		} else {
			s.store = repository.NewMemoryStore()
			s.logger.Info(ctx, "using in-memory store")
		}
	}

	if s.redisAddr != "" {
		redisCache, err := cache.NewRedis(s.redisAddr, s.logger)
		if err != nil {
			return fmt.Errorf("connect snapshot cache: %w", err)
		}
		s.cache = redisCache
		s.logger.Info(ctx, "using redis snapshot cache", logger.String("addr", s.redisAddr))
	} else {
		s.cache = cache.NewMemory()
	}

	s.builder = snapshot.New(s.store)
	s.hub = ws.NewHub(s.logger.Named("hub"))
	s.bus = bus.NewInMemoryBus(bus.WithCapacity(s.busCapacity))
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))

	s.broadcaster = worker.NewBroadcaster(s.bus, s, worker.WithLogger(s.logger.Named("broadcaster")))
	go s.broadcaster.Run(ctx)

	s.started = true
	s.logger.Info(ctx, "leaderboard service started",
		logger.Int("busCapacity", s.busCapacity),
		logger.Int("clientBuffer", s.clientBuffer),
	)

	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping leaderboard service...")

	if s.bus != nil {
		_ = s.bus.Close()
	}
	if s.broadcaster != nil {
		_ = s.broadcaster.Shutdown(ctx)
	}
	if s.hub != nil {
		s.hub.Close()
	}
	if s.cache != nil {
		_ = s.cache.Close()
	}
	if s.store != nil {
		s.store.Close()
	}

	s.started = false
	s.logger.Info(ctx, "leaderboard service stopped")
}

// Subscribe adds a viewer connection to the broadcast group.
func (s *Service) Subscribe(sub ws.Subscriber) {
	s.hub.Subscribe(sub)
}

// Unsubscribe removes a viewer connection by id.
func (s *Service) Unsubscribe(id string) {
	s.hub.Unsubscribe(id)
}

// ClientBuffer returns the configured per-subscriber buffer size.
func (s *Service) ClientBuffer() int {
	if s.clientBuffer < 1 {
		return defaultClientBuffer
	}
	return s.clientBuffer
}

// SeenAndRecord atomically checks and records an idempotency key.
func (s *Service) SeenAndRecord(ctx context.Context, key string) bool {
	return s.deduper.SeenAndRecord(ctx, key)
}

// Unrecord releases an idempotency key after a failed commit.
func (s *Service) Unrecord(ctx context.Context, key string) {
	s.deduper.Unrecord(ctx, key)
}

// noteMutation bumps the generation and posts the mutation to the bus.
// A full bus drops the event: viewers keep their last state until the next
// mutation retriggers a rebuild.
func (s *Service) noteMutation(ctx context.Context, kind bus.Kind, point *bus.Point) {
	gen := s.generation.Add(1)
	metrics.UpdateGeneration(gen)

	if !s.bus.Post(ctx, bus.Mutation{Kind: kind, Point: point}) {
		s.logger.Warn(ctx, "mutation event dropped; broadcast deferred to next event",
			logger.String("kind", string(kind)),
		)
	}
}

// CreateTeam creates an active team and schedules a broadcast.
func (s *Service) CreateTeam(ctx context.Context, name string) (model.Team, error) {
	team := model.Team{
		ID:        uuid.NewString(),
		Name:      name,
		Active:    true,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.CreateTeam(ctx, team); err != nil {
		return model.Team{}, err
	}

	metrics.RecordTeamCreated()
	s.noteMutation(ctx, bus.KindTeamCreated, nil)
	return team, nil
}

// ListTeams returns all teams.
func (s *Service) ListTeams(ctx context.Context) ([]model.Team, error) {
	return s.store.ListTeams(ctx)
}

// TeamScore returns the current score breakdown for one team.
func (s *Service) TeamScore(ctx context.Context, teamID string) (types.TeamScore, error) {
	agg, err := s.store.TeamAggregate(ctx, teamID)
	if err != nil {
		return types.TeamScore{}, err
	}
	breakdown := scoring.Compute(agg.DonationAmounts, agg.SaleQuantities, agg.ApprovedPhotos)
	return types.TeamScore{
		TeamID:           agg.TeamID,
		TotalScore:       breakdown.TotalScore,
		TotalDonations:   breakdown.DonationTotal,
		TotalShirtPoints: breakdown.ShirtPoints,
		TotalPhotoPoints: breakdown.PhotoPoints,
	}, nil
}

// RecordDonation commits a donation and schedules a broadcast.
func (s *Service) RecordDonation(ctx context.Context, in types.DonationInput) (model.Donation, error) {
	if _, err := s.store.GetTeam(ctx, in.TeamID); err != nil {
		return model.Donation{}, err
	}

	currency := in.Currency
	if currency == "" {
		currency = defaultCurrency
	}
	donation := model.Donation{
		ID:        uuid.NewString(),
		TeamID:    in.TeamID,
		Amount:    in.Amount,
		Currency:  currency,
		UserID:    in.UserID,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.CreateDonation(ctx, donation); err != nil {
		return model.Donation{}, err
	}

	metrics.RecordDonation()
	s.noteMutation(ctx, bus.KindDonationRecorded, nil)
	return donation, nil
}

// ListDonations returns all donations.
func (s *Service) ListDonations(ctx context.Context) ([]model.Donation, error) {
	return s.store.ListDonations(ctx)
}

// RecordSale commits a shirt sale and schedules a broadcast.
func (s *Service) RecordSale(ctx context.Context, in types.SaleInput) (model.ShirtSale, error) {
	if _, err := s.store.GetTeam(ctx, in.TeamID); err != nil {
		return model.ShirtSale{}, err
	}

	sale := model.ShirtSale{
		ID:       uuid.NewString(),
		TeamID:   in.TeamID,
		Quantity: in.Quantity,
		SoldAt:   time.Now().UTC(),
	}
	if err := s.store.CreateSale(ctx, sale); err != nil {
		return model.ShirtSale{}, err
	}

	metrics.RecordSale()
	s.noteMutation(ctx, bus.KindSaleRecorded, nil)
	return sale, nil
}

// ListSales returns all shirt sales.
func (s *Service) ListSales(ctx context.Context) ([]model.ShirtSale, error) {
	return s.store.ListSales(ctx)
}

// SubmitPhoto stores a pending photo submission. Pending photos never score,
// so no broadcast is scheduled until moderation.
func (s *Service) SubmitPhoto(ctx context.Context, teamID, url string) (model.Photo, error) {
	if _, err := s.store.GetTeam(ctx, teamID); err != nil {
		return model.Photo{}, err
	}

	photo := model.Photo{
		ID:         uuid.NewString(),
		TeamID:     teamID,
		URL:        url,
		UploadedAt: time.Now().UTC(),
	}
	if err := s.store.CreatePhoto(ctx, photo); err != nil {
		return model.Photo{}, err
	}

	metrics.RecordPhotoSubmitted()
	return photo, nil
}

// ListPhotos returns photos, optionally filtered by approval state.
func (s *Service) ListPhotos(ctx context.Context, approved *bool) ([]model.Photo, error) {
	return s.store.ListPhotos(ctx, approved)
}

// ApprovePhoto marks a pending photo approved and schedules a point event
// plus a broadcast. Approving an already-approved photo is a no-op.
func (s *Service) ApprovePhoto(ctx context.Context, photoID string) (model.Photo, error) {
	photo, err := s.store.GetPhoto(ctx, photoID)
	if err != nil {
		return model.Photo{}, err
	}
	if photo.Approved {
		return photo, nil
	}

	photo, err = s.store.ApprovePhoto(ctx, photoID)
	if err != nil {
		return model.Photo{}, err
	}
	team, err := s.store.GetTeam(ctx, photo.TeamID)
	if err != nil {
		return model.Photo{}, err
	}

	metrics.RecordPhotoApproved()
	s.logger.Info(ctx, "photo approved",
		logger.String("photo", photo.ID),
		logger.String("team", team.Name),
	)
	s.noteMutation(ctx, bus.KindPhotoApproved, &bus.Point{
		Event: types.EventPhotoApproved,
		Data: types.PhotoApproved{
			PhotoID:   photo.ID,
			TeamID:    team.ID,
			TeamName:  team.Name,
			TimeStamp: time.Now().UTC(),
		},
	})
	return photo, nil
}

// RejectPhoto deletes a pending photo and schedules a point event plus a
// broadcast. Approved photos are never revoked.
func (s *Service) RejectPhoto(ctx context.Context, photoID, reason string) error {
	photo, err := s.store.GetPhoto(ctx, photoID)
	if err != nil {
		return err
	}
	if photo.Approved {
		return fmt.Errorf("photo %s: %w", photoID, ErrPhotoApproved)
	}

	if err := s.store.DeletePhoto(ctx, photoID); err != nil {
		return err
	}

	metrics.RecordPhotoRejected()
	s.logger.Info(ctx, "photo rejected", logger.String("photo", photoID))
	s.noteMutation(ctx, bus.KindPhotoRejected, &bus.Point{
		Event: types.EventPhotoRejected,
		Data: types.PhotoRejected{
			PhotoID:   photoID,
			Reason:    reason,
			TimeStamp: time.Now().UTC(),
		},
	})
	return nil
}

// CreateUser registers a participant. Assigning a team changes that team's
// member count, so only assigned users schedule a broadcast.
func (s *Service) CreateUser(ctx context.Context, in types.UserInput) (model.User, error) {
	role := in.Role
	if role == "" {
		role = defaultRole
	}
	user := model.User{
		ID:     uuid.NewString(),
		Name:   in.Name,
		TeamID: in.TeamID,
		Role:   role,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return model.User{}, err
	}

	if user.TeamID != "" {
		s.noteMutation(ctx, bus.KindMemberChanged, nil)
	}
	return user, nil
}

// ListUsers returns all users.
func (s *Service) ListUsers(ctx context.Context) ([]model.User, error) {
	return s.store.ListUsers(ctx)
}

// Leaderboard returns the current ranked snapshot.
func (s *Service) Leaderboard(ctx context.Context) ([]types.Entry, error) {
	return s.builder.Build(ctx)
}

// SnapshotJSON returns the serialized snapshot for the current generation,
// rebuilding on cache miss.
func (s *Service) SnapshotJSON(ctx context.Context) ([]byte, error) {
	gen := s.generation.Load()
	if payload, ok := s.cache.Get(ctx, gen); ok {
		metrics.RecordSnapshotCacheHit()
		return payload, nil
	}

	start := time.Now()
	entries, err := s.builder.Build(ctx)
	if err != nil {
		metrics.RecordSnapshotError()
		return nil, err
	}
	payload, err := json.Marshal(entries)
	if err != nil {
		metrics.RecordSnapshotError()
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	metrics.RecordSnapshotBuild(float64(time.Since(start).Milliseconds()))
	metrics.UpdateTeamsTotal(len(entries))

	s.cache.Set(ctx, gen, payload)
	return payload, nil
}

// PublishSnapshot rebuilds the leaderboard and pushes it to all viewers.
func (s *Service) PublishSnapshot(ctx context.Context) error {
	payload, err := s.SnapshotJSON(ctx)
	if err != nil {
		return err
	}

	envelope, err := json.Marshal(pushMessage{
		Event: types.EventLeaderboardUpdate,
		Data:  json.RawMessage(payload),
	})
	if err != nil {
		return fmt.Errorf("marshal push envelope: %w", err)
	}

	s.hub.Broadcast(ctx, envelope)
	metrics.RecordBroadcast()
	return nil
}

// PublishPoint pushes a targeted notification to all viewers.
func (s *Service) PublishPoint(ctx context.Context, event string, data any) {
	envelope, err := json.Marshal(pushMessage{Event: event, Data: data})
	if err != nil {
		s.logger.Error(ctx, "point event dropped", logger.String("event", event), logger.Error(err))
		return
	}

	s.hub.Broadcast(ctx, envelope)
	metrics.RecordPointEvent()
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":    s.started,
		"generation": s.generation.Load(),
	}

	if s.started {
		ctx := context.Background()
		stats["subscribers"] = s.hub.Count()
		stats["busDepth"] = s.bus.Len(ctx)
		if teams, err := s.store.ListTeams(ctx); err == nil {
			stats["teams"] = len(teams)
			metrics.UpdateTeamsTotal(len(teams))
		}
	}

	return stats
}
