package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/okian/rally/internal/domain/model"
)

// MemoryStore implements Store with mutex-guarded maps. It is the default
// backend and the fixture for tests; Postgres replaces it in deployments.
type MemoryStore struct {
	mu        sync.RWMutex
	teams     map[string]model.Team
	donations map[string]model.Donation
	sales     map[string]model.ShirtSale
	photos    map[string]model.Photo
	users     map[string]model.User
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		teams:     make(map[string]model.Team),
		donations: make(map[string]model.Donation),
		sales:     make(map[string]model.ShirtSale),
		photos:    make(map[string]model.Photo),
		users:     make(map[string]model.User),
	}
}

var _ Store = (*MemoryStore)(nil)

// CreateTeam inserts a team.
func (s *MemoryStore) CreateTeam(_ context.Context, team model.Team) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.teams[team.ID]; exists {
		return fmt.Errorf("team %s: %w", team.ID, ErrConflict)
	}
	s.teams[team.ID] = team
	return nil
}

// GetTeam returns a team by id.
func (s *MemoryStore) GetTeam(_ context.Context, id string) (model.Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	team, ok := s.teams[id]
	if !ok {
		return model.Team{}, fmt.Errorf("team %s: %w", id, ErrNotFound)
	}
	return team, nil
}

// ListTeams returns all teams, newest first.
func (s *MemoryStore) ListTeams(_ context.Context) ([]model.Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	teams := make([]model.Team, 0, len(s.teams))
	for _, t := range s.teams {
		teams = append(teams, t)
	}
	sort.Slice(teams, func(i, j int) bool {
		if !teams[i].CreatedAt.Equal(teams[j].CreatedAt) {
			return teams[i].CreatedAt.After(teams[j].CreatedAt)
		}
		return teams[i].ID < teams[j].ID
	})
	return teams, nil
}

// CreateDonation inserts a donation.
func (s *MemoryStore) CreateDonation(_ context.Context, donation model.Donation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.teams[donation.TeamID]; !exists {
		return fmt.Errorf("team %s: %w", donation.TeamID, ErrNotFound)
	}
	s.donations[donation.ID] = donation
	return nil
}

// ListDonations returns all donations, newest first.
func (s *MemoryStore) ListDonations(_ context.Context) ([]model.Donation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	donations := make([]model.Donation, 0, len(s.donations))
	for _, d := range s.donations {
		donations = append(donations, d)
	}
	sort.Slice(donations, func(i, j int) bool {
		if !donations[i].CreatedAt.Equal(donations[j].CreatedAt) {
			return donations[i].CreatedAt.After(donations[j].CreatedAt)
		}
		return donations[i].ID < donations[j].ID
	})
	return donations, nil
}

// CreateSale inserts a shirt sale.
func (s *MemoryStore) CreateSale(_ context.Context, sale model.ShirtSale) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.teams[sale.TeamID]; !exists {
		return fmt.Errorf("team %s: %w", sale.TeamID, ErrNotFound)
	}
	s.sales[sale.ID] = sale
	return nil
}

// ListSales returns all shirt sales, newest first.
func (s *MemoryStore) ListSales(_ context.Context) ([]model.ShirtSale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sales := make([]model.ShirtSale, 0, len(s.sales))
	for _, sale := range s.sales {
		sales = append(sales, sale)
	}
	sort.Slice(sales, func(i, j int) bool {
		if !sales[i].SoldAt.Equal(sales[j].SoldAt) {
			return sales[i].SoldAt.After(sales[j].SoldAt)
		}
		return sales[i].ID < sales[j].ID
	})
	return sales, nil
}

// CreatePhoto inserts a pending photo.
func (s *MemoryStore) CreatePhoto(_ context.Context, photo model.Photo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.teams[photo.TeamID]; !exists {
		return fmt.Errorf("team %s: %w", photo.TeamID, ErrNotFound)
	}
	s.photos[photo.ID] = photo
	return nil
}

// GetPhoto returns a photo by id.
func (s *MemoryStore) GetPhoto(_ context.Context, id string) (model.Photo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	photo, ok := s.photos[id]
	if !ok {
		return model.Photo{}, fmt.Errorf("photo %s: %w", id, ErrNotFound)
	}
	return photo, nil
}

// ListPhotos returns photos, newest first, optionally filtered by approval.
func (s *MemoryStore) ListPhotos(_ context.Context, approved *bool) ([]model.Photo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	photos := make([]model.Photo, 0, len(s.photos))
	for _, p := range s.photos {
		if approved != nil && p.Approved != *approved {
			continue
		}
		photos = append(photos, p)
	}
	sort.Slice(photos, func(i, j int) bool {
		if !photos[i].UploadedAt.Equal(photos[j].UploadedAt) {
			return photos[i].UploadedAt.After(photos[j].UploadedAt)
		}
		return photos[i].ID < photos[j].ID
	})
	return photos, nil
}

// ApprovePhoto marks a photo approved and returns the updated record.
func (s *MemoryStore) ApprovePhoto(_ context.Context, id string) (model.Photo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	photo, ok := s.photos[id]
	if !ok {
		return model.Photo{}, fmt.Errorf("photo %s: %w", id, ErrNotFound)
	}
	photo.Approved = true
	s.photos[id] = photo
	return photo, nil
}

// DeletePhoto removes a photo record.
func (s *MemoryStore) DeletePhoto(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.photos[id]; !ok {
		return fmt.Errorf("photo %s: %w", id, ErrNotFound)
	}
	delete(s.photos, id)
	return nil
}

// CreateUser inserts a user.
func (s *MemoryStore) CreateUser(_ context.Context, user model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user.TeamID != "" {
		if _, exists := s.teams[user.TeamID]; !exists {
			return fmt.Errorf("team %s: %w", user.TeamID, ErrNotFound)
		}
	}
	s.users[user.ID] = user
	return nil
}

// ListUsers returns all users.
func (s *MemoryStore) ListUsers(_ context.Context) ([]model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	users := make([]model.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

// TeamAggregates returns aggregates for all active teams in one pass.
func (s *MemoryStore) TeamAggregates(_ context.Context) ([]model.TeamAggregate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	aggregates := make(map[string]*model.TeamAggregate, len(s.teams))
	order := make([]string, 0, len(s.teams))
	for id, team := range s.teams {
		if !team.Active {
			continue
		}
		aggregates[id] = &model.TeamAggregate{
			TeamID:          id,
			Name:            team.Name,
			CreatedAt:       team.CreatedAt,
			DonationAmounts: []float64{},
			SaleQuantities:  []int{},
		}
		order = append(order, id)
	}
	sort.Strings(order)

	for _, d := range s.donations {
		if agg, ok := aggregates[d.TeamID]; ok {
			agg.DonationAmounts = append(agg.DonationAmounts, d.Amount)
		}
	}
	for _, sale := range s.sales {
		if agg, ok := aggregates[sale.TeamID]; ok {
			agg.SaleQuantities = append(agg.SaleQuantities, sale.Quantity)
		}
	}
	for _, p := range s.photos {
		if agg, ok := aggregates[p.TeamID]; ok {
			agg.TotalPhotos++
			if p.Approved {
				agg.ApprovedPhotos++
			}
		}
	}
	for _, u := range s.users {
		if agg, ok := aggregates[u.TeamID]; ok {
			agg.MemberCount++
		}
	}

	out := make([]model.TeamAggregate, 0, len(order))
	for _, id := range order {
		// Sort inner slices so repeated reads are structurally identical.
		agg := aggregates[id]
		sort.Float64s(agg.DonationAmounts)
		sort.Ints(agg.SaleQuantities)
		out = append(out, *agg)
	}
	return out, nil
}

// TeamAggregate returns the aggregate for one active team.
func (s *MemoryStore) TeamAggregate(ctx context.Context, teamID string) (model.TeamAggregate, error) {
	aggregates, err := s.TeamAggregates(ctx)
	if err != nil {
		return model.TeamAggregate{}, err
	}
	for _, agg := range aggregates {
		if agg.TeamID == teamID {
			return agg, nil
		}
	}
	return model.TeamAggregate{}, fmt.Errorf("team %s: %w", teamID, ErrNotFound)
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() {}
