// Package repository defines the durable store interface for competition state.
package repository

import (
	"context"

	"github.com/okian/rally/internal/domain/model"
)

// Store provides read/write access to teams and their event collections.
// Scores are never stored; they are derived from these collections at
// snapshot time.
type Store interface {
	// Teams.
	CreateTeam(ctx context.Context, team model.Team) error
	GetTeam(ctx context.Context, id string) (model.Team, error)
	ListTeams(ctx context.Context) ([]model.Team, error)

	// Donations. Immutable once created.
	CreateDonation(ctx context.Context, donation model.Donation) error
	ListDonations(ctx context.Context) ([]model.Donation, error)

	// Shirt sales. Immutable once created.
	CreateSale(ctx context.Context, sale model.ShirtSale) error
	ListSales(ctx context.Context) ([]model.ShirtSale, error)

	// Photos. Approval is one-way; rejection deletes the record.
	CreatePhoto(ctx context.Context, photo model.Photo) error
	GetPhoto(ctx context.Context, id string) (model.Photo, error)
	ListPhotos(ctx context.Context, approved *bool) ([]model.Photo, error)
	ApprovePhoto(ctx context.Context, id string) (model.Photo, error)
	DeletePhoto(ctx context.Context, id string) error

	// Users. Membership count is the only scoring-relevant attribute.
	CreateUser(ctx context.Context, user model.User) error
	ListUsers(ctx context.Context) ([]model.User, error)

	// TeamAggregates returns one aggregate per active team in a single
	// batched retrieval, member counts included.
	TeamAggregates(ctx context.Context) ([]model.TeamAggregate, error)

	// TeamAggregate returns the aggregate for a single team.
	// Returns ErrNotFound for unknown or inactive teams.
	TeamAggregate(ctx context.Context, teamID string) (model.TeamAggregate, error)

	// Close releases underlying resources.
	Close()
}
