// Package snapshot assembles the full ranked leaderboard from stored events.
package snapshot

import (
	"context"
	"fmt"

	"github.com/okian/rally/internal/domain/model"
	"github.com/okian/rally/internal/domain/rank"
	"github.com/okian/rally/internal/domain/scoring"
	"github.com/okian/rally/internal/domain/types"
)

// Source provides the batched per-team aggregates the builder consumes.
// One call retrieves everything, including member counts, so building a
// snapshot never issues a query per team.
type Source interface {
	TeamAggregates(ctx context.Context) ([]model.TeamAggregate, error)
}

// Builder computes leaderboard snapshots. Stateless; safe for concurrent use.
type Builder struct {
	src Source
}

// New creates a Builder reading from src.
func New(src Source) *Builder {
	return &Builder{src: src}
}

// Build returns the current leaderboard ordered by rank ascending.
// Zero teams yields an empty (non-nil) slice. Retrieval failures propagate.
func (b *Builder) Build(ctx context.Context) ([]types.Entry, error) {
	aggregates, err := b.src.TeamAggregates(ctx)
	if err != nil {
		return nil, fmt.Errorf("retrieve team aggregates: %w", err)
	}

	entries := make([]types.Entry, 0, len(aggregates))
	for _, agg := range aggregates {
		breakdown := scoring.Compute(agg.DonationAmounts, agg.SaleQuantities, agg.ApprovedPhotos)
		entries = append(entries, types.Entry{
			ID:                  agg.TeamID,
			Name:                agg.Name,
			TotalScore:          breakdown.TotalScore,
			TotalDonations:      breakdown.DonationTotal,
			TotalShirtPoints:    breakdown.ShirtPoints,
			TotalPhotoPoints:    breakdown.PhotoPoints,
			DonationCount:       breakdown.DonationCount,
			ShirtSaleCount:      breakdown.ShirtSaleCount,
			ApprovedPhotosCount: breakdown.ApprovedPhotos,
			PhotoCount:          agg.TotalPhotos,
			MemberCount:         agg.MemberCount,
			CreatedAt:           agg.CreatedAt,
		})
	}

	rank.Assign(entries)
	return entries, nil
}
