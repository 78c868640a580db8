// Package rank total-orders score breakdowns into a ranked leaderboard.
package rank

import (
	"sort"

	"github.com/okian/rally/internal/domain/types"
)

// Assign sorts entries into leaderboard order and assigns dense ranks 1..N.
// Order is deterministic: totalScore descending, then team creation time
// ascending (earlier-created team wins a tie), then team id ascending.
// An empty slice is a valid input and stays empty.
func Assign(entries []types.Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].TotalScore != entries[j].TotalScore {
			return entries[i].TotalScore > entries[j].TotalScore
		}
		if !entries[i].CreatedAt.Equal(entries[j].CreatedAt) {
			return entries[i].CreatedAt.Before(entries[j].CreatedAt)
		}
		return entries[i].ID < entries[j].ID
	})

	// Tied teams still get consecutive distinct ranks; the sort above makes
	// that assignment deterministic.
	for i := range entries {
		entries[i].Rank = i + 1
	}
}
