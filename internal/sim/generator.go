package sim

import (
	"crypto/rand"
	"math/big"
	"strconv"
)

// action is one scoring event to submit.
type action struct {
	kind     string // donation, sale, photo
	teamID   string
	amount   float64
	quantity int
	url      string
}

// Constants for random number generation.
const (
	randomFloatDivisor = 1000000
	actionKindDivisor  = 10
)

// Constants for generated value ranges.
const (
	smallDonationMin   = 5.0
	smallDonationRange = 45.0
	bigDonationMin     = 100.0
	bigDonationRange   = 400.0
	saleQuantityMax    = 5
)

// Action mix cases: donations dominate, sales and photos are rarer.
const (
	caseBigDonation = 0
	caseSale        = 1
	casePhoto       = 2
)

// getRandomFloat returns a random float64 between 0.0 and 1.0 using crypto/rand.
func getRandomFloat() float64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(randomFloatDivisor))
	return float64(n.Int64()) / float64(randomFloatDivisor)
}

// getRandomInt returns a random int in [0, max) using crypto/rand.
func getRandomInt(max int64) int64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(max))
	return n.Int64()
}

// generateActions creates a randomized stream of scoring events spread
// across the given teams.
func generateActions(teams []Team, count int) []action {
	actions := make([]action, count)
	for i := range actions {
		team := teams[getRandomInt(int64(len(teams)))]
		switch getRandomInt(actionKindDivisor) {
		case caseBigDonation:
			actions[i] = action{
				kind:   "donation",
				teamID: team.ID,
				amount: bigDonationMin + getRandomFloat()*bigDonationRange,
			}
		case caseSale:
			actions[i] = action{
				kind:     "sale",
				teamID:   team.ID,
				quantity: int(getRandomInt(saleQuantityMax)) + 1,
			}
		case casePhoto:
			actions[i] = action{
				kind:   "photo",
				teamID: team.ID,
				url:    "https://photos.example.com/" + team.ID + "/" + strconv.Itoa(i) + ".jpg",
			}
		default:
			actions[i] = action{
				kind:   "donation",
				teamID: team.ID,
				amount: smallDonationMin + getRandomFloat()*smallDonationRange,
			}
		}
	}
	return actions
}
