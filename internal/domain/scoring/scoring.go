// Package scoring computes per-team score breakdowns from raw event collections.
package scoring

// Point values are fixed for the duration of a competition.
const (
	// ShirtPointMultiplier is awarded per merchandise unit sold.
	ShirtPointMultiplier = 10
	// PhotoPointValue is awarded per moderator-approved photo.
	PhotoPointValue = 50
)

// Breakdown itemizes a team's score components.
// TotalScore is always the exact sum of the three contributions.
type Breakdown struct {
	DonationTotal float64
	ShirtPoints   float64
	PhotoPoints   float64
	TotalScore    float64

	DonationCount  int
	ShirtSaleCount int
	ApprovedPhotos int
}

// Compute maps a team's donations, shirt sale quantities and approved photo
// count to a score breakdown. Pure; trusts validated input, so negative
// amounts are never clamped here. Empty inputs yield an all-zero breakdown.
func Compute(donations []float64, saleQuantities []int, approvedPhotos int) Breakdown {
	b := Breakdown{
		DonationCount:  len(donations),
		ShirtSaleCount: len(saleQuantities),
		ApprovedPhotos: approvedPhotos,
	}

	for _, amount := range donations {
		b.DonationTotal += amount
	}
	for _, quantity := range saleQuantities {
		b.ShirtPoints += float64(quantity * ShirtPointMultiplier)
	}
	b.PhotoPoints = float64(approvedPhotos * PhotoPointValue)

	b.TotalScore = b.DonationTotal + b.ShirtPoints + b.PhotoPoints
	return b
}
