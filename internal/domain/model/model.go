// Package model contains domain models passed between layers.
package model

import "time"

// Team is a fundraising team competing on the leaderboard.
type Team struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
}

// Donation is a monetary contribution credited to a team.
// Immutable once recorded.
type Donation struct {
	ID        string    `json:"id"`
	TeamID    string    `json:"teamId"`
	Amount    float64   `json:"amount"` // currency units, validated positive upstream
	Currency  string    `json:"currency"`
	UserID    string    `json:"userId,omitempty"` // optional contributing user
	CreatedAt time.Time `json:"createdAt"`
}

// ShirtSale records merchandise units sold by a team.
// Immutable once recorded.
type ShirtSale struct {
	ID       string    `json:"id"`
	TeamID   string    `json:"teamId"`
	Quantity int       `json:"quantity"`
	SoldAt   time.Time `json:"soldAt"`
}

// Photo is a team photo submission awaiting moderation.
// Approval is a terminal one-way transition; rejection deletes the record.
type Photo struct {
	ID         string    `json:"id"`
	TeamID     string    `json:"teamId"`
	URL        string    `json:"url"`
	Approved   bool      `json:"approved"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// User is a registered participant, optionally assigned to a team.
// Only team membership feeds scoring.
type User struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	TeamID string `json:"teamId,omitempty"` // empty when unassigned
	Role   string `json:"role"`
}

// TeamAggregate bundles one team's raw event collections as retrieved
// in a single batched read. It is the scoring input shape.
type TeamAggregate struct {
	TeamID          string
	Name            string
	CreatedAt       time.Time
	DonationAmounts []float64
	SaleQuantities  []int
	ApprovedPhotos  int
	TotalPhotos     int
	MemberCount     int
}
