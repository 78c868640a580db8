// Package types contains wire types shared between the HTTP and push layers.
package types

import "time"

// Entry is one leaderboard row. Field names mirror the public JSON contract.
type Entry struct {
	ID                  string    `json:"id"`
	Name                string    `json:"name"`
	Rank                int       `json:"rank"`
	TotalScore          float64   `json:"totalScore"`
	TotalDonations      float64   `json:"totalDonations"`
	TotalShirtPoints    float64   `json:"totalShirtPoints"`
	TotalPhotoPoints    float64   `json:"totalPhotoPoints"`
	DonationCount       int       `json:"donationCount"`
	ShirtSaleCount      int       `json:"shirtSaleCount"`
	ApprovedPhotosCount int       `json:"approvedPhotosCount"`
	PhotoCount          int       `json:"photoCount"`
	MemberCount         int       `json:"memberCount"`
	CreatedAt           time.Time `json:"createdAt"`
}

// Push event names delivered over the websocket channel.
const (
	EventLeaderboardUpdate = "leaderboard-update"
	EventPhotoApproved     = "photo-approved"
	EventPhotoRejected     = "photo-rejected"
)

// PhotoApproved is the targeted notification for an approved photo.
type PhotoApproved struct {
	PhotoID   string    `json:"photoId"`
	TeamID    string    `json:"teamId"`
	TeamName  string    `json:"teamName"`
	TimeStamp time.Time `json:"timeStamp"`
}

// PhotoRejected is the targeted notification for a rejected photo.
type PhotoRejected struct {
	PhotoID   string    `json:"photoId"`
	Reason    string    `json:"reason,omitempty"`
	TimeStamp time.Time `json:"timeStamp"`
}

// DonationInput carries a validated donation request.
type DonationInput struct {
	TeamID   string
	Amount   float64
	Currency string
	UserID   string
}

// SaleInput carries a validated shirt sale request.
type SaleInput struct {
	TeamID   string
	Quantity int
}

// UserInput carries a validated user creation request.
type UserInput struct {
	Name   string
	TeamID string
	Role   string
}

// TeamScore is the per-team score read returned by GET /teams/{id}/score.
type TeamScore struct {
	TeamID           string  `json:"teamId"`
	TotalScore       float64 `json:"totalScore"`
	TotalDonations   float64 `json:"totalDonations"`
	TotalShirtPoints float64 `json:"totalShirtPoints"`
	TotalPhotoPoints float64 `json:"totalPhotoPoints"`
}
