package sim

import "time"

// Config holds configuration for the competition drive
type Config struct {
	BaseURL  string        // Base URL of the service
	Teams    int           // Number of teams to create
	Events   int           // Number of scoring events to generate
	Workers  int           // Number of concurrent workers
	Timeout  time.Duration // HTTP request timeout
	Verbose  bool          // Enable verbose logging
	Moderate bool          // Moderate submitted photos after the drive
}

// Team mirrors the team wire shape
type Team struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Photo mirrors the photo wire shape
type Photo struct {
	ID       string `json:"id"`
	TeamID   string `json:"teamId"`
	Approved bool   `json:"approved"`
}

// Entry mirrors the leaderboard entry wire shape
type Entry struct {
	ID                  string  `json:"id"`
	Name                string  `json:"name"`
	Rank                int     `json:"rank"`
	TotalScore          float64 `json:"totalScore"`
	TotalDonations      float64 `json:"totalDonations"`
	TotalShirtPoints    float64 `json:"totalShirtPoints"`
	TotalPhotoPoints    float64 `json:"totalPhotoPoints"`
	ApprovedPhotosCount int     `json:"approvedPhotosCount"`
}

// Stats holds drive statistics
type Stats struct {
	TeamsCreated    int
	EventsGenerated int
	EventsSubmitted int
	EventsOK        int
	EventsFailed    int
	PhotosApproved  int
	PhotosRejected  int
	StartTime       time.Time
	EndTime         time.Time
	Duration        time.Duration
}
