// Package sim drives a synthetic fundraising competition against a running
// service: it creates teams, submits randomized scoring events, moderates
// photos, and verifies the resulting leaderboard.
package sim

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/okian/rally/pkg/logger"
)

// settleDelay gives the broadcast pipeline time to drain before verification.
const settleDelay = 2 * time.Second

// Run executes the complete competition drive.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{
		StartTime: time.Now(),
	}

	logger.Get().Info(ctx, "starting competition drive",
		logger.String("baseURL", config.BaseURL),
		logger.Int("teams", config.Teams),
		logger.Int("events", config.Events),
		logger.Int("workers", config.Workers),
		logger.String("timeout", config.Timeout.String()))

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, config); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Create teams
	teams, err := createTeams(ctx, config, stats)
	if err != nil {
		return fmt.Errorf("team creation failed: %w", err)
	}

	// Step 3: Generate scoring events
	actions := generateActions(teams, config.Events)
	stats.EventsGenerated = len(actions)

	// Step 4: Submit events concurrently
	if err := submitActions(ctx, config, actions, stats); err != nil {
		return fmt.Errorf("event submission failed: %w", err)
	}

	// Step 5: Moderate submitted photos
	if config.Moderate {
		if err := moderatePhotos(ctx, config, stats); err != nil {
			return fmt.Errorf("photo moderation failed: %w", err)
		}
	}

	// Step 6: Wait for broadcasts to settle
	logger.Get().Info(ctx, "waiting for broadcasts to settle")
	time.Sleep(settleDelay)

	// Step 7: Fetch and verify the leaderboard
	if err := verifyLeaderboard(ctx, config, stats); err != nil {
		return fmt.Errorf("leaderboard verification failed: %w", err)
	}

	// Final statistics
	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	logger.Get().Info(ctx, "drive completed",
		logger.Int("teamsCreated", stats.TeamsCreated),
		logger.Int("eventsSubmitted", stats.EventsSubmitted),
		logger.Int("eventsOK", stats.EventsOK),
		logger.Int("eventsFailed", stats.EventsFailed),
		logger.Int("photosApproved", stats.PhotosApproved),
		logger.Int("photosRejected", stats.PhotosRejected),
		logger.String("duration", stats.Duration.String()))

	return nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, config *Config) error {
	client := newHTTPClient(config.Timeout)

	resp, err := client.Get(ctx, config.BaseURL+"/healthz")
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	drainResponse(resp)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}
	return nil
}

// createTeams registers the competing teams.
func createTeams(ctx context.Context, config *Config, stats *Stats) ([]Team, error) {
	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/teams"

	teams := make([]Team, 0, config.Teams)
	for i := 0; i < config.Teams; i++ {
		resp, err := client.Post(ctx, url, map[string]string{
			"name": fmt.Sprintf("Team %s", uuid.NewString()[:8]),
		})
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusCreated {
			drainResponse(resp)
			return nil, fmt.Errorf("create team failed with status: %d", resp.StatusCode)
		}
		var team Team
		if err := decodeResponse(resp, &team); err != nil {
			return nil, err
		}
		teams = append(teams, team)
	}

	stats.TeamsCreated = len(teams)
	logger.Get().Info(ctx, "teams created", logger.Int("count", len(teams)))
	return teams, nil
}

// submitActions submits scoring events concurrently using a worker pool.
func submitActions(ctx context.Context, config *Config, actions []action, stats *Stats) error {
	client := newHTTPClient(config.Timeout)

	var (
		submitted int64
		ok        int64
		failed    int64
	)

	actionChan := make(chan action, config.Workers*2)
	var wg sync.WaitGroup

	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for a := range actionChan {
				select {
				case <-ctx.Done():
					return
				default:
					atomic.AddInt64(&submitted, 1)
					if submitSingleAction(ctx, client, config.BaseURL, a) {
						atomic.AddInt64(&ok, 1)
					} else {
						atomic.AddInt64(&failed, 1)
					}
				}
			}
		}()
	}

	go func() {
		defer close(actionChan)
		for _, a := range actions {
			select {
			case <-ctx.Done():
				return
			case actionChan <- a:
			}
		}
	}()

	wg.Wait()

	stats.EventsSubmitted = int(atomic.LoadInt64(&submitted))
	stats.EventsOK = int(atomic.LoadInt64(&ok))
	stats.EventsFailed = int(atomic.LoadInt64(&failed))

	logger.Get().Info(ctx, "event submission completed",
		logger.Int("ok", stats.EventsOK),
		logger.Int("failed", stats.EventsFailed))
	return nil
}

// submitSingleAction posts one scoring event and reports success.
func submitSingleAction(ctx context.Context, client *HTTPClient, baseURL string, a action) bool {
	var (
		resp *http.Response
		err  error
	)
	switch a.kind {
	case "donation":
		resp, err = client.Post(ctx, baseURL+"/donations", map[string]any{
			"teamId": a.teamID,
			"amount": a.amount,
		})
	case "sale":
		resp, err = client.Post(ctx, baseURL+"/sales", map[string]any{
			"teamId":   a.teamID,
			"quantity": a.quantity,
		})
	case "photo":
		resp, err = client.Post(ctx, baseURL+"/photos", map[string]any{
			"teamId": a.teamID,
			"url":    a.url,
		})
	default:
		return false
	}
	if err != nil {
		return false
	}
	drainResponse(resp)
	return resp.StatusCode == http.StatusCreated || resp.StatusCode == http.StatusOK
}

// moderationApproveBias approves roughly 7 in 10 pending photos.
const moderationApproveBias = 7

// moderatePhotos approves or rejects every pending photo.
func moderatePhotos(ctx context.Context, config *Config, stats *Stats) error {
	client := newHTTPClient(config.Timeout)

	resp, err := client.Get(ctx, config.BaseURL+"/photos?status=pending")
	if err != nil {
		return err
	}
	var photos []Photo
	if err := decodeResponse(resp, &photos); err != nil {
		return err
	}

	for _, photo := range photos {
		var modResp *http.Response
		if getRandomInt(10) < moderationApproveBias {
			modResp, err = client.Post(ctx, config.BaseURL+"/photos/"+photo.ID+"/approve", nil)
			if err == nil && modResp.StatusCode == http.StatusOK {
				stats.PhotosApproved++
			}
		} else {
			modResp, err = client.Post(ctx, config.BaseURL+"/photos/"+photo.ID+"/reject", map[string]string{
				"reason": "does not meet guidelines",
			})
			if err == nil && modResp.StatusCode == http.StatusOK {
				stats.PhotosRejected++
			}
		}
		if err != nil {
			return err
		}
		drainResponse(modResp)
	}

	logger.Get().Info(ctx, "moderation completed",
		logger.Int("approved", stats.PhotosApproved),
		logger.Int("rejected", stats.PhotosRejected))
	return nil
}

// verifyLeaderboard fetches the snapshot and checks ranking invariants:
// scores non-increasing, ranks dense from 1, totals consistent.
func verifyLeaderboard(ctx context.Context, config *Config, stats *Stats) error {
	client := newHTTPClient(config.Timeout)

	resp, err := client.Get(ctx, config.BaseURL+"/leaderboard")
	if err != nil {
		return err
	}
	var entries []Entry
	if err := decodeResponse(resp, &entries); err != nil {
		return err
	}

	if len(entries) != stats.TeamsCreated {
		return fmt.Errorf("expected %d entries, got %d", stats.TeamsCreated, len(entries))
	}

	for i, e := range entries {
		if e.Rank != i+1 {
			return fmt.Errorf("entry %d: expected rank %d, got %d", i, i+1, e.Rank)
		}
		if i > 0 && e.TotalScore > entries[i-1].TotalScore {
			return fmt.Errorf("entry %d: score %.2f exceeds previous %.2f",
				i, e.TotalScore, entries[i-1].TotalScore)
		}
		sum := e.TotalDonations + e.TotalShirtPoints + e.TotalPhotoPoints
		if diff := e.TotalScore - sum; diff > 0.01 || diff < -0.01 {
			return fmt.Errorf("entry %d: total %.2f does not match components %.2f", i, e.TotalScore, sum)
		}
	}

	logger.Get().Info(ctx, "leaderboard verified", logger.Int("entries", len(entries)))
	return nil
}
