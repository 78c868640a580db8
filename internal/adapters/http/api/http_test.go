package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/okian/rally/internal/adapters/http/api"
	"github.com/okian/rally/internal/adapters/repository"
	"github.com/okian/rally/internal/adapters/ws"
	"github.com/okian/rally/internal/domain/model"
	"github.com/okian/rally/internal/domain/types"
	"github.com/okian/rally/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

// stubService implements api.Dependencies over fixed fixtures.
type stubService struct {
	seen        map[string]bool
	teams       []model.Team
	donations   []model.Donation
	sales       []model.ShirtSale
	photos      []model.Photo
	users       []model.User
	snapshot    []byte
	snapshotErr error
	rejectErr   error
	scoreErr    error
}

func newStubService() *stubService {
	return &stubService{
		seen:     map[string]bool{},
		snapshot: []byte(`[]`),
	}
}

func (s *stubService) SeenAndRecord(_ context.Context, key string) bool {
	if s.seen[key] {
		return true
	}
	s.seen[key] = true
	return false
}

func (s *stubService) Unrecord(_ context.Context, key string) { delete(s.seen, key) }

func (s *stubService) CreateTeam(_ context.Context, name string) (model.Team, error) {
	team := model.Team{ID: fmt.Sprintf("t%d", len(s.teams)+1), Name: name, Active: true, CreatedAt: time.Now().UTC()}
	s.teams = append(s.teams, team)
	return team, nil
}

func (s *stubService) RecordDonation(_ context.Context, in api.DonationInput) (model.Donation, error) {
	if !s.teamExists(in.TeamID) {
		return model.Donation{}, fmt.Errorf("team %s: %w", in.TeamID, repository.ErrNotFound)
	}
	d := model.Donation{ID: "d1", TeamID: in.TeamID, Amount: in.Amount, Currency: in.Currency}
	s.donations = append(s.donations, d)
	return d, nil
}

func (s *stubService) RecordSale(_ context.Context, in api.SaleInput) (model.ShirtSale, error) {
	if !s.teamExists(in.TeamID) {
		return model.ShirtSale{}, fmt.Errorf("team %s: %w", in.TeamID, repository.ErrNotFound)
	}
	sale := model.ShirtSale{ID: "s1", TeamID: in.TeamID, Quantity: in.Quantity}
	s.sales = append(s.sales, sale)
	return sale, nil
}

func (s *stubService) SubmitPhoto(_ context.Context, teamID, url string) (model.Photo, error) {
	if !s.teamExists(teamID) {
		return model.Photo{}, fmt.Errorf("team %s: %w", teamID, repository.ErrNotFound)
	}
	photo := model.Photo{ID: "p1", TeamID: teamID, URL: url}
	s.photos = append(s.photos, photo)
	return photo, nil
}

func (s *stubService) ApprovePhoto(_ context.Context, photoID string) (model.Photo, error) {
	for i, p := range s.photos {
		if p.ID == photoID {
			s.photos[i].Approved = true
			return s.photos[i], nil
		}
	}
	return model.Photo{}, fmt.Errorf("photo %s: %w", photoID, repository.ErrNotFound)
}

func (s *stubService) RejectPhoto(_ context.Context, photoID, _ string) error {
	if s.rejectErr != nil {
		return s.rejectErr
	}
	for i, p := range s.photos {
		if p.ID == photoID {
			s.photos = append(s.photos[:i], s.photos[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("photo %s: %w", photoID, repository.ErrNotFound)
}

func (s *stubService) CreateUser(_ context.Context, in api.UserInput) (model.User, error) {
	user := model.User{ID: "u1", Name: in.Name, TeamID: in.TeamID, Role: in.Role}
	s.users = append(s.users, user)
	return user, nil
}

func (s *stubService) ListTeams(_ context.Context) ([]model.Team, error)         { return s.teams, nil }
func (s *stubService) ListDonations(_ context.Context) ([]model.Donation, error) { return s.donations, nil }
func (s *stubService) ListSales(_ context.Context) ([]model.ShirtSale, error)    { return s.sales, nil }
func (s *stubService) ListUsers(_ context.Context) ([]model.User, error)         { return s.users, nil }

func (s *stubService) ListPhotos(_ context.Context, approved *bool) ([]model.Photo, error) {
	if approved == nil {
		return s.photos, nil
	}
	out := []model.Photo{}
	for _, p := range s.photos {
		if p.Approved == *approved {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *stubService) TeamScore(_ context.Context, teamID string) (types.TeamScore, error) {
	if s.scoreErr != nil {
		return types.TeamScore{}, s.scoreErr
	}
	if !s.teamExists(teamID) {
		return types.TeamScore{}, fmt.Errorf("team %s: %w", teamID, repository.ErrNotFound)
	}
	return types.TeamScore{TeamID: teamID, TotalScore: 210.50, TotalDonations: 120.50, TotalShirtPoints: 40, TotalPhotoPoints: 50}, nil
}

func (s *stubService) SnapshotJSON(_ context.Context) ([]byte, error) {
	return s.snapshot, s.snapshotErr
}

func (s *stubService) Subscribe(_ ws.Subscriber) {}
func (s *stubService) Unsubscribe(_ string)      {}
func (s *stubService) ClientBuffer() int         { return 16 }

func (s *stubService) GetStats() map[string]interface{} {
	return map[string]interface{}{"started": true}
}

func (s *stubService) teamExists(id string) bool {
	for _, t := range s.teams {
		if t.ID == id {
			return true
		}
	}
	return false
}

func newTestServer(svc *stubService) *http.ServeMux {
	mux := http.NewServeMux()
	server := api.NewServer(svc, svc)
	server.Register(context.Background(), mux)
	return mux
}

func postJSON(mux *http.ServeMux, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	payload, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func get(mux *http.ServeMux, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, http.NoBody)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func TestTeamEndpoints(t *testing.T) {
	if err := logger.Init(); err != nil {
		t.Fatalf("init logger: %v", err)
	}

	Convey("Given the API server", t, func() {
		svc := newStubService()
		mux := newTestServer(svc)

		Convey("When creating a team with a valid name", func() {
			w := postJSON(mux, "/teams", map[string]string{"name": "Alpha"}, nil)

			Convey("Then the team should be created", func() {
				So(w.Code, ShouldEqual, http.StatusCreated)
				var team model.Team
				So(json.Unmarshal(w.Body.Bytes(), &team), ShouldBeNil)
				So(team.Name, ShouldEqual, "Alpha")
				So(team.Active, ShouldBeTrue)
			})
		})

		Convey("When creating a team without a name", func() {
			w := postJSON(mux, "/teams", map[string]string{}, nil)

			Convey("Then it should be rejected", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When listing teams", func() {
			postJSON(mux, "/teams", map[string]string{"name": "Alpha"}, nil)
			w := get(mux, "/teams")

			Convey("Then all teams should be returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var teams []model.Team
				So(json.Unmarshal(w.Body.Bytes(), &teams), ShouldBeNil)
				So(teams, ShouldHaveLength, 1)
			})
		})

		Convey("When fetching a team's score", func() {
			postJSON(mux, "/teams", map[string]string{"name": "Alpha"}, nil)
			w := get(mux, "/teams/t1/score")

			Convey("Then the full breakdown should be returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var score types.TeamScore
				So(json.Unmarshal(w.Body.Bytes(), &score), ShouldBeNil)
				So(score.TotalScore, ShouldEqual, 210.50)
				So(score.TotalDonations, ShouldEqual, 120.50)
				So(score.TotalShirtPoints, ShouldEqual, 40)
				So(score.TotalPhotoPoints, ShouldEqual, 50)
			})
		})

		Convey("When fetching a score for an unknown team", func() {
			w := get(mux, "/teams/nope/score")

			Convey("Then it should report not found", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}

func TestDonationEndpoints(t *testing.T) {
	if err := logger.Init(); err != nil {
		t.Fatalf("init logger: %v", err)
	}

	Convey("Given the API server with one team", t, func() {
		svc := newStubService()
		mux := newTestServer(svc)
		postJSON(mux, "/teams", map[string]string{"name": "Alpha"}, nil)

		Convey("When posting a valid donation", func() {
			w := postJSON(mux, "/donations", map[string]any{"teamId": "t1", "amount": 25.5}, nil)

			Convey("Then it should be recorded", func() {
				So(w.Code, ShouldEqual, http.StatusCreated)
			})
		})

		Convey("When posting a donation for an unknown team", func() {
			w := postJSON(mux, "/donations", map[string]any{"teamId": "nope", "amount": 10}, nil)

			Convey("Then it should report not found", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When posting a non-positive amount", func() {
			w := postJSON(mux, "/donations", map[string]any{"teamId": "t1", "amount": 0}, nil)

			Convey("Then it should be rejected", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When retrying with the same idempotency key", func() {
			headers := map[string]string{"Idempotency-Key": "abc-123"}
			first := postJSON(mux, "/donations", map[string]any{"teamId": "t1", "amount": 10}, headers)
			second := postJSON(mux, "/donations", map[string]any{"teamId": "t1", "amount": 10}, headers)

			Convey("Then only the first should record", func() {
				So(first.Code, ShouldEqual, http.StatusCreated)
				So(second.Code, ShouldEqual, http.StatusOK)
				So(second.Body.String(), ShouldContainSubstring, `"duplicate":true`)
				So(svc.donations, ShouldHaveLength, 1)
			})
		})

		Convey("When a keyed submission fails", func() {
			headers := map[string]string{"Idempotency-Key": "xyz-789"}
			failed := postJSON(mux, "/donations", map[string]any{"teamId": "nope", "amount": 10}, headers)

			Convey("Then the key should be released for retry", func() {
				So(failed.Code, ShouldEqual, http.StatusNotFound)
				retry := postJSON(mux, "/donations", map[string]any{"teamId": "t1", "amount": 10}, headers)
				So(retry.Code, ShouldEqual, http.StatusCreated)
			})
		})
	})
}

func TestPhotoEndpoints(t *testing.T) {
	if err := logger.Init(); err != nil {
		t.Fatalf("init logger: %v", err)
	}

	Convey("Given the API server with one team", t, func() {
		svc := newStubService()
		mux := newTestServer(svc)
		postJSON(mux, "/teams", map[string]string{"name": "Alpha"}, nil)

		Convey("When submitting a photo", func() {
			w := postJSON(mux, "/photos", map[string]string{"teamId": "t1", "url": "https://x/1.jpg"}, nil)

			Convey("Then it should be pending", func() {
				So(w.Code, ShouldEqual, http.StatusCreated)
				var photo model.Photo
				So(json.Unmarshal(w.Body.Bytes(), &photo), ShouldBeNil)
				So(photo.Approved, ShouldBeFalse)
			})
		})

		Convey("When moderating a submitted photo", func() {
			postJSON(mux, "/photos", map[string]string{"teamId": "t1", "url": "https://x/1.jpg"}, nil)

			Convey("And approving it", func() {
				w := postJSON(mux, "/photos/p1/approve", nil, nil)

				Convey("Then the photo should be approved", func() {
					So(w.Code, ShouldEqual, http.StatusOK)
					So(w.Body.String(), ShouldContainSubstring, `"approved":true`)
				})
			})

			Convey("And rejecting it", func() {
				w := postJSON(mux, "/photos/p1/reject", map[string]string{"reason": "blurry"}, nil)

				Convey("Then the photo should be removed", func() {
					So(w.Code, ShouldEqual, http.StatusOK)
					So(svc.photos, ShouldBeEmpty)
				})
			})

			Convey("And rejecting without a body", func() {
				req := httptest.NewRequest(http.MethodPost, "/photos/p1/reject", http.NoBody)
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, req)

				Convey("Then the reason should default to empty", func() {
					So(w.Code, ShouldEqual, http.StatusOK)
				})
			})
		})

		Convey("When filtering photos by status", func() {
			postJSON(mux, "/photos", map[string]string{"teamId": "t1", "url": "https://x/1.jpg"}, nil)
			postJSON(mux, "/photos/p1/approve", nil, nil)

			Convey("Then the approved filter should match", func() {
				w := get(mux, "/photos?status=approved")
				So(w.Code, ShouldEqual, http.StatusOK)
				var photos []model.Photo
				So(json.Unmarshal(w.Body.Bytes(), &photos), ShouldBeNil)
				So(photos, ShouldHaveLength, 1)
			})

			Convey("And the pending filter should be empty", func() {
				w := get(mux, "/photos?status=pending")
				var photos []model.Photo
				So(json.Unmarshal(w.Body.Bytes(), &photos), ShouldBeNil)
				So(photos, ShouldBeEmpty)
			})

			Convey("And an unknown status should be rejected", func() {
				w := get(mux, "/photos?status=weird")
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When rejecting an already-approved photo", func() {
			svc.rejectErr = fmt.Errorf("photo p1: %w", repository.ErrConflict)
			w := postJSON(mux, "/photos/p1/reject", map[string]string{"reason": "late"}, nil)

			Convey("Then it should report a conflict", func() {
				So(w.Code, ShouldEqual, http.StatusConflict)
			})
		})
	})
}

func TestLeaderboardEndpoint(t *testing.T) {
	if err := logger.Init(); err != nil {
		t.Fatalf("init logger: %v", err)
	}

	Convey("Given the API server", t, func() {
		svc := newStubService()
		mux := newTestServer(svc)

		Convey("When fetching the leaderboard", func() {
			svc.snapshot = []byte(`[{"id":"t1","rank":1,"totalScore":210.5}]`)
			w := get(mux, "/leaderboard")

			Convey("Then the serialized snapshot should be served as-is", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldEqual, `[{"id":"t1","rank":1,"totalScore":210.5}]`)
				So(w.Header().Get("Content-Type"), ShouldStartWith, "application/json")
			})
		})

		Convey("When the snapshot build fails", func() {
			svc.snapshotErr = fmt.Errorf("store unavailable")
			w := get(mux, "/leaderboard")

			Convey("Then it should report an internal error", func() {
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
			})
		})

		Convey("When using the wrong method", func() {
			w := postJSON(mux, "/leaderboard", nil, nil)

			Convey("Then it should not be found", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}

func TestStatsEndpoint(t *testing.T) {
	if err := logger.Init(); err != nil {
		t.Fatalf("init logger: %v", err)
	}

	Convey("Given the API server", t, func() {
		svc := newStubService()
		mux := newTestServer(svc)

		Convey("When fetching stats", func() {
			w := get(mux, "/stats")

			Convey("Then service statistics should be returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `"started":true`)
			})
		})
	})
}
