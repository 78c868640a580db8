// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/okian/rally/internal/domain/model"
)

// DonationDependencies defines the interface for donation operations.
type DonationDependencies interface {
	SeenAndRecord(ctx context.Context, key string) bool
	Unrecord(ctx context.Context, key string)
	RecordDonation(ctx context.Context, in DonationInput) (model.Donation, error)
	ListDonations(ctx context.Context) ([]model.Donation, error)
}

// DonationsHandler handles donation requests.
type DonationsHandler struct {
	deps DonationDependencies
}

// NewDonationsHandler creates a new donations handler.
func NewDonationsHandler(deps DonationDependencies) *DonationsHandler {
	return &DonationsHandler{deps: deps}
}

// donationRequest mirrors the OpenAPI schema for POST /donations.
type donationRequest struct {
	TeamID   string  `json:"teamId"`
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
	UserID   string  `json:"userId"`
}

func (d donationRequest) validate() error {
	switch {
	case strings.TrimSpace(d.TeamID) == "":
		return errors.New("missing teamId")
	case d.Amount <= 0:
		return errors.New("amount must be positive")
	}
	return nil
}

// HandleDonations handles GET /donations and POST /donations requests.
func (h *DonationsHandler) HandleDonations(w http.ResponseWriter, r *http.Request) {
	const op = "api.donations"
	switch r.Method {
	case http.MethodGet:
		donations, err := h.deps.ListDonations(r.Context())
		if err != nil {
			writeDomainError(w, op, err)
			return
		}
		writeJSON(w, http.StatusOK, donations)
	case http.MethodPost:
		var req donationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", wrap(op, err))
			return
		}
		if err := req.validate(); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", wrap(op, err))
			return
		}

		// Idempotency check - mark as seen first
		key := idempotencyKey(r)
		if key != "" && h.deps.SeenAndRecord(r.Context(), key) {
			writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", Duplicate: true})
			return
		}

		donation, err := h.deps.RecordDonation(r.Context(), DonationInput{
			TeamID:   req.TeamID,
			Amount:   req.Amount,
			Currency: req.Currency,
			UserID:   req.UserID,
		})
		if err != nil {
			// Release the key so a retry can succeed
			if key != "" {
				h.deps.Unrecord(r.Context(), key)
			}
			writeDomainError(w, op, err)
			return
		}
		writeJSON(w, http.StatusCreated, donation)
	default:
		http.NotFound(w, r)
	}
}
