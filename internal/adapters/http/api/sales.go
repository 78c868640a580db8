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

// SaleDependencies defines the interface for shirt sale operations.
type SaleDependencies interface {
	SeenAndRecord(ctx context.Context, key string) bool
	Unrecord(ctx context.Context, key string)
	RecordSale(ctx context.Context, in SaleInput) (model.ShirtSale, error)
	ListSales(ctx context.Context) ([]model.ShirtSale, error)
}

// SalesHandler handles shirt sale requests.
type SalesHandler struct {
	deps SaleDependencies
}

// NewSalesHandler creates a new sales handler.
func NewSalesHandler(deps SaleDependencies) *SalesHandler {
	return &SalesHandler{deps: deps}
}

// saleRequest mirrors the OpenAPI schema for POST /sales.
type saleRequest struct {
	TeamID   string `json:"teamId"`
	Quantity int    `json:"quantity"`
}

func (s saleRequest) validate() error {
	switch {
	case strings.TrimSpace(s.TeamID) == "":
		return errors.New("missing teamId")
	case s.Quantity < 1:
		return errors.New("quantity must be at least 1")
	}
	return nil
}

// HandleSales handles GET /sales and POST /sales requests.
func (h *SalesHandler) HandleSales(w http.ResponseWriter, r *http.Request) {
	const op = "api.sales"
	switch r.Method {
	case http.MethodGet:
		sales, err := h.deps.ListSales(r.Context())
		if err != nil {
			writeDomainError(w, op, err)
			return
		}
		writeJSON(w, http.StatusOK, sales)
	case http.MethodPost:
		var req saleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", wrap(op, err))
			return
		}
		if err := req.validate(); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", wrap(op, err))
			return
		}

		key := idempotencyKey(r)
		if key != "" && h.deps.SeenAndRecord(r.Context(), key) {
			writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", Duplicate: true})
			return
		}

		sale, err := h.deps.RecordSale(r.Context(), SaleInput{
			TeamID:   req.TeamID,
			Quantity: req.Quantity,
		})
		if err != nil {
			if key != "" {
				h.deps.Unrecord(r.Context(), key)
			}
			writeDomainError(w, op, err)
			return
		}
		writeJSON(w, http.StatusCreated, sale)
	default:
		http.NotFound(w, r)
	}
}
