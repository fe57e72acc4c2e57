package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/dzeya/mensor-construction-4/internal/models"
	"github.com/dzeya/mensor-construction-4/internal/services"
)

type leadCreator interface {
	Create(ctx context.Context, req models.CreateLeadRequest) (*models.Lead, error)
}

type LeadHandler struct {
	leads leadCreator
}

// NewLeadHandler serves the contact form. A nil service answers every
// request with 503.
func NewLeadHandler(leads leadCreator) *LeadHandler {
	return &LeadHandler{leads: leads}
}

func (h *LeadHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h.leads == nil {
		handleServiceError(w, r, &services.NotConfiguredError{Setting: "Lead capture"})
		return
	}

	var req models.CreateLeadRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("Invalid request body"))
		return
	}

	lead, err := h.leads.Create(r.Context(), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, models.CreateLeadResponse{ID: lead.ID})
}
