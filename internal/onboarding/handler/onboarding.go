// Package handler exposes the onboarding wizard over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/leadhub/leadhub-backend/internal/onboarding/domain"
	"github.com/leadhub/leadhub-backend/pkg/errors"
	"github.com/leadhub/leadhub-backend/pkg/httputil"
	"github.com/leadhub/leadhub-backend/pkg/logger"
)

// OnboardingAPI is implemented by service.OnboardingService.
type OnboardingAPI interface {
	Get(ctx context.Context) (*domain.Draft, error)
	SaveStep(ctx context.Context, step int, payload json.RawMessage) (*domain.Draft, error)
	Previous(ctx context.Context) (*domain.Draft, error)
	Complete(ctx context.Context) (*domain.Result, error)
}

// OnboardingHandler handles onboarding endpoints
type OnboardingHandler struct {
	service OnboardingAPI
	logger  *logger.Logger
}

// NewOnboardingHandler creates a new onboarding handler
func NewOnboardingHandler(svc OnboardingAPI, log *logger.Logger) *OnboardingHandler {
	return &OnboardingHandler{service: svc, logger: log}
}

// Get returns the caller's draft
func (h *OnboardingHandler) Get(w http.ResponseWriter, r *http.Request) {
	d, err := h.service.Get(r.Context())
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, d)
}

// SaveStep stores one step; the body is the step's fields
func (h *OnboardingHandler) SaveStep(w http.ResponseWriter, r *http.Request) {
	step, err := strconv.Atoi(chi.URLParam(r, "step"))
	if err != nil {
		httputil.Error(w, r, errors.NotFound("onboarding step"))
		return
	}
	var payload json.RawMessage
	if err := httputil.DecodeJSON(r, &payload); err != nil {
		httputil.Error(w, r, err)
		return
	}

	d, err := h.service.SaveStep(r.Context(), step, payload)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, d)
}

// Previous moves back one step
func (h *OnboardingHandler) Previous(w http.ResponseWriter, r *http.Request) {
	d, err := h.service.Previous(r.Context())
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, d)
}

// Complete finishes onboarding
func (h *OnboardingHandler) Complete(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.Complete(r.Context())
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, res)
}
