package handler

import (
	"net/http"

	"github.com/leadhub/leadhub-backend/internal/crm/domain"
	"github.com/leadhub/leadhub-backend/pkg/httputil"
	"github.com/leadhub/leadhub-backend/pkg/logger"
)

// SettingsHandler handles the tenant settings and dashboard endpoints
type SettingsHandler struct {
	settings  SettingsAPI
	dashboard DashboardAPI
	logger    *logger.Logger
}

// NewSettingsHandler creates a new settings handler
func NewSettingsHandler(settings SettingsAPI, dashboard DashboardAPI, log *logger.Logger) *SettingsHandler {
	return &SettingsHandler{settings: settings, dashboard: dashboard, logger: log}
}

func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, err := h.settings.Get(r.Context())
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, s)
}

func (h *SettingsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in domain.SettingsInput
	if err := httputil.DecodeAndValidate(r, &in); err != nil {
		httputil.Error(w, r, err)
		return
	}
	s, err := h.settings.Create(r.Context(), &in)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.Created(w, s)
}

func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in domain.SettingsInput
	if err := httputil.DecodeAndValidate(r, &in); err != nil {
		httputil.Error(w, r, err)
		return
	}
	s, err := h.settings.Update(r.Context(), &in)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, s)
}

// Stats returns the dashboard numbers
func (h *SettingsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.dashboard.Stats(r.Context())
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, stats)
}
