package handler

import (
	"net/http"

	"github.com/leadhub/leadhub-backend/internal/account/domain"
	"github.com/leadhub/leadhub-backend/pkg/httputil"
	"github.com/leadhub/leadhub-backend/pkg/logger"
)

// TenantHandler handles tenant endpoints
type TenantHandler struct {
	service TenantAPI
	logger  *logger.Logger
}

// NewTenantHandler creates a new tenant handler
func NewTenantHandler(svc TenantAPI, log *logger.Logger) *TenantHandler {
	return &TenantHandler{service: svc, logger: log}
}

// Get returns the caller's tenant
func (h *TenantHandler) Get(w http.ResponseWriter, r *http.Request) {
	t, err := h.service.GetCurrent(r.Context())
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, t)
}

// Update patches the caller's tenant
func (h *TenantHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdateTenantRequest
	if err := httputil.DecodeAndValidate(r, &req); err != nil {
		httputil.Error(w, r, err)
		return
	}

	current, err := h.service.GetCurrent(r.Context())
	if err != nil {
		httputil.Error(w, r, err)
		return
	}

	t, err := h.service.Update(r.Context(), current.ID, &req)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, t)
}
