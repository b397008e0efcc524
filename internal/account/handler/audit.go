package handler

import (
	"net/http"

	"github.com/leadhub/leadhub-backend/internal/account/domain"
	"github.com/leadhub/leadhub-backend/pkg/httputil"
	"github.com/leadhub/leadhub-backend/pkg/logger"
)

// AuditHandler handles audit log endpoints
type AuditHandler struct {
	service AuditAPI
	logger  *logger.Logger
}

// NewAuditHandler creates a new audit handler
func NewAuditHandler(svc AuditAPI, log *logger.Logger) *AuditHandler {
	return &AuditHandler{service: svc, logger: log}
}

// List lists audit logs
func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	page, perPage := httputil.Pagination(r)
	q := r.URL.Query()

	logs, total, err := h.service.List(r.Context(), domain.AuditFilter{
		Action:       q.Get("action"),
		ResourceType: q.Get("resource_type"),
		ResourceID:   q.Get("resource_id"),
		Page:         page,
		PerPage:      perPage,
	})
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	if logs == nil {
		logs = []domain.AuditLog{}
	}
	httputil.JSONWithMeta(w, http.StatusOK, logs, httputil.NewMeta(page, perPage, total))
}
