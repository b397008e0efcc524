package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/leadhub/leadhub-backend/internal/crm/domain"
	"github.com/leadhub/leadhub-backend/pkg/httputil"
	"github.com/leadhub/leadhub-backend/pkg/logger"
)

// LeadHandler handles lead endpoints
type LeadHandler struct {
	service LeadAPI
	logger  *logger.Logger
}

// NewLeadHandler creates a new lead handler
func NewLeadHandler(svc LeadAPI, log *logger.Logger) *LeadHandler {
	return &LeadHandler{service: svc, logger: log}
}

// List lists leads, newest first, optionally filtered by ?status=
func (h *LeadHandler) List(w http.ResponseWriter, r *http.Request) {
	page, perPage := httputil.Pagination(r)

	leads, total, err := h.service.List(r.Context(), domain.LeadFilter{
		Status:  r.URL.Query().Get("status"),
		Page:    page,
		PerPage: perPage,
	})
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.JSONWithMeta(w, http.StatusOK, leads, httputil.NewMeta(page, perPage, total))
}

func (h *LeadHandler) Get(w http.ResponseWriter, r *http.Request) {
	l, err := h.service.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, l)
}

func (h *LeadHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateLeadRequest
	if err := httputil.DecodeAndValidate(r, &req); err != nil {
		httputil.Error(w, r, err)
		return
	}
	l, err := h.service.Create(r.Context(), &req)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.Created(w, l)
}

func (h *LeadHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdateLeadRequest
	if err := httputil.DecodeAndValidate(r, &req); err != nil {
		httputil.Error(w, r, err)
		return
	}
	l, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), &req)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, l)
}

func (h *LeadHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.NoContent(w)
}
