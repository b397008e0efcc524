package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/leadhub/leadhub-backend/internal/crm/domain"
	"github.com/leadhub/leadhub-backend/pkg/httputil"
	"github.com/leadhub/leadhub-backend/pkg/logger"
)

// ContactHandler handles contact endpoints
type ContactHandler struct {
	service ContactAPI
	logger  *logger.Logger
}

// NewContactHandler creates a new contact handler
func NewContactHandler(svc ContactAPI, log *logger.Logger) *ContactHandler {
	return &ContactHandler{service: svc, logger: log}
}

// List lists contacts, optionally filtered by ?q= and ?status=
func (h *ContactHandler) List(w http.ResponseWriter, r *http.Request) {
	page, perPage := httputil.Pagination(r)
	q := r.URL.Query()

	contacts, total, err := h.service.List(r.Context(), domain.ContactFilter{
		Query:   q.Get("q"),
		Status:  q.Get("status"),
		Page:    page,
		PerPage: perPage,
	})
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.JSONWithMeta(w, http.StatusOK, contacts, httputil.NewMeta(page, perPage, total))
}

func (h *ContactHandler) Get(w http.ResponseWriter, r *http.Request) {
	c, err := h.service.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, c)
}

func (h *ContactHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateContactRequest
	if err := httputil.DecodeAndValidate(r, &req); err != nil {
		httputil.Error(w, r, err)
		return
	}
	c, err := h.service.Create(r.Context(), &req)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.Created(w, c)
}

func (h *ContactHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdateContactRequest
	if err := httputil.DecodeAndValidate(r, &req); err != nil {
		httputil.Error(w, r, err)
		return
	}
	c, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), &req)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, c)
}

func (h *ContactHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.NoContent(w)
}
