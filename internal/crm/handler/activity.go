package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/leadhub/leadhub-backend/internal/crm/domain"
	"github.com/leadhub/leadhub-backend/pkg/httputil"
	"github.com/leadhub/leadhub-backend/pkg/logger"
)

// ActivityHandler handles activity endpoints
type ActivityHandler struct {
	service ActivityAPI
	logger  *logger.Logger
}

// NewActivityHandler creates a new activity handler
func NewActivityHandler(svc ActivityAPI, log *logger.Logger) *ActivityHandler {
	return &ActivityHandler{service: svc, logger: log}
}

// List lists activities, for one record when ?related_to=&related_type= are given
func (h *ActivityHandler) List(w http.ResponseWriter, r *http.Request) {
	page, perPage := httputil.Pagination(r)
	q := r.URL.Query()

	activities, total, err := h.service.List(r.Context(), domain.ActivityFilter{
		RelatedTo:   q.Get("related_to"),
		RelatedType: q.Get("related_type"),
		Page:        page,
		PerPage:     perPage,
	})
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.JSONWithMeta(w, http.StatusOK, activities, httputil.NewMeta(page, perPage, total))
}

func (h *ActivityHandler) Get(w http.ResponseWriter, r *http.Request) {
	a, err := h.service.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, a)
}

func (h *ActivityHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateActivityRequest
	if err := httputil.DecodeAndValidate(r, &req); err != nil {
		httputil.Error(w, r, err)
		return
	}
	a, err := h.service.Create(r.Context(), &req)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.Created(w, a)
}

func (h *ActivityHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdateActivityRequest
	if err := httputil.DecodeAndValidate(r, &req); err != nil {
		httputil.Error(w, r, err)
		return
	}
	a, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), &req)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, a)
}

// Complete marks an activity done
func (h *ActivityHandler) Complete(w http.ResponseWriter, r *http.Request) {
	a, err := h.service.Complete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, a)
}

func (h *ActivityHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.NoContent(w)
}
