package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/leadhub/leadhub-backend/internal/account/domain"
	"github.com/leadhub/leadhub-backend/pkg/httputil"
	"github.com/leadhub/leadhub-backend/pkg/logger"
)

// ProfileHandler handles profile endpoints
type ProfileHandler struct {
	service ProfileAPI
	logger  *logger.Logger
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(svc ProfileAPI, log *logger.Logger) *ProfileHandler {
	return &ProfileHandler{service: svc, logger: log}
}

// List lists the members of the caller's tenant
func (h *ProfileHandler) List(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.service.GetAll(r.Context())
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	if profiles == nil {
		profiles = []domain.Profile{}
	}
	httputil.JSONWithMeta(w, http.StatusOK, profiles, &httputil.Meta{Total: int64(len(profiles))})
}

// Me returns the caller's profile
func (h *ProfileHandler) Me(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.GetCurrent(r.Context())
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, p)
}

// Owner reports whether the caller owns their tenant
func (h *ProfileHandler) Owner(w http.ResponseWriter, r *http.Request) {
	st, err := h.service.IsOwner(r.Context())
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, st)
}

// Get returns a member by id
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, p)
}

// Update patches personal fields of a profile
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdateProfileRequest
	if err := httputil.DecodeAndValidate(r, &req); err != nil {
		httputil.Error(w, r, err)
		return
	}

	p, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), &req)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, p)
}

// ChangeRole assigns a new role
func (h *ProfileHandler) ChangeRole(w http.ResponseWriter, r *http.Request) {
	var req domain.ChangeRoleRequest
	if err := httputil.DecodeAndValidate(r, &req); err != nil {
		httputil.Error(w, r, err)
		return
	}

	p, err := h.service.ChangeRole(r.Context(), chi.URLParam(r, "id"), &req)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, p)
}

// Remove deletes a member from the tenant
func (h *ProfileHandler) Remove(w http.ResponseWriter, r *http.Request) {
	if err := h.service.RemoveMember(r.Context(), chi.URLParam(r, "id")); err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.NoContent(w)
}
