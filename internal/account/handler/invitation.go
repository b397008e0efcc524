package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/leadhub/leadhub-backend/internal/account/domain"
	"github.com/leadhub/leadhub-backend/pkg/httputil"
	"github.com/leadhub/leadhub-backend/pkg/logger"
)

// InvitationHandler handles invitation endpoints
type InvitationHandler struct {
	service InvitationAPI
	logger  *logger.Logger
}

// NewInvitationHandler creates a new invitation handler
func NewInvitationHandler(svc InvitationAPI, log *logger.Logger) *InvitationHandler {
	return &InvitationHandler{service: svc, logger: log}
}

// Create invites a new member
func (h *InvitationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateInvitationRequest
	if err := httputil.DecodeAndValidate(r, &req); err != nil {
		httputil.Error(w, r, err)
		return
	}

	res, err := h.service.Invite(r.Context(), &req)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.Created(w, res)
}

// List lists invitations, optionally filtered by ?status=
func (h *InvitationHandler) List(w http.ResponseWriter, r *http.Request) {
	status := domain.InvitationStatus(r.URL.Query().Get("status"))

	invitations, err := h.service.List(r.Context(), status)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	if invitations == nil {
		invitations = []domain.Invitation{}
	}
	httputil.JSONWithMeta(w, http.StatusOK, invitations, &httputil.Meta{Total: int64(len(invitations))})
}

// Revoke revokes a pending invitation
func (h *InvitationHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	inv, err := h.service.Revoke(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, inv)
}

// Resend issues a fresh link
func (h *InvitationHandler) Resend(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.Resend(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, res)
}

// GetByToken returns the public invitation view (no auth)
func (h *InvitationHandler) GetByToken(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.GetByToken(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, view)
}

// Accept accepts an invitation and creates the account (no auth)
func (h *InvitationHandler) Accept(w http.ResponseWriter, r *http.Request) {
	var req domain.AcceptInvitationRequest
	if err := httputil.DecodeAndValidate(r, &req); err != nil {
		httputil.Error(w, r, err)
		return
	}

	res, err := h.service.Accept(r.Context(), chi.URLParam(r, "token"), &req)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.Created(w, res)
}
