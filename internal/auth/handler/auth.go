// Package handler exposes authentication over HTTP.
package handler

import (
	"context"
	"net/http"

	"github.com/leadhub/leadhub-backend/internal/auth/jwt"
	"github.com/leadhub/leadhub-backend/internal/auth/service"
	"github.com/leadhub/leadhub-backend/pkg/httputil"
	"github.com/leadhub/leadhub-backend/pkg/i18n"
	"github.com/leadhub/leadhub-backend/pkg/logger"
)

// AuthAPI is implemented by service.AuthService.
type AuthAPI interface {
	SignUp(ctx context.Context, req *service.SignUpRequest, client service.ClientInfo) (*service.AuthResponse, error)
	SignIn(ctx context.Context, req *service.SignInRequest, client service.ClientInfo) (*service.AuthResponse, error)
	SignOut(ctx context.Context, refreshToken string) error
	CurrentUser(ctx context.Context) (*service.AuthResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*jwt.TokenPair, error)
	RequestPasswordReset(ctx context.Context, req *service.ForgotPasswordRequest) error
	ResetPassword(ctx context.Context, req *service.ResetPasswordRequest) error
	UpdatePassword(ctx context.Context, req *service.UpdatePasswordRequest) error
}

// MessageResponse carries a human readable confirmation
type MessageResponse struct {
	Message string `json:"message"`
}

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	service AuthAPI
	logger  *logger.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(svc AuthAPI, log *logger.Logger) *AuthHandler {
	return &AuthHandler{
		service: svc,
		logger:  log,
	}
}

func clientInfo(r *http.Request) service.ClientInfo {
	return service.ClientInfo{
		UserAgent: r.UserAgent(),
		IPAddress: httputil.ClientIP(r),
	}
}

// SignUp registers a new account and its organization
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req service.SignUpRequest
	if err := httputil.DecodeAndValidate(r, &req); err != nil {
		httputil.Error(w, r, err)
		return
	}

	resp, err := h.service.SignUp(r.Context(), &req, clientInfo(r))
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.Created(w, resp)
}

// SignIn handles user login
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req service.SignInRequest
	if err := httputil.DecodeAndValidate(r, &req); err != nil {
		httputil.Error(w, r, err)
		return
	}

	resp, err := h.service.SignIn(r.Context(), &req, clientInfo(r))
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, resp)
}

// SignOut revokes the session of the given refresh token. An empty body
// still succeeds; the access token simply runs out.
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	var req service.RefreshRequest
	if r.ContentLength != 0 {
		if err := httputil.DecodeJSON(r, &req); err != nil {
			httputil.Error(w, r, err)
			return
		}
	}

	if err := h.service.SignOut(r.Context(), req.RefreshToken); err != nil {
		h.logger.Warn().Err(err).Msg("sign out error")
	}
	httputil.NoContent(w)
}

// Me returns the current user's information
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.CurrentUser(r.Context())
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, resp)
}

// Refresh handles token refresh
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req service.RefreshRequest
	if err := httputil.DecodeAndValidate(r, &req); err != nil {
		httputil.Error(w, r, err)
		return
	}

	tokens, err := h.service.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, tokens)
}

// ForgotPassword starts a password reset. The answer does not reveal whether
// the email is registered.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req service.ForgotPasswordRequest
	if err := httputil.DecodeAndValidate(r, &req); err != nil {
		httputil.Error(w, r, err)
		return
	}

	if err := h.service.RequestPasswordReset(r.Context(), &req); err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusAccepted, MessageResponse{
		Message: i18n.TFromContext(r.Context(), "messages.password_reset_requested"),
	})
}

// ResetPassword redeems a reset token
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req service.ResetPasswordRequest
	if err := httputil.DecodeAndValidate(r, &req); err != nil {
		httputil.Error(w, r, err)
		return
	}

	if err := h.service.ResetPassword(r.Context(), &req); err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, MessageResponse{
		Message: i18n.TFromContext(r.Context(), "messages.password_updated"),
	})
}

// UpdatePassword changes the signed-in user's password
func (h *AuthHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	var req service.UpdatePasswordRequest
	if err := httputil.DecodeAndValidate(r, &req); err != nil {
		httputil.Error(w, r, err)
		return
	}

	if err := h.service.UpdatePassword(r.Context(), &req); err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, MessageResponse{
		Message: i18n.TFromContext(r.Context(), "messages.password_updated"),
	})
}
