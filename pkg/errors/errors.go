package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/leadhub/leadhub-backend/pkg/i18n"
)

// Standard error types
var (
	ErrNotFound           = errors.New("resource not found")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrBadRequest         = errors.New("bad request")
	ErrConflict           = errors.New("resource conflict")
	ErrInternal           = errors.New("internal server error")
	ErrValidation         = errors.New("validation error")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInvalid       = errors.New("invalid token")
)

// Error codes returned to clients.
const (
	CodeNotFound           = "NOT_FOUND"
	CodeProfileNotFound    = "PROFILE_NOT_FOUND"
	CodeTenantNotFound     = "TENANT_NOT_FOUND"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeForbidden          = "FORBIDDEN"
	CodeBadRequest         = "BAD_REQUEST"
	CodeConflict           = "CONFLICT"
	CodeAlreadyMember      = "ALREADY_MEMBER"
	CodeInternal           = "INTERNAL_ERROR"
	CodeValidation         = "VALIDATION_ERROR"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeTokenExpired       = "TOKEN_EXPIRED"
	CodeTokenInvalid       = "TOKEN_INVALID"
	CodePayloadTooLarge    = "PAYLOAD_TOO_LARGE"
	CodeUnsupportedMedia   = "UNSUPPORTED_MEDIA_TYPE"
)

// AppError represents an application error with context
type AppError struct {
	Err        error             `json:"-"`
	Message    string            `json:"message"`
	MessageKey string            `json:"-"`
	Params     map[string]string `json:"-"`
	Code       string            `json:"code"`
	StatusCode int               `json:"status_code"`
	Details    map[string]string `json:"details,omitempty"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Localize returns the message in the locale carried by ctx.
func (e *AppError) Localize(ctx context.Context) string {
	if e.MessageKey == "" {
		return e.Message
	}
	return i18n.TFromContext(ctx, e.MessageKey, e.Params)
}

// New creates a new AppError
func New(code string, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

// Wrap wraps err with an application code. The wrapped error is logged, never returned to clients.
func Wrap(err error, code string, message string, statusCode int) *AppError {
	return &AppError{
		Err:        err,
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

// WithMessageKey replaces the message with a localized catalog entry.
func (e *AppError) WithMessageKey(key string, params map[string]string) *AppError {
	e.MessageKey = key
	e.Params = params
	e.Message = i18n.T(key, params)
	return e
}

func keyed(sentinel error, code, key string, status int, params map[string]string) *AppError {
	return &AppError{
		Err:        sentinel,
		Code:       code,
		Message:    i18n.T(key, params),
		MessageKey: key,
		Params:     params,
		StatusCode: status,
	}
}

func NotFound(resource string) *AppError {
	return keyed(ErrNotFound, CodeNotFound, "errors.not_found", http.StatusNotFound,
		map[string]string{"resource": resource})
}

// ProfileNotFound is returned when an authenticated identity has no profile row.
func ProfileNotFound() *AppError {
	return keyed(ErrNotFound, CodeProfileNotFound, "errors.profile_not_found", http.StatusNotFound, nil)
}

// TenantNotFound is returned when a profile points at a tenant that does not exist.
func TenantNotFound() *AppError {
	return keyed(ErrNotFound, CodeTenantNotFound, "errors.tenant_not_found", http.StatusNotFound, nil)
}

func Unauthorized(message string) *AppError {
	e := keyed(ErrUnauthorized, CodeUnauthorized, "errors.unauthorized", http.StatusUnauthorized, nil)
	if message != "" {
		e.Message = message
	}
	return e
}

func Forbidden(message string) *AppError {
	e := keyed(ErrForbidden, CodeForbidden, "errors.forbidden", http.StatusForbidden, nil)
	if message != "" {
		e.Message = message
	}
	return e
}

func BadRequest(message string) *AppError {
	return &AppError{
		Err:        ErrBadRequest,
		Code:       CodeBadRequest,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func Conflict(message string) *AppError {
	return &AppError{
		Err:        ErrConflict,
		Code:       CodeConflict,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

// AlreadyMember is returned when inviting an email that already belongs to the tenant.
func AlreadyMember(email string) *AppError {
	return keyed(ErrConflict, CodeAlreadyMember, "errors.already_member", http.StatusConflict,
		map[string]string{"email": email})
}

func Internal(message string) *AppError {
	return &AppError{
		Err:        ErrInternal,
		Code:       CodeInternal,
		Message:    message,
		MessageKey: "errors.internal",
		StatusCode: http.StatusInternalServerError,
	}
}

// InternalWrap keeps the underlying cause for logs while the client sees a generic message.
func InternalWrap(err error, message string) *AppError {
	return &AppError{
		Err:        fmt.Errorf("%w: %v", ErrInternal, err),
		Code:       CodeInternal,
		Message:    message,
		MessageKey: "errors.internal",
		StatusCode: http.StatusInternalServerError,
	}
}

func Validation(details map[string]string) *AppError {
	e := keyed(ErrValidation, CodeValidation, "errors.validation_failed", http.StatusBadRequest, nil)
	e.Details = details
	return e
}

func InvalidCredentials() *AppError {
	return keyed(ErrInvalidCredentials, CodeInvalidCredentials, "errors.invalid_credentials", http.StatusUnauthorized, nil)
}

func TokenExpired() *AppError {
	return keyed(ErrTokenExpired, CodeTokenExpired, "errors.token_expired", http.StatusUnauthorized, nil)
}

func TokenInvalid() *AppError {
	return keyed(ErrTokenInvalid, CodeTokenInvalid, "errors.token_invalid", http.StatusUnauthorized, nil)
}

func PayloadTooLarge(limit string) *AppError {
	return keyed(ErrBadRequest, CodePayloadTooLarge, "errors.payload_too_large", http.StatusRequestEntityTooLarge,
		map[string]string{"limit": limit})
}

// UnsupportedMediaType is returned for uploads of a disallowed content type.
func UnsupportedMediaType() *AppError {
	return keyed(ErrBadRequest, CodeUnsupportedMedia, "errors.unsupported_media_type", http.StatusUnsupportedMediaType, nil)
}

// CodeOf returns the application code carried by err, or INTERNAL_ERROR.
func CodeOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}

// IsNotFound reports whether err is any of the not-found variants.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// Is checks if the error matches a target error
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As attempts to convert an error to a specific type
func As(err error, target any) bool {
	return errors.As(err, target)
}
