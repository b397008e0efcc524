package errors

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"testing"

	"github.com/leadhub/leadhub-backend/pkg/i18n"
	"github.com/stretchr/testify/assert"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name   string
		err    *AppError
		code   string
		status int
	}{
		{"not found", NotFound("lead"), CodeNotFound, http.StatusNotFound},
		{"profile not found", ProfileNotFound(), CodeProfileNotFound, http.StatusNotFound},
		{"tenant not found", TenantNotFound(), CodeTenantNotFound, http.StatusNotFound},
		{"forbidden", Forbidden(""), CodeForbidden, http.StatusForbidden},
		{"already member", AlreadyMember("b@x.com"), CodeAlreadyMember, http.StatusConflict},
		{"invalid credentials", InvalidCredentials(), CodeInvalidCredentials, http.StatusUnauthorized},
		{"payload too large", PayloadTooLarge("5 MiB"), CodePayloadTooLarge, http.StatusRequestEntityTooLarge},
		{"unsupported media", UnsupportedMediaType(), CodeUnsupportedMedia, http.StatusUnsupportedMediaType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.status, tt.err.StatusCode)
			assert.NotEmpty(t, tt.err.Message)
		})
	}
}

func TestNotFoundVariantsShareSentinel(t *testing.T) {
	assert.True(t, IsNotFound(NotFound("contact")))
	assert.True(t, IsNotFound(ProfileNotFound()))
	assert.True(t, IsNotFound(fmt.Errorf("wrapped: %w", TenantNotFound())))
	assert.False(t, IsNotFound(Forbidden("")))
}

func TestLocalize(t *testing.T) {
	err := AlreadyMember("b@x.com")
	assert.Equal(t, "b@x.com is already a member of this organization", err.Message)

	ctx := i18n.WithLocale(context.Background(), i18n.LocaleGerman)
	assert.Contains(t, err.Localize(ctx), "b@x.com")
	assert.NotEqual(t, err.Message, err.Localize(ctx))

	plain := BadRequest("raw message")
	assert.Equal(t, "raw message", plain.Localize(ctx))
}

func TestWithMessageKey(t *testing.T) {
	err := Forbidden("").WithMessageKey("errors.owner_only", nil)
	assert.Equal(t, "only the organization owner can do this", err.Message)
	assert.Equal(t, CodeForbidden, err.Code)
}

func TestInternalWrapHidesCause(t *testing.T) {
	err := InternalWrap(sql.ErrConnDone, "database operation failed")
	assert.ErrorIs(t, err, ErrInternal)
	assert.Equal(t, CodeInternal, CodeOf(err))
	assert.Equal(t, CodeInternal, CodeOf(fmt.Errorf("plain")))
}
