package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/leadhub/leadhub-backend/pkg/actor"
	"github.com/leadhub/leadhub-backend/pkg/httputil"
	"github.com/leadhub/leadhub-backend/pkg/permissions"
	"github.com/leadhub/leadhub-backend/pkg/tenant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// NewHTTPRequest creates a new HTTP request for testing handlers
func NewHTTPRequest(method, path string, body interface{}) *http.Request {
	var bodyReader io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			bodyReader = bytes.NewBufferString(b)
		default:
			jsonBody, _ := json.Marshal(body)
			bodyReader = bytes.NewBuffer(jsonBody)
		}
	}

	req := httptest.NewRequest(method, path, bodyReader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

// NewActor returns an authenticated caller with the permissions of role.
func NewActor(id, tenantID, role string) *actor.Actor {
	return &actor.Actor{
		ID:          id,
		Email:       id + "@example.com",
		TenantID:    tenantID,
		Role:        role,
		Permissions: permissions.ForRole(role),
	}
}

// ContextWithActor puts a into ctx the same way the auth middleware does.
func ContextWithActor(ctx context.Context, a *actor.Actor) context.Context {
	ctx = actor.WithActor(ctx, a)
	ctx = tenant.WithTenantID(ctx, a.TenantID)
	return httputil.WithUserID(ctx, a.ID)
}

// WithActor returns req carrying a as the authenticated caller.
func WithActor(req *http.Request, a *actor.Actor) *http.Request {
	return req.WithContext(ContextWithActor(req.Context(), a))
}

// ExecuteRequest executes an HTTP request and returns the response recorder
func ExecuteRequest(handler http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

// AssertStatus asserts the response status code
func AssertStatus(t *testing.T, rr *httptest.ResponseRecorder, expected int) {
	t.Helper()
	assert.Equal(t, expected, rr.Code, "unexpected status code. Body: %s", rr.Body.String())
}

// DecodeEnvelope parses the standard response envelope; data is decoded into v when non-nil.
func DecodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) httputil.Response {
	t.Helper()
	var raw struct {
		httputil.Response
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &raw), "body: %s", rr.Body.String())
	if v != nil && len(raw.Data) > 0 {
		require.NoError(t, json.Unmarshal(raw.Data, v))
	}
	return raw.Response
}

// AssertErrorCode asserts the envelope carries the given error code.
func AssertErrorCode(t *testing.T, rr *httptest.ResponseRecorder, code string) {
	t.Helper()
	resp := DecodeEnvelope(t, rr, nil)
	require.NotNil(t, resp.Error, "expected an error body, got %s", rr.Body.String())
	assert.Equal(t, code, resp.Error.Code)
}

// DefaultTestContext creates a context with a 30-second timeout
func DefaultTestContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// SkipIfShort skips the test if running with -short flag
func SkipIfShort(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
