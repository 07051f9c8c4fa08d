package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"depremkit/internal/config"

	"github.com/stretchr/testify/assert"
)

func TestRequiredPermission(t *testing.T) {
	tests := []struct {
		method string
		target string
		want   string
	}{
		{http.MethodGet, "/healthz", ""},
		{http.MethodGet, "/api/v1/items", permReadItems},
		{http.MethodGet, "/api/v1/export.xlsx", permReadItems},
		{http.MethodPost, "/api/v1/items", permWriteItems},
		{http.MethodPatch, "/api/v1/items/3", permWriteItems},
		{http.MethodDelete, "/api/v1/items", permWriteItems},
		{http.MethodPost, "/api/v1/recommendations", permReadItems},
		{http.MethodPost, "/api/v1/recommendations?apply=true", permWriteItems},
		{http.MethodGet, "/api/v1/notifications", permNotify},
		{http.MethodPost, "/api/v1/notifications/check", permNotify},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(tt.method, tt.target, nil)
		assert.Equal(t, tt.want, requiredPermission(r), "%s %s", tt.method, tt.target)
	}
}

func TestCheckPermissions(t *testing.T) {
	reader := config.APIClientKey{Key: "k", Permissions: []string{" read:items "}}

	assert.NoError(t, checkPermissions(reader, ""))
	assert.NoError(t, checkPermissions(reader, permReadItems))
	assert.ErrorIs(t, checkPermissions(reader, permWriteItems), errPermissionDenied)
	assert.NoError(t, checkPermissions(config.APIClientKey{Key: "all"}, permNotify))
}

func TestClientKey(t *testing.T) {
	auth := NewHTTPAuth(config.APIConfig{})

	r := httptest.NewRequest(http.MethodGet, "/api/v1/items", nil)
	r.RemoteAddr = "10.0.0.7:5123"
	assert.Equal(t, "10.0.0.7", auth.clientKey(r))

	r.Header.Set("X-API-Key", "abc")
	assert.Equal(t, "abc", auth.clientKey(r))

	r = httptest.NewRequest(http.MethodGet, "/api/v1/items", nil)
	r.RemoteAddr = "garbage"
	assert.Equal(t, clientKeyUnknown, auth.clientKey(r))
}

func TestLookupAPIKey(t *testing.T) {
	auth := NewHTTPAuth(config.APIConfig{Auth: config.APIAuthConfig{
		APIKeys: []config.APIClientKey{{Key: "alpha", Name: "a"}, {Key: "beta", Name: "b"}},
	}})

	c, ok := auth.lookup("beta")
	assert.True(t, ok)
	assert.Equal(t, "b", c.Name)

	_, ok = auth.lookup("alph")
	assert.False(t, ok)
}

func TestRateLimiterDisabled(t *testing.T) {
	l := newRateLimiter(config.APIRateLimitConfig{})
	for i := 0; i < 100; i++ {
		assert.True(t, l.Allow("k"))
	}
}
