package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

const testAPIKey = "test-api-key"

// invokeAuth runs the auth middleware for a single request
func invokeAuth(t *testing.T, apiKey, method, path, authHeader string) (*httptest.ResponseRecorder, error) {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(method, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath(path)

	handler := APIKeyAuth(apiKey, nil)(func(c echo.Context) error {
		return c.String(http.StatusOK, "success")
	})

	return rec, handler(c)
}

func TestAPIKeyAuth_MissingHeader(t *testing.T) {
	_, err := invokeAuth(t, testAPIKey, http.MethodGet, "/api/test", "")

	assert.Error(t, err)
	httpErr, ok := err.(*echo.HTTPError)
	assert.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
}

func TestAPIKeyAuth_InvalidKey(t *testing.T) {
	_, err := invokeAuth(t, testAPIKey, http.MethodGet, "/api/test", "Bearer wrong-key")

	assert.Error(t, err)
	httpErr, ok := err.(*echo.HTTPError)
	assert.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
}

func TestAPIKeyAuth_ValidKey(t *testing.T) {
	rec, err := invokeAuth(t, testAPIKey, http.MethodGet, "/api/test", "Bearer "+testAPIKey)

	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAPIKeyAuth_ValidKeyWithPadding(t *testing.T) {
	rec, err := invokeAuth(t, testAPIKey, http.MethodGet, "/api/test", "Bearer  "+testAPIKey+" ")

	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAPIKeyAuth_SkipsExemptPaths(t *testing.T) {
	paths := []string{
		"/health",
		"/ready",
		"/metrics",
		"/webhooks/telnyx/:company_id",
	}

	for _, path := range paths {
		t.Run(path, func(t *testing.T) {
			rec, err := invokeAuth(t, testAPIKey, http.MethodGet, path, "")

			assert.NoError(t, err)
			assert.Equal(t, http.StatusOK, rec.Code)
		})
	}
}

func TestAPIKeyAuth_NoKeyConfiguredDisablesAuth(t *testing.T) {
	rec, err := invokeAuth(t, "", http.MethodGet, "/api/test", "")

	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
}
