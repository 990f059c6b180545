package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fieldline/comms-backend/internal/requestcache"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestCache_InstallsCache(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/inbox", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := RequestCache()(func(c echo.Context) error {
		cache, ok := requestcache.FromContext(c.Request().Context())
		require.True(t, ok)
		cache.Set("k", "v")
		return c.NoContent(http.StatusOK)
	})

	err := handler(c)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequestCache_NotSharedAcrossRequests(t *testing.T) {
	e := echo.New()
	mw := RequestCache()

	handler := mw(func(c echo.Context) error {
		cache, ok := requestcache.FromContext(c.Request().Context())
		require.True(t, ok)
		assert.Equal(t, 0, cache.Len())
		cache.Set("seen", true)
		return c.NoContent(http.StatusOK)
	})

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/inbox", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		require.NoError(t, handler(c))
	}
}
