package middleware

import (
	"github.com/fieldline/comms-backend/internal/requestcache"
	"github.com/labstack/echo/v4"
)

// RequestCache installs a fresh memoization cache into each request's
// context. Handlers that resolve the same inbox request more than once
// within a single HTTP request share the cached result; the cache dies
// with the request.
func RequestCache() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			ctx := requestcache.NewContext(req.Context(), requestcache.New())
			c.SetRequest(req.WithContext(ctx))
			return next(c)
		}
	}
}
