package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"adOptimizer/business/optimizer"
)

// TraceMiddleware tags every request with a trace id, reusing the caller's
// X-Request-ID when present.
func TraceMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			traceID := c.Request().Header.Get(echo.HeaderXRequestID)
			if traceID == "" {
				traceID = uuid.NewString()
			}

			c.Response().Header().Set(echo.HeaderXRequestID, traceID)
			ctx := optimizer.WithTraceID(c.Request().Context(), traceID)
			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	}
}
