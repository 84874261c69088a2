package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"adOptimizer/business/account"
	"adOptimizer/pkg/logger"
	jsonres "adOptimizer/pkg/response"
)

// APIKeyAuthenticator resolves an API key to its account
type APIKeyAuthenticator interface {
	Authenticate(ctx context.Context, key string) (uint, error)
}

const (
	HeaderAPIKey       = "X-API-Key"
	HeaderLegacyAPIKey = "API_KEY"
)

// APIKeyMiddleware guards the optimization API. The account id is stored
// under "account_id".
func APIKeyMiddleware(auth APIKeyAuthenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := c.Request().Header.Get(HeaderAPIKey)
			if key == "" {
				key = c.Request().Header.Get(HeaderLegacyAPIKey)
			}
			if key == "" {
				return c.JSON(http.StatusUnauthorized, jsonres.Error(
					"UNAUTHORIZED", "Missing api key", nil,
				))
			}

			ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
			defer cancel()

			accountID, err := auth.Authenticate(ctx, key)
			if err != nil {
				if errors.Is(err, account.ErrInvalidKey) {
					return c.JSON(http.StatusUnauthorized, jsonres.Error(
						"UNAUTHORIZED", "Invalid api key", nil,
					))
				}
				logger.Error("Failed to authenticate api key", err)
				return c.JSON(http.StatusServiceUnavailable, jsonres.Error(
					"UNAVAILABLE", "Authentication unavailable", nil,
				))
			}

			c.Set("account_id", accountID)

			return next(c)
		}
	}
}
