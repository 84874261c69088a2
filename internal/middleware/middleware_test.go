package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adOptimizer/business/account"
	"adOptimizer/business/optimizer"
	jsonres "adOptimizer/pkg/response"
	"adOptimizer/pkg/utils"
)

type fakeAuthenticator struct {
	keys map[string]uint
	err  error
}

func (f fakeAuthenticator) Authenticate(_ context.Context, key string) (uint, error) {
	if f.err != nil {
		return 0, f.err
	}
	id, ok := f.keys[key]
	if !ok {
		return 0, account.ErrInvalidKey
	}
	return id, nil
}

func serve(e *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) jsonres.ErrorBody {
	t.Helper()
	var body jsonres.ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestAPIKeyMiddleware(t *testing.T) {
	e := echo.New()
	auth := fakeAuthenticator{keys: map[string]uint{"abc.def": 7}}
	e.GET("/ads", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]uint{"account_id": c.Get("account_id").(uint)})
	}, APIKeyMiddleware(auth))

	req := httptest.NewRequest(http.MethodGet, "/ads", nil)
	rec := serve(e, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Missing api key", decodeError(t, rec).Message)

	req = httptest.NewRequest(http.MethodGet, "/ads", nil)
	req.Header.Set(HeaderAPIKey, "abc.wrong")
	rec = serve(e, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid api key", decodeError(t, rec).Message)

	req = httptest.NewRequest(http.MethodGet, "/ads", nil)
	req.Header.Set(HeaderAPIKey, "abc.def")
	rec = serve(e, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"account_id":7}`, rec.Body.String())

	// the header name used by older clients
	req = httptest.NewRequest(http.MethodGet, "/ads", nil)
	req.Header.Set(HeaderLegacyAPIKey, "abc.def")
	rec = serve(e, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAPIKeyMiddlewareBackendFailure(t *testing.T) {
	e := echo.New()
	e.GET("/ads", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}, APIKeyMiddleware(fakeAuthenticator{err: errors.New("db down")}))

	req := httptest.NewRequest(http.MethodGet, "/ads", nil)
	req.Header.Set(HeaderAPIKey, "abc.def")
	rec := serve(e, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAuthMiddlewareAndAdminOnly(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	e := echo.New()
	e.GET("/admin", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]any{"user_id": c.Get("user_id"), "role": c.Get("role")})
	}, AuthMiddleware(), AdminOnly())

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	assert.Equal(t, http.StatusUnauthorized, serve(e, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Token abc")
	rec := serve(e, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid authorization format", decodeError(t, rec).Message)

	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, serve(e, req).Code)

	analyst, err := utils.GenerateJWT("3", "analyst")
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+analyst)
	assert.Equal(t, http.StatusForbidden, serve(e, req).Code)

	admin, err := utils.GenerateJWT("1", "admin")
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+admin)
	rec = serve(e, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"user_id":1,"role":"admin"}`, rec.Body.String())
}

func TestTraceMiddleware(t *testing.T) {
	e := echo.New()
	e.Use(TraceMiddleware())
	e.GET("/ping", func(c echo.Context) error {
		return c.String(http.StatusOK, optimizer.TraceIDFromContext(c.Request().Context()))
	})

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/ping", nil))
	generated := rec.Header().Get(echo.HeaderXRequestID)
	assert.Len(t, generated, 36)
	assert.Equal(t, generated, rec.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(echo.HeaderXRequestID, "caller-id")
	rec = serve(e, req)
	assert.Equal(t, "caller-id", rec.Body.String())
}

func TestErrorHandler(t *testing.T) {
	e := echo.New()
	e.HTTPErrorHandler = ErrorHandler
	e.GET("/boom", func(c echo.Context) error {
		return errors.New("boom")
	})

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, "NOT_FOUND", body.Code)
	assert.False(t, body.Success)

	rec = serve(e, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal server error", decodeError(t, rec).Message)
}
