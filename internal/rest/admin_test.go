package rest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adOptimizer/business/bandit"
	"adOptimizer/business/optimizer"
	"adOptimizer/domain"
)

type fakeSettings struct {
	view      domain.OptimizerConfig
	saved     domain.OptimizerConfig
	savedFor  uint
	runs      []domain.OptimizationRun
	runsLimit int
	err       error
}

func (f *fakeSettings) SettingsView(_ context.Context, accountID uint) (domain.OptimizerConfig, error) {
	f.view.AccountID = accountID
	return f.view, f.err
}

func (f *fakeSettings) UpdateSettings(_ context.Context, accountID uint, cfg domain.OptimizerConfig) (domain.OptimizerConfig, error) {
	if f.err != nil {
		return domain.OptimizerConfig{}, f.err
	}
	f.savedFor, f.saved = accountID, cfg
	cfg.AccountID = accountID
	return cfg, nil
}

func (f *fakeSettings) Runs(_ context.Context, _ uint, limit int) ([]domain.OptimizationRun, error) {
	f.runsLimit = limit
	return f.runs, f.err
}

type fakeKeys struct {
	name string
	err  error
}

func (f *fakeKeys) IssueKey(_ context.Context, name string) (string, domain.APIUser, error) {
	f.name = name
	if f.err != nil {
		return "", domain.APIUser{}, f.err
	}
	return "abcdef123456.secret", domain.APIUser{ID: 4, Name: name, KeyPrefix: "abcdef123456"}, nil
}

func TestGetConfig(t *testing.T) {
	h := NewAdminHandler(&fakeSettings{view: domain.OptimizerConfig{Shape: "linear", Cutoff: 14}}, &fakeKeys{})

	c, rec := newContext(http.MethodGet, "/api/v1/admin/optimizer/config?account_id=3", "", "")
	require.NoError(t, h.GetConfig(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"account_id":3`)
	assert.Contains(t, rec.Body.String(), `"shape":"linear"`)

	for _, target := range []string{
		"/api/v1/admin/optimizer/config",
		"/api/v1/admin/optimizer/config?account_id=x",
		"/api/v1/admin/optimizer/config?account_id=0",
	} {
		c, rec = newContext(http.MethodGet, target, "", "")
		require.NoError(t, h.GetConfig(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

func TestGetConfigStoredConfigInvalid(t *testing.T) {
	h := NewAdminHandler(&fakeSettings{err: fmt.Errorf("account 3: %w", bandit.ErrInvalidConfig)}, &fakeKeys{})

	c, rec := newContext(http.MethodGet, "/api/v1/admin/optimizer/config?account_id=3", "", "")
	require.NoError(t, h.GetConfig(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateConfig(t *testing.T) {
	settings := &fakeSettings{}
	h := NewAdminHandler(settings, &fakeKeys{})

	body := `{"account_id": 3, "memory": false, "shape": "degressive", "cutoff": 7, "cut_level": 0.2, "accelerate": true}`
	c, rec := newContext(http.MethodPut, "/api/v1/admin/optimizer/config", echo.MIMEApplicationJSON, body)
	require.NoError(t, h.UpdateConfig(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, uint(3), settings.savedFor)
	assert.Equal(t, domain.OptimizerConfig{
		Memory:     false,
		Shape:      "degressive",
		Cutoff:     7,
		CutLevel:   0.2,
		Accelerate: true,
	}, settings.saved)
}

func TestUpdateConfigValidation(t *testing.T) {
	cases := map[string]string{
		"missing account": `{"memory": true, "shape": "linear", "cutoff": 7, "cut_level": 0.5}`,
		"missing memory":  `{"account_id": 3, "shape": "linear", "cutoff": 7, "cut_level": 0.5}`,
		"zero cutoff":     `{"account_id": 3, "memory": true, "shape": "linear", "cutoff": 0, "cut_level": 0.5}`,
		"cut level > 1":   `{"account_id": 3, "memory": true, "shape": "linear", "cutoff": 7, "cut_level": 1.5}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			h := NewAdminHandler(&fakeSettings{}, &fakeKeys{})
			c, rec := newContext(http.MethodPut, "/api/v1/admin/optimizer/config", echo.MIMEApplicationJSON, body)
			require.NoError(t, h.UpdateConfig(c))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}

	h := NewAdminHandler(&fakeSettings{err: fmt.Errorf("%w: unknown shape", bandit.ErrInvalidConfig)}, &fakeKeys{})
	c, rec := newContext(http.MethodPut, "/api/v1/admin/optimizer/config", echo.MIMEApplicationJSON,
		`{"account_id": 3, "memory": true, "shape": "square", "cutoff": 7, "cut_level": 0.5}`)
	require.NoError(t, h.UpdateConfig(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	h = NewAdminHandler(&fakeSettings{err: optimizer.ErrNoConfigStore}, &fakeKeys{})
	c, rec = newContext(http.MethodPut, "/api/v1/admin/optimizer/config", echo.MIMEApplicationJSON,
		`{"account_id": 3, "memory": true, "shape": "linear", "cutoff": 7, "cut_level": 0.5}`)
	require.NoError(t, h.UpdateConfig(c))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestListRuns(t *testing.T) {
	settings := &fakeSettings{runs: []domain.OptimizationRun{{ID: 1, AccountID: 3, Shape: "linear"}}}
	h := NewAdminHandler(settings, &fakeKeys{})

	c, rec := newContext(http.MethodGet, "/api/v1/admin/optimizer/runs?account_id=3", "", "")
	require.NoError(t, h.ListRuns(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 20, settings.runsLimit)
	assert.Contains(t, rec.Body.String(), `"shape":"linear"`)

	c, _ = newContext(http.MethodGet, "/api/v1/admin/optimizer/runs?account_id=3&limit=5", "", "")
	require.NoError(t, h.ListRuns(c))
	assert.Equal(t, 5, settings.runsLimit)

	c, rec = newContext(http.MethodGet, "/api/v1/admin/optimizer/runs?account_id=3&limit=0", "", "")
	require.NoError(t, h.ListRuns(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestIssueKey(t *testing.T) {
	keys := &fakeKeys{}
	h := NewAdminHandler(&fakeSettings{}, keys)

	c, rec := newContext(http.MethodPost, "/api/v1/admin/api-keys", echo.MIMEApplicationJSON, `{"name": "agency"}`)
	c.Set("user_id", uint(1))
	require.NoError(t, h.IssueKey(c))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "agency", keys.name)
	assert.Contains(t, rec.Body.String(), `"api_key":"abcdef123456.secret"`)
	assert.NotContains(t, rec.Body.String(), "key_hash")

	c, rec = newContext(http.MethodPost, "/api/v1/admin/api-keys", echo.MIMEApplicationJSON, `{}`)
	require.NoError(t, h.IssueKey(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	h = NewAdminHandler(&fakeSettings{}, &fakeKeys{err: errors.New("db down")})
	c, rec = newContext(http.MethodPost, "/api/v1/admin/api-keys", echo.MIMEApplicationJSON, `{"name": "agency"}`)
	require.NoError(t, h.IssueKey(c))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "failed to issue api key", errorMessage(t, rec))
}
