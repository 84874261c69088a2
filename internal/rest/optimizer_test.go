package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adOptimizer/business/optimizer"
	"adOptimizer/business/preprocess"
	"adOptimizer/domain"
)

type fakeOptimizer struct {
	gotReq     optimizer.Request
	gotTrials  []float64
	gotSuccess []float64
	gotCreds   domain.PlatformCredentials
	gotUpdates []domain.StatusUpdate

	result  domain.OptimizationResult
	shares  []float64
	changes []domain.StatusChange
	err     error
}

func (f *fakeOptimizer) Optimize(_ context.Context, req optimizer.Request) (domain.OptimizationResult, error) {
	f.gotReq = req
	return f.result, f.err
}

func (f *fakeOptimizer) Compare(_ context.Context, trials, successes []float64) ([]float64, error) {
	f.gotTrials, f.gotSuccess = trials, successes
	return f.shares, f.err
}

func (f *fakeOptimizer) ApplyStatuses(_ context.Context, creds domain.PlatformCredentials, updates []domain.StatusUpdate) ([]domain.StatusChange, error) {
	f.gotCreds, f.gotUpdates = creds, updates
	return f.changes, f.err
}

func newContext(method, target, contentType, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set(echo.HeaderContentType, contentType)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body ResponseError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Message
}

func TestOptimizeJSON(t *testing.T) {
	share := 0.75
	svc := &fakeOptimizer{result: domain.OptimizationResult{
		Results: []domain.OptionResult{{
			Option: domain.Option{ID: 0, Identity: []domain.Field{{Name: "ad_id", Value: "A"}}},
			Share:  &share,
		}},
	}}
	h := NewOptimizerHandler(svc)

	body := `{
		"optimize": ["clicks"],
		"output": "share",
		"accelerate": true,
		"stats": [{"ad_id": "A", "date": "2024-05-01", "cost": 10, "clicks": 2}]
	}`
	c, rec := newContext(http.MethodPost, "/api/v1/ads", echo.MIMEApplicationJSON, body)
	c.Set("account_id", uint(9))

	require.NoError(t, h.Optimize(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"share":0.75`)

	assert.Equal(t, uint(9), svc.gotReq.AccountID)
	assert.Equal(t, optimizer.OutputShare, svc.gotReq.Output)
	require.NotNil(t, svc.gotReq.Accelerate)
	assert.True(t, *svc.gotReq.Accelerate)
	assert.Nil(t, svc.gotReq.Weights.Click)
	require.NotNil(t, svc.gotReq.Weights.Impression)
	assert.Zero(t, *svc.gotReq.Weights.Impression)
	require.Len(t, svc.gotReq.Records, 1)
	assert.Equal(t, "A", svc.gotReq.Records[0]["ad_id"])
}

func TestOptimizeJSONValidation(t *testing.T) {
	h := NewOptimizerHandler(&fakeOptimizer{})

	cases := map[string]string{
		"missing optimize": `{"stats": [{"ad_id": "A"}]}`,
		"missing stats":    `{"optimize": ["clicks"]}`,
		"unknown metric":   `{"optimize": ["likes"], "stats": [{"ad_id": "A"}]}`,
		"unknown output":   `{"optimize": ["clicks"], "output": "pdf", "stats": [{"ad_id": "A"}]}`,
		"malformed":        `{"optimize": `,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			c, rec := newContext(http.MethodPost, "/api/v1/ads", echo.MIMEApplicationJSON, body)
			require.NoError(t, h.Optimize(c))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestOptimizeErrorMapping(t *testing.T) {
	rejections := []domain.RecordRejection{{Row: 0, Reason: "missing ad_id"}}

	tests := []struct {
		name string
		err  error
		code int
	}{
		{"insufficient data", fmt.Errorf("%w: nothing left", preprocess.ErrInsufficientData), http.StatusUnprocessableEntity},
		{"invalid input", fmt.Errorf("%w: cutoff", preprocess.ErrInvalidInput), http.StatusBadRequest},
		{"internal", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeOptimizer{err: tt.err, result: domain.OptimizationResult{Rejections: rejections}}
			h := NewOptimizerHandler(svc)

			c, rec := newContext(http.MethodPost, "/api/v1/ads", echo.MIMEApplicationJSON,
				`{"optimize": ["clicks"], "stats": [{"date": "2024-05-01"}]}`)
			require.NoError(t, h.Optimize(c))
			assert.Equal(t, tt.code, rec.Code)

			if tt.code == http.StatusUnprocessableEntity {
				var body struct {
					Message    string                   `json:"message"`
					Rejections []domain.RecordRejection `json:"rejections"`
				}
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
				assert.Equal(t, rejections, body.Rejections)
			}
		})
	}
}

func TestOptimizeCSV(t *testing.T) {
	svc := &fakeOptimizer{result: domain.OptimizationResult{Results: []domain.OptionResult{}}}
	h := NewOptimizerHandler(svc)

	csvBody := "\ufeffAd ID,Day,Cost,Clicks\n" +
		"A,2024-05-01,10,2\n" +
		"B,2024-05-01,12,\n"
	c, rec := newContext(http.MethodPost,
		"/api/v1/ads/csv?output=status&click_weight=0.5&impression_weight=&accelerate=false",
		"text/csv", csvBody)

	require.NoError(t, h.OptimizeCSV(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, optimizer.OutputStatus, svc.gotReq.Output)
	require.NotNil(t, svc.gotReq.Weights.Click)
	assert.Equal(t, 0.5, *svc.gotReq.Weights.Click)
	assert.Nil(t, svc.gotReq.Weights.Impression)
	require.NotNil(t, svc.gotReq.Accelerate)
	assert.False(t, *svc.gotReq.Accelerate)

	require.Len(t, svc.gotReq.Records, 2)
	assert.Equal(t, domain.RawRecord{"Ad ID": "A", "Day": "2024-05-01", "Cost": "10", "Clicks": "2"}, svc.gotReq.Records[0])
	assert.Equal(t, "", svc.gotReq.Records[1]["Clicks"])
}

func TestOptimizeCSVRejectsBadInput(t *testing.T) {
	h := NewOptimizerHandler(&fakeOptimizer{})

	tests := []struct {
		name, target, body string
	}{
		{"empty body", "/api/v1/ads/csv", ""},
		{"header only", "/api/v1/ads/csv", "ad_id,date,cost\n"},
		{"ragged row", "/api/v1/ads/csv", "ad_id,date,cost\nA,2024-05-01\n"},
		{"negative weight", "/api/v1/ads/csv?click_weight=-1", "ad_id,date,cost\nA,2024-05-01,1\n"},
		{"bad weight", "/api/v1/ads/csv?click_weight=abc", "ad_id,date,cost\nA,2024-05-01,1\n"},
		{"bad output", "/api/v1/ads/csv?output=xml", "ad_id,date,cost\nA,2024-05-01,1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := newContext(http.MethodPost, tt.target, "text/csv", tt.body)
			require.NoError(t, h.OptimizeCSV(c))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestCompare(t *testing.T) {
	svc := &fakeOptimizer{shares: []float64{0.9, 0.1}}
	h := NewOptimizerHandler(svc)

	c, rec := newContext(http.MethodPost, "/api/v1/ads/compare", echo.MIMEApplicationJSON,
		`{"options": [{"trials": 100, "successes": 30}, {"trials": 100, "successes": 10}]}`)
	require.NoError(t, h.Compare(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"shares":[0.9,0.1]`)
	assert.Equal(t, []float64{100, 100}, svc.gotTrials)
	assert.Equal(t, []float64{30, 10}, svc.gotSuccess)

	c, rec = newContext(http.MethodPost, "/api/v1/ads/compare", echo.MIMEApplicationJSON,
		`{"options": [{"trials": 10, "successes": 30}]}`)
	require.NoError(t, h.Compare(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	c, rec = newContext(http.MethodPost, "/api/v1/ads/compare", echo.MIMEApplicationJSON, `{"options": []}`)
	require.NoError(t, h.Compare(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestApplyStatuses(t *testing.T) {
	svc := &fakeOptimizer{changes: []domain.StatusChange{{AdID: "A", OldStatus: "ACTIVE", NewStatus: "PAUSED"}}}
	h := NewOptimizerHandler(svc)

	body := `{
		"credentials": {"app_id": "1", "app_secret": "s", "access_token": "t"},
		"updates": [{"ad_id": "A", "channel": "facebook", "status": "PAUSED"}]
	}`
	c, rec := newContext(http.MethodPost, "/api/v1/ads/status", echo.MIMEApplicationJSON, body)
	require.NoError(t, h.ApplyStatuses(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"new_status":"PAUSED"`)
	assert.Equal(t, "t", svc.gotCreds.AccessToken)
	assert.Equal(t, []domain.StatusUpdate{{AdID: "A", Channel: "facebook", Status: "PAUSED"}}, svc.gotUpdates)
}

func TestApplyStatusesErrorMapping(t *testing.T) {
	body := `{"credentials": {"access_token": "t"}, "updates": [{"ad_id": "A", "status": "ACTIVE"}]}`

	tests := []struct {
		name string
		err  error
		code int
	}{
		{"invalid", fmt.Errorf("%w: unknown status", optimizer.ErrInvalidRequest), http.StatusBadRequest},
		{"no platform", optimizer.ErrNoAdPlatform, http.StatusServiceUnavailable},
		{"platform failure", errors.New("graph api: 500"), http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewOptimizerHandler(&fakeOptimizer{err: tt.err})
			c, rec := newContext(http.MethodPost, "/api/v1/ads/status", echo.MIMEApplicationJSON, body)
			require.NoError(t, h.ApplyStatuses(c))
			assert.Equal(t, tt.code, rec.Code)
			assert.NotEmpty(t, errorMessage(t, rec))
		})
	}

	partial := &fakeOptimizer{
		changes: []domain.StatusChange{{AdID: "A", OldStatus: "PAUSED", NewStatus: "ACTIVE"}},
		err:     errors.New("graph api: 500"),
	}
	h := NewOptimizerHandler(partial)
	c, rec := newContext(http.MethodPost, "/api/v1/ads/status", echo.MIMEApplicationJSON, body)
	require.NoError(t, h.ApplyStatuses(c))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	var failure StatusFailureResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &failure))
	assert.Equal(t, partial.changes, failure.Changes)
	assert.Contains(t, failure.Message, "graph api")

	h = NewOptimizerHandler(&fakeOptimizer{})
	c, rec = newContext(http.MethodPost, "/api/v1/ads/status", echo.MIMEApplicationJSON, `{"updates": []}`)
	require.NoError(t, h.ApplyStatuses(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
