package rest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"adOptimizer/business/optimizer"
	"adOptimizer/business/preprocess"
	"adOptimizer/domain"
	"adOptimizer/pkg/logger"
)

const maxCSVBytes = 32 << 20

type (
	OptimizerHandler struct {
		validate         *validator.Validate
		optimizerService OptimizerService
	}

	OptimizerService interface {
		Optimize(ctx context.Context, req optimizer.Request) (domain.OptimizationResult, error)
		Compare(ctx context.Context, trials, successes []float64) ([]float64, error)
		ApplyStatuses(ctx context.Context, creds domain.PlatformCredentials, updates []domain.StatusUpdate) ([]domain.StatusChange, error)
	}

	OptimizeRequest struct {
		Optimize   []string           `json:"optimize" validate:"required,min=1"`
		Stats      []domain.RawRecord `json:"stats" validate:"required,min=1"`
		Output     string             `json:"output" validate:"omitempty,oneof=share status"`
		Accelerate *bool              `json:"accelerate"`
		Debug      bool               `json:"debug"`
	}

	CompareOption struct {
		Trials    float64 `json:"trials" validate:"gte=0"`
		Successes float64 `json:"successes" validate:"gte=0,ltefield=Trials"`
	}

	CompareRequest struct {
		Options []CompareOption `json:"options" validate:"required,min=1,dive"`
	}

	CompareResponse struct {
		Shares []float64 `json:"shares"`
	}

	StatusRequest struct {
		Credentials domain.PlatformCredentials `json:"credentials"`
		Updates     []domain.StatusUpdate      `json:"updates" validate:"required,min=1,dive"`
	}

	StatusResponse struct {
		Changes []domain.StatusChange `json:"changes"`
	}

	// StatusFailureResponse lists the changes the platform applied before it failed.
	StatusFailureResponse struct {
		Message string                `json:"message"`
		Changes []domain.StatusChange `json:"changes"`
	}
)

func NewOptimizerHandler(svc OptimizerService) *OptimizerHandler {
	return &OptimizerHandler{
		validate:         validator.New(),
		optimizerService: svc,
	}
}

// accountID is set by the API key middleware; 0 means anonymous.
func accountID(c echo.Context) uint {
	id, _ := c.Get("account_id").(uint)
	return id
}

// POST /api/v1/ads
func (h *OptimizerHandler) Optimize(c echo.Context) error {
	outcome := "invalid"
	defer observe("ads", time.Now(), &outcome)

	var req OptimizeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	weights, err := preprocess.WeightsForOptimize(req.Optimize)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	output, err := optimizer.ParseOutput(req.Output)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	return h.optimize(c, &outcome, optimizer.Request{
		AccountID:  accountID(c),
		Records:    req.Stats,
		Weights:    weights,
		Output:     output,
		Accelerate: req.Accelerate,
		Debug:      req.Debug,
	})
}

// POST /api/v1/ads/csv?output=status&click_weight=0.5
// An empty or missing weight is derived from the data.
func (h *OptimizerHandler) OptimizeCSV(c echo.Context) error {
	outcome := "invalid"
	defer observe("ads_csv", time.Now(), &outcome)

	output, err := optimizer.ParseOutput(c.QueryParam("output"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	weights, err := weightsFromQuery(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	var accelerate *bool
	if v := c.QueryParam("accelerate"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ResponseError{Message: "invalid accelerate"})
		}
		accelerate = &b
	}

	debug, _ := strconv.ParseBool(c.QueryParam("debug"))

	records, err := preprocess.ReadCSV(io.LimitReader(c.Request().Body, maxCSVBytes))
	if err != nil {
		logger.Error("Invalid csv body", err)
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	return h.optimize(c, &outcome, optimizer.Request{
		AccountID:  accountID(c),
		Records:    records,
		Weights:    weights,
		Output:     output,
		Accelerate: accelerate,
		Debug:      debug,
	})
}

func (h *OptimizerHandler) optimize(c echo.Context, outcome *string, req optimizer.Request) error {
	result, err := h.optimizerService.Optimize(c.Request().Context(), req)
	if err != nil {
		code, label := statusFor(err)
		*outcome = label
		if code == http.StatusUnprocessableEntity {
			return c.JSON(code, RejectedResponse{Message: err.Error(), Rejections: result.Rejections})
		}
		return c.JSON(code, ResponseError{Message: err.Error()})
	}

	*outcome = "ok"
	return c.JSON(http.StatusOK, fres.Response.StatusOK(result))
}

// POST /api/v1/ads/compare
func (h *OptimizerHandler) Compare(c echo.Context) error {
	outcome := "invalid"
	defer observe("compare", time.Now(), &outcome)

	var req CompareRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	trials := make([]float64, len(req.Options))
	successes := make([]float64, len(req.Options))
	for i, o := range req.Options {
		trials[i] = o.Trials
		successes[i] = o.Successes
	}

	shares, err := h.optimizerService.Compare(c.Request().Context(), trials, successes)
	if err != nil {
		code, label := statusFor(err)
		outcome = label
		return c.JSON(code, ResponseError{Message: err.Error()})
	}

	outcome = "ok"
	return c.JSON(http.StatusOK, fres.Response.StatusOK(CompareResponse{Shares: shares}))
}

// POST /api/v1/ads/status
func (h *OptimizerHandler) ApplyStatuses(c echo.Context) error {
	outcome := "invalid"
	defer observe("status", time.Now(), &outcome)

	var req StatusRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	changes, err := h.optimizerService.ApplyStatuses(c.Request().Context(), req.Credentials, req.Updates)
	if err != nil {
		code, label := statusFor(err)
		outcome = label
		if code == http.StatusInternalServerError {
			// platform failures surface as a bad gateway
			return c.JSON(http.StatusBadGateway, StatusFailureResponse{Message: err.Error(), Changes: changes})
		}
		return c.JSON(code, ResponseError{Message: err.Error()})
	}

	outcome = "ok"
	return c.JSON(http.StatusOK, fres.Response.StatusOK(StatusResponse{Changes: changes}))
}

func weightsFromQuery(c echo.Context) (preprocess.Weights, error) {
	var w preprocess.Weights
	for _, p := range []struct {
		name string
		dst  **float64
	}{
		{"impression_weight", &w.Impression},
		{"engagement_weight", &w.Engagement},
		{"click_weight", &w.Click},
		{"conversion_weight", &w.Conversion},
	} {
		raw := strings.TrimSpace(c.QueryParam(p.name))
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 {
			return w, fmt.Errorf("invalid %s %q", p.name, raw)
		}
		*p.dst = preprocess.Fixed(v)
	}
	return w, nil
}
