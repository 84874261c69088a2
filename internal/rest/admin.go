package rest

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"adOptimizer/domain"
	"adOptimizer/pkg/logger"
)

type (
	AdminHandler struct {
		validate       *validator.Validate
		settingService SettingService
		keyService     KeyService
	}

	SettingService interface {
		SettingsView(ctx context.Context, accountID uint) (domain.OptimizerConfig, error)
		UpdateSettings(ctx context.Context, accountID uint, cfg domain.OptimizerConfig) (domain.OptimizerConfig, error)
		Runs(ctx context.Context, accountID uint, limit int) ([]domain.OptimizationRun, error)
	}

	KeyService interface {
		IssueKey(ctx context.Context, name string) (string, domain.APIUser, error)
	}

	UpdateConfigRequest struct {
		AccountID  uint    `json:"account_id" validate:"required"`
		Memory     *bool   `json:"memory" validate:"required"`
		Shape      string  `json:"shape" validate:"required"`
		Cutoff     int     `json:"cutoff" validate:"required,min=1"`
		CutLevel   float64 `json:"cut_level" validate:"required,gt=0,lte=1"`
		Accelerate bool    `json:"accelerate"`
	}

	IssueKeyRequest struct {
		Name string `json:"name" validate:"required,max=100"`
	}

	IssueKeyResponse struct {
		APIKey string         `json:"api_key"`
		User   domain.APIUser `json:"user"`
	}
)

func NewAdminHandler(settingService SettingService, keyService KeyService) *AdminHandler {
	return &AdminHandler{
		validate:       validator.New(),
		settingService: settingService,
		keyService:     keyService,
	}
}

func queryAccountID(c echo.Context) (uint, error) {
	raw := c.QueryParam("account_id")
	if raw == "" {
		return 0, errors.New("account_id is required")
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, errors.New("invalid account_id")
	}
	return uint(id), nil
}

// GET /api/v1/admin/optimizer/config?account_id=3
func (h *AdminHandler) GetConfig(c echo.Context) error {
	id, err := queryAccountID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	cfg, err := h.settingService.SettingsView(c.Request().Context(), id)
	if err != nil {
		code, _ := statusFor(err)
		return c.JSON(code, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(cfg))
}

// PUT /api/v1/admin/optimizer/config
func (h *AdminHandler) UpdateConfig(c echo.Context) error {
	var req UpdateConfigRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: "invalid body: " + err.Error()})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	cfg, err := h.settingService.UpdateSettings(c.Request().Context(), req.AccountID, domain.OptimizerConfig{
		Memory:     *req.Memory,
		Shape:      req.Shape,
		Cutoff:     req.Cutoff,
		CutLevel:   req.CutLevel,
		Accelerate: req.Accelerate,
	})
	if err != nil {
		code, _ := statusFor(err)
		return c.JSON(code, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(cfg))
}

// GET /api/v1/admin/optimizer/runs?account_id=3&limit=20
func (h *AdminHandler) ListRuns(c echo.Context) error {
	id, err := queryAccountID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	limit := 20
	if raw := c.QueryParam("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > 500 {
			return c.JSON(http.StatusBadRequest, ResponseError{Message: "invalid limit"})
		}
	}

	runs, err := h.settingService.Runs(c.Request().Context(), id, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(runs))
}

// POST /api/v1/admin/api-keys
// The key is only ever shown in this response.
func (h *AdminHandler) IssueKey(c echo.Context) error {
	var req IssueKeyRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	key, user, err := h.keyService.IssueKey(c.Request().Context(), req.Name)
	if err != nil {
		logger.Error("Failed to issue api key", err)
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: "failed to issue api key"})
	}

	logger.Info("api key issued", "user_id", user.ID, "key_prefix", user.KeyPrefix, "by", c.Get("user_id"))
	return c.JSON(http.StatusCreated, fres.Response.StatusCreated(IssueKeyResponse{APIKey: key, User: user}))
}
