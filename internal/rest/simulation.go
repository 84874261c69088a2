package rest

import (
	"net/http"
	"time"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"adOptimizer/business/bandit"
	"adOptimizer/business/simulation"
	"adOptimizer/business/split"
)

type (
	SimulationHandler struct {
		validate *validator.Validate
	}

	// SimulationRequest overrides simulation.DefaultParams field by field.
	// Method "compare" runs both methods on the same market.
	SimulationRequest struct {
		Method     string    `json:"method" validate:"omitempty,oneof=split bandit compare"`
		Periods    *int      `json:"periods" validate:"omitempty,min=1,max=365"`
		TrueRates  []float64 `json:"true_rates" validate:"omitempty,max=100,dive,gte=0,lte=1"`
		Deviation  *float64  `json:"deviation" validate:"omitempty,gte=0"`
		Change     *float64  `json:"change" validate:"omitempty,gte=0,lt=1"`
		Trials     *float64  `json:"trials" validate:"omitempty,gt=0"`
		MaxP       *float64  `json:"max_p" validate:"omitempty,gt=0,lt=1"`
		Correction string    `json:"correction"`
		Rounding   *bool     `json:"rounding"`
		Accelerate *bool     `json:"accelerate"`
		Memory     *bool     `json:"memory"`
		Shape      string    `json:"shape"`
		Cutoff     *int      `json:"cutoff" validate:"omitempty,min=1"`
		CutLevel   *float64  `json:"cut_level" validate:"omitempty,gt=0,lte=1"`
		Seed       *uint64   `json:"seed"`
	}
)

func NewSimulationHandler() *SimulationHandler {
	return &SimulationHandler{validate: validator.New()}
}

// POST /api/v1/simulations
func (h *SimulationHandler) Simulate(c echo.Context) error {
	outcome := "invalid"
	defer observe("simulations", time.Now(), &outcome)

	var req SimulationRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	params, err := req.params()
	if err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	var out any
	if req.Method == "compare" {
		out, err = simulation.CompareMethods(params)
	} else {
		out, err = simulation.Simulate(params)
	}
	if err != nil {
		code, label := statusFor(err)
		outcome = label
		return c.JSON(code, ResponseError{Message: err.Error()})
	}

	outcome = "ok"
	return c.JSON(http.StatusOK, fres.Response.StatusOK(out))
}

func (r SimulationRequest) params() (simulation.Params, error) {
	p := simulation.DefaultParams()
	if r.Method != "" && r.Method != "compare" {
		m, err := simulation.ParseMethod(r.Method)
		if err != nil {
			return p, err
		}
		p.Method = m
	}
	if r.Correction != "" {
		corr, err := split.ParseCorrection(r.Correction)
		if err != nil {
			return p, err
		}
		p.Correction = corr
	}
	if r.Shape != "" {
		shape, err := bandit.ParseShape(r.Shape)
		if err != nil {
			return p, err
		}
		p.Bandit.Shape = shape
	}
	if len(r.TrueRates) > 0 {
		p.TrueRates = r.TrueRates
	}

	setIf(&p.Periods, r.Periods)
	setIf(&p.Deviation, r.Deviation)
	setIf(&p.Change, r.Change)
	setIf(&p.Trials, r.Trials)
	setIf(&p.MaxP, r.MaxP)
	setIf(&p.Rounding, r.Rounding)
	setIf(&p.Accelerate, r.Accelerate)
	setIf(&p.Bandit.Memory, r.Memory)
	setIf(&p.Bandit.Cutoff, r.Cutoff)
	setIf(&p.Bandit.CutLevel, r.CutLevel)
	setIf(&p.Seed, r.Seed)

	if err := p.Bandit.Validate(); err != nil {
		return p, err
	}
	return p, p.Validate()
}

func setIf[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}
