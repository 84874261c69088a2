package rest

import (
	"errors"
	"net/http"
	"time"

	"adOptimizer/business/bandit"
	"adOptimizer/business/optimizer"
	"adOptimizer/business/preprocess"
	"adOptimizer/business/simulation"
	"adOptimizer/pkg/metrics"
)

// ResponseError represent the response error struct
type ResponseError struct {
	Message string `json:"message"`
}

// RejectedResponse is returned when no record survives preprocessing.
type RejectedResponse struct {
	Message    string `json:"message"`
	Rejections any    `json:"rejections,omitempty"`
}

// statusFor maps service errors to HTTP status codes and metric outcomes.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, preprocess.ErrInsufficientData):
		return http.StatusUnprocessableEntity, "insufficient"
	case errors.Is(err, preprocess.ErrInvalidInput),
		errors.Is(err, optimizer.ErrInvalidRequest),
		errors.Is(err, bandit.ErrInvalidConfig),
		errors.Is(err, simulation.ErrInvalidParams):
		return http.StatusBadRequest, "invalid"
	case errors.Is(err, optimizer.ErrNoAdPlatform),
		errors.Is(err, optimizer.ErrNoConfigStore):
		return http.StatusServiceUnavailable, "unavailable"
	default:
		return http.StatusInternalServerError, "error"
	}
}

// observe records one request of an endpoint. Call it deferred with the
// outcome pointer so every return path is counted.
func observe(endpoint string, start time.Time, outcome *string) {
	metrics.OptimizeLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	metrics.OptimizeRequests.WithLabelValues(endpoint, *outcome).Inc()
}
