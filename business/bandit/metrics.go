package bandit

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	banditDrawsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bandit_posterior_draws_total",
			Help: "Number of Beta posterior samples drawn by the bandit engine.",
		},
	)
)

func init() {
	prometheus.MustRegister(banditDrawsTotal)
}
