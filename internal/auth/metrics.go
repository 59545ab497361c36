package auth

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	tokensIssued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_tokens_issued_total",
			Help: "Total number of tokens issued, by kind.",
		},
		[]string{"kind"},
	)

	refreshAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_refresh_attempts_total",
			Help: "Total number of refresh attempts, by outcome.",
		},
		[]string{"outcome"},
	)

	logouts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_logouts_total",
			Help: "Total number of logout requests, by result.",
		},
		[]string{"result"},
	)

	activeRefreshTokens = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "auth_refresh_tokens_active",
		Help: "Number of refresh tokens currently held in the revocation registry.",
	})
)
