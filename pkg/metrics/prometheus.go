package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	inferenceTotal   *prometheus.CounterVec
	inferenceLatency *prometheus.HistogramVec
	fallbackTotal    *prometheus.CounterVec
	decisionsTotal   *prometheus.CounterVec
	riskScore        *prometheus.GaugeVec
	ordersTotal      *prometheus.CounterVec
	errorsTotal      *prometheus.CounterVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		inferenceTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradepilot_inference_requests_total",
				Help: "Total remote inference requests by capability and result",
			},
			[]string{"capability", "result"},
		),
		inferenceLatency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tradepilot_inference_duration_seconds",
				Help:    "Remote inference latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"capability"},
		),
		fallbackTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradepilot_fallback_total",
				Help: "Total analysis stages served by the local heuristic",
			},
			[]string{"capability"},
		),
		decisionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradepilot_decisions_total",
				Help: "Total trading decisions by symbol and action",
			},
			[]string{"symbol", "decision"},
		),
		riskScore: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "tradepilot_risk_score",
				Help: "Last computed risk score per symbol",
			},
			[]string{"symbol"},
		),
		ordersTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradepilot_orders_total",
				Help: "Total order attempts by symbol and status",
			},
			[]string{"symbol", "status"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradepilot_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
	}
}

// RecordInference records one remote inference attempt.
func (r *Recorder) RecordInference(capability, result string, seconds float64) {
	r.inferenceTotal.WithLabelValues(capability, result).Inc()
	r.inferenceLatency.WithLabelValues(capability).Observe(seconds)
}

// RecordFallback records a stage served by the local heuristic.
func (r *Recorder) RecordFallback(capability string) {
	r.fallbackTotal.WithLabelValues(capability).Inc()
}

// RecordDecision records a synthesized trading decision.
func (r *Recorder) RecordDecision(symbol, decision string) {
	r.decisionsTotal.WithLabelValues(symbol, decision).Inc()
}

// RecordRiskScore records the last computed risk score for a symbol.
func (r *Recorder) RecordRiskScore(symbol string, score float64) {
	r.riskScore.WithLabelValues(symbol).Set(score)
}

// RecordOrder records an order placement attempt.
func (r *Recorder) RecordOrder(symbol, status string) {
	r.ordersTotal.WithLabelValues(symbol, status).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}
