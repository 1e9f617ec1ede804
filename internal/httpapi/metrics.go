package httpapi

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts handshake outcomes.
type Metrics struct {
	Registry *prometheus.Registry
	issued   prometheus.Counter
	redeems  *prometheus.CounterVec
	swept    prometheus.Counter
	limited  prometheus.Counter
}

func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		issued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "unlockd",
			Name:      "handshake_issued_total",
			Help:      "Handshake tokens issued.",
		}),
		redeems: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "unlockd",
			Name:      "handshake_redeem_total",
			Help:      "Handshake redemption attempts by result.",
		}, []string{"result"}),
		swept: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "unlockd",
			Name:      "handshake_swept_total",
			Help:      "Expired handshake tokens removed by the sweeper.",
		}),
		limited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "unlockd",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the rate limiter.",
		}),
	}
	m.Registry.MustRegister(m.issued, m.redeems, m.swept, m.limited,
		prometheus.NewGoCollector(),
	)
	return m
}

// ObserveSweep is suitable as a handshake.Sweeper OnSweep callback.
func (m *Metrics) ObserveSweep(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.swept.Add(float64(n))
}

func (m *Metrics) observeRedeem(result string) {
	if m == nil {
		return
	}
	m.redeems.WithLabelValues(result).Inc()
}

func (m *Metrics) observeIssue() {
	if m == nil {
		return
	}
	m.issued.Inc()
}

func (m *Metrics) observeLimited() {
	if m == nil {
		return
	}
	m.limited.Inc()
}
