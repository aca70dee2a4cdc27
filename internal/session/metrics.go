package session

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics counts session activity on its own registry.
type Metrics struct {
	registry    *prometheus.Registry
	writesTotal *prometheus.CounterVec
	readsTotal  *prometheus.CounterVec
	pendingTx   prometheus.Gauge
}

// NewMetrics builds a registry with the session collectors registered.
func NewMetrics() *Metrics {
	writes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "w3penalty_writes_total",
		Help: "Contract writes by action and final status",
	}, []string{"action", "status"})

	reads := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "w3penalty_reads_total",
		Help: "Contract reads by query and result",
	}, []string{"query", "result"})

	pending := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "w3penalty_pending_transactions",
		Help: "Transactions submitted and not yet settled",
	})

	r := prometheus.NewRegistry()
	r.MustRegister(writes, reads, pending)

	return &Metrics{
		registry:    r,
		writesTotal: writes,
		readsTotal:  reads,
		pendingTx:   pending,
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) incWrite(action string, status Status) {
	if m == nil {
		return
	}
	m.writesTotal.WithLabelValues(action, status.String()).Inc()
}

func (m *Metrics) incRead(q query, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.readsTotal.WithLabelValues(string(q), result).Inc()
}

func (m *Metrics) addPending(delta float64) {
	if m == nil {
		return
	}
	m.pendingTx.Add(delta)
}
