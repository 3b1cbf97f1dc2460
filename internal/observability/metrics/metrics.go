package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// APIMetrics exposes counters/gauges for the dashboard API.
type APIMetrics struct {
	requestsTotal  *prometheus.CounterVec
	mutationsTotal *prometheus.CounterVec
	attentionDepth prometheus.Gauge
}

func NewAPIMetrics(reg prometheus.Registerer) *APIMetrics {
	m := &APIMetrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinicflow",
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Total HTTP requests served",
		}, []string{"method", "status"}),
		mutationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinicflow",
			Subsystem: "appointments",
			Name:      "mutations_total",
			Help:      "Total appointment mutations by operation",
		}, []string{"operation", "outcome"}),
		attentionDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "clinicflow",
			Subsystem: "appointments",
			Name:      "attention_queue_depth",
			Help:      "Appointments currently needing staff action",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.requestsTotal, m.mutationsTotal, m.attentionDepth)
	return m
}

// ObserveMutation records an appointment mutation outcome.
func (m *APIMetrics) ObserveMutation(operation, outcome string) {
	if m == nil {
		return
	}
	m.mutationsTotal.WithLabelValues(operation, outcome).Inc()
}

// SetAttentionDepth records the current attention queue size.
func (m *APIMetrics) SetAttentionDepth(n int) {
	if m == nil {
		return
	}
	m.attentionDepth.Set(float64(n))
}

// Instrument wraps a handler and counts requests by method and status.
func (m *APIMetrics) Instrument(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		m.requestsTotal.WithLabelValues(r.Method, strconv.Itoa(rec.status)).Inc()
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
