package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ControlCollector exposes metrics for the HTTP control surface and the
// parameter store it writes to.
type ControlCollector struct {
	gatherer prometheus.Gatherer

	Requests         *prometheus.CounterVec
	RequestDurations *prometheus.HistogramVec
	ParamChanges     *prometheus.CounterVec
	RateLimited      prometheus.Counter
}

// NewControlCollector registers control metrics against the provided registerer.
func NewControlCollector(reg prometheus.Registerer) (*ControlCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orrery_control_requests_total",
		Help: "Handled control requests, labeled by route, method, and HTTP status code.",
	}, []string{"route", "method", "code"})
	requests, err := registerCounterVec(reg, requests, "orrery_control_requests_total")
	if err != nil {
		return nil, err
	}

	durations := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "orrery_control_request_duration_seconds",
		Help:    "Control request latency in seconds.",
		Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	}, []string{"route"})
	durations, err = registerHistogramVec(reg, durations, "orrery_control_request_duration_seconds")
	if err != nil {
		return nil, err
	}

	changes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orrery_param_changes_total",
		Help: "Accepted live parameter changes, labeled by field.",
	}, []string{"field"})
	changes, err = registerCounterVec(reg, changes, "orrery_param_changes_total")
	if err != nil {
		return nil, err
	}

	limited, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orrery_control_rate_limited_total",
		Help: "Control requests rejected by the per-client rate limiter.",
	}), "orrery_control_rate_limited_total")
	if err != nil {
		return nil, err
	}

	return &ControlCollector{
		gatherer:         gatherer,
		Requests:         requests,
		RequestDurations: durations,
		ParamChanges:     changes,
		RateLimited:      limited,
	}, nil
}

// Gatherer returns the Prometheus gatherer associated with the collector.
func (c *ControlCollector) Gatherer() prometheus.Gatherer {
	if c == nil {
		return nil
	}
	return c.gatherer
}

// IncParamChange counts one accepted change to field.
func (c *ControlCollector) IncParamChange(field string) {
	if c == nil || c.ParamChanges == nil {
		return
	}
	c.ParamChanges.WithLabelValues(field).Inc()
}

// IncRateLimited counts one rejected request.
func (c *ControlCollector) IncRateLimited() {
	if c == nil || c.RateLimited == nil {
		return
	}
	c.RateLimited.Inc()
}

// Instrument wraps next so each request is counted and timed under route.
func (c *ControlCollector) Instrument(route string, next http.Handler) http.Handler {
	if c == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		c.Requests.WithLabelValues(route, r.Method, strconv.Itoa(sw.status)).Inc()
		c.RequestDurations.WithLabelValues(route).Observe(time.Since(start).Seconds())
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
