// Package observability exposes Prometheus metrics for the referee.
package observability

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Submission kinds.
const (
	KindLogin     = "login"
	KindTelemetry = "telemetry"
	KindLock      = "lock"
	KindDive      = "dive"
)

// Collector bundles the referee's metrics. A nil *Collector is valid and
// records nothing.
type Collector struct {
	gatherer prometheus.Gatherer

	Submissions    *prometheus.CounterVec
	HTTPRequests   *prometheus.CounterVec
	HTTPDurations  *prometheus.HistogramVec
	SnapshotRivals prometheus.Histogram
	ActiveSessions prometheus.Gauge
	HazardZones    prometheus.Gauge
}

// NewCollector registers the referee metrics against reg, defaulting to the
// global registry when nil.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	submissions, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "referee_submissions_total",
		Help: "Team submissions by kind and outcome.",
	}, []string{"kind", "outcome"}), "referee_submissions_total")
	if err != nil {
		return nil, err
	}

	requests, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "referee_http_requests_total",
		Help: "HTTP requests by route, method and status code.",
	}, []string{"route", "method", "code"}), "referee_http_requests_total")
	if err != nil {
		return nil, err
	}

	durations, err := registerHistogramVec(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "referee_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds.",
		Buckets: []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	}, []string{"route", "method"}), "referee_http_request_duration_seconds")
	if err != nil {
		return nil, err
	}

	rivals, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "referee_snapshot_rivals",
		Help:    "Number of rivals relayed per accepted telemetry submission.",
		Buckets: prometheus.LinearBuckets(0, 2, 10),
	}), "referee_snapshot_rivals")
	if err != nil {
		return nil, err
	}

	sessions, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "referee_active_sessions",
		Help: "Current number of bound caller identities.",
	}), "referee_active_sessions")
	if err != nil {
		return nil, err
	}

	zones, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "referee_hazard_zones",
		Help: "Current number of announced hazard zones.",
	}), "referee_hazard_zones")
	if err != nil {
		return nil, err
	}

	return &Collector{
		gatherer:       gatherer,
		Submissions:    submissions,
		HTTPRequests:   requests,
		HTTPDurations:  durations,
		SnapshotRivals: rivals,
		ActiveSessions: sessions,
		HazardZones:    zones,
	}, nil
}

// ObserveSubmission counts one submission of kind with the given outcome.
func (c *Collector) ObserveSubmission(kind, outcome string) {
	if c == nil {
		return
	}
	c.Submissions.WithLabelValues(kind, outcome).Inc()
}

// ObserveSnapshot records the size of a rival snapshot.
func (c *Collector) ObserveSnapshot(rivals int) {
	if c == nil {
		return
	}
	c.SnapshotRivals.Observe(float64(rivals))
}

// SetSessions sets the active session gauge.
func (c *Collector) SetSessions(n int) {
	if c == nil {
		return
	}
	c.ActiveSessions.Set(float64(n))
}

// SetHazardZones sets the hazard zone gauge.
func (c *Collector) SetHazardZones(n int) {
	if c == nil {
		return
	}
	c.HazardZones.Set(float64(n))
}

// Middleware records request counts and durations per route.
func (c *Collector) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			start := time.Now()
			err := next(ctx)
			if c == nil {
				return err
			}

			status := ctx.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				} else if sc, ok := err.(interface{ StatusCode() int }); ok {
					status = sc.StatusCode()
				} else {
					status = http.StatusInternalServerError
				}
			}
			route := ctx.Path()
			if route == "" {
				route = "unmatched"
			}
			method := ctx.Request().Method
			c.HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
			c.HTTPDurations.WithLabelValues(route, method).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

// Handler exposes a ready-to-use /metrics handler.
func (c *Collector) Handler() http.Handler {
	gatherer := prometheus.DefaultGatherer
	if c != nil && c.gatherer != nil {
		gatherer = c.gatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogram(reg prometheus.Registerer, h prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(h); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return h, nil
}

func registerGauge(reg prometheus.Registerer, g prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(g); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return g, nil
}
