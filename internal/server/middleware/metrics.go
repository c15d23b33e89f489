package middleware

import (
	"errors"
	"net/http"
	"reflect"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const notFoundPath = "/not-found"

type MetricsConfig struct {
	Skipper   Skipper
	Namespace string
	Subsystem string
	Buckets   []float64
	// StatusClass reports 2xx/4xx/... instead of exact codes.
	StatusClass bool
	// MetricsPath serves Gatherer in the prometheus text format; empty
	// disables it.
	MetricsPath string
	Registerer  prometheus.Registerer
	Gatherer    prometheus.Gatherer
}

var DefaultMetricsConfig = MetricsConfig{
	Namespace: "listing_proxy",
	Subsystem: "http",
	// create and update wait on several catalog round trips
	Buckets:     []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
	MetricsPath: "/metrics",
}

type httpMetrics struct {
	duration *prometheus.HistogramVec
	inFlight prometheus.Gauge
}

func Metrics() echo.MiddlewareFunc {
	return MetricsWithConfig(DefaultMetricsConfig)
}

// MetricsWithConfig observes request latency by status, method and route
// template and tracks in-flight requests. Unmatched routes share one path
// label.
func MetricsWithConfig(config MetricsConfig) echo.MiddlewareFunc {
	if config.Skipper == nil {
		config.Skipper = DefaultSkipper
	}
	if config.Registerer == nil {
		config.Registerer = prometheus.DefaultRegisterer
	}
	if config.Gatherer == nil {
		config.Gatherer = prometheus.DefaultGatherer
	}
	m, err := newHTTPMetrics(config)
	if err != nil {
		panic(err)
	}

	var serveMetrics echo.HandlerFunc
	if config.MetricsPath != "" {
		serveMetrics = echo.WrapHandler(promhttp.HandlerFor(config.Gatherer, promhttp.HandlerOpts{}))
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if serveMetrics != nil && c.Request().URL.Path == config.MetricsPath {
				return serveMetrics(c)
			}
			if config.Skipper(c) {
				return next(c)
			}

			path := c.Path()
			if isNotFoundHandler(c.Handler()) {
				path = notFoundPath
			}

			m.inFlight.Inc()
			defer m.inFlight.Dec()
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			code := c.Response().Status
			label := strconv.Itoa(code)
			if config.StatusClass {
				label = statusClass(code)
			}
			m.duration.WithLabelValues(label, c.Request().Method, path).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

func newHTTPMetrics(config MetricsConfig) (*httpMetrics, error) {
	duration, err := register(config.Registerer, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: config.Namespace,
		Subsystem: config.Subsystem,
		Name:      "request_duration_seconds",
		Help:      "Time spent processing a route.",
		Buckets:   config.Buckets,
	}, []string{"code", "method", "path"}))
	if err != nil {
		return nil, err
	}
	inFlight, err := register(config.Registerer, prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: config.Namespace,
		Subsystem: config.Subsystem,
		Name:      "requests_in_flight",
		Help:      "Requests currently being served.",
	}))
	if err != nil {
		return nil, err
	}
	return &httpMetrics{duration: duration, inFlight: inFlight}, nil
}

// register returns the collector already registered under the same
// descriptor, so building several echo instances in one process is fine.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	err := reg.Register(c)
	if err == nil {
		return c, nil
	}
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(C); ok {
			return existing, nil
		}
	}
	return c, err
}

func statusClass(code int) string {
	if code < http.StatusContinue || code > 599 {
		return "unknown"
	}
	return strconv.Itoa(code/100) + "xx"
}

func isNotFoundHandler(handler echo.HandlerFunc) bool {
	return reflect.ValueOf(handler).Pointer() == reflect.ValueOf(echo.NotFoundHandler).Pointer()
}
