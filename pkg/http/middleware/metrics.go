package middleware

import (
	"strconv"
	"sync"
	"time"

	applogger "MomentumPull/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"path", "method", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"route", "method", "status", "class"},
	)

	httpInFlight = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "http_in_flight_requests",
			Help: "Current number of in-flight HTTP requests",
		},
		[]string{"route", "method"},
	)

	httpResponseSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_response_size_bytes",
			Help:    "HTTP response size in bytes",
			Buckets: []float64{200, 500, 1_000, 2_000, 5_000, 10_000, 50_000, 100_000, 500_000, 1_000_000},
		},
		[]string{"route", "method", "status", "class"},
	)

	regOnce sync.Once
)

// Metrics records request metrics labelled by the echo route template to keep cardinality low.
func Metrics(l *applogger.Logger, slowThreshold time.Duration) echo.MiddlewareFunc {
	regOnce.Do(func() {
		prometheus.MustRegister(httpRequestsTotal, httpRequestDuration, httpInFlight, httpResponseSize)
	})

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			method := c.Request().Method

			httpInFlight.WithLabelValues(route, method).Inc()
			start := time.Now()

			err := next(c)
			if err != nil {
				// let echo write the error so the status below is final
				c.Error(err)
			}

			res := c.Response()
			status := strconv.Itoa(res.Status)
			class := statusClass(res.Status)
			duration := time.Since(start)

			httpRequestsTotal.WithLabelValues(route, method, status).Inc()
			httpRequestDuration.WithLabelValues(route, method, status, class).Observe(duration.Seconds())
			httpResponseSize.WithLabelValues(route, method, status, class).Observe(float64(res.Size))
			httpInFlight.WithLabelValues(route, method).Dec()

			if l == nil {
				return nil
			}
			// Log 5xx as errors
			if res.Status >= 500 {
				l.Error("http request failed",
					applogger.String("route", route),
					applogger.String("method", method),
					applogger.String("status", status),
					applogger.Duration("duration_ms", duration),
					applogger.Int64("bytes", res.Size),
				)
				return nil
			}
			// Log slow requests as warnings
			if slowThreshold > 0 && duration >= slowThreshold {
				l.Warn("http request slow",
					applogger.String("route", route),
					applogger.String("method", method),
					applogger.String("status", status),
					applogger.Duration("duration_ms", duration),
					applogger.Int64("bytes", res.Size),
				)
			}
			return nil
		}
	}
}

func statusClass(code int) string {
	switch {
	case code >= 100 && code < 200:
		return "1xx"
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
