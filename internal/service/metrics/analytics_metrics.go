package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	AnalyticsLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "momentum",
			Subsystem: "analytics",
			Name:      "latency_seconds",
			Help:      "Latency of analytics computations and endpoints",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	AnalyticsErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "momentum",
			Subsystem: "analytics",
			Name:      "errors_total",
			Help:      "Errors by analytics endpoint",
		},
		[]string{"endpoint"},
	)

	DashboardSubscribers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "momentum",
			Subsystem: "analytics",
			Name:      "dashboard_subscribers",
			Help:      "Connected dashboard websocket clients",
		},
	)
)

func Register() {
	once.Do(func() {
		prometheus.MustRegister(AnalyticsLatency, AnalyticsErrors, DashboardSubscribers)
	})
}

// ObserveSince records the elapsed time for endpoint.
func ObserveSince(endpoint string, start time.Time) {
	AnalyticsLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
}
