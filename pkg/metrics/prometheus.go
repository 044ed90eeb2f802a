package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	cyclesTotal   *prometheus.CounterVec
	cycleDuration prometheus.Histogram
	fetchesTotal  *prometheus.CounterVec
	errorsTotal   *prometheus.CounterVec
	latency       *prometheus.HistogramVec
	score         *prometheus.GaugeVec
	avgMomentum   prometheus.Gauge
	errorSymbols  prometheus.Gauge
}

// New creates a recorder registered on the default Prometheus registry.
func New() *Recorder {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry registers the collectors on reg.
func NewWithRegistry(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		cyclesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "momentum_cycles_total",
				Help: "Aggregation cycles by result",
			},
			[]string{"result"},
		),
		cycleDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "momentum_cycle_duration_seconds",
				Help:    "Wall time of one aggregation cycle",
				Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
			},
		),
		fetchesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "momentum_fetches_total",
				Help: "Rating fetches by source (cache_hit, provider, error)",
			},
			[]string{"result"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "momentum_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "momentum_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		score: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "momentum_score",
				Help: "Latest momentum score per instrument",
			},
			[]string{"symbol"},
		),
		avgMomentum: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "momentum_average",
				Help: "Average momentum of the latest persisted cycle",
			},
		),
		errorSymbols: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "momentum_error_instruments",
				Help: "Instruments without any rating in the latest cycle",
			},
		),
	}
}

func (r *Recorder) RecordCycle(result string, seconds float64) {
	r.cyclesTotal.WithLabelValues(result).Inc()
	r.cycleDuration.Observe(seconds)
}

func (r *Recorder) RecordFetch(result string) {
	r.fetchesTotal.WithLabelValues(result).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

func (r *Recorder) RecordScore(symbol string, score float64) {
	r.score.WithLabelValues(symbol).Set(score)
}

func (r *Recorder) RecordAverage(avg float64) {
	r.avgMomentum.Set(avg)
}

func (r *Recorder) RecordErrorSymbols(n int) {
	r.errorSymbols.Set(float64(n))
}
