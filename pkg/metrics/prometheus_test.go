package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewWithRegistry(reg)

	r.RecordCycle("ok", 2.5)
	r.RecordCycle("error", 1)
	r.RecordFetch("cache_hit")
	r.RecordFetch("cache_hit")
	r.RecordScore("BTCUSDT.P", 1.4)
	r.RecordAverage(0.3)
	r.RecordErrorSymbols(2)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.cyclesTotal.WithLabelValues("ok")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.fetchesTotal.WithLabelValues("cache_hit")))
	assert.Equal(t, 1.4, testutil.ToFloat64(r.score.WithLabelValues("BTCUSDT.P")))
	assert.Equal(t, 0.3, testutil.ToFloat64(r.avgMomentum))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.errorSymbols))
}
