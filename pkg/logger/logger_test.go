package logger

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturePublisher struct {
	mu      sync.Mutex
	topic   string
	digests []LogDigest
}

func (p *capturePublisher) PublishMessage(_ context.Context, topic string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topic = topic
	p.digests = append(p.digests, payload.(LogDigest))
	return nil
}

func (p *capturePublisher) entries() []AggregatedLogEntry {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []AggregatedLogEntry
	for _, d := range p.digests {
		out = append(out, d.Entries...)
	}
	return out
}

func TestNew_FileOutputJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	l, err := New(&Config{Level: "info", Format: "json", Output: path, MaxSizeMB: 1})
	require.NoError(t, err)

	l.Info("cycle complete", String("cycle_id", "c-1"), Int("records", 3), Float64("avg", 0.25))
	l.Debug("hidden")

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(b)
	assert.Contains(t, out, `"message":"cycle complete"`)
	assert.Contains(t, out, `"cycle_id":"c-1"`)
	assert.Contains(t, out, `"records":3`)
	assert.NotContains(t, out, "hidden")
}

func TestNew_InvalidLevel(t *testing.T) {
	_, err := New(&Config{Level: "loud", Output: "stdout"})
	assert.Error(t, err)
}

func TestCollector_AggregatesDuplicateErrors(t *testing.T) {
	pub := &capturePublisher{}
	l := NewNop()
	l.AddCollector(&CollectionConfig{
		Interval:    time.Hour,
		Topic:       "momentum.logs",
		Source:      "momentumpull",
		Publisher:   pub,
		IncludeWarn: true,
	})

	for i := 0; i < 3; i++ {
		l.Error("fetch failed", String("symbol", "BTCUSDT.P"), Error(errors.New("upstream 502")))
	}
	l.Warn("slow provider", String("symbol", "ETHUSDT.P"))
	l.Info("not collected")
	l.RemoveCollector()

	require.Eventually(t, func() bool { return len(pub.entries()) == 2 }, 2*time.Second, 10*time.Millisecond)

	counts := map[string]int{}
	for _, e := range pub.entries() {
		counts[e.Level+":"+e.Message] = e.Count
		assert.True(t, strings.HasSuffix(strings.Split(e.Caller, ":")[0], "logger_test.go"), e.Caller)
	}
	assert.Equal(t, 3, counts["error:fetch failed"])
	assert.Equal(t, 1, counts["warn:slow provider"])
	assert.Equal(t, "momentum.logs", pub.topic)
	require.Len(t, pub.digests, 1)
	assert.Equal(t, "momentumpull", pub.digests[0].Source)
	assert.False(t, pub.digests[0].WindowEnd.Before(pub.digests[0].WindowStart))
}

func TestCollector_EarlyFlushOnMaxEntries(t *testing.T) {
	pub := &capturePublisher{}
	c := NewLogCollector(&CollectionConfig{Interval: time.Hour, MaxEntries: 2, Publisher: pub})
	c.AddLog("error", "a", nil, "x.go:1")
	c.AddLog("error", "b", nil, "x.go:2")
	c.AddLog("error", "c", map[string]interface{}{"k": 1}, "x.go:3")
	c.Close()

	assert.Len(t, pub.entries(), 3)
	assert.Len(t, pub.digests, 2)
	assert.Equal(t, "a", pub.digests[0].Entries[0].Message)
	assert.Zero(t, c.Dropped())
}

func TestEntryKey_IgnoresFieldOrder(t *testing.T) {
	a := entryKey("error", "m", map[string]interface{}{"x": 1, "y": "z"}, "c")
	b := entryKey("error", "m", map[string]interface{}{"y": "z", "x": 1}, "c")
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, entryKey("warn", "m", map[string]interface{}{"x": 1, "y": "z"}, "c"))
}

func TestShortPath(t *testing.T) {
	assert.Equal(t, "usecase/cycle_runner.go", shortPath("/src/internal/usecase/cycle_runner.go"))
	assert.Equal(t, "main.go", shortPath("main.go"))
}

func TestFieldValues(t *testing.T) {
	assert.Equal(t, "a,b", Strings("s", []string{"a", "b"}).value())
	assert.Equal(t, int64(7), Int("n", 7).value())
	assert.Equal(t, true, Bool("ok", true).value())
	assert.Equal(t, "1.5s", Duration("took", 1500*time.Millisecond).value())
	assert.Equal(t, "boom", Error(errors.New("boom")).value())
	assert.Nil(t, Error(nil).value())
	assert.Equal(t, "2026-01-02T03:04:05Z", Time("at", time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)).value())
}

func TestNew_CallerPointsAtCallSite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "caller.log")
	l, err := New(&Config{Level: "debug", Output: path})
	require.NoError(t, err)

	l.Warn("slow", Duration("took", 250*time.Millisecond))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "logger_test.go")
	assert.Contains(t, string(b), `"took":250`)
}
