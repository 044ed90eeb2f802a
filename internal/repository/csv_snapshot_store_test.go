package repository

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"MomentumPull/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func batchAt(ts time.Time, avg float64, scores map[string]float64, order ...string) []models.SnapshotRecord {
	out := make([]models.SnapshotRecord, 0, len(order))
	for _, sym := range order {
		out = append(out, models.SnapshotRecord{Symbol: sym, MomentumScore: scores[sym], Timestamp: ts, AverageMomentum: avg})
	}
	return out
}

func TestCSVStore_MissingFileIsEmpty(t *testing.T) {
	s := NewCSVSnapshotStore(filepath.Join(t.TempDir(), "none.csv"), nil)
	got, err := s.ReadAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCSVStore_AppendTwoBatchesConcatenates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "momentum_scores.csv")
	s := NewCSVSnapshotStore(path, nil)
	ctx := context.Background()

	t1 := time.Date(2024, 4, 1, 9, 0, 0, 123456000, time.UTC)
	t2 := t1.Add(time.Minute)
	b1 := batchAt(t1, 0.5, map[string]float64{"A": 1, "B": 0}, "A", "B")
	b2 := batchAt(t2, -0.25, map[string]float64{"A": -0.1, "C": -0.4}, "A", "C")

	require.NoError(t, s.Append(ctx, b1))
	require.NoError(t, s.Append(ctx, b2))

	got, err := s.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, got, 4)
	assert.Equal(t, append(append([]models.SnapshotRecord{}, b1...), b2...), got)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(raw), "Symbol,Momentum Score,Timestamp,Average Momentum"))
	assert.True(t, strings.HasPrefix(string(raw), "Symbol,Momentum Score,Timestamp,Average Momentum\n"))
}

func TestCSVStore_EmptyBatchWritesNothing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scores.csv")
	s := NewCSVSnapshotStore(path, nil)
	require.NoError(t, s.Append(context.Background(), nil))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestCSVStore_ReadSince(t *testing.T) {
	s := NewCSVSnapshotStore(filepath.Join(t.TempDir(), "scores.csv"), nil)
	ctx := context.Background()
	t1 := time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, s.Append(ctx, batchAt(t1, 1, map[string]float64{"A": 1}, "A")))
	require.NoError(t, s.Append(ctx, batchAt(t1.Add(time.Hour), 2, map[string]float64{"A": 2}, "A")))

	got, err := s.ReadSince(ctx, t1.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 2.0, got[0].MomentumScore)
}

func TestCSVStore_LegacyTimestampsAndPartialLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legacy.csv")
	content := "Symbol,Momentum Score,Timestamp,Average Momentum\n" +
		"BTCUSDT.P,0.7000000000000001,2024-05-01 08:30:00.123456+00:00,0.35\n" +
		"ETHUSDT.P,0.0,2024-05-01 08:30:00.123456+00:00,0.35\n" +
		"SOLUSDT.P,1.2,2024-05-01 08:31:00.1"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	s := NewCSVSnapshotStore(path, nil)
	got, err := s.ReadAll(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "BTCUSDT.P", got[0].Symbol)
	assert.InDelta(t, 0.7, got[0].MomentumScore, 1e-9)
	assert.Equal(t, time.Date(2024, 5, 1, 8, 30, 0, 123456000, time.UTC), got[0].Timestamp)
	assert.Equal(t, 0.35, got[1].AverageMomentum)
}

func TestCSVStore_AppendAfterLegacyKeepsSingleHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legacy.csv")
	require.NoError(t, os.WriteFile(path, []byte("Symbol,Momentum Score,Timestamp,Average Momentum\nA,1,2024-05-01 08:30:00+00:00,1\n"), 0o644))

	s := NewCSVSnapshotStore(path, nil)
	ts := time.Date(2024, 5, 1, 8, 31, 0, 0, time.UTC)
	require.NoError(t, s.Append(context.Background(), batchAt(ts, 2, map[string]float64{"B": 2}, "B")))

	got, err := s.ReadAll(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "B", got[1].Symbol)
}

func TestCSVStore_AppendAfterTornTailDropsPartialLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "torn.csv")
	content := "Symbol,Momentum Score,Timestamp,Average Momentum\n" +
		"A,0.5,2024-03-01T10:00:00Z,0.5\n" +
		"B,0.3,2024-03-01T10:0"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	s := NewCSVSnapshotStore(path, nil)
	ts := time.Date(2024, 3, 1, 10, 5, 0, 0, time.UTC)
	require.NoError(t, s.Append(context.Background(), batchAt(ts, 1, map[string]float64{"C": 1}, "C")))

	got, err := s.ReadAll(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "A", got[0].Symbol)
	assert.Equal(t, "C", got[1].Symbol)
	assert.Equal(t, ts, got[1].Timestamp)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(b), "B,0.3")
}

func TestCSVStore_AppendAfterTornHeaderRewritesHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "torn_header.csv")
	require.NoError(t, os.WriteFile(path, []byte("Symbol,Momen"), 0o644))

	s := NewCSVSnapshotStore(path, nil)
	ts := time.Date(2024, 3, 1, 10, 5, 0, 0, time.UTC)
	require.NoError(t, s.Append(context.Background(), batchAt(ts, 2, map[string]float64{"A": 2}, "A")))

	got, err := s.ReadAll(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "A", got[0].Symbol)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(b), "Symbol,Momentum Score,Timestamp,Average Momentum\n"))
}

func TestLastNewlineEnd_SpansChunks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "long.csv")
	content := "head\n" + strings.Repeat("x", 10000)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	keep, err := lastNewlineEnd(f, int64(len(content)))
	require.NoError(t, err)
	assert.Equal(t, int64(5), keep)
}

func TestCSVStore_MalformedRowIsError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.csv")
	require.NoError(t, os.WriteFile(path, []byte("Symbol,Momentum Score,Timestamp,Average Momentum\nA,notanumber,2024-05-01T08:30:00Z,1\n"), 0o644))

	_, err := NewCSVSnapshotStore(path, nil).ReadAll(context.Background())
	assert.Error(t, err)
}

func TestCSVStore_ConcurrentReadersSeeWholeBatches(t *testing.T) {
	s := NewCSVSnapshotStore(filepath.Join(t.TempDir(), "scores.csv"), nil)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 20; i++ {
			ts := base.Add(time.Duration(i) * time.Minute)
			_ = s.Append(ctx, batchAt(ts, 0, map[string]float64{"A": 1, "B": 2, "C": 3}, "A", "B", "C"))
		}
	}()
	for i := 0; i < 20; i++ {
		got, err := s.ReadAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, len(got)%3)
	}
	wg.Wait()
}
