package analytics

import (
	"fmt"
	"testing"
	"time"

	"MomentumPull/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func rec(sym string, score float64, ts time.Time) models.SnapshotRecord {
	return models.SnapshotRecord{Symbol: sym, MomentumScore: score, Timestamp: ts}
}

func TestRank_TopAndBottomOfThirty(t *testing.T) {
	var records []models.SnapshotRecord
	for i := 0; i < 30; i++ {
		records = append(records, rec(fmt.Sprintf("S%02d", i), float64(i)/10-1.5, t0))
	}

	r := Rank(records, 20)
	require.Len(t, r.Long, 20)
	require.Len(t, r.Short, 20)

	assert.Equal(t, "S29", r.Long[0].Symbol)
	assert.Equal(t, "S10", r.Long[19].Symbol)
	for i := 1; i < len(r.Long); i++ {
		assert.GreaterOrEqual(t, r.Long[i-1].MomentumScore, r.Long[i].MomentumScore)
	}
	assert.Equal(t, "S00", r.Short[0].Symbol)
	assert.Equal(t, "S19", r.Short[19].Symbol)
	for i := 1; i < len(r.Short); i++ {
		assert.LessOrEqual(t, r.Short[i-1].MomentumScore, r.Short[i].MomentumScore)
	}
}

func TestRank_FewerThanNReturnsAll(t *testing.T) {
	r := Rank([]models.SnapshotRecord{rec("A", 1, t0), rec("B", -1, t0)}, 20)
	assert.Len(t, r.Long, 2)
	assert.Len(t, r.Short, 2)
	assert.Equal(t, "A", r.Long[0].Symbol)
	assert.Equal(t, "B", r.Short[0].Symbol)
}

func TestRank_ChangeUsesMostRecentEarlierRecord(t *testing.T) {
	records := []models.SnapshotRecord{
		rec("A", 0.2, t0.Add(-2*time.Minute)),
		rec("A", 0.5, t0.Add(-time.Minute)),
		rec("A", 1.2, t0),
		rec("B", -0.3, t0),
	}
	r := Rank(records, 20)
	require.Len(t, r.Long, 2)

	a := r.Long[0]
	assert.Equal(t, "A", a.Symbol)
	require.NotNil(t, a.PreviousScore)
	assert.InDelta(t, 0.5, *a.PreviousScore, 1e-9)
	assert.InDelta(t, 0.7, a.Change, 1e-9)

	b := r.Long[1]
	assert.Nil(t, b.PreviousScore)
	assert.InDelta(t, -0.3, b.Change, 1e-9)
	assert.InDelta(t, (0.7-0.3)/2, r.AvgChangeLong, 1e-9)
}

func TestRank_OnlyLatestCycleIsRanked(t *testing.T) {
	records := []models.SnapshotRecord{
		rec("OLD", 5, t0.Add(-time.Minute)),
		rec("A", 1, t0),
	}
	r := Rank(records, 20)
	require.Len(t, r.Long, 1)
	assert.Equal(t, "A", r.Long[0].Symbol)
}

func TestFilterBands(t *testing.T) {
	prev := t0.Add(-time.Minute)
	records := []models.SnapshotRecord{
		rec("UP1", -1.0, prev), rec("UP1", 0.3, t0), // change 1.3
		rec("UP2", -1.1, prev), rec("UP2", 0.4, t0), // change 1.5, on the closed edge
		rec("UP3", -0.9, prev), rec("UP3", 0.3, t0), // change 1.2
		rec("OUT", -2.0, prev), rec("OUT", 0.3, t0), // change 2.3
		rec("DN1", 1.0, prev), rec("DN1", -0.2, t0), // change -1.2
		rec("DN2", 1.3, prev), rec("DN2", -0.1, t0), // change -1.4
		rec("NEW", 0.2, t0), // no previous: change 0.2
	}
	got := FilterBands(records, models.DefaultPositiveBand(), models.DefaultNegativeBand())

	var pos, neg []string
	for _, r := range got.Positive {
		pos = append(pos, r.Symbol)
	}
	for _, r := range got.Negative {
		neg = append(neg, r.Symbol)
	}
	assert.Equal(t, []string{"UP2", "UP1", "UP3"}, pos)
	assert.Equal(t, []string{"DN2", "DN1"}, neg)
}

func TestFilterBands_OpenEndpointExcludesEdge(t *testing.T) {
	prev := t0.Add(-time.Minute)
	records := []models.SnapshotRecord{rec("UP2", -1.1, prev), rec("UP2", 0.4, t0)}

	band := models.DefaultPositiveBand()
	band.Score.MaxOpen = true
	got := FilterBands(records, band, models.DefaultNegativeBand())
	assert.Empty(t, got.Positive)
}

func TestDetectCrossovers(t *testing.T) {
	prev := t0.Add(-time.Minute)
	records := []models.SnapshotRecord{
		rec("UP", -1, prev), rec("UP", 1, t0),
		rec("DOWN", 1, prev), rec("DOWN", -1, t0),
		rec("FLAT", 0.7, prev), rec("FLAT", 0.8, t0),
		rec("SINGLE", 3, t0),
	}
	// mean = (0 + 0 + 1.5 + 3) / 7
	got := DetectCrossovers(records, 0)
	assert.InDelta(t, 4.5/7, got.AverageMomentum, 1e-9)

	require.Len(t, got.Up, 1)
	assert.Equal(t, "UP", got.Up[0].Symbol)
	assert.Equal(t, -1.0, got.Up[0].PreviousScore)
	require.Len(t, got.Down, 1)
	assert.Equal(t, "DOWN", got.Down[0].Symbol)
}

func TestDetectCrossovers_Edges(t *testing.T) {
	prev := t0.Add(-time.Minute)
	cases := []struct {
		name      string
		records   []models.SnapshotRecord
		halfWidth float64
		avg       float64
		up, down  []string
	}{
		{
			name:    "two points from -1 to +1 around zero",
			records: []models.SnapshotRecord{rec("A", -1, prev), rec("A", 1, t0)},
			up:      []string{"A"},
		},
		{
			name:    "two points from +1 to -1 around zero",
			records: []models.SnapshotRecord{rec("A", 1, prev), rec("A", -1, t0)},
			down:    []string{"A"},
		},
		{
			name:    "flat on the average",
			records: []models.SnapshotRecord{rec("A", 0.3, prev), rec("A", 0.3, t0)},
			avg:     0.3,
		},
		{
			name: "previous exactly on the average is not below it",
			records: []models.SnapshotRecord{
				rec("A", 0, prev), rec("A", 1, t0),
				rec("B", 0, prev), rec("B", -1, t0),
			},
		},
		{
			name: "instrument missing from the latest cycle is ignored",
			records: []models.SnapshotRecord{
				rec("STALE", -1, prev.Add(-time.Minute)), rec("STALE", 1, prev),
				rec("A", 0, prev), rec("A", 0, t0),
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := DetectCrossovers(tc.records, tc.halfWidth)
			assert.InDelta(t, tc.avg, got.AverageMomentum, 1e-9)
			assert.Equal(t, tc.up, symbolsOf(got.Up))
			assert.Equal(t, tc.down, symbolsOf(got.Down))
		})
	}
}

func symbolsOf(cs []models.Crossover) []string {
	var out []string
	for _, c := range cs {
		out = append(out, c.Symbol)
	}
	return out
}

func TestDetectCrossovers_EqualsAverageCountsAsCrossed(t *testing.T) {
	prev := t0.Add(-time.Minute)
	// mean is 0; current sits exactly on it
	records := []models.SnapshotRecord{rec("A", -1, prev), rec("A", 0, t0), rec("B", 1, prev), rec("B", 0, t0)}
	got := DetectCrossovers(records, 0)
	require.Len(t, got.Up, 1)
	assert.Equal(t, "A", got.Up[0].Symbol)
	require.Len(t, got.Down, 1)
	assert.Equal(t, "B", got.Down[0].Symbol)
}

func TestDetectCrossovers_DeadBandSuppressesSmallMoves(t *testing.T) {
	prev := t0.Add(-time.Minute)
	records := []models.SnapshotRecord{
		rec("SMALL", -0.1, prev), rec("SMALL", 0.1, t0),
		rec("BIG", -1, prev), rec("BIG", 1, t0),
		rec("MIRROR", 0.0, prev), rec("MIRROR", 0.0, t0),
	}
	got := DetectCrossovers(records, 0.5)
	require.Len(t, got.Up, 1)
	assert.Equal(t, "BIG", got.Up[0].Symbol)
}

func TestDetectCrossovers_UnorderedInput(t *testing.T) {
	prev := t0.Add(-time.Minute)
	records := []models.SnapshotRecord{rec("A", 2, t0), rec("B", 0, t0), rec("A", -2, prev), rec("B", 0, prev)}
	got := DetectCrossovers(records, 0)
	require.Len(t, got.Up, 1)
	assert.Equal(t, "A", got.Up[0].Symbol)
	assert.Equal(t, 2.0, got.Up[0].MomentumScore)
}

func TestEmptyHistory(t *testing.T) {
	r := Rank(nil, 20)
	assert.Empty(t, r.Long)
	assert.Empty(t, r.Short)
	assert.NotNil(t, r.Long)

	b := FilterBands(nil, models.DefaultPositiveBand(), models.DefaultNegativeBand())
	assert.Empty(t, b.Positive)
	assert.Empty(t, b.Negative)

	c := DetectCrossovers(nil, 0)
	assert.Empty(t, c.Up)
	assert.Empty(t, c.Down)

	assert.Empty(t, AverageSeries(nil, 0.5))
}

func TestAverageSeriesAndRegime(t *testing.T) {
	records := []models.SnapshotRecord{
		{Symbol: "A", Timestamp: t0.Add(2 * time.Minute), AverageMomentum: -0.7},
		{Symbol: "A", Timestamp: t0, AverageMomentum: 0.8},
		{Symbol: "B", Timestamp: t0, AverageMomentum: 0.8},
		{Symbol: "A", Timestamp: t0.Add(time.Minute), AverageMomentum: 0.5},
	}
	pts := AverageSeries(records, 0.5)
	require.Len(t, pts, 3)
	assert.Equal(t, models.RegimeBullish, pts[0].Regime)
	assert.Equal(t, models.RegimeNeutral, pts[1].Regime)
	assert.Equal(t, models.RegimeBearish, pts[2].Regime)
	assert.True(t, pts[0].Timestamp.Before(pts[1].Timestamp))
}

func TestSeries_WindowsBySymbol(t *testing.T) {
	now := t0
	records := []models.SnapshotRecord{
		{Symbol: "BTCUSDT.P", MomentumScore: 1, Timestamp: now.Add(-7 * time.Hour)},
		{Symbol: "BTCUSDT.P", MomentumScore: 2, Timestamp: now.Add(-time.Hour)},
		{Symbol: "ETHUSDT.P", MomentumScore: 3, Timestamp: now.Add(-time.Hour)},
	}
	s := Series(records, []string{"BTCUSDT.P", "COMBOUSDT.P"}, 6, now, 0.5)
	assert.Len(t, s.Average, 1)
	require.Len(t, s.Symbols["BTCUSDT.P"], 1)
	assert.Equal(t, 2.0, s.Symbols["BTCUSDT.P"][0].Value)
	assert.Empty(t, s.Symbols["COMBOUSDT.P"])
	_, ok := s.Symbols["ETHUSDT.P"]
	assert.False(t, ok)
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 1.24, Round2(1.2351))
	assert.Equal(t, -0.1, Round2(-0.104))
}
