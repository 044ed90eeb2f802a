package analytics

import (
	"sort"
	"time"

	"MomentumPull/internal/domain/models"
)

const DefaultRegimeHalfWidth = 0.5

// ClassifyRegime labels an average momentum value against a symmetric band.
func ClassifyRegime(v, halfWidth float64) models.Regime {
	switch {
	case v > halfWidth:
		return models.RegimeBullish
	case v < -halfWidth:
		return models.RegimeBearish
	default:
		return models.RegimeNeutral
	}
}

// AverageSeries returns one point per cycle timestamp, oldest first, using
// the average stored with that cycle's records.
func AverageSeries(records []models.SnapshotRecord, regimeHalfWidth float64) []models.SeriesPoint {
	byTS := make(map[time.Time]float64)
	for _, r := range records {
		ts := r.Timestamp.UTC()
		if _, ok := byTS[ts]; !ok {
			byTS[ts] = r.AverageMomentum
		}
	}
	out := make([]models.SeriesPoint, 0, len(byTS))
	for ts, v := range byTS {
		out = append(out, models.SeriesPoint{Timestamp: ts, Value: v, Regime: ClassifyRegime(v, regimeHalfWidth)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out
}

// SymbolSeries returns the score history of each requested symbol since cutoff.
// Symbols without records map to an empty series.
func SymbolSeries(records []models.SnapshotRecord, symbols []string, cutoff time.Time) map[string][]models.SeriesPoint {
	out := make(map[string][]models.SeriesPoint, len(symbols))
	want := make(map[string]bool, len(symbols))
	for _, s := range symbols {
		want[s] = true
		out[s] = []models.SeriesPoint{}
	}
	for _, r := range records {
		if !want[r.Symbol] || r.Timestamp.Before(cutoff) {
			continue
		}
		out[r.Symbol] = append(out[r.Symbol], models.SeriesPoint{Timestamp: r.Timestamp, Value: r.MomentumScore})
	}
	for _, pts := range out {
		sort.SliceStable(pts, func(i, j int) bool { return pts[i].Timestamp.Before(pts[j].Timestamp) })
	}
	return out
}

// Series builds the average series over records plus per-symbol series
// for the last hours ending at now.
func Series(records []models.SnapshotRecord, symbols []string, hours int, now time.Time, regimeHalfWidth float64) models.MomentumSeries {
	cutoff := now.Add(-time.Duration(hours) * time.Hour)
	res := models.MomentumSeries{Average: AverageSeries(Since(records, cutoff), regimeHalfWidth)}
	if len(symbols) > 0 {
		res.Symbols = SymbolSeries(records, symbols, cutoff)
	}
	return res
}
