package analytics

import (
	"math"
	"sort"
	"time"

	"MomentumPull/internal/domain/models"
)

// Round2 rounds to the two decimals scores are displayed with.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Since keeps records with Timestamp >= cutoff.
func Since(records []models.SnapshotRecord, cutoff time.Time) []models.SnapshotRecord {
	out := make([]models.SnapshotRecord, 0, len(records))
	for _, r := range records {
		if !r.Timestamp.Before(cutoff) {
			out = append(out, r)
		}
	}
	return out
}

// LatestCycle returns the newest timestamp and the records stamped with it.
func LatestCycle(records []models.SnapshotRecord) (time.Time, []models.SnapshotRecord) {
	var latest time.Time
	for _, r := range records {
		if r.Timestamp.After(latest) {
			latest = r.Timestamp
		}
	}
	if latest.IsZero() {
		return latest, nil
	}
	out := make([]models.SnapshotRecord, 0)
	for _, r := range records {
		if r.Timestamp.Equal(latest) {
			out = append(out, r)
		}
	}
	return latest, out
}

// PreviousScores maps each symbol to its most recent score strictly before latest.
func PreviousScores(records []models.SnapshotRecord, latest time.Time) map[string]float64 {
	prevTS := make(map[string]time.Time)
	out := make(map[string]float64)
	for _, r := range records {
		if !r.Timestamp.Before(latest) {
			continue
		}
		if ts, ok := prevTS[r.Symbol]; !ok || r.Timestamp.After(ts) {
			prevTS[r.Symbol] = r.Timestamp
			out[r.Symbol] = r.MomentumScore
		}
	}
	return out
}

// bySymbol groups records per symbol, each group ordered by timestamp.
func bySymbol(records []models.SnapshotRecord) map[string][]models.SnapshotRecord {
	out := make(map[string][]models.SnapshotRecord)
	for _, r := range records {
		out[r.Symbol] = append(out[r.Symbol], r)
	}
	for _, rs := range out {
		sort.SliceStable(rs, func(i, j int) bool { return rs[i].Timestamp.Before(rs[j].Timestamp) })
	}
	return out
}

// withChanges enriches latest-cycle records with their previous score and change.
func withChanges(latest []models.SnapshotRecord, prev map[string]float64) []models.RankedScore {
	out := make([]models.RankedScore, 0, len(latest))
	for _, r := range latest {
		rs := models.RankedScore{
			Symbol:        r.Symbol,
			MomentumScore: r.MomentumScore,
			Change:        r.MomentumScore,
			Timestamp:     r.Timestamp,
		}
		if p, ok := prev[r.Symbol]; ok {
			p := p
			rs.PreviousScore = &p
			rs.Change = r.MomentumScore - p
		}
		out = append(out, rs)
	}
	return out
}
