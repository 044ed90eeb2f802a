package analytics

import (
	"sort"

	"MomentumPull/internal/domain/models"
)

// FilterBands selects latest-cycle instruments whose score and change both
// fall in a band. Values are compared at display precision (2 decimals).
// Positive matches are sorted by change descending, negative ascending.
func FilterBands(records []models.SnapshotRecord, positive, negative models.Band) models.BandMatches {
	res := models.BandMatches{Positive: []models.RankedScore{}, Negative: []models.RankedScore{}}

	latestTS, latest := LatestCycle(records)
	if len(latest) == 0 {
		return res
	}
	for _, rs := range withChanges(latest, PreviousScores(records, latestTS)) {
		score, change := Round2(rs.MomentumScore), Round2(rs.Change)
		if inBand(positive, score, change) {
			res.Positive = append(res.Positive, rs)
		}
		if inBand(negative, score, change) {
			res.Negative = append(res.Negative, rs)
		}
	}
	sort.SliceStable(res.Positive, func(i, j int) bool { return res.Positive[i].Change > res.Positive[j].Change })
	sort.SliceStable(res.Negative, func(i, j int) bool { return res.Negative[i].Change < res.Negative[j].Change })
	return res
}

func inBand(b models.Band, score, change float64) bool {
	return b.Score.Contains(score) && b.Change.Contains(change)
}
