package analytics

import (
	"sort"

	"MomentumPull/internal/domain/models"
)

const DefaultTopN = 20

// Rank orders the latest cycle by score. Long is the top n descending,
// Short the bottom n ascending (most negative first). With fewer than n
// instruments both lists hold every instrument.
func Rank(records []models.SnapshotRecord, n int) models.Rankings {
	if n <= 0 {
		n = DefaultTopN
	}
	res := models.Rankings{Long: []models.RankedScore{}, Short: []models.RankedScore{}}

	latestTS, latest := LatestCycle(records)
	if len(latest) == 0 {
		return res
	}
	scored := withChanges(latest, PreviousScores(records, latestTS))
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].MomentumScore != scored[j].MomentumScore {
			return scored[i].MomentumScore > scored[j].MomentumScore
		}
		return scored[i].Symbol < scored[j].Symbol
	})

	k := n
	if k > len(scored) {
		k = len(scored)
	}
	res.Long = append(res.Long, scored[:k]...)
	for i := len(scored) - 1; i >= len(scored)-k; i-- {
		res.Short = append(res.Short, scored[i])
	}
	res.AvgChangeLong = meanChange(res.Long)
	res.AvgChangeShort = meanChange(res.Short)
	return res
}

func meanChange(rs []models.RankedScore) float64 {
	if len(rs) == 0 {
		return 0
	}
	var sum float64
	for _, r := range rs {
		sum += r.Change
	}
	return sum / float64(len(rs))
}
