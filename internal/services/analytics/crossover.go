package analytics

import (
	"sort"

	"MomentumPull/internal/domain/models"
)

// DetectCrossovers compares the score of each instrument in the latest
// cycle, and its previous score, against the mean of every score in records. halfWidth widens
// the crossing line into a dead band; zero means a plain crossing.
func DetectCrossovers(records []models.SnapshotRecord, halfWidth float64) models.Crossovers {
	res := models.Crossovers{Up: []models.Crossover{}, Down: []models.Crossover{}}
	if len(records) == 0 {
		return res
	}

	var sum float64
	for _, r := range records {
		sum += r.MomentumScore
	}
	avg := sum / float64(len(records))
	res.AverageMomentum = avg

	latest, _ := LatestCycle(records)
	lo, hi := avg-halfWidth, avg+halfWidth
	for sym, rs := range bySymbol(records) {
		if len(rs) < 2 {
			continue
		}
		cur, prev := rs[len(rs)-1], rs[len(rs)-2]
		// an instrument absent from the latest cycle has no current score
		if !cur.Timestamp.Equal(latest) {
			continue
		}
		c := models.Crossover{
			Symbol:        sym,
			MomentumScore: cur.MomentumScore,
			PreviousScore: prev.MomentumScore,
			Timestamp:     cur.Timestamp,
		}
		switch {
		case prev.MomentumScore < lo && cur.MomentumScore >= hi:
			res.Up = append(res.Up, c)
		case prev.MomentumScore > hi && cur.MomentumScore <= lo:
			res.Down = append(res.Down, c)
		}
	}

	sort.Slice(res.Up, func(i, j int) bool {
		if res.Up[i].MomentumScore != res.Up[j].MomentumScore {
			return res.Up[i].MomentumScore > res.Up[j].MomentumScore
		}
		return res.Up[i].Symbol < res.Up[j].Symbol
	})
	sort.Slice(res.Down, func(i, j int) bool {
		if res.Down[i].MomentumScore != res.Down[j].MomentumScore {
			return res.Down[i].MomentumScore < res.Down[j].MomentumScore
		}
		return res.Down[i].Symbol < res.Down[j].Symbol
	})
	return res
}
