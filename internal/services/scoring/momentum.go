package scoring

import (
	"MomentumPull/internal/domain/models"
)

// Scorer folds per-timeframe ratings into a single weighted momentum score.
type Scorer struct {
	timeframes    []models.WeightedTimeframe
	ratingWeights map[models.Rating]float64
}

// NewScorer builds a Scorer. Nil rating weights fall back to the ordinal defaults.
func NewScorer(timeframes []models.WeightedTimeframe, ratingWeights map[models.Rating]float64) *Scorer {
	if ratingWeights == nil {
		ratingWeights = models.DefaultRatingWeights()
	}
	return &Scorer{timeframes: timeframes, ratingWeights: ratingWeights}
}

// Timeframes returns the configured weighted timeframes in order.
func (s *Scorer) Timeframes() []models.WeightedTimeframe {
	return s.timeframes
}

// Score returns ok=false when no configured timeframe has a rating.
func (s *Scorer) Score(ratings map[models.Timeframe]models.Rating) (float64, bool) {
	return Score(ratings, s.timeframes, s.ratingWeights)
}

// Score computes sum(weight[tf] * ordinal(rating[tf])) over the timeframes
// present in ratings. Timeframes missing from ratings are absent and skipped;
// a rating unknown to ratingWeights is treated the same way.
func Score(ratings map[models.Timeframe]models.Rating, timeframes []models.WeightedTimeframe, ratingWeights map[models.Rating]float64) (float64, bool) {
	var (
		sum   float64
		found bool
	)
	for _, wt := range timeframes {
		r, ok := ratings[wt.Timeframe]
		if !ok {
			continue
		}
		ordinal, known := ratingWeights[r]
		if !known {
			continue
		}
		sum += wt.Weight * ordinal
		found = true
	}
	return sum, found
}
