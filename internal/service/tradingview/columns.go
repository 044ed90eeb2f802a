package tradingview

import (
	"fmt"

	"MomentumPull/internal/domain/models"
)

var intervalSuffix = map[models.Timeframe]string{
	models.TF1m:  "|1",
	models.TF5m:  "|5",
	models.TF15m: "|15",
	models.TF30m: "|30",
	models.TF1h:  "|60",
	models.TF2h:  "|120",
	models.TF4h:  "|240",
	models.TF1d:  "",
	models.TF1W:  "|1W",
	models.TF1M:  "|1M",
}

// columns lists the scanner columns requested for one timeframe, in response order.
func columns(tf models.Timeframe) ([]string, error) {
	suffix, ok := intervalSuffix[tf]
	if !ok {
		return nil, fmt.Errorf("no scanner interval for timeframe %q", tf)
	}
	return []string{
		"Recommend.All" + suffix,
		"close" + suffix,
		"high" + suffix,
		"low" + suffix,
		"volume" + suffix,
	}, nil
}

// RecommendationFromValue buckets the scanner's aggregate recommendation value.
func RecommendationFromValue(v float64) models.Rating {
	switch {
	case v < -0.5:
		return models.RatingStrongSell
	case v < -0.1:
		return models.RatingSell
	case v <= 0.1:
		return models.RatingNeutral
	case v <= 0.5:
		return models.RatingBuy
	default:
		return models.RatingStrongBuy
	}
}
