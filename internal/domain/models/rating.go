package models

import (
	"fmt"
	"strings"
	"time"
)

// Rating is the categorical directional signal for one instrument/timeframe pair.
type Rating string

const (
	RatingStrongSell Rating = "STRONG_SELL"
	RatingSell       Rating = "SELL"
	RatingNeutral    Rating = "NEUTRAL"
	RatingBuy        Rating = "BUY"
	RatingStrongBuy  Rating = "STRONG_BUY"
)

// ParseRating normalizes a provider recommendation. Anything outside the
// five known values is rejected so callers can treat it as absent.
func ParseRating(s string) (Rating, error) {
	r := Rating(strings.ToUpper(strings.TrimSpace(s)))
	switch r {
	case RatingStrongSell, RatingSell, RatingNeutral, RatingBuy, RatingStrongBuy:
		return r, nil
	default:
		return "", fmt.Errorf("unknown rating %q", s)
	}
}

// DefaultRatingWeights maps each rating to its ordinal score.
func DefaultRatingWeights() map[Rating]float64 {
	return map[Rating]float64{
		RatingStrongSell: -2,
		RatingSell:       -1,
		RatingNeutral:    0,
		RatingBuy:        1,
		RatingStrongBuy:  2,
	}
}

// Indicators holds the handful of numeric fields kept from a provider response.
type Indicators struct {
	Close  float64 `json:"close"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Volume float64 `json:"volume"`
}

// Analysis is the typed result of one provider call.
type Analysis struct {
	Symbol         string     `json:"symbol"`
	Exchange       string     `json:"exchange"`
	Screener       string     `json:"screener"`
	Timeframe      Timeframe  `json:"timeframe"`
	Recommendation Rating     `json:"recommendation"`
	RecommendAll   float64    `json:"recommend_all"`
	Indicators     Indicators `json:"indicators"`
	FetchedAt      time.Time  `json:"fetched_at"`
}

// SignalKey identifies a cached rating.
type SignalKey struct {
	Symbol    string
	Exchange  string
	Screener  string
	Timeframe Timeframe
}

func (k SignalKey) String() string {
	return fmt.Sprintf("%s_%s_%s_%s", k.Symbol, k.Exchange, k.Screener, k.Timeframe)
}
