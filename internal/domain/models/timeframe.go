package models

import "fmt"

// Timeframe represents the resolution a technical rating is computed over.
type Timeframe string

const (
	TF1m  Timeframe = "1m"
	TF5m  Timeframe = "5m"
	TF15m Timeframe = "15m"
	TF30m Timeframe = "30m"
	TF1h  Timeframe = "1h"
	TF2h  Timeframe = "2h"
	TF4h  Timeframe = "4h"
	TF1d  Timeframe = "1d"
	TF1W  Timeframe = "1W"
	TF1M  Timeframe = "1M"
)

// timeframeOrder is the canonical shortest-to-longest ordering.
var timeframeOrder = []Timeframe{TF1m, TF5m, TF15m, TF30m, TF1h, TF2h, TF4h, TF1d, TF1W, TF1M}

// Timeframes returns all supported timeframes, shortest first.
func Timeframes() []Timeframe {
	out := make([]Timeframe, len(timeframeOrder))
	copy(out, timeframeOrder)
	return out
}

// IsValidTimeframe returns true if tf is a supported timeframe.
func IsValidTimeframe(tf Timeframe) bool {
	return tf.Rank() >= 0
}

// Rank returns the position of tf in the canonical order, or -1.
func (tf Timeframe) Rank() int {
	for i, t := range timeframeOrder {
		if t == tf {
			return i
		}
	}
	return -1
}

// ParseTimeframe converts raw string to a supported timeframe.
func ParseTimeframe(s string) (Timeframe, error) {
	tf := Timeframe(s)
	if !IsValidTimeframe(tf) {
		return "", fmt.Errorf("unsupported timeframe: %q", s)
	}
	return tf, nil
}

// WeightedTimeframe pairs a timeframe with its contribution to the momentum score.
type WeightedTimeframe struct {
	Timeframe Timeframe
	Weight    float64
}
