package models

import "time"

// RankedScore is a latest-cycle record enriched with its previous score.
type RankedScore struct {
	Symbol        string    `json:"symbol"`
	MomentumScore float64   `json:"momentum_score"`
	PreviousScore *float64  `json:"previous_score,omitempty"`
	Change        float64   `json:"change"`
	Timestamp     time.Time `json:"timestamp"`
}

// Rankings holds the top and bottom of the latest cycle.
type Rankings struct {
	Long           []RankedScore `json:"long"`
	Short          []RankedScore `json:"short"`
	AvgChangeLong  float64       `json:"avg_change_long"`
	AvgChangeShort float64       `json:"avg_change_short"`
}

// BandMatches holds the instruments falling inside the positive and negative bands.
type BandMatches struct {
	Positive []RankedScore `json:"positive"`
	Negative []RankedScore `json:"negative"`
}

// Crossover is an instrument whose score moved across the window average.
type Crossover struct {
	Symbol        string    `json:"symbol"`
	MomentumScore float64   `json:"momentum_score"`
	PreviousScore float64   `json:"previous_score"`
	Timestamp     time.Time `json:"timestamp"`
}

// Crossovers groups crossover events by direction.
type Crossovers struct {
	Up              []Crossover `json:"up"`
	Down            []Crossover `json:"down"`
	AverageMomentum float64     `json:"average_momentum"`
}

// Regime classifies the cross-instrument average momentum.
type Regime string

const (
	RegimeBullish Regime = "bullish"
	RegimeBearish Regime = "bearish"
	RegimeNeutral Regime = "neutral"
)

// SeriesPoint is one sample of a momentum series.
type SeriesPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
	Regime    Regime    `json:"regime,omitempty"`
}

// MomentumSeries is the average series plus optional per-symbol series.
type MomentumSeries struct {
	Average []SeriesPoint            `json:"average"`
	Symbols map[string][]SeriesPoint `json:"symbols,omitempty"`
}

// Dashboard is the full analytics view handed to the display collaborator.
type Dashboard struct {
	GeneratedAt     time.Time   `json:"generated_at"`
	LatestCycle     time.Time   `json:"latest_cycle"`
	WindowRecords   int         `json:"window_records"`
	AverageMomentum float64     `json:"average_momentum"`
	Rankings        Rankings    `json:"rankings"`
	Bands           BandMatches `json:"bands"`
	Crossovers      Crossovers  `json:"crossovers"`
	Stale           bool        `json:"stale"`
}

// Interval bounds a value; each end is closed unless marked open.
type Interval struct {
	Min     float64 `yaml:"min" json:"min"`
	Max     float64 `yaml:"max" json:"max"`
	MinOpen bool    `yaml:"min_open" json:"min_open"`
	MaxOpen bool    `yaml:"max_open" json:"max_open"`
}

// Contains reports whether v falls inside the interval.
func (i Interval) Contains(v float64) bool {
	if i.MinOpen && v <= i.Min || !i.MinOpen && v < i.Min {
		return false
	}
	if i.MaxOpen && v >= i.Max || !i.MaxOpen && v > i.Max {
		return false
	}
	return true
}

// Band selects instruments by current score and by change since the previous record.
type Band struct {
	Score  Interval `yaml:"score" json:"score"`
	Change Interval `yaml:"change" json:"change"`
}

// DefaultPositiveBand and DefaultNegativeBand are starting points to be tuned.
func DefaultPositiveBand() Band {
	return Band{Score: Interval{Min: 0.1, Max: 0.4}, Change: Interval{Min: 1.1, Max: 1.5}}
}

func DefaultNegativeBand() Band {
	return Band{Score: Interval{Min: -0.4, Max: -0.1}, Change: Interval{Min: -1.5, Max: -1.1}}
}
