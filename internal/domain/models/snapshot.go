package models

import "time"

// SnapshotRecord is one instrument's momentum score at one cycle timestamp.
// Records sharing a timestamp carry the same AverageMomentum.
type SnapshotRecord struct {
	Symbol          string    `json:"symbol"`
	MomentumScore   float64   `json:"momentum_score"`
	Timestamp       time.Time `json:"timestamp"`
	AverageMomentum float64   `json:"average_momentum"`
}

// CycleReport summarizes one aggregation cycle.
type CycleReport struct {
	CycleID         string           `json:"cycle_id"`
	Timestamp       time.Time        `json:"timestamp"`
	Duration        time.Duration    `json:"duration"`
	Records         []SnapshotRecord `json:"records"`
	ErrorSymbols    []string         `json:"error_symbols"`
	AverageMomentum float64          `json:"average_momentum"`
	CacheHits       int              `json:"cache_hits"`
	ProviderCalls   int              `json:"provider_calls"`
	FetchFailures   int              `json:"fetch_failures"`
	Persisted       bool             `json:"persisted"`
}
