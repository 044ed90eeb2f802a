package repository

import (
	"context"
	"time"

	"MomentumPull/internal/domain/models"
)

// SignalRequest identifies one provider lookup.
type SignalRequest struct {
	Symbol    string
	Exchange  string
	Screener  string
	Timeframe models.Timeframe
}

// SignalProvider is the narrow boundary to the technical-analysis provider.
type SignalProvider interface {
	Analysis(ctx context.Context, req SignalRequest) (*models.Analysis, error)
}

// RatingCache memoizes provider results for a freshness window.
type RatingCache interface {
	Get(key models.SignalKey) (*models.Analysis, bool)
	Put(key models.SignalKey, a *models.Analysis)
}

// SnapshotStore is the append-only momentum time series.
type SnapshotStore interface {
	Append(ctx context.Context, batch []models.SnapshotRecord) error
	ReadAll(ctx context.Context) ([]models.SnapshotRecord, error)
	ReadSince(ctx context.Context, cutoff time.Time) ([]models.SnapshotRecord, error)
	Close() error
}

// SnapshotPublisher fans persisted batches out to downstream consumers.
type SnapshotPublisher interface {
	PublishBatch(ctx context.Context, cycleID string, batch []models.SnapshotRecord) error
	Close() error
}

type Metrics interface {
	RecordCycle(result string, seconds float64)
	RecordFetch(result string)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
	RecordScore(symbol string, score float64)
	RecordAverage(avg float64)
	RecordErrorSymbols(n int)
}

// Clock abstracts wall time so freshness and cycle stamps are testable.
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall clock in UTC.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }
