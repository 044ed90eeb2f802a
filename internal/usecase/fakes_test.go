package usecase

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"MomentumPull/internal/domain/models"
	drepo "MomentumPull/internal/domain/repository"
	"MomentumPull/internal/service/cache"
	"MomentumPull/internal/services/scoring"
)

type fixedClock struct{ t time.Time }

func (f fixedClock) Now() time.Time { return f.t }

// fakeProvider answers from a rating table; pairs missing from the table fail.
type fakeProvider struct {
	mu      sync.Mutex
	ratings map[string]models.Rating
	calls   atomic.Int64
	delay   time.Duration
	panicOn string
}

func pairKey(sym string, tf models.Timeframe) string { return sym + "|" + string(tf) }

func (p *fakeProvider) Analysis(ctx context.Context, req drepo.SignalRequest) (*models.Analysis, error) {
	p.calls.Add(1)
	if req.Symbol == p.panicOn {
		panic("provider exploded")
	}
	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	p.mu.Lock()
	r, ok := p.ratings[pairKey(req.Symbol, req.Timeframe)]
	p.mu.Unlock()
	if !ok {
		return nil, errors.New("upstream 502")
	}
	return &models.Analysis{Symbol: req.Symbol, Timeframe: req.Timeframe, Recommendation: r}, nil
}

type memStore struct {
	mu        sync.Mutex
	records   []models.SnapshotRecord
	appends   int
	appendErr error
	readErr   error
}

func (s *memStore) Append(_ context.Context, batch []models.SnapshotRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.appendErr != nil {
		return s.appendErr
	}
	s.appends++
	s.records = append(s.records, batch...)
	return nil
}

func (s *memStore) ReadAll(ctx context.Context) ([]models.SnapshotRecord, error) {
	return s.ReadSince(ctx, time.Time{})
}

func (s *memStore) ReadSince(_ context.Context, cutoff time.Time) ([]models.SnapshotRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.readErr != nil {
		return nil, s.readErr
	}
	out := []models.SnapshotRecord{}
	for _, r := range s.records {
		if !r.Timestamp.Before(cutoff) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *memStore) Close() error { return nil }

type fakePublisher struct {
	batches int
	err     error
}

func (p *fakePublisher) PublishBatch(context.Context, string, []models.SnapshotRecord) error {
	p.batches++
	return p.err
}

func (p *fakePublisher) Close() error { return nil }

func twoTimeframes() []models.WeightedTimeframe {
	return []models.WeightedTimeframe{
		{Timeframe: models.TF15m, Weight: 0.5},
		{Timeframe: models.TF4h, Weight: 0.25},
	}
}

func newTestCycle(p *fakeProvider, store *memStore, symbols []string, opts ...CycleOption) *AggregationCycle {
	f := NewSignalFetcher(p, cache.NewRatingCache(), nil, nil, "BYBIT", "crypto", time.Second)
	s := scoring.NewScorer(twoTimeframes(), nil)
	return NewAggregationCycle(f, s, store, symbols, nil, nil, opts...)
}

// panicCache blows up on lookups for one symbol and delegates the rest.
type panicCache struct {
	drepo.RatingCache
	symbol string
}

func (c panicCache) Get(key models.SignalKey) (*models.Analysis, bool) {
	if key.Symbol == c.symbol {
		panic("cache exploded")
	}
	return c.RatingCache.Get(key)
}
