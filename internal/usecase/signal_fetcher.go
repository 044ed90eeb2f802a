package usecase

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"MomentumPull/internal/domain/models"
	drepo "MomentumPull/internal/domain/repository"
	applogger "MomentumPull/pkg/logger"
)

const DefaultFetchTimeout = 10 * time.Second

// FetchStats counts fetch outcomes; safe for concurrent use.
type FetchStats struct {
	CacheHits     atomic.Int64
	ProviderCalls atomic.Int64
	Failures      atomic.Int64
}

// SignalFetcher returns the analysis for one (instrument, timeframe) pair,
// consulting the rating cache before the provider. Failures are isolated to
// the pair and reported as absent; they are never cached.
type SignalFetcher struct {
	provider drepo.SignalProvider
	cache    drepo.RatingCache
	metrics  drepo.Metrics
	log      *applogger.Logger
	exchange string
	screener string
	timeout  time.Duration
}

func NewSignalFetcher(provider drepo.SignalProvider, cache drepo.RatingCache, metrics drepo.Metrics, log *applogger.Logger, exchange, screener string, timeout time.Duration) *SignalFetcher {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	if metrics == nil {
		metrics = noopMetrics{}
	}
	if log == nil {
		log = applogger.NewNop()
	}
	return &SignalFetcher{
		provider: provider,
		cache:    cache,
		metrics:  metrics,
		log:      log,
		exchange: exchange,
		screener: screener,
		timeout:  timeout,
	}
}

// Fetch returns ok=false when the pair is absent for this cycle.
func (f *SignalFetcher) Fetch(ctx context.Context, symbol string, tf models.Timeframe) (*models.Analysis, bool) {
	return f.fetch(ctx, symbol, tf, nil)
}

func (f *SignalFetcher) fetch(ctx context.Context, symbol string, tf models.Timeframe, stats *FetchStats) (a *models.Analysis, ok bool) {
	key := models.SignalKey{Symbol: symbol, Exchange: f.exchange, Screener: f.screener, Timeframe: tf}

	// covers the cache as well as the provider
	defer func() {
		if r := recover(); r != nil {
			f.fail(symbol, tf, "panic", fmt.Errorf("panic: %v", r), stats)
			a, ok = nil, false
		}
	}()

	if cached, hit := f.cache.Get(key); hit {
		f.metrics.RecordFetch("cache_hit")
		if stats != nil {
			stats.CacheHits.Add(1)
		}
		return cached, true
	}

	if stats != nil {
		stats.ProviderCalls.Add(1)
	}
	callCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	start := time.Now()
	res, err := f.provider.Analysis(callCtx, drepo.SignalRequest{
		Symbol:    symbol,
		Exchange:  f.exchange,
		Screener:  f.screener,
		Timeframe: tf,
	})
	f.metrics.RecordLatency("provider", time.Since(start).Seconds())
	if err != nil {
		kind := "provider"
		if callCtx.Err() != nil {
			kind = "timeout"
		}
		f.fail(symbol, tf, kind, err, stats)
		return nil, false
	}
	if res == nil {
		f.fail(symbol, tf, "malformed", fmt.Errorf("empty analysis"), stats)
		return nil, false
	}
	if _, err := models.ParseRating(string(res.Recommendation)); err != nil {
		f.fail(symbol, tf, "malformed", err, stats)
		return nil, false
	}

	f.cache.Put(key, res)
	f.metrics.RecordFetch("provider")
	return res, true
}

func (f *SignalFetcher) fail(symbol string, tf models.Timeframe, kind string, err error, stats *FetchStats) {
	if stats != nil {
		stats.Failures.Add(1)
	}
	f.metrics.RecordFetch("error")
	f.metrics.RecordError("fetch_" + kind)
	f.log.Warn("fetch rating failed",
		applogger.String("symbol", symbol),
		applogger.String("timeframe", string(tf)),
		applogger.String("kind", kind),
		applogger.Error(err),
	)
}

type noopMetrics struct{}

func (noopMetrics) RecordCycle(string, float64)   {}
func (noopMetrics) RecordFetch(string)            {}
func (noopMetrics) RecordError(string)            {}
func (noopMetrics) RecordLatency(string, float64) {}
func (noopMetrics) RecordScore(string, float64)   {}
func (noopMetrics) RecordAverage(float64)         {}
func (noopMetrics) RecordErrorSymbols(int)        {}
