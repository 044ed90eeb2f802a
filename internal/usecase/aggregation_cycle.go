package usecase

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"MomentumPull/internal/domain/models"
	drepo "MomentumPull/internal/domain/repository"
	"MomentumPull/internal/services/scoring"
	applogger "MomentumPull/pkg/logger"

	"github.com/google/uuid"
)

// ErrNoInstruments is returned when a cycle has nothing to sample.
var ErrNoInstruments = errors.New("no instruments configured")

// AggregationCycle runs one fetch, score and persist pass over every instrument.
type AggregationCycle struct {
	fetcher   *SignalFetcher
	scorer    *scoring.Scorer
	store     drepo.SnapshotStore
	publisher drepo.SnapshotPublisher
	metrics   drepo.Metrics
	log       *applogger.Logger
	clock     drepo.Clock
	symbols   []string
	workers   int

	mu   sync.RWMutex
	last *models.CycleReport
}

type CycleOption func(*AggregationCycle)

// WithPublisher fans persisted batches out; publish failures never fail the cycle.
func WithPublisher(p drepo.SnapshotPublisher) CycleOption {
	return func(c *AggregationCycle) { c.publisher = p }
}

func WithCycleClock(clk drepo.Clock) CycleOption {
	return func(c *AggregationCycle) {
		if clk != nil {
			c.clock = clk
		}
	}
}

func WithWorkers(n int) CycleOption {
	return func(c *AggregationCycle) {
		if n > 0 {
			c.workers = n
		}
	}
}

func NewAggregationCycle(fetcher *SignalFetcher, scorer *scoring.Scorer, store drepo.SnapshotStore, symbols []string, metrics drepo.Metrics, log *applogger.Logger, opts ...CycleOption) *AggregationCycle {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	if log == nil {
		log = applogger.NewNop()
	}
	c := &AggregationCycle{
		fetcher: fetcher,
		scorer:  scorer,
		store:   store,
		metrics: metrics,
		log:     log,
		clock:   drepo.SystemClock{},
		symbols: symbols,
		workers: 4,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type instrumentResult struct {
	score float64
	ok    bool
}

// RunOnce executes a single cycle. The batch is appended in one call; an
// empty batch is not appended. Only append failures are returned as errors.
func (c *AggregationCycle) RunOnce(ctx context.Context) (*models.CycleReport, error) {
	if len(c.symbols) == 0 {
		return nil, ErrNoInstruments
	}

	start := time.Now()
	ts := c.clock.Now().UTC()
	report := &models.CycleReport{
		CycleID:      uuid.NewString(),
		Timestamp:    ts,
		Records:      []models.SnapshotRecord{},
		ErrorSymbols: []string{},
	}

	var stats FetchStats
	results := c.scoreAll(ctx, &stats)

	report.CacheHits = int(stats.CacheHits.Load())
	report.ProviderCalls = int(stats.ProviderCalls.Load())
	report.FetchFailures = int(stats.Failures.Load())

	if err := ctx.Err(); err != nil {
		return report, fmt.Errorf("cycle %s interrupted: %w", report.CycleID, err)
	}

	var sum float64
	scored := 0
	for i, sym := range c.symbols {
		if !results[i].ok {
			report.ErrorSymbols = append(report.ErrorSymbols, sym)
			continue
		}
		sum += results[i].score
		scored++
	}
	if scored > 0 {
		report.AverageMomentum = sum / float64(scored)
	}
	for i, sym := range c.symbols {
		if !results[i].ok {
			continue
		}
		report.Records = append(report.Records, models.SnapshotRecord{
			Symbol:          sym,
			MomentumScore:   results[i].score,
			Timestamp:       ts,
			AverageMomentum: report.AverageMomentum,
		})
		c.metrics.RecordScore(sym, results[i].score)
	}
	c.metrics.RecordErrorSymbols(len(report.ErrorSymbols))

	if len(report.ErrorSymbols) > 0 {
		c.log.Warn("instruments without any rating",
			applogger.String("cycle_id", report.CycleID),
			applogger.Strings("symbols", report.ErrorSymbols),
		)
	}

	if len(report.Records) == 0 {
		report.Duration = time.Since(start)
		c.log.Warn("cycle produced no records, nothing appended",
			applogger.String("cycle_id", report.CycleID),
			applogger.Int("instruments", len(c.symbols)),
		)
		c.setLast(report)
		return report, nil
	}

	if err := c.store.Append(ctx, report.Records); err != nil {
		report.Duration = time.Since(start)
		return report, fmt.Errorf("append cycle %s: %w", report.CycleID, err)
	}
	report.Persisted = true
	c.metrics.RecordAverage(report.AverageMomentum)

	if c.publisher != nil {
		if err := c.publisher.PublishBatch(ctx, report.CycleID, report.Records); err != nil {
			c.metrics.RecordError("publish")
			c.log.Warn("publish snapshot batch failed",
				applogger.String("cycle_id", report.CycleID),
				applogger.Error(err),
			)
		}
	}

	report.Duration = time.Since(start)
	c.setLast(report)
	c.log.Info("cycle complete",
		applogger.String("cycle_id", report.CycleID),
		applogger.Int("records", len(report.Records)),
		applogger.Int("errors", len(report.ErrorSymbols)),
		applogger.Float64("avg_momentum", report.AverageMomentum),
		applogger.Int("cache_hits", report.CacheHits),
		applogger.Int("provider_calls", report.ProviderCalls),
		applogger.Duration("duration_ms", report.Duration),
	)
	return report, nil
}

// scoreAll fans instruments out to a bounded worker pool; output order
// follows the configured instrument order.
func (c *AggregationCycle) scoreAll(ctx context.Context, stats *FetchStats) []instrumentResult {
	results := make([]instrumentResult, len(c.symbols))
	jobs := make(chan int)

	workers := c.workers
	if workers > len(c.symbols) {
		workers = len(c.symbols)
	}

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = c.scoreGuarded(ctx, c.symbols[i], stats)
			}
		}()
	}
	for i := range c.symbols {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	return results
}

// scoreGuarded turns a panic anywhere in one instrument's work into an
// absent instrument; the worker keeps draining jobs.
func (c *AggregationCycle) scoreGuarded(ctx context.Context, symbol string, stats *FetchStats) (res instrumentResult) {
	defer func() {
		if p := recover(); p != nil {
			c.metrics.RecordError("panic")
			c.log.Error("instrument scoring panicked",
				applogger.String("symbol", symbol),
				applogger.Any("panic", p),
				applogger.String("stack", string(debug.Stack())))
			res = instrumentResult{}
		}
	}()
	return c.scoreInstrument(ctx, symbol, stats)
}

func (c *AggregationCycle) scoreInstrument(ctx context.Context, symbol string, stats *FetchStats) instrumentResult {
	ratings := make(map[models.Timeframe]models.Rating, len(c.scorer.Timeframes()))
	for _, wt := range c.scorer.Timeframes() {
		if ctx.Err() != nil {
			break
		}
		a, ok := c.fetcher.fetch(ctx, symbol, wt.Timeframe, stats)
		if !ok {
			continue
		}
		ratings[wt.Timeframe] = a.Recommendation
	}
	score, ok := c.scorer.Score(ratings)
	return instrumentResult{score: score, ok: ok}
}

func (c *AggregationCycle) setLast(r *models.CycleReport) {
	c.mu.Lock()
	c.last = r
	c.mu.Unlock()
}

// LastReport returns the most recent completed cycle, or nil.
func (c *AggregationCycle) LastReport() *models.CycleReport {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.last
}
