package usecase

import (
	"context"
	"sort"
	"sync"
	"time"

	"MomentumPull/internal/domain/models"
	drepo "MomentumPull/internal/domain/repository"
	svcmetrics "MomentumPull/internal/service/metrics"
	"MomentumPull/internal/services/analytics"
	applogger "MomentumPull/pkg/logger"
)

// DashboardConfig holds the analytics parameters.
type DashboardConfig struct {
	Window             time.Duration
	TopN               int
	PositiveBand       models.Band
	NegativeBand       models.Band
	CrossoverHalfWidth float64
	RegimeHalfWidth    float64
	PlotSymbols        []string
}

func DefaultDashboardConfig() DashboardConfig {
	return DashboardConfig{
		Window:          24 * time.Hour,
		TopN:            analytics.DefaultTopN,
		PositiveBand:    models.DefaultPositiveBand(),
		NegativeBand:    models.DefaultNegativeBand(),
		RegimeHalfWidth: analytics.DefaultRegimeHalfWidth,
	}
}

// DashboardUseCase derives analytics from the store and keeps the last result.
// Store failures never surface as errors: the last good dashboard (or an
// empty one) is served and flagged stale.
type DashboardUseCase struct {
	store drepo.SnapshotStore
	cfg   DashboardConfig
	clock drepo.Clock
	log   *applogger.Logger

	mu   sync.RWMutex
	last *models.Dashboard
}

func NewDashboardUseCase(store drepo.SnapshotStore, cfg DashboardConfig, clock drepo.Clock, log *applogger.Logger) *DashboardUseCase {
	if cfg.Window <= 0 {
		cfg.Window = 24 * time.Hour
	}
	if cfg.TopN <= 0 {
		cfg.TopN = analytics.DefaultTopN
	}
	if clock == nil {
		clock = drepo.SystemClock{}
	}
	if log == nil {
		log = applogger.NewNop()
	}
	return &DashboardUseCase{store: store, cfg: cfg, clock: clock, log: log}
}

func (u *DashboardUseCase) Config() DashboardConfig { return u.cfg }

// window reads records inside the analytics window; ok=false on store failure.
func (u *DashboardUseCase) window(ctx context.Context) ([]models.SnapshotRecord, bool) {
	cutoff := u.clock.Now().Add(-u.cfg.Window)
	records, err := u.store.ReadSince(ctx, cutoff)
	if err != nil {
		svcmetrics.AnalyticsErrors.WithLabelValues("store").Inc()
		u.log.Error("read momentum window failed", applogger.Error(err))
		return []models.SnapshotRecord{}, false
	}
	return records, true
}

// Refresh recomputes the dashboard from the store and caches it.
func (u *DashboardUseCase) Refresh(ctx context.Context) *models.Dashboard {
	start := time.Now()
	defer svcmetrics.ObserveSince("refresh", start)

	records, ok := u.window(ctx)
	if !ok {
		u.mu.Lock()
		defer u.mu.Unlock()
		if u.last != nil {
			d := *u.last
			d.Stale = true
			u.last = &d
			return &d
		}
		d := u.build(nil)
		d.Stale = true
		u.last = d
		return d
	}

	d := u.build(records)
	u.mu.Lock()
	u.last = d
	u.mu.Unlock()
	return d
}

func (u *DashboardUseCase) build(records []models.SnapshotRecord) *models.Dashboard {
	latestTS, latest := analytics.LatestCycle(records)
	d := &models.Dashboard{
		GeneratedAt:   u.clock.Now(),
		LatestCycle:   latestTS,
		WindowRecords: len(records),
		Rankings:      analytics.Rank(records, u.cfg.TopN),
		Bands:         analytics.FilterBands(records, u.cfg.PositiveBand, u.cfg.NegativeBand),
		Crossovers:    analytics.DetectCrossovers(records, u.cfg.CrossoverHalfWidth),
	}
	if len(latest) > 0 {
		d.AverageMomentum = latest[0].AverageMomentum
	}
	return d
}

// Latest returns the cached dashboard, computing it on first use.
func (u *DashboardUseCase) Latest(ctx context.Context) *models.Dashboard {
	u.mu.RLock()
	d := u.last
	u.mu.RUnlock()
	if d != nil {
		return d
	}
	return u.Refresh(ctx)
}

// Rankings recomputes the top/bottom lists for an arbitrary n.
func (u *DashboardUseCase) Rankings(ctx context.Context, n int) models.Rankings {
	if n == u.cfg.TopN {
		return u.Latest(ctx).Rankings
	}
	records, _ := u.window(ctx)
	return analytics.Rank(records, n)
}

// Series returns the average regime series and per-symbol series for the
// last hours. Without explicit symbols the configured plot symbols are used.
func (u *DashboardUseCase) Series(ctx context.Context, symbols []string, hours int) models.MomentumSeries {
	start := time.Now()
	defer svcmetrics.ObserveSince("series", start)

	if hours <= 0 {
		hours = 6
	}
	if len(symbols) == 0 {
		symbols = u.cfg.PlotSymbols
	}
	records, _ := u.window(ctx)
	return analytics.Series(records, symbols, hours, u.clock.Now(), u.cfg.RegimeHalfWidth)
}

// Snapshots returns raw records since the given time, newest last,
// optionally filtered by symbol and capped to the newest limit records.
func (u *DashboardUseCase) Snapshots(ctx context.Context, symbol string, since time.Time, limit int) ([]models.SnapshotRecord, error) {
	var (
		records []models.SnapshotRecord
		err     error
	)
	if since.IsZero() {
		records, err = u.store.ReadAll(ctx)
	} else {
		records, err = u.store.ReadSince(ctx, since)
	}
	if err != nil {
		svcmetrics.AnalyticsErrors.WithLabelValues("snapshots").Inc()
		return nil, err
	}
	out := records[:0:0]
	for _, r := range records {
		if symbol == "" || r.Symbol == symbol {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}
