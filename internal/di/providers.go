package di

import (
	"context"
	"fmt"
	"time"

	"MomentumPull/internal/domain/models"
	"MomentumPull/internal/domain/repository"
	"MomentumPull/internal/handler/api"
	internalrepo "MomentumPull/internal/repository"
	"MomentumPull/internal/service/cache"
	svcmetrics "MomentumPull/internal/service/metrics"
	"MomentumPull/internal/service/ratelimit"
	"MomentumPull/internal/service/tradingview"
	"MomentumPull/internal/services/scoring"
	"MomentumPull/internal/usecase"
	pkgch "MomentumPull/pkg/clickhouse"
	"MomentumPull/pkg/config"
	xhttp "MomentumPull/pkg/http"
	pkgkafka "MomentumPull/pkg/kafka"
	applogger "MomentumPull/pkg/logger"
	"MomentumPull/pkg/metrics"
	"MomentumPull/pkg/server"
)

// ProvideLogger builds the application logger from config.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:      cfg.Logger.Level,
		Format:     cfg.Logger.Format,
		Output:     cfg.Logger.Output,
		TimeFormat: cfg.Logger.TimeFormat,
		MaxSizeMB:  cfg.Logger.MaxSizeMB,
		MaxBackups: cfg.Logger.MaxBackups,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	svcmetrics.Register()
	return metrics.New()
}

func ProvideClock() repository.Clock {
	return repository.SystemClock{}
}

// ProvideRatingCache picks the shared Redis cache when enabled, otherwise the in-process one.
func ProvideRatingCache(cfg *config.Config, l *applogger.Logger, clock repository.Clock) (repository.RatingCache, func()) {
	opts := []cache.Option{
		cache.WithTTL(cfg.Cache.TTL),
		cache.WithMaxSize(cfg.Cache.MaxSize),
		cache.WithClock(clock),
	}
	if cfg.Cache.Redis.Enabled {
		rc := cache.NewRedisRatingCache(cache.RedisConfig{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
			Prefix:   cfg.Cache.Redis.Prefix,
		}, l, opts...)
		return rc, func() {
			if err := rc.Close(); err != nil {
				l.Warn("redis close error", applogger.Error(err))
			}
		}
	}
	return cache.NewRatingCache(opts...), func() {}
}

func ProvideLimiter(cfg *config.Config) *ratelimit.Limiter {
	return ratelimit.New(cfg.Provider.RateLimit, cfg.Provider.Burst)
}

// ProvideSignalProvider creates the TradingView scanner client.
func ProvideSignalProvider(cfg *config.Config, limiter *ratelimit.Limiter, clock repository.Clock) (repository.SignalProvider, error) {
	c, err := tradingview.New(cfg.Provider.BaseURL,
		tradingview.WithHTTPClient(xhttp.NewClient(xhttp.WithTimeout(cfg.Provider.Timeout))),
		tradingview.WithLimiter(limiter),
		tradingview.WithBreaker(cfg.Provider.Breaker.MaxFailures, cfg.Provider.Breaker.OpenTimeout),
		tradingview.WithClock(clock),
	)
	if err != nil {
		return nil, fmt.Errorf("tradingview client: %w", err)
	}
	return c, nil
}

func ProvideScorer(cfg *config.Config) (*scoring.Scorer, error) {
	tfs, err := cfg.WeightedTimeframes()
	if err != nil {
		return nil, err
	}
	weights, err := cfg.RatingWeightTable()
	if err != nil {
		return nil, err
	}
	return scoring.NewScorer(tfs, weights), nil
}

func ProvideSignalFetcher(
	cfg *config.Config,
	provider repository.SignalProvider,
	rc repository.RatingCache,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.SignalFetcher {
	return usecase.NewSignalFetcher(provider, rc, m, l,
		cfg.Momentum.Exchange, cfg.Momentum.Screener, cfg.Momentum.FetchTimeout)
}

// ProvideClickHouseClient connects only when the store backend is ClickHouse.
func ProvideClickHouseClient(cfg *config.Config, l *applogger.Logger) (*pkgch.Client, func(), error) {
	if cfg.Store.Type != "clickhouse" {
		return nil, func() {}, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stmts := append([]string{"CREATE DATABASE IF NOT EXISTS " + cfg.ClickHouse.Database},
		internalrepo.SnapshotSchema(cfg.ClickHouse.Database+"."+cfg.Store.Table)...)
	if err := client.InitSchema(ctx, stmts); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	l.Info("clickhouse schema ready",
		applogger.String("database", cfg.ClickHouse.Database),
		applogger.String("table", cfg.Store.Table))

	return client, func() {
		if err := client.Close(); err != nil {
			l.Warn("clickhouse close error", applogger.Error(err))
		}
	}, nil
}

// ProvideSnapshotStore selects the CSV file or the ClickHouse table.
func ProvideSnapshotStore(cfg *config.Config, ch *pkgch.Client, l *applogger.Logger) (repository.SnapshotStore, error) {
	switch cfg.Store.Type {
	case "clickhouse":
		if ch == nil {
			return nil, fmt.Errorf("clickhouse store selected without a client")
		}
		return internalrepo.NewCHSnapshotStore(ch.DB(), cfg.ClickHouse.Database+"."+cfg.Store.Table, l,
			internalrepo.WithInsertTimeout(ch.WriteTimeout())), nil
	case "csv", "":
		return internalrepo.NewCSVSnapshotStore(cfg.Store.CSVPath, l), nil
	default:
		return nil, fmt.Errorf("unknown store type %q", cfg.Store.Type)
	}
}

// ProvideKafkaProducer creates a Kafka producer; nil when Kafka is disabled.
func ProvideKafkaProducer(cfg *config.Config, l *applogger.Logger) (*pkgkafka.Producer, func(), error) {
	if !cfg.Kafka.Enabled {
		return nil, func() {}, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatching(cfg.Kafka.Producer.BatchSize, cfg.Kafka.Producer.BatchBytes, cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}

	// error logs are aggregated and shipped next to the snapshots
	if cfg.Kafka.LogTopic != "" {
		l.AddCollector(&applogger.CollectionConfig{
			Topic:       cfg.Kafka.LogTopic,
			Source:      "momentumpull-" + cfg.Environment,
			Publisher:   producer,
			IncludeWarn: true,
		})
	}

	return producer, func() {
		l.RemoveCollector()
		if err := producer.Close(); err != nil {
			l.Warn("kafka producer close error", applogger.Error(err))
		}
	}, nil
}

func ProvideSnapshotPublisher(cfg *config.Config, producer *pkgkafka.Producer) repository.SnapshotPublisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaSnapshotPublisher(producer, cfg.Kafka.Topic)
}

func ProvideAggregationCycle(
	cfg *config.Config,
	fetcher *usecase.SignalFetcher,
	scorer *scoring.Scorer,
	store repository.SnapshotStore,
	pub repository.SnapshotPublisher,
	m repository.Metrics,
	clock repository.Clock,
	l *applogger.Logger,
) *usecase.AggregationCycle {
	return usecase.NewAggregationCycle(fetcher, scorer, store, cfg.Momentum.Symbols, m, l,
		usecase.WithPublisher(pub),
		usecase.WithCycleClock(clock),
		usecase.WithWorkers(cfg.Momentum.Workers),
	)
}

func ProvideDashboardUseCase(cfg *config.Config, store repository.SnapshotStore, clock repository.Clock, l *applogger.Logger) *usecase.DashboardUseCase {
	dc := usecase.DefaultDashboardConfig()
	dc.Window = cfg.Analytics.Window
	dc.TopN = cfg.Analytics.TopN
	dc.CrossoverHalfWidth = cfg.Analytics.CrossoverHalfWidth
	dc.RegimeHalfWidth = cfg.Analytics.RegimeHalfWidth
	dc.PlotSymbols = cfg.Analytics.PlotSymbols
	if cfg.Analytics.PositiveBand != nil {
		dc.PositiveBand = *cfg.Analytics.PositiveBand
	}
	if cfg.Analytics.NegativeBand != nil {
		dc.NegativeBand = *cfg.Analytics.NegativeBand
	}
	return usecase.NewDashboardUseCase(store, dc, clock, l)
}

func ProvideDashboardHub(uc *usecase.DashboardUseCase, l *applogger.Logger) *api.DashboardHub {
	return api.NewDashboardHub(l, func() *models.Dashboard {
		return uc.Latest(context.Background())
	})
}

func ProvideDashboardRefresher(cfg *config.Config, uc *usecase.DashboardUseCase, hub *api.DashboardHub, l *applogger.Logger) *usecase.DashboardRefresher {
	return usecase.NewDashboardRefresher(uc, hub, cfg.Analytics.RefreshSchedule, l)
}

// ProvideCycleRunner schedules the cycle and refreshes the dashboard after each success.
func ProvideCycleRunner(
	cfg *config.Config,
	cycle *usecase.AggregationCycle,
	refresher *usecase.DashboardRefresher,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.CycleRunner {
	return usecase.NewCycleRunner(cycle, m, l,
		usecase.WithTickInterval(cfg.Momentum.TickInterval),
		usecase.WithRetryCooldown(cfg.Momentum.RetryCooldown),
		usecase.OnCycle(refresher.OnCycle),
	)
}

func ProvideMomentumHandler(
	l *applogger.Logger,
	uc *usecase.DashboardUseCase,
	cycle *usecase.AggregationCycle,
	runner *usecase.CycleRunner,
) *api.MomentumEchoHandler {
	return api.NewMomentumEchoHandler(l, uc, cycle, runner)
}

// ProvideHTTPServer registers the REST handler and the websocket hub.
func ProvideHTTPServer(cfg *config.Config, l *applogger.Logger, h *api.MomentumEchoHandler, hub *api.DashboardHub) *xhttp.Server {
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	return xhttp.NewServer([]xhttp.Handler{h, hub},
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithMetricsPath(metricsPath),
		xhttp.WithLogger(l),
	)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	runner *usecase.CycleRunner,
	refresher *usecase.DashboardRefresher,
	hub *api.DashboardHub,
	httpServer *xhttp.Server,
) *server.App {
	return server.New(cfg, l, runner, refresher, hub, httpServer)
}
