//go:build wireinject
// +build wireinject

package di

import (
	"MomentumPull/internal/usecase"
	"MomentumPull/pkg/config"
	"MomentumPull/pkg/server"

	"github.com/google/wire"
)

var baseSet = wire.NewSet(
	ProvideLogger,
	ProvideClock,
	ProvideClickHouseClient,
	ProvideSnapshotStore,
)

var cycleSet = wire.NewSet(
	baseSet,
	ProvideMetrics,
	ProvideRatingCache,
	ProvideLimiter,
	ProvideSignalProvider,
	ProvideScorer,
	ProvideSignalFetcher,
	ProvideKafkaProducer,
	ProvideSnapshotPublisher,
	ProvideAggregationCycle,
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		cycleSet,

		// Analytics and delivery
		ProvideDashboardUseCase,
		ProvideDashboardHub,
		ProvideDashboardRefresher,
		ProvideCycleRunner,
		ProvideMomentumHandler,
		ProvideHTTPServer,

		// Application server
		ProvideApp,
	)
	return nil, nil, nil
}

// InitializeCycle wires a single aggregation cycle for one-shot runs.
func InitializeCycle(cfg *config.Config) (*usecase.AggregationCycle, func(), error) {
	wire.Build(cycleSet)
	return nil, nil, nil
}

// InitializeDashboard wires the read-only analytics over the store.
func InitializeDashboard(cfg *config.Config) (*usecase.DashboardUseCase, func(), error) {
	wire.Build(baseSet, ProvideDashboardUseCase)
	return nil, nil, nil
}
