package server

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"MomentumPull/internal/handler/api"
	"MomentumPull/internal/usecase"
	"MomentumPull/pkg/config"
	xhttp "MomentumPull/pkg/http"
	applogger "MomentumPull/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	runner     *usecase.CycleRunner
	refresher  *usecase.DashboardRefresher
	hub        *api.DashboardHub
	httpServer *xhttp.Server
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	l *applogger.Logger,
	runner *usecase.CycleRunner,
	refresher *usecase.DashboardRefresher,
	hub *api.DashboardHub,
	httpServer *xhttp.Server,
) *App {
	if l == nil {
		l = applogger.NewNop()
	}
	return &App{
		cfg:        cfg,
		log:        l,
		runner:     runner,
		refresher:  refresher,
		hub:        hub,
		httpServer: httpServer,
	}
}

// Run starts the application and blocks until SIGINT or SIGTERM.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.RunContext(ctx)
}

// RunContext starts the scheduler, the dashboard refresher and the HTTP
// server, then shuts them down once ctx is done.
func (a *App) RunContext(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := a.refresher.Start(ctx); err != nil {
		return fmt.Errorf("start dashboard refresher: %w", err)
	}

	if err := a.httpServer.Start(); err != nil {
		a.refresher.Stop()
		return fmt.Errorf("start http server: %w", err)
	}

	runnerDone := make(chan error, 1)
	go func() {
		runnerDone <- a.runner.Run(ctx)
	}()
	a.log.Info("momentum pipeline started",
		applogger.Strings("symbols", a.cfg.Momentum.Symbols),
		applogger.Duration("tick_interval", a.cfg.Momentum.TickInterval),
		applogger.String("store", a.cfg.Store.Type),
	)

	var runErr error
	select {
	case <-ctx.Done():
		a.log.Info("shutdown signal received")
	case err := <-runnerDone:
		runErr = err
		runnerDone = nil
		a.log.Error("cycle runner exited", applogger.Error(err))
	}

	cancel()
	if runnerDone != nil {
		if err := <-runnerDone; err != nil && !errors.Is(err, context.Canceled) {
			a.log.Warn("cycle runner stop error", applogger.Error(err))
		}
	}
	a.shutdown()

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	return nil
}

// shutdown stops the refresher, disconnects subscribers and drains HTTP.
func (a *App) shutdown() {
	a.log.Info("shutting down...")

	a.refresher.Stop()
	a.hub.Close()

	if err := a.httpServer.Stop(context.Background()); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	a.log.Info("shutdown complete",
		applogger.Int("cycles", a.runner.Cycles()),
		applogger.String("runner_state", string(a.runner.State())),
	)
}
