package usecase

import (
	"context"
	"fmt"
	"sync"

	"MomentumPull/internal/domain/models"
	applogger "MomentumPull/pkg/logger"

	"github.com/robfig/cron/v3"
)

const DefaultRefreshSchedule = "@every 2m"

// Broadcaster pushes a refreshed dashboard to live subscribers.
type Broadcaster interface {
	Broadcast(d *models.Dashboard)
}

// DashboardRefresher recomputes the dashboard on a cron schedule and after
// every successful cycle, then broadcasts it.
type DashboardRefresher struct {
	uc       *DashboardUseCase
	cast     Broadcaster
	log      *applogger.Logger
	cron     *cron.Cron
	schedule string

	mu  sync.Mutex
	ctx context.Context
}

func NewDashboardRefresher(uc *DashboardUseCase, cast Broadcaster, schedule string, log *applogger.Logger) *DashboardRefresher {
	if schedule == "" {
		schedule = DefaultRefreshSchedule
	}
	if log == nil {
		log = applogger.NewNop()
	}
	return &DashboardRefresher{
		uc:       uc,
		cast:     cast,
		log:      log,
		cron:     cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		schedule: schedule,
		ctx:      context.Background(),
	}
}

// Start registers the schedule and runs one refresh immediately.
func (r *DashboardRefresher) Start(ctx context.Context) error {
	r.mu.Lock()
	r.ctx = ctx
	r.mu.Unlock()

	if _, err := r.cron.AddFunc(r.schedule, func() { r.RefreshNow() }); err != nil {
		return fmt.Errorf("dashboard schedule %q: %w", r.schedule, err)
	}
	r.cron.Start()
	r.log.Info("dashboard refresher started", applogger.String("schedule", r.schedule))
	r.RefreshNow()
	return nil
}

// Stop halts the schedule and waits for a running refresh to finish.
func (r *DashboardRefresher) Stop() {
	<-r.cron.Stop().Done()
	r.log.Info("dashboard refresher stopped")
}

// RefreshNow recomputes and broadcasts synchronously.
func (r *DashboardRefresher) RefreshNow() *models.Dashboard {
	r.mu.Lock()
	ctx := r.ctx
	r.mu.Unlock()

	d := r.uc.Refresh(ctx)
	if r.cast != nil {
		r.cast.Broadcast(d)
	}
	r.log.Debug("dashboard refreshed",
		applogger.Int("window_records", d.WindowRecords),
		applogger.Int("long", len(d.Rankings.Long)),
		applogger.Int("crossovers_up", len(d.Crossovers.Up)),
		applogger.Bool("stale", d.Stale),
	)
	return d
}

// OnCycle adapts the refresher into a cycle runner hook.
func (r *DashboardRefresher) OnCycle(_ *models.CycleReport) {
	r.RefreshNow()
}
