package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"MomentumPull/internal/domain/models"
	drepo "MomentumPull/internal/domain/repository"
	applogger "MomentumPull/pkg/logger"
)

const (
	DefaultTickInterval  = 60 * time.Second
	DefaultRetryCooldown = 3 * time.Minute
)

type RunnerState string

const (
	StateIdle         RunnerState = "idle"
	StateRunning      RunnerState = "running"
	StateRetryBackoff RunnerState = "retry_backoff"
)

// CycleExecutor runs one aggregation cycle.
type CycleExecutor interface {
	RunOnce(ctx context.Context) (*models.CycleReport, error)
}

// WaitFunc sleeps for d or until ctx is done.
type WaitFunc func(ctx context.Context, d time.Duration) error

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// CycleRunner drives cycles forever: tick interval after a success,
// retry cooldown after a cycle-level failure.
type CycleRunner struct {
	cycle    CycleExecutor
	metrics  drepo.Metrics
	log      *applogger.Logger
	tick     time.Duration
	cooldown time.Duration
	wait     WaitFunc
	onCycle  []func(*models.CycleReport)

	mu       sync.RWMutex
	state    RunnerState
	failures int
	cycles   int
}

type RunnerOption func(*CycleRunner)

func WithTickInterval(d time.Duration) RunnerOption {
	return func(r *CycleRunner) {
		if d > 0 {
			r.tick = d
		}
	}
}

func WithRetryCooldown(d time.Duration) RunnerOption {
	return func(r *CycleRunner) {
		if d > 0 {
			r.cooldown = d
		}
	}
}

func WithWait(w WaitFunc) RunnerOption {
	return func(r *CycleRunner) {
		if w != nil {
			r.wait = w
		}
	}
}

// OnCycle registers a hook called after every successful cycle.
func OnCycle(fn func(*models.CycleReport)) RunnerOption {
	return func(r *CycleRunner) {
		if fn != nil {
			r.onCycle = append(r.onCycle, fn)
		}
	}
}

func NewCycleRunner(cycle CycleExecutor, metrics drepo.Metrics, log *applogger.Logger, opts ...RunnerOption) *CycleRunner {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	if log == nil {
		log = applogger.NewNop()
	}
	r := &CycleRunner{
		cycle:    cycle,
		metrics:  metrics,
		log:      log,
		tick:     DefaultTickInterval,
		cooldown: DefaultRetryCooldown,
		wait:     sleepCtx,
		state:    StateIdle,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run loops until ctx is cancelled and then returns ctx.Err().
func (r *CycleRunner) Run(ctx context.Context) error {
	r.log.Info("cycle runner started",
		applogger.Duration("tick_ms", r.tick),
		applogger.Duration("cooldown_ms", r.cooldown),
	)
	r.setState(StateRunning)
	for {
		if err := ctx.Err(); err != nil {
			r.setState(StateIdle)
			return err
		}

		start := time.Now()
		report, err := r.runSafely(ctx)
		elapsed := time.Since(start).Seconds()

		var delay time.Duration
		if err != nil {
			if ctx.Err() != nil {
				r.setState(StateIdle)
				return ctx.Err()
			}
			n := r.markFailure()
			r.metrics.RecordCycle("error", elapsed)
			r.log.Error("cycle failed, backing off",
				applogger.Int("consecutive_failures", n),
				applogger.Duration("cooldown_ms", r.cooldown),
				applogger.Error(err),
			)
			delay = r.cooldown
		} else {
			r.markSuccess()
			r.metrics.RecordCycle("ok", elapsed)
			for _, fn := range r.onCycle {
				fn(report)
			}
			delay = r.tick
		}

		if err := r.wait(ctx, delay); err != nil {
			r.setState(StateIdle)
			return err
		}
	}
}

func (r *CycleRunner) runSafely(ctx context.Context) (report *models.CycleReport, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("cycle panic: %v", p)
		}
	}()
	return r.cycle.RunOnce(ctx)
}

func (r *CycleRunner) markFailure() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = StateRetryBackoff
	r.failures++
	return r.failures
}

func (r *CycleRunner) markSuccess() {
	r.mu.Lock()
	r.state = StateRunning
	r.failures = 0
	r.cycles++
	r.mu.Unlock()
}

func (r *CycleRunner) setState(s RunnerState) {
	r.mu.Lock()
	r.state = s
	r.mu.Unlock()
}

func (r *CycleRunner) State() RunnerState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

func (r *CycleRunner) ConsecutiveFailures() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.failures
}

// Cycles returns the number of successful cycles since start.
func (r *CycleRunner) Cycles() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cycles
}
