package executor

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/wesleyorama2/prayerload/internal/performance"
	"github.com/wesleyorama2/prayerload/internal/performance/metrics"
)

// ConstantVUs starts a fixed number of users and keeps them running for a
// specified duration.
//
// Users are started at SpawnRate per second (ramp-up phase). Once all are
// running the steady phase begins. Every user loops task, think time, task
// until the duration expires.
type ConstantVUs struct {
	config    *Config
	scheduler *performance.VUScheduler
	metrics   *metrics.Engine

	// State
	startTime  time.Time
	activeVUs  atomic.Int32
	spawnedVUs atomic.Int32
	iterations atomic.Int64
	running    atomic.Bool

	// Cancellation
	cancelFunc context.CancelFunc
	done       chan struct{}
	wg         sync.WaitGroup

	mu sync.RWMutex
}

// NewConstantVUs creates a new constant VUs executor.
func NewConstantVUs() *ConstantVUs {
	return &ConstantVUs{}
}

// Type returns the executor type.
func (e *ConstantVUs) Type() Type {
	return TypeConstantVUs
}

// Init initializes the executor with configuration.
func (e *ConstantVUs) Init(ctx context.Context, config *Config) error {
	if config.Type != TypeConstantVUs {
		return fmt.Errorf("invalid config type: expected %s, got %s", TypeConstantVUs, config.Type)
	}

	if err := config.Validate(); err != nil {
		return err
	}

	e.config = config
	return nil
}

// Run starts the executor and blocks until completion.
func (e *ConstantVUs) Run(ctx context.Context, scheduler *performance.VUScheduler, metricsEngine *metrics.Engine) error {
	if e.config == nil {
		return fmt.Errorf("executor not initialized")
	}

	runCtx, cancel := context.WithTimeout(ctx, e.config.Duration)
	defer cancel()

	e.mu.Lock()
	e.scheduler = scheduler
	e.metrics = metricsEngine
	e.startTime = time.Now()
	e.cancelFunc = cancel
	e.done = make(chan struct{})
	done := e.done
	e.mu.Unlock()
	e.running.Store(true)
	defer close(done)

	e.metrics.SetPhase(metrics.PhaseRampUp)

	spawnUsers(runCtx, e.config.VUs, e.config.SpawnRate, func() {
		vu := scheduler.SpawnVU()
		e.spawnedVUs.Add(1)
		e.wg.Add(1)
		go e.runVU(runCtx, vu)
	})

	if runCtx.Err() == nil {
		e.metrics.SetPhase(metrics.PhaseSteady)
	}

	e.wg.Wait()

	e.metrics.SetPhase(metrics.PhaseDone)
	e.running.Store(false)

	return nil
}

// runVU runs a single VU until the context is cancelled or it is stopped.
func (e *ConstantVUs) runVU(ctx context.Context, vu *performance.VirtualUser) {
	defer e.wg.Done()

	e.activeVUs.Add(1)
	defer e.activeVUs.Add(-1)

	e.scheduler.RunVU(ctx, vu, 0, func() {
		e.iterations.Add(1)
	})
}

// GetProgress returns current progress (0.0 to 1.0).
func (e *ConstantVUs) GetProgress() float64 {
	e.mu.RLock()
	start := e.startTime
	e.mu.RUnlock()

	if !e.running.Load() {
		if start.IsZero() {
			return 0.0
		}
		return 1.0
	}

	progress := float64(time.Since(start)) / float64(e.config.Duration)
	if progress > 1.0 {
		progress = 1.0
	}
	return progress
}

// GetActiveVUs returns current active VU count.
func (e *ConstantVUs) GetActiveVUs() int {
	return int(e.activeVUs.Load())
}

// GetStats returns executor statistics.
func (e *ConstantVUs) GetStats() *Stats {
	e.mu.RLock()
	defer e.mu.RUnlock()

	var elapsed time.Duration
	if !e.startTime.IsZero() {
		elapsed = time.Since(e.startTime)
	}

	stats := &Stats{
		StartTime:   e.startTime,
		CurrentTime: time.Now(),
		Elapsed:     elapsed,
		ActiveVUs:   int(e.activeVUs.Load()),
		SpawnedVUs:  int(e.spawnedVUs.Load()),
		Iterations:  e.iterations.Load(),
	}
	if e.config != nil {
		stats.TotalDuration = e.config.TotalDuration()
		stats.RampUp = e.config.SpawnDuration()
		stats.TargetVUs = e.config.VUs
	}
	return stats
}

// Stop gracefully stops the executor.
func (e *ConstantVUs) Stop(ctx context.Context) error {
	e.mu.RLock()
	cancel, done := e.cancelFunc, e.done
	e.mu.RUnlock()

	if cancel == nil {
		return nil
	}
	cancel()

	return waitGraceful(ctx, done, e.config.GracefulStop)
}

// waitGraceful waits for done, giving up after the graceful stop timeout.
func waitGraceful(ctx context.Context, done <-chan struct{}, graceful time.Duration) error {
	if graceful == 0 {
		graceful = 30 * time.Second
	}

	timer := time.NewTimer(graceful)
	defer timer.Stop()

	select {
	case <-done:
		return nil
	case <-timer.C:
		return fmt.Errorf("graceful stop timeout after %v", graceful)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Ensure ConstantVUs implements Executor
var _ Executor = (*ConstantVUs)(nil)
