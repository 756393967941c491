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

// PerVUIterations starts a fixed number of users, each of which runs
// exactly Iterations iterations and then stops.
//
// A non-zero Duration caps the run; users still iterating when it expires
// are stopped.
type PerVUIterations struct {
	config    *Config
	scheduler *performance.VUScheduler
	metrics   *metrics.Engine

	startTime  time.Time
	activeVUs  atomic.Int32
	spawnedVUs atomic.Int32
	iterations atomic.Int64
	running    atomic.Bool

	cancelFunc context.CancelFunc
	done       chan struct{}
	wg         sync.WaitGroup

	mu sync.RWMutex
}

// NewPerVUIterations creates a new per-VU iterations executor.
func NewPerVUIterations() *PerVUIterations {
	return &PerVUIterations{}
}

// Type returns the executor type.
func (e *PerVUIterations) Type() Type {
	return TypePerVUIterations
}

// Init initializes the executor with configuration.
func (e *PerVUIterations) Init(ctx context.Context, config *Config) error {
	if config.Type != TypePerVUIterations {
		return fmt.Errorf("invalid config type: expected %s, got %s", TypePerVUIterations, config.Type)
	}

	if err := config.Validate(); err != nil {
		return err
	}

	e.config = config
	return nil
}

// Run starts the executor and blocks until every user has finished.
func (e *PerVUIterations) Run(ctx context.Context, scheduler *performance.VUScheduler, metricsEngine *metrics.Engine) error {
	if e.config == nil {
		return fmt.Errorf("executor not initialized")
	}

	var runCtx context.Context
	var cancel context.CancelFunc
	if e.config.Duration > 0 {
		runCtx, cancel = context.WithTimeout(ctx, e.config.Duration)
	} else {
		runCtx, cancel = context.WithCancel(ctx)
	}
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

func (e *PerVUIterations) runVU(ctx context.Context, vu *performance.VirtualUser) {
	defer e.wg.Done()

	e.activeVUs.Add(1)
	defer e.activeVUs.Add(-1)

	e.scheduler.RunVU(ctx, vu, e.config.Iterations, func() {
		e.iterations.Add(1)
	})
}

func (e *PerVUIterations) totalIterations() int64 {
	return int64(e.config.VUs) * e.config.Iterations
}

// GetProgress returns the share of all iterations completed.
func (e *PerVUIterations) GetProgress() float64 {
	e.mu.RLock()
	start := e.startTime
	e.mu.RUnlock()

	if !e.running.Load() {
		if start.IsZero() {
			return 0.0
		}
		return 1.0
	}

	progress := float64(e.iterations.Load()) / float64(e.totalIterations())
	if progress > 1.0 {
		progress = 1.0
	}
	return progress
}

// GetActiveVUs returns current active VU count.
func (e *PerVUIterations) GetActiveVUs() int {
	return int(e.activeVUs.Load())
}

// GetStats returns executor statistics.
func (e *PerVUIterations) GetStats() *Stats {
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
		stats.TotalIterations = e.totalIterations()
	}
	return stats
}

// Stop gracefully stops the executor.
func (e *PerVUIterations) Stop(ctx context.Context) error {
	e.mu.RLock()
	cancel, done := e.cancelFunc, e.done
	e.mu.RUnlock()

	if cancel == nil {
		return nil
	}
	cancel()

	return waitGraceful(ctx, done, e.config.GracefulStop)
}

var _ Executor = (*PerVUIterations)(nil)
