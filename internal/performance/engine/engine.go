// Package engine orchestrates a load test run.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wesleyorama2/prayerload/internal/performance"
	"github.com/wesleyorama2/prayerload/internal/performance/config"
	"github.com/wesleyorama2/prayerload/internal/performance/executor"
	"github.com/wesleyorama2/prayerload/internal/performance/metrics"
	"github.com/wesleyorama2/prayerload/internal/scenario"
)

// Engine is the orchestrator for one load test run.
//
// It coordinates:
//   - Configuration defaults and validation
//   - The executor that spawns and stops users
//   - Metrics collection and aggregation
//   - Threshold evaluation
//
// Example usage:
//
//	cfg := &config.RunConfig{Host: "http://localhost:8080", Iterations: 1}
//	eng, _ := engine.NewEngine(cfg, scenario.WebsiteUser())
//	result, _ := eng.Run(context.Background())
//	fmt.Printf("Test passed: %v\n", result.Passed)
type Engine struct {
	config  *config.RunConfig
	profile *scenario.Profile

	httpConfig performance.HTTPClientConfig

	metricsEngine *metrics.Engine
	executor      executor.Executor
	scheduler     *performance.VUScheduler
	mu            sync.RWMutex

	// State
	runID     string
	startTime time.Time
	running   bool
}

// TestResult contains the complete run results.
type TestResult struct {
	// Run metadata
	RunID       string        `json:"runId"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Host        string        `json:"host"`
	Profile     string        `json:"profile"`
	WaitTime    string        `json:"waitTime"`
	Executor    string        `json:"executor"`
	StartTime   time.Time     `json:"startTime"`
	EndTime     time.Time     `json:"endTime"`
	Duration    time.Duration `json:"duration"`

	// Executor statistics at the end of the run
	Stats *executor.Stats `json:"stats"`

	// Aggregated metrics
	Metrics    *metrics.Snapshot      `json:"metrics"`
	Entries    []metrics.EntryStats   `json:"entries"`
	Failures   []metrics.FailureStats `json:"failures"`
	TimeSeries []*metrics.TimeBucket  `json:"timeSeries,omitempty"`
	Phases     []metrics.PhaseChange  `json:"phases,omitempty"`

	// Threshold evaluation
	Passed     bool              `json:"passed"`
	Thresholds []ThresholdResult `json:"thresholds,omitempty"`

	// Error if the run failed catastrophically
	Error string `json:"error,omitempty"`
}

// NewEngine creates a new engine for the given run configuration and profile.
//
// Defaults are applied to cfg in place before it is validated.
func NewEngine(cfg *config.RunConfig, profile *scenario.Profile) (*Engine, error) {
	if profile == nil {
		return nil, fmt.Errorf("profile is required")
	}
	if err := profile.Validate(); err != nil {
		return nil, fmt.Errorf("invalid profile: %w", err)
	}

	config.ApplyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	httpConfig := performance.DefaultHTTPClientConfig()
	httpConfig.Timeout = cfg.Settings.Timeout.GetDuration(httpConfig.Timeout)
	httpConfig.MaxIdleConnsPerHost = cfg.Settings.MaxIdleConnsPerHost
	httpConfig.InsecureSkipVerify = cfg.Settings.InsecureSkipVerify
	httpConfig.UserAgent = cfg.Settings.UserAgent
	if cfg.Settings.NoConnectionReuse {
		httpConfig.UseSharedClient = false
		httpConfig.DisableKeepAlives = true
	}

	return &Engine{
		config:     cfg,
		profile:    profile,
		httpConfig: httpConfig,
	}, nil
}

// Run executes the run and returns the results.
//
// The context can be used for cancellation: users stop gracefully and the
// partial results are still returned.
func (e *Engine) Run(ctx context.Context) (*TestResult, error) {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return nil, fmt.Errorf("engine is already running")
	}
	e.running = true
	e.runID = uuid.NewString()
	e.startTime = time.Now()
	e.metricsEngine = metrics.NewEngine()
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.running = false
		e.mu.Unlock()
	}()

	e.metricsEngine.SetPhase(metrics.PhaseInit)

	exec, execConfig, err := executor.CreateExecutorFromRunConfig(ctx, e.config)
	if err != nil {
		e.metricsEngine.Stop()
		return nil, fmt.Errorf("failed to create executor: %w", err)
	}
	scheduler := performance.NewVUScheduler(e.profile, e.config.Host, e.metricsEngine, e.httpConfig)

	e.mu.Lock()
	e.executor = exec
	e.scheduler = scheduler
	e.mu.Unlock()

	runErr := exec.Run(ctx, scheduler, e.metricsEngine)

	graceful := execConfig.GracefulStop
	if graceful == 0 {
		graceful = 30 * time.Second
	}
	scheduler.Shutdown(graceful)

	// Stop cuts the final time bucket.
	e.metricsEngine.Stop()

	finalMetrics := e.metricsEngine.GetSnapshot()
	thresholdResults := evaluateThresholds(e.config.Thresholds, finalMetrics)
	passed := true
	for _, tr := range thresholdResults {
		if !tr.Passed {
			passed = false
			break
		}
	}

	endTime := time.Now()
	result := &TestResult{
		RunID:       e.runID,
		Name:        e.config.Name,
		Description: e.config.Description,
		Host:        e.config.Host,
		Profile:     e.profile.Name,
		WaitTime:    e.profile.WaitTime.String(),
		Executor:    string(exec.Type()),
		StartTime:   e.startTime,
		EndTime:     endTime,
		Duration:    endTime.Sub(e.startTime),
		Stats:       exec.GetStats(),
		Metrics:     finalMetrics,
		Entries:     e.metricsEngine.GetEntries(),
		Failures:    e.metricsEngine.GetFailures(),
		TimeSeries:  e.metricsEngine.GetTimeSeries(),
		Phases:      e.metricsEngine.GetPhaseHistory(),
		Passed:      passed,
		Thresholds:  thresholdResults,
	}
	if runErr != nil {
		result.Error = runErr.Error()
	}

	return result, runErr
}

// GetConfig returns the run configuration with defaults applied.
func (e *Engine) GetConfig() *config.RunConfig {
	return e.config
}

// GetRunID returns the ID of the current or last run.
func (e *Engine) GetRunID() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.runID
}

// GetMetrics returns the current metrics snapshot.
func (e *Engine) GetMetrics() *metrics.Snapshot {
	e.mu.RLock()
	m := e.metricsEngine
	e.mu.RUnlock()

	if m == nil {
		return nil
	}
	return m.GetSnapshot()
}

// GetEntries returns the current per-entry statistics.
func (e *Engine) GetEntries() []metrics.EntryStats {
	e.mu.RLock()
	m := e.metricsEngine
	e.mu.RUnlock()

	if m == nil {
		return nil
	}
	return m.GetEntries()
}

// IsRunning returns true if the engine is currently running.
func (e *Engine) IsRunning() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.running
}

// Stop gracefully stops the running executor.
func (e *Engine) Stop(ctx context.Context) error {
	e.mu.RLock()
	running, exec := e.running, e.executor
	e.mu.RUnlock()

	if !running || exec == nil {
		return nil
	}
	return exec.Stop(ctx)
}

// GetProgress returns the run progress (0.0 to 1.0).
func (e *Engine) GetProgress() float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.executor == nil {
		return 0.0
	}
	return e.executor.GetProgress()
}

// GetStats returns the current executor statistics.
func (e *Engine) GetStats() *executor.Stats {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.executor == nil {
		return nil
	}
	return e.executor.GetStats()
}
