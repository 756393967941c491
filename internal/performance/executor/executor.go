// Package executor provides load generation strategies for performance testing.
package executor

import (
	"context"
	"time"

	"github.com/wesleyorama2/prayerload/internal/performance"
	"github.com/wesleyorama2/prayerload/internal/performance/metrics"
)

// Type identifies the type of executor.
type Type string

const (
	// TypeConstantVUs spawns users at a fixed rate and keeps them running
	// for a duration.
	TypeConstantVUs Type = "constant-vus"

	// TypePerVUIterations runs a fixed number of iterations per user.
	TypePerVUIterations Type = "per-vu-iterations"
)

// Executor defines the interface for load generation strategies.
//
// Executors decide how many users exist and for how long. What a user does
// on each iteration is owned by the scheduler and the profile.
type Executor interface {
	// Type returns the executor type.
	Type() Type

	// Init initializes the executor with configuration.
	// Called once before Run().
	Init(ctx context.Context, config *Config) error

	// Run starts the executor and blocks until completion.
	// The executor should respect context cancellation for graceful shutdown.
	Run(ctx context.Context, scheduler *performance.VUScheduler, metrics *metrics.Engine) error

	// GetProgress returns current progress (0.0 to 1.0).
	GetProgress() float64

	// GetActiveVUs returns current active VU count.
	GetActiveVUs() int

	// GetStats returns executor-specific statistics.
	GetStats() *Stats

	// Stop gracefully stops the executor.
	// Called when the test needs to end early.
	Stop(ctx context.Context) error
}

// Config contains configuration for an executor.
type Config struct {
	// Name is the name of this executor instance
	Name string `json:"name" yaml:"name"`

	// Type is the executor type
	Type Type `json:"type" yaml:"type"`

	// VUs is the number of simulated users
	VUs int `json:"vus" yaml:"vus"`

	// SpawnRate is users started per second; 0 starts them all at once
	SpawnRate float64 `json:"spawnRate,omitempty" yaml:"spawnRate,omitempty"`

	// Duration is the run time for constant-vus, and an optional upper
	// bound for per-vu-iterations
	Duration time.Duration `json:"duration,omitempty" yaml:"duration,omitempty"`

	// Iterations per user (per-vu-iterations)
	Iterations int64 `json:"iterations,omitempty" yaml:"iterations,omitempty"`

	// Graceful stop timeout
	GracefulStop time.Duration `json:"gracefulStop,omitempty" yaml:"gracefulStop,omitempty"`
}

// Stats contains real-time executor statistics.
type Stats struct {
	// Timing
	StartTime     time.Time     `json:"startTime"`
	CurrentTime   time.Time     `json:"currentTime"`
	Elapsed       time.Duration `json:"elapsed"`
	TotalDuration time.Duration `json:"totalDuration"`
	RampUp        time.Duration `json:"rampUp"`

	// VU stats
	ActiveVUs  int `json:"activeVUs"`
	TargetVUs  int `json:"targetVUs"`
	SpawnedVUs int `json:"spawnedVUs"`

	// Iteration stats
	Iterations      int64 `json:"iterations"`
	TotalIterations int64 `json:"totalIterations"` // per-vu-iterations only
}

// Validate validates the executor configuration.
func (c *Config) Validate() error {
	if c.Type == "" {
		return &ValidationError{Field: "type", Message: "executor type is required"}
	}
	if c.SpawnRate < 0 {
		return &ValidationError{Field: "spawnRate", Message: "spawnRate cannot be negative"}
	}
	if c.GracefulStop < 0 {
		return &ValidationError{Field: "gracefulStop", Message: "gracefulStop cannot be negative"}
	}

	switch c.Type {
	case TypeConstantVUs:
		if c.VUs <= 0 {
			return &ValidationError{Field: "vus", Message: "vus must be > 0"}
		}
		if c.Duration <= 0 {
			return &ValidationError{Field: "duration", Message: "duration must be > 0"}
		}

	case TypePerVUIterations:
		if c.VUs <= 0 {
			return &ValidationError{Field: "vus", Message: "vus must be > 0"}
		}
		if c.Iterations <= 0 {
			return &ValidationError{Field: "iterations", Message: "iterations must be > 0"}
		}
		if c.Duration < 0 {
			return &ValidationError{Field: "duration", Message: "duration cannot be negative"}
		}

	default:
		return &ValidationError{Field: "type", Message: "unknown executor type: " + string(c.Type)}
	}

	return nil
}

// TotalDuration calculates the total duration for this executor.
// It is 0 when the run ends on iteration count alone.
func (c *Config) TotalDuration() time.Duration {
	return c.Duration
}

// SpawnDuration is how long it takes to start every user at SpawnRate.
func (c *Config) SpawnDuration() time.Duration {
	if c.SpawnRate <= 0 || c.VUs <= 1 {
		return 0
	}
	return time.Duration(float64(c.VUs-1) / c.SpawnRate * float64(time.Second))
}

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return "validation error on field '" + e.Field + "': " + e.Message
}
