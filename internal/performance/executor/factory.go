package executor

import (
	"context"
	"fmt"

	"github.com/wesleyorama2/prayerload/internal/performance/config"
)

// NewExecutor creates a new executor of the specified type.
//
// Supported types:
//   - "constant-vus" - Users spawned at a rate, running for a duration
//   - "per-vu-iterations" - Each user runs a fixed number of iterations
//
// Returns an uninitialized executor. Call Init() before Run().
func NewExecutor(executorType Type) (Executor, error) {
	switch executorType {
	case TypeConstantVUs:
		return NewConstantVUs(), nil
	case TypePerVUIterations:
		return NewPerVUIterations(), nil
	default:
		return nil, fmt.Errorf("unknown executor type: %s", executorType)
	}
}

// CreateAndInitExecutor creates and initializes an executor with the given config.
func CreateAndInitExecutor(ctx context.Context, cfg *Config) (Executor, error) {
	exec, err := NewExecutor(cfg.Type)
	if err != nil {
		return nil, err
	}

	if err := exec.Init(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize executor: %w", err)
	}

	return exec, nil
}

// CreateExecutorFromRunConfig creates and initializes an executor from a
// run config.
//
// This bridges config.RunConfig (from YAML/JSON, flags and environment) to
// the executor.Config, parsing durations on the way.
func CreateExecutorFromRunConfig(ctx context.Context, rc *config.RunConfig) (Executor, *Config, error) {
	execConfig, err := ConfigFromRunConfig(rc)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to convert run config: %w", err)
	}

	exec, err := CreateAndInitExecutor(ctx, execConfig)
	if err != nil {
		return nil, nil, err
	}

	return exec, execConfig, nil
}

// ConfigFromRunConfig converts a config.RunConfig to an executor Config.
func ConfigFromRunConfig(rc *config.RunConfig) (*Config, error) {
	cfg := &Config{
		Name:       rc.Name,
		Type:       Type(rc.Executor),
		VUs:        rc.Users,
		SpawnRate:  rc.SpawnRate,
		Iterations: rc.Iterations,
	}

	if rc.RunTime != "" {
		dur, err := rc.RunTime.Duration()
		if err != nil {
			return nil, fmt.Errorf("invalid runTime: %w", err)
		}
		cfg.Duration = dur
	}

	if rc.GracefulStop != "" {
		dur, err := rc.GracefulStop.Duration()
		if err != nil {
			return nil, fmt.Errorf("invalid gracefulStop: %w", err)
		}
		cfg.GracefulStop = dur
	}

	return cfg, nil
}

// IsValidExecutorType returns true if the type is a valid executor type.
func IsValidExecutorType(executorType string) bool {
	switch Type(executorType) {
	case TypeConstantVUs, TypePerVUIterations:
		return true
	default:
		return false
	}
}

// GetSupportedExecutors returns a list of all supported executor types.
func GetSupportedExecutors() []Type {
	return []Type{
		TypeConstantVUs,
		TypePerVUIterations,
	}
}

// ExecutorDescription provides documentation for an executor type.
type ExecutorDescription struct {
	Type        Type
	Name        string
	Description string
}

// GetExecutorDescription returns documentation for an executor type.
func GetExecutorDescription(executorType Type) *ExecutorDescription {
	switch executorType {
	case TypeConstantVUs:
		return &ExecutorDescription{
			Type:        TypeConstantVUs,
			Name:        "Constant VUs",
			Description: "Starts users at the spawn rate and keeps them running until the run time elapses. Each user pauses for its think time between requests.",
		}
	case TypePerVUIterations:
		return &ExecutorDescription{
			Type:        TypePerVUIterations,
			Name:        "Per-VU Iterations",
			Description: "Starts users at the spawn rate; each runs a fixed number of iterations and then stops.",
		}
	default:
		return nil
	}
}
