package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variables read by ApplyEnvironment.
const (
	EnvHost       = "PRAYERLOAD_HOST"
	EnvUsers      = "PRAYERLOAD_USERS"
	EnvSpawnRate  = "PRAYERLOAD_SPAWN_RATE"
	EnvRunTime    = "PRAYERLOAD_RUN_TIME"
	EnvIterations = "PRAYERLOAD_ITERATIONS"
)

// DefaultRunTime is used for constant-vus runs that set no run time.
const DefaultRunTime DurationString = "1m"

// LoadConfig loads a run configuration from a file.
//
// The file format is determined by extension:
//   - .yaml, .yml -> YAML
//   - .json -> JSON
func LoadConfig(path string) (*RunConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return ParseConfig(data, path)
}

// ParseConfig parses configuration data.
//
// The format is determined by the file extension in path, or defaults to YAML
// if the path is empty or has an unknown extension. The document is checked
// against the embedded JSON Schema before it is decoded.
func ParseConfig(data []byte, path string) (*RunConfig, error) {
	var (
		raw    interface{}
		config RunConfig
	)

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".json":
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	}

	if raw == nil {
		raw = map[string]interface{}{}
	}
	if err := validateSchema(raw); err != nil {
		return nil, err
	}

	switch ext {
	case ".json":
		if err := json.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	}

	return &config, nil
}

// ParseDurationString parses a duration string with support for common formats.
//
// Supported formats:
//   - Standard Go duration: "30s", "2m", "1h30m", "500ms"
//   - Seconds as integer: "30" (treated as 30 seconds)
func ParseDurationString(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}

	d, err := time.ParseDuration(s)
	if err == nil {
		return d, nil
	}

	if seconds, err := strconv.Atoi(s); err == nil {
		return time.Duration(seconds) * time.Second, nil
	}

	return 0, fmt.Errorf("invalid duration format: %s", s)
}

// ApplyEnvironment overrides config values from environment variables.
//
// lookup is usually os.LookupEnv. Empty values are ignored. A positive
// iteration count selects per-vu-iterations, as the --iterations flag does.
func ApplyEnvironment(config *RunConfig, lookup func(string) (string, bool)) error {
	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}

	if v, ok := get(EnvHost); ok {
		config.Host = v
	}
	if v, ok := get(EnvUsers); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvUsers, err)
		}
		config.Users = n
	}
	if v, ok := get(EnvSpawnRate); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvSpawnRate, err)
		}
		config.SpawnRate = f
	}
	if v, ok := get(EnvRunTime); ok {
		if _, err := ParseDurationString(v); err != nil {
			return fmt.Errorf("invalid %s: %w", EnvRunTime, err)
		}
		config.RunTime = DurationString(v)
	}
	if v, ok := get(EnvIterations); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvIterations, err)
		}
		config.Iterations = n
		if n > 0 {
			config.Executor = ExecutorPerVUIterations
		}
	}

	return nil
}

// ApplyDefaults applies default values to a RunConfig.
func ApplyDefaults(config *RunConfig) {
	if config.Name == "" {
		config.Name = "prayerload"
	}

	if config.Executor == "" {
		if config.Iterations > 0 {
			config.Executor = ExecutorPerVUIterations
		} else {
			config.Executor = ExecutorConstantVUs
		}
	}

	if config.Users == 0 {
		config.Users = 1
	}
	if config.SpawnRate == 0 {
		config.SpawnRate = float64(config.Users)
	}
	if config.Executor == ExecutorConstantVUs && config.RunTime == "" {
		config.RunTime = DefaultRunTime
	}

	if config.Settings.Timeout == 0 {
		config.Settings.Timeout = Duration(30 * time.Second)
	}
	if config.Settings.MaxIdleConnsPerHost == 0 {
		config.Settings.MaxIdleConnsPerHost = 100
	}
}
