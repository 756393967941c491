// Package config provides run configuration parsing and validation.
package config

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Executor type names accepted in a run configuration.
const (
	ExecutorConstantVUs     = "constant-vus"
	ExecutorPerVUIterations = "per-vu-iterations"
)

// RunConfig is the root configuration for a load test run.
//
// It only describes the host side of a run: where to send load, how many
// users, for how long. What each user does is fixed by the scenario
// profile and cannot be changed here.
//
// Example YAML:
//
//	name: "prayer data smoke"
//	host: "https://prayer.example.org"
//	users: 20
//	spawnRate: 2
//	runTime: 5m
//	settings:
//	  timeout: 10s
//	thresholds:
//	  http_req_duration: ["p95 < 800ms"]
//	  http_req_failed: ["rate < 0.01"]
type RunConfig struct {
	// Name of the run (for reporting)
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// Description of the run (optional)
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// Host is the base URL of the target service
	Host string `json:"host,omitempty" yaml:"host,omitempty"`

	// Executor is "constant-vus" or "per-vu-iterations"; inferred from
	// Iterations when empty
	Executor string `json:"executor,omitempty" yaml:"executor,omitempty"`

	// Users is the number of simulated users
	Users int `json:"users,omitempty" yaml:"users,omitempty"`

	// SpawnRate is users started per second
	SpawnRate float64 `json:"spawnRate,omitempty" yaml:"spawnRate,omitempty"`

	// RunTime is how long to run (e.g., "30s", "2m", "1h")
	RunTime DurationString `json:"runTime,omitempty" yaml:"runTime,omitempty"`

	// Iterations per user (per-vu-iterations)
	Iterations int64 `json:"iterations,omitempty" yaml:"iterations,omitempty"`

	// GracefulStop is how long to wait for users to finish on stop
	GracefulStop DurationString `json:"gracefulStop,omitempty" yaml:"gracefulStop,omitempty"`

	// Settings contains HTTP client settings
	Settings Settings `json:"settings,omitempty" yaml:"settings,omitempty"`

	// Thresholds define pass/fail criteria for the run
	Thresholds *ThresholdsConfig `json:"thresholds,omitempty" yaml:"thresholds,omitempty"`
}

// Settings contains HTTP client settings.
type Settings struct {
	// Timeout is the HTTP request timeout
	Timeout Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`

	// MaxIdleConnsPerHost limits idle connections per host
	MaxIdleConnsPerHost int `json:"maxIdleConnsPerHost,omitempty" yaml:"maxIdleConnsPerHost,omitempty"`

	// InsecureSkipVerify skips TLS certificate verification
	InsecureSkipVerify bool `json:"insecureSkipVerify,omitempty" yaml:"insecureSkipVerify,omitempty"`

	// UserAgent overrides the HTTP client's User-Agent header
	UserAgent string `json:"userAgent,omitempty" yaml:"userAgent,omitempty"`

	// NoConnectionReuse gives every user its own connection pool
	NoConnectionReuse bool `json:"noConnectionReuse,omitempty" yaml:"noConnectionReuse,omitempty"`
}

// ThresholdsConfig defines pass/fail criteria for the run.
type ThresholdsConfig struct {
	// HTTPReqDuration thresholds for request duration
	// e.g., ["p95 < 500ms", "avg < 200ms"]
	HTTPReqDuration []string `json:"http_req_duration,omitempty" yaml:"http_req_duration,omitempty"`

	// HTTPReqFailed thresholds for failure rate
	// e.g., ["rate < 0.01"] (less than 1% failures)
	HTTPReqFailed []string `json:"http_req_failed,omitempty" yaml:"http_req_failed,omitempty"`

	// HTTPReqs thresholds for request count/rate
	// e.g., ["count > 1000", "rate > 100"]
	HTTPReqs []string `json:"http_reqs,omitempty" yaml:"http_reqs,omitempty"`
}

// Duration is a time.Duration that can be unmarshaled from JSON/YAML
// strings ("30s") or integer seconds (30).
type Duration time.Duration

// GetDuration returns the duration or a default if empty.
func (d Duration) GetDuration(defaultValue time.Duration) time.Duration {
	if d == 0 {
		return defaultValue
	}
	return time.Duration(d)
}

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(b []byte) error {
	var raw interface{}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	switch v := raw.(type) {
	case nil:
		*d = 0
		return nil
	case string:
		return d.set(v)
	case float64:
		*d = Duration(time.Duration(v * float64(time.Second)))
		return nil
	default:
		return fmt.Errorf("invalid duration: %s", string(b))
	}
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	return d.set(s)
}

func (d *Duration) set(s string) error {
	dur, err := ParseDurationString(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

// String returns the duration as a string.
func (d Duration) String() string {
	return time.Duration(d).String()
}

// DurationString keeps a duration as written ("30s", "2m") so it can be
// echoed back in plans and reports. JSON numbers are whole seconds.
type DurationString string

// UnmarshalJSON implements json.Unmarshaler.
func (d *DurationString) UnmarshalJSON(b []byte) error {
	var raw interface{}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	switch v := raw.(type) {
	case nil:
		*d = ""
		return nil
	case string:
		*d = DurationString(v)
		return nil
	case float64:
		if v < 0 || v != float64(int64(v)) {
			return fmt.Errorf("invalid duration: %s", string(b))
		}
		*d = DurationString(strconv.FormatInt(int64(v), 10))
		return nil
	default:
		return fmt.Errorf("invalid duration: %s", string(b))
	}
}

// Duration parses the value with ParseDurationString.
func (d DurationString) Duration() (time.Duration, error) {
	return ParseDurationString(string(d))
}
