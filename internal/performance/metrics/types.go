// Package metrics collects request statistics for a load test run.
package metrics

import (
	"fmt"
	"net/http"
	"time"
)

// Phase represents a phase of the load test.
type Phase string

const (
	// PhaseInit is the phase before any user is spawned.
	PhaseInit Phase = "init"

	// PhaseRampUp is the phase while users are being spawned.
	PhaseRampUp Phase = "ramp-up"

	// PhaseSteady is the phase with all users running.
	PhaseSteady Phase = "steady"

	// PhaseDone indicates the run has completed.
	PhaseDone Phase = "done"
)

// Sample is the outcome of one request issued by a simulated user.
type Sample struct {
	Method     string
	Name       string
	StatusCode int
	Duration   time.Duration
	Bytes      int64
	Err        error
}

// Success reports whether the request counts as successful: no transport
// error and a final status below 400.
func (s Sample) Success() bool {
	return s.Err == nil && s.StatusCode > 0 && s.StatusCode < 400
}

// FailureReason describes why a failed sample failed.
func (s Sample) FailureReason() string {
	if s.Err != nil {
		return s.Err.Error()
	}
	return fmt.Sprintf("HTTP %d %s", s.StatusCode, http.StatusText(s.StatusCode))
}

// LatencyStats contains latency statistics.
type LatencyStats struct {
	Min    time.Duration `json:"min"`
	Max    time.Duration `json:"max"`
	Mean   time.Duration `json:"mean"`
	StdDev time.Duration `json:"stdDev"`
	P50    time.Duration `json:"p50"`
	P90    time.Duration `json:"p90"`
	P95    time.Duration `json:"p95"`
	P99    time.Duration `json:"p99"`
	Count  int64         `json:"count"`
}

// LatencyPercentiles holds latency percentile values.
type LatencyPercentiles struct {
	Min time.Duration
	Max time.Duration
	P50 time.Duration
	P90 time.Duration
	P95 time.Duration
	P99 time.Duration
}

// EntryStats aggregates every request sharing a method and name.
type EntryStats struct {
	Method    string       `json:"method"`
	Name      string       `json:"name"`
	Requests  int64        `json:"requests"`
	Failures  int64        `json:"failures"`
	Bytes     int64        `json:"bytes"`
	Latency   LatencyStats `json:"latency"`
	LastError string       `json:"lastError,omitempty"`
}

// FailureStats counts one distinct failure reason for an entry.
type FailureStats struct {
	Method      string `json:"method"`
	Name        string `json:"name"`
	Error       string `json:"error"`
	Occurrences int64  `json:"occurrences"`
}

// Snapshot contains a point-in-time view of all metrics.
type Snapshot struct {
	TotalRequests   int64         `json:"totalRequests"`
	SuccessRequests int64         `json:"successRequests"`
	FailedRequests  int64         `json:"failedRequests"`
	TotalBytes      int64         `json:"totalBytes"`
	Latency         LatencyStats  `json:"latency"`
	RPS             float64       `json:"rps"`
	SteadyStateRPS  float64       `json:"steadyStateRps"`
	ErrorRate       float64       `json:"errorRate"`
	ActiveVUs       int           `json:"activeVUs"`
	CurrentPhase    Phase         `json:"currentPhase"`
	Elapsed         time.Duration `json:"elapsed"`
	StartTime       time.Time     `json:"startTime"`
	Timestamp       time.Time     `json:"timestamp"`
}

// TimeBucket captures the run state at the end of one bucket interval.
type TimeBucket struct {
	Timestamp time.Time `json:"timestamp"`

	// Cumulative counters
	TotalRequests  int64 `json:"totalRequests"`
	TotalSuccesses int64 `json:"totalSuccesses"`
	TotalFailures  int64 `json:"totalFailures"`
	TotalBytes     int64 `json:"totalBytes"`

	// Interval counters
	IntervalRequests  int64   `json:"intervalRequests"`
	IntervalRPS       float64 `json:"intervalRPS"`
	IntervalErrorRate float64 `json:"intervalErrorRate"`

	LatencyP50 time.Duration `json:"latencyP50"`
	LatencyP95 time.Duration `json:"latencyP95"`
	LatencyP99 time.Duration `json:"latencyP99"`

	ActiveVUs int   `json:"activeVUs"`
	Phase     Phase `json:"phase"`
}

// PhaseChange records when a phase transition occurred.
type PhaseChange struct {
	Phase     Phase     `json:"phase"`
	Timestamp time.Time `json:"timestamp"`
	Requests  int64     `json:"requests"`
}

// EngineConfig contains configuration for the metrics engine.
type EngineConfig struct {
	// BucketInterval is the interval for time-series buckets (default: 1s)
	BucketInterval time.Duration

	// MaxBuckets is the maximum number of buckets to retain (default: 3600)
	MaxBuckets int

	// HistogramMin is the minimum recordable value in microseconds (default: 1)
	HistogramMin int64

	// HistogramMax is the maximum recordable value in microseconds (default: 1 hour)
	HistogramMax int64

	// HistogramSigFigs is the number of significant figures (default: 3)
	HistogramSigFigs int
}

// DefaultEngineConfig returns the default configuration.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		BucketInterval:   time.Second,
		MaxBuckets:       3600,
		HistogramMin:     1,
		HistogramMax:     3600000000,
		HistogramSigFigs: 3,
	}
}
