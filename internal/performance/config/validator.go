package config

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors struct {
	Errors []*ValidationError
}

func (e *ValidationErrors) Error() string {
	if len(e.Errors) == 0 {
		return "no validation errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e.Errors)))
	for i, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// Add adds an error to the collection.
func (e *ValidationErrors) Add(field, message string) {
	e.Errors = append(e.Errors, &ValidationError{Field: field, Message: message})
}

// HasErrors returns true if there are any errors.
func (e *ValidationErrors) HasErrors() bool {
	return len(e.Errors) > 0
}

// Validate validates the run configuration.
//
// Returns nil if valid, or a ValidationErrors containing all validation errors.
// Call ApplyDefaults first; an empty executor is reported as missing.
func (c *RunConfig) Validate() error {
	errs := &ValidationErrors{}

	validateHost(c.Host, errs)

	switch c.Executor {
	case "":
		errs.Add("executor", "executor type is required")
	case ExecutorConstantVUs:
		validateRunTime(string(c.RunTime), true, errs)
		if c.Iterations > 0 {
			errs.Add("iterations", "not used by constant-vus; use per-vu-iterations")
		}
	case ExecutorPerVUIterations:
		if c.Iterations <= 0 {
			errs.Add("iterations", "must be > 0 for per-vu-iterations")
		}
		validateRunTime(string(c.RunTime), false, errs)
	default:
		errs.Add("executor", fmt.Sprintf("unknown executor type: %s", c.Executor))
	}

	if c.Users <= 0 {
		errs.Add("users", "must be > 0")
	}
	if c.SpawnRate < 0 {
		errs.Add("spawnRate", "cannot be negative")
	}
	if c.Iterations < 0 {
		errs.Add("iterations", "cannot be negative")
	}
	if _, err := c.GracefulStop.Duration(); err != nil {
		errs.Add("gracefulStop", err.Error())
	}

	validateSettings(&c.Settings, errs)

	if c.Thresholds != nil {
		validateThresholds(c.Thresholds, errs)
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}

// validateHost requires an absolute http(s) URL.
func validateHost(host string, errs *ValidationErrors) {
	if host == "" {
		errs.Add("host", "host is required")
		return
	}

	u, err := url.Parse(host)
	if err != nil {
		errs.Add("host", fmt.Sprintf("invalid URL: %v", err))
		return
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		errs.Add("host", fmt.Sprintf("scheme must be http or https, got %q", u.Scheme))
	}
	if u.Host == "" {
		errs.Add("host", "host must be an absolute URL")
	}
}

func validateRunTime(runTime string, required bool, errs *ValidationErrors) {
	d, err := ParseDurationString(runTime)
	if err != nil {
		errs.Add("runTime", err.Error())
		return
	}
	if d < 0 {
		errs.Add("runTime", "cannot be negative")
	}
	if required && d == 0 {
		errs.Add("runTime", "must be > 0 for constant-vus")
	}
}

// validateSettings validates HTTP settings.
func validateSettings(s *Settings, errs *ValidationErrors) {
	if s.Timeout < 0 {
		errs.Add("settings.timeout", "cannot be negative")
	}
	if s.MaxIdleConnsPerHost < 0 {
		errs.Add("settings.maxIdleConnsPerHost", "cannot be negative")
	}
}

// validateThresholds validates threshold configuration.
func validateThresholds(t *ThresholdsConfig, errs *ValidationErrors) {
	check := func(metric string, exprs []string) {
		for i, expr := range exprs {
			if _, err := ParseThreshold(metric, expr); err != nil {
				errs.Add(fmt.Sprintf("thresholds.%s[%d]", metric, i), err.Error())
			}
		}
	}

	check(MetricHTTPReqDuration, t.HTTPReqDuration)
	check(MetricHTTPReqFailed, t.HTTPReqFailed)
	check(MetricHTTPReqs, t.HTTPReqs)
}

// Threshold metrics.
const (
	MetricHTTPReqDuration = "http_req_duration"
	MetricHTTPReqFailed   = "http_req_failed"
	MetricHTTPReqs        = "http_reqs"
)

// Threshold is a parsed threshold expression such as "p95 < 500ms".
type Threshold struct {
	// Metric is the threshold group (http_req_duration, ...)
	Metric string

	// Stat is the aggregation on the left side (p95, rate, count, ...)
	Stat string

	// Op is the comparison operator
	Op string

	// Value is the right side; durations are stored in nanoseconds
	Value float64

	Expression string
}

var thresholdRe = regexp.MustCompile(`^(\w+)\s*([<>=!]+)\s*(.+)$`)

var validOps = map[string]bool{"<": true, "<=": true, ">": true, ">=": true, "==": true, "!=": true}

// ParseThreshold parses and checks an expression for the given metric.
//
// Valid forms:
//   - http_req_duration: "p95 < 500ms" (min, max, avg, med, p50, p90, p95, p99)
//   - http_req_failed: "rate < 0.01"
//   - http_reqs: "count > 1000", "rate > 100"
func ParseThreshold(metric, expr string) (Threshold, error) {
	t := Threshold{Metric: metric, Expression: expr}

	expr = strings.TrimSpace(expr)
	if expr == "" {
		return t, fmt.Errorf("threshold expression cannot be empty")
	}

	m := thresholdRe.FindStringSubmatch(expr)
	if len(m) != 4 {
		return t, fmt.Errorf("invalid expression format: %s", expr)
	}
	t.Stat, t.Op = m[1], m[2]
	valueStr := strings.TrimSpace(m[3])

	if !validOps[t.Op] {
		return t, fmt.Errorf("invalid operator %q (use <, <=, >, >=, ==, !=)", t.Op)
	}

	switch metric {
	case MetricHTTPReqDuration:
		switch t.Stat {
		case "min", "max", "avg", "med", "p50", "p90", "p95", "p99":
		default:
			return t, fmt.Errorf("%s does not support %q (use min, max, avg, med, p50, p90, p95, p99)", metric, t.Stat)
		}
		d, err := time.ParseDuration(valueStr)
		if err != nil {
			return t, fmt.Errorf("invalid duration %q: %w", valueStr, err)
		}
		t.Value = float64(d)

	case MetricHTTPReqFailed, MetricHTTPReqs:
		allowed := t.Stat == "rate" || (metric == MetricHTTPReqs && t.Stat == "count")
		if !allowed {
			return t, fmt.Errorf("%s does not support %q", metric, t.Stat)
		}
		v, err := strconv.ParseFloat(valueStr, 64)
		if err != nil {
			return t, fmt.Errorf("invalid number %q: %w", valueStr, err)
		}
		t.Value = v

	default:
		return t, fmt.Errorf("unknown threshold metric: %s", metric)
	}

	return t, nil
}

// Compare reports whether actual satisfies the threshold.
func (t Threshold) Compare(actual float64) bool {
	switch t.Op {
	case "<":
		return actual < t.Value
	case "<=":
		return actual <= t.Value
	case ">":
		return actual > t.Value
	case ">=":
		return actual >= t.Value
	case "==":
		return actual == t.Value
	case "!=":
		return actual != t.Value
	default:
		return false
	}
}
