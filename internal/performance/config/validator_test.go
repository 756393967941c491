package config

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *RunConfig {
	cfg := &RunConfig{Host: "http://localhost:8080"}
	ApplyDefaults(cfg)
	return cfg
}

func TestRunConfig_Validate(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(*RunConfig)
		wantFields []string
	}{
		{
			name:   "defaults are valid",
			mutate: func(*RunConfig) {},
		},
		{
			name:   "https host with path prefix",
			mutate: func(c *RunConfig) { c.Host = "https://example.org/prayer/" },
		},
		{
			name:       "missing host",
			mutate:     func(c *RunConfig) { c.Host = "" },
			wantFields: []string{"host"},
		},
		{
			name:       "relative host",
			mutate:     func(c *RunConfig) { c.Host = "/getPrayerData" },
			wantFields: []string{"host"},
		},
		{
			name:       "unsupported scheme",
			mutate:     func(c *RunConfig) { c.Host = "ftp://example.org" },
			wantFields: []string{"host"},
		},
		{
			name:       "unknown executor",
			mutate:     func(c *RunConfig) { c.Executor = "shared-iterations" },
			wantFields: []string{"executor"},
		},
		{
			name:       "zero run time for constant-vus",
			mutate:     func(c *RunConfig) { c.RunTime = "0s" },
			wantFields: []string{"runTime"},
		},
		{
			name: "per-vu-iterations without iterations",
			mutate: func(c *RunConfig) {
				c.Executor = ExecutorPerVUIterations
				c.Iterations = 0
			},
			wantFields: []string{"iterations"},
		},
		{
			name: "iterations with constant-vus",
			mutate: func(c *RunConfig) {
				c.Executor = ExecutorConstantVUs
				c.Iterations = 5
			},
			wantFields: []string{"iterations"},
		},
		{
			name: "per-vu-iterations without run time",
			mutate: func(c *RunConfig) {
				c.Executor = ExecutorPerVUIterations
				c.Iterations = 1
				c.RunTime = ""
			},
		},
		{
			name: "several problems at once",
			mutate: func(c *RunConfig) {
				c.Users = 0
				c.SpawnRate = -1
				c.GracefulStop = "later"
				c.Settings.Timeout = Duration(-time.Second)
			},
			wantFields: []string{"users", "spawnRate", "gracefulStop", "settings.timeout"},
		},
		{
			name: "bad thresholds",
			mutate: func(c *RunConfig) {
				c.Thresholds = &ThresholdsConfig{
					HTTPReqDuration: []string{"p95 < 500ms", "rate < 1"},
					HTTPReqFailed:   []string{"rate <"},
					HTTPReqs:        []string{"count => 10"},
				}
			},
			wantFields: []string{
				"thresholds.http_req_duration[1]",
				"thresholds.http_req_failed[0]",
				"thresholds.http_reqs[0]",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if len(tt.wantFields) == 0 {
				assert.NoError(t, err)
				return
			}

			var verrs *ValidationErrors
			require.True(t, errors.As(err, &verrs), "want *ValidationErrors, got %v", err)

			var fields []string
			for _, e := range verrs.Errors {
				fields = append(fields, e.Field)
			}
			for _, f := range tt.wantFields {
				assert.Contains(t, fields, f)
			}
		})
	}
}

func TestValidationErrors_Error(t *testing.T) {
	errs := &ValidationErrors{}
	assert.Equal(t, "no validation errors", errs.Error())

	errs.Add("host", "host is required")
	assert.Equal(t, "validation error on field 'host': host is required", errs.Error())

	errs.Add("", "document invalid")
	msg := errs.Error()
	assert.True(t, strings.HasPrefix(msg, "2 validation errors:"))
	assert.Contains(t, msg, "validation error: document invalid")
}

func TestParseThreshold(t *testing.T) {
	tests := []struct {
		metric  string
		expr    string
		stat    string
		op      string
		value   float64
		wantErr bool
	}{
		{metric: MetricHTTPReqDuration, expr: "p95 < 500ms", stat: "p95", op: "<", value: float64(500 * time.Millisecond)},
		{metric: MetricHTTPReqDuration, expr: "avg<=1s", stat: "avg", op: "<=", value: float64(time.Second)},
		{metric: MetricHTTPReqFailed, expr: "rate < 0.01", stat: "rate", op: "<", value: 0.01},
		{metric: MetricHTTPReqs, expr: "count >= 10", stat: "count", op: ">=", value: 10},
		{metric: MetricHTTPReqs, expr: "rate > 2.5", stat: "rate", op: ">", value: 2.5},
		{metric: MetricHTTPReqDuration, expr: "p95 < 500", wantErr: true},
		{metric: MetricHTTPReqDuration, expr: "p42 < 1s", wantErr: true},
		{metric: MetricHTTPReqFailed, expr: "count < 1", wantErr: true},
		{metric: MetricHTTPReqs, expr: "count =< 1", wantErr: true},
		{metric: MetricHTTPReqs, expr: "", wantErr: true},
		{metric: "iterations", expr: "count > 1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.metric+"/"+tt.expr, func(t *testing.T) {
			th, err := ParseThreshold(tt.metric, tt.expr)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.stat, th.Stat)
			assert.Equal(t, tt.op, th.Op)
			assert.InDelta(t, tt.value, th.Value, 1e-9)
		})
	}
}

func TestThreshold_Compare(t *testing.T) {
	tests := []struct {
		op     string
		actual float64
		want   bool
	}{
		{"<", 1, true},
		{"<", 2, false},
		{"<=", 2, true},
		{">", 3, true},
		{">=", 2, true},
		{"==", 2, true},
		{"!=", 2, false},
		{"=>", 2, false},
	}

	for _, tt := range tests {
		th := Threshold{Op: tt.op, Value: 2}
		assert.Equal(t, tt.want, th.Compare(tt.actual), "%v %s 2", tt.actual, tt.op)
	}
}
