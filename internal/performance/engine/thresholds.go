package engine

import (
	"fmt"
	"time"

	"github.com/wesleyorama2/prayerload/internal/performance/config"
	"github.com/wesleyorama2/prayerload/internal/performance/metrics"
)

// ThresholdResult contains the result of a threshold evaluation.
type ThresholdResult struct {
	Metric     string `json:"metric"`
	Expression string `json:"expression"`
	Passed     bool   `json:"passed"`
	Value      string `json:"value"`
	Message    string `json:"message,omitempty"`
}

// evaluateThresholds evaluates all configured thresholds.
func evaluateThresholds(t *config.ThresholdsConfig, snapshot *metrics.Snapshot) []ThresholdResult {
	if t == nil {
		return nil
	}

	var results []ThresholdResult
	for _, expr := range t.HTTPReqDuration {
		results = append(results, evaluateThreshold(config.MetricHTTPReqDuration, expr, snapshot))
	}
	for _, expr := range t.HTTPReqFailed {
		results = append(results, evaluateThreshold(config.MetricHTTPReqFailed, expr, snapshot))
	}
	for _, expr := range t.HTTPReqs {
		results = append(results, evaluateThreshold(config.MetricHTTPReqs, expr, snapshot))
	}
	return results
}

// evaluateThreshold evaluates one expression against the final snapshot.
func evaluateThreshold(metric, expr string, snapshot *metrics.Snapshot) ThresholdResult {
	result := ThresholdResult{
		Metric:     metric,
		Expression: expr,
	}

	th, err := config.ParseThreshold(metric, expr)
	if err != nil {
		result.Message = fmt.Sprintf("failed to parse expression: %v", err)
		return result
	}

	var actual float64
	switch metric {
	case config.MetricHTTPReqDuration:
		d := durationStat(th.Stat, snapshot.Latency)
		actual = float64(d)
		result.Value = d.String()
		result.Passed = th.Compare(actual)
		if !result.Passed {
			result.Message = fmt.Sprintf("%s is %s, threshold: %s %s", th.Stat, d, th.Op, time.Duration(th.Value))
		}
		return result

	case config.MetricHTTPReqFailed:
		actual = snapshot.ErrorRate
		result.Value = fmt.Sprintf("%.4f", actual)
		result.Passed = th.Compare(actual)
		if !result.Passed {
			result.Message = fmt.Sprintf("error rate is %.4f, threshold: %s %.4f", actual, th.Op, th.Value)
		}
		return result

	default:
		if th.Stat == "count" {
			actual = float64(snapshot.TotalRequests)
		} else {
			actual = snapshot.RPS
		}
		result.Value = fmt.Sprintf("%.2f", actual)
		result.Passed = th.Compare(actual)
		if !result.Passed {
			result.Message = fmt.Sprintf("%s is %.2f, threshold: %s %.2f", th.Stat, actual, th.Op, th.Value)
		}
		return result
	}
}

func durationStat(stat string, l metrics.LatencyStats) time.Duration {
	switch stat {
	case "min":
		return l.Min
	case "max":
		return l.Max
	case "avg":
		return l.Mean
	case "med", "p50":
		return l.P50
	case "p90":
		return l.P90
	case "p95":
		return l.P95
	default:
		return l.P99
	}
}
