// Package report writes run results to JSON, CSV and HTML files.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"os"
	"time"

	"github.com/wesleyorama2/prayerload/internal/performance/engine"
	"github.com/wesleyorama2/prayerload/internal/performance/metrics"
	"github.com/wesleyorama2/prayerload/internal/performance/output"
)

// ReportData contains all data needed to render the HTML report.
type ReportData struct {
	*engine.TestResult
	TimeSeriesJSON template.JS
}

// TimeSeriesPoint is one chart point. Latencies are in nanoseconds.
type TimeSeriesPoint struct {
	Timestamp         string  `json:"timestamp"`
	TotalRequests     int64   `json:"totalRequests"`
	TotalFailures     int64   `json:"totalFailures"`
	IntervalRequests  int64   `json:"intervalRequests"`
	IntervalRPS       float64 `json:"intervalRPS"`
	IntervalErrorRate float64 `json:"intervalErrorRate"`
	LatencyP50        int64   `json:"latencyP50"`
	LatencyP95        int64   `json:"latencyP95"`
	LatencyP99        int64   `json:"latencyP99"`
	ActiveVUs         int     `json:"activeVUs"`
	Phase             string  `json:"phase"`
}

// GenerateHTML generates an HTML report from test results and writes it to a file.
func GenerateHTML(result *engine.TestResult, outputPath string) error {
	html, err := GenerateHTMLString(result)
	if err != nil {
		return fmt.Errorf("failed to generate HTML: %w", err)
	}

	if err := os.WriteFile(outputPath, []byte(html), 0644); err != nil {
		return fmt.Errorf("failed to write HTML file: %w", err)
	}

	return nil
}

// GenerateHTMLString generates an HTML report from test results and returns it as a string.
func GenerateHTMLString(result *engine.TestResult) (string, error) {
	if result == nil {
		return "", fmt.Errorf("result cannot be nil")
	}

	tmpl, err := template.New("report").Funcs(templateFuncs()).Parse(htmlTemplate)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	timeSeriesJSON, err := convertTimeSeriesJSON(result.TimeSeries)
	if err != nil {
		return "", fmt.Errorf("failed to convert time series: %w", err)
	}

	data := ReportData{
		TestResult:     result,
		TimeSeriesJSON: template.JS(timeSeriesJSON),
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}

	return buf.String(), nil
}

// convertTimeSeriesJSON converts the time series buckets to JSON for chart rendering.
func convertTimeSeriesJSON(timeSeries []*metrics.TimeBucket) (string, error) {
	if len(timeSeries) == 0 {
		return "[]", nil
	}

	points := make([]TimeSeriesPoint, len(timeSeries))
	for i, bucket := range timeSeries {
		points[i] = TimeSeriesPoint{
			Timestamp:         bucket.Timestamp.Format(time.RFC3339),
			TotalRequests:     bucket.TotalRequests,
			TotalFailures:     bucket.TotalFailures,
			IntervalRequests:  bucket.IntervalRequests,
			IntervalRPS:       bucket.IntervalRPS,
			IntervalErrorRate: bucket.IntervalErrorRate,
			LatencyP50:        int64(bucket.LatencyP50),
			LatencyP95:        int64(bucket.LatencyP95),
			LatencyP99:        int64(bucket.LatencyP99),
			ActiveVUs:         bucket.ActiveVUs,
			Phase:             string(bucket.Phase),
		}
	}

	jsonBytes, err := json.Marshal(points)
	if err != nil {
		return "[]", err
	}

	return string(jsonBytes), nil
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"formatDuration": output.FormatDuration,
		"formatNumber":   output.FormatNumber,
		"formatLatency":  formatLatency,
		"formatBytes":    output.FormatBytes,
		"mul":            mul,
		"successRate":    successRate,
		"failRate":       failRate,
	}
}

// formatLatency formats a latency duration in a human-readable way.
func formatLatency(d time.Duration) string {
	if d == 0 {
		return "0"
	}
	if d < time.Microsecond {
		return fmt.Sprintf("%dns", d.Nanoseconds())
	}
	if d < time.Millisecond {
		us := float64(d.Microseconds())
		if us < 100 {
			return fmt.Sprintf("%.1fµs", us)
		}
		return fmt.Sprintf("%dµs", int(us))
	}
	if d < time.Second {
		ms := float64(d.Microseconds()) / 1000.0
		if ms < 10 {
			return fmt.Sprintf("%.2fms", ms)
		}
		if ms < 100 {
			return fmt.Sprintf("%.1fms", ms)
		}
		return fmt.Sprintf("%dms", int(ms))
	}
	s := d.Seconds()
	if s < 10 {
		return fmt.Sprintf("%.2fs", s)
	}
	return fmt.Sprintf("%.1fs", s)
}

func mul(a, b float64) float64 {
	return a * b
}

// successRate is the success percentage of a snapshot.
func successRate(m *metrics.Snapshot) float64 {
	if m == nil || m.TotalRequests == 0 {
		return 0
	}
	return float64(m.SuccessRequests) / float64(m.TotalRequests) * 100
}

// failRate is the failure percentage of one entry.
func failRate(e metrics.EntryStats) float64 {
	if e.Requests == 0 {
		return 0
	}
	return float64(e.Failures) / float64(e.Requests) * 100
}
