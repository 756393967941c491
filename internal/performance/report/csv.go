package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/wesleyorama2/prayerload/internal/performance/engine"
	"github.com/wesleyorama2/prayerload/internal/performance/metrics"
)

// File name suffixes appended to the --csv prefix.
const (
	StatsSuffix    = "_stats.csv"
	FailuresSuffix = "_failures.csv"
)

var statsHeader = []string{
	"Type", "Name", "Request Count", "Failure Count",
	"Median Response Time", "Average Response Time",
	"Min Response Time", "Max Response Time",
	"Average Content Size", "Requests/s", "Failures/s",
	"50%", "90%", "95%", "99%",
}

var failuresHeader = []string{"Method", "Name", "Error", "Occurrences"}

// WriteStatsCSV writes one row per entry followed by an "Aggregated" row.
// Response times are in milliseconds.
func WriteStatsCSV(w io.Writer, result *engine.TestResult) error {
	if result == nil {
		return fmt.Errorf("result cannot be nil")
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(statsHeader); err != nil {
		return err
	}

	secs := result.Duration.Seconds()
	for _, e := range result.Entries {
		if err := cw.Write(statsRow(e.Method, e.Name, e.Requests, e.Failures, e.Bytes, e.Latency, secs)); err != nil {
			return err
		}
	}

	if m := result.Metrics; m != nil {
		row := statsRow("", "Aggregated", m.TotalRequests, m.FailedRequests, m.TotalBytes, m.Latency, secs)
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func statsRow(method, name string, requests, failures, bytes int64, l metrics.LatencyStats, secs float64) []string {
	var avgSize, rps, fps float64
	if requests > 0 {
		avgSize = float64(bytes) / float64(requests)
	}
	if secs > 0 {
		rps = float64(requests) / secs
		fps = float64(failures) / secs
	}

	return []string{
		method,
		name,
		strconv.FormatInt(requests, 10),
		strconv.FormatInt(failures, 10),
		millis(l.P50),
		millis(l.Mean),
		millis(l.Min),
		millis(l.Max),
		strconv.FormatFloat(avgSize, 'f', 2, 64),
		strconv.FormatFloat(rps, 'f', 6, 64),
		strconv.FormatFloat(fps, 'f', 6, 64),
		millis(l.P50),
		millis(l.P90),
		millis(l.P95),
		millis(l.P99),
	}
}

func millis(d time.Duration) string {
	return strconv.FormatFloat(float64(d)/float64(time.Millisecond), 'f', 2, 64)
}

// WriteFailuresCSV writes one row per distinct failure reason.
func WriteFailuresCSV(w io.Writer, failures []metrics.FailureStats) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(failuresHeader); err != nil {
		return err
	}
	for _, f := range failures {
		row := []string{f.Method, f.Name, f.Error, strconv.FormatInt(f.Occurrences, 10)}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// GenerateCSV writes <prefix>_stats.csv and <prefix>_failures.csv and
// returns the paths written.
func GenerateCSV(result *engine.TestResult, prefix string) ([]string, error) {
	if result == nil {
		return nil, fmt.Errorf("result cannot be nil")
	}

	statsPath := prefix + StatsSuffix
	if err := writeFile(statsPath, func(w io.Writer) error { return WriteStatsCSV(w, result) }); err != nil {
		return nil, fmt.Errorf("failed to write stats CSV: %w", err)
	}

	failuresPath := prefix + FailuresSuffix
	if err := writeFile(failuresPath, func(w io.Writer) error { return WriteFailuresCSV(w, result.Failures) }); err != nil {
		return nil, fmt.Errorf("failed to write failures CSV: %w", err)
	}

	return []string{statsPath, failuresPath}, nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
