// Package output renders live progress and the final summary of a run.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/wesleyorama2/prayerload/internal/performance/engine"
	"github.com/wesleyorama2/prayerload/internal/performance/metrics"
)

// ANSI escape codes for cursor control.
const (
	cursorUp  = "\033[%dA"
	clearLine = "\033[2K"
)

const (
	boxHorizontal  = "━"
	boxVertical    = "│"
	boxTopLeft     = "┌"
	boxTopRight    = "┐"
	boxBottomLeft  = "└"
	boxBottomRight = "┘"
	boxRule        = "─"

	progressFilled = "█"
	progressEmpty  = "░"
)

// LiveStats contains real-time statistics for display.
type LiveStats struct {
	// Progress tracking
	Progress  float64       // 0.0 to 1.0
	Elapsed   time.Duration // Time elapsed since test start
	Remaining time.Duration // Estimated time remaining

	// VU stats
	ActiveVUs int
	TargetVUs int

	// Request stats
	CurrentRPS    float64
	TotalRequests int64
	Errors        int64
	ErrorRate     float64 // 0.0 to 1.0

	// Latency stats
	LatencyP95 time.Duration
	LatencyAvg time.Duration

	CurrentPhase string
}

// ConsoleOutput manages live console output during test execution.
type ConsoleOutput struct {
	testName     string
	executorType string
	host         string
	profile      string
	writer       io.Writer
	isTTY        bool
	colors       *ColorScheme
	quiet        bool

	mu          sync.Mutex
	lastStats   *LiveStats
	linesOutput int // Number of lines in the live display
}

// ConsoleOutputConfig contains configuration for ConsoleOutput.
type ConsoleOutputConfig struct {
	TestName     string
	ExecutorType string
	Host         string
	Profile      string
	Writer       io.Writer
	Quiet        bool
	ForceColors  bool
	ForceTTY     bool
	NoColor      bool

	// Getenv reads NO_COLOR, FORCE_COLOR and TERM; defaults to os.Getenv
	Getenv func(string) string
}

// NewConsoleOutput creates a new console output handler.
func NewConsoleOutput(config ConsoleOutputConfig) *ConsoleOutput {
	if config.Writer == nil {
		config.Writer = os.Stdout
	}
	if config.Getenv == nil {
		config.Getenv = os.Getenv
	}

	isTTY := config.ForceTTY || isTerminal(config.Writer)
	useColors := !config.NoColor && (config.ForceColors || (isTTY && supportsColors(config.Getenv)))

	return &ConsoleOutput{
		testName:     config.TestName,
		executorType: config.ExecutorType,
		host:         config.Host,
		profile:      config.Profile,
		writer:       config.Writer,
		isTTY:        isTTY,
		colors:       NewColorScheme(useColors),
		quiet:        config.Quiet,
	}
}

// PrintHeader prints the test header.
func (c *ConsoleOutput) PrintHeader() {
	if c.quiet {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	line := c.colors.Border.Sprint(strings.Repeat(boxHorizontal, 56))
	executorInfo := ""
	if c.executorType != "" {
		executorInfo = fmt.Sprintf(" [%s]", c.executorType)
	}

	c.writeln(line)
	c.writeln(c.colors.Title.Sprintf("%s - Running%s", c.testName, executorInfo))
	if c.host != "" {
		c.writeln(fmt.Sprintf("Host:     %s", c.colors.Value.Sprint(c.host)))
	}
	if c.profile != "" {
		c.writeln(fmt.Sprintf("Profile:  %s", c.profile))
	}
	c.writeln(line)
	c.writeln("")
}

// Update redraws the live display. It does nothing unless the output is a
// terminal.
func (c *ConsoleOutput) Update(stats *LiveStats) {
	if c.quiet || !c.isTTY {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.lastStats = stats
	c.clearLive()

	lines := c.renderLiveStats(stats)
	c.linesOutput = len(lines)
	for _, line := range lines {
		c.writeln(line)
	}
}

// clearLive erases the previous live display. Callers hold c.mu.
func (c *ConsoleOutput) clearLive() {
	if c.linesOutput == 0 {
		return
	}
	c.write(fmt.Sprintf(cursorUp, c.linesOutput))
	for i := 0; i < c.linesOutput; i++ {
		c.write(clearLine + "\n")
	}
	c.write(fmt.Sprintf(cursorUp, c.linesOutput))
	c.linesOutput = 0
}

// renderLiveStats renders the live statistics display.
func (c *ConsoleOutput) renderLiveStats(stats *LiveStats) []string {
	var lines []string

	timeInfo := FormatDuration(stats.Elapsed)
	if stats.Remaining > 0 {
		timeInfo = fmt.Sprintf("%s / %s", timeInfo, FormatDuration(stats.Elapsed+stats.Remaining))
	}
	lines = append(lines, fmt.Sprintf("Progress: %s %s | %s",
		c.colors.Good.Sprint(renderProgressBar(stats.Progress, 40)),
		c.colors.Title.Sprintf("%.0f%%", stats.Progress*100),
		c.colors.Dim.Sprint(timeInfo)))
	lines = append(lines, fmt.Sprintf("Phase:    %s", c.colors.Phase.Sprint(stats.CurrentPhase)))
	lines = append(lines, "")

	boxWidth := 55
	lines = append(lines, c.colors.Dim.Sprint(boxTopLeft+strings.Repeat(boxHorizontal, boxWidth-2)+boxTopRight))

	vusStr := fmt.Sprintf("Users:   %s / %d", c.colors.Value.Sprint(stats.ActiveVUs), stats.TargetVUs)
	reqsStr := fmt.Sprintf("Requests:    %s", c.colors.Value.Sprint(FormatNumber(stats.TotalRequests)))
	lines = append(lines, c.formatBoxRow(vusStr, reqsStr, boxWidth))

	errColor := c.colors.ForErrorRate(stats.ErrorRate)
	rpsStr := fmt.Sprintf("RPS:     %s", c.colors.Good.Sprintf("%.1f", stats.CurrentRPS))
	errStr := fmt.Sprintf("Failures:    %s (%s)",
		errColor.Sprint(stats.Errors),
		errColor.Sprintf("%.1f%%", stats.ErrorRate*100))
	lines = append(lines, c.formatBoxRow(rpsStr, errStr, boxWidth))

	p95Str := fmt.Sprintf("P95:     %s", c.colors.Latency.Sprint(formatDurationShort(stats.LatencyP95)))
	avgStr := fmt.Sprintf("Avg:         %s", c.colors.Latency.Sprint(formatDurationShort(stats.LatencyAvg)))
	lines = append(lines, c.formatBoxRow(p95Str, avgStr, boxWidth))

	lines = append(lines, c.colors.Dim.Sprint(boxBottomLeft+strings.Repeat(boxHorizontal, boxWidth-2)+boxBottomRight))

	return lines
}

// formatBoxRow formats a row inside the stats box with two columns.
func (c *ConsoleOutput) formatBoxRow(left, right string, boxWidth int) string {
	colWidth := (boxWidth - 4) / 2 // 2 borders + 2 padding
	border := c.colors.Dim.Sprint(boxVertical)

	return fmt.Sprintf("%s %s%s %s%s",
		border, padRight(left, colWidth),
		border, padRight(right, colWidth),
		border)
}

// renderProgressBar renders a progress bar.
func renderProgressBar(progress float64, width int) string {
	if progress < 0 {
		progress = 0
	}
	if progress > 1 {
		progress = 1
	}

	filled := int(progress * float64(width))
	empty := width - filled

	return "[" + strings.Repeat(progressFilled, filled) + strings.Repeat(progressEmpty, empty) + "]"
}

// PrintNonInteractiveUpdate prints a one-line status update.
// Used when output is not a TTY (e.g., piped to a file or CI/CD).
func (c *ConsoleOutput) PrintNonInteractiveUpdate(stats *LiveStats) {
	if c.quiet {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.writeln(fmt.Sprintf("[%s] %s | Users: %d | Reqs: %d | RPS: %.1f | Fails: %d (%.1f%%) | P95: %s",
		FormatDuration(stats.Elapsed),
		stats.CurrentPhase,
		stats.ActiveVUs,
		stats.TotalRequests,
		stats.CurrentRPS,
		stats.Errors,
		stats.ErrorRate*100,
		formatDurationShort(stats.LatencyP95)))
}

// PrintSummary prints the final run summary: totals, the per-entry stats
// table, the failures table and threshold results.
func (c *ConsoleOutput) PrintSummary(result *engine.TestResult) {
	if result == nil {
		return
	}

	if c.quiet {
		if result.Passed {
			c.writeln(c.colors.Good.Sprint("PASSED"))
		} else {
			c.writeln(c.colors.Bad.Sprint("FAILED"))
		}
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.isTTY {
		c.clearLive()
	}

	line := c.colors.Border.Sprint(strings.Repeat(boxHorizontal, 56))
	status := c.colors.Good.Sprint("Completed ✓")
	if !result.Passed {
		status = c.colors.Bad.Sprint("Failed ✗")
	}

	c.writeln("")
	c.writeln(line)
	c.writeln(fmt.Sprintf("%s - %s", c.colors.Title.Sprint(result.Name), status))
	c.writeln(line)
	c.writeln("")

	c.writeln(fmt.Sprintf("Run ID:        %s", result.RunID))
	c.writeln(fmt.Sprintf("Duration:      %s", c.colors.Value.Sprint(FormatDuration(result.Duration))))
	if result.Metrics != nil {
		m := result.Metrics
		c.writeln(fmt.Sprintf("Total Reqs:    %s", c.colors.Value.Sprint(FormatNumber(m.TotalRequests))))
		c.writeln(fmt.Sprintf("Received:      %s", FormatBytes(m.TotalBytes)))

		successRate := 1.0
		if m.TotalRequests > 0 {
			successRate = 1.0 - m.ErrorRate
		}
		c.writeln(fmt.Sprintf("Success Rate:  %s",
			c.colors.ForErrorRate(1-successRate).Sprintf("%.1f%%", successRate*100)))
	}
	c.writeln("")

	c.writeStatsTable(result)
	c.writeFailuresTable(result.Failures)

	if len(result.Thresholds) > 0 {
		c.writeln(c.colors.Title.Sprint("Thresholds:"))
		for _, t := range result.Thresholds {
			mark := c.colors.Good.Sprint("✓")
			if !t.Passed {
				mark = c.colors.Bad.Sprint("✗")
			}
			c.writeln(fmt.Sprintf("  %s %s %s (actual: %s)", mark, t.Metric, t.Expression, t.Value))
			if !t.Passed && t.Message != "" {
				c.writeln("      " + c.colors.Dim.Sprint(t.Message))
			}
		}
		c.writeln("")
	}
}

var statsColumns = []struct {
	title string
	width int
	left  bool
}{
	{"Type", 6, true},
	{"Name", 36, true},
	{"# reqs", 8, false},
	{"# fails", 14, false},
	{"Avg", 7, false},
	{"Min", 7, false},
	{"Max", 7, false},
	{"Med", 7, false},
	{"P95", 7, false},
	{"P99", 7, false},
	{"req/s", 8, false},
}

// writeStatsTable writes one row per (method, name) entry plus an
// aggregated row. Latencies are in milliseconds.
func (c *ConsoleOutput) writeStatsTable(result *engine.TestResult) {
	if len(result.Entries) == 0 {
		return
	}

	secs := result.Duration.Seconds()
	rate := func(n int64) string {
		if secs <= 0 {
			return "0.00"
		}
		return fmt.Sprintf("%.2f", float64(n)/secs)
	}

	row := func(cells ...string) string {
		parts := make([]string, len(cells))
		for i, cell := range cells {
			col := statsColumns[i]
			if col.left {
				parts[i] = padRight(cell, col.width)
			} else {
				parts[i] = padLeft(cell, col.width)
			}
		}
		return strings.TrimRight(strings.Join(parts, " "), " ")
	}

	fails := func(failures, requests int64) string {
		pct := 0.0
		if requests > 0 {
			pct = float64(failures) / float64(requests)
		}
		cell := fmt.Sprintf("%d(%.2f%%)", failures, pct*100)
		if failures == 0 {
			return cell
		}
		return c.colors.ForErrorRate(pct).Sprint(cell)
	}

	latencyCells := func(l metrics.LatencyStats) []string {
		return []string{
			formatMillis(l.Mean),
			formatMillis(l.Min),
			formatMillis(l.Max),
			formatMillis(l.P50),
			formatMillis(l.P95),
			formatMillis(l.P99),
		}
	}

	titles := make([]string, len(statsColumns))
	for i, col := range statsColumns {
		titles[i] = col.title
	}
	rule := c.colors.Dim.Sprint(strings.Repeat(boxRule, visibleLen(row(titles...))))

	c.writeln(c.colors.Title.Sprint(row(titles...)))
	c.writeln(rule)
	for _, e := range result.Entries {
		cells := []string{e.Method, e.Name, FormatNumber(e.Requests), fails(e.Failures, e.Requests)}
		cells = append(cells, latencyCells(e.Latency)...)
		cells = append(cells, rate(e.Requests))
		c.writeln(row(cells...))
	}
	c.writeln(rule)

	if m := result.Metrics; m != nil {
		cells := []string{"", "Aggregated", FormatNumber(m.TotalRequests), fails(m.FailedRequests, m.TotalRequests)}
		cells = append(cells, latencyCells(m.Latency)...)
		cells = append(cells, rate(m.TotalRequests))
		c.writeln(row(cells...))
	}
	c.writeln("")
}

// writeFailuresTable writes the distinct failure reasons, most frequent first.
func (c *ConsoleOutput) writeFailuresTable(failures []metrics.FailureStats) {
	if len(failures) == 0 {
		return
	}

	c.writeln(c.colors.Title.Sprint("Error report"))
	c.writeln(c.colors.Title.Sprintf("%-14s %s", "# occurrences", "Error"))
	c.writeln(c.colors.Dim.Sprint(strings.Repeat(boxRule, 60)))
	for _, f := range failures {
		c.writeln(fmt.Sprintf("%s %s %s: %s",
			padRight(c.colors.Bad.Sprint(f.Occurrences), 14),
			f.Method, f.Name, f.Error))
	}
	c.writeln("")
}

// IsTTY returns whether the output is a terminal.
func (c *ConsoleOutput) IsTTY() bool {
	return c.isTTY
}

func (c *ConsoleOutput) write(s string) {
	fmt.Fprint(c.writer, s)
}

func (c *ConsoleOutput) writeln(s string) {
	fmt.Fprintln(c.writer, s)
}

// StatsFromMetrics creates LiveStats from engine metrics.
func StatsFromMetrics(snapshot *metrics.Snapshot, progress float64, totalDuration time.Duration, targetVUs int) *LiveStats {
	if snapshot == nil {
		return &LiveStats{
			Progress:     progress,
			TargetVUs:    targetVUs,
			CurrentPhase: "initializing",
		}
	}

	elapsed := snapshot.Elapsed
	remaining := time.Duration(0)
	if totalDuration > 0 {
		remaining = totalDuration - elapsed
		if remaining < 0 {
			remaining = 0
		}
	} else if progress > 0 && progress < 1 {
		remaining = time.Duration(float64(elapsed) * (1 - progress) / progress)
	}

	return &LiveStats{
		Progress:      progress,
		Elapsed:       elapsed,
		Remaining:     remaining,
		ActiveVUs:     snapshot.ActiveVUs,
		TargetVUs:     targetVUs,
		CurrentRPS:    snapshot.RPS,
		TotalRequests: snapshot.TotalRequests,
		Errors:        snapshot.FailedRequests,
		ErrorRate:     snapshot.ErrorRate,
		LatencyP95:    snapshot.Latency.P95,
		LatencyAvg:    snapshot.Latency.Mean,
		CurrentPhase:  string(snapshot.CurrentPhase),
	}
}
