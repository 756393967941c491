package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wesleyorama2/prayerload/internal/performance/config"
	"github.com/wesleyorama2/prayerload/internal/performance/engine"
	"github.com/wesleyorama2/prayerload/internal/performance/executor"
	"github.com/wesleyorama2/prayerload/internal/performance/output"
	"github.com/wesleyorama2/prayerload/internal/performance/report"
	"github.com/wesleyorama2/prayerload/internal/scenario"
)

// errRunFailed is returned when a run completes but does not pass.
var errRunFailed = errors.New("run failed")

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the load test against a host",
		Long: `Spawn simulated users against a host and report request statistics.

Settings come from a YAML or JSON file, then PRAYERLOAD_* environment
variables, then flags; later sources win.

  prayerload run --host http://localhost:8080 --users 10 --spawn-rate 2 --run-time 1m
  prayerload run --host http://localhost:8080 --iterations 5
  prayerload run --config load.yaml --csv out/run --html out/report.html`,
		Args: cobra.NoArgs,
		RunE: runLoad,
	}

	cmd.Flags().StringP("config", "c", "", "Configuration file (YAML or JSON)")
	cmd.Flags().StringP("host", "H", "", "Base URL of the target, e.g. http://localhost:8080")
	cmd.Flags().StringP("profile", "p", scenario.DefaultProfile, "Simulated user profile")
	cmd.Flags().IntP("users", "u", 0, "Number of simulated users")
	cmd.Flags().Float64P("spawn-rate", "r", 0, "Users started per second (default: --users, i.e. all within one second)")
	cmd.Flags().StringP("run-time", "t", "", "Run time, e.g. 30s, 5m (default 1m without --iterations)")
	cmd.Flags().Int64P("iterations", "i", 0, "Requests per user, then stop")
	cmd.Flags().Duration("timeout", 0, "Request timeout (default 30s)")

	cmd.Flags().String("json", "", "Write the JSON result to this file, or - for stdout")
	cmd.Flags().String("csv", "", "Write <prefix>_stats.csv and <prefix>_failures.csv")
	cmd.Flags().String("html", "", "Write an HTML report to this file")

	cmd.Flags().BoolP("quiet", "q", false, "Disable live progress output, show only the result")
	cmd.Flags().BoolP("verbose", "v", false, "Enable verbose output")
	cmd.Flags().Bool("no-color", false, "Disable colored output")
	cmd.Flags().Bool("fail-on-error", false, "Exit with status 1 if any request failed")

	return cmd
}

// runLoad runs one load test from flags, environment and config file.
func runLoad(cmd *cobra.Command, args []string) error {
	profileName, _ := cmd.Flags().GetString("profile")
	quiet, _ := cmd.Flags().GetBool("quiet")
	verbose, _ := cmd.Flags().GetBool("verbose")
	noColor, _ := cmd.Flags().GetBool("no-color")
	failOnError, _ := cmd.Flags().GetBool("fail-on-error")
	jsonPath, _ := cmd.Flags().GetString("json")
	csvPrefix, _ := cmd.Flags().GetString("csv")
	htmlPath, _ := cmd.Flags().GetString("html")

	cfg, err := buildRunConfig(cmd, os.LookupEnv)
	if err != nil {
		return err
	}

	profile, err := scenario.Lookup(profileName)
	if err != nil {
		return err
	}

	eng, err := engine.NewEngine(cfg, profile)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	// With --json - the result owns stdout, so progress goes to stderr.
	if jsonPath == "-" {
		out = cmd.ErrOrStderr()
	}

	consoleOutput := output.NewConsoleOutput(output.ConsoleOutputConfig{
		TestName:     cfg.Name,
		ExecutorType: cfg.Executor,
		Host:         cfg.Host,
		Profile:      fmt.Sprintf("%s, wait %s", profile.Name, profile.WaitTime),
		Writer:       out,
		Quiet:        quiet,
		NoColor:      noColor,
	})

	if verbose && !quiet {
		fmt.Fprintf(out, "Users: %d, spawn rate: %.2f/s, executor: %s", cfg.Users, cfg.SpawnRate, cfg.Executor)
		if cfg.RunTime != "" {
			fmt.Fprintf(out, ", run time: %s", cfg.RunTime)
		}
		if cfg.Iterations > 0 {
			fmt.Fprintf(out, ", iterations: %d", cfg.Iterations)
		}
		if _, rampUp := runPlan(cfg); rampUp > 0 {
			fmt.Fprintf(out, ", ramp-up: %s", rampUp)
		}
		fmt.Fprintln(out)
		for _, task := range profile.Tasks {
			target, _ := task.URL(cfg.Host)
			fmt.Fprintf(out, "  Task %s: %s %s\n", task.Name, task.Method, target)
		}
		fmt.Fprintln(out)
	}

	consoleOutput.PrintHeader()

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var result *engine.TestResult
	var runErr error
	done := make(chan struct{})
	go func() {
		defer close(done)
		result, runErr = eng.Run(ctx)
	}()

	totalDuration, _ := runPlan(cfg)
	updateTicker := time.NewTicker(time.Second)
	defer updateTicker.Stop()

progressLoop:
	for {
		select {
		case <-done:
			break progressLoop
		case <-updateTicker.C:
			if !eng.IsRunning() {
				continue
			}
			stats := output.StatsFromMetrics(eng.GetMetrics(), eng.GetProgress(), totalDuration, cfg.Users)
			if consoleOutput.IsTTY() {
				consoleOutput.Update(stats)
			} else if !quiet {
				consoleOutput.PrintNonInteractiveUpdate(stats)
			}
		}
	}

	if result == nil {
		return runErr
	}

	if ctx.Err() != nil && parent.Err() == nil && !quiet {
		fmt.Fprintln(out, "Interrupted, partial results follow.")
	}

	consoleOutput.PrintSummary(result)

	if err := writeReports(cmd, result, jsonPath, csvPrefix, htmlPath, out, verbose); err != nil {
		return err
	}

	if runErr != nil {
		return runErr
	}
	if !result.Passed {
		failed := 0
		for _, t := range result.Thresholds {
			if !t.Passed {
				failed++
			}
		}
		return fmt.Errorf("%w: %d threshold(s) not met", errRunFailed, failed)
	}
	if failOnError && result.Metrics != nil && result.Metrics.FailedRequests > 0 {
		return fmt.Errorf("%w: %d of %d requests failed", errRunFailed,
			result.Metrics.FailedRequests, result.Metrics.TotalRequests)
	}
	return nil
}

// buildRunConfig merges the config file, the environment and the flags that
// were set, in that order.
func buildRunConfig(cmd *cobra.Command, lookup func(string) (string, bool)) (*config.RunConfig, error) {
	flags := cmd.Flags()

	cfg := &config.RunConfig{}
	if path, _ := flags.GetString("config"); path != "" {
		loaded, err := config.LoadConfig(path)
		if err != nil {
			return nil, fmt.Errorf("error loading config: %w", err)
		}
		cfg = loaded
	}

	if err := config.ApplyEnvironment(cfg, lookup); err != nil {
		return nil, err
	}

	if flags.Changed("host") {
		cfg.Host, _ = flags.GetString("host")
	}
	if flags.Changed("users") {
		cfg.Users, _ = flags.GetInt("users")
	}
	if flags.Changed("spawn-rate") {
		cfg.SpawnRate, _ = flags.GetFloat64("spawn-rate")
	}
	if flags.Changed("run-time") {
		runTime, _ := flags.GetString("run-time")
		if _, err := config.ParseDurationString(runTime); err != nil {
			return nil, fmt.Errorf("invalid --run-time: %w", err)
		}
		cfg.RunTime = config.DurationString(runTime)
	}
	if flags.Changed("iterations") {
		cfg.Iterations, _ = flags.GetInt64("iterations")
		if cfg.Iterations > 0 {
			cfg.Executor = config.ExecutorPerVUIterations
		}
	}
	if flags.Changed("timeout") {
		timeout, _ := flags.GetDuration("timeout")
		cfg.Settings.Timeout = config.Duration(timeout)
	}

	if cfg.Host == "" {
		return nil, fmt.Errorf("a host is required: use --host, %s or the config file", config.EnvHost)
	}

	return cfg, nil
}

// runPlan returns the expected run length used for progress display and the
// time needed to start every user. total is zero when the run ends by
// iteration count.
func runPlan(cfg *config.RunConfig) (total, rampUp time.Duration) {
	execCfg, err := executor.ConfigFromRunConfig(cfg)
	if err != nil {
		return 0, 0
	}
	return execCfg.TotalDuration(), execCfg.SpawnDuration()
}

// writeReports writes every requested result file.
func writeReports(cmd *cobra.Command, result *engine.TestResult, jsonPath, csvPrefix, htmlPath string, out io.Writer, verbose bool) error {
	if jsonPath == "-" {
		if err := report.WriteJSON(cmd.OutOrStdout(), result); err != nil {
			return err
		}
	} else if jsonPath != "" {
		if err := ensureDir(jsonPath); err != nil {
			return err
		}
		if err := report.GenerateJSON(result, jsonPath); err != nil {
			return err
		}
		reportWritten(out, "JSON result", jsonPath, verbose)
	}

	if csvPrefix != "" {
		if err := ensureDir(csvPrefix); err != nil {
			return err
		}
		paths, err := report.GenerateCSV(result, csvPrefix)
		if err != nil {
			return err
		}
		for _, p := range paths {
			reportWritten(out, "CSV", p, verbose)
		}
	}

	if htmlPath != "" {
		if err := ensureDir(htmlPath); err != nil {
			return err
		}
		if err := report.GenerateHTML(result, htmlPath); err != nil {
			return fmt.Errorf("failed to generate HTML report: %w", err)
		}
		reportWritten(out, "HTML report", htmlPath, verbose)
	}

	return nil
}

func reportWritten(out io.Writer, kind, path string, verbose bool) {
	if verbose {
		fmt.Fprintf(out, "%s generated: %s\n", kind, path)
	} else {
		fmt.Fprintf(out, "Report: %s\n", path)
	}
}

// ensureDir creates the parent directory of path if needed.
func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	return nil
}
