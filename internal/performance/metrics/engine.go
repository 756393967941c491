package metrics

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// Engine collects and aggregates request statistics using HDR histograms.
//
// Samples are aggregated three ways: totals across the run, one entry per
// (method, name) pair, and one failure row per distinct failure reason of
// an entry. A background emitter cuts a time bucket every BucketInterval.
//
// Engine is safe for concurrent use.
type Engine struct {
	latencyHist   *hdrhistogram.Histogram
	latencyHistMu sync.Mutex

	entries   map[entryKey]*entry
	failures  map[failureKey]int64
	entriesMu sync.Mutex

	totalRequests   atomic.Int64
	successRequests atomic.Int64
	failedRequests  atomic.Int64
	totalBytes      atomic.Int64

	activeVUs atomic.Int32

	bucketStore *TimeBucketStore

	currentPhase Phase
	phaseMu      sync.RWMutex
	phaseHistory []PhaseChange

	startTime time.Time

	emitterCtx    context.Context
	emitterCancel context.CancelFunc
	emitterWg     sync.WaitGroup
	stopOnce      sync.Once

	config EngineConfig
}

type entryKey struct {
	method string
	name   string
}

type failureKey struct {
	method string
	name   string
	reason string
}

type entry struct {
	hist      *hdrhistogram.Histogram
	requests  int64
	failures  int64
	bytes     int64
	lastError string
}

// NewEngine creates a new metrics engine with default configuration.
func NewEngine() *Engine {
	return NewEngineWithConfig(DefaultEngineConfig())
}

// NewEngineWithConfig creates a new metrics engine and starts its emitter.
func NewEngineWithConfig(config EngineConfig) *Engine {
	if config.BucketInterval <= 0 {
		config.BucketInterval = time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())

	engine := &Engine{
		latencyHist:   hdrhistogram.New(config.HistogramMin, config.HistogramMax, config.HistogramSigFigs),
		entries:       make(map[entryKey]*entry),
		failures:      make(map[failureKey]int64),
		bucketStore:   NewTimeBucketStore(config.MaxBuckets),
		currentPhase:  PhaseInit,
		startTime:     time.Now(),
		emitterCtx:    ctx,
		emitterCancel: cancel,
		config:        config,
	}

	engine.emitterWg.Add(1)
	go engine.runEmitter()

	return engine
}

// RecordRequest records the outcome of one request.
func (e *Engine) RecordRequest(s Sample) {
	latencyMicros := e.clamp(s.Duration.Microseconds())
	success := s.Success()

	// HDR histograms are not safe for concurrent writers.
	e.latencyHistMu.Lock()
	_ = e.latencyHist.RecordValue(latencyMicros)
	e.latencyHistMu.Unlock()

	e.entriesMu.Lock()
	key := entryKey{method: s.Method, name: s.Name}
	ent, ok := e.entries[key]
	if !ok {
		ent = &entry{hist: hdrhistogram.New(e.config.HistogramMin, e.config.HistogramMax, e.config.HistogramSigFigs)}
		e.entries[key] = ent
	}
	_ = ent.hist.RecordValue(latencyMicros)
	ent.requests++
	ent.bytes += s.Bytes
	if !success {
		reason := s.FailureReason()
		ent.failures++
		ent.lastError = reason
		e.failures[failureKey{method: s.Method, name: s.Name, reason: reason}]++
	}
	e.entriesMu.Unlock()

	e.totalRequests.Add(1)
	e.totalBytes.Add(s.Bytes)
	if success {
		e.successRequests.Add(1)
	} else {
		e.failedRequests.Add(1)
	}

	e.bucketStore.RecordRequest(success)
}

func (e *Engine) clamp(v int64) int64 {
	if v < e.config.HistogramMin {
		return e.config.HistogramMin
	}
	if v > e.config.HistogramMax {
		return e.config.HistogramMax
	}
	return v
}

// SetPhase records a phase transition. Setting the current phase is a no-op.
func (e *Engine) SetPhase(phase Phase) {
	e.phaseMu.Lock()
	defer e.phaseMu.Unlock()

	if e.currentPhase == phase {
		return
	}

	e.currentPhase = phase
	e.phaseHistory = append(e.phaseHistory, PhaseChange{
		Phase:     phase,
		Timestamp: time.Now(),
		Requests:  e.totalRequests.Load(),
	})
}

// GetPhase returns the current phase.
func (e *Engine) GetPhase() Phase {
	e.phaseMu.RLock()
	defer e.phaseMu.RUnlock()
	return e.currentPhase
}

// GetPhaseHistory returns a copy of all recorded phase changes.
func (e *Engine) GetPhaseHistory() []PhaseChange {
	e.phaseMu.RLock()
	defer e.phaseMu.RUnlock()

	result := make([]PhaseChange, len(e.phaseHistory))
	copy(result, e.phaseHistory)
	return result
}

// SetActiveVUs updates the active VU count.
func (e *Engine) SetActiveVUs(count int) {
	e.activeVUs.Store(int32(count))
}

// GetActiveVUs returns the current active VU count.
func (e *Engine) GetActiveVUs() int {
	return int(e.activeVUs.Load())
}

func (e *Engine) runEmitter() {
	defer e.emitterWg.Done()

	ticker := time.NewTicker(e.config.BucketInterval)
	defer ticker.Stop()

	for {
		select {
		case <-e.emitterCtx.Done():
			return
		case <-ticker.C:
			e.emitBucket()
		}
	}
}

func (e *Engine) emitBucket() {
	e.bucketStore.CreateBucket(
		e.totalRequests.Load(),
		e.successRequests.Load(),
		e.failedRequests.Load(),
		e.totalBytes.Load(),
		e.GetLatencyPercentiles(),
		e.GetActiveVUs(),
		e.GetPhase(),
	)
}

// GetLatencyPercentiles returns current overall latency percentiles.
func (e *Engine) GetLatencyPercentiles() LatencyPercentiles {
	e.latencyHistMu.Lock()
	defer e.latencyHistMu.Unlock()

	return LatencyPercentiles{
		Min: micros(e.latencyHist.Min()),
		Max: micros(e.latencyHist.Max()),
		P50: micros(e.latencyHist.ValueAtQuantile(50)),
		P90: micros(e.latencyHist.ValueAtQuantile(90)),
		P95: micros(e.latencyHist.ValueAtQuantile(95)),
		P99: micros(e.latencyHist.ValueAtQuantile(99)),
	}
}

// GetSnapshot returns a point-in-time snapshot of the run totals.
func (e *Engine) GetSnapshot() *Snapshot {
	e.latencyHistMu.Lock()
	latency := latencyStats(e.latencyHist)
	e.latencyHistMu.Unlock()

	elapsed := time.Since(e.startTime)
	totalReqs := e.totalRequests.Load()
	failedReqs := e.failedRequests.Load()

	overallRPS := 0.0
	if elapsed.Seconds() > 0 {
		overallRPS = float64(totalReqs) / elapsed.Seconds()
	}

	steadyRPS, steadyBuckets := e.bucketStore.CalculateSteadyStateRPS()
	rps := overallRPS
	if steadyBuckets > 0 {
		rps = steadyRPS
	}

	errorRate := 0.0
	if totalReqs > 0 {
		errorRate = float64(failedReqs) / float64(totalReqs)
	}

	return &Snapshot{
		TotalRequests:   totalReqs,
		SuccessRequests: e.successRequests.Load(),
		FailedRequests:  failedReqs,
		TotalBytes:      e.totalBytes.Load(),
		Latency:         latency,
		RPS:             rps,
		SteadyStateRPS:  steadyRPS,
		ErrorRate:       errorRate,
		ActiveVUs:       e.GetActiveVUs(),
		CurrentPhase:    e.GetPhase(),
		Elapsed:         elapsed,
		StartTime:       e.startTime,
		Timestamp:       time.Now(),
	}
}

// GetEntries returns per-entry statistics sorted by name, then method.
func (e *Engine) GetEntries() []EntryStats {
	e.entriesMu.Lock()
	defer e.entriesMu.Unlock()

	result := make([]EntryStats, 0, len(e.entries))
	for key, ent := range e.entries {
		result = append(result, EntryStats{
			Method:    key.method,
			Name:      key.name,
			Requests:  ent.requests,
			Failures:  ent.failures,
			Bytes:     ent.bytes,
			Latency:   latencyStats(ent.hist),
			LastError: ent.lastError,
		})
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Name != result[j].Name {
			return result[i].Name < result[j].Name
		}
		return result[i].Method < result[j].Method
	})
	return result
}

// GetFailures returns the failure table, most frequent first.
func (e *Engine) GetFailures() []FailureStats {
	e.entriesMu.Lock()
	defer e.entriesMu.Unlock()

	result := make([]FailureStats, 0, len(e.failures))
	for key, n := range e.failures {
		result = append(result, FailureStats{
			Method:      key.method,
			Name:        key.name,
			Error:       key.reason,
			Occurrences: n,
		})
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Occurrences != result[j].Occurrences {
			return result[i].Occurrences > result[j].Occurrences
		}
		return result[i].Error < result[j].Error
	})
	return result
}

// GetTimeSeries returns all retained time buckets.
func (e *Engine) GetTimeSeries() []*TimeBucket {
	return e.bucketStore.GetBuckets()
}

// Stop stops the emitter and cuts a final bucket. It is safe to call twice.
func (e *Engine) Stop() {
	e.stopOnce.Do(func() {
		e.emitterCancel()
		e.emitterWg.Wait()
		e.emitBucket()
	})
}

func latencyStats(h *hdrhistogram.Histogram) LatencyStats {
	return LatencyStats{
		Min:    micros(h.Min()),
		Max:    micros(h.Max()),
		Mean:   time.Duration(h.Mean() * float64(time.Microsecond)),
		StdDev: time.Duration(h.StdDev() * float64(time.Microsecond)),
		P50:    micros(h.ValueAtQuantile(50)),
		P90:    micros(h.ValueAtQuantile(90)),
		P95:    micros(h.ValueAtQuantile(95)),
		P99:    micros(h.ValueAtQuantile(99)),
		Count:  h.TotalCount(),
	}
}

func micros(v int64) time.Duration {
	return time.Duration(v) * time.Microsecond
}
