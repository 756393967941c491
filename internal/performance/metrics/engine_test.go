package metrics

import (
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const prayerTarget = "/getPrayerData?hall=hall-h3-new"

func sample(status int, d time.Duration) Sample {
	return Sample{Method: http.MethodGet, Name: prayerTarget, StatusCode: status, Duration: d, Bytes: 100}
}

func TestSample_Success(t *testing.T) {
	tests := []struct {
		name   string
		sample Sample
		want   bool
	}{
		{"200", Sample{StatusCode: 200}, true},
		{"204", Sample{StatusCode: 204}, true},
		{"302", Sample{StatusCode: 302}, true},
		{"399", Sample{StatusCode: 399}, true},
		{"400", Sample{StatusCode: 400}, false},
		{"404", Sample{StatusCode: 404}, false},
		{"500", Sample{StatusCode: 500}, false},
		{"transport error", Sample{Err: errors.New("connection refused")}, false},
		{"error with status", Sample{StatusCode: 200, Err: errors.New("read: reset")}, false},
		{"no status", Sample{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.sample.Success())
		})
	}
}

func TestSample_FailureReason(t *testing.T) {
	assert.Equal(t, "HTTP 500 Internal Server Error", Sample{StatusCode: 500}.FailureReason())
	assert.Equal(t, "dial tcp: refused", Sample{Err: errors.New("dial tcp: refused")}.FailureReason())
}

func TestNewEngine(t *testing.T) {
	engine := NewEngine()
	require.NotNil(t, engine)
	defer engine.Stop()

	snapshot := engine.GetSnapshot()
	assert.Equal(t, int64(0), snapshot.TotalRequests)
	assert.Equal(t, PhaseInit, snapshot.CurrentPhase)
	assert.Empty(t, engine.GetEntries())
	assert.Empty(t, engine.GetFailures())
}

func TestEngine_RecordRequest(t *testing.T) {
	engine := NewEngine()
	defer engine.Stop()

	engine.RecordRequest(sample(200, 10*time.Millisecond))
	engine.RecordRequest(sample(200, 20*time.Millisecond))
	engine.RecordRequest(sample(500, 30*time.Millisecond))

	snapshot := engine.GetSnapshot()
	assert.Equal(t, int64(3), snapshot.TotalRequests)
	assert.Equal(t, int64(2), snapshot.SuccessRequests)
	assert.Equal(t, int64(1), snapshot.FailedRequests)
	assert.Equal(t, int64(300), snapshot.TotalBytes)
	assert.InDelta(t, 1.0/3.0, snapshot.ErrorRate, 0.0001)

	entries := engine.GetEntries()
	require.Len(t, entries, 1)
	assert.Equal(t, http.MethodGet, entries[0].Method)
	assert.Equal(t, prayerTarget, entries[0].Name)
	assert.Equal(t, int64(3), entries[0].Requests)
	assert.Equal(t, int64(1), entries[0].Failures)
	assert.Equal(t, int64(3), entries[0].Latency.Count)
	assert.Equal(t, "HTTP 500 Internal Server Error", entries[0].LastError)

	failures := engine.GetFailures()
	require.Len(t, failures, 1)
	assert.Equal(t, int64(1), failures[0].Occurrences)
	assert.Equal(t, prayerTarget, failures[0].Name)
}

func TestEngine_FailuresGroupedByReason(t *testing.T) {
	engine := NewEngine()
	defer engine.Stop()

	for i := 0; i < 3; i++ {
		engine.RecordRequest(sample(503, time.Millisecond))
	}
	engine.RecordRequest(Sample{Method: http.MethodGet, Name: prayerTarget, Err: errors.New("timeout"), Duration: time.Second})

	failures := engine.GetFailures()
	require.Len(t, failures, 2)
	assert.Equal(t, "HTTP 503 Service Unavailable", failures[0].Error)
	assert.Equal(t, int64(3), failures[0].Occurrences)
	assert.Equal(t, "timeout", failures[1].Error)
	assert.Equal(t, int64(1), failures[1].Occurrences)
}

func TestEngine_LatencyPercentiles(t *testing.T) {
	engine := NewEngine()
	defer engine.Stop()

	for i := 1; i <= 10; i++ {
		engine.RecordRequest(sample(200, time.Duration(i*10)*time.Millisecond))
	}

	p := engine.GetLatencyPercentiles()

	if p.P50 < 40*time.Millisecond || p.P50 > 60*time.Millisecond {
		t.Errorf("P50 = %v, want ~50ms", p.P50)
	}
	if p.P99 < 90*time.Millisecond || p.P99 > 110*time.Millisecond {
		t.Errorf("P99 = %v, want ~100ms", p.P99)
	}
	if p.Min < 9*time.Millisecond || p.Min > 11*time.Millisecond {
		t.Errorf("Min = %v, want ~10ms", p.Min)
	}
	if p.Max < 99*time.Millisecond || p.Max > 101*time.Millisecond {
		t.Errorf("Max = %v, want ~100ms", p.Max)
	}
}

func TestEngine_Phase(t *testing.T) {
	engine := NewEngine()
	defer engine.Stop()

	phases := []Phase{PhaseRampUp, PhaseSteady, PhaseDone}
	for _, phase := range phases {
		engine.SetPhase(phase)
		assert.Equal(t, phase, engine.GetPhase())
	}

	// no-op transition
	engine.SetPhase(PhaseDone)

	history := engine.GetPhaseHistory()
	require.Len(t, history, len(phases))
	for i, change := range history {
		assert.Equal(t, phases[i], change.Phase)
	}
}

func TestEngine_ActiveVUs(t *testing.T) {
	engine := NewEngine()
	defer engine.Stop()

	engine.SetActiveVUs(7)
	assert.Equal(t, 7, engine.GetActiveVUs())
	assert.Equal(t, 7, engine.GetSnapshot().ActiveVUs)
}

func TestEngine_ConcurrentRecording(t *testing.T) {
	engine := NewEngine()
	defer engine.Stop()

	var wg sync.WaitGroup
	for g := 0; g < 20; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				status := 200
				if i%10 == 0 {
					status = 500
				}
				engine.RecordRequest(sample(status, time.Duration(g+1)*time.Millisecond))
			}
		}(g)
	}
	wg.Wait()

	snapshot := engine.GetSnapshot()
	assert.Equal(t, int64(2000), snapshot.TotalRequests)
	assert.Equal(t, int64(200), snapshot.FailedRequests)

	entries := engine.GetEntries()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(2000), entries[0].Requests)
}

func TestEngine_TimeSeries(t *testing.T) {
	cfg := DefaultEngineConfig()
	cfg.BucketInterval = 20 * time.Millisecond
	engine := NewEngineWithConfig(cfg)

	engine.SetPhase(PhaseSteady)
	engine.RecordRequest(sample(200, time.Millisecond))
	time.Sleep(70 * time.Millisecond)
	engine.Stop()
	engine.Stop()

	series := engine.GetTimeSeries()
	require.NotEmpty(t, series)

	last := series[len(series)-1]
	assert.Equal(t, int64(1), last.TotalRequests)
	for i := 1; i < len(series); i++ {
		assert.False(t, series[i].Timestamp.Before(series[i-1].Timestamp))
	}

	var interval int64
	for _, b := range series {
		interval += b.IntervalRequests
	}
	assert.Equal(t, int64(1), interval)
}
