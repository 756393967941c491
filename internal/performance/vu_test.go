package performance_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wesleyorama2/prayerload/internal/performance"
	"github.com/wesleyorama2/prayerload/internal/performance/metrics"
	"github.com/wesleyorama2/prayerload/internal/scenario"
)

type seenRequest struct {
	Method   string
	Path     string
	RawQuery string
	Body     []byte
}

// recordingServer answers every request with status and remembers it.
func recordingServer(t *testing.T, status int) (*httptest.Server, func() []seenRequest) {
	t.Helper()

	var mu sync.Mutex
	var seen []seenRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		seen = append(seen, seenRequest{Method: r.Method, Path: r.URL.Path, RawQuery: r.URL.RawQuery, Body: body})
		mu.Unlock()
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	t.Cleanup(srv.Close)

	return srv, func() []seenRequest {
		mu.Lock()
		defer mu.Unlock()
		out := make([]seenRequest, len(seen))
		copy(out, seen)
		return out
	}
}

// quickProfile is the shipped profile with a think time short enough for tests.
func quickProfile(wait time.Duration) *scenario.Profile {
	p := scenario.WebsiteUser()
	p.WaitTime = scenario.Between(wait, wait)
	return p
}

func TestVUState_String(t *testing.T) {
	tests := []struct {
		state performance.VUState
		want  string
	}{
		{performance.VUStateIdle, "idle"},
		{performance.VUStateRunning, "running"},
		{performance.VUStateStopping, "stopping"},
		{performance.VUStateStopped, "stopped"},
		{performance.VUState(99), "unknown"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.state.String())
	}
}

func TestVirtualUser_RunIteration(t *testing.T) {
	srv, seen := recordingServer(t, http.StatusOK)

	engine := metrics.NewEngine()
	defer engine.Stop()

	vu := performance.NewVirtualUser(1, scenario.WebsiteUser(), srv.URL, srv.Client(), engine)
	assert.Equal(t, performance.VUStateIdle, vu.GetState())

	require.NoError(t, vu.RunIteration(context.Background()))
	assert.Equal(t, int64(1), vu.GetIteration())
	assert.Equal(t, performance.VUStateIdle, vu.GetState())

	reqs := seen()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodGet, reqs[0].Method)
	assert.Equal(t, "/getPrayerData", reqs[0].Path)
	assert.Equal(t, "hall=hall-h3-new", reqs[0].RawQuery)
	assert.Empty(t, reqs[0].Body)

	entries := engine.GetEntries()
	require.Len(t, entries, 1)
	assert.Equal(t, "/getPrayerData?hall=hall-h3-new", entries[0].Name)
	assert.Equal(t, int64(1), entries[0].Requests)
	assert.Equal(t, int64(0), entries[0].Failures)
	assert.Equal(t, int64(len(`{"ok":true}`)), entries[0].Bytes)
}

func TestVirtualUser_RecordsServerErrorAsFailure(t *testing.T) {
	srv, _ := recordingServer(t, http.StatusInternalServerError)

	engine := metrics.NewEngine()
	defer engine.Stop()

	vu := performance.NewVirtualUser(1, scenario.WebsiteUser(), srv.URL, srv.Client(), engine)
	require.NoError(t, vu.RunIteration(context.Background()))

	snapshot := engine.GetSnapshot()
	assert.Equal(t, int64(1), snapshot.TotalRequests)
	assert.Equal(t, int64(1), snapshot.FailedRequests)

	failures := engine.GetFailures()
	require.Len(t, failures, 1)
	assert.Equal(t, "HTTP 500 Internal Server Error", failures[0].Error)
}

func TestVirtualUser_RecordsTransportErrorAsFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	host := srv.URL
	srv.Close()

	engine := metrics.NewEngine()
	defer engine.Stop()

	vu := performance.NewVirtualUser(1, scenario.WebsiteUser(), host, &http.Client{Timeout: time.Second}, engine)
	require.NoError(t, vu.RunIteration(context.Background()))

	snapshot := engine.GetSnapshot()
	assert.Equal(t, int64(1), snapshot.FailedRequests)
	assert.Equal(t, int64(0), snapshot.SuccessRequests)
}

func TestVirtualUser_InterruptedRequestNotRecorded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	defer srv.Close()

	engine := metrics.NewEngine()
	defer engine.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	vu := performance.NewVirtualUser(1, scenario.WebsiteUser(), srv.URL, srv.Client(), engine)
	assert.Error(t, vu.RunIteration(ctx))
	assert.Equal(t, int64(0), engine.GetSnapshot().TotalRequests)
}

func TestVirtualUser_UserAgent(t *testing.T) {
	var got atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.Store(r.UserAgent())
	}))
	defer srv.Close()

	engine := metrics.NewEngine()
	defer engine.Stop()

	vu := performance.NewVirtualUser(1, scenario.WebsiteUser(), srv.URL, srv.Client(), engine)
	vu.UserAgent = "prayerload-test"
	require.NoError(t, vu.RunIteration(context.Background()))
	assert.Equal(t, "prayerload-test", got.Load())
}

func TestVirtualUser_RunIterationAfterStop(t *testing.T) {
	engine := metrics.NewEngine()
	defer engine.Stop()

	vu := performance.NewVirtualUser(1, scenario.WebsiteUser(), "http://127.0.0.1:1", http.DefaultClient, engine)
	vu.RequestStop()
	vu.RequestStop()

	assert.Equal(t, performance.VUStateStopping, vu.GetState())
	assert.Error(t, vu.RunIteration(context.Background()))
	assert.Equal(t, int64(0), engine.GetSnapshot().TotalRequests)
}

func TestVirtualUser_WaitInterruptedByStop(t *testing.T) {
	engine := metrics.NewEngine()
	defer engine.Stop()

	vu := performance.NewVirtualUser(1, scenario.WebsiteUser(), "http://127.0.0.1:1", http.DefaultClient, engine)

	go func() {
		time.Sleep(20 * time.Millisecond)
		vu.RequestStop()
	}()

	start := time.Now()
	assert.False(t, vu.Wait(context.Background()))
	assert.Less(t, time.Since(start), time.Second)
}

func TestVirtualUser_WaitInterruptedByContext(t *testing.T) {
	engine := metrics.NewEngine()
	defer engine.Stop()

	vu := performance.NewVirtualUser(1, scenario.WebsiteUser(), "http://127.0.0.1:1", http.DefaultClient, engine)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	assert.False(t, vu.Wait(ctx))
	assert.Less(t, time.Since(start), time.Second)
}

func TestVirtualUser_WaitCompletes(t *testing.T) {
	engine := metrics.NewEngine()
	defer engine.Stop()

	vu := performance.NewVirtualUser(1, quickProfile(15*time.Millisecond), "http://127.0.0.1:1", http.DefaultClient, engine)

	start := time.Now()
	assert.True(t, vu.Wait(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), 15*time.Millisecond)
}

func TestVirtualUser_WaitForStop(t *testing.T) {
	engine := metrics.NewEngine()
	defer engine.Stop()

	vu := performance.NewVirtualUser(1, scenario.WebsiteUser(), "http://127.0.0.1:1", http.DefaultClient, engine)
	assert.False(t, vu.WaitForStop(10*time.Millisecond))

	vu.MarkStopped()
	vu.MarkStopped()
	assert.True(t, vu.WaitForStop(10*time.Millisecond))
	assert.Equal(t, performance.VUStateStopped, vu.GetState())
}
