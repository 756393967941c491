package performance_test

import (
	"context"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wesleyorama2/prayerload/internal/performance"
	"github.com/wesleyorama2/prayerload/internal/performance/metrics"
	"github.com/wesleyorama2/prayerload/internal/scenario"
)

func TestDefaultHTTPClientConfig(t *testing.T) {
	cfg := performance.DefaultHTTPClientConfig()
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.True(t, cfg.UseSharedClient)
	assert.False(t, cfg.InsecureSkipVerify)
}

func TestVUScheduler_SpawnVU(t *testing.T) {
	engine := metrics.NewEngine()
	defer engine.Stop()

	t.Run("shared client", func(t *testing.T) {
		s := performance.NewVUScheduler(scenario.WebsiteUser(), "http://localhost", engine, performance.DefaultHTTPClientConfig())
		a, b := s.SpawnVU(), s.SpawnVU()

		assert.Equal(t, 1, a.ID)
		assert.Equal(t, 2, b.ID)
		assert.Same(t, a.HTTPClient, b.HTTPClient)
		assert.Same(t, a, s.GetVU(1))
		assert.Nil(t, s.GetVU(3))
		assert.Equal(t, 2, s.GetActiveVUCount())
	})

	t.Run("client per VU", func(t *testing.T) {
		cfg := performance.DefaultHTTPClientConfig()
		cfg.UseSharedClient = false
		cfg.UserAgent = "agent"
		s := performance.NewVUScheduler(scenario.WebsiteUser(), "http://localhost", engine, cfg)
		a, b := s.SpawnVU(), s.SpawnVU()

		assert.NotSame(t, a.HTTPClient, b.HTTPClient)
		assert.Equal(t, "agent", a.UserAgent)
	})
}

func TestVUScheduler_RunVUBoundedIterations(t *testing.T) {
	srv, seen := recordingServer(t, http.StatusOK)

	engine := metrics.NewEngine()
	defer engine.Stop()

	s := performance.NewVUScheduler(quickProfile(5*time.Millisecond), srv.URL, engine, performance.DefaultHTTPClientConfig())
	vu := s.SpawnVU()

	var done atomic.Int64
	s.RunVU(context.Background(), vu, 3, func() { done.Add(1) })

	assert.Equal(t, int64(3), done.Load())
	assert.Equal(t, performance.VUStateStopped, vu.GetState())
	assert.Equal(t, 0, s.GetActiveVUCount())

	reqs := seen()
	require.Len(t, reqs, 3)
	for _, r := range reqs {
		assert.Equal(t, "/getPrayerData", r.Path)
		assert.Equal(t, "hall=hall-h3-new", r.RawQuery)
	}
}

func TestVUScheduler_SingleIterationSkipsThinkTime(t *testing.T) {
	srv, _ := recordingServer(t, http.StatusOK)

	engine := metrics.NewEngine()
	defer engine.Stop()

	// 1-5s think time; a single iteration must not wait for it.
	s := performance.NewVUScheduler(scenario.WebsiteUser(), srv.URL, engine, performance.DefaultHTTPClientConfig())
	vu := s.SpawnVU()

	start := time.Now()
	s.RunVU(context.Background(), vu, 1, nil)

	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, int64(1), engine.GetSnapshot().TotalRequests)
}

func TestVUScheduler_Shutdown(t *testing.T) {
	srv, _ := recordingServer(t, http.StatusOK)

	engine := metrics.NewEngine()
	defer engine.Stop()

	s := performance.NewVUScheduler(scenario.WebsiteUser(), srv.URL, engine, performance.DefaultHTTPClientConfig())

	vus := make([]*performance.VirtualUser, 3)
	for i := range vus {
		vus[i] = s.SpawnVU()
	}
	for _, vu := range vus {
		go s.RunVU(context.Background(), vu, 0, nil)
	}

	require.Eventually(t, func() bool {
		return engine.GetSnapshot().TotalRequests == 3
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 3, engine.GetActiveVUs())

	// All VUs are now in their 1-5s pause; shutdown must cut it short.
	start := time.Now()
	assert.Equal(t, 0, s.Shutdown(2*time.Second))
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, 0, s.GetActiveVUCount())
	assert.Eventually(t, func() bool {
		return engine.GetActiveVUs() == 0
	}, time.Second, 5*time.Millisecond, "stopped users are unpublished")
}

func TestVUScheduler_StopVU(t *testing.T) {
	engine := metrics.NewEngine()
	defer engine.Stop()

	s := performance.NewVUScheduler(scenario.WebsiteUser(), "http://localhost", engine, performance.DefaultHTTPClientConfig())
	vu := s.SpawnVU()

	s.StopVU(vu.ID)
	s.StopVU(42)
	assert.Equal(t, performance.VUStateStopping, vu.GetState())
}
