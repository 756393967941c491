package performance

import (
	"context"
	"crypto/tls"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/wesleyorama2/prayerload/internal/performance/metrics"
	"github.com/wesleyorama2/prayerload/internal/scenario"
)

// VUScheduler manages the pool of Virtual Users for one run.
//
// It owns the HTTP transport settings and hands every VU either the shared
// client or a client of its own. Executors decide how many VUs exist and
// when; the scheduler runs the per-user loop.
type VUScheduler struct {
	profile *scenario.Profile
	host    string
	metrics *metrics.Engine

	httpClientConfig HTTPClientConfig
	sharedClient     *http.Client

	vus   map[int]*VirtualUser
	vusMu sync.RWMutex

	nextVUID atomic.Int32
}

// HTTPClientConfig contains HTTP client configuration.
type HTTPClientConfig struct {
	Timeout             time.Duration
	MaxIdleConns        int
	MaxIdleConnsPerHost int
	MaxConnsPerHost     int
	IdleConnTimeout     time.Duration
	DisableKeepAlives   bool
	InsecureSkipVerify  bool

	// UseSharedClient makes all VUs share one connection pool.
	UseSharedClient bool

	UserAgent string
}

// DefaultHTTPClientConfig returns sensible defaults for load testing.
func DefaultHTTPClientConfig() HTTPClientConfig {
	return HTTPClientConfig{
		Timeout:             30 * time.Second,
		MaxIdleConns:        1000,
		MaxIdleConnsPerHost: 100,
		IdleConnTimeout:     90 * time.Second,
		UseSharedClient:     true,
	}
}

// NewVUScheduler creates a scheduler for the given profile and host.
func NewVUScheduler(profile *scenario.Profile, host string, metricsEngine *metrics.Engine, httpConfig HTTPClientConfig) *VUScheduler {
	s := &VUScheduler{
		profile:          profile,
		host:             host,
		metrics:          metricsEngine,
		httpClientConfig: httpConfig,
		vus:              make(map[int]*VirtualUser),
	}

	if httpConfig.UseSharedClient {
		s.sharedClient = s.createHTTPClient()
	}

	return s
}

func (s *VUScheduler) createHTTPClient() *http.Client {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        s.httpClientConfig.MaxIdleConns,
		MaxIdleConnsPerHost: s.httpClientConfig.MaxIdleConnsPerHost,
		MaxConnsPerHost:     s.httpClientConfig.MaxConnsPerHost,
		IdleConnTimeout:     s.httpClientConfig.IdleConnTimeout,
		DisableKeepAlives:   s.httpClientConfig.DisableKeepAlives,
	}
	if s.httpClientConfig.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in for test targets
	}

	return &http.Client{
		Transport: transport,
		Timeout:   s.httpClientConfig.Timeout,
	}
}

// SpawnVU creates and registers a new Virtual User without starting it.
func (s *VUScheduler) SpawnVU() *VirtualUser {
	id := int(s.nextVUID.Add(1))

	client := s.sharedClient
	if client == nil {
		client = s.createHTTPClient()
	}

	vu := NewVirtualUser(id, s.profile, s.host, client, s.metrics)
	vu.UserAgent = s.httpClientConfig.UserAgent

	s.vusMu.Lock()
	s.vus[id] = vu
	s.vusMu.Unlock()

	return vu
}

// GetVU returns a VU by ID, or nil if not found.
func (s *VUScheduler) GetVU(id int) *VirtualUser {
	s.vusMu.RLock()
	defer s.vusMu.RUnlock()
	return s.vus[id]
}

// GetActiveVUCount returns the count of non-stopped VUs.
func (s *VUScheduler) GetActiveVUCount() int {
	s.vusMu.RLock()
	defer s.vusMu.RUnlock()

	count := 0
	for _, vu := range s.vus {
		if vu.GetState() != VUStateStopped {
			count++
		}
	}
	return count
}

// StopVU requests a specific VU to stop.
func (s *VUScheduler) StopVU(id int) {
	if vu := s.GetVU(id); vu != nil {
		vu.RequestStop()
	}
}

// StopAllVUs requests all VUs to stop.
func (s *VUScheduler) StopAllVUs() {
	s.vusMu.RLock()
	defer s.vusMu.RUnlock()

	for _, vu := range s.vus {
		vu.RequestStop()
	}
}

// RunVU runs the user loop until the VU is stopped, the context ends, or
// the VU has completed iterations iterations (0 means no limit).
//
// Each iteration is one task followed by one think-time pause. The pause
// after the last bounded iteration is skipped. onIteration, if set, is
// called after every completed iteration.
func (s *VUScheduler) RunVU(ctx context.Context, vu *VirtualUser, iterations int64, onIteration func()) {
	s.UpdateMetrics()
	defer s.UpdateMetrics()
	defer vu.MarkStopped()

	for i := int64(1); iterations == 0 || i <= iterations; i++ {
		if err := vu.RunIteration(ctx); err != nil {
			return
		}
		if onIteration != nil {
			onIteration()
		}

		if iterations > 0 && i == iterations {
			return
		}
		if !vu.Wait(ctx) {
			return
		}
	}
}

// WaitForAllVUs waits for all VUs to stop. It returns the number of VUs
// still running when the timeout expired.
func (s *VUScheduler) WaitForAllVUs(timeout time.Duration) int {
	deadline := time.Now().Add(timeout)

	s.vusMu.RLock()
	vus := make([]*VirtualUser, 0, len(s.vus))
	for _, vu := range s.vus {
		vus = append(vus, vu)
	}
	s.vusMu.RUnlock()

	notStopped := 0
	for _, vu := range vus {
		remaining := time.Until(deadline)
		if remaining <= 0 || !vu.WaitForStop(remaining) {
			notStopped++
		}
	}
	return notStopped
}

// Shutdown stops all VUs, waits up to timeout for them, and releases idle
// connections. It returns the number of VUs that did not stop in time.
func (s *VUScheduler) Shutdown(timeout time.Duration) int {
	s.StopAllVUs()
	remaining := s.WaitForAllVUs(timeout)

	if s.sharedClient != nil {
		s.sharedClient.CloseIdleConnections()
	}
	return remaining
}

// UpdateMetrics publishes the current VU count to the metrics engine.
func (s *VUScheduler) UpdateMetrics() {
	s.metrics.SetActiveVUs(s.GetActiveVUCount())
}
