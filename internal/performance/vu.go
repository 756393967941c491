// Package performance runs simulated users against a target host.
package performance

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/wesleyorama2/prayerload/internal/performance/metrics"
	"github.com/wesleyorama2/prayerload/internal/scenario"
)

// VUState represents the lifecycle state of a Virtual User.
type VUState int32

const (
	// VUStateIdle indicates the VU is between iterations.
	VUStateIdle VUState = iota
	// VUStateRunning indicates the VU has a request in flight.
	VUStateRunning
	// VUStateStopping indicates the VU has been asked to stop.
	VUStateStopping
	// VUStateStopped indicates the VU has fully stopped.
	VUStateStopped
)

func (s VUState) String() string {
	switch s {
	case VUStateIdle:
		return "idle"
	case VUStateRunning:
		return "running"
	case VUStateStopping:
		return "stopping"
	case VUStateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// VirtualUser is one simulated user executing the profile's tasks.
//
// A VU runs its loop sequentially: one request in flight at a time, then a
// think-time pause drawn from its own random source.
type VirtualUser struct {
	ID int

	Profile *scenario.Profile

	// Host is the base URL tasks are resolved against.
	Host string

	HTTPClient *http.Client

	Metrics *metrics.Engine

	// UserAgent is sent when non-empty.
	UserAgent string

	rng *rand.Rand

	state atomic.Int32

	stopCh chan struct{}
	doneCh chan struct{}

	iteration atomic.Int64
}

// NewVirtualUser creates a new Virtual User with its own random source.
func NewVirtualUser(id int, profile *scenario.Profile, host string, httpClient *http.Client, metricsEngine *metrics.Engine) *VirtualUser {
	return &VirtualUser{
		ID:         id,
		Profile:    profile,
		Host:       host,
		HTTPClient: httpClient,
		Metrics:    metricsEngine,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano() + int64(id)*7919)),
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
	}
}

// GetState returns the current VU state.
func (vu *VirtualUser) GetState() VUState {
	return VUState(vu.state.Load())
}

// GetIteration returns the number of iterations started.
func (vu *VirtualUser) GetIteration() int64 {
	return vu.iteration.Load()
}

// RunIteration picks one task, issues its request and records the outcome.
//
// Request failures are not errors here: they are classified and recorded by
// the metrics engine. An error is returned when the VU is stopping or the
// context ended, in which case an interrupted request is not recorded.
func (vu *VirtualUser) RunIteration(ctx context.Context) error {
	current := vu.GetState()
	if current == VUStateStopping || current == VUStateStopped {
		return fmt.Errorf("VU %d is stopping or stopped", vu.ID)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	vu.state.CompareAndSwap(int32(VUStateIdle), int32(VUStateRunning))
	vu.iteration.Add(1)

	task := vu.Profile.Pick(vu.rng)
	sample := vu.execute(ctx, task)
	// A request cut off by the end of the run is not a failure of the target.
	if sample.Err != nil && ctx.Err() != nil {
		vu.state.CompareAndSwap(int32(VUStateRunning), int32(VUStateIdle))
		return ctx.Err()
	}
	vu.Metrics.RecordRequest(sample)

	vu.state.CompareAndSwap(int32(VUStateRunning), int32(VUStateIdle))
	return nil
}

// execute issues the task's request and measures it.
func (vu *VirtualUser) execute(ctx context.Context, task *scenario.Task) metrics.Sample {
	s := metrics.Sample{
		Method: task.Method,
		Name:   task.Target(),
	}

	req, err := task.NewRequest(ctx, vu.Host)
	if err != nil {
		s.Err = fmt.Errorf("failed to build request: %w", err)
		return s
	}
	if vu.UserAgent != "" {
		req.Header.Set("User-Agent", vu.UserAgent)
	}

	start := time.Now()
	resp, err := vu.HTTPClient.Do(req)
	if err != nil {
		s.Duration = time.Since(start)
		s.Err = err
		return s
	}
	defer resp.Body.Close()

	n, err := io.Copy(io.Discard, resp.Body)
	s.Duration = time.Since(start)
	s.StatusCode = resp.StatusCode
	s.Bytes = n
	if err != nil {
		s.Err = fmt.Errorf("failed to read response body: %w", err)
	}
	return s
}

// Wait pauses for one think-time draw. It returns false when the pause was
// cut short by cancellation or a stop request.
func (vu *VirtualUser) Wait(ctx context.Context) bool {
	d := vu.Profile.WaitTime.Draw(vu.rng)
	if d <= 0 {
		return ctx.Err() == nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-vu.stopCh:
		return false
	case <-timer.C:
		return true
	}
}

// RequestStop signals the VU to stop after its current request.
func (vu *VirtualUser) RequestStop() {
	if vu.state.CompareAndSwap(int32(VUStateRunning), int32(VUStateStopping)) ||
		vu.state.CompareAndSwap(int32(VUStateIdle), int32(VUStateStopping)) {
		close(vu.stopCh)
	}
}

// WaitForStop waits for the VU to stop. It reports whether it stopped
// within the timeout.
func (vu *VirtualUser) WaitForStop(timeout time.Duration) bool {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-vu.doneCh:
		return true
	case <-timer.C:
		return false
	}
}

// MarkStopped marks the VU as fully stopped.
// Called by whoever owns the VU goroutine when it exits.
func (vu *VirtualUser) MarkStopped() {
	vu.state.Store(int32(VUStateStopped))
	select {
	case <-vu.doneCh:
	default:
		close(vu.doneCh)
	}
}
