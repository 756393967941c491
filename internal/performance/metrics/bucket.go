package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// TimeBucketStore keeps the most recent time buckets in a ring buffer.
//
// Interval counters are accumulated lock-free and swapped out each time a
// bucket is cut, so the series stays continuous even when no request
// completes during an interval.
type TimeBucketStore struct {
	buckets    []*TimeBucket
	head       int
	count      int
	maxBuckets int
	mu         sync.RWMutex

	lastBucketTime time.Time

	currentRequests atomic.Int64
	currentFailures atomic.Int64
}

// NewTimeBucketStore creates a store retaining at most maxBuckets buckets.
func NewTimeBucketStore(maxBuckets int) *TimeBucketStore {
	if maxBuckets <= 0 {
		maxBuckets = 3600
	}

	return &TimeBucketStore{
		buckets:        make([]*TimeBucket, maxBuckets),
		maxBuckets:     maxBuckets,
		lastBucketTime: time.Now(),
	}
}

// RecordRequest adds one request to the current interval.
func (tbs *TimeBucketStore) RecordRequest(success bool) {
	tbs.currentRequests.Add(1)
	if !success {
		tbs.currentFailures.Add(1)
	}
}

// CreateBucket cuts a bucket from the cumulative totals and the interval
// accumulators, then resets the accumulators.
func (tbs *TimeBucketStore) CreateBucket(
	totalRequests, totalSuccesses, totalFailures, totalBytes int64,
	latencies LatencyPercentiles,
	activeVUs int,
	phase Phase,
) *TimeBucket {
	tbs.mu.Lock()
	defer tbs.mu.Unlock()

	now := time.Now()

	intervalRequests := tbs.currentRequests.Swap(0)
	intervalFailures := tbs.currentFailures.Swap(0)

	intervalDuration := now.Sub(tbs.lastBucketTime).Seconds()
	if intervalDuration <= 0 {
		intervalDuration = 1.0
	}

	intervalErrorRate := 0.0
	if intervalRequests > 0 {
		intervalErrorRate = float64(intervalFailures) / float64(intervalRequests)
	}

	bucket := &TimeBucket{
		Timestamp:         now,
		TotalRequests:     totalRequests,
		TotalSuccesses:    totalSuccesses,
		TotalFailures:     totalFailures,
		TotalBytes:        totalBytes,
		IntervalRequests:  intervalRequests,
		IntervalRPS:       float64(intervalRequests) / intervalDuration,
		IntervalErrorRate: intervalErrorRate,
		LatencyP50:        latencies.P50,
		LatencyP95:        latencies.P95,
		LatencyP99:        latencies.P99,
		ActiveVUs:         activeVUs,
		Phase:             phase,
	}

	tbs.buckets[tbs.head] = bucket
	tbs.head = (tbs.head + 1) % tbs.maxBuckets
	if tbs.count < tbs.maxBuckets {
		tbs.count++
	}
	tbs.lastBucketTime = now

	return bucket
}

// GetBuckets returns all retained buckets in chronological order.
func (tbs *TimeBucketStore) GetBuckets() []*TimeBucket {
	tbs.mu.RLock()
	defer tbs.mu.RUnlock()

	if tbs.count == 0 {
		return nil
	}

	result := make([]*TimeBucket, tbs.count)
	start := 0
	if tbs.count == tbs.maxBuckets {
		start = tbs.head
	}
	for i := 0; i < tbs.count; i++ {
		result[i] = tbs.buckets[(start+i)%tbs.maxBuckets]
	}

	return result
}

// GetLatestBucket returns the most recent bucket, or nil if none.
func (tbs *TimeBucketStore) GetLatestBucket() *TimeBucket {
	tbs.mu.RLock()
	defer tbs.mu.RUnlock()

	if tbs.count == 0 {
		return nil
	}
	return tbs.buckets[(tbs.head-1+tbs.maxBuckets)%tbs.maxBuckets]
}

// Count returns the number of retained buckets.
func (tbs *TimeBucketStore) Count() int {
	tbs.mu.RLock()
	defer tbs.mu.RUnlock()
	return tbs.count
}

// CalculateSteadyStateRPS averages interval throughput over steady buckets.
// It returns the rate and the number of buckets it was computed from.
func (tbs *TimeBucketStore) CalculateSteadyStateRPS() (float64, int) {
	var requests int64
	var seconds float64
	n := 0

	var prev time.Time
	for _, b := range tbs.GetBuckets() {
		if b.Phase == PhaseSteady && !prev.IsZero() {
			requests += b.IntervalRequests
			seconds += b.Timestamp.Sub(prev).Seconds()
			n++
		}
		prev = b.Timestamp
	}

	if n == 0 || seconds <= 0 {
		return 0, 0
	}
	return float64(requests) / seconds, n
}
