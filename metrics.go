package aioloop

import (
	"slices"
	"sync"
	"time"
)

// Metrics is a snapshot of reactor statistics, see [Reactor.Metrics].
type Metrics struct {
	// Latency is the time between an operation being registered as pending
	// and Run observing its completion.
	Latency LatencyMetrics

	// Submitted counts successful Read and Write calls.
	Submitted uint64
	// Inline counts submissions that completed without registering.
	Inline uint64
	// Completed counts pending operations dequeued by Run.
	Completed uint64
	// Wakeups counts returns from the backend's wait, including wake-slot
	// signals.
	Wakeups uint64

	// InFlight is the number of pending operations.
	InFlight int
	// PeakInFlight is the largest InFlight observed.
	PeakInFlight int
}

// LatencyMetrics summarizes the most recent latency samples.
type LatencyMetrics struct {
	P50   time.Duration
	P90   time.Duration
	P99   time.Duration
	Max   time.Duration
	Mean  time.Duration
	Count int
}

// sampleSize is the maximum number of latency samples to retain.
const sampleSize = 1000

type metrics struct {
	mu        sync.Mutex
	samples   [sampleSize]time.Duration
	sampleIdx int
	sampleN   int
	snapshot  Metrics
}

func (m *metrics) recordInline() {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.snapshot.Submitted++
	m.snapshot.Inline++
	m.mu.Unlock()
}

func (m *metrics) recordPending(inFlight int) {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.snapshot.Submitted++
	m.snapshot.InFlight = inFlight
	m.snapshot.PeakInFlight = max(m.snapshot.PeakInFlight, inFlight)
	m.mu.Unlock()
}

func (m *metrics) recordWakeup() {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.snapshot.Wakeups++
	m.mu.Unlock()
}

func (m *metrics) recordCompleted(inFlight int, latency time.Duration) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshot.Completed++
	m.snapshot.InFlight = inFlight
	m.samples[m.sampleIdx] = latency
	m.sampleIdx = (m.sampleIdx + 1) % sampleSize
	if m.sampleN < sampleSize {
		m.sampleN++
	}
}

// load returns a copy of the counters, with percentiles computed from the
// retained samples.
func (m *metrics) load() Metrics {
	if m == nil {
		return Metrics{}
	}
	m.mu.Lock()
	out := m.snapshot
	sorted := slices.Clone(m.samples[:m.sampleN])
	m.mu.Unlock()

	n := len(sorted)
	if n == 0 {
		return out
	}
	slices.Sort(sorted)
	var sum time.Duration
	for _, d := range sorted {
		sum += d
	}
	out.Latency = LatencyMetrics{
		P50:   sorted[percentileIndex(n, 50)],
		P90:   sorted[percentileIndex(n, 90)],
		P99:   sorted[percentileIndex(n, 99)],
		Max:   sorted[n-1],
		Mean:  sum / time.Duration(n),
		Count: n,
	}
	return out
}

// percentileIndex computes the index for a given percentile (0-100).
func percentileIndex(n, p int) int {
	index := (p * n) / 100
	if index >= n {
		return n - 1
	}
	return index
}
