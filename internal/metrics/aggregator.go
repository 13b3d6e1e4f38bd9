package metrics

import (
	"context"
	"sync"
	"time"

	"github.com/prohmpiriya/devops-api/pkg/telemetry"
)

// Clock returns the current time
type Clock func() time.Time

// Snapshot is a point-in-time view of the counters plus runtime resource usage
type Snapshot struct {
	RequestsTotal int64       `json:"requests_total"`
	ErrorsTotal   int64       `json:"errors_total"`
	UptimeSeconds int64       `json:"uptime_seconds"`
	MemoryUsage   MemoryUsage `json:"memory_usage"`
	CPUUsage      CPUUsage    `json:"cpu_usage"`
	Timestamp     time.Time   `json:"timestamp"`
}

// Aggregator counts requests and errors since start or the last Reset.
// All methods are safe for concurrent use.
type Aggregator struct {
	mu           sync.Mutex
	requestCount int64
	errorCount   int64
	startTime    time.Time

	now      Clock
	sampler  RuntimeSampler
	requests *telemetry.Counter
	errors   *telemetry.Counter
}

// Option configures an Aggregator
type Option func(*Aggregator)

// WithClock overrides time.Now
func WithClock(now Clock) Option {
	return func(a *Aggregator) { a.now = now }
}

// WithSampler overrides the runtime sampler
func WithSampler(s RuntimeSampler) Option {
	return func(a *Aggregator) { a.sampler = s }
}

// WithCounters mirrors recorded requests and errors to OpenTelemetry counters
func WithCounters(requests, errors *telemetry.Counter) Option {
	return func(a *Aggregator) {
		a.requests = requests
		a.errors = errors
	}
}

// NewAggregator creates an Aggregator with its start time set to now
func NewAggregator(opts ...Option) *Aggregator {
	a := &Aggregator{
		now:     time.Now,
		sampler: ProcessSampler{},
	}
	for _, opt := range opts {
		opt(a)
	}
	a.startTime = a.now()
	return a
}

// RecordRequest increments the request counter
func (a *Aggregator) RecordRequest() {
	a.mu.Lock()
	a.requestCount++
	a.mu.Unlock()

	a.requests.Inc(context.Background())
}

// RecordError increments the error counter
func (a *Aggregator) RecordError() {
	a.mu.Lock()
	a.errorCount++
	a.mu.Unlock()

	a.errors.Inc(context.Background())
}

// Snapshot returns the current counters. Uptime is truncated to whole seconds.
func (a *Aggregator) Snapshot() Snapshot {
	a.mu.Lock()
	requests, errs, start := a.requestCount, a.errorCount, a.startTime
	a.mu.Unlock()

	now := a.now()
	return Snapshot{
		RequestsTotal: requests,
		ErrorsTotal:   errs,
		UptimeSeconds: int64(now.Sub(start) / time.Second),
		MemoryUsage:   a.sampler.Memory(),
		CPUUsage:      a.sampler.CPU(),
		Timestamp:     now.UTC(),
	}
}

// Reset zeroes both counters and restarts the uptime clock.
// The OpenTelemetry counters are cumulative and are not reset.
func (a *Aggregator) Reset() {
	now := a.now()

	a.mu.Lock()
	a.requestCount = 0
	a.errorCount = 0
	a.startTime = now
	a.mu.Unlock()
}
