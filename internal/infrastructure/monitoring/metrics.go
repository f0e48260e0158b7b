package monitoring

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/common/expfmt"
	"github.com/zoobzio/clockz"

	"github.com/GriffinCanCode/AgentOS/nlpbridge/internal/memory"
)

const namespace = "nlpbridge"

// Metrics holds all Prometheus metrics on a private registry.
type Metrics struct {
	registry *prometheus.Registry
	clock    clockz.Clock

	// Handle metrics
	HandlesLive      *prometheus.GaugeVec
	HandlesCreated   *prometheus.CounterVec
	HandlesDestroyed *prometheus.CounterVec

	// Call metrics
	CallsTotal   *prometheus.CounterVec
	CallDuration *prometheus.HistogramVec
	BreakerTrips *prometheus.CounterVec

	// Memory metrics
	AllocationsLive prometheus.Gauge
	BytesLive       prometheus.Gauge
	RejectedFrees   prometheus.Counter

	// Snapshot for nlp_stats - track current values
	snapshot Snapshot
	started  time.Time

	mu sync.RWMutex
}

// Snapshot holds current metric values for the JSON stats export.
type Snapshot struct {
	Handles          map[string]int64 `json:"handles"`
	HandlesCreated   int64            `json:"handles_created"`
	HandlesDestroyed int64            `json:"handles_destroyed"`
	Calls            int64            `json:"calls"`
	Failures         int64            `json:"failures"`
	TotalDuration    float64          `json:"total_duration_seconds"`
	Allocations      int64            `json:"live_allocations"`
	AllocatedBytes   int64            `json:"live_bytes"`
	RejectedFrees    int64            `json:"rejected_frees"`
	UptimeSeconds    float64          `json:"uptime_seconds"`
}

// AverageCallSeconds returns the mean call duration.
func (s Snapshot) AverageCallSeconds() float64 {
	if s.Calls == 0 {
		return 0
	}
	return s.TotalDuration / float64(s.Calls)
}

// NewMetrics creates a metrics collector with its own registry. A nil
// clock uses the real clock.
func NewMetrics(clock clockz.Clock) *Metrics {
	if clock == nil {
		clock = clockz.RealClock
	}
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	m := &Metrics{
		registry: reg,
		clock:    clock,
		started:  clock.Now(),
		snapshot: Snapshot{Handles: make(map[string]int64)},

		HandlesLive: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "handles_live",
				Help:      "Number of live pipeline handles",
			},
			[]string{"task"},
		),
		HandlesCreated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "handles_created_total",
				Help:      "Total number of pipeline handles created",
			},
			[]string{"task"},
		),
		HandlesDestroyed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "handles_destroyed_total",
				Help:      "Total number of pipeline handles destroyed",
			},
			[]string{"task"},
		),

		CallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "calls_total",
				Help:      "Total number of boundary calls",
			},
			[]string{"task", "operation", "status"},
		),
		CallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "call_duration_seconds",
				Help:      "Boundary call duration in seconds",
				Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1, 5},
			},
			[]string{"task", "operation"},
		),
		BreakerTrips: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "breaker_rejections_total",
				Help:      "Total number of calls rejected by an open circuit breaker",
			},
			[]string{"task"},
		),

		AllocationsLive: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "allocations_live",
				Help:      "Number of live boundary allocations",
			},
		),
		BytesLive: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "allocated_bytes_live",
				Help:      "Bytes held by live boundary allocations",
			},
		),
		RejectedFrees: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "release_rejected_total",
				Help:      "Total number of releases of pointers the boundary does not own",
			},
		),
	}

	return m
}

// Registry returns the private registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordHandleCreated records a new handle
func (m *Metrics) RecordHandleCreated(task string) {
	m.HandlesCreated.WithLabelValues(task).Inc()
	m.HandlesLive.WithLabelValues(task).Inc()

	m.mu.Lock()
	m.snapshot.HandlesCreated++
	m.snapshot.Handles[task]++
	m.mu.Unlock()
}

// RecordHandleDestroyed records a destroyed handle
func (m *Metrics) RecordHandleDestroyed(task string) {
	m.HandlesDestroyed.WithLabelValues(task).Inc()
	m.HandlesLive.WithLabelValues(task).Dec()

	m.mu.Lock()
	m.snapshot.HandlesDestroyed++
	m.snapshot.Handles[task]--
	m.mu.Unlock()
}

// RecordCall records a finished boundary call
func (m *Metrics) RecordCall(task, operation, status string, duration time.Duration) {
	m.CallsTotal.WithLabelValues(task, operation, status).Inc()
	m.CallDuration.WithLabelValues(task, operation).Observe(duration.Seconds())

	m.mu.Lock()
	m.snapshot.Calls++
	m.snapshot.TotalDuration += duration.Seconds()
	if status != "ok" {
		m.snapshot.Failures++
	}
	m.mu.Unlock()
}

// RecordBreakerRejection records a call refused by an open breaker
func (m *Metrics) RecordBreakerRejection(task string) {
	m.BreakerTrips.WithLabelValues(task).Inc()
}

// ObserveAllocation is a memory.Tracker observer.
func (m *Metrics) ObserveAllocation(ev memory.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch ev.Kind {
	case memory.EventAlloc:
		m.AllocationsLive.Inc()
		m.BytesLive.Add(float64(ev.Size))
		m.snapshot.Allocations++
		m.snapshot.AllocatedBytes += int64(ev.Size)
	case memory.EventFree:
		m.AllocationsLive.Dec()
		m.BytesLive.Sub(float64(ev.Size))
		m.snapshot.Allocations--
		m.snapshot.AllocatedBytes -= int64(ev.Size)
	case memory.EventRejected:
		m.RejectedFrees.Inc()
		m.snapshot.RejectedFrees++
	}
}

// Snapshot returns a copy of the current values.
func (m *Metrics) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := m.snapshot
	s.Handles = make(map[string]int64, len(m.snapshot.Handles))
	for task, n := range m.snapshot.Handles {
		s.Handles[task] = n
	}
	s.UptimeSeconds = m.clock.Since(m.started).Seconds()
	return s
}

// SnapshotJSON encodes Snapshot.
func (m *Metrics) SnapshotJSON() ([]byte, error) {
	return sonic.Marshal(m.Snapshot())
}

// WriteText writes every metric in the Prometheus text exposition format.
func (m *Metrics) WriteText(w io.Writer) error {
	families, err := m.registry.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("encode %s: %w", mf.GetName(), err)
		}
	}
	return nil
}
