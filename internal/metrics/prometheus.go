package metrics

import (
	"strconv"
	"sync"

	"github.com/arloliu/halo/types"
	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusCollector implements types.MetricsCollector backed by Prometheus.
//
// Collectors are created and registered lazily on first use, so constructing a
// PrometheusCollector that is never exercised leaves the registry untouched.
type PrometheusCollector struct {
	reg       prometheus.Registerer
	namespace string
	once      sync.Once

	stateTransitions *prometheus.CounterVec
	iterations       *prometheus.CounterVec
	iterationSeconds *prometheus.HistogramVec
	phaseSeconds     *prometheus.HistogramVec
	haloWaitSeconds  prometheus.Histogram
	messages         *prometheus.CounterVec
	messageValues    *prometheus.CounterVec
	commErrors       *prometheus.CounterVec
}

// Compile-time assertion that PrometheusCollector implements MetricsCollector.
var _ types.MetricsCollector = (*PrometheusCollector)(nil)

// NewPrometheus creates a new Prometheus-backed metrics collector.
//
// Parameters:
//   - reg: Prometheus registerer interface (uses prometheus.DefaultRegisterer if nil)
//   - namespace: Prometheus metrics namespace (defaults to "halo" if empty)
//
// Returns:
//   - *PrometheusCollector: A MetricsCollector implementation using Prometheus
func NewPrometheus(reg prometheus.Registerer, namespace string) *PrometheusCollector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = "halo"
	}

	return &PrometheusCollector{reg: reg, namespace: namespace}
}

func (p *PrometheusCollector) ensureRegistered() {
	p.once.Do(func() {
		p.stateTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "solver",
			Name:      "state_transitions_total",
			Help:      "Total solver state transitions by from/to state.",
		}, []string{"from", "to"})

		p.iterations = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "solver",
			Name:      "iterations_total",
			Help:      "Total completed iterations by rank.",
		}, []string{"rank"})

		p.iterationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "solver",
			Name:      "iteration_duration_seconds",
			Help:      "Wall-clock duration of one iteration in seconds by rank.",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10), // 10us .. ~2.6s
		}, []string{"rank"})

		p.phaseSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "solver",
			Name:      "phase_duration_seconds",
			Help:      "Duration of an iteration phase or a display gather in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.000001, 4, 10),
		}, []string{"phase"})

		p.haloWaitSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "exchange",
			Name:      "halo_wait_seconds",
			Help:      "Time blocked on pending vertical transfers after the interior update.",
			Buckets:   prometheus.ExponentialBuckets(0.000001, 4, 12),
		})

		p.messages = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "exchange",
			Name:      "messages_total",
			Help:      "Total messages sent by tag.",
		}, []string{"tag"})

		p.messageValues = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "exchange",
			Name:      "values_total",
			Help:      "Total float32 values sent by tag.",
		}, []string{"tag"})

		p.commErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "exchange",
			Name:      "errors_total",
			Help:      "Total failed transport operations (send, recv, barrier).",
		}, []string{"op"})

		p.reg.MustRegister(p.stateTransitions)
		p.reg.MustRegister(p.iterations)
		p.reg.MustRegister(p.iterationSeconds)
		p.reg.MustRegister(p.phaseSeconds)
		p.reg.MustRegister(p.haloWaitSeconds)
		p.reg.MustRegister(p.messages)
		p.reg.MustRegister(p.messageValues)
		p.reg.MustRegister(p.commErrors)
	})
}

// SolverMetrics implementation

// RecordStateTransition increments the transition counter for from -> to.
func (p *PrometheusCollector) RecordStateTransition(from, to types.State) {
	p.ensureRegistered()
	p.stateTransitions.WithLabelValues(from.String(), to.String()).Inc()
}

// RecordIteration counts an iteration and observes its duration.
func (p *PrometheusCollector) RecordIteration(rank int, seconds float64) {
	p.ensureRegistered()
	label := strconv.Itoa(rank)
	p.iterations.WithLabelValues(label).Inc()
	p.iterationSeconds.WithLabelValues(label).Observe(seconds)
}

// RecordPhaseDuration observes the compute time of a stencil phase.
func (p *PrometheusCollector) RecordPhaseDuration(phase string, seconds float64) {
	p.ensureRegistered()
	p.phaseSeconds.WithLabelValues(phase).Observe(seconds)
}

// ExchangeMetrics implementation

// RecordHaloWait observes time spent waiting on vertical transfers.
func (p *PrometheusCollector) RecordHaloWait(seconds float64) {
	p.ensureRegistered()
	p.haloWaitSeconds.Observe(seconds)
}

// RecordMessage counts a sent message and its payload size.
func (p *PrometheusCollector) RecordMessage(tag types.Tag, values int) {
	p.ensureRegistered()
	p.messages.WithLabelValues(tag.String()).Inc()
	p.messageValues.WithLabelValues(tag.String()).Add(float64(values))
}

// RecordCommError increments the transport error counter for op.
func (p *PrometheusCollector) RecordCommError(op string) {
	p.ensureRegistered()
	p.commErrors.WithLabelValues(op).Inc()
}
