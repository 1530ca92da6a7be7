package observability

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	registry *prometheus.Registry

	// Probes per classification. Watch for: unexpected > 0 (needs triage), orphaned > 0 (audit fails).
	ProbesTotal *prometheus.CounterVec

	// Per-probe latency, redirects included. Watch for: slow handlers hitting the probe timeout.
	ProbeDuration *prometheus.HistogramVec

	// Distinct orphaned routes found by the most recent run.
	OrphanedRoutes prometheus.Gauge

	// Retries against a remote target. Watch for: steady growth (target flapping or throttling the audit).
	TargetRetriesTotal prometheus.Counter

	// Circuit breaker state per target: 0=closed, 1=open, 2=half_open.
	TargetCircuitState *prometheus.GaugeVec

	// Circuit breaker transitions. Watch for: any transition to open (target went away mid-run).
	TargetCircuitTransitions *prometheus.CounterVec
)

func init() {
	registry = prometheus.NewRegistry()

	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	ProbesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "routeAuditProbesTotal",
			Help: "Total number of route probes by classification",
		},
		[]string{"classification"},
	)
	ProbeDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "routeAuditProbeDurationSeconds",
			Help:    "Route probe latency in seconds (per probe)",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5, 10},
		},
		[]string{"classification"},
	)
	OrphanedRoutes = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "routeAuditOrphanedRoutes",
			Help: "Distinct orphaned routes found by the last audit run",
		},
	)

	TargetRetriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "routeAuditTargetRetriesTotal",
			Help: "Total number of request retries against the remote target",
		},
	)
	TargetCircuitState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "routeAuditTargetCircuitState",
			Help: "Circuit breaker state (0=closed, 1=open, 2=half_open)",
		},
		[]string{"target"},
	)
	TargetCircuitTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "routeAuditTargetCircuitTransitionsTotal",
			Help: "Circuit breaker state transitions",
		},
		[]string{"target", "from", "to"},
	)

	registry.MustRegister(ProbesTotal, ProbeDuration, OrphanedRoutes,
		TargetRetriesTotal, TargetCircuitState, TargetCircuitTransitions)
}

// RecordProbe records one probe outcome.
func RecordProbe(classification string, d time.Duration) {
	ProbesTotal.WithLabelValues(classification).Inc()
	ProbeDuration.WithLabelValues(classification).Observe(d.Seconds())
}

// SetOrphanedRoutes publishes the orphan count of a finished run.
func SetOrphanedRoutes(n int) {
	OrphanedRoutes.Set(float64(n))
}

// RecordTargetRetry counts one retried request.
func RecordTargetRetry() {
	TargetRetriesTotal.Inc()
}

// RecordCircuitTransition records a breaker moving from one state to another and
// publishes the new state. State values follow circuitbreaker.State.
func RecordCircuitTransition(target, from, to string, state int) {
	TargetCircuitTransitions.WithLabelValues(target, from, to).Inc()
	TargetCircuitState.WithLabelValues(target).Set(float64(state))
}

// WriteTextfile writes the registry in text exposition format to path.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
