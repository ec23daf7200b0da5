package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "airbox"

// Cycle outcomes.
const (
	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
	OutcomeSkipped   = "skipped"
)

// Collectors holds every metric the service exports. A nil *Collectors is
// valid and records nothing.
type Collectors struct {
	cycles           *prometheus.CounterVec
	cycleDuration    prometheus.Histogram
	entries          *prometheus.CounterVec
	alerts           *prometheus.CounterVec
	dispatchFailures prometheus.Counter
	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Collectors {
	factory := promauto.With(reg)
	return &Collectors{
		cycles: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cycles_total",
				Help:      "Polling cycles by outcome",
			},
			[]string{"outcome"},
		),
		cycleDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "cycle_duration_seconds",
				Help:      "Duration of executed polling cycles",
				Buckets:   prometheus.DefBuckets,
			},
		),
		entries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "entries_total",
				Help:      "Feed entries by ingestion result",
			},
			[]string{"result"},
		),
		alerts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "alerts_total",
				Help:      "Threshold breaches by metric",
			},
			[]string{"metric"},
		),
		dispatchFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "dispatch_failures_total",
				Help:      "Alert notifications that could not be delivered",
			},
		),
		httpRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "HTTP requests by method, path and status",
			},
			[]string{"method", "path", "status"},
		),
		httpDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
	}
}

func (c *Collectors) ObserveCycle(outcome string, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.cycles.WithLabelValues(outcome).Inc()
	if outcome != OutcomeSkipped {
		c.cycleDuration.Observe(elapsed.Seconds())
	}
}

func (c *Collectors) ObserveEntries(saved, failed, dropped int) {
	if c == nil {
		return
	}
	c.entries.WithLabelValues("saved").Add(float64(saved))
	c.entries.WithLabelValues("failed").Add(float64(failed))
	c.entries.WithLabelValues("dropped").Add(float64(dropped))
}

func (c *Collectors) AlertRaised(metric string) {
	if c == nil {
		return
	}
	c.alerts.WithLabelValues(metric).Inc()
}

func (c *Collectors) DispatchFailed() {
	if c == nil {
		return
	}
	c.dispatchFailures.Inc()
}

func (c *Collectors) ObserveRequest(method, path, status string, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.httpRequests.WithLabelValues(method, path, status).Inc()
	c.httpDuration.WithLabelValues(method, path).Observe(elapsed.Seconds())
}
