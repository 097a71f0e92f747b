package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "taskengine"

// Collector keeps the task metrics of one App in its own registry, so
// several Apps in one process never clash
type Collector struct {
	registry *prometheus.Registry

	submitted *prometheus.CounterVec
	processed *prometheus.CounterVec
	duration  *prometheus.HistogramVec
}

// NewCollector creates Collector instance
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		submitted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tasks_submitted_total",
				Help:      "Total number of submitted tasks.",
			},
			[]string{"task", "mode"},
		),
		processed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tasks_processed_total",
				Help:      "Total number of processed tasks by terminal state.",
			},
			[]string{"task", "state"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "task_duration_seconds",
				Help:      "Duration of task executions, in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"task"},
		),
	}

	c.registry.MustRegister(c.submitted, c.processed, c.duration)
	return c
}

// RegisterQueueDepth exposes the number of messages waiting in the queue
func (c *Collector) RegisterQueueDepth(depth func() int) {
	c.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_depth",
			Help:      "Number of tasks waiting to be picked up by a worker.",
		},
		func() float64 { return float64(depth()) },
	))
}

// TaskSubmitted counts a submission, mode is eager or async
func (c *Collector) TaskSubmitted(taskName, mode string) {
	c.submitted.WithLabelValues(taskName, mode).Inc()
}

// TaskProcessed counts a finished execution and observes its duration
func (c *Collector) TaskProcessed(taskName, state string, took time.Duration) {
	c.processed.WithLabelValues(taskName, state).Inc()
	c.duration.WithLabelValues(taskName).Observe(took.Seconds())
}

// Gatherer returns the registry backing the collector
func (c *Collector) Gatherer() prometheus.Gatherer {
	return c.registry
}

// Handler serves the collected metrics in the Prometheus text format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
