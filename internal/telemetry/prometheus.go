package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// prometheusMetrics mirrors the atomic counters as Prometheus gauges and
// counters, a domain-stack addition grounded on
// ehsanshojaeiiii-sms-gateway/internal/monitoring's counter-per-event
// style, generalized from HTTP/message counters to question-supply
// counters. This gives the worker pool's activity a second, scrape-based
// exposition surface alongside the spec's own JSON /metrics endpoint.
type prometheusMetrics struct {
	jobsEnqueued       prometheus.Counter
	jobsCompleted      prometheus.Counter
	jobsFailed         prometheus.Counter
	questionsGenerated prometheus.Counter
	duplicatesSkipped  prometheus.Counter
	autoTriggers       prometheus.Counter
	manualTriggers     prometheus.Counter
	activeJobs         prometheus.Gauge
	concurrentStreams  prometheus.Gauge
	registry           *prometheus.Registry
}

func newPrometheusMetrics() *prometheusMetrics {
	registry := prometheus.NewRegistry()

	m := &prometheusMetrics{
		jobsEnqueued: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trivia_jobs_enqueued_total",
			Help: "Total generation jobs enqueued.",
		}),
		jobsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trivia_jobs_completed_total",
			Help: "Total generation jobs completed.",
		}),
		jobsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trivia_jobs_failed_total",
			Help: "Total generation jobs failed.",
		}),
		questionsGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trivia_questions_generated_total",
			Help: "Total questions persisted by the Store.",
		}),
		duplicatesSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trivia_duplicates_skipped_total",
			Help: "Total generated questions skipped as content-hash duplicates.",
		}),
		autoTriggers: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trivia_auto_triggers_total",
			Help: "Total jobs enqueued by the Supply Controller's auto-trigger policy.",
		}),
		manualTriggers: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trivia_manual_triggers_total",
			Help: "Total jobs enqueued directly by an operator.",
		}),
		activeJobs: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "trivia_active_jobs",
			Help: "Current number of non-terminal jobs.",
		}),
		concurrentStreams: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "trivia_concurrent_streams",
			Help: "Current number of live push streams.",
		}),
		registry: registry,
	}

	registry.MustRegister(
		m.jobsEnqueued, m.jobsCompleted, m.jobsFailed,
		m.questionsGenerated, m.duplicatesSkipped,
		m.autoTriggers, m.manualTriggers,
		m.activeJobs, m.concurrentStreams,
	)

	return m
}

// Handler returns the http.Handler serving the Prometheus exposition
// format, mounted at GET /metrics/prometheus alongside the spec's own
// JSON /metrics endpoint.
func (t *Telemetry) Handler() http.Handler {
	return promhttp.HandlerFor(t.prom.registry, promhttp.HandlerOpts{})
}
