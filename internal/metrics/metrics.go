package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/piwi3910/CargoLoad/internal/model"
)

// Metrics holds the solver collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	Runs        *prometheus.CounterVec
	Generations prometheus.Counter
	BestValue   *prometheus.GaugeVec
	Occupancy   prometheus.Histogram
	RunDuration *prometheus.HistogramVec
	Jobs        *prometheus.CounterVec
	Requests    *prometheus.CounterVec
}

// New registers the solver collectors together with the Go runtime collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cargoload_runs_total",
			Help: "Genetic algorithm runs by group improvement and outcome.",
		}, []string{"improvement", "outcome"}),
		Generations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cargoload_generations_total",
			Help: "Generations evolved across all runs.",
		}),
		BestValue: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "cargoload_best_value",
			Help: "Best packed value of the latest run per problem.",
		}, []string{"problem_id"}),
		Occupancy: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cargoload_occupancy_ratio",
			Help:    "Container occupancy of the best solution.",
			Buckets: prometheus.LinearBuckets(0.1, 0.1, 10),
		}),
		RunDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cargoload_run_duration_seconds",
			Help:    "Wall-clock duration of genetic algorithm runs.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 14),
		}, []string{"improvement"}),
		Jobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cargoload_jobs_total",
			Help: "Queued solve jobs by status.",
		}, []string{"status"}),
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cargoload_http_requests_total",
			Help: "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
	}
	m.registry.MustRegister(
		m.Runs, m.Generations, m.BestValue, m.Occupancy, m.RunDuration, m.Jobs, m.Requests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveRun records a finished run.
func (m *Metrics) ObserveRun(stats model.Stats) {
	improvement := stats.GroupImprovement.String()
	outcome := "completed"
	if stats.Interrupted {
		outcome = "interrupted"
	}
	m.Runs.WithLabelValues(improvement, outcome).Inc()
	m.Generations.Add(float64(stats.Generations))
	m.BestValue.WithLabelValues(stats.ProblemID).Set(stats.BestValue.Value)
	m.Occupancy.Observe(stats.BestValue.Occupancy)
	m.RunDuration.WithLabelValues(improvement).Observe(stats.Timings.Duration)
}

// ObserveFailure records a run that returned an error.
func (m *Metrics) ObserveFailure(improvement model.GroupImprovement) {
	m.Runs.WithLabelValues(improvement.String(), "failed").Inc()
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
