// Package metrics exports scenario run outcomes as Prometheus metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gotrs-io/configurator-e2e/internal/scenario"
)

// Collector records step and scenario outcomes. It implements
// scenario.Observer.
type Collector struct {
	registry  *prometheus.Registry
	steps     *prometheus.CounterVec
	scenarios *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	lastRun   *prometheus.GaugeVec
	lastOK    *prometheus.GaugeVec
}

var _ scenario.Observer = (*Collector)(nil)

// NewCollector creates a collector with its own registry.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Collector{
		registry: reg,
		steps: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "scenario_steps_total",
			Help: "Executed scenario steps by action and outcome",
		}, []string{"suite", "action", "status", "kind"}),
		scenarios: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "scenarios_total",
			Help: "Finished scenarios by outcome",
		}, []string{"suite", "status"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "scenario_step_duration_seconds",
			Help:    "Step execution time, including polling",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		}, []string{"suite", "action"}),
		lastRun: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "scenario_last_run_timestamp_seconds",
			Help: "Unix time the scenario last finished",
		}, []string{"suite", "scenario"}),
		lastOK: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "scenario_last_run_success",
			Help: "1 when the last run of the scenario passed, 0 otherwise",
		}, []string{"suite", "scenario"}),
	}
}

func (c *Collector) StepFinished(suite, _ string, step scenario.StepResult) {
	c.steps.WithLabelValues(suite, string(step.Action), string(step.Status), step.Kind).Inc()
	c.duration.WithLabelValues(suite, string(step.Action)).Observe(step.Duration.Seconds())
}

func (c *Collector) ScenarioFinished(suite string, res *scenario.ScenarioResult) {
	c.scenarios.WithLabelValues(suite, string(res.Status)).Inc()
	if res.Status == scenario.StatusSkipped {
		return
	}
	c.lastRun.WithLabelValues(suite, res.Name).Set(float64(res.Started.Add(res.Duration).Unix()))
	ok := 0.0
	if res.Status == scenario.StatusPassed {
		ok = 1
	}
	c.lastOK.WithLabelValues(suite, res.Name).Set(ok)
}

// Registry exposes the underlying registry.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Handler serves the metrics in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// WriteTextfile writes the current values to path for the node exporter
// textfile collector. The file is replaced atomically.
func (c *Collector) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, c.registry)
}
