// Package metrics exposes optimizer and scheduler activity as Prometheus
// metrics.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/haskel/collswitch/internal/decision/optimizer"
	"github.com/haskel/collswitch/internal/decision/scheduler"
)

const namespace = "collswitch"

// Recorder implements optimizer.Observer on top of a Prometheus registry.
type Recorder struct {
	registry *prometheus.Registry

	ticks     *prometheus.CounterVec
	decisions *prometheus.CounterVec
	failures  *prometheus.CounterVec
}

var _ optimizer.Observer = (*Recorder)(nil)

// NewRecorder creates a recorder with its own registry. A nil registry
// creates a fresh one.
func NewRecorder(registry *prometheus.Registry) *Recorder {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	factory := promauto.With(registry)

	return &Recorder{
		registry: registry,
		ticks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "optimizer",
			Name:      "ticks_total",
			Help:      "Optimizer ticks, by whether the window was analyzed",
		}, []string{"domain", "analyzed"}),
		decisions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "optimizer",
			Name:      "decisions_total",
			Help:      "Champions written into contexts",
		}, []string{"domain", "champion", "switched"}),
		failures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "optimizer",
			Name:      "failures_total",
			Help:      "Analyses aborted by a prediction error",
		}, []string{"domain"}),
	}
}

// Registry returns the registry metrics are registered in.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveTick counts one optimizer tick.
func (r *Recorder) ObserveTick(domain, _ string, analyzed bool) {
	r.ticks.WithLabelValues(domain, strconv.FormatBool(analyzed)).Inc()
}

// ObserveDecision counts one written champion.
func (r *Recorder) ObserveDecision(domain, _, champion string, switched bool) {
	r.decisions.WithLabelValues(domain, champion, strconv.FormatBool(switched)).Inc()
}

// ObserveFailure counts one failed analysis.
func (r *Recorder) ObserveFailure(domain, _ string) {
	r.failures.WithLabelValues(domain).Inc()
}

// RegisterScheduler exposes the counters of a scheduler.
func (r *Recorder) RegisterScheduler(stats func() scheduler.Stats) {
	factory := promauto.With(r.registry)

	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "scheduler",
		Name:      "tasks",
		Help:      "Registered optimizer tasks",
	}, func() float64 { return float64(stats().Tasks) })

	factory.NewCounterFunc(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "scheduler",
		Name:      "ticks_total",
		Help:      "Scheduler ticks",
	}, func() float64 { return float64(stats().Ticks) })

	factory.NewCounterFunc(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "scheduler",
		Name:      "skipped_total",
		Help:      "Task dispatches skipped because the task was still pending",
	}, func() float64 { return float64(stats().Skipped) })

	factory.NewCounterFunc(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "scheduler",
		Name:      "panics_total",
		Help:      "Task runs that panicked",
	}, func() float64 { return float64(stats().Panics) })
}

// RegisterContexts exposes the window fill of every context returned by list.
func (r *Recorder) RegisterContexts(list func() []optimizer.Stats) {
	r.registry.MustRegister(&contextCollector{list: list})
}

var (
	windowRecordsDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "window", "records"),
		"Usage records held in a context window",
		[]string{"domain", "context"}, nil,
	)
	windowFinishedDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "window", "finished"),
		"Finished usage records held in a context window",
		[]string{"domain", "context"}, nil,
	)
	windowThresholdDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "window", "threshold"),
		"Finished records needed to analyze a context window",
		[]string{"domain", "context"}, nil,
	)
)

type contextCollector struct {
	list func() []optimizer.Stats
}

func (c *contextCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- windowRecordsDesc
	ch <- windowFinishedDesc
	ch <- windowThresholdDesc
}

func (c *contextCollector) Collect(ch chan<- prometheus.Metric) {
	for _, s := range c.list() {
		ch <- prometheus.MustNewConstMetric(windowRecordsDesc, prometheus.GaugeValue, float64(s.Window.Records), s.Domain, s.ID)
		ch <- prometheus.MustNewConstMetric(windowFinishedDesc, prometheus.GaugeValue, float64(s.Window.Finished), s.Domain, s.ID)
		ch <- prometheus.MustNewConstMetric(windowThresholdDesc, prometheus.GaugeValue, float64(s.Threshold), s.Domain, s.ID)
	}
}
