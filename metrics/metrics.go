// Package metrics records prometheus metrics about a test run, written in
// the text format for node_exporter's textfile collector.
package metrics

import (
	"fmt"

	"github.com/perfgo/testcheck/event"
	"github.com/perfgo/testcheck/tree"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

const Namespace = "testcheck"

// Recorder owns a registry with the metrics of a single run.
type Recorder struct {
	logger   zerolog.Logger
	registry *prometheus.Registry

	eventsTotal    *prometheus.CounterVec
	testsTotal     *prometheus.CounterVec
	testDuration   *prometheus.HistogramVec
	suitesExpected prometheus.Gauge
	suitesRan      prometheus.Gauge
	runDuration    prometheus.Gauge
	runConclusion  *prometheus.GaugeVec
}

func New(logger zerolog.Logger, project string) *Recorder {
	reg := prometheus.NewRegistry()
	labels := prometheus.Labels{"project": project}
	factory := promauto.With(reg)

	return &Recorder{
		logger:   logger,
		registry: reg,
		eventsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   Namespace,
			Name:        "events_total",
			Help:        "Count of reporter events by type",
			ConstLabels: labels,
		}, []string{"type"}),
		testsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   Namespace,
			Name:        "tests_total",
			Help:        "Count of finished tests by result",
			ConstLabels: labels,
		}, []string{"result"}),
		testDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   Namespace,
			Name:        "test_duration_seconds",
			Help:        "Duration of finished, visible tests",
			ConstLabels: labels,
			Buckets:     prometheus.ExponentialBuckets(0.01, 4, 8),
		}, []string{"result"}),
		suitesExpected: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   Namespace,
			Name:        "suites_expected",
			Help:        "Number of suites announced by the runner",
			ConstLabels: labels,
		}),
		suitesRan: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   Namespace,
			Name:        "suites_ran",
			Help:        "Number of suites that started",
			ConstLabels: labels,
		}),
		runDuration: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   Namespace,
			Name:        "run_duration_seconds",
			Help:        "Time between runner start and the last event",
			ConstLabels: labels,
		}),
		runConclusion: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   Namespace,
			Name:        "run_conclusion",
			Help:        "Set to 1 for the conclusion of the run",
			ConstLabels: labels,
		}, []string{"conclusion"}),
	}
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveEvent counts a decoded event. It matches the signature of
// tree.Options.OnEvent.
func (r *Recorder) ObserveEvent(ev event.Event) {
	r.eventsTotal.WithLabelValues(string(ev.EventType())).Inc()
}

// RecordRun records the outcome of a finished run.
func (r *Recorder) RecordRun(run *tree.Run) {
	for _, t := range run.Registry.Tests() {
		if t.Hidden || !t.Done() {
			continue
		}
		result := string(*t.Result)
		if t.Skipped {
			result = "skipped"
		}
		r.testsTotal.WithLabelValues(result).Inc()
		if d, ok := t.Duration(); ok {
			r.testDuration.WithLabelValues(result).Observe(d.Seconds())
		}
	}
	if run.Stats.Pending > 0 {
		r.testsTotal.WithLabelValues("pending").Add(float64(run.Stats.Pending))
	}

	r.suitesExpected.Set(float64(run.ExpectedSuites))
	r.suitesRan.Set(float64(run.Registry.SuiteCount()))
	r.runDuration.Set(run.Duration.Seconds())
	for _, c := range []tree.Conclusion{tree.ConclusionSuccess, tree.ConclusionFailure, tree.ConclusionUnknown} {
		v := 0.0
		if c == run.Conclusion {
			v = 1
		}
		r.runConclusion.WithLabelValues(c.String()).Set(v)
	}

	r.logger.Debug().
		Int("tests", run.Stats.Total).
		Stringer("conclusion", run.Conclusion).
		Msg("Recorded run metrics")
}

// WriteTextfile writes all metrics to path in the prometheus text format.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	return nil
}
