package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/skyplan/core/metrics"
)

// PromSink records planning events in Prometheus metrics.
type PromSink struct {
	observations *prometheus.CounterVec
	airmass      prometheus.Histogram
	slew         prometheus.Histogram
	candidates   prometheus.Histogram
	chunks       *prometheus.CounterVec
	utilization  prometheus.Histogram
	runs         *prometheus.CounterVec
	completed    prometheus.Gauge
}

// NewPromSink registers planning metrics on the default Prometheus registerer.
// The Prometheus server should be started separately with StartPromServer.
func NewPromSink() (coremetrics.MetricsSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// register adds c to reg, reusing an identical collector already registered.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (coremetrics.MetricsSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{}
	var err error
	if s.observations, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "skyplan_observations_total",
		Help: "Total number of scheduled exposures",
	}, []string{"filter", "tag"})); err != nil {
		return nil, err
	}
	if s.airmass, err = register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "skyplan_observation_airmass",
		Help:    "Airmass of scheduled exposures",
		Buckets: []float64{1.05, 1.1, 1.2, 1.3, 1.4, 1.6, 1.8, 2.0},
	})); err != nil {
		return nil, err
	}
	if s.slew, err = register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "skyplan_slew_degrees",
		Help:    "Slew distance before each exposure",
		Buckets: []float64{0, 1, 2, 5, 10, 20, 45, 90},
	})); err != nil {
		return nil, err
	}
	if s.candidates, err = register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "skyplan_visible_candidates",
		Help:    "Number of visible candidates at each selection",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	})); err != nil {
		return nil, err
	}
	if s.chunks, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "skyplan_chunks_total",
		Help: "Total number of emitted chunks",
	}, []string{"empty"})); err != nil {
		return nil, err
	}
	if s.utilization, err = register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "skyplan_chunk_utilization_ratio",
		Help:    "Fraction of each chunk spent slewing and exposing",
		Buckets: prometheus.LinearBuckets(0.1, 0.1, 10),
	})); err != nil {
		return nil, err
	}
	if s.runs, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "skyplan_runs_total",
		Help: "Planning runs by outcome",
	}, []string{"outcome"})); err != nil {
		return nil, err
	}
	if s.completed, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "skyplan_completed_fields",
		Help: "Fields in the completed registry after the last run",
	})); err != nil {
		return nil, err
	}
	return s, nil
}

// RecordObservation counts the exposure and observes its airmass and slew.
func (s *PromSink) RecordObservation(ev coremetrics.ObservationEvent) error {
	s.observations.WithLabelValues(ev.Record.Filter, ev.Tag).Inc()
	s.airmass.Observe(ev.Record.Airmass)
	s.slew.Observe(ev.Record.SlewDeg)
	s.candidates.Observe(float64(ev.Candidates))
	return nil
}

// RecordChunk counts the chunk and its utilization.
func (s *PromSink) RecordChunk(ev coremetrics.ChunkEvent) error {
	s.chunks.WithLabelValues(strconv.FormatBool(ev.Observations == 0)).Inc()
	s.utilization.Observe(ev.Utilization())
	return nil
}

// RecordSurvey counts the run by outcome.
func (s *PromSink) RecordSurvey(ev coremetrics.SurveyEvent) error {
	outcome := "completed"
	switch {
	case ev.Interrupted:
		outcome = "interrupted"
	case ev.Exhausted:
		outcome = "exhausted"
	}
	s.runs.WithLabelValues(outcome).Inc()
	s.completed.Set(float64(ev.Completed))
	return nil
}
