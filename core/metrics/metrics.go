package metrics

import (
	"time"

	"github.com/kilianp07/skyplan/core/model"
)

// ObservationEvent describes one scheduled exposure.
type ObservationEvent struct {
	Nite       string
	Tag        string
	Record     model.Record
	Candidates int
}

// MetricsSink records planning results for observability purposes.
type MetricsSink interface {
	RecordObservation(ev ObservationEvent) error
}

// ChunkEvent summarizes a closed chunk.
type ChunkEvent struct {
	Nite         string
	Seq          int
	Tag          string
	Observations int
	// Open is the window length, Busy the time spent slewing and exposing.
	Open time.Duration
	Busy time.Duration
}

// Utilization returns the busy fraction of the window.
func (e ChunkEvent) Utilization() float64 {
	if e.Open <= 0 {
		return 0
	}
	return float64(e.Busy) / float64(e.Open)
}

// ChunkRecorder records closed chunks.
type ChunkRecorder interface {
	RecordChunk(ev ChunkEvent) error
}

// NightEvent summarizes a planned nite.
type NightEvent struct {
	Nite         string
	Chunks       int
	Observations int
	MeanAirmass  float64
	MeanSlewDeg  float64
	Interrupted  bool
}

// NightRecorder records planned nites.
type NightRecorder interface {
	RecordNight(ev NightEvent) error
}

// SurveyEvent summarizes a planning run.
type SurveyEvent struct {
	Nights       int
	Observations int
	Completed    int
	Exhausted    bool
	Interrupted  bool
	Elapsed      time.Duration
}

// SurveyRecorder records planning runs.
type SurveyRecorder interface {
	RecordSurvey(ev SurveyEvent) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordObservation(ObservationEvent) error { return nil }
func (NopSink) RecordChunk(ChunkEvent) error             { return nil }
func (NopSink) RecordNight(NightEvent) error             { return nil }
func (NopSink) RecordSurvey(SurveyEvent) error           { return nil }
