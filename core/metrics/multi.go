package metrics

// MultiSink fans events out to multiple sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordObservation forwards the event to all sinks, returning the first error encountered.
func (m *MultiSink) RecordObservation(ev ObservationEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordObservation(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordChunk forwards chunk summaries.
func (m *MultiSink) RecordChunk(ev ChunkEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(ChunkRecorder); ok {
			if err := rec.RecordChunk(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordNight forwards night summaries.
func (m *MultiSink) RecordNight(ev NightEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(NightRecorder); ok {
			if err := rec.RecordNight(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordSurvey forwards run summaries.
func (m *MultiSink) RecordSurvey(ev SurveyEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(SurveyRecorder); ok {
			if err := rec.RecordSurvey(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// Close closes every sink that holds resources.
func (m *MultiSink) Close() {
	for _, s := range m.Sinks {
		if c, ok := s.(interface{ Close() }); ok {
			c.Close()
		}
	}
}
