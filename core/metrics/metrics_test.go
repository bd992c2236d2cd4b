package metrics

import (
	"encoding/json"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/skyplan/core/factory"
)

type recordSink struct {
	count int
}

func (r *recordSink) RecordObservation(ObservationEvent) error {
	r.count++
	return nil
}

func (r *recordSink) RecordChunk(ChunkEvent) error {
	r.count++
	return nil
}

// TestMultiSink ensures events are forwarded to all sinks.
func TestMultiSink(t *testing.T) {
	s1 := &recordSink{}
	s2 := &recordSink{}
	m := NewMultiSink(s1, s2, NopSink{})
	if err := m.RecordObservation(ObservationEvent{}); err != nil {
		t.Fatalf("record observation: %v", err)
	}
	if err := m.RecordChunk(ChunkEvent{}); err != nil {
		t.Fatalf("record chunk: %v", err)
	}
	if err := m.RecordNight(NightEvent{}); err != nil {
		t.Fatalf("record night: %v", err)
	}
	if s1.count != 2 || s2.count != 2 {
		t.Fatalf("events not forwarded")
	}
}

func TestChunkUtilization(t *testing.T) {
	ev := ChunkEvent{Open: time.Hour, Busy: 45 * time.Minute}
	if ev.Utilization() != 0.75 {
		t.Fatalf("unexpected utilization %v", ev.Utilization())
	}
	if (ChunkEvent{}).Utilization() != 0 {
		t.Fatalf("empty window should yield zero")
	}
}

/*
TestNewMetricsSink validates NewMetricsSink behavior with zero, one, and multiple configs.
Cases:
  - no config -> NopSink
  - two configs -> MultiSink with two sub-sinks
  - unknown type -> error
*/
func TestNewMetricsSink(t *testing.T) {
	s, err := NewMetricsSink(nil)
	if err != nil {
		t.Fatalf("create nop default: %v", err)
	}
	if _, ok := s.(NopSink); !ok {
		t.Fatalf("expected NopSink, got %T", s)
	}
	s, err = NewMetricsSink([]factory.ModuleConfig{{Type: "nop"}, {Type: "nop"}})
	if err != nil {
		t.Fatalf("create multi: %v", err)
	}
	m, ok := s.(*MultiSink)
	if !ok || len(m.Sinks) != 2 {
		t.Fatalf("expected MultiSink with 2 sinks, got %T", s)
	}
	if _, err := NewMetricsSink([]factory.ModuleConfig{{Type: "missing"}}); err == nil {
		t.Fatal("expected error for unknown type")
	}
}

func TestMetricsConfigDecode(t *testing.T) {
	var cfg Config
	if err := yaml.Unmarshal([]byte("sinks:\n  - type: nop\n  - type: nop\nprom_port: \":9090\"\n"), &cfg); err != nil {
		t.Fatalf("yaml unmarshal: %v", err)
	}
	if len(cfg.Sinks) != 2 || cfg.PromPort != ":9090" {
		t.Fatalf("bad cfg %#v", cfg)
	}
	if err := json.Unmarshal([]byte(`{"sinks":[{"type":"missing"}]}`), &cfg); err != nil {
		t.Fatalf("json unmarshal: %v", err)
	}
	if _, err := NewMetricsSink(cfg.Sinks); err == nil {
		t.Fatalf("expected error for unknown type")
	}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected validation error for unknown type")
	}
	cfg.Sinks[0].Type = "nop"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate nop: %v", err)
	}
}
