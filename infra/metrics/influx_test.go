package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/skyplan/core/metrics"
	"github.com/kilianp07/skyplan/core/model"
)

func captureServer(t *testing.T) (*httptest.Server, func() []string) {
	t.Helper()
	var mu sync.Mutex
	var bodies []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		mu.Lock()
		bodies = append(bodies, strings.TrimSpace(string(data)))
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)
	return srv, func() []string {
		mu.Lock()
		defer mu.Unlock()
		return append([]string(nil), bodies...)
	}
}

func TestInfluxSink_RecordObservation(t *testing.T) {
	srv, bodies := captureServer(t)
	sink := NewInfluxSink(srv.URL, "token", "org", "bucket")
	defer sink.Close()
	at := time.Date(2016, 2, 11, 1, 0, 0, 0, time.UTC)
	ev := coremetrics.ObservationEvent{
		Nite: "20160210",
		Record: model.Record{
			FieldID: "f1", Tiling: 2, Filter: "g", RA: 120.12345, Dec: -30.5,
			Time: at, Exposure: 90 * time.Second, Airmass: 1.23456, HourAngle: -4, SlewDeg: 1.5,
		},
		Candidates: 7,
	}
	if err := sink.RecordObservation(ev); err != nil {
		t.Fatalf("record error: %v", err)
	}
	p := write.NewPointWithMeasurement("observation_scheduled").
		AddTag("nite", "20160210").
		AddTag("field_id", "f1").
		AddTag("tiling", "2").
		AddTag("filter", "g").
		AddField("ra", 120.123).
		AddField("dec", -30.5).
		AddField("airmass", 1.235).
		AddField("hour_angle", -4.0).
		AddField("slew_deg", 1.5).
		AddField("exposure_s", 90.0).
		AddField("candidates", 7).
		SetTime(at)
	expected := strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond))
	got := bodies()
	if len(got) != 1 || got[0] != expected {
		t.Errorf("unexpected body: %v\nwant %s", got, expected)
	}
}

func TestInfluxSink_Summaries(t *testing.T) {
	srv, bodies := captureServer(t)
	sink := NewInfluxSink(srv.URL+"/api/v2/write", "token", "org", "bucket")
	defer sink.Close()
	fixed := time.Date(2016, 2, 11, 9, 0, 0, 0, time.UTC)
	sink.now = func() time.Time { return fixed }

	if err := sink.RecordChunk(coremetrics.ChunkEvent{Nite: "20160210", Seq: 1, Observations: 3, Open: time.Hour, Busy: 30 * time.Minute}); err != nil {
		t.Fatalf("chunk: %v", err)
	}
	if err := sink.RecordNight(coremetrics.NightEvent{Nite: "20160210", Chunks: 1, Observations: 3, MeanAirmass: 1.1}); err != nil {
		t.Fatalf("night: %v", err)
	}
	if err := sink.RecordSurvey(coremetrics.SurveyEvent{Nights: 1, Observations: 3, Completed: 3}); err != nil {
		t.Fatalf("survey: %v", err)
	}
	got := bodies()
	if len(got) != 3 {
		t.Fatalf("expected 3 writes, got %d", len(got))
	}
	for i, prefix := range []string{"chunk_planned,", "night_planned,", "survey_run,"} {
		if !strings.HasPrefix(got[i], prefix) {
			t.Errorf("write %d: expected prefix %q, got %s", i, prefix, got[i])
		}
	}
	if !strings.Contains(got[0], "utilization=0.5") {
		t.Errorf("missing utilization: %s", got[0])
	}
}

func TestNewInfluxSinkWithFallback(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			called = true
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	}))
	defer srv.Close()

	sink := NewInfluxSinkWithFallback(srv.URL+"/api/v2/write", "tok", "org", "bucket")
	if _, ok := sink.(*InfluxSink); ok {
		t.Fatalf("expected NopSink on failing health check")
	}
	if !called {
		t.Fatalf("health endpoint not called")
	}
}
