package metrics

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/skyplan/core/metrics"
	"github.com/kilianp07/skyplan/infra/logger"
)

// InfluxSink writes planning events to an InfluxDB instance using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
	now      func() time.Time
}

// InfluxConfig is the conf block of an "influx" sink.
type InfluxConfig struct {
	URL     string        `json:"url"`
	Token   string        `json:"token"`
	Org     string        `json:"org"`
	Bucket  string        `json:"bucket"`
	Timeout time.Duration `json:"timeout"`
	// Strict fails sink creation on an unhealthy server instead of falling
	// back to a no-op sink.
	Strict bool `json:"strict"`
}

// Validate checks that the write target is complete.
func (c InfluxConfig) Validate() error {
	if c.URL == "" || c.Org == "" || c.Bucket == "" {
		return errors.New("influx sink requires url, org and bucket")
	}
	if c.Timeout < 0 {
		return fmt.Errorf("influx timeout must not be negative, got %s", c.Timeout)
	}
	return nil
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	return newInfluxSink(InfluxConfig{URL: url, Token: token, Org: org, Bucket: bucket})
}

func newInfluxSink(c InfluxConfig) *InfluxSink {
	if c.Timeout == 0 {
		c.Timeout = 5 * time.Second
	}
	base := strings.TrimSuffix(c.URL, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, c.Token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: c.Timeout}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(c.Org, c.Bucket),
		log:      logger.New("influx-sink"),
		now:      time.Now,
	}
}

// Ping reports an error unless the server health check passes.
func (s *InfluxSink) Ping(ctx context.Context) error {
	health, err := s.client.Health(ctx)
	if err != nil {
		return fmt.Errorf("influx health check: %w", err)
	}
	if health.Status != "pass" {
		return fmt.Errorf("influx health status: %s", health.Status)
	}
	return nil
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.MetricsSink {
	sink, err := OpenInfluxSink(InfluxConfig{URL: url, Token: token, Org: org, Bucket: bucket, Strict: true})
	if err != nil {
		logger.New("influx-sink").Errorf("%v", err)
		return coremetrics.NopSink{}
	}
	return sink
}

// OpenInfluxSink builds a sink from c and checks the server health. A
// failed check is an error only in strict mode.
func OpenInfluxSink(c InfluxConfig) (coremetrics.MetricsSink, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	sink := newInfluxSink(c)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sink.Ping(ctx); err != nil {
		sink.client.Close()
		if c.Strict {
			return nil, err
		}
		sink.log.Errorf("%v, metrics disabled", err)
		return coremetrics.NopSink{}, nil
	}
	return sink, nil
}

// RecordObservation writes one point per scheduled exposure, stamped with
// the planned start time.
func (s *InfluxSink) RecordObservation(ev coremetrics.ObservationEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	r := ev.Record
	p := write.NewPointWithMeasurement("observation_scheduled").
		AddTag("nite", ev.Nite).
		AddTag("field_id", r.FieldID).
		AddTag("tiling", strconv.Itoa(r.Tiling)).
		AddTag("filter", r.Filter)
	if ev.Tag != "" {
		p = p.AddTag("tag", ev.Tag)
	}
	p = p.AddField("ra", round3(r.RA)).
		AddField("dec", round3(r.Dec)).
		AddField("airmass", round3(r.Airmass)).
		AddField("hour_angle", round3(r.HourAngle)).
		AddField("slew_deg", round3(r.SlewDeg)).
		AddField("exposure_s", r.Exposure.Seconds()).
		AddField("candidates", ev.Candidates).
		SetTime(r.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordChunk writes the chunk summary at the chunk start.
func (s *InfluxSink) RecordChunk(ev coremetrics.ChunkEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("chunk_planned").
		AddTag("nite", ev.Nite).
		AddTag("seq", strconv.Itoa(ev.Seq)).
		AddField("observations", ev.Observations).
		AddField("open_s", ev.Open.Seconds()).
		AddField("busy_s", ev.Busy.Seconds()).
		AddField("utilization", round3(ev.Utilization())).
		SetTime(s.now())
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordNight writes the night summary.
func (s *InfluxSink) RecordNight(ev coremetrics.NightEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("night_planned").
		AddTag("nite", ev.Nite).
		AddTag("interrupted", strconv.FormatBool(ev.Interrupted)).
		AddField("chunks", ev.Chunks).
		AddField("observations", ev.Observations).
		AddField("mean_airmass", round3(ev.MeanAirmass)).
		AddField("mean_slew_deg", round3(ev.MeanSlewDeg)).
		SetTime(s.now())
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordSurvey writes the run summary.
func (s *InfluxSink) RecordSurvey(ev coremetrics.SurveyEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("survey_run").
		AddTag("exhausted", strconv.FormatBool(ev.Exhausted)).
		AddTag("interrupted", strconv.FormatBool(ev.Interrupted)).
		AddField("nights", ev.Nights).
		AddField("observations", ev.Observations).
		AddField("completed", ev.Completed).
		AddField("elapsed_ms", ev.Elapsed.Milliseconds()).
		SetTime(s.now())
	return s.writeAPI.WritePoint(ctx, p)
}

// Close releases the client.
func (s *InfluxSink) Close() { s.client.Close() }

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
