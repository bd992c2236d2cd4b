package mqtt

import (
	"context"
	"fmt"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	coremon "github.com/kilianp07/skyplan/core/monitoring"
)

type recordMonitor struct {
	err  error
	tags map[string]string
}

func (r *recordMonitor) CaptureException(err error, tags map[string]string) {
	r.err = err
	r.tags = tags
}
func (r *recordMonitor) Recover()            {}
func (r *recordMonitor) Flush(time.Duration) {}

func TestPublishErrorCaptured(t *testing.T) {
	mc := &mockClient{publishErrs: []error{fmt.Errorf("net fail"), fmt.Errorf("net fail")}}
	newMQTTClient = func(o *paho.ClientOptions) pahoClient { mc.opts = o; return mc }
	defer func() { newMQTTClient = func(opts *paho.ClientOptions) pahoClient { return paho.NewClient(opts) } }()
	mon := &recordMonitor{}
	coremon.Init(mon)
	defer coremon.Init(coremon.NopMonitor{})
	cfg := Config{Broker: "tcp://localhost:1883", ClientID: "id", MaxRetries: 1, BackoffMS: 1}
	cli, err := NewPahoPublisher(cfg)
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	if err := cli.PublishNight(context.Background(), "run-7", samplePlan()); err == nil {
		t.Fatalf("expected error")
	}
	if mon.err == nil {
		t.Fatalf("error not captured")
	}
	if mon.tags["nite"] != "20160210" || mon.tags["module"] != "mqtt" || mon.tags["run_id"] != "run-7" {
		t.Fatalf("tags not set: %v", mon.tags)
	}
}

func TestMockPublisher(t *testing.T) {
	m := NewMockPublisher()
	m.FailNites["20160211"] = true
	if err := m.PublishNight(context.Background(), "r", samplePlan()); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if err := m.PublishNight(context.Background(), "r", samplePlanFor("20160211")); err == nil {
		t.Fatalf("expected failure")
	}
	if got := m.Published(); len(got) != 1 || got[0].Nite != "20160210" {
		t.Fatalf("unexpected messages %+v", got)
	}
}
